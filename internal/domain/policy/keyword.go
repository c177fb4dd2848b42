// Package policy implements the query safety gate: classification of SQL
// statements as data-mutating and the confirmation-token scheme that lets a
// caller explicitly approve one exact dangerous statement.
package policy

import (
	"strings"
	"unicode"
)

// dangerousKeywords are the statement verbs treated as data-mutating.
var dangerousKeywords = map[string]struct{}{
	"DELETE":   {},
	"DROP":     {},
	"TRUNCATE": {},
	"ALTER":    {},
	"CREATE":   {},
	"UPDATE":   {},
	"INSERT":   {},
	"MERGE":    {},
}

// DangerousKeyword reports the first data-mutating verb appearing as the
// leading token of any semicolon-separated statement in query. A statement
// that opens with a WITH clause is additionally scanned at parenthesis depth
// zero, so the top-level verb after the CTE list is still seen.
//
// This is a case-insensitive token scan, not a SQL parser: a mutating verb
// at top level inside a string literal is flagged (over-classification), and
// verbs behind constructs the scan does not model are missed. These edge
// cases are an accepted limitation of the heuristic; the approval prompt is
// the recovery path for false positives.
func DangerousKeyword(query string) (string, bool) {
	for _, stmt := range strings.Split(query, ";") {
		fields := strings.Fields(stmt)
		if len(fields) == 0 {
			continue
		}
		verb := strings.ToUpper(strings.TrimLeft(fields[0], "("))
		if _, ok := dangerousKeywords[verb]; ok {
			return verb, true
		}
		if verb == "WITH" {
			if kw, found := topLevelKeyword(stmt); found {
				return kw, true
			}
		}
	}
	return "", false
}

// topLevelKeyword scans every word of stmt outside parentheses, skipping the
// parenthesized CTE bodies of a WITH prefix so the statement verb that
// follows them is classified like a leading verb.
func topLevelKeyword(stmt string) (string, bool) {
	depth := 0
	var word []rune

	flush := func() (string, bool) {
		if len(word) == 0 {
			return "", false
		}
		w := strings.ToUpper(string(word))
		word = word[:0]
		_, ok := dangerousKeywords[w]
		return w, ok
	}

	for _, r := range stmt {
		switch {
		case r == '(':
			if w, ok := flush(); ok {
				return w, true
			}
			depth++
		case r == ')':
			word = word[:0]
			if depth > 0 {
				depth--
			}
		case depth > 0:
			// inside a CTE body or subquery
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			word = append(word, r)
		default:
			if w, ok := flush(); ok {
				return w, true
			}
		}
	}
	return flush()
}
