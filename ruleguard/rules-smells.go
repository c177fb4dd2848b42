package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// Two consecutive guards returning the same value are combinable with ||.
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	// Building a command line by string concatenation defeats the
	// vector-argument invocation contract; append to the args slice instead.
	m.Match(`exec.Command($cmd + $arg, $*_)`, `exec.CommandContext($ctx, $cmd + $arg, $*_)`).
		Report(`command built by string concatenation; pass arguments as a vector`)

	// Sprintf with a single %s is a verbose string concatenation.
	m.Match(`fmt.Sprintf("%s", $x)`).
		Report(`redundant Sprintf; use the value directly`).
		Suggest(`$x`)
}
