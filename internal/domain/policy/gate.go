package policy

import "fmt"

// ApprovalRequiredError is returned when a dangerous query arrives without a
// valid confirmation token. It carries the detected keyword and a freshly
// issued token so the caller can resubmit the same query with approval
// attached. CostEstimate is filled in by the query service when a dry run
// preceded the gate.
type ApprovalRequiredError struct {
	Keyword      string
	Token        string
	CostEstimate string
}

func (e *ApprovalRequiredError) Error() string {
	return fmt.Sprintf("approval required: query contains dangerous keyword %s", e.Keyword)
}

// Gate decides whether a query may be forwarded to the bq client.
type Gate struct {
	tokens *TokenIssuer
}

// NewGate creates a Gate backed by the given token issuer.
func NewGate(tokens *TokenIssuer) *Gate {
	return &Gate{tokens: tokens}
}

// Check classifies query and enforces the confirmation-token policy.
//
// A nil return means the query may be forwarded: either no dangerous keyword
// was found, or the supplied token is valid for this exact query text. In
// every other case — no token, expired token, token issued for different
// text — Check returns *ApprovalRequiredError with a regenerated token and
// the query is never forwarded. Fail closed.
func (g *Gate) Check(query, token string) error {
	keyword, dangerous := DangerousKeyword(query)
	if !dangerous {
		return nil
	}

	if token != "" && g.tokens.Validate(token, query) == nil {
		return nil
	}

	fresh, err := g.tokens.Issue(query)
	if err != nil {
		return fmt.Errorf("issue confirmation token: %w", err)
	}
	return &ApprovalRequiredError{Keyword: keyword, Token: fresh}
}
