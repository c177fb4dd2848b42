package policy

import (
	"errors"
	"testing"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	issuer, err := NewTokenIssuer(0)
	if err != nil {
		t.Fatalf("NewTokenIssuer error: %v", err)
	}
	return NewGate(issuer)
}

func TestGate_SafeQueryForwards(t *testing.T) {
	t.Parallel()

	gate := newTestGate(t)
	if err := gate.Check("SELECT 1", ""); err != nil {
		t.Fatalf("expected safe query to pass, got %v", err)
	}
}

func TestGate_DangerousQueryWithoutToken(t *testing.T) {
	t.Parallel()

	gate := newTestGate(t)
	err := gate.Check("DELETE FROM proj.ds.tbl", "")

	var apr *ApprovalRequiredError
	if !errors.As(err, &apr) {
		t.Fatalf("expected *ApprovalRequiredError, got %v", err)
	}
	if apr.Keyword != "DELETE" {
		t.Fatalf("keyword = %q; want DELETE", apr.Keyword)
	}
	if apr.Token == "" {
		t.Fatal("expected a regenerated confirmation token")
	}
}

func TestGate_CTEWrappedDMLRequiresApproval(t *testing.T) {
	t.Parallel()

	gate := newTestGate(t)
	const query = "WITH doomed AS (SELECT id FROM proj.ds.tbl) DELETE FROM proj.ds.tbl WHERE id IN (SELECT id FROM doomed)"

	err := gate.Check(query, "")
	var apr *ApprovalRequiredError
	if !errors.As(err, &apr) {
		t.Fatalf("expected *ApprovalRequiredError for top-level DELETE behind a CTE, got %v", err)
	}
	if apr.Keyword != "DELETE" {
		t.Fatalf("keyword = %q; want DELETE", apr.Keyword)
	}

	// The issued token still approves that exact statement.
	if err := gate.Check(query, apr.Token); err != nil {
		t.Fatalf("expected approved query to pass, got %v", err)
	}
}

func TestGate_IdempotentDenialWithFreshTokens(t *testing.T) {
	t.Parallel()

	gate := newTestGate(t)
	const query = "DROP TABLE proj.ds.tbl"

	var first, second *ApprovalRequiredError
	if err := gate.Check(query, ""); !errors.As(err, &first) {
		t.Fatalf("first check: expected ApprovalRequiredError, got %v", err)
	}
	if err := gate.Check(query, ""); !errors.As(err, &second) {
		t.Fatalf("second check: expected ApprovalRequiredError, got %v", err)
	}
	if first.Token == second.Token {
		t.Fatal("expected distinct tokens across repeated denials")
	}
}

func TestGate_ValidTokenForwards(t *testing.T) {
	t.Parallel()

	gate := newTestGate(t)
	const query = "DELETE FROM proj.ds.tbl"

	var apr *ApprovalRequiredError
	if err := gate.Check(query, ""); !errors.As(err, &apr) {
		t.Fatalf("expected ApprovalRequiredError, got %v", err)
	}

	if err := gate.Check(query, apr.Token); err != nil {
		t.Fatalf("expected approved query to pass, got %v", err)
	}
}

func TestGate_TokenForOtherQueryRejected(t *testing.T) {
	t.Parallel()

	gate := newTestGate(t)

	var apr *ApprovalRequiredError
	if err := gate.Check("DELETE FROM proj.ds.a", ""); !errors.As(err, &apr) {
		t.Fatalf("expected ApprovalRequiredError, got %v", err)
	}

	// Approval for query A must not authorize query B; a fresh token is issued.
	var again *ApprovalRequiredError
	err := gate.Check("DELETE FROM proj.ds.b", apr.Token)
	if !errors.As(err, &again) {
		t.Fatalf("expected ApprovalRequiredError for tampered query, got %v", err)
	}
	if again.Token == apr.Token {
		t.Fatal("expected a regenerated token, got the original")
	}
}

func TestGate_SafeQueryIgnoresToken(t *testing.T) {
	t.Parallel()

	gate := newTestGate(t)
	if err := gate.Check("SELECT 1", "garbage-token"); err != nil {
		t.Fatalf("safe query must forward regardless of token, got %v", err)
	}
}
