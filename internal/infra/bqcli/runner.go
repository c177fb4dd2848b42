// Package bqcli invokes the BigQuery command-line client as a child process.
//
// The Runner interface is the integration boundary with the external bq tool:
// a validated argument vector in, captured output or a typed error out. The
// domain layer depends only on the interface so tests run against a stub and
// never spawn real processes. Authentication is ambient — the bq client's
// own gcloud session — and is never read or stored here.
package bqcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// ErrTimeout is returned when the child process exceeds the configured bound.
// The process is killed before the error is returned.
var ErrTimeout = errors.New("bq command timed out")

// CommandError is returned when the bq client exits non-zero. Stderr carries
// the client's diagnostic text verbatim — it is the caller's only diagnostic,
// this package does not parse or classify bq's error taxonomy.
type CommandError struct {
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("bq exited with status %d: %s", e.ExitCode, e.Stderr)
}

// Result holds the captured output of a successful invocation.
type Result struct {
	Stdout string
	Stderr string
}

// Runner executes one bq invocation. Implementations must pass args as a
// vector — never through shell string interpolation.
type Runner interface {
	Run(ctx context.Context, args []string) (*Result, error)
}

// Options is the explicit execution context for child processes: injected
// configuration instead of process-wide environment lookups.
type Options struct {
	Path    string        // bq binary, default "bq"
	Dir     string        // working directory, empty = inherit
	Env     []string      // environment, nil = inherit
	Timeout time.Duration // bound on each invocation, default 300s
}

// ExecRunner runs the bq client via os/exec.
type ExecRunner struct {
	opts Options
}

// NewExecRunner returns an ExecRunner, applying defaults for unset options.
func NewExecRunner(opts Options) *ExecRunner {
	if opts.Path == "" {
		opts.Path = "bq"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 300 * time.Second
	}
	return &ExecRunner{opts: opts}
}

// Run spawns one child process and waits for it to exit, the timeout to
// expire, or ctx to be cancelled. The child is reaped on every exit path:
// exec.CommandContext kills it when the run context closes.
func (r *ExecRunner) Run(ctx context.Context, args []string) (*Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.opts.Path, args...)
	cmd.Dir = r.opts.Dir
	cmd.Env = r.opts.Env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	// Distinguish our own bound from caller cancellation.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %s", ErrTimeout, r.opts.Timeout)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &CommandError{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return nil, fmt.Errorf("start %s: %w", r.opts.Path, err)
	}

	return &Result{Stdout: stdout.String(), Stderr: stderr.String()}, nil
}
