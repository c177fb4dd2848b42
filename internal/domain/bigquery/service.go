package bigquery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/matiasleandrokruk/bqmcp/internal/domain/policy"
	"github.com/matiasleandrokruk/bqmcp/internal/infra/bqcli"
	"github.com/matiasleandrokruk/bqmcp/internal/infra/eventbus"
)

// InvocationEvent is published on TopicToolInvoked after a bq call returns.
type InvocationEvent struct {
	Operation string
	Project   string
}

// ApprovalEvent is published on TopicApprovalRequired when the gate blocks a query.
type ApprovalEvent struct {
	Keyword string
	Project string
}

// Service adapts tool operations to bq client invocations. It owns no state
// across calls; the bq client's output is passed through unmodified.
type Service struct {
	runner bqcli.Runner
	gate   *policy.Gate
	bus    eventbus.EventBus
}

// NewService creates a Service. bus may be nil to disable event publishing.
func NewService(runner bqcli.Runner, gate *policy.Gate, bus eventbus.EventBus) *Service {
	return &Service{runner: runner, gate: gate, bus: bus}
}

// GetTableSchema returns the JSON schema document for a table or view,
// exactly as the bq client printed it.
func (s *Service) GetTableSchema(ctx context.Context, tableID string) (string, error) {
	id, err := ParseIdentifier(tableID)
	if err != nil {
		return "", fmt.Errorf("table_id: %w", err)
	}

	res, err := s.runner.Run(ctx, []string{
		"--project_id", id.Project, "show", "--format=json", id.Qualified(),
	})
	if err != nil {
		return "", err
	}

	s.publish(eventbus.TopicToolInvoked, InvocationEvent{Operation: "get_bq_schema", Project: id.Project})
	return res.Stdout, nil
}

// GetRoutine returns the JSON descriptor of a routine (TVF, stored procedure
// or function), exactly as the bq client printed it.
func (s *Service) GetRoutine(ctx context.Context, routineID string) (string, error) {
	id, err := ParseIdentifier(routineID)
	if err != nil {
		return "", fmt.Errorf("routine_id: %w", err)
	}

	res, err := s.runner.Run(ctx, []string{
		"--project_id", id.Project, "show", "--routine", "--format=json", id.Qualified(),
	})
	if err != nil {
		return "", err
	}

	s.publish(eventbus.TopicToolInvoked, InvocationEvent{Operation: "get_bq_routine", Project: id.Project})
	return res.Stdout, nil
}

// ExecuteQuery runs query in projectID after a dry run and the safety gate.
//
// Order of checks: argument shape, dry run (syntax validation + cost
// estimate), safety gate, real execution. A dangerous query without a valid
// confirmation token never reaches the real execution step; the returned
// *policy.ApprovalRequiredError carries the detected keyword, a fresh token
// and the dry-run cost estimate.
func (s *Service) ExecuteQuery(ctx context.Context, query, projectID, confirmationToken string) (string, error) {
	if query == "" {
		return "", fmt.Errorf("%w: query is required", ErrInvalidArgument)
	}
	if projectID == "" {
		return "", fmt.Errorf("%w: project_id is required", ErrInvalidArgument)
	}

	dryRun, err := s.runner.Run(ctx, queryArgs(query, projectID, true))
	if err != nil {
		return "", fmt.Errorf("query validation failed: %w", err)
	}

	if err := s.gate.Check(query, confirmationToken); err != nil {
		var apr *policy.ApprovalRequiredError
		if errors.As(err, &apr) {
			apr.CostEstimate = costEstimate(dryRun.Stdout)
			s.publish(eventbus.TopicApprovalRequired, ApprovalEvent{Keyword: apr.Keyword, Project: projectID})
		}
		return "", err
	}

	res, err := s.runner.Run(ctx, queryArgs(query, projectID, false))
	if err != nil {
		return "", err
	}

	s.publish(eventbus.TopicToolInvoked, InvocationEvent{Operation: "execute_bq_query", Project: projectID})
	return res.Stdout, nil
}

func (s *Service) publish(topic string, payload any) {
	if s.bus != nil {
		s.bus.Publish(topic, payload)
	}
}

// queryArgs builds the bq query argument vector. The query text is a single
// positional argument — never interpolated into a shell string.
func queryArgs(query, projectID string, dryRun bool) []string {
	args := []string{"query"}
	if dryRun {
		args = append(args, "--dry_run")
	}
	return append(args,
		"--format=json",
		"--project_id="+projectID,
		"--use_legacy_sql=false",
		query,
	)
}

// costEstimate extracts the bytes-processed estimate from a dry-run job
// document. bq serializes the statistics counters as strings.
func costEstimate(dryRunJSON string) string {
	var doc struct {
		Statistics struct {
			Query struct {
				TotalBytesProcessed any `json:"totalBytesProcessed"`
				TotalBytesBilled    any `json:"totalBytesBilled"`
			} `json:"query"`
		} `json:"statistics"`
	}
	if err := json.Unmarshal([]byte(dryRunJSON), &doc); err != nil {
		return "could not parse cost estimation"
	}

	processed := asInt64(doc.Statistics.Query.TotalBytesProcessed)
	info := fmt.Sprintf("estimated bytes processed: %d (%.2f MB)", processed, float64(processed)/1024/1024)

	if billed := asInt64(doc.Statistics.Query.TotalBytesBilled); billed > 0 {
		info += fmt.Sprintf("\nbytes billed: %d (%.2f MB)", billed, float64(billed)/1024/1024)
	}
	return info
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	case float64:
		return int64(n)
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
