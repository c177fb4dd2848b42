package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matiasleandrokruk/bqmcp/internal/domain/bigquery"
	"github.com/matiasleandrokruk/bqmcp/internal/domain/policy"
	"github.com/matiasleandrokruk/bqmcp/internal/infra/bqcli"
)

type getSchemaInput struct {
	TableID string `json:"table_id" jsonschema:"Full table ID in format project.dataset.table"`
}

type getRoutineInput struct {
	RoutineID string `json:"routine_id" jsonschema:"Full routine ID in format project.dataset.routine_name"`
}

type executeQueryInput struct {
	Query             string `json:"query" jsonschema:"SQL query to execute"`
	ProjectID         string `json:"project_id" jsonschema:"Google Cloud project ID"`
	ConfirmationToken string `json:"confirmation_token,omitempty" jsonschema:"Token from a prior approval_required response; required to run data-mutating statements"`
}

// registerTools binds the BigQuery operations to the MCP server.
func registerTools(srv *mcp.Server, svc *bigquery.Service) {
	mcp.AddTool(srv, &mcp.Tool{
		Name: "get_bq_schema",
		Description: "Get the BigQuery table schema for a given table ID. " +
			"Works for tables and views; use get_bq_routine for TVFs, stored procedures and functions.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in getSchemaInput) (*mcp.CallToolResult, any, error) {
		out, err := svc.GetTableSchema(ctx, in.TableID)
		if err != nil {
			return errorResult(err)
		}
		return textResult(out), nil, nil
	})

	mcp.AddTool(srv, &mcp.Tool{
		Name: "get_bq_routine",
		Description: "Get BigQuery routine (TVF, stored procedure, function) information for a given routine ID, " +
			"including definition, parameters and return type.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in getRoutineInput) (*mcp.CallToolResult, any, error) {
		out, err := svc.GetRoutine(ctx, in.RoutineID)
		if err != nil {
			return errorResult(err)
		}
		return textResult(out), nil, nil
	})

	mcp.AddTool(srv, &mcp.Tool{
		Name: "execute_bq_query",
		Description: "Execute a BigQuery SQL query with safety checks. Every query is dry-run first for syntax " +
			"validation and cost estimation. Data-mutating statements (DELETE, DROP, TRUNCATE, ALTER, CREATE, " +
			"UPDATE, INSERT, MERGE) require a confirmation_token issued by a prior call with the exact same query text.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in executeQueryInput) (*mcp.CallToolResult, any, error) {
		out, err := svc.ExecuteQuery(ctx, in.Query, in.ProjectID, in.ConfirmationToken)
		if err != nil {
			return errorResult(err)
		}
		return textResult(out), nil, nil
	})
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// errorResult maps domain errors to structured tool errors. Every failure is
// returned to the caller as an IsError result prefixed with its kind; nothing
// crashes the process and nothing is retried.
func errorResult(err error) (*mcp.CallToolResult, any, error) {
	var (
		apr    *policy.ApprovalRequiredError
		cmdErr *bqcli.CommandError
	)

	var msg string
	switch {
	case errors.As(err, &apr):
		msg = fmt.Sprintf("approval_required: dangerous keyword %s detected.", apr.Keyword)
		if apr.CostEstimate != "" {
			msg += "\n" + apr.CostEstimate
		}
		msg += fmt.Sprintf("\nTo execute this exact query, call again with confirmation_token: %s", apr.Token)
	case errors.Is(err, bqcli.ErrTimeout):
		msg = "execution_timeout: " + err.Error()
	case errors.As(err, &cmdErr):
		// The bq client's stderr is the caller's only diagnostic; pass it through.
		msg = "command_failed: " + err.Error()
	case errors.Is(err, bigquery.ErrInvalidArgument):
		msg = "invalid_argument: " + err.Error()
	default:
		msg = "internal_error: " + err.Error()
	}

	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}, nil, nil
}
