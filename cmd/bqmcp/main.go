// bqmcp - BigQuery MCP server entry point.
// Wraps the locally authenticated bq command-line client and exposes schema
// lookup, routine lookup and gated query execution as MCP tools.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/matiasleandrokruk/bqmcp/internal/domain/bigquery"
	"github.com/matiasleandrokruk/bqmcp/internal/domain/policy"
	"github.com/matiasleandrokruk/bqmcp/internal/infra/bqcli"
	"github.com/matiasleandrokruk/bqmcp/internal/infra/config"
	"github.com/matiasleandrokruk/bqmcp/internal/infra/eventbus"
	"github.com/matiasleandrokruk/bqmcp/internal/server"
	"github.com/matiasleandrokruk/bqmcp/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("bqmcp", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")
	configPath := fs.String("config", "", "Path to a YAML config file")
	transport := fs.String("transport", "", "Transport override: stdio or http")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	if *showHelp {
		printHelp(out)
		return 0
	}

	cfg, err := loadConfig(*configPath, *transport)
	if err != nil {
		fmt.Fprintf(errOut, "ERROR: %v\n", err) //nolint:errcheck
		return 1
	}

	// Logs go to stderr: on the stdio transport, stdout is the protocol channel.
	log := slog.New(slog.NewTextHandler(errOut, nil))

	if err := serve(cfg, log); err != nil {
		fmt.Fprintf(errOut, "ERROR: %v\n", err) //nolint:errcheck
		return 1
	}
	return 0
}

func loadConfig(path, transportOverride string) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
		if err != nil {
			return cfg, err
		}
	} else {
		cfg = config.Load()
	}

	if transportOverride != "" {
		cfg.Transport = transportOverride
	}
	return cfg, cfg.Validate()
}

func serve(cfg config.Config, log *slog.Logger) error {
	issuer, err := policy.NewTokenIssuer(cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("init token issuer: %w", err)
	}

	runner := bqcli.NewExecRunner(bqcli.Options{
		Path:    cfg.BQPath,
		Dir:     cfg.BQWorkDir,
		Timeout: cfg.CommandTimeout,
	})

	bus := eventbus.New()
	svc := bigquery.NewService(runner, policy.NewGate(issuer), bus)
	srv := server.New(cfg, svc, bus, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}

func printHelp(out io.Writer) {
	helpText := `bqmcp - BigQuery MCP server

Wraps the locally authenticated bq CLI. Exposed tools:
  get_bq_schema      Table/view schema lookup
  get_bq_routine     Routine (TVF, procedure, function) lookup
  execute_bq_query   Query execution with dry-run cost estimation and a
                     confirmation-token gate for data-mutating statements

Usage:
  bqmcp [options]

Options:
  --version          Show version information
  --help             Show this help message
  --config <path>    Load configuration from a YAML file
  --transport <t>    Transport: stdio (default) or http

Environment:
  BQ_PATH, BQ_WORKDIR, BQ_COMMAND_TIMEOUT, BQ_TOKEN_TTL,
  BQMCP_TRANSPORT, BQMCP_HTTP_HOST, BQMCP_HTTP_PORT

Examples:
  bqmcp
  bqmcp --transport http
  bqmcp --config /etc/bqmcp.yml`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
