// Package server wires the BigQuery service to the MCP protocol runtime and
// manages transport lifecycle: stdio for local agents, streamable HTTP behind
// the chi router for networked ones.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matiasleandrokruk/bqmcp/internal/api"
	"github.com/matiasleandrokruk/bqmcp/internal/domain/bigquery"
	"github.com/matiasleandrokruk/bqmcp/internal/infra/config"
	"github.com/matiasleandrokruk/bqmcp/internal/infra/eventbus"
	"github.com/matiasleandrokruk/bqmcp/internal/version"
)

const serverName = "bq-mcp"

const serverInstructions = "BigQuery MCP server for getting table schemas and routine information. " +
	"Use get_bq_schema for tables/views and get_bq_routine for TVFs, stored procedures, and functions. " +
	"When analyzing SQL queries with mixed identifiers, check both table and routine endpoints to " +
	"identify the correct object type."

// Server hosts the MCP server over the configured transport.
type Server struct {
	cfg config.Config
	mcp *mcp.Server
	bus eventbus.EventBus
	log *slog.Logger
}

// New creates a Server and registers the BigQuery tools. bus may be nil to
// disable the event log consumer.
func New(cfg config.Config, svc *bigquery.Service, bus eventbus.EventBus, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	srv := mcp.NewServer(
		&mcp.Implementation{Name: serverName, Version: version.Version},
		&mcp.ServerOptions{Instructions: serverInstructions},
	)
	registerTools(srv, svc)

	return &Server{cfg: cfg, mcp: srv, bus: bus, log: log}
}

// MCP exposes the underlying protocol server, used by tests to connect
// in-memory sessions.
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// Start serves until ctx is cancelled or the transport closes.
func (s *Server) Start(ctx context.Context) error {
	if s.bus != nil {
		go s.consumeEvents(ctx)
	}

	switch s.cfg.Transport {
	case config.TransportHTTP:
		return s.serveHTTP(ctx)
	default:
		s.log.Info("serving MCP over stdio")
		return s.mcp.Run(ctx, &mcp.StdioTransport{})
	}
}

func (s *Server) serveHTTP(ctx context.Context) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return s.mcp },
		nil,
	)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.HTTPHost, s.cfg.HTTPPort),
		Handler: api.NewRouter(handler),
		// No WriteTimeout: streamable MCP responses are long-lived.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("serving MCP over HTTP", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		s.log.Info("server shutdown complete")
		return nil
	}
}

// consumeEvents logs tool activity published by the BigQuery service.
func (s *Server) consumeEvents(ctx context.Context) {
	invoked := s.bus.Subscribe(eventbus.TopicToolInvoked)
	approvals := s.bus.Subscribe(eventbus.TopicApprovalRequired)

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-invoked:
			if p, ok := evt.Payload.(bigquery.InvocationEvent); ok {
				s.log.Info("tool invoked", "operation", p.Operation, "project", p.Project)
			}
		case evt := <-approvals:
			if p, ok := evt.Payload.(bigquery.ApprovalEvent); ok {
				s.log.Warn("approval required", "keyword", p.Keyword, "project", p.Project)
			}
		}
	}
}
