// Package mcpserver exposes FPD risk assessment over the Model Context
// Protocol so LLM clients can score clinical values and fetch reports.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/fpd-risk-server/internal/cache"
	"github.com/fpd-risk-server/internal/config"
	"github.com/fpd-risk-server/internal/domain"
	"github.com/fpd-risk-server/internal/history"
	"github.com/fpd-risk-server/internal/report"
	"github.com/fpd-risk-server/internal/scoring"
)

// Server is a standalone MCP server. It uses in-memory caching and SQLite
// for persistence; no external services are required.
type Server struct {
	config    *config.LiteConfig
	mcpServer *mcp.Server
	scorer    domain.Scorer
	cache     domain.AssessmentCache
	store     history.Store
	reports   *report.Generator
	logger    *logrus.Logger
}

// ServerOption is a functional option for Server.
type ServerOption func(*Server) error

// WithHistoryStore sets a custom history store.
func WithHistoryStore(store history.Store) ServerOption {
	return func(s *Server) error {
		s.store = store
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// NewServer creates a new standalone MCP server instance.
func NewServer(cfg *config.LiteConfig, opts ...ServerOption) (*Server, error) {
	server := &Server{
		config: cfg,
		logger: logrus.New(),
	}

	if cfg.LogFormat == "text" {
		server.logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		server.logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	server.logger.SetLevel(level)

	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	server.scorer = scoring.NewEngine(server.logger)
	server.cache = cache.NewMemoryCache(cfg.CacheMaxItems, cfg.CacheTTL)
	server.reports = report.NewGenerator(server.logger)

	if server.store == nil {
		store, err := history.NewSQLiteStore(cfg.HistoryDBPath())
		if err != nil {
			return nil, fmt.Errorf("failed to create history store: %w", err)
		}
		server.store = store
	}

	serverInfo := &mcp.Implementation{
		Name:    "fpd-risk-server",
		Version: "v0.1.0",
	}
	server.mcpServer = mcp.NewServer(serverInfo, nil)

	server.registerTools()

	return server, nil
}

// registerTools registers the assessment tools with the MCP server.
func (s *Server) registerTools() {
	assessSchema, err := jsonschema.For[AssessRiskParams](nil)
	if err != nil {
		panic(fmt.Errorf("assess_fpd_risk: input schema: %w", err))
	}
	reportSchema, err := jsonschema.For[GenerateReportParams](nil)
	if err != nil {
		panic(fmt.Errorf("generate_fpd_report: input schema: %w", err))
	}

	s.mcpServer.AddTool(&mcp.Tool{
		Name:        "assess_fpd_risk",
		Description: "Assess fatty pancreas disease risk from ten clinical values. Returns the risk probability, tier, derived indices (FLI, modified FIB-4), and per-factor contributions.",
		InputSchema: assessSchema,
	}, s.handleAssessRisk)

	s.mcpServer.AddTool(&mcp.Tool{
		Name:        "generate_fpd_report",
		Description: "Generate the downloadable plain-text report for a previously completed assessment, identified by its assessment ID.",
		InputSchema: reportSchema,
	}, s.handleGenerateReport)

	s.mcpServer.AddTool(&mcp.Tool{
		Name:        "list_reference_ranges",
		Description: "List the accepted value range and unit for every clinical input field.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleListRanges)

	s.logger.WithField("tool_count", 3).Info("Registered MCP tools")
}

// Start runs the MCP server over stdio until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting FPD risk MCP server...")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}

// Close cleans up server resources.
func (s *Server) Close() error {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close history store")
			return err
		}
	}
	return nil
}
