package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fyrsmithlabs/learnhooks/internal/hooks"
	"github.com/fyrsmithlabs/learnhooks/internal/logging"
	"github.com/fyrsmithlabs/learnhooks/internal/progress"
)

// Server is an MCP server fronting the hook manager and progress tracker.
type Server struct {
	mcp     *mcp.Server
	manager *hooks.Manager
	tracker *progress.Tracker
	metrics *Metrics
	logger  *logging.Logger
}

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name (default: "learnhooks")
	Name string

	// Version is the server version (default: "0.1.0")
	Version string

	Logger *logging.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "learnhooks",
		Version: "0.1.0",
		Logger:  logging.NewNop(),
	}
}

// NewServer creates an MCP server with the learning tools registered.
func NewServer(cfg *Config, manager *hooks.Manager, tracker *progress.Tracker) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if manager == nil {
		return nil, errors.New("hook manager is required")
	}
	if tracker == nil {
		return nil, errors.New("tracker is required")
	}

	s := &Server{
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		manager: manager,
		tracker: tracker,
		metrics: NewMetrics(cfg.Logger),
		logger:  cfg.Logger.Named("mcp"),
	}
	s.registerTools()
	return s, nil
}

// Run serves MCP over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info(ctx, "starting MCP server on stdio transport")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}
