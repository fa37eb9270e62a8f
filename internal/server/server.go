// Package server exposes the route catalogue as MCP tools.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/brizzai/requestkit/internal/config"
	"github.com/brizzai/requestkit/internal/logger"
	"github.com/brizzai/requestkit/internal/metrics"
	"github.com/brizzai/requestkit/internal/parser"
	"github.com/brizzai/requestkit/internal/server/handler"
	"github.com/brizzai/requestkit/internal/server/tool"
	"github.com/brizzai/requestkit/requester"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// shutdownTimeout is the maximum time to wait for server shutdown
	shutdownTimeout = 5 * time.Second
)

// Server is the MCP server. Every catalogued route becomes a tool whose calls
// go through the requester. It runs over SSE, streamable HTTP or STDIO.
type Server struct {
	config    *config.Config
	catalogue parser.Catalogue
	mcp       *mcpserver.MCPServer
	handler   *handler.Handler
	tool      *tool.Handler
}

// Params are the dependencies of NewServer
type Params struct {
	fx.In

	Config    *config.Config
	Catalogue parser.Catalogue
	Session   requester.Session
	Client    *requester.Configuration
	Metrics   *metrics.Collector `optional:"true"`
}

// NewServer loads the catalogue and registers one tool per route
func NewServer(p Params) (*Server, error) {
	if p.Config == nil || p.Catalogue == nil || p.Session == nil || p.Client == nil {
		return nil, errors.New("server needs a config, a catalogue, a session and a client configuration")
	}

	hooks, err := exchangeHooks(p.Config, p.Metrics)
	if err != nil {
		return nil, err
	}

	var metricsHandler http.Handler
	if p.Metrics != nil && p.Config.Metrics.Enabled {
		metricsHandler = p.Metrics.Handler()
	}

	srv := &Server{
		config:    p.Config,
		catalogue: p.Catalogue,
		mcp:       mcpserver.NewMCPServer(p.Config.Server.Name, p.Config.Server.Version),
		handler:   handler.NewHandler(p.Config.Metrics.Path, metricsHandler),
		tool:      tool.NewHandler(p.Session, p.Client, hooks...),
	}
	if err := srv.setupTools(); err != nil {
		return nil, err
	}
	return srv, nil
}

func exchangeHooks(cfg *config.Config, collector *metrics.Collector) ([]requester.Hook, error) {
	var hooks []requester.Hook
	tracer, err := cfg.Trace.Tracer()
	if err != nil {
		return nil, err
	}
	if tracer != nil {
		hooks = append(hooks, tracer)
	}
	if collector != nil && cfg.Metrics.Enabled {
		hooks = append(hooks, collector)
	}
	return hooks, nil
}

func (s *Server) setupTools() error {
	if err := s.catalogue.Init(s.config.SwaggerFile, s.config.AdjustmentsFile); err != nil {
		return fmt.Errorf("failed to initialize catalogue: %w", err)
	}

	for _, route := range s.catalogue.Routes() {
		logger.Debug("Adding tool", zap.String("name", route.Name), zap.Stringer("encoding", route.Encoding))
		s.mcp.AddTool(route.Tool, s.tool.CreateHandler(route))
	}
	logger.Info("Registered tools", zap.Int("count", len(s.catalogue.Routes())))
	return nil
}

// MCP returns the underlying MCP server, e.g. for an in-process client
func (s *Server) MCP() *mcpserver.MCPServer {
	return s.mcp
}

func (s *Server) ServeSSE(ctx context.Context) error {
	logger.Info("Starting SSE server")

	sseServer := mcpserver.NewSSEServer(
		s.mcp,
		mcpserver.WithBaseURL(fmt.Sprintf("http://%s:%d", s.config.Server.Host, s.config.Server.Port)),
	)

	return s.serveHTTP(ctx, sseServer, "SSE")
}

func (s *Server) ServeHTTP(ctx context.Context) error {
	logger.Info("Starting HTTP server")
	httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
	return s.serveHTTP(ctx, httpServer, "HTTP")
}

func (s *Server) serveHTTP(ctx context.Context, mcpHandler http.Handler, mode string) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.handler.CreateHTTPHandler(mcpHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("mode", mode),
			zap.String("address", addr),
		)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server",
			zap.String("mode", mode),
			zap.Duration("timeout", shutdownTimeout),
		)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}

func (s *Server) ServeSTDIO(ctx context.Context) error {
	logger.Info("Starting STDIO server")
	stdioServer := mcpserver.NewStdioServer(s.mcp)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// Start serves in the configured mode until ctx is done
func (s *Server) Start(ctx context.Context) error {
	logger.Info("Starting server",
		zap.String("mode", string(s.config.Server.Mode)),
		zap.String("version", s.config.Server.Version),
	)

	switch s.config.Server.Mode {
	case config.ServerModeSSE:
		return s.ServeSSE(ctx)
	case config.ServerModeHTTP:
		return s.ServeHTTP(ctx)
	case config.ServerModeSTDIO:
		return s.ServeSTDIO(ctx)
	default:
		return fmt.Errorf("unsupported server mode: %s", s.config.Server.Mode)
	}
}

// Module provides the MCP server dependencies
var Module = fx.Module("mcp_server",
	fx.Provide(
		NewServer,
	),
)
