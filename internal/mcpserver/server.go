// Package mcpserver exposes tmux operations and the pane monitor as MCP
// tools over stdio, SSE, and streamable HTTP transports.
package mcpserver

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/WENLIXIAO-CS/tmux-mcp/internal/monitor"
	"github.com/WENLIXIAO-CS/tmux-mcp/internal/mux"
	tmotel "github.com/WENLIXIAO-CS/tmux-mcp/internal/otel"
)

const (
	serverName = "tmux-mcp"
)

var tracer = otel.Tracer("tmux-mcp/mcpserver")

// Version is injected by cmd at startup.
var Version = "dev"

// Config holds the MCP server configuration.
type Config struct {
	Transport string // "stdio", "sse", or "streamable-http"
	Host      string
	Port      int

	// Monitor holds the tunables applied to tmux_monitor_pane runs.
	Monitor monitor.Options
}

// Server wraps the MCP server with transport setup and lifecycle management.
// Non-stdio transports serve both SSE (/sse + /message) and streamable HTTP
// (/mcp) on the same port, for compatibility with different MCP clients.
type Server struct {
	cfg     Config
	mux     mux.Multiplexer
	logger  *zap.Logger
	metrics *tmotel.Metrics

	mcpServer *server.MCPServer
}

// New creates an MCP server backed by the given multiplexer.
// logger and metrics may be nil.
func New(cfg Config, m mux.Multiplexer, logger *zap.Logger, metrics *tmotel.Metrics) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:     cfg,
		mux:     m,
		logger:  logger,
		metrics: metrics,
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		Version,
		server.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

// Run serves the configured transport until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	switch s.cfg.Transport {
	case "", "stdio":
		s.logger.Info("mcp server listening", zap.String("transport", "stdio"))
		return server.NewStdioServer(s.mcpServer).Listen(ctx, os.Stdin, os.Stdout)
	case "sse", "streamable-http":
		return s.runHTTP(ctx)
	default:
		return fmt.Errorf("unknown transport %q (supported: stdio, sse, streamable-http)", s.cfg.Transport)
	}
}

// runHTTP serves both HTTP transports on one port:
// SSE on /sse + /message, streamable HTTP on /mcp.
func (s *Server) runHTTP(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	sseServer := server.NewSSEServer(s.mcpServer,
		server.WithBaseURL(fmt.Sprintf("http://%s", addr)),
	)
	streamableServer := server.NewStreamableHTTPServer(s.mcpServer,
		server.WithEndpointPath("/mcp"),
	)

	httpMux := http.NewServeMux()
	httpMux.Handle("/sse", sseServer.SSEHandler())
	httpMux.Handle("/message", sseServer.MessageHandler())
	httpMux.Handle("/mcp", streamableServer)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: httpMux,
	}

	s.logger.Info("mcp server listening",
		zap.String("transport", s.cfg.Transport),
		zap.String("addr", addr),
		zap.String("sse_endpoint", "/sse"),
		zap.String("streamable_http_endpoint", "/mcp"))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// tool wraps a handler with a span, tool-call metrics, and logging.
func (s *Server) tool(name string, h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := tracer.Start(ctx, "tool/"+name)
		defer span.End()

		start := time.Now()
		res, err := h(ctx, req)
		outcome := "ok"
		if err != nil || (res != nil && res.IsError) {
			outcome = "error"
		}
		span.SetAttributes(attribute.String("mcp.outcome", outcome))
		s.metrics.RecordToolCall(ctx, name, outcome)
		s.logger.Debug("tool call",
			zap.String("tool", name),
			zap.String("outcome", outcome),
			zap.Duration("duration", time.Since(start)))
		return res, err
	}
}
