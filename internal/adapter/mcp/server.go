// Package mcp exposes read-mostly Xeenaps tools to AI agents over the Model
// Context Protocol (streamable HTTP transport).
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/xeenaps/pkm/internal/domain/ad"
	"github.com/xeenaps/pkm/internal/domain/brainstorming"
	"github.com/xeenaps/pkm/internal/domain/pagination"
	"github.com/xeenaps/pkm/internal/domain/tracer"
)

// ServerConfig holds MCP server settings.
type ServerConfig struct {
	Addr    string
	Name    string
	Version string
	// Middleware wraps the HTTP endpoint, typically API key auth.
	Middleware func(http.Handler) http.Handler
}

// BrainstormingSearcher lists research ideas.
type BrainstormingSearcher interface {
	List(ctx context.Context, q brainstorming.ListQuery) (pagination.Page[brainstorming.Item], error)
}

// TracerReader lists projects and loads a project page.
type TracerReader interface {
	List(ctx context.Context, q tracer.ListQuery) (pagination.Page[tracer.Project], error)
	Detail(ctx context.Context, id string) (*tracer.Detail, error)
}

// IdeaSynthesizer expands a rough idea.
type IdeaSynthesizer interface {
	Synthesize(ctx context.Context, roughIdea string) (*brainstorming.SynthesisResult, error)
}

// AdReader returns the active advertisement, or nil.
type AdReader interface {
	FetchVipAd(ctx context.Context) *ad.VipAd
}

// ServerDeps are the services behind the tools. Nil deps make the matching
// tools return an error result.
type ServerDeps struct {
	Brainstorming BrainstormingSearcher
	Tracer        TracerReader
	Synthesizer   IdeaSynthesizer
	Ads           AdReader
}

// Server is the MCP server.
type Server struct {
	cfg       ServerConfig
	deps      ServerDeps
	mcpServer *mcpserver.MCPServer
	httpSrv   *http.Server
}

// NewServer creates a server with every tool and resource registered.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
			mcpserver.WithRecovery(),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *mcpserver.MCPServer { return s.mcpServer }

// Handler returns the HTTP handler serving /mcp.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(s.mcpServer, mcpserver.WithEndpointPath("/mcp")))
	var h http.Handler = mux
	if s.cfg.Middleware != nil {
		h = s.cfg.Middleware(h)
	}
	return h
}

// Start listens on the configured address in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("mcp listen %s: %w", s.cfg.Addr, err)
	}
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("mcp server error", "error", err)
		}
	}()
	slog.Info("mcp server listening", "addr", ln.Addr().String())
	return nil
}

// Stop gracefully shuts down the listener started by Start.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
