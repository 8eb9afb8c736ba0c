package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/xeenaps/pkm/internal/domain/pagination"
	"github.com/xeenaps/pkm/internal/domain/tracer"
)

const (
	uriTracerProjects = "xeenaps://tracer/projects"
	uriVipAd          = "xeenaps://ads/vip"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			uriTracerProjects,
			"Research Projects",
			mcplib.WithResourceDescription("The most recently updated research projects"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleProjectsResource,
	)

	s.mcpServer.AddResource(
		mcplib.NewResource(
			uriVipAd,
			"VIP Advertisement",
			mcplib.WithResourceDescription("The active VIP advertisement, or null"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleVipAdResource,
	)
}

func (s *Server) handleProjectsResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Tracer == nil {
		return jsonResource(req.Params.URI, `{"error":"tracer not configured"}`), nil
	}
	page, err := s.deps.Tracer.List(ctx, tracer.ListQuery{
		Query:    pagination.Query{Page: 1, Limit: defaultToolLimit},
		SortKey:  "updatedAt",
		SortDesc: true,
	})
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(page.Items)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, string(data)), nil
}

func (s *Server) handleVipAdResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Ads == nil {
		return jsonResource(req.Params.URI, `{"error":"ads not configured"}`), nil
	}
	data, err := json.Marshal(s.deps.Ads.FetchVipAd(ctx))
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, string(data)), nil
}

func jsonResource(uri, text string) []mcplib.ResourceContents {
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		},
	}
}
