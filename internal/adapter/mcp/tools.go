package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/xeenaps/pkm/internal/domain/brainstorming"
	"github.com/xeenaps/pkm/internal/domain/pagination"
	"github.com/xeenaps/pkm/internal/domain/tracer"
)

const defaultToolLimit = 20

func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.searchBrainstormingTool(),
		s.searchTracerProjectsTool(),
		s.getTracerProjectTool(),
		s.synthesizeIdeaTool(),
		s.getVipAdTool(),
	)
}

func (s *Server) searchBrainstormingTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("search_brainstorming",
		mcplib.WithDescription("Search research ideas in the brainstorming board"),
		mcplib.WithString("query", mcplib.Description("Free-text search term")),
		mcplib.WithNumber("limit", mcplib.Description("Maximum results (default 20)")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleSearchBrainstorming}
}

func (s *Server) searchTracerProjectsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("search_tracer_projects",
		mcplib.WithDescription("Search tracked research projects"),
		mcplib.WithString("query", mcplib.Description("Free-text search term")),
		mcplib.WithString("status", mcplib.Description("Publication stage, e.g. Draft or Submitted")),
		mcplib.WithNumber("limit", mcplib.Description("Maximum results (default 20)")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleSearchTracerProjects}
}

func (s *Server) getTracerProjectTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_tracer_project",
		mcplib.WithDescription("Get a research project with its journal, todos, references and audit matrix"),
		mcplib.WithString("project_id",
			mcplib.Required(),
			mcplib.Description("The project ID to look up"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGetTracerProject}
}

func (s *Server) synthesizeIdeaTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("synthesize_idea",
		mcplib.WithDescription("Expand a rough research idea into a structured proposal"),
		mcplib.WithString("rough_idea",
			mcplib.Required(),
			mcplib.Description("The idea in a sentence or two"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleSynthesizeIdea}
}

func (s *Server) getVipAdTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_vip_ad",
		mcplib.WithDescription("Get the currently active VIP advertisement, or null"),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGetVipAd}
}

func (s *Server) handleSearchBrainstorming(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Brainstorming == nil {
		return mcplib.NewToolResultError("brainstorming not configured"), nil
	}
	args := req.GetArguments()
	page, err := s.deps.Brainstorming.List(ctx, brainstorming.ListQuery{
		Query:  pagination.Query{Page: 1, Limit: limitArg(args)},
		Search: stringArg(args, "query"),
	})
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to search brainstorming", err), nil
	}
	return marshalResult(page, "brainstorming page")
}

func (s *Server) handleSearchTracerProjects(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Tracer == nil {
		return mcplib.NewToolResultError("tracer not configured"), nil
	}
	args := req.GetArguments()
	page, err := s.deps.Tracer.List(ctx, tracer.ListQuery{
		Query:  pagination.Query{Page: 1, Limit: limitArg(args)},
		Search: stringArg(args, "query"),
		Status: stringArg(args, "status"),
	})
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to search projects", err), nil
	}
	return marshalResult(page, "project page")
}

func (s *Server) handleGetTracerProject(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Tracer == nil {
		return mcplib.NewToolResultError("tracer not configured"), nil
	}
	projectID := stringArg(req.GetArguments(), "project_id")
	if projectID == "" {
		return mcplib.NewToolResultError("project_id is required"), nil
	}
	d, err := s.deps.Tracer.Detail(ctx, projectID)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("failed to get project %s", projectID), err), nil
	}
	return marshalResult(d, "project")
}

func (s *Server) handleSynthesizeIdea(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Synthesizer == nil {
		return mcplib.NewToolResultError("synthesizer not configured"), nil
	}
	rough := stringArg(req.GetArguments(), "rough_idea")
	if rough == "" {
		return mcplib.NewToolResultError("rough_idea is required"), nil
	}
	r, err := s.deps.Synthesizer.Synthesize(ctx, rough)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to synthesize idea", err), nil
	}
	return marshalResult(r, "synthesis")
}

func (s *Server) handleGetVipAd(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Ads == nil {
		return mcplib.NewToolResultError("ads not configured"), nil
	}
	return marshalResult(s.deps.Ads.FetchVipAd(ctx), "ad")
}

func marshalResult(v any, what string) (*mcplib.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal "+what, err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// limitArg reads "limit" as sent in JSON (a float64), clamped to 1..100.
func limitArg(args map[string]any) int {
	f, ok := args["limit"].(float64)
	if !ok || f < 1 {
		return defaultToolLimit
	}
	return min(int(f), 100)
}
