package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	xmcp "github.com/xeenaps/pkm/internal/adapter/mcp"
	"github.com/xeenaps/pkm/internal/domain"
	"github.com/xeenaps/pkm/internal/domain/ad"
	"github.com/xeenaps/pkm/internal/domain/brainstorming"
	"github.com/xeenaps/pkm/internal/domain/pagination"
	"github.com/xeenaps/pkm/internal/domain/tracer"
)

// --- Mocks ---

type mockBrainstorming struct {
	items []brainstorming.Item
	last  brainstorming.ListQuery
}

func (m *mockBrainstorming) List(_ context.Context, q brainstorming.ListQuery) (pagination.Page[brainstorming.Item], error) {
	m.last = q
	return pagination.NewPage(m.items, len(m.items)), nil
}

type mockTracer struct {
	projects []tracer.Project
	last     tracer.ListQuery
}

func (m *mockTracer) List(_ context.Context, q tracer.ListQuery) (pagination.Page[tracer.Project], error) {
	m.last = q
	return pagination.NewPage(m.projects, len(m.projects)), nil
}

func (m *mockTracer) Detail(_ context.Context, id string) (*tracer.Detail, error) {
	for i := range m.projects {
		if m.projects[i].ID == id {
			return &tracer.Detail{Project: m.projects[i], Logs: []tracer.LogView{}}, nil
		}
	}
	return nil, domain.ErrNotFound
}

type mockSynthesizer struct{ err error }

func (m *mockSynthesizer) Synthesize(_ context.Context, rough string) (*brainstorming.SynthesisResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &brainstorming.SynthesisResult{ProposedTitle: "On " + rough}, nil
}

type mockAds struct{ vip *ad.VipAd }

func (m *mockAds) FetchVipAd(context.Context) *ad.VipAd { return m.vip }

// --- Helpers ---

func callTool(t *testing.T, s *xmcp.Server, name string, args map[string]any) *mcplib.CallToolResult {
	t.Helper()
	tool, ok := s.MCPServer().ListTools()[name]
	if !ok {
		t.Fatalf("%s tool not found", name)
	}
	result, err := tool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: name, Arguments: args},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return result
}

func resultText(t *testing.T, r *mcplib.CallToolResult) string {
	t.Helper()
	if r.IsError {
		t.Fatalf("tool returned error: %v", r.Content)
	}
	text, ok := r.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	return text.Text
}

// --- Tests ---

func TestServerStartStop(t *testing.T) {
	s := xmcp.NewServer(xmcp.ServerConfig{Addr: "127.0.0.1:0", Name: "test", Version: "0.1.0"}, xmcp.ServerDeps{})
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestToolRegistration(t *testing.T) {
	s := xmcp.NewServer(xmcp.ServerConfig{Name: "test", Version: "0.1.0"}, xmcp.ServerDeps{})

	tools := s.MCPServer().ListTools()
	expected := map[string]bool{
		"search_brainstorming":   false,
		"search_tracer_projects": false,
		"get_tracer_project":     false,
		"synthesize_idea":        false,
		"get_vip_ad":             false,
	}
	if len(tools) != len(expected) {
		t.Fatalf("expected %d tools, got %d", len(expected), len(tools))
	}
	for name := range tools {
		if _, ok := expected[name]; !ok {
			t.Errorf("unexpected tool: %s", name)
		}
		expected[name] = true
	}
	for name, found := range expected {
		if !found {
			t.Errorf("expected tool %q not registered", name)
		}
	}
}

func TestSearchBrainstorming(t *testing.T) {
	b := &mockBrainstorming{items: []brainstorming.Item{{ID: "b1", ProposedTitle: "Soil"}}}
	s := xmcp.NewServer(xmcp.ServerConfig{Name: "test"}, xmcp.ServerDeps{Brainstorming: b})

	text := resultText(t, callTool(t, s, "search_brainstorming", map[string]any{"query": "soil", "limit": float64(500)}))

	var page pagination.Page[brainstorming.Item]
	if err := json.Unmarshal([]byte(text), &page); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if page.TotalCount != 1 || page.Items[0].ID != "b1" {
		t.Errorf("page = %+v", page)
	}
	if b.last.Search != "soil" || b.last.Limit != 100 {
		t.Errorf("query = %+v", b.last)
	}
}

func TestSearchTracerProjectsDefaults(t *testing.T) {
	tr := &mockTracer{}
	s := xmcp.NewServer(xmcp.ServerConfig{Name: "test"}, xmcp.ServerDeps{Tracer: tr})

	resultText(t, callTool(t, s, "search_tracer_projects", map[string]any{"status": "Draft"}))
	if tr.last.Status != "Draft" || tr.last.Limit != 20 || tr.last.Page != 1 {
		t.Errorf("query = %+v", tr.last)
	}
}

func TestGetTracerProject(t *testing.T) {
	tr := &mockTracer{projects: []tracer.Project{{ID: "p1", Title: "Alpha"}}}
	s := xmcp.NewServer(xmcp.ServerConfig{Name: "test"}, xmcp.ServerDeps{Tracer: tr})

	var d tracer.Detail
	if err := json.Unmarshal([]byte(resultText(t, callTool(t, s, "get_tracer_project", map[string]any{"project_id": "p1"}))), &d); err != nil {
		t.Fatal(err)
	}
	if d.Project.Title != "Alpha" {
		t.Errorf("detail = %+v", d)
	}

	if r := callTool(t, s, "get_tracer_project", nil); !r.IsError {
		t.Error("expected error result for missing project_id")
	}
	if r := callTool(t, s, "get_tracer_project", map[string]any{"project_id": "nope"}); !r.IsError {
		t.Error("expected error result for unknown project")
	}
}

func TestSynthesizeIdea(t *testing.T) {
	s := xmcp.NewServer(xmcp.ServerConfig{Name: "test"}, xmcp.ServerDeps{Synthesizer: &mockSynthesizer{}})
	text := resultText(t, callTool(t, s, "synthesize_idea", map[string]any{"rough_idea": "soil"}))

	var r brainstorming.SynthesisResult
	if err := json.Unmarshal([]byte(text), &r); err != nil || r.ProposedTitle != "On soil" {
		t.Errorf("result = %+v (%v)", r, err)
	}

	failing := xmcp.NewServer(xmcp.ServerConfig{Name: "test"}, xmcp.ServerDeps{Synthesizer: &mockSynthesizer{err: errors.New("quota")}})
	if res := callTool(t, failing, "synthesize_idea", map[string]any{"rough_idea": "soil"}); !res.IsError {
		t.Error("expected error result")
	}
}

func TestGetVipAdNull(t *testing.T) {
	s := xmcp.NewServer(xmcp.ServerConfig{Name: "test"}, xmcp.ServerDeps{Ads: &mockAds{}})
	if text := resultText(t, callTool(t, s, "get_vip_ad", nil)); text != "null" {
		t.Errorf("text = %q", text)
	}
}

func TestHandleNilDeps(t *testing.T) {
	s := xmcp.NewServer(xmcp.ServerConfig{Name: "test"}, xmcp.ServerDeps{})
	for name := range s.MCPServer().ListTools() {
		if r := callTool(t, s, name, map[string]any{"project_id": "p1", "rough_idea": "x"}); !r.IsError {
			t.Errorf("%s: expected error result when deps are nil", name)
		}
	}
}
