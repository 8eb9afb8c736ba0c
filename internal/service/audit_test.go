package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xeenaps/pkm/internal/domain"
	"github.com/xeenaps/pkm/internal/domain/event"
	"github.com/xeenaps/pkm/internal/domain/library"
	"github.com/xeenaps/pkm/internal/domain/research"
	"github.com/xeenaps/pkm/internal/domain/tracer"
)

func newAuditFixture(gen *fakeGenerator) (*AuditService, *fixture) {
	f := newFixture()
	f.store.Projects["p1"] = tracer.Project{ID: "p1", Title: "Soil carbon"}
	svc := NewAuditService(f.store, f.files, NewCopilot(gen, "fake", "m"), f.events, time.Minute)
	return svc, f
}

func TestStartAuditContinuesAfterFailure(t *testing.T) {
	gen := &fakeGenerator{replies: []string{
		`{"findings":"F1","methodology":"M1","limitations":"L1"}`,
		"not json at all",
		`{"findings":"F3","methodology":"M3","limitations":"L3"}`,
	}}
	svc, f := newAuditFixture(gen)
	f.store.Library = []library.Item{
		{ID: "l1", Title: "One", Abstract: "first abstract"},
		{ID: "l2", Title: "Two", Abstract: "second abstract"},
		{ID: "l3", Title: "Three", Abstract: "third abstract"},
		{ID: "l4", Title: "Empty"},
	}

	pending, err := svc.StartAudit(context.Background(), "p1", []string{"l1", "l2", "l4", "l3", "ghost"})
	if err != nil {
		t.Fatalf("StartAudit: %v", err)
	}
	if len(pending) != 4 {
		t.Fatalf("pending = %d, want 4", len(pending))
	}
	for _, s := range pending {
		if !s.IsAnalyzing {
			t.Errorf("%s not marked analyzing", s.SourceID)
		}
	}
	svc.Wait()

	saved, _ := f.store.ListResearchSources(context.Background(), "p1")
	got := map[string]research.Source{}
	for _, s := range saved {
		got[s.SourceID] = s
	}
	if len(got) != 2 || got["l1"].Findings != "F1" || got["l3"].Limitations != "L3" {
		t.Errorf("saved = %+v", saved)
	}
	for _, s := range saved {
		if s.IsAnalyzing {
			t.Errorf("%s still analyzing", s.SourceID)
		}
	}

	// four pending broadcasts, then one per finished source
	var updates []research.Source
	for _, e := range f.hub.Events() {
		if e.Type != string(event.SourceUpdated) {
			t.Errorf("unexpected event %s", e.Type)
		}
		updates = append(updates, e.Payload.(research.Source))
	}
	if len(updates) != 8 {
		t.Fatalf("broadcasts = %d, want 8", len(updates))
	}
	for _, s := range updates[4:] {
		if s.IsAnalyzing {
			t.Errorf("final broadcast for %s still analyzing", s.SourceID)
		}
	}
	if len(gen.prompts) != 3 {
		t.Errorf("prompts = %d, want 3 (empty source skipped)", len(gen.prompts))
	}
}

func TestStartAuditPrefersExtractedText(t *testing.T) {
	gen := &fakeGenerator{replies: []string{`{"findings":"F"}`}}
	svc, f := newAuditFixture(gen)
	ref, _ := f.files.Upload(context.Background(), fileUpload(`{"fullText":"the extracted body"}`))
	f.store.Library = []library.Item{{ID: "l1", Title: "One", Abstract: "abstract", ExtractedJSONID: ref.FileID, StorageNodeURL: ref.NodeURL}}

	if _, err := svc.StartAudit(context.Background(), "p1", []string{"l1"}); err != nil {
		t.Fatal(err)
	}
	svc.Wait()
	if len(gen.prompts) != 1 || !containsAll(gen.prompts[0], "the extracted body", "Soil carbon") {
		t.Errorf("prompt = %q", gen.prompts)
	}
}

// stallingGenerator blocks every call until its context is cancelled.
type stallingGenerator struct {
	started chan struct{}
	once    sync.Once
	calls   atomic.Int32
}

func (g *stallingGenerator) Generate(ctx context.Context, _ string) (string, error) {
	g.calls.Add(1)
	g.once.Do(func() { close(g.started) })
	<-ctx.Done()
	return "", ctx.Err()
}

func TestAuditShutdownCancelsRunningAudit(t *testing.T) {
	gen := &stallingGenerator{started: make(chan struct{})}
	f := newFixture()
	f.store.Projects["p1"] = tracer.Project{ID: "p1", Title: "Soil carbon"}
	f.store.Library = []library.Item{
		{ID: "l1", Title: "One", Abstract: "first abstract"},
		{ID: "l2", Title: "Two", Abstract: "second abstract"},
	}
	svc := NewAuditService(f.store, f.files, NewCopilot(gen, "fake", "m"), f.events, time.Hour)

	if _, err := svc.StartAudit(context.Background(), "p1", []string{"l1", "l2"}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-gen.started:
	case <-time.After(5 * time.Second):
		t.Fatal("audit never reached the generator")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := svc.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Shutdown = %v, want DeadlineExceeded", err)
	}

	if n := gen.calls.Load(); n != 1 {
		t.Errorf("generator calls = %d, want 1", n)
	}
	saved, _ := f.store.ListResearchSources(context.Background(), "p1")
	if len(saved) != 0 {
		t.Errorf("saved = %+v", saved)
	}
	// two pending broadcasts, then both sources closed out
	events := f.hub.Events()
	if len(events) != 4 {
		t.Fatalf("broadcasts = %d, want 4", len(events))
	}
	for _, e := range events[2:] {
		if e.Payload.(research.Source).IsAnalyzing {
			t.Errorf("%v still analyzing after shutdown", e.Payload)
		}
	}
}

func TestAuditShutdownIdle(t *testing.T) {
	svc, _ := newAuditFixture(&fakeGenerator{})
	if err := svc.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown = %v", err)
	}
}

func TestStartAuditValidation(t *testing.T) {
	svc, f := newAuditFixture(&fakeGenerator{})
	f.store.Library = []library.Item{{ID: "l1", Title: "One"}}

	tests := []struct {
		name    string
		project string
		ids     []string
		wantErr error
	}{
		{"no project id", "", []string{"l1"}, domain.ErrValidation},
		{"no items", "p1", nil, domain.ErrValidation},
		{"unknown project", "px", []string{"l1"}, domain.ErrNotFound},
		{"unknown items", "p1", []string{"ghost"}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.StartAudit(context.Background(), tt.project, tt.ids)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestExtractedText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"fullText":"a"}`, "a"},
		{`{"text":"b","content":"c"}`, "b"},
		{`{"other":1}`, ""},
		{"plain body", "plain body"},
	}
	for _, tt := range tests {
		if got := extractedText([]byte(tt.in)); got != tt.want {
			t.Errorf("extractedText(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("héllo", 2); got != "hé" {
		t.Errorf("got %q", got)
	}
	if got := truncateRunes("abc", 5); got != "abc" {
		t.Errorf("got %q", got)
	}
}
