package service

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/xeenaps/pkm/internal/domain"
	"github.com/xeenaps/pkm/internal/domain/brainstorming"
	"github.com/xeenaps/pkm/internal/domain/event"
	"github.com/xeenaps/pkm/internal/domain/research"
	"github.com/xeenaps/pkm/internal/domain/tracer"
	"github.com/xeenaps/pkm/internal/port/cache"
	"github.com/xeenaps/pkm/internal/port/filestore/filestoretest"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func newTracerFixture(t *testing.T, gen *fakeGenerator) (*TracerService, *fixture, *memCache) {
	t.Helper()
	f := newFixture()
	c := newMemCache()
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		jakarta = time.FixedZone("WIB", 7*3600)
	}
	svc := NewTracerService(f.store, f.files, c, f.janitor, f.events, NewCopilot(gen, "fake", "m"), TracerOptions{
		ProfileName:   "Dr. Owner",
		Location:      jakarta,
		LogContentTTL: time.Hour,
	})
	return svc, f, c
}

func TestTracerListHydratesAuthors(t *testing.T) {
	svc, f, _ := newTracerFixture(t, &fakeGenerator{})
	f.store.Projects["p1"] = tracer.Project{ID: "p1"}
	f.store.Projects["p2"] = tracer.Project{ID: "p2", Authors: []string{"A"}, Keywords: []string{"k"}}

	page, err := svc.List(context.Background(), tracer.ListQuery{})
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range page.Items {
		if p.Keywords == nil {
			t.Errorf("%s keywords nil", p.ID)
		}
		switch p.ID {
		case "p1":
			if !slices.Equal(p.Authors, []string{"Dr. Owner"}) {
				t.Errorf("p1 authors = %v", p.Authors)
			}
		case "p2":
			if !slices.Equal(p.Authors, []string{"A"}) {
				t.Errorf("p2 authors = %v", p.Authors)
			}
		}
	}

	if _, err := svc.List(context.Background(), tracer.ListQuery{Status: "Dreaming"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("unknown status: %v", err)
	}
}

func TestTracerSaveNormalizes(t *testing.T) {
	svc, f, _ := newTracerFixture(t, &fakeGenerator{})
	p := &tracer.Project{Title: "X", Progress: 140}

	if err := svc.Save(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	if p.ID == "" || p.Status != tracer.StatusIdea || p.Progress != 100 {
		t.Errorf("project = %+v", p)
	}
	if got := f.hub.Types(); len(got) != 1 || got[0] != string(event.TracerUpdated) {
		t.Errorf("events = %v", got)
	}
	if err := svc.Save(context.Background(), &tracer.Project{Status: "Dreaming"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("bad status: %v", err)
	}
}

func TestSaveAndOpenLog(t *testing.T) {
	svc, f, c := newTracerFixture(t, &fakeGenerator{})
	ctx := context.Background()
	f.store.Projects["p1"] = tracer.Project{ID: "p1"}

	l := &tracer.Log{ProjectID: "p1", Title: "Day 1"}
	content := tracer.LogContent{Description: "<p>started</p>"}
	if err := svc.SaveLog(ctx, l, content); err != nil {
		t.Fatalf("SaveLog: %v", err)
	}
	if l.ID == "" || l.LogJSONID == "" || l.StorageNodeURL != filestoretest.Node {
		t.Fatalf("log = %+v", l)
	}
	if up := f.files.Uploads(); len(up) != 1 || !up[0].Document {
		t.Errorf("log body not stored as a document: %+v", up)
	}
	if _, ok := c.data[cache.PrefixLogContent+l.ID]; !ok {
		t.Error("content not cached")
	}

	// Served from the file store once the cache is cold.
	c.data = map[string][]byte{}
	got, err := svc.OpenLog(ctx, l.ID)
	if err != nil {
		t.Fatalf("OpenLog: %v", err)
	}
	if got.Description != content.Description || got.Attachments == nil {
		t.Errorf("content = %+v", got)
	}
	if _, ok := c.data[cache.PrefixLogContent+l.ID]; !ok {
		t.Error("OpenLog did not repopulate the cache")
	}

	// Saving again replaces the body and deletes the previous file.
	first := l.LogJSONID
	if err := svc.SaveLog(ctx, l, tracer.LogContent{Description: "edited"}); err != nil {
		t.Fatal(err)
	}
	f.janitor.Wait()
	if l.LogJSONID == first {
		t.Error("body not replaced")
	}
	if got := f.files.Deleted(); !slices.Equal(got, []string{first}) {
		t.Errorf("deleted = %v", got)
	}
	cached, ok, _ := cache.GetJSON[tracer.LogContent](ctx, c, cache.PrefixLogContent+l.ID)
	if !ok || cached.Description != "edited" {
		t.Errorf("cache = %+v, %v", cached, ok)
	}
}

func TestSaveLogReplacesStoredBodyOnly(t *testing.T) {
	ctx := context.Background()

	t.Run("edit with a mismatched ref", func(t *testing.T) {
		svc, f, _ := newTracerFixture(t, &fakeGenerator{})
		l := &tracer.Log{ProjectID: "p1", Title: "Day 1"}
		if err := svc.SaveLog(ctx, l, tracer.LogContent{Description: "v1"}); err != nil {
			t.Fatal(err)
		}
		stored := l.LogJSONID

		certificate, err := f.files.Upload(ctx, fileUpload(`{"cert":true}`))
		if err != nil {
			t.Fatal(err)
		}
		edit := &tracer.Log{ID: l.ID, ProjectID: "p1", Title: "Day 1", LogJSONID: certificate.FileID, StorageNodeURL: certificate.NodeURL}
		if err := svc.SaveLog(ctx, edit, tracer.LogContent{Description: "v2"}); err != nil {
			t.Fatal(err)
		}
		f.janitor.Wait()

		if got := f.files.Deleted(); !slices.Equal(got, []string{stored}) {
			t.Errorf("deleted = %v, want only the stored body %s", got, stored)
		}
		if f.store.Logs[l.ID].LogJSONID != edit.LogJSONID || edit.LogJSONID == certificate.FileID {
			t.Errorf("row points at %q", f.store.Logs[l.ID].LogJSONID)
		}
	})

	t.Run("unknown id is a new log", func(t *testing.T) {
		svc, f, _ := newTracerFixture(t, &fakeGenerator{})
		l := &tracer.Log{ID: "client-generated", ProjectID: "p1", LogJSONID: "file-99", StorageNodeURL: filestoretest.Node}
		if err := svc.SaveLog(ctx, l, tracer.LogContent{}); err != nil {
			t.Fatal(err)
		}
		f.janitor.Wait()
		if got := f.files.Deleted(); len(got) != 0 {
			t.Errorf("deleted = %v", got)
		}
	})

	t.Run("lookup failure aborts", func(t *testing.T) {
		svc, f, _ := newTracerFixture(t, &fakeGenerator{})
		f.store.GetErr = errors.New("db down")
		l := &tracer.Log{ID: "l1", ProjectID: "p1"}
		if err := svc.SaveLog(ctx, l, tracer.LogContent{}); err == nil {
			t.Fatal("expected error")
		}
		if got := f.files.Deleted(); len(got) != 0 {
			t.Errorf("deleted = %v", got)
		}
	})
}

func TestSaveLogRollsBackUploadOnUpsertFailure(t *testing.T) {
	svc, f, _ := newTracerFixture(t, &fakeGenerator{})
	f.store.UpsertErr = errors.New("db down")

	l := &tracer.Log{ProjectID: "p1"}
	if err := svc.SaveLog(context.Background(), l, tracer.LogContent{}); err == nil {
		t.Fatal("expected error")
	}
	f.janitor.Wait()
	if got := f.files.Deleted(); len(got) != 1 {
		t.Errorf("orphan upload not deleted: %v", got)
	}
	if l.LogJSONID != "" {
		t.Errorf("log still points at orphan: %+v", l)
	}
}

func TestOpenLogWithoutBody(t *testing.T) {
	svc, f, _ := newTracerFixture(t, &fakeGenerator{})
	f.store.Logs["l1"] = tracer.Log{ID: "l1", ProjectID: "p1"}

	got, err := svc.OpenLog(context.Background(), "l1")
	if err != nil || got.Description != "" || got.Attachments == nil {
		t.Errorf("OpenLog = %+v, %v", got, err)
	}
}

func TestDeleteLogEvictsCache(t *testing.T) {
	svc, f, c := newTracerFixture(t, &fakeGenerator{})
	f.store.Logs["l1"] = tracer.Log{ID: "l1", ProjectID: "p1", LogJSONID: "body", StorageNodeURL: filestoretest.Node}
	data, _ := json.Marshal(tracer.LogContent{Description: "x"})
	c.data[cache.PrefixLogContent+"l1"] = data

	if err := svc.DeleteLog(context.Background(), "l1"); err != nil {
		t.Fatal(err)
	}
	f.janitor.Wait()
	if _, ok := c.data[cache.PrefixLogContent+"l1"]; ok {
		t.Error("cache entry survived")
	}
	if got := f.files.Deleted(); !slices.Equal(got, []string{"body"}) {
		t.Errorf("deleted = %v", got)
	}
}

func TestListLogsNewestFirstWithDisplayTime(t *testing.T) {
	svc, f, _ := newTracerFixture(t, &fakeGenerator{})
	base := time.Date(2024, 3, 5, 1, 4, 0, 0, time.UTC)
	f.store.Logs["old"] = tracer.Log{ID: "old", ProjectID: "p1", CreatedAt: base}
	f.store.Logs["new"] = tracer.Log{ID: "new", ProjectID: "p1", CreatedAt: base.Add(time.Hour)}

	logs, err := svc.ListLogs(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 2 || logs[0].ID != "new" {
		t.Fatalf("order = %+v", logs)
	}
	if logs[1].DisplayTime != "05 Mar 2024 08:04" {
		t.Errorf("display time = %q", logs[1].DisplayTime)
	}
}

func TestTracerDeleteCascadesFiles(t *testing.T) {
	svc, f, c := newTracerFixture(t, &fakeGenerator{})
	f.store.Projects["p1"] = tracer.Project{ID: "p1"}
	f.store.Logs["l1"] = tracer.Log{ID: "l1", ProjectID: "p1", LogJSONID: "log-body", StorageNodeURL: filestoretest.Node}
	f.store.Finance["f1"] = tracer.Finance{ID: "f1", ProjectID: "p1", AttachmentsJSONID: "receipts", StorageNodeURL: filestoretest.Node}
	c.data[cache.PrefixLogContent+"l1"] = []byte(`{}`)

	if err := svc.Delete(context.Background(), "p1"); err != nil {
		t.Fatal(err)
	}
	f.janitor.Wait()
	if got := f.files.Deleted(); !slices.Equal(got, []string{"log-body", "receipts"}) {
		t.Errorf("deleted = %v", got)
	}
	if len(f.store.Logs) != 0 || len(c.data) != 0 {
		t.Error("logs or cache survived the cascade")
	}
}

func TestDetailLoadsEverything(t *testing.T) {
	svc, f, _ := newTracerFixture(t, &fakeGenerator{})
	f.store.Projects["p1"] = tracer.Project{ID: "p1"}
	f.store.Logs["l1"] = tracer.Log{ID: "l1", ProjectID: "p1"}
	f.store.Todos["t1"] = tracer.Todo{ID: "t1", ProjectID: "p1"}
	f.store.Sources["s1"] = research.Source{ID: "s1", ProjectID: "p1"}

	d, err := svc.Detail(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if d.Project.ID != "p1" || len(d.Logs) != 1 || len(d.Todos) != 1 || len(d.Sources) != 1 {
		t.Errorf("detail = %+v", d)
	}
	if d.References == nil || !slices.Equal(d.Project.Authors, []string{"Dr. Owner"}) {
		t.Errorf("detail not hydrated: %+v", d)
	}

	if _, err := svc.Detail(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing project: %v", err)
	}
}

func TestSaveTodoCompletion(t *testing.T) {
	svc, _, _ := newTracerFixture(t, &fakeGenerator{})
	ctx := context.Background()

	todo := &tracer.Todo{ProjectID: "p1", Title: "Draft", IsDone: true}
	if err := svc.SaveTodo(ctx, todo); err != nil {
		t.Fatal(err)
	}
	if todo.CompletedAt == "" {
		t.Fatal("CompletedAt not stamped")
	}
	stamped := todo.CompletedAt
	if err := svc.SaveTodo(ctx, todo); err != nil || todo.CompletedAt != stamped {
		t.Errorf("CompletedAt changed on resave: %q", todo.CompletedAt)
	}
	todo.IsDone = false
	if err := svc.SaveTodo(ctx, todo); err != nil || todo.CompletedAt != "" {
		t.Errorf("reopened todo kept CompletedAt: %q", todo.CompletedAt)
	}
	if err := svc.SaveTodo(ctx, &tracer.Todo{ProjectID: "p1"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("untitled todo: %v", err)
	}
}

func TestFinanceLedger(t *testing.T) {
	svc, f, _ := newTracerFixture(t, &fakeGenerator{})
	ctx := context.Background()

	for _, e := range []*tracer.Finance{
		{ProjectID: "p1", Date: "2024-02-01", Type: tracer.FinanceExpense, Amount: 30},
		{ProjectID: "p1", Date: "2024-01-01", Type: tracer.FinanceIncome, Amount: 100},
	} {
		if err := svc.SaveFinance(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := svc.ListFinance(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Balance != 100 || entries[1].Balance != 70 {
		t.Errorf("ledger = %+v", entries)
	}

	tests := []tracer.Finance{
		{ProjectID: "p1", Type: "gift", Amount: 1},
		{ProjectID: "p1", Type: tracer.FinanceIncome, Amount: -1},
		{Type: tracer.FinanceIncome, Amount: 1},
	}
	for _, e := range tests {
		if err := svc.SaveFinance(ctx, &e); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("SaveFinance(%+v) = %v", e, err)
		}
	}

	f.store.Finance["fx"] = tracer.Finance{ID: "fx", ProjectID: "p1", AttachmentsJSONID: "att", StorageNodeURL: filestoretest.Node}
	if err := svc.DeleteFinance(ctx, "fx"); err != nil {
		t.Fatal(err)
	}
	f.janitor.Wait()
	if got := f.files.Deleted(); !slices.Equal(got, []string{"att"}) {
		t.Errorf("deleted = %v", got)
	}
}

func TestImportFromBrainstorming(t *testing.T) {
	svc, f, _ := newTracerFixture(t, &fakeGenerator{})
	f.store.Projects["p1"] = tracer.Project{ID: "p1"}
	f.store.Brainstorming["b1"] = brainstorming.Item{ID: "b1", ProposedTitle: "Idea title", ResearchGap: "gap"}

	p, err := svc.ImportFromBrainstorming(context.Background(), "p1", "title", "b1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "Idea title" || f.store.Projects["p1"].Title != "Idea title" {
		t.Errorf("project = %+v", p)
	}
	if _, err := svc.ImportFromBrainstorming(context.Background(), "p1", "topic", "b1"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("unmapped field: %v", err)
	}
}

func TestTracerRefineField(t *testing.T) {
	gen := &fakeGenerator{replies: []string{"A sharper question?"}}
	svc, _, _ := newTracerFixture(t, gen)
	p := &tracer.Project{Title: "Soil"}

	got, err := svc.RefineField(context.Background(), "researchQuestion", "q", p, "EXPAND")
	if err != nil || got != "A sharper question?" {
		t.Errorf("RefineField = %q, %v", got, err)
	}
	if _, err := svc.RefineField(context.Background(), "status", "q", p, "EXPAND"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("non-text field: %v", err)
	}
}
