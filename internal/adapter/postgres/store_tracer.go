package postgres

import (
	"context"
	"fmt"

	"github.com/xeenaps/pkm/internal/domain/pagination"
	"github.com/xeenaps/pkm/internal/domain/tracer"
)

// --- Projects ---

var tracerProjectCols = []string{
	"id", "label", "title", "topic", "problem_statement", "research_gap", "research_question",
	"methodology", "population", "keywords", "authors", "status", "progress", "start_date", "est_end_date",
}

var tracerProjectSelect = joinCols(tracerProjectCols) + ", created_at, updated_at"

var tracerProjectSort = sortSpec{
	columns: map[string]string{
		"updatedAt": "updated_at",
		"createdAt": "created_at",
		"title":     "title",
		"status":    "status",
		"progress":  "progress",
		"startDate": "start_date",
	},
	defaultKey: "updatedAt",
}

func (s *Store) ListTracerProjects(ctx context.Context, q tracer.ListQuery) (pagination.Page[tracer.Project], error) {
	lq := newListQuery("tracer_projects").search(q.Search)
	if q.Status != "" {
		lq.eq("status", q.Status)
	}
	lq.sort(tracerProjectSort, q.SortKey, q.SortDesc)
	return fetchPage(ctx, s.pool, lq, tracerProjectSelect, q.Query, scanTracerProject)
}

func (s *Store) GetTracerProject(ctx context.Context, id string) (*tracer.Project, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+tracerProjectSelect+` FROM tracer_projects WHERE id = $1`, id)
	p, err := scanTracerProject(row)
	if err != nil {
		return nil, notFoundWrap(err, "get tracer project %s", id)
	}
	return &p, nil
}

func (s *Store) UpsertTracerProject(ctx context.Context, p *tracer.Project) error {
	err := s.pool.QueryRow(ctx, upsertSQL("tracer_projects", tracerProjectCols),
		p.ID, p.Label, p.Title, p.Topic, p.ProblemStatement, p.ResearchGap, p.ResearchQuestion,
		p.Methodology, p.Population, pgTextArray(p.Keywords), pgTextArray(p.Authors), string(p.Status), p.Progress,
		nullIfEmpty(p.StartDate), nullIfEmpty(p.EstEndDate), nullTime(p.CreatedAt),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return writeErr(err, "upsert tracer project %s", p.ID)
	}
	return nil
}

func (s *Store) DeleteTracerProject(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tracer_projects WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete tracer project %s", id)
}

// scanTracerProject leaves keywords and authors nil when the columns are
// NULL so callers can hydrate them.
func scanTracerProject(row scannable) (tracer.Project, error) {
	var (
		p             tracer.Project
		status        string
		start, estEnd *string
	)
	err := row.Scan(&p.ID, &p.Label, &p.Title, &p.Topic, &p.ProblemStatement, &p.ResearchGap, &p.ResearchQuestion,
		&p.Methodology, &p.Population, &p.Keywords, &p.Authors, &status, &p.Progress, &start, &estEnd,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	p.Status = tracer.Status(status)
	p.StartDate, p.EstEndDate = fromNull(start), fromNull(estEnd)
	return p, nil
}

// --- Logs ---

var tracerLogCols = []string{"id", "project_id", "title", "log_json_id", "storage_node_url"}

var tracerLogSelect = joinCols(tracerLogCols) + ", created_at, updated_at"

func (s *Store) ListTracerLogs(ctx context.Context, projectID string) ([]tracer.Log, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tracerLogSelect+` FROM tracer_logs WHERE project_id = $1 ORDER BY created_at DESC, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tracer logs: %w", err)
	}
	return collect(rows, scanTracerLog)
}

func (s *Store) GetTracerLog(ctx context.Context, id string) (*tracer.Log, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+tracerLogSelect+` FROM tracer_logs WHERE id = $1`, id)
	l, err := scanTracerLog(row)
	if err != nil {
		return nil, notFoundWrap(err, "get tracer log %s", id)
	}
	return &l, nil
}

func (s *Store) UpsertTracerLog(ctx context.Context, l *tracer.Log) error {
	err := s.pool.QueryRow(ctx, upsertSQL("tracer_logs", tracerLogCols),
		l.ID, l.ProjectID, l.Title, nullIfEmpty(l.LogJSONID), nullIfEmpty(l.StorageNodeURL), nullTime(l.CreatedAt),
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return writeErr(err, "upsert tracer log %s", l.ID)
	}
	return nil
}

func (s *Store) DeleteTracerLog(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tracer_logs WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete tracer log %s", id)
}

func scanTracerLog(row scannable) (tracer.Log, error) {
	var (
		l            tracer.Log
		jsonID, node *string
	)
	if err := row.Scan(&l.ID, &l.ProjectID, &l.Title, &jsonID, &node, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return l, err
	}
	l.LogJSONID, l.StorageNodeURL = fromNull(jsonID), fromNull(node)
	return l, nil
}

// --- Todos ---

var tracerTodoCols = []string{"id", "project_id", "title", "description", "start_date", "deadline", "is_done", "completed_at"}

var tracerTodoSelect = joinCols(tracerTodoCols) + ", created_at, updated_at"

func (s *Store) ListTracerTodos(ctx context.Context, projectID string) ([]tracer.Todo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tracerTodoSelect+` FROM tracer_todos WHERE project_id = $1
		 ORDER BY is_done, deadline NULLS LAST, created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tracer todos: %w", err)
	}
	return collect(rows, scanTracerTodo)
}

func (s *Store) UpsertTracerTodo(ctx context.Context, t *tracer.Todo) error {
	err := s.pool.QueryRow(ctx, upsertSQL("tracer_todos", tracerTodoCols),
		t.ID, t.ProjectID, t.Title, t.Description, nullIfEmpty(t.StartDate), nullIfEmpty(t.Deadline),
		t.IsDone, nullIfEmpty(t.CompletedAt), nullTime(t.CreatedAt),
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return writeErr(err, "upsert tracer todo %s", t.ID)
	}
	return nil
}

func (s *Store) DeleteTracerTodo(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tracer_todos WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete tracer todo %s", id)
}

func scanTracerTodo(row scannable) (tracer.Todo, error) {
	var (
		t                      tracer.Todo
		start, deadline, compl *string
	)
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &start, &deadline, &t.IsDone, &compl,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	t.StartDate, t.Deadline, t.CompletedAt = fromNull(start), fromNull(deadline), fromNull(compl)
	return t, nil
}

// --- References ---

var tracerReferenceCols = []string{"id", "project_id", "collection_id", "content_json_id", "storage_node_url"}

const tracerReferenceSelect = "id, project_id, collection_id, content_json_id, storage_node_url, created_at"

func (s *Store) ListTracerReferences(ctx context.Context, projectID string) ([]tracer.Reference, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tracerReferenceSelect+` FROM tracer_references WHERE project_id = $1 ORDER BY created_at DESC, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tracer references: %w", err)
	}
	return collect(rows, scanTracerReference)
}

func (s *Store) UpsertTracerReference(ctx context.Context, r *tracer.Reference) error {
	var updated any
	err := s.pool.QueryRow(ctx, upsertSQL("tracer_references", tracerReferenceCols),
		r.ID, r.ProjectID, r.CollectionID, nullIfEmpty(r.ContentJSONID), nullIfEmpty(r.StorageNodeURL), nullTime(r.CreatedAt),
	).Scan(&r.CreatedAt, &updated)
	if err != nil {
		return writeErr(err, "upsert tracer reference %s", r.ID)
	}
	return nil
}

func (s *Store) DeleteTracerReference(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tracer_references WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete tracer reference %s", id)
}

func scanTracerReference(row scannable) (tracer.Reference, error) {
	var (
		r            tracer.Reference
		jsonID, node *string
	)
	if err := row.Scan(&r.ID, &r.ProjectID, &r.CollectionID, &jsonID, &node, &r.CreatedAt); err != nil {
		return r, err
	}
	r.ContentJSONID, r.StorageNodeURL = fromNull(jsonID), fromNull(node)
	return r, nil
}

// --- Finance ---

var tracerFinanceCols = []string{
	"id", "project_id", "date", "type", "amount", "balance", "description", "attachments_json_id", "storage_node_url",
}

var tracerFinanceSelect = joinCols(tracerFinanceCols) + ", created_at, updated_at"

func (s *Store) ListTracerFinance(ctx context.Context, projectID string) ([]tracer.Finance, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tracerFinanceSelect+` FROM tracer_finance WHERE project_id = $1 ORDER BY date, created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tracer finance: %w", err)
	}
	return collect(rows, scanTracerFinance)
}

func (s *Store) GetTracerFinance(ctx context.Context, id string) (*tracer.Finance, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+tracerFinanceSelect+` FROM tracer_finance WHERE id = $1`, id)
	f, err := scanTracerFinance(row)
	if err != nil {
		return nil, notFoundWrap(err, "get tracer finance %s", id)
	}
	return &f, nil
}

func (s *Store) UpsertTracerFinance(ctx context.Context, f *tracer.Finance) error {
	err := s.pool.QueryRow(ctx, upsertSQL("tracer_finance", tracerFinanceCols),
		f.ID, f.ProjectID, f.Date, string(f.Type), f.Amount, f.Balance, f.Description,
		nullIfEmpty(f.AttachmentsJSONID), nullIfEmpty(f.StorageNodeURL), nullTime(f.CreatedAt),
	).Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return writeErr(err, "upsert tracer finance %s", f.ID)
	}
	return nil
}

func (s *Store) DeleteTracerFinance(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tracer_finance WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete tracer finance %s", id)
}

func scanTracerFinance(row scannable) (tracer.Finance, error) {
	var (
		f            tracer.Finance
		typ          string
		jsonID, node *string
	)
	err := row.Scan(&f.ID, &f.ProjectID, &f.Date, &typ, &f.Amount, &f.Balance, &f.Description, &jsonID, &node,
		&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return f, err
	}
	f.Type = tracer.FinanceType(typ)
	f.AttachmentsJSONID, f.StorageNodeURL = fromNull(jsonID), fromNull(node)
	return f, nil
}
