package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xeenaps/pkm/internal/domain/pagination"
)

// sortSpec whitelists the sortable columns of a table.
type sortSpec struct {
	columns    map[string]string // API key -> column
	defaultKey string
	favorite   bool // "isFavorite" puts favourites first, then defaultKey desc
}

// listQuery accumulates filters for a paginated SELECT.
type listQuery struct {
	from    string
	conds   []string
	args    []any
	orderBy []string
}

func newListQuery(from string) *listQuery {
	return &listQuery{from: from}
}

func (q *listQuery) arg(v any) string {
	q.args = append(q.args, v)
	return "$" + strconv.Itoa(len(q.args))
}

func (q *listQuery) eq(col string, v any) *listQuery {
	q.conds = append(q.conds, col+" = "+q.arg(v))
	return q
}

func (q *listQuery) gte(col string, v any) *listQuery {
	q.conds = append(q.conds, col+" >= "+q.arg(v))
	return q
}

func (q *listQuery) lte(col string, v any) *listQuery {
	q.conds = append(q.conds, col+" <= "+q.arg(v))
	return q
}

func (q *listQuery) in(col string, vs []string) *listQuery {
	q.conds = append(q.conds, col+" = ANY("+q.arg(vs)+")")
	return q
}

// raw adds a condition that takes no parameters.
func (q *listQuery) raw(cond string) *listQuery {
	q.conds = append(q.conds, cond)
	return q
}

// search matches term as a case-insensitive substring of search_all.
func (q *listQuery) search(term string) *listQuery {
	term = strings.TrimSpace(term)
	if term == "" {
		return q
	}
	q.conds = append(q.conds, "search_all ILIKE "+q.arg("%"+escapeLike(strings.ToLower(term))+"%"))
	return q
}

// sort orders by key when order whitelists it, else by the default key.
// Ties are broken by id for stable pages.
func (q *listQuery) sort(order sortSpec, key string, desc bool) *listQuery {
	dir := func(d bool) string {
		if d {
			return " DESC"
		}
		return " ASC"
	}
	switch col, ok := order.columns[key]; {
	case key == "isFavorite" && order.favorite:
		q.orderBy = append(q.orderBy, "is_favorite DESC", order.columns[order.defaultKey]+" DESC")
	case ok:
		q.orderBy = append(q.orderBy, col+dir(desc))
	default:
		q.orderBy = append(q.orderBy, order.columns[order.defaultKey]+" DESC")
	}
	q.orderBy = append(q.orderBy, "id ASC")
	return q
}

func (q *listQuery) whereClause() string {
	if len(q.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.conds, " AND ")
}

func (q *listQuery) countSQL() (string, []any) {
	return "SELECT count(*) FROM " + q.from + q.whereClause(), q.args
}

func (q *listQuery) selectSQL(columns string, p pagination.Query) (string, []any) {
	p = p.Normalize()
	args := append([]any{}, q.args...)
	var b strings.Builder
	b.WriteString("SELECT " + columns + " FROM " + q.from + q.whereClause())
	if len(q.orderBy) > 0 {
		b.WriteString(" ORDER BY " + strings.Join(q.orderBy, ", "))
	}
	args = append(args, p.Limit, p.Offset())
	fmt.Fprintf(&b, " LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return b.String(), args
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// fetchPage runs the count and the page query and scans the page.
func fetchPage[T any](ctx context.Context, pool *pgxpool.Pool, q *listQuery, columns string, p pagination.Query, scan func(scannable) (T, error)) (pagination.Page[T], error) {
	countSQL, countArgs := q.countSQL()
	var total int
	if err := pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return pagination.Page[T]{}, fmt.Errorf("count %s: %w", q.from, err)
	}

	selectSQL, args := q.selectSQL(columns, p)
	rows, err := pool.Query(ctx, selectSQL, args...)
	if err != nil {
		return pagination.Page[T]{}, fmt.Errorf("list %s: %w", q.from, err)
	}
	items, err := collect(rows, scan)
	if err != nil {
		return pagination.Page[T]{}, fmt.Errorf("scan %s: %w", q.from, err)
	}
	return pagination.NewPage(items, total), nil
}

// upsertSQL builds an INSERT ... ON CONFLICT (id) DO UPDATE statement. The
// first column must be id; created_at and updated_at are appended: created_at
// takes the final parameter (or now() when NULL) and is never overwritten,
// updated_at is always now().
func upsertSQL(table string, cols []string) string {
	placeholders := make([]string, 0, len(cols)+2)
	for i := range cols {
		placeholders = append(placeholders, "$"+strconv.Itoa(i+1))
	}
	placeholders = append(placeholders, "COALESCE($"+strconv.Itoa(len(cols)+1)+"::timestamptz, now())", "now()")

	sets := make([]string, 0, len(cols))
	for _, c := range cols[1:] {
		sets = append(sets, c+" = EXCLUDED."+c)
	}
	sets = append(sets, "updated_at = now()")

	return "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ", created_at, updated_at) VALUES (" +
		strings.Join(placeholders, ", ") + ") ON CONFLICT (id) DO UPDATE SET " + strings.Join(sets, ", ") +
		" RETURNING created_at, updated_at"
}
