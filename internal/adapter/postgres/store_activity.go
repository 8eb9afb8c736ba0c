package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xeenaps/pkm/internal/domain/activity"
	"github.com/xeenaps/pkm/internal/domain/pagination"
)

var activityCols = []string{
	"id", "type", "name", "description", "organizer", "location", "level", "role",
	"start_date", "end_date", "certificate_number", "certificate_file_id", "certificate_node_url",
	"vault_json_id", "storage_node_url", "is_favorite", "vault_items",
}

var activitySelect = joinCols(activityCols) + ", created_at, updated_at"

var activitySort = sortSpec{
	columns: map[string]string{
		"startDate": "start_date",
		"endDate":   "end_date",
		"name":      "name",
		"type":      "type",
		"organizer": "organizer",
		"level":     "level",
		"createdAt": "created_at",
		"updatedAt": "updated_at",
	},
	defaultKey: "startDate",
	favorite:   true,
}

func (s *Store) ListActivities(ctx context.Context, q activity.ListQuery) (pagination.Page[activity.Activity], error) {
	lq := newListQuery("activities").search(q.Search)
	if q.Type != "" && q.Type != activity.TypeAll {
		lq.eq("type", q.Type)
	}
	if q.StartDate != "" {
		lq.gte("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		lq.lte("start_date", q.EndDate)
	}
	lq.sort(activitySort, q.SortKey, q.SortDesc)
	return fetchPage(ctx, s.pool, lq, activitySelect, q.Query, scanActivity)
}

func (s *Store) GetActivity(ctx context.Context, id string) (*activity.Activity, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+activitySelect+` FROM activities WHERE id = $1`, id)
	a, err := scanActivity(row)
	if err != nil {
		return nil, notFoundWrap(err, "get activity %s", id)
	}
	return &a, nil
}

func (s *Store) UpsertActivity(ctx context.Context, a *activity.Activity) error {
	vaultJSON, err := jsonArray(a.VaultItems)
	if err != nil {
		return fmt.Errorf("marshal vault items: %w", err)
	}
	err = s.pool.QueryRow(ctx, upsertSQL("activities", activityCols),
		a.ID, a.Type, a.Name, a.Description, a.Organizer, a.Location, a.Level, a.Role,
		nullIfEmpty(a.StartDate), nullIfEmpty(a.EndDate), nullIfEmpty(a.CertificateNumber),
		nullIfEmpty(a.CertificateFileID), nullIfEmpty(a.CertificateNodeURL),
		nullIfEmpty(a.VaultJSONID), nullIfEmpty(a.StorageNodeURL), a.IsFavorite, vaultJSON,
		nullTime(a.CreatedAt),
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return writeErr(err, "upsert activity %s", a.ID)
	}
	return nil
}

func (s *Store) DeleteActivity(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete activity %s", id)
}

func scanActivity(row scannable) (activity.Activity, error) {
	var (
		a                                  activity.Activity
		start, end, certNo, certID, certNd *string
		vaultID, node                      *string
		vaultJSON                          []byte
	)
	err := row.Scan(&a.ID, &a.Type, &a.Name, &a.Description, &a.Organizer, &a.Location, &a.Level, &a.Role,
		&start, &end, &certNo, &certID, &certNd, &vaultID, &node, &a.IsFavorite, &vaultJSON,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return a, err
	}
	a.StartDate, a.EndDate = fromNull(start), fromNull(end)
	a.CertificateNumber, a.CertificateFileID, a.CertificateNodeURL = fromNull(certNo), fromNull(certID), fromNull(certNd)
	a.VaultJSONID, a.StorageNodeURL = fromNull(vaultID), fromNull(node)
	if len(vaultJSON) > 0 {
		if err := json.Unmarshal(vaultJSON, &a.VaultItems); err != nil {
			return a, fmt.Errorf("unmarshal vault items: %w", err)
		}
	}
	a.Normalize()
	return a, nil
}
