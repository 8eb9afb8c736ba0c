package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xeenaps/pkm/internal/domain"
)

func TestWriteErr(t *testing.T) {
	plain := errors.New("connection reset")
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"missing parent", &pgconn.PgError{Code: "23503", ConstraintName: "tracer_todos_project_id_fkey"}, domain.ErrNotFound},
		{"duplicate key", &pgconn.PgError{Code: "23505", ConstraintName: "notes_pkey"}, domain.ErrConflict},
		{"other sqlstate", &pgconn.PgError{Code: "22001"}, nil},
		{"not a pg error", plain, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := writeErr(tt.err, "upsert tracer todo %s", "t1")
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tt.want == nil {
				if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict) {
					t.Fatalf("err = %v mapped to a sentinel", err)
				}
				if !errors.Is(err, tt.err) {
					t.Fatalf("err = %v lost its cause", err)
				}
			}
		})
	}
}
