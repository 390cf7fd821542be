package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harapan-foundation/harapan/internal/rbac"
)

// Store persists access events in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const eventColumns = `id, component, outcome, method, path, principal_id, role, permission, at`

// filterClause keeps the statement static; empty filters match everything.
const filterClause = `
WHERE ($1::timestamptz IS NULL OR at >= $1)
  AND ($2::timestamptz IS NULL OR at < $2)
  AND ($3::text = '' OR component = $3)
  AND ($4::text = '' OR outcome = $4)
  AND ($5::text = '' OR principal_id = $5)`

// Insert stores ev. Replays of the same event are ignored.
func (s *Store) Insert(ctx context.Context, ev AccessEvent) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO access_audit (`+eventColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO NOTHING`,
		ev.ID, ev.Component, ev.Outcome, ev.Method, ev.Path, ev.PrincipalID, string(ev.Role), ev.Permission, ev.At)
	if err != nil {
		return fmt.Errorf("audit: insert %s: %w", ev.ID, err)
	}
	return nil
}

// Window returns events matching filters, newest first.
func (s *Store) Window(ctx context.Context, filters TimelineFilters, offset, limit int) ([]AccessEvent, error) {
	args := append(filterArgs(filters), offset, limit)
	rows, err := s.pool.Query(ctx, `SELECT `+eventColumns+` FROM access_audit`+filterClause+`
ORDER BY at DESC, id
OFFSET $6 LIMIT $7`, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: window: %w", err)
	}
	return collectEvents(rows)
}

// All returns every event matching filters, newest first.
func (s *Store) All(ctx context.Context, filters TimelineFilters) ([]AccessEvent, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+eventColumns+` FROM access_audit`+filterClause+`
ORDER BY at DESC, id`, filterArgs(filters)...)
	if err != nil {
		return nil, fmt.Errorf("audit: all: %w", err)
	}
	return collectEvents(rows)
}

// Prune deletes events recorded before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM access_audit WHERE at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("audit: prune: %w", err)
	}
	return tag.RowsAffected(), nil
}

func filterArgs(f TimelineFilters) []any {
	return []any{toPgTime(f.From), toPgTime(f.To), f.Component, f.Outcome, f.Principal}
}

func toPgTime(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func collectEvents(rows pgx.Rows) ([]AccessEvent, error) {
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (AccessEvent, error) {
		var (
			ev   AccessEvent
			role string
		)
		if err := row.Scan(&ev.ID, &ev.Component, &ev.Outcome, &ev.Method, &ev.Path, &ev.PrincipalID, &role, &ev.Permission, &ev.At); err != nil {
			return AccessEvent{}, err
		}
		// stored roles are kept verbatim even if the role set changes later
		ev.Role = rbac.Role(role)
		return ev, nil
	})
	if err != nil {
		return nil, fmt.Errorf("audit: scan: %w", err)
	}
	return events, nil
}
