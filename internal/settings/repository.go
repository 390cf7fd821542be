package settings

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harapan-foundation/harapan/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all settings ordered by key.
func (r *Repository) List(ctx context.Context) ([]Setting, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value, updated_at, updated_by FROM site_settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("settings: list: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Setting])
	if err != nil {
		return nil, fmt.Errorf("settings: list: %w", err)
	}
	return out, nil
}

// UpsertMany writes every update in one transaction.
func (r *Repository) UpsertMany(ctx context.Context, updates []Update, by string) ([]Setting, error) {
	out := make([]Setting, 0, len(updates))
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, u := range updates {
			var s Setting
			err := tx.QueryRow(ctx, `INSERT INTO site_settings (key, value, updated_at, updated_by)
VALUES ($1, $2, NOW(), $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by
RETURNING key, value, updated_at, updated_by`, u.Key, u.Value, by).Scan(&s.Key, &s.Value, &s.UpdatedAt, &s.UpdatedBy)
			if err != nil {
				return fmt.Errorf("settings: upsert %s: %w", u.Key, err)
			}
			out = append(out, s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

var _ RepositoryPort = (*Repository)(nil)
