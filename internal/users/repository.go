package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harapan-foundation/harapan/internal/platform/httpx"
	"github.com/harapan-foundation/harapan/internal/rbac"
)

const roleLookupTimeout = 3 * time.Second

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, name, role, is_active, created_at, updated_at`

// ListUsers returns all users.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	return users, nil
}

// GetUser fetches one user.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, httpx.ErrNotFound
	}
	return user, err
}

// RoleOf returns the role of an active user. It backs session principal
// resolution, so inactive and unknown users both yield httpx.ErrNotFound.
func (r *Repository) RoleOf(ctx context.Context, userID string) (rbac.Role, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(userID), 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: user id %q", httpx.ErrValidation, userID)
	}
	ctx, cancel := context.WithTimeout(ctx, roleLookupTimeout)
	defer cancel()
	var raw string
	err = r.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1 AND is_active`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", httpx.ErrNotFound
		}
		return "", fmt.Errorf("users: role of %d: %w", id, err)
	}
	return rbac.ParseRole(raw)
}

// DeleteUser removes a user.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapPgError(fmt.Sprintf("users: delete %d", id), err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// UpdateRole changes the role of a user.
func (r *Repository) UpdateRole(ctx context.Context, id int64, role rbac.Role) (User, error) {
	row := r.pool.QueryRow(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns, id, string(role))
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, httpx.ErrNotFound
	}
	if err != nil {
		return User{}, mapPgError(fmt.Sprintf("users: update role %d", id), err)
	}
	return user, nil
}

// Postgres SQLSTATE codes the handlers turn into client errors.
const (
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

func mapPgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCheckViolation:
			return fmt.Errorf("%w: %s violates %s", httpx.ErrValidation, op, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: user is still referenced by %s", httpx.ErrDuplicate, pgErr.TableName)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func scanUser(row pgx.Row) (User, error) {
	var (
		user User
		role string
	)
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, err
		}
		return User{}, fmt.Errorf("users: scan: %w", err)
	}
	parsed, err := rbac.ParseRole(role)
	if err != nil {
		return User{}, fmt.Errorf("users: user %d: %w", user.ID, err)
	}
	user.Role = parsed
	return user, nil
}

var (
	_ RepositoryPort = (*Repository)(nil)
	_ rbac.RoleStore = (*Repository)(nil)
)
