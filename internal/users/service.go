package users

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/harapan-foundation/harapan/internal/platform/httpx"
	"github.com/harapan-foundation/harapan/internal/rbac"
	"github.com/harapan-foundation/harapan/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	DeleteUser(ctx context.Context, id int64) error
	UpdateRole(ctx context.Context, id int64, role rbac.Role) (User, error)
}

// Service handles user business logic.
type Service struct {
	repo    RepositoryPort
	actions shared.ActionRecorder
	logger  *slog.Logger
}

// NewService builds Service instance. actions may be nil.
func NewService(repo RepositoryPort, actions shared.ActionRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, actions: actions, logger: logger}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// DeleteUser removes a user. Accounts cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, actor rbac.Principal, id int64) error {
	if isSelf(actor, id) {
		return fmt.Errorf("%w: cannot delete your own account", httpx.ErrValidation)
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actor, "user.delete", id, nil)
	return nil
}

// ChangeRole assigns a new role. Accounts cannot change their own role so an
// administrator cannot lock the last admin out by accident.
func (s *Service) ChangeRole(ctx context.Context, actor rbac.Principal, id int64, role rbac.Role) (User, error) {
	if !role.Valid() {
		return User{}, fmt.Errorf("%w: %v", httpx.ErrValidation, rbac.ErrUnknownRole)
	}
	if isSelf(actor, id) {
		return User{}, fmt.Errorf("%w: cannot change your own role", httpx.ErrValidation)
	}
	user, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, actor, "user.change_role", id, map[string]any{"role": string(role)})
	return user, nil
}

// record is best effort: the change already happened.
func (s *Service) record(ctx context.Context, actor rbac.Principal, action string, id int64, meta map[string]any) {
	if s.actions == nil {
		return
	}
	entry := shared.ActionLog{ActorID: actor.ID, Action: action, Entity: "user", EntityID: strconv.FormatInt(id, 10), Meta: meta}
	if err := s.actions.Record(ctx, entry); err != nil {
		s.logger.Warn("record user action", slog.String("action", action), slog.Any("error", err))
	}
}

func isSelf(actor rbac.Principal, id int64) bool {
	return actor.ID == strconv.FormatInt(id, 10)
}
