package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/harapan-foundation/harapan/internal/shared"
)

// RoleStore looks up the current role of a user.
type RoleStore interface {
	RoleOf(ctx context.Context, userID string) (Role, error)
}

// SessionLookup reads a session without creating or persisting one.
type SessionLookup interface {
	Lookup(ctx context.Context, r *http.Request) (*shared.Session, error)
}

// SessionResolver resolves principals from the cookie session. The session
// carries the user ID; the role is read from the RoleStore on every request so
// role changes apply without a new login.
type SessionResolver struct {
	sessions SessionLookup
	roles    RoleStore
	logger   *slog.Logger
	group    singleflight.Group
}

// NewSessionResolver constructs a SessionResolver.
func NewSessionResolver(sessions SessionLookup, roles RoleStore, logger *slog.Logger) *SessionResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionResolver{sessions: sessions, roles: roles, logger: logger}
}

// Resolve implements Resolver.
func (s *SessionResolver) Resolve(r *http.Request) (Principal, bool) {
	ctx := r.Context()
	sess := shared.SessionFromContext(ctx)
	if sess == nil && s.sessions != nil {
		loaded, err := s.sessions.Lookup(ctx, r)
		if err != nil {
			s.logger.Debug("session lookup failed", slog.Any("error", err))
			return Principal{}, false
		}
		sess = loaded
	}
	if sess == nil || s.roles == nil {
		return Principal{}, false
	}
	userID := strings.TrimSpace(sess.User())
	if userID == "" {
		return Principal{}, false
	}
	role, err := s.roleOf(ctx, userID)
	if err != nil {
		s.logger.Debug("session role lookup failed", slog.String("user_id", userID), slog.Any("error", err))
		return Principal{}, false
	}
	return Principal{ID: userID, Role: role}, true
}

func (s *SessionResolver) roleOf(ctx context.Context, userID string) (Role, error) {
	ch := s.group.DoChan(userID, func() (interface{}, error) {
		return s.roles.RoleOf(context.WithoutCancel(ctx), userID)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		role, _ := res.Val.(Role)
		if !role.Valid() {
			return "", ErrUnknownRole
		}
		return role, nil
	}
}
