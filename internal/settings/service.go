package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/harapan-foundation/harapan/internal/platform/httpx"
	"github.com/harapan-foundation/harapan/internal/rbac"
	"github.com/harapan-foundation/harapan/internal/shared"
)

// RepositoryPort defines data access methods for settings.
type RepositoryPort interface {
	List(ctx context.Context) ([]Setting, error)
	UpsertMany(ctx context.Context, updates []Update, by string) ([]Setting, error)
}

// Cache is an optional read-through cache of the full list.
type Cache interface {
	Get(ctx context.Context) ([]Setting, error)
	Set(ctx context.Context, list []Setting) error
	Invalidate(ctx context.Context) error
}

// Service handles settings business logic.
type Service struct {
	repo     RepositoryPort
	cache    Cache
	actions  shared.ActionRecorder
	logger   *slog.Logger
	validate *validator.Validate
}

// NewService builds Service instance. cache and actions may be nil.
func NewService(repo RepositoryPort, cache Cache, actions shared.ActionRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, actions: actions, logger: logger, validate: newValidator()}
}

var settingKeyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("settingkey", func(fl validator.FieldLevel) bool {
		return settingKeyPattern.MatchString(fl.Field().String())
	})
	return v
}

// List returns all settings, from the cache when possible.
func (s *Service) List(ctx context.Context) ([]Setting, error) {
	if s.cache != nil {
		list, err := s.cache.Get(ctx)
		if err == nil {
			return list, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("settings cache read", slog.Any("error", err))
		}
	}
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, list); err != nil {
			s.logger.Warn("settings cache write", slog.Any("error", err))
		}
	}
	return list, nil
}

// Update validates and stores updates on behalf of actor.
func (s *Service) Update(ctx context.Context, actor rbac.Principal, updates []Update) ([]Setting, error) {
	for i := range updates {
		updates[i].Key = strings.TrimSpace(updates[i].Key)
	}
	if err := s.validate.Struct(UpdateRequest{Settings: updates}); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, describe(err))
	}
	saved, err := s.repo.UpsertMany(ctx, updates, actor.ID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("settings cache invalidate", slog.Any("error", err))
		}
	}
	if s.actions != nil {
		for _, u := range updates {
			entry := shared.ActionLog{ActorID: actor.ID, Action: "setting.update", Entity: "setting", EntityID: u.Key, Meta: map[string]any{"value": u.Value}}
			if err := s.actions.Record(ctx, entry); err != nil {
				s.logger.Warn("record setting action", slog.String("key", u.Key), slog.Any("error", err))
			}
		}
	}
	return saved, nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	return fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
}
