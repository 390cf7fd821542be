package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harapan-foundation/harapan/internal/platform/httpx"
	"github.com/harapan-foundation/harapan/internal/rbac"
	"github.com/harapan-foundation/harapan/internal/shared"
)

type stubRepo struct {
	list      []Setting
	listCalls int
	upserted  []Update
	by        string
	err       error
}

func (s *stubRepo) List(ctx context.Context) ([]Setting, error) {
	s.listCalls++
	return s.list, s.err
}

func (s *stubRepo) UpsertMany(ctx context.Context, updates []Update, by string) ([]Setting, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.upserted = append(s.upserted, updates...)
	s.by = by
	out := make([]Setting, 0, len(updates))
	for _, u := range updates {
		out = append(out, Setting{Key: u.Key, Value: u.Value, UpdatedAt: time.Now(), UpdatedBy: by})
	}
	return out, nil
}

func newCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

var admin = rbac.Principal{ID: "1", Role: rbac.RoleAdmin}

func TestListReadsThroughCache(t *testing.T) {
	repo := &stubRepo{list: []Setting{{Key: "site.title", Value: "Harapan"}}}
	cache, mr := newCache(t)
	svc := NewService(repo, cache, nil, nil)

	first, err := svc.List(context.Background())
	require.NoError(t, err)
	second, err := svc.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, repo.listCalls)
	assert.Equal(t, first[0].Key, second[0].Key)
	assert.True(t, mr.Exists(cacheKey))
}

func TestUpdateInvalidatesCache(t *testing.T) {
	repo := &stubRepo{list: []Setting{{Key: "site.title", Value: "Harapan"}}}
	cache, mr := newCache(t)
	svc := NewService(repo, cache, nil, nil)

	_, err := svc.List(context.Background())
	require.NoError(t, err)
	saved, err := svc.Update(context.Background(), admin, []Update{{Key: " donation.goal ", Value: "1000000"}})
	require.NoError(t, err)

	assert.False(t, mr.Exists(cacheKey))
	require.Len(t, saved, 1)
	assert.Equal(t, "donation.goal", repo.upserted[0].Key)
	assert.Equal(t, "1", repo.by)
}

func TestUpdateValidatesKeys(t *testing.T) {
	svc := NewService(&stubRepo{}, nil, nil, nil)
	cases := map[string][]Update{
		"empty list":  nil,
		"empty key":   {{Key: "", Value: "x"}},
		"uppercase":   {{Key: "Site.Title", Value: "x"}},
		"whitespace":  {{Key: "site title", Value: "x"}},
		"long value":  {{Key: "site.title", Value: string(make([]byte, 4097))}},
		"leading dot": {{Key: ".hidden", Value: "x"}},
	}
	for name, updates := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), admin, updates)
			assert.ErrorIs(t, err, httpx.ErrValidation)
		})
	}
}

func TestListWithoutCacheHitsRepository(t *testing.T) {
	boom := errors.New("db down")
	svc := NewService(&stubRepo{err: boom}, nil, nil, nil)
	_, err := svc.List(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestCacheMissOnEmptyRedis(t *testing.T) {
	cache, _ := newCache(t)
	_, err := cache.Get(context.Background())
	assert.ErrorIs(t, err, ErrCacheMiss)
}

type actionSink []shared.ActionLog

func (a *actionSink) Record(ctx context.Context, log shared.ActionLog) error {
	*a = append(*a, log)
	return nil
}

func TestUpdateRecordsOneActionPerKey(t *testing.T) {
	var sink actionSink
	svc := NewService(&stubRepo{}, nil, &sink, nil)

	_, err := svc.Update(context.Background(), admin, []Update{{Key: "site.title", Value: "Harapan"}, {Key: "site.tagline", Value: "Bersama"}})
	require.NoError(t, err)
	require.Len(t, sink, 2)
	assert.Equal(t, "setting.update", sink[0].Action)
	assert.Equal(t, "site.title", sink[0].EntityID)
	assert.Equal(t, "1", sink[1].ActorID)

	_, err = svc.Update(context.Background(), admin, []Update{{Key: "Bad Key"}})
	assert.ErrorIs(t, err, httpx.ErrValidation)
	assert.Len(t, sink, 2)
}
