package audit

import (
	"context"
	"fmt"
	"strings"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// Repository menyediakan akses data timeline akses.
type Repository interface {
	Window(ctx context.Context, filters TimelineFilters, offset, limit int) ([]AccessEvent, error)
	All(ctx context.Context, filters TimelineFilters) ([]AccessEvent, error)
}

// Service mengoordinasikan pengambilan data audit akses.
type Service struct {
	repo Repository
}

// NewService membuat service audit timeline baru.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline mengambil data audit dengan paging.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	filters = normalize(filters)
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	events, err := s.repo.Window(ctx, filters, (page-1)*pageSize, pageSize+1)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(events) > pageSize
	if hasNext {
		events = events[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Events: events, Paging: paging}, nil
}

// Export mengambil seluruh data timeline tanpa paging.
func (s *Service) Export(ctx context.Context, filters TimelineFilters) ([]AccessEvent, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("audit: repository not configured")
	}
	return s.repo.All(ctx, normalize(filters))
}

// Recent returns the newest events, used by the dashboard.
func (s *Service) Recent(ctx context.Context, limit int) ([]AccessEvent, error) {
	res, err := s.Timeline(ctx, TimelineFilters{PageSize: limit})
	if err != nil {
		return nil, err
	}
	return res.Events, nil
}

func normalize(f TimelineFilters) TimelineFilters {
	f.Component = strings.TrimSpace(f.Component)
	f.Outcome = strings.TrimSpace(f.Outcome)
	f.Principal = strings.TrimSpace(f.Principal)
	return f
}
