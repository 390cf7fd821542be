package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/harapan-foundation/harapan/internal/rbac"
)

// AccessEvent is one refused request as stored in access_audit.
type AccessEvent struct {
	ID          uuid.UUID `json:"id"`
	Component   string    `json:"component"`
	Outcome     string    `json:"outcome"`
	Method      string    `json:"method"`
	Path        string    `json:"path"`
	PrincipalID string    `json:"principal_id,omitempty"`
	Role        rbac.Role `json:"role,omitempty"`
	Permission  string    `json:"permission,omitempty"`
	At          time.Time `json:"at"`
}

// EventFromDenial assigns an ID to d. A zero timestamp is replaced by now.
func EventFromDenial(d rbac.Denial, now time.Time) AccessEvent {
	at := d.At
	if at.IsZero() {
		at = now
	}
	return AccessEvent{
		ID:          uuid.New(),
		Component:   d.Component,
		Outcome:     d.Outcome,
		Method:      d.Method,
		Path:        d.Path,
		PrincipalID: d.PrincipalID,
		Role:        d.Role,
		Permission:  d.Permission,
		At:          at.UTC(),
	}
}

// TimelineFilters menampung filter dasar untuk timeline akses.
type TimelineFilters struct {
	From      time.Time
	To        time.Time
	Component string
	Outcome   string
	Principal string
	Page      int
	PageSize  int
}

// PagingInfo menyimpan metadata pagination sederhana.
type PagingInfo struct {
	Page     int
	HasNext  bool
	PageSize int
	PrevPage int
	NextPage int
}

// Result membungkus hasil timeline dengan informasi paging.
type Result struct {
	Events []AccessEvent
	Paging PagingInfo
}

// ViewModel menyatukan data untuk template timeline akses.
type ViewModel struct {
	Filters TimelineFilters
	Events  []AccessEvent
	Paging  PagingInfo
}
