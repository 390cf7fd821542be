package rbac

import (
	"context"
	"time"
)

// DecisionObserver counts authorization outcomes, e.g. for Prometheus.
type DecisionObserver interface {
	ObserveDecision(component, outcome string)
}

// Denial describes one refused request.
type Denial struct {
	Component   string
	Outcome     string
	Method      string
	Path        string
	PrincipalID string
	Role        Role
	Permission  string
	At          time.Time
}

// DenialRecorder receives denials for auditing. Implementations must not block
// the request for long and must not fail it.
type DenialRecorder interface {
	RecordDenial(ctx context.Context, d Denial)
}

type noopObserver struct{}

func (noopObserver) ObserveDecision(string, string) {}

type noopRecorder struct{}

func (noopRecorder) RecordDenial(context.Context, Denial) {}
