package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkerRequiresHandlers(t *testing.T) {
	_, err := NewWorker(WorkerConfig{RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"}})
	assert.Error(t, err)
}

func TestNewWorkerSkipsIncompleteRegistrations(t *testing.T) {
	w, err := NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"},
		Handlers: []TaskHandler{
			{Type: "audit:access_denied", Handler: func(context.Context, *asynq.Task) error { return nil }},
			{Type: "", Handler: func(context.Context, *asynq.Task) error { return nil }},
			{Type: "audit:prune"},
		},
	})
	require.NoError(t, err)
	assert.NotNil(t, w.mux)
	assert.Nil(t, w.scheduler)
}

func TestHealthWithoutInspectorReportsEmptyQueues(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, nil).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Queues []queueHealth `json:"queues"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Queues, 2)
	assert.Equal(t, QueueAudit, body.Queues[0].Queue)
	assert.Equal(t, QueueDefault, body.Queues[1].Queue)
}

func TestNilClientRefusesEnqueue(t *testing.T) {
	var c *Client
	_, err := c.EnqueueContext(context.Background(), asynq.NewTask("audit:access_denied", nil))
	assert.Error(t, err)
}
