package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/felixgeelhaar/homework/internal/homework/domain/task"
	"github.com/felixgeelhaar/homework/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/homework/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditor_CountsEvents(t *testing.T) {
	a := newAuditor(observability.DiscardLogger())
	assert.ElementsMatch(t, task.RoutingKeys(), a.EventTypes())

	events := []struct {
		key     string
		payload string
	}{
		{task.RoutingKeyCreated, `{"teacher":"SP","pages":30,"priority":7,"deadline":"2025-03-12T09:00:00Z"}`},
		{task.RoutingKeyCreated, `{"teacher":"MK","pages":5,"priority":3,"deadline":"2025-03-14T09:00:00Z"}`},
		{task.RoutingKeyDeleted, `{}`},
	}
	for _, e := range events {
		require.NoError(t, a.Handle(context.Background(), &eventbus.ConsumedEvent{
			AggregateID: 1,
			RoutingKey:  e.key,
			OccurredAt:  time.Now(),
			Payload:     json.RawMessage(e.payload),
		}))
	}

	st := a.stats()
	assert.Equal(t, int64(2), st.Events[task.RoutingKeyCreated])
	assert.Equal(t, int64(1), st.Events[task.RoutingKeyDeleted])
	assert.NotNil(t, st.LastEventAt)
}

func TestAuditor_RejectsMalformedPayload(t *testing.T) {
	a := newAuditor(observability.DiscardLogger())

	err := a.Handle(context.Background(), &eventbus.ConsumedEvent{
		RoutingKey: task.RoutingKeyImported,
		Payload:    json.RawMessage(`{"count":"four"}`),
	})

	require.Error(t, err)
	assert.Empty(t, a.stats().Events)
}

func TestPayloadAttrs(t *testing.T) {
	assert.Equal(t, []any{"count", 4}, payloadAttrs(&task.TasksImported{Count: 4}))
	assert.Equal(t, []any{"fields", []string{"pages"}}, payloadAttrs(&task.TaskUpdated{Fields: []string{"pages"}}))
	assert.Nil(t, payloadAttrs(nil))
}

func TestAuditor_HealthHandler(t *testing.T) {
	a := newAuditor(observability.DiscardLogger())

	rec := httptest.NewRecorder()
	a.healthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var st auditStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "ok", st.Status)
	assert.Empty(t, st.Events)
	assert.Nil(t, st.LastEventAt)
}
