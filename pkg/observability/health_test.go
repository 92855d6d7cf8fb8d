package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthRegistry(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	t.Run("empty registry is healthy", func(t *testing.T) {
		r := NewHealthRegistry()
		h := r.GetOverallHealth(context.Background())
		assert.Equal(t, HealthStatusHealthy, h.Status)
		assert.Empty(t, h.Checks)
	})

	t.Run("degraded broker", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("storage", PingChecker("storage", HealthStatusUnhealthy, ok))
		r.Register("broker", PingChecker("broker", HealthStatusDegraded, down))

		h := r.GetOverallHealth(context.Background())

		assert.Equal(t, HealthStatusDegraded, h.Status)
		assert.Equal(t, HealthStatusHealthy, h.Checks["storage"].Status)
		assert.Contains(t, h.Checks["broker"].Message, "connection refused")
		assert.False(t, h.Checks["broker"].Timestamp.IsZero())
	})

	t.Run("unhealthy storage wins", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("storage", PingChecker("storage", HealthStatusUnhealthy, down))
		r.Register("broker", PingChecker("broker", HealthStatusDegraded, down))

		assert.Equal(t, HealthStatusUnhealthy, r.GetOverallHealth(context.Background()).Status)
	})

	t.Run("static details", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("store", StaticChecker(HealthStatusHealthy, "3 tasks", map[string]any{"tasks": 3}))

		results := r.Check(context.Background())
		require.Contains(t, results, "store")
		assert.Equal(t, 3, results["store"].Details["tasks"])
	})

	t.Run("json", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("storage", PingChecker("storage", HealthStatusUnhealthy, ok))

		data, err := r.GetOverallHealth(context.Background()).ToJSON()
		require.NoError(t, err)
		assert.Contains(t, string(data), `"status":"healthy"`)
	})
}
