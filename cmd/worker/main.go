// Command worker keeps an audit log of task changes. It consumes every
// task event from a durable RabbitMQ queue and logs it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/felixgeelhaar/homework/internal/homework/domain/task"
	"github.com/felixgeelhaar/homework/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/homework/pkg/config"
	"github.com/felixgeelhaar/homework/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", observability.ErrorKey, err)
		os.Exit(1)
	}
	if cfg.RabbitMQURL == "" {
		logger.Error("RABBITMQ_URL is not set")
		os.Exit(1)
	}

	logger = observability.NewLogger(cfg.ServiceLogConfig(""))
	logger.Info("starting homework worker", "queue", cfg.WorkerQueue)

	consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
		URL:       cfg.RabbitMQURL,
		QueueName: cfg.WorkerQueue,
		Bindings:  task.RoutingKeys(),
		Logger:    logger,
	}, eventbus.NewConsumerRegistry(logger))
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", observability.ErrorKey, err)
		os.Exit(1)
	}
	defer consumer.Close()

	audit := newAuditor(logger)
	consumer.RegisterConsumer(audit)

	if cfg.WorkerHealthAddr != "" {
		srv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           audit.healthHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("health server error", observability.ErrorKey, err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", observability.ErrorKey, err)
			}
		}()
	}

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", observability.ErrorKey, err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

// auditor logs task events and keeps per-routing-key counts.
type auditor struct {
	logger *slog.Logger

	mu     sync.Mutex
	last   time.Time
	counts map[string]int64
}

func newAuditor(logger *slog.Logger) *auditor {
	return &auditor{
		logger: observability.LogOperation(logger, "audit"),
		counts: make(map[string]int64),
	}
}

func (a *auditor) EventTypes() []string {
	return task.RoutingKeys()
}

func (a *auditor) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	payload, err := task.DecodePayload(event.RoutingKey, event.Payload)
	if err != nil {
		return err
	}

	ctx = observability.NewRequestContext(ctx, event.Metadata.CorrelationID)
	attrs := []any{
		"routing_key", event.RoutingKey,
		"task_id", event.AggregateID,
		"event_id", event.EventID,
		"occurred_at", event.OccurredAt,
	}
	a.logger.InfoContext(ctx, "task event", append(attrs, payloadAttrs(payload)...)...)

	a.mu.Lock()
	a.counts[event.RoutingKey]++
	a.last = time.Now()
	a.mu.Unlock()
	return nil
}

func payloadAttrs(payload any) []any {
	switch e := payload.(type) {
	case *task.TaskCreated:
		return []any{"teacher", e.Teacher, "pages", e.Pages, "priority", e.Priority, "deadline", e.Deadline}
	case *task.TaskUpdated:
		return []any{"fields", e.Fields}
	case *task.TasksImported:
		return []any{"count", e.Count}
	}
	return nil
}

type auditStats struct {
	Status      string           `json:"status"`
	Events      map[string]int64 `json:"events"`
	LastEventAt *time.Time       `json:"last_event_at,omitempty"`
}

func (a *auditor) stats() auditStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := auditStats{Status: "ok", Events: make(map[string]int64, len(a.counts))}
	for k, v := range a.counts {
		st.Events[k] = v
	}
	if !a.last.IsZero() {
		last := a.last
		st.LastEventAt = &last
	}
	return st
}

func (a *auditor) healthHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a.stats())
	})
	return mux
}
