// Package app wires the task store to its storage, event bus, metrics and
// health checks. Adapters receive a Container instead of building these
// themselves.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/homework/internal/homework/application"
	"github.com/felixgeelhaar/homework/internal/homework/infrastructure/export"
	"github.com/felixgeelhaar/homework/internal/homework/infrastructure/persistence"
	"github.com/felixgeelhaar/homework/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/homework/internal/shared/infrastructure/kv"
	"github.com/felixgeelhaar/homework/pkg/config"
	"github.com/felixgeelhaar/homework/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry

	// Storage
	Storage    kv.Store
	Backend    Backend
	Repository *persistence.KVRepository

	// Events. Bus delivers to in-process observers; Broker is nil unless
	// RABBITMQ_URL is set and reachable.
	Bus       *eventbus.InProcessEventBus
	Broker    *eventbus.RabbitMQPublisher
	Publisher eventbus.Publisher

	Store    *application.Store
	Exporter *export.Exporter
}

// NewContainer opens storage and builds the store.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = observability.DiscardLogger()
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
		Bus:     eventbus.NewInProcessEventBus(logger),
	}

	storage, backend, err := OpenStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.Storage = storage
	c.Backend = backend
	c.Health.Register("storage", observability.PingChecker(string(backend), observability.HealthStatusUnhealthy,
		func(ctx context.Context) error { return kv.Ping(ctx, storage) }))

	publishers := []eventbus.Publisher{c.Bus}
	if cfg.RabbitMQURL != "" {
		broker, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, eventbus.ExchangeName, logger)
		if err != nil {
			logger.WarnContext(ctx, "RabbitMQ not available, events stay in-process", observability.ErrorKey, err)
			c.Health.Register("broker", observability.StaticChecker(observability.HealthStatusDegraded,
				"rabbitmq unreachable: "+err.Error(), nil))
		} else {
			c.Broker = broker
			publishers = append(publishers, broker)
			c.Health.Register("broker", observability.PingChecker("rabbitmq", observability.HealthStatusDegraded, broker.Ping))
		}
	}
	c.Publisher = eventbus.NewFanoutPublisher(publishers...)

	codec := persistence.NewCodec()
	c.Repository = persistence.NewKVRepository(storage, cfg.StorageKey, codec)

	store, err := application.Open(ctx, c.Repository, codec,
		application.WithLogger(logger),
		application.WithMetrics(c.Metrics),
		application.WithPublisher(c.Publisher),
		application.WithSampleData(cfg.SeedSampleData),
	)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("open task store: %w", err)
	}
	c.Store = store
	c.Exporter = export.NewExporter(store, nil).Instrument(logger, c.Metrics)

	c.Health.Register("tasks", func(ctx context.Context) observability.HealthCheckResult {
		st := store.Stats(ctx)
		return observability.HealthCheckResult{
			Status:  observability.HealthStatusHealthy,
			Message: fmt.Sprintf("%d tasks loaded", st.TotalTasks),
			Details: map[string]any{
				"total":   st.TotalTasks,
				"pending": st.PendingTasks,
				"overdue": st.OverdueTasks,
				"key":     c.Repository.Key(),
			},
		}
	})

	logger.DebugContext(ctx, "container ready", "backend", backend, "broker", c.Broker != nil)
	return c, nil
}

// Close releases the publisher and the storage connection.
func (c *Container) Close() error {
	var errs []error
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	} else if c.Bus != nil {
		_ = c.Bus.Close()
	}
	if c.Storage != nil {
		if err := c.Storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}
