package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("storage circuit breaker is open")

// BreakerConfig configures BreakerStore.
type BreakerConfig struct {
	Name             string
	FailureThreshold uint32
	Timeout          time.Duration
	Interval         time.Duration
	MaxRequests      uint32
}

// DefaultBreakerConfig trips after five consecutive failures and lets a
// trial request through after thirty seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "kv",
		FailureThreshold: 5,
		Timeout:          30 * time.Second,
		MaxRequests:      1,
	}
}

// BreakerStore fails fast once the wrapped store keeps failing.
type BreakerStore struct {
	next    Store
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
}

// NewBreakerStore wraps next with a circuit breaker.
func NewBreakerStore(next Store, cfg BreakerConfig, logger *slog.Logger) *BreakerStore {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	threshold := cfg.FailureThreshold

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("storage circuit breaker state changed",
				"store", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &BreakerStore{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
		logger:  logger,
	}
}

func (s *BreakerStore) Get(ctx context.Context, key string) (string, bool, error) {
	type getResult struct {
		value string
		found bool
	}
	res, err := s.execute(func() (any, error) {
		v, found, err := s.next.Get(ctx, key)
		return getResult{value: v, found: found}, err
	})
	if err != nil {
		return "", false, err
	}
	r := res.(getResult)
	return r.value, r.found, nil
}

func (s *BreakerStore) Set(ctx context.Context, key, value string) error {
	_, err := s.execute(func() (any, error) {
		return nil, s.next.Set(ctx, key, value)
	})
	return err
}

func (s *BreakerStore) Ping(ctx context.Context) error {
	_, err := s.execute(func() (any, error) {
		return nil, Ping(ctx, s.next)
	})
	return err
}

// State reports the breaker state, e.g. "closed" or "open".
func (s *BreakerStore) State() string {
	return s.breaker.State().String()
}

func (s *BreakerStore) Close() error {
	return s.next.Close()
}

func (s *BreakerStore) execute(fn func() (any, error)) (any, error) {
	res, err := s.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	return res, err
}
