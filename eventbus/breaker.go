package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned while the breaker rejects publishes.
var ErrCircuitOpen = errors.New("eventbus: circuit open")

// BreakerConfig tunes a BreakerPublisher.
type BreakerConfig struct {
	// FailureThreshold consecutive failures open the circuit.
	FailureThreshold uint32 `json:"failure_threshold" mapstructure:"failure_threshold"`
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32 `json:"max_requests" mapstructure:"max_requests"`
}

// DefaultBreakerConfig returns the breaker defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		Timeout:          30 * time.Second,
		MaxRequests:      1,
	}
}

// BreakerPublisher guards a Publisher with a circuit breaker. While open,
// publishes fail immediately with ErrCircuitOpen.
type BreakerPublisher struct {
	next    Publisher
	breaker *gobreaker.CircuitBreaker[any]
}

// NewBreakerPublisher wraps next.
func NewBreakerPublisher(next Publisher, cfg BreakerConfig, logger *slog.Logger) *BreakerPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	settings := gobreaker.Settings{
		Name:        "eventbus",
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}
	return &BreakerPublisher{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
	}
}

// Publish implements Publisher.
func (b *BreakerPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	_, err := b.breaker.Execute(func() (any, error) {
		return nil, b.next.Publish(ctx, routingKey, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// State reports the breaker state.
func (b *BreakerPublisher) State() gobreaker.State { return b.breaker.State() }

// Close closes the wrapped publisher.
func (b *BreakerPublisher) Close() error { return b.next.Close() }
