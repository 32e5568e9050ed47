package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"genui-gateway/internal/domain"
	"genui-gateway/internal/infra/config"
)

// Default circuit breaker settings.
const (
	defaultCBMaxFailures uint32        = 5
	defaultCBTimeout     time.Duration = 30 * time.Second
	defaultCBInterval    time.Duration = 60 * time.Second
)

// newBreaker builds a breaker named "llm:<name>". Zero-valued settings fall
// back to the defaults.
func newBreaker[T any](name string, cfg config.CircuitBreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[T] {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultCBMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultCBTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultCBInterval
	}

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        "llm:" + name,
		MaxRequests: 1, // allow 1 probe in half-open state
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: isBreakerSuccess,
	})
}

// isBreakerSuccess counts caller-side failures as successes: a bad
// credential or a cancelled request says nothing about provider health.
func isBreakerSuccess(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, domain.ErrAuthInvalid), errors.Is(err, domain.ErrAuthMissing),
		errors.Is(err, domain.ErrInvalidInput):
		return true
	case errors.Is(err, context.Canceled):
		return true
	default:
		return false
	}
}

// breakerError tags open-circuit rejections with domain.ErrCircuitOpen.
func breakerError(name string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("provider %q: %w: %w", name, domain.ErrCircuitOpen, err)
	}
	return err
}

// CircuitBreakerNative wraps a NativeStreamer. The breaker guards stream
// opening only; failures after the stream is open arrive as events and do
// not trip it.
type CircuitBreakerNative struct {
	inner   domain.NativeStreamer
	breaker *gobreaker.CircuitBreaker[<-chan domain.ProviderEvent]
}

// NewCircuitBreakerNative wraps inner with a circuit breaker.
func NewCircuitBreakerNative(inner domain.NativeStreamer, cfg config.CircuitBreakerConfig, logger *slog.Logger) *CircuitBreakerNative {
	return &CircuitBreakerNative{
		inner:   inner,
		breaker: newBreaker[<-chan domain.ProviderEvent](inner.Name(), cfg, logger),
	}
}

// Name implements domain.NativeStreamer.
func (p *CircuitBreakerNative) Name() string { return p.inner.Name() }

// StreamMessages implements domain.NativeStreamer.
func (p *CircuitBreakerNative) StreamMessages(ctx context.Context, req domain.NativeRequest) (<-chan domain.ProviderEvent, error) {
	ch, err := p.breaker.Execute(func() (<-chan domain.ProviderEvent, error) {
		return p.inner.StreamMessages(ctx, req)
	})
	if err != nil {
		return nil, breakerError(p.inner.Name(), err)
	}
	return ch, nil
}

// State returns the current circuit breaker state for monitoring.
func (p *CircuitBreakerNative) State() gobreaker.State { return p.breaker.State() }

// Counts returns the current circuit breaker counts.
func (p *CircuitBreakerNative) Counts() gobreaker.Counts { return p.breaker.Counts() }

// CircuitBreakerText wraps a TextStreamer.
type CircuitBreakerText struct {
	inner   domain.TextStreamer
	breaker *gobreaker.CircuitBreaker[<-chan domain.TextChunk]
}

// NewCircuitBreakerText wraps inner with a circuit breaker.
func NewCircuitBreakerText(inner domain.TextStreamer, cfg config.CircuitBreakerConfig, logger *slog.Logger) *CircuitBreakerText {
	return &CircuitBreakerText{
		inner:   inner,
		breaker: newBreaker[<-chan domain.TextChunk](inner.Name(), cfg, logger),
	}
}

// Name implements domain.TextStreamer.
func (p *CircuitBreakerText) Name() string { return p.inner.Name() }

// StreamText implements domain.TextStreamer.
func (p *CircuitBreakerText) StreamText(ctx context.Context, req domain.TextRequest) (<-chan domain.TextChunk, error) {
	ch, err := p.breaker.Execute(func() (<-chan domain.TextChunk, error) {
		return p.inner.StreamText(ctx, req)
	})
	if err != nil {
		return nil, breakerError(p.inner.Name(), err)
	}
	return ch, nil
}

// State returns the current circuit breaker state for monitoring.
func (p *CircuitBreakerText) State() gobreaker.State { return p.breaker.State() }

// CircuitBreakerCompletion wraps a CompletionProvider. Complete and stream
// opening share one breaker.
type CircuitBreakerCompletion struct {
	inner   domain.CompletionProvider
	breaker *gobreaker.CircuitBreaker[any]
}

// NewCircuitBreakerCompletion wraps inner with a circuit breaker.
func NewCircuitBreakerCompletion(inner domain.CompletionProvider, cfg config.CircuitBreakerConfig, logger *slog.Logger) *CircuitBreakerCompletion {
	return &CircuitBreakerCompletion{
		inner:   inner,
		breaker: newBreaker[any](inner.Name(), cfg, logger),
	}
}

// Name implements domain.CompletionProvider.
func (p *CircuitBreakerCompletion) Name() string { return p.inner.Name() }

// Complete implements domain.CompletionProvider.
func (p *CircuitBreakerCompletion) Complete(ctx context.Context, req domain.CompletionRequest) (json.RawMessage, error) {
	var out json.RawMessage
	_, err := p.breaker.Execute(func() (any, error) {
		var err error
		out, err = p.inner.Complete(ctx, req)
		return nil, err
	})
	if err != nil {
		return nil, breakerError(p.inner.Name(), err)
	}
	return out, nil
}

// StreamCompletion implements domain.CompletionProvider.
func (p *CircuitBreakerCompletion) StreamCompletion(ctx context.Context, req domain.CompletionRequest) (<-chan domain.CompletionChunk, error) {
	var ch <-chan domain.CompletionChunk
	_, err := p.breaker.Execute(func() (any, error) {
		var err error
		ch, err = p.inner.StreamCompletion(ctx, req)
		return nil, err
	})
	if err != nil {
		return nil, breakerError(p.inner.Name(), err)
	}
	return ch, nil
}

// State returns the current circuit breaker state for monitoring.
func (p *CircuitBreakerCompletion) State() gobreaker.State { return p.breaker.State() }

// Compile-time interface checks.
var (
	_ domain.NativeStreamer     = (*CircuitBreakerNative)(nil)
	_ domain.TextStreamer       = (*CircuitBreakerText)(nil)
	_ domain.CompletionProvider = (*CircuitBreakerCompletion)(nil)
	_ domain.NativeStreamer     = (*AnthropicStreamer)(nil)
	_ domain.TextStreamer       = (*CLIStreamer)(nil)
)
