package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

const cacheTTL = 5 * time.Minute

// CircuitBreakerHook trips after sustained Redis failures and then fails
// fast. While open, GET commands are answered from the last values read.
type CircuitBreakerHook struct {
	cb    *gobreaker.CircuitBreaker
	cache *cacheStore
}

var _ goredis.Hook = (*CircuitBreakerHook)(nil)

type cacheStore struct {
	mu     sync.RWMutex
	values map[string]cachedValue
}

type cachedValue struct {
	data      string
	timestamp time.Time
}

// StateObserver is told about every breaker transition.
type StateObserver func(from, to gobreaker.State)

type hookConfig struct {
	settings gobreaker.Settings
	observer StateObserver
}

type HookOption func(*hookConfig)

func WithStateObserver(observer StateObserver) HookOption {
	return func(c *hookConfig) { c.observer = observer }
}

// WithBreakerTimeout sets how long the breaker stays open before probing.
func WithBreakerTimeout(d time.Duration) HookOption {
	return func(c *hookConfig) { c.settings.Timeout = d }
}

// NewCircuitBreakerHook opens the breaker once at least 5 requests in the
// current 10s window failed at a rate of 60% or more. After 30s it lets
// 3 probe requests through; all of them must succeed to close again.
func NewCircuitBreakerHook(opts ...HookOption) *CircuitBreakerHook {
	cfg := hookConfig{settings: gobreaker.Settings{
		Name:        "redis",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	}}
	for _, opt := range opts {
		opt(&cfg)
	}

	observer := cfg.observer
	cfg.settings.OnStateChange = func(name string, from, to gobreaker.State) {
		slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
		if observer != nil {
			observer(from, to)
		}
	}

	return &CircuitBreakerHook{
		cb:    gobreaker.NewCircuitBreaker(cfg.settings),
		cache: &cacheStore{values: make(map[string]cachedValue)},
	}
}

// StateLevel maps a breaker state onto the gauge value exported as metric.
func StateLevel(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func (h *CircuitBreakerHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := h.cb.Execute(func() (any, error) {
			return next(ctx, network, addr)
		})
		if err != nil {
			return nil, fmt.Errorf("circuit breaker dial failed: %w", err)
		}
		return conn.(net.Conn), nil
	}
}

func (h *CircuitBreakerHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		var cmdErr error
		_, err := h.cb.Execute(func() (any, error) {
			cmdErr = next(ctx, cmd)
			if cmdErr != nil && !errors.Is(cmdErr, goredis.Nil) {
				return nil, cmdErr
			}
			return nil, nil
		})

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return h.handleFallback(cmd, err)
		}
		if err != nil {
			return fmt.Errorf("circuit breaker process failed: %w", err)
		}

		h.cacheResult(cmd)
		return cmdErr
	}
}

func (h *CircuitBreakerHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		_, err := h.cb.Execute(func() (any, error) {
			return nil, next(ctx, cmds)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("redis circuit breaker open: %w", err)
		}
		if err != nil {
			return fmt.Errorf("circuit breaker pipeline failed: %w", err)
		}
		return nil
	}
}

func (h *CircuitBreakerHook) handleFallback(cmd goredis.Cmder, cause error) error {
	if cmd.Name() == "get" {
		if value, ok := h.getFromCache(cmd); ok {
			if c, ok := cmd.(*goredis.StringCmd); ok {
				slog.Debug("Circuit breaker open, serving from cache", "args", cmd.Args())
				c.SetVal(value)
				return nil
			}
		}
		return fmt.Errorf("redis circuit breaker open and no cached value: %w", cause)
	}

	slog.Warn("Circuit breaker open, rejecting command", "command", cmd.Name())
	return fmt.Errorf("redis circuit breaker open: %w", cause)
}

func (h *CircuitBreakerHook) cacheResult(cmd goredis.Cmder) {
	if cmd.Name() != "get" || len(cmd.Args()) < 2 {
		return
	}
	c, ok := cmd.(*goredis.StringCmd)
	if !ok || c.Err() != nil {
		return
	}

	key := fmt.Sprint(cmd.Args()[1])
	h.cache.mu.Lock()
	h.cache.values[key] = cachedValue{data: c.Val(), timestamp: time.Now()}
	h.cache.mu.Unlock()
}

func (h *CircuitBreakerHook) getFromCache(cmd goredis.Cmder) (string, bool) {
	args := cmd.Args()
	if len(args) < 2 {
		return "", false
	}

	h.cache.mu.RLock()
	defer h.cache.mu.RUnlock()

	cached, ok := h.cache.values[fmt.Sprint(args[1])]
	if !ok || time.Since(cached.timestamp) > cacheTTL {
		return "", false
	}
	return cached.data, true
}

func (h *CircuitBreakerHook) State() gobreaker.State {
	return h.cb.State()
}

func (h *CircuitBreakerHook) Counts() gobreaker.Counts {
	return h.cb.Counts()
}
