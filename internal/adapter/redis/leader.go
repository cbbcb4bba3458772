package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	leaderKey        = "obs-ui:eventsub:leader"
	defaultLeaderTTL = 30 * time.Second
)

var ErrLeadershipLost = errors.New("eventsub leadership lost")

var (
	renewScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)
	releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)
)

// LeaderElector makes sure only one server instance sharing a Redis owns
// the EventSub session. Other instances still serve overlay clients through
// the shared broker.
type LeaderElector struct {
	rdb        goredis.Cmdable
	instanceID string
	ttl        time.Duration
}

func NewLeaderElector(rdb goredis.Cmdable, instanceID string, ttl time.Duration) *LeaderElector {
	if ttl <= 0 {
		ttl = defaultLeaderTTL
	}
	return &LeaderElector{rdb: rdb, instanceID: instanceID, ttl: ttl}
}

// TryAcquire takes the lease if nobody holds it.
func (l *LeaderElector) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, leaderKey, l.instanceID, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire leader lock: %w", err)
	}
	return ok, nil
}

// Renew extends the lease. It fails with ErrLeadershipLost when the lease
// expired or another instance holds it.
func (l *LeaderElector) Renew(ctx context.Context) error {
	n, err := renewScript.Run(ctx, l.rdb, []string{leaderKey}, l.instanceID, l.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("failed to renew leader lock: %w", err)
	}
	if n == 0 {
		return ErrLeadershipLost
	}
	return nil
}

// Release gives the lease up if this instance still holds it.
func (l *LeaderElector) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.rdb, []string{leaderKey}, l.instanceID).Err(); err != nil {
		return fmt.Errorf("failed to release leader lock: %w", err)
	}
	return nil
}

// Lead blocks until this instance holds the lease, then runs fn with a
// context that is cancelled when the lease is lost or ctx ends. The lease
// is renewed at a third of its TTL and released when fn returns.
func (l *LeaderElector) Lead(ctx context.Context, fn func(ctx context.Context)) error {
	interval := l.ttl / 3

	for {
		ok, err := l.TryAcquire(ctx)
		if err != nil {
			slog.WarnContext(ctx, "Leader election failed", "instance", l.instanceID, "error", err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}

	slog.InfoContext(ctx, "Acquired EventSub leadership", "instance", l.instanceID)
	leadCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(leadCtx)
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			releaseCtx, releaseCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer releaseCancel()
			if err := l.Release(releaseCtx); err != nil {
				slog.WarnContext(ctx, "Failed to release EventSub leadership", "error", err)
			}
			return context.Cause(leadCtx)
		case <-ticker.C:
			if leadCtx.Err() != nil {
				continue
			}
			if err := l.Renew(leadCtx); err != nil {
				if leadCtx.Err() != nil {
					continue
				}
				slog.ErrorContext(ctx, "Lost EventSub leadership", "instance", l.instanceID, "error", err)
				cancel(ErrLeadershipLost)
				<-done
				return ErrLeadershipLost
			}
		}
	}
}
