package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Config holds Redis lock settings.
type Config struct {
	URL          string
	KeyPrefix    string
	TTL          time.Duration
	RetryBackoff time.Duration
}

// Locker is a Redis SET NX PX lock shared by every server instance.
type Locker struct {
	client  *goredis.Client
	prefix  string
	ttl     time.Duration
	backoff time.Duration
}

var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var renewScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// New connects to Redis and verifies the connection.
func New(cfg Config) (*Locker, error) {
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewWithClient(client, cfg), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client, cfg Config) *Locker {
	l := &Locker{
		client:  client,
		prefix:  cfg.KeyPrefix,
		ttl:     cfg.TTL,
		backoff: cfg.RetryBackoff,
	}
	if l.prefix == "" {
		l.prefix = "manga:lock:"
	}
	if l.ttl <= 0 {
		l.ttl = 30 * time.Second
	}
	if l.backoff <= 0 {
		l.backoff = 50 * time.Millisecond
	}
	return l
}

// Lock polls until the key is acquired or ctx is done. The lock is renewed
// every TTL/3 while held and expires after TTL if the holder dies.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.backoff):
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(redisKey, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done

			// the request context may already be cancelled
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
				slog.Warn("Failed to release lock", "key", key, "error", err)
			}
		})
	}, nil
}

// keepAlive extends the key's expiry until stop is closed. It gives up when
// the key is no longer held by token, or when renewals have failed for a
// whole TTL and the key has expired anyway.
func (l *Locker) keepAlive(redisKey, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(renewInterval(l.ttl))
	defer ticker.Stop()

	renewed := time.Now()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), renewInterval(l.ttl))
			held, err := renewScript.Run(ctx, l.client, []string{redisKey}, token, l.ttl.Milliseconds()).Int()
			cancel()
			if err != nil {
				slog.Warn("Failed to renew lock", "key", redisKey, "error", err)
				if time.Since(renewed) >= l.ttl {
					return
				}
				continue
			}
			renewed = time.Now()
			if held == 0 {
				slog.Warn("Lock lost before release", "key", redisKey)
				return
			}
		}
	}
}

func renewInterval(ttl time.Duration) time.Duration {
	interval := ttl / 3
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	return interval
}

// Close closes the underlying client.
func (l *Locker) Close() error {
	return l.client.Close()
}
