package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	RateLimitKeyPrefix = "mindcare:ratelimit:"
	BlockedIPKeyPrefix = "mindcare:blocked_ip:"
)

type RedisRateLimitConfig struct {
	Window      time.Duration // fixed window length
	MaxRequests int           // requests allowed per window
	BlockFor    time.Duration // how long an IP stays blocked after exceeding the limit
}

func DefaultRedisRateLimitConfig() RedisRateLimitConfig {
	return RedisRateLimitConfig{
		Window:      time.Minute,
		MaxRequests: 120,
		BlockFor:    15 * time.Minute,
	}
}

// RedisRateLimiter is a fixed-window limiter shared by every instance that
// talks to the same Redis. Exceeding the window blocks the IP for BlockFor.
// Redis failures let the request through.
type RedisRateLimiter struct {
	rdb      *redis.Client
	cfg      RedisRateLimitConfig
	clientIP func(*http.Request) string
	log      *zap.Logger
}

func NewRedisRateLimiter(rdb *redis.Client, cfg RedisRateLimitConfig, clientIP func(*http.Request) string, log *zap.Logger) *RedisRateLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisRateLimiter{rdb: rdb, cfg: cfg, clientIP: clientIP, log: log}
}

func (l *RedisRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := l.clientIP(r)

		blocked, err := l.IsBlocked(ctx, ip)
		if err == nil && blocked {
			writeTooManyRequests(w, "Your IP has been temporarily blocked due to excessive requests. Please try again later.")
			return
		}

		count, err := l.hit(ctx, ip)
		if err != nil {
			l.log.Warn("rate limit check failed, allowing request", zap.String("ip", ip), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		if count > int64(l.cfg.MaxRequests) {
			if err := l.rdb.Set(ctx, BlockedIPKeyPrefix+ip, "1", l.cfg.BlockFor).Err(); err != nil {
				l.log.Warn("failed to block ip", zap.String("ip", ip), zap.Error(err))
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(l.cfg.BlockFor.Seconds())))
			writeTooManyRequests(w, "Rate limit exceeded. Please try again later.")
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.MaxRequests))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(l.cfg.MaxRequests)-count, 10))
		next.ServeHTTP(w, r)
	})
}

// hit counts one request in the current window. The increment and the TTL
// go in one transaction; NX keeps an existing TTL so the window does not
// slide, and a key that somehow lost its TTL gets one on the next hit.
func (l *RedisRateLimiter) hit(ctx context.Context, ip string) (int64, error) {
	key := RateLimitKeyPrefix + ip
	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.cfg.Window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// IsBlocked checks if an IP is currently blocked.
func (l *RedisRateLimiter) IsBlocked(ctx context.Context, ip string) (bool, error) {
	n, err := l.rdb.Exists(ctx, BlockedIPKeyPrefix+ip).Result()
	return n > 0, err
}
