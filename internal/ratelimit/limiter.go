// Package ratelimit provides Redis-backed fixed window rate limiting using
// INCR + EXPIRE. Lostify uses it to throttle post creation and feedback
// submission per user.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rule defines a rate limiting policy: the Redis key prefix, maximum number of
// requests allowed in the window, and the window duration.
type Rule struct {
	Key    string        // Redis key prefix (e.g. "rl:post:")
	Limit  int           // max count in the window
	Window time.Duration // time window
}

// Enabled reports whether the rule limits anything.
func (r Rule) Enabled() bool {
	return r.Limit > 0 && r.Window > 0
}

// PostRule allows limit new posts per window per user.
func PostRule(limit int, window time.Duration) Rule {
	return Rule{Key: "rl:post:", Limit: limit, Window: window}
}

// FeedbackRule allows limit feedback messages per window per sender.
func FeedbackRule(limit int, window time.Duration) Rule {
	return Rule{Key: "rl:feedback:", Limit: limit, Window: window}
}

// Limiter performs rate limiting checks against Redis.
type Limiter struct {
	client *redis.Client
	logger *slog.Logger
}

// NewLimiter creates a Limiter backed by the given Redis client.
func NewLimiter(client *redis.Client, logger *slog.Logger) *Limiter {
	return &Limiter{client: client, logger: logger}
}

// Allow checks whether identifier is within the limit defined by rule. It
// increments the counter in Redis and sets the expiry on first access.
//
// Returns true if the request is allowed. On Redis errors the method fails
// open and returns true along with the error.
func (l *Limiter) Allow(ctx context.Context, identifier string, rule Rule) (bool, error) {
	if !rule.Enabled() {
		return true, nil
	}
	key := rule.Key + identifier

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn("rate limit incr failed, failing open", "key", key, "error", err)
		return true, err
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, rule.Window).Err(); err != nil {
			l.logger.Warn("rate limit expire failed, failing open", "key", key, "error", err)
			// Without a TTL the key would block the identifier forever.
			l.client.Del(ctx, key)
			return true, err
		}
	}

	return int(count) <= rule.Limit, nil
}

// Remaining returns how many requests identifier has left in the current
// window. Returns the full limit if the key does not exist or Redis fails.
func (l *Limiter) Remaining(ctx context.Context, identifier string, rule Rule) (int, error) {
	key := rule.Key + identifier

	count, err := l.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return rule.Limit, nil
	}
	if err != nil {
		l.logger.Warn("rate limit get failed, failing open", "key", key, "error", err)
		return rule.Limit, err
	}

	return max(rule.Limit-count, 0), nil
}

// Close closes the Redis client.
func (l *Limiter) Close() error {
	return l.client.Close()
}
