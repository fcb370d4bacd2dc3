package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/shopwise/internal/domain"
	"github.com/example/shopwise/internal/logging"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned by Check while an email is locked out.
var ErrLocked = domain.New(domain.ErrTooManyRequests, "Too many login attempts. Please try again later")

const keyPrefix = "shopwise:login:"

// Limits configures the throttle. Failures are counted per email within
// Window; reaching MaxAttempts locks the email for Lockout.
type Limits struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// LoginGuard throttles login attempts in Redis. A nil guard, or one built
// without a client, allows everything. Redis errors fail open.
type LoginGuard struct {
	client *redis.Client
	limits Limits
	logger *slog.Logger
}

func NewLoginGuard(client *redis.Client, limits Limits) *LoginGuard {
	return &LoginGuard{
		client: client,
		limits: limits,
		logger: logging.Component("login-guard"),
	}
}

func (g *LoginGuard) enabled() bool {
	return g != nil && g.client != nil && g.limits.MaxAttempts > 0
}

func failuresKey(email string) string { return keyPrefix + "fail:" + domain.NormalizeEmail(email) }
func lockKey(email string) string     { return keyPrefix + "lock:" + domain.NormalizeEmail(email) }

// Check returns ErrLocked while the email is locked out.
func (g *LoginGuard) Check(ctx context.Context, email string) error {
	if !g.enabled() {
		return nil
	}
	err := g.client.Get(ctx, lockKey(email)).Err()
	switch {
	case err == nil:
		return ErrLocked
	case errors.Is(err, redis.Nil):
		return nil
	default:
		g.logger.Warn("login lock lookup failed", "error", err)
		return nil
	}
}

// RecordFailure counts a failed attempt and locks the email once the count
// reaches MaxAttempts.
func (g *LoginGuard) RecordFailure(ctx context.Context, email string) {
	if !g.enabled() {
		return
	}
	key := failuresKey(email)

	pipe := g.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, g.limits.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		g.logger.Warn("failed to record login failure", "error", err)
		return
	}

	if incr.Val() < int64(g.limits.MaxAttempts) {
		return
	}
	if err := g.client.Set(ctx, lockKey(email), "1", g.limits.Lockout).Err(); err != nil {
		g.logger.Warn("failed to lock login", "error", err)
		return
	}
	g.client.Del(ctx, key)
	g.logger.Info("login locked", "attempts", incr.Val(), "lockout", g.limits.Lockout)
}

// Reset clears the failure count after a successful login.
func (g *LoginGuard) Reset(ctx context.Context, email string) {
	if !g.enabled() {
		return
	}
	if err := g.client.Del(ctx, failuresKey(email), lockKey(email)).Err(); err != nil {
		g.logger.Warn("failed to reset login attempts", "error", err)
	}
}
