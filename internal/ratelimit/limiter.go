package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/tollgate/internal/clock"
	"github.com/smallbiznis/tollgate/internal/config"
	"go.uber.org/zap"
)

// Class names a route family with its own quota.
type Class string

const (
	ClassAuth    Class = "auth"
	ClassAPI     Class = "api"
	ClassAI      Class = "ai"
	ClassWebhook Class = "webhook"
)

type rule struct {
	limit  int
	window time.Duration
}

var rules = map[Class]rule{
	ClassAuth:    {limit: 5, window: 15 * time.Minute},
	ClassAPI:     {limit: 10, window: 10 * time.Second},
	ClassAI:      {limit: 5, window: time.Minute},
	ClassWebhook: {limit: 100, window: time.Minute},
}

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// slidingWindowScript counts the current fixed window plus a weighted share
// of the previous one, a one-round-trip approximation of a true sliding
// window. KEYS[1] is the base key; ARGV: limit, window_ms, now_ms.
const slidingWindowScript = `
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local slot = math.floor(now / window)
local curr_key = KEYS[1] .. ":" .. slot
local prev_key = KEYS[1] .. ":" .. (slot - 1)

local curr = tonumber(redis.call("GET", curr_key) or "0")
local prev = tonumber(redis.call("GET", prev_key) or "0")

local elapsed = (now % window) / window
local weighted = prev * (1 - elapsed) + curr

if weighted + 1 > limit then
  return {0, math.floor(weighted)}
end

curr = redis.call("INCR", curr_key)
redis.call("PEXPIRE", curr_key, window * 2)
return {1, math.floor(prev * (1 - elapsed) + curr)}
`

// Limiter is a redis-backed sliding-window rate limiter shared across
// instances. A nil redis client disables enforcement: every call is allowed
// with a warning, so a missing redis never takes the API down.
type Limiter struct {
	client *redis.Client
	script *redis.Script
	clk    clock.Clock
	log    *zap.Logger
}

// NewRedisClient returns nil when no redis address is configured.
func NewRedisClient(cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RateLimitRedisAddr == "" {
		log.Warn("rate limiting disabled: no redis address configured")
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RateLimitRedisAddr,
		Password: cfg.RateLimitRedisPassword,
		DB:       cfg.RateLimitRedisDB,
	})
}

func NewLimiter(client *redis.Client, clk clock.Clock, log *zap.Logger) *Limiter {
	return &Limiter{
		client: client,
		script: redis.NewScript(slidingWindowScript),
		clk:    clk,
		log:    log.Named("ratelimit"),
	}
}

// Rule returns the quota for a class. Unknown classes fall back to the api
// class.
func Rule(class Class) (int, time.Duration) {
	r, ok := rules[class]
	if !ok {
		r = rules[ClassAPI]
	}
	return r.limit, r.window
}

func (l *Limiter) Allow(ctx context.Context, class Class, identity string) (*Result, error) {
	limit, window := Rule(class)
	now := l.clk.Now()
	reset := now.Truncate(window).Add(window)

	if l.client == nil {
		return &Result{Allowed: true, Limit: limit, Remaining: limit, Reset: reset}, nil
	}

	key := fmt.Sprintf("ratelimit:%s:%s", class, identity)
	res, err := l.script.Run(
		ctx,
		l.client,
		[]string{key},
		limit,
		window.Milliseconds(),
		now.UnixMilli(),
	).Slice()
	if err != nil {
		// Fail open: a degraded limiter must not degrade the API.
		l.log.Warn("rate limit check failed, allowing request",
			zap.String("class", string(class)),
			zap.Error(err),
		)
		return &Result{Allowed: true, Limit: limit, Remaining: limit, Reset: reset}, nil
	}

	if len(res) < 2 {
		return &Result{Allowed: true, Limit: limit, Remaining: limit, Reset: reset}, nil
	}

	allowed, _ := res[0].(int64)
	count, _ := res[1].(int64)

	remaining := limit - int(count)
	if allowed != 1 || remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   allowed == 1,
		Limit:     limit,
		Remaining: remaining,
		Reset:     reset,
	}, nil
}
