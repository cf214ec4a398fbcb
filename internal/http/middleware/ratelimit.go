package middleware

import (
	"net/http"
	"strconv"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig config for Redis-based RPS limiter.
type RateLimitConfig struct {
	Redis          *redis.Client
	DefaultRPS     int           // fallback if user_rps not set
	Burst          int           // extra headroom on top of the RPS cap
	KeyPrefix      string        // e.g. "rl:user:"
	Window         time.Duration // usually 1s
	RetryAfterHint bool          // set Retry-After header when limited
}

// windowLimit is how many requests one window admits: the user's own RPS
// (or the default when unset) plus the burst headroom. Zero means no base
// rate is configured and the limiter stands down.
func windowLimit(userRPS, defaultRPS, burst int) int {
	rps := userRPS
	if rps <= 0 {
		rps = defaultRPS
	}
	if rps <= 0 {
		return 0
	}
	if burst > 0 {
		rps += burst
	}
	return rps
}

// RateLimitMiddleware applies a simple fixed-window per-user RPS limit.
// It expects user_id in echo.Context (set by APIKeyMiddleware).
func RateLimitMiddleware(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rl:user:"
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v := c.Get("user_id")
			userID, ok := v.(int64)
			if !ok || userID <= 0 {
				return next(c)
			}

			userRPS := 0
			if vv := c.Get("user_rps"); vv != nil {
				if m, ok := vv.(int); ok && m > 0 {
					userRPS = m
				}
			}
			max := windowLimit(userRPS, cfg.DefaultRPS, cfg.Burst)
			if max <= 0 || cfg.Redis == nil {
				// no limit configured or redis missing (dev): allow
				return next(c)
			}

			// fixed-window key: rl:user:{id}:{unix_sec}
			now := time.Now()
			key := cfg.KeyPrefix + strconv.FormatInt(userID, 10) + ":" + strconv.FormatInt(now.Unix(), 10)

			// INCR and set expiry 2*window (safety)
			pipe := cfg.Redis.Pipeline()
			cnt := pipe.Incr(c.Request().Context(), key)
			pipe.Expire(c.Request().Context(), key, cfg.Window*2)
			_, err := pipe.Exec(c.Request().Context())
			if err != nil {
				return next(c)
			}

			if cnt.Val() > int64(max) {
				if cfg.RetryAfterHint {
					// seconds until next window
					remain := cfg.Window - time.Duration(now.UnixNano()%int64(cfg.Window))
					if remain > 0 {
						c.Response().Header().Set("Retry-After", strconv.Itoa(int(remain.Round(time.Second)/time.Second)))
					}
				}
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
			}
			return next(c)
		}
	}
}
