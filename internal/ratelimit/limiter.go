// Package ratelimit throttles host API calls per client IP.
package ratelimit

import (
	"fmt"
	"strconv"

	"codeberg.org/tutoria/server/internal/errors"
	"codeberg.org/tutoria/server/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// per-IP limiter middleware
type Limiter struct {
	config  *Config
	limiter *limiter.Limiter
}

// creates a limiter backed by redis when a client is given, memory otherwise
func New(config *Config, redisClient *redis.Client) (*Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(config.Rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", config.Rate, err)
	}

	var store limiter.Store

	if redisClient != nil {
		store, err = redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{
			Prefix: config.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          config.Prefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		})
	}

	return &Limiter{
		config:  config,
		limiter: limiter.New(store, rate),
	}, nil
}

// returns a Gin middleware that enforces the rate
func (l *Limiter) Middleware() gin.HandlerFunc {
	limit := mgin.NewMiddleware(l.limiter,
		mgin.WithLimitReachedHandler(l.handleRateLimited),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// fail open, a broken limiter store must not take the chat down
			logger.ErrorErr(err, "rate limiter store failed", "ip", c.ClientIP())
			c.Next()
		}),
	)

	return func(c *gin.Context) {
		if !l.config.Enabled || l.config.IsExemptPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		limit(c)
	}
}

func (l *Limiter) handleRateLimited(c *gin.Context) {
	logger.Warn("rate limit exceeded", "ip", c.ClientIP(), "path", c.Request.URL.Path)

	c.Header("Retry-After", strconv.FormatInt(int64(l.limiter.Rate.Period.Seconds()), 10))
	errors.TooManyRequests(c, "too many requests. please slow down.")
	c.Abort()
}
