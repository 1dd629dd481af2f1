package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/keychain-connect/backend/internal/http/dto"
	"github.com/redis/go-redis/v9"
)

// RateLimitMiddleware counts requests per path and client IP in fixed
// windows. A non-positive limit disables it. Redis failures let the
// request through.
func RateLimitMiddleware(rdb redis.Cmdable, limit int, window time.Duration) fiber.Handler {
	if limit <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return func(c *fiber.Ctx) error {
		key := fmt.Sprintf("rl:%s:%s", c.Path(), c.IP())

		ctx := context.Background()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			return c.Next() // fail open
		}

		if count == 1 {
			rdb.Expire(ctx, key, window)
		}

		if count > int64(limit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Error: "rate limit exceeded"})
		}

		return c.Next()
	}
}
