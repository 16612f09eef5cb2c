package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/lac-hong-legacy/guessword_api/shared"
	log "github.com/sirupsen/logrus"
)

type RateLimitConfig struct {
	EndpointType string
	MaxRequests  int
	WindowSize   time.Duration
}

var (
	// GameStartLimit stops a client from spamming new games.
	GameStartLimit = RateLimitConfig{
		EndpointType: "game_start",
		MaxRequests:  10,
		WindowSize:   time.Minute,
	}

	// OracleLimit bounds questions, each of which costs a model call.
	OracleLimit = RateLimitConfig{
		EndpointType: "oracle",
		MaxRequests:  30,
		WindowSize:   time.Minute,
	}

	// OperatorLoginLimit slows down password guessing.
	OperatorLoginLimit = RateLimitConfig{
		EndpointType: "operator_login",
		MaxRequests:  5,
		WindowSize:   15 * time.Minute,
	}
)

// RateLimit limits requests per client IP for one endpoint type.
func RateLimit(cfg RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.MaxRequests,
		Expiration: cfg.WindowSize,
		KeyGenerator: func(c *fiber.Ctx) string {
			return cfg.EndpointType + ":" + ClientIP(c)
		},
		LimitReached: func(c *fiber.Ctx) error {
			ip := ClientIP(c)
			log.WithFields(log.Fields{
				"ip":       ip,
				"endpoint": cfg.EndpointType,
			}).Warn("Rate limit exceeded")

			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(cfg.WindowSize.Seconds())))
			return shared.ResponseJSON(c, fiber.StatusTooManyRequests, "Too many requests. Please try again later.", nil)
		},
	})
}

// ClientIP prefers the proxy headers over the socket address.
func ClientIP(c *fiber.Ctx) string {
	if forwarded := c.Get(fiber.HeaderXForwardedFor); forwarded != "" {
		ips := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(ips[0]); ip != "" {
			return ip
		}
	}

	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	return c.IP()
}
