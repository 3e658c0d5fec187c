package web

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// rateLimiter keeps one token bucket per client IP.
type rateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rate    rate.Limit
	burst   int
}

func newRateLimiter(r rate.Limit, burst int) *rateLimiter {
	return &rateLimiter{
		buckets: make(map[string]*rate.Limiter),
		rate:    r,
		burst:   burst,
	}
}

func (r *rateLimiter) get(ip string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.buckets[ip]
	if !ok {
		l = rate.NewLimiter(r.rate, r.burst)
		r.buckets[ip] = l
	}
	return l
}

// rateLimit rejects control requests over the client's budget.
func (s *Server) rateLimit(c *fiber.Ctx) error {
	if !s.limiter.get(c.IP()).Allow() {
		s.log.Warn("too many requests", "ip", c.IP(), "path", c.Path())
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "too many requests",
		})
	}
	return c.Next()
}
