package handler

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/thala/backend/internal/config"
	"github.com/thala/backend/internal/metrics"
	"github.com/thala/backend/internal/model"
	"github.com/thala/backend/internal/service"
	"golang.org/x/time/rate"
)

const authAccountKey = "auth_account"

// bearerToken returns the token from an "Authorization: Bearer" header.
// present reports whether any Authorization header was sent.
func bearerToken(c *gin.Context) (token string, present bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return "", false
	}
	scheme, value, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(value), true
}

func AuthMiddleware(authService *service.AuthService, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		token, _ := bearerToken(c)
		account, err := authService.Authenticate(c.Request.Context(), token)
		m.ObserveAuth("authenticate", authOutcome(err))
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}

		c.Set(authAccountKey, account)
		c.Next()
	}
}

// OptionalAuthMiddleware lets requests without an Authorization header through
// anonymously. A header that fails authentication is still rejected.
func OptionalAuthMiddleware(authService *service.AuthService, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present := bearerToken(c)
		if !present {
			c.Next()
			return
		}

		account, err := authService.Authenticate(c.Request.Context(), token)
		m.ObserveAuth("authenticate", authOutcome(err))
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}

		c.Set(authAccountKey, account)
		c.Next()
	}
}

// GetAccount returns the authenticated account, or nil for anonymous requests.
func GetAccount(c *gin.Context) *model.Account {
	if value, ok := c.Get(authAccountKey); ok {
		if account, ok := value.(*model.Account); ok {
			return account
		}
	}
	return nil
}

func CORSMiddleware(allowedOrigins []string, allowCredentials bool) gin.HandlerFunc {
	originMap := make(map[string]struct{}, len(allowedOrigins))
	allowAny := false
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			allowAny = true
			continue
		}
		originMap[trimmed] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			_, ok := originMap[origin]
			if ok || allowAny {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				if allowCredentials {
					c.Header("Access-Control-Allow-Credentials", "true")
				}
				c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
				c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RateLimiter keeps one token bucket per client key.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	maxKeys  int
	retry    string
	metrics  *metrics.Metrics
	now      func() time.Time
}

type clientLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig, m *metrics.Metrics) *RateLimiter {
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	retrySeconds := (60 + perMinute - 1) / perMinute
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		maxKeys:  10000,
		retry:    strconv.Itoa(retrySeconds),
		metrics:  m,
		now:      time.Now,
	}
}

// allow spends one token from key's bucket.
func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= l.maxKeys {
			l.evict(now)
		}
		entry = &clientLimiter{lim: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.lim.AllowN(now, 1)
}

// evict drops buckets that have refilled completely; a full bucket is
// indistinguishable from a new one. If none has, the least recently seen
// key goes. Callers hold l.mu.
func (l *RateLimiter) evict(now time.Time) {
	var oldestKey string
	var oldest time.Time
	for key, entry := range l.limiters {
		if entry.lim.TokensAt(now) >= float64(l.burst) {
			delete(l.limiters, key)
			continue
		}
		if oldestKey == "" || entry.lastSeen.Before(oldest) {
			oldestKey, oldest = key, entry.lastSeen
		}
	}
	if len(l.limiters) >= l.maxKeys && oldestKey != "" {
		delete(l.limiters, oldestKey)
	}
}

// Middleware keys on the authenticated account when one is set, else the
// client IP. Mount it after the route's auth middleware.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if account := GetAccount(c); account != nil {
			key = "account:" + account.ID.String()
		}

		if !l.allow(key) {
			if l.metrics != nil {
				l.metrics.RateLimit.WithLabelValues("rejected").Inc()
			}
			c.Header("Retry-After", l.retry)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, model.ErrorResponse{Error: "Rate limit exceeded"})
			return
		}
		if l.metrics != nil {
			l.metrics.RateLimit.WithLabelValues("allowed").Inc()
		}
		c.Next()
	}
}

func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
