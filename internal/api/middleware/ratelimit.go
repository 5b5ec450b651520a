// 文件路径: internal/api/middleware/ratelimit.go
// 模块说明: 配置生成接口的限流中间件，计数存放在 go-cache 里，过期条目由缓存自动清理
package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/creamcroissant/boxbuild/internal/cache"
)

// RateLimiter 按 key 计数的固定窗口限流器
type RateLimiter struct {
	mu     sync.Mutex
	store  cache.Store
	limit  int
	window time.Duration
	now    func() time.Time
}

type rateLimitEntry struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter 创建新的限流器，窗口过期的计数随缓存条目一起失效。
func NewRateLimiter(store cache.Store, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		store:  store.Namespace("ratelimit"),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry := rateLimitEntry{count: 0, resetAt: now.Add(rl.window)}
	if cached, ok := rl.store.Get(ctx, key); ok {
		if current, ok := cached.(rateLimitEntry); ok && now.Before(current.resetAt) {
			entry = current
		}
	}
	if entry.count >= rl.limit {
		return false, 0, entry.resetAt
	}
	entry.count++
	_ = rl.store.Set(ctx, key, entry, entry.resetAt.Sub(now))
	return true, rl.limit - entry.count, entry.resetAt
}

// RateLimitConfig Rate Limit 配置
type RateLimitConfig struct {
	Limit  int           // 每个窗口的请求数
	Window time.Duration // 时间窗口
	Store  cache.Store
}

// RateLimit Rate Limiting 中间件，按客户端 IP 计数
func RateLimit(config RateLimitConfig) func(http.Handler) http.Handler {
	if config.Limit <= 0 {
		config.Limit = 60
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.Store == nil {
		config.Store = cache.NewStore(cache.Options{DefaultTTL: config.Window, CleanupInterval: config.Window})
	}
	limiter := NewRateLimiter(config.Store, config.Limit, config.Window)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, resetAt := limiter.Allow(r.Context(), clientIP(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(time.Until(resetAt).Seconds())+1))
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP 取 RemoteAddr 的主机部分；RealIP 中间件已处理代理头。
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
