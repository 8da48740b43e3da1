package security

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	allowHeaders = "Authorization, Content-Type, Accept, Origin, Cache-Control, X-Requested-With"
	allowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	// 预检结果缓存秒数
	preflightMaxAge = "600"
)

// OriginPolicy 来源白名单，支持完整匹配、"*" 和以 "*" 结尾的前缀（如 chrome-extension://*）
type OriginPolicy struct {
	any      bool
	exact    map[string]struct{}
	prefixes []string
}

func NewOriginPolicy(patterns []string) OriginPolicy {
	p := OriginPolicy{exact: make(map[string]struct{}, len(patterns))}
	for _, raw := range patterns {
		pattern := strings.TrimRight(strings.TrimSpace(raw), "/")
		switch {
		case pattern == "":
		case pattern == "*":
			p.any = true
		case strings.HasSuffix(pattern, "*"):
			p.prefixes = append(p.prefixes, strings.TrimSuffix(pattern, "*"))
		default:
			p.exact[pattern] = struct{}{}
		}
	}
	return p
}

func (p OriginPolicy) Allows(origin string) bool {
	if origin == "" {
		return false
	}
	if p.any {
		return true
	}
	if _, ok := p.exact[origin]; ok {
		return true
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(origin, prefix) && len(origin) > len(prefix) {
			return true
		}
	}
	return false
}

// CORS 中间件 只对白名单来源回显 Origin；预检请求直接 204
func CORS(allowedOrigins []string) gin.HandlerFunc {
	policy := NewOriginPolicy(allowedOrigins)

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		origin := c.GetHeader("Origin")
		if policy.Allows(origin) {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Max-Age", preflightMaxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Secure 中间件 API 响应不缓存、不可被嵌入
func Secure() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// KeyFunc 决定请求计入哪个限流桶
type KeyFunc func(c *gin.Context) string

func ByClientIP(c *gin.Context) string {
	return c.ClientIP()
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter 按键的令牌桶集合，闲置的桶由后台协程定期回收
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	every   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
}

// NewLimiter 每个键在 window 内最多 maxRequests 次；任一参数 <= 0 时返回 nil（不限流）
func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	if maxRequests <= 0 || window <= 0 {
		return nil
	}
	idle := 3 * window
	if idle < time.Minute {
		idle = time.Minute
	}
	l := &Limiter{
		buckets: make(map[string]*bucket),
		every:   rate.Every(window / time.Duration(maxRequests)),
		burst:   maxRequests,
		idle:    idle,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go l.janitor(time.Minute)
	return l
}

// Allow 消耗 key 的一个令牌；被拒绝时返回需要等待的时间
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Sweep 删除闲置超过 idle 的桶，返回删除数量
func (l *Limiter) Sweep() int {
	if l == nil {
		return 0
	}
	cutoff := l.now().Add(-l.idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

func (l *Limiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Close 停止回收协程，可重复调用
func (l *Limiter) Close() {
	if l == nil {
		return
	}
	l.closeOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Sweep()
		case <-l.stop:
			return
		}
	}
}

// Middleware 超限时返回 429 和 Retry-After（秒，至少 1）
func (l *Limiter) Middleware(key KeyFunc) gin.HandlerFunc {
	if l == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ok, wait := l.Allow(key(c))
		if !ok {
			secs := int(wait.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "too many requests",
			})
			return
		}
		c.Next()
	}
}
