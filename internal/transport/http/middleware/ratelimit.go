package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"fitbusiness/internal/platform/logging"
	"fitbusiness/internal/transport/http/api"
	"fitbusiness/internal/transport/http/shared"
)

// ThrottleRecorder counts rejected requests per limiter scope.
type ThrottleRecorder interface {
	RecordThrottled(scope string)
}

const (
	scopeGeneral  = "general"
	scopeBulk     = "bulk"
	scopeInsights = "insights"

	// Buckets are swept once the table grows past this many keys.
	pruneAfter = 1024
)

type window struct {
	count int
	reset time.Time
}

type verdict struct {
	allowed   bool
	remaining int
	resetIn   int
}

// fixedWindow counts requests per key in fixed windows of length period.
type fixedWindow struct {
	scope  string
	limit  int
	period time.Duration

	mu      sync.Mutex
	windows map[string]*window
}

func newFixedWindow(scope string, limit int, period time.Duration) *fixedWindow {
	return &fixedWindow{scope: scope, limit: limit, period: period, windows: map[string]*window{}}
}

func (fw *fixedWindow) take(key string, now time.Time) verdict {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if len(fw.windows) > pruneAfter {
		for k, w := range fw.windows {
			if now.After(w.reset) {
				delete(fw.windows, k)
			}
		}
	}
	w, ok := fw.windows[key]
	if !ok || now.After(w.reset) {
		w = &window{reset: now.Add(fw.period)}
		fw.windows[key] = w
	}
	w.count++
	return verdict{
		allowed:   w.count <= fw.limit,
		remaining: max(fw.limit-w.count, 0),
		resetIn:   ceilSeconds(w.reset.Sub(now)),
	}
}

// enforce writes the X-RateLimit headers and, when the caller is over the
// limit, a 429 envelope. It reports whether the request may proceed.
func (fw *fixedWindow) enforce(w http.ResponseWriter, r *http.Request, rec ThrottleRecorder) bool {
	if fw.limit <= 0 {
		return true
	}
	key := actorOrIPKey(r)
	v := fw.take(key, time.Now())

	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(fw.limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(v.remaining))
	h.Set("X-RateLimit-Reset", strconv.Itoa(v.resetIn))
	if v.allowed {
		return true
	}

	h.Set("Retry-After", strconv.Itoa(max(v.resetIn, 1)))
	if rec != nil {
		rec.RecordThrottled(fw.scope)
	}
	logging.FromContext(r.Context()).Warn("rate limit exceeded",
		"scope", fw.scope,
		"key", key,
		"method", r.Method,
		"path", r.URL.Path,
		"limit", fw.limit,
	)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

// RateLimit allows limit requests per window to each user, or to each client
// IP for anonymous callers. A non-positive limit disables it.
func RateLimit(limit int, period time.Duration, rec ThrottleRecorder) func(http.Handler) http.Handler {
	general := newFixedWindow(scopeGeneral, limit, period)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if general.enforce(w, r, rec) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// SensitiveRateLimit adds tighter per-actor limits on top of RateLimit: half
// the base limit for imports, bulk deletes and company deletion, a sixth for
// insight generation, which calls an external model.
func SensitiveRateLimit(baseLimit int, period time.Duration, rec ThrottleRecorder) func(http.Handler) http.Handler {
	limiters := map[sensitiveScope]*fixedWindow{
		sensitiveScopeActor:    newFixedWindow(scopeBulk, max(baseLimit/2, 1), period),
		sensitiveScopeInsights: newFixedWindow(scopeInsights, max(baseLimit/6, 1), period),
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if fw, ok := limiters[sensitiveRateScope(r)]; ok && !fw.enforce(w, r, rec) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.CompanyID + ":" + user.UserID
	}
	return "ip:" + shared.ClientIP(r)
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

type sensitiveScope string

const (
	sensitiveScopeNone     sensitiveScope = ""
	sensitiveScopeActor    sensitiveScope = "actor"
	sensitiveScopeInsights sensitiveScope = "insights"
)

func sensitiveRateScope(r *http.Request) sensitiveScope {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	switch r.Method {
	case http.MethodGet:
		if strings.HasPrefix(path, "/insights/") {
			return sensitiveScopeInsights
		}
		return sensitiveScopeNone
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return sensitiveScopeNone
	}

	switch {
	case strings.HasPrefix(path, "/imports/"):
		return sensitiveScopeActor
	case strings.HasPrefix(path, "/companies/"):
		rest := strings.TrimPrefix(path, "/companies/")
		if strings.HasSuffix(rest, "/imports") || strings.HasSuffix(rest, "/employees/bulk-delete") {
			return sensitiveScopeActor
		}
		// DELETE /companies/{id} cascades over every employee.
		if r.Method == http.MethodDelete && !strings.Contains(strings.Trim(rest, "/"), "/") {
			return sensitiveScopeActor
		}
	}
	return sensitiveScopeNone
}
