package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"flowtune/internal/handler/http/respond"
	"flowtune/pkg/ratelimit"
	"flowtune/pkg/security/monitor"
)

// ScopeLimit returns middleware enforcing one rate limit scope.
//
// On admission it sets the X-RateLimit-* headers and passes the request
// on. On rejection it answers 429 with the scope's error code and message
// and records a rate_limit_exceeded event. When the limiter itself is
// degraded the scope's fail mode already decided the outcome: fail-open
// proceeds without headers, fail-closed answers 503.
func ScopeLimit(limiter *ratelimit.ScopedLimiter, mon *monitor.Monitor, logger *slog.Logger) func(http.Handler) http.Handler {
	policy := limiter.Policy()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := limiter.Check(r)
			if err != nil {
				logger.Warn("rate limit check degraded",
					slog.String("scope", policy.Name),
					slog.String("fail_mode", policy.FailMode.String()),
					slog.String("error", respond.SanitizeError(err)),
				)
				if decision.Allowed {
					next.ServeHTTP(w, r)
					return
				}
				respond.Fail(w, http.StatusServiceUnavailable,
					"RATE_LIMITER_UNAVAILABLE",
					"Service is temporarily unable to process this request.")
				return
			}

			setRateLimitHeaders(w, decision)

			if !decision.Allowed {
				if mon != nil {
					mon.Record(monitor.EventRateLimitExceeded,
						map[string]any{"scope": policy.Name},
						requestContext(r, decision.Key),
					)
				}
				respond.RateLimited(w, policy.ErrorCode, policy.Message, decision.RetryAfterSeconds())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Stack composes several scope limiters into one middleware. Every
// limiter must admit for the request to proceed; evaluation stops at the
// first rejection.
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		h := next
		for i := len(middlewares) - 1; i >= 0; i-- {
			h = middlewares[i](h)
		}
		return h
	}
}

// setRateLimitHeaders exposes the decision on the standard headers.
// Reset is epoch seconds.
func setRateLimitHeaders(w http.ResponseWriter, d *ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAtUnix(), 10))
}

// requestContext builds the monitor context for a request. The limiter
// key doubles as the source identity (client IP for IP-keyed scopes).
func requestContext(r *http.Request, sourceKey string) monitor.RequestContext {
	return monitor.RequestContext{
		IP:        sourceKey,
		UserAgent: r.Header.Get("User-Agent"),
		Path:      r.URL.Path,
		Method:    r.Method,
	}
}
