package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"flowtune/internal/handler/http/respond"
	"flowtune/pkg/security/monitor"
	"flowtune/pkg/security/screener"
)

// ScreenerConfig wires the input screening middleware.
type ScreenerConfig struct {
	Monitor *monitor.Monitor
	IPs     IPExtractor
	Logger  *slog.Logger

	// MaxBodyBytes bounds how much of a JSON body is buffered for
	// screening. Zero means 1 MiB.
	MaxBodyBytes int64
}

// InputScreening returns middleware that screens query parameters and
// JSON bodies for injection signatures before any handler sees them.
//
// A positive match answers 400 and records a suspicious_activity event.
// Clean JSON bodies are sanitized (script tags, javascript URIs, inline
// handlers stripped) and reinjected so handlers only ever see the
// sanitized form. Non-JSON bodies pass through untouched; upload
// screening has its own policy check.
func InputScreening(config ScreenerConfig) func(http.Handler) http.Handler {
	maxBody := config.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for key, values := range r.URL.Query() {
				if screener.LooksLikeInjection(key) {
					rejectSuspicious(w, r, config, logger, "query parameter name")
					return
				}
				for _, v := range values {
					if screener.LooksLikeInjection(v) {
						rejectSuspicious(w, r, config, logger, "query parameter value")
						return
					}
				}
			}

			if !hasJSONBody(r) {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
			if err != nil {
				respond.Fail(w, http.StatusBadRequest, "VALIDATION_ERROR", "Request body could not be read.")
				return
			}
			_ = r.Body.Close()

			if len(bytes.TrimSpace(body)) == 0 {
				r.Body = io.NopCloser(bytes.NewReader(body))
				next.ServeHTTP(w, r)
				return
			}

			var payload any
			if err := json.Unmarshal(body, &payload); err != nil {
				respond.Fail(w, http.StatusBadRequest, "VALIDATION_ERROR", "Request body is not valid JSON.")
				return
			}

			if _, found := screener.ScanValues(payload); found {
				rejectSuspicious(w, r, config, logger, "request body")
				return
			}

			sanitized, err := json.Marshal(screener.Sanitize(payload))
			if err != nil {
				respond.InternalError(w, err)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(sanitized))
			r.ContentLength = int64(len(sanitized))

			next.ServeHTTP(w, r)
		})
	}
}

func hasJSONBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	ct := r.Header.Get("Content-Type")
	return ct == "application/json" || len(ct) > 16 && ct[:16] == "application/json"
}

func rejectSuspicious(w http.ResponseWriter, r *http.Request, config ScreenerConfig, logger *slog.Logger, where string) {
	ip := ""
	if config.IPs != nil {
		if extracted, err := config.IPs.ExtractIP(r); err == nil {
			ip = extracted
		}
	}
	logger.Warn("injection signature detected",
		slog.String("ip", ip),
		slog.String("path", r.URL.Path),
		slog.String("location", where),
	)
	if config.Monitor != nil {
		config.Monitor.Record(monitor.EventSuspiciousActivity,
			map[string]any{"location": where},
			monitor.RequestContext{
				IP:        ip,
				UserAgent: r.Header.Get("User-Agent"),
				Path:      r.URL.Path,
				Method:    r.Method,
			},
		)
	}
	respond.Fail(w, http.StatusBadRequest, "INVALID_INPUT", "Request contains disallowed content.")
}
