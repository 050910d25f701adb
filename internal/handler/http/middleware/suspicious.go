package middleware

import (
	"log/slog"
	"net/http"

	"flowtune/pkg/security/monitor"
)

// SuspicionHeader marks requests from identities that have triggered at
// least one security alert. Downstream handlers can use it for stricter
// validation or extra audit logging.
const SuspicionHeader = "X-Suspicious-Source"

// SuspicionTag returns middleware that annotates requests from
// suspicious source IPs. Suspicion is advisory only: the request always
// proceeds, it just carries the marker and gets logged.
func SuspicionTag(mon *monitor.Monitor, ips IPExtractor, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, err := ips.ExtractIP(r)
			if err == nil && mon.IsSuspicious(ip) {
				r.Header.Set(SuspicionHeader, "true")
				logger.Info("request from suspicious source",
					slog.String("ip", ip),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
			}
			next.ServeHTTP(w, r)
		})
	}
}
