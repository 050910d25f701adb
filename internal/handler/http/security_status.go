package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"flowtune/internal/handler/http/respond"
	"flowtune/internal/observability/logging"
	"flowtune/pkg/security/monitor"
)

// SecurityAdminHandler exposes the monitor's operator surface: a state
// snapshot plus the two mutating admin operations. All endpoints require
// the configured admin token; an empty token disables the whole surface.
type SecurityAdminHandler struct {
	monitor    *monitor.Monitor
	adminToken string
	logger     *slog.Logger
}

// NewSecurityAdminHandler creates the admin surface over the monitor.
func NewSecurityAdminHandler(mon *monitor.Monitor, adminToken string, logger *slog.Logger) *SecurityAdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SecurityAdminHandler{
		monitor:    mon,
		adminToken: adminToken,
		logger:     logger,
	}
}

// authorized checks the admin token. Constant-time comparison; a token
// mismatch is logged with the source IP but never with the token itself.
func (h *SecurityAdminHandler) authorized(w http.ResponseWriter, r *http.Request) bool {
	if h.adminToken == "" {
		respond.Fail(w, http.StatusNotFound, "NOT_FOUND", "Not found.")
		return false
	}
	token := r.Header.Get("X-Admin-Token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
		logging.WithRequestID(r.Context(), h.logger).Warn("security admin auth failed",
			slog.String("ip", r.RemoteAddr),
			slog.String("path", r.URL.Path),
		)
		respond.Fail(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid admin token.")
		return false
	}
	return true
}

// Status handles GET /internal/security/status.
func (h *SecurityAdminHandler) Status(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		respond.Fail(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use GET.")
		return
	}
	respond.OK(w, h.monitor.Snapshot())
}

// ClearSuspiciousIPs handles POST /internal/security/suspicious-ips/clear.
func (h *SecurityAdminHandler) ClearSuspiciousIPs(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		respond.Fail(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use POST.")
		return
	}
	cleared := h.monitor.ClearSuspiciousIPs()
	h.logger.Info("suspicious ip set cleared", slog.Int("cleared", cleared))
	respond.OK(w, map[string]int{"cleared": cleared})
}

// ResetAlertCounts handles POST /internal/security/alert-counts/reset.
func (h *SecurityAdminHandler) ResetAlertCounts(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		respond.Fail(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use POST.")
		return
	}
	reset := h.monitor.ResetAlertCounts()
	h.logger.Info("alert counters reset", slog.Int("reset", reset))
	respond.OK(w, map[string]int{"reset": reset})
}
