package http

import (
	"net/http"

	"flowtune/internal/handler/http/respond"
)

// HealthHandler reports process health and build version.
type HealthHandler struct {
	Version string
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.Version,
	})
}

// LiveHandler answers liveness probes. It always succeeds while the
// process can serve requests at all.
type LiveHandler struct{}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "alive"})
}
