package api

import "net/http"

// HealthChecker reports whether the server accepts new work.
type HealthChecker interface {
	Healthy() bool
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthzHandler serves GET /healthz. A nil checker is always healthy.
func HealthzHandler(health HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health != nil && !health.Healthy() {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "draining"})
			return
		}
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
