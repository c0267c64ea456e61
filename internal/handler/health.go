package handler

import (
	"net/http"

	"github.com/turfease/platform/internal/infra"
)

// HealthHandler pings every named dependency and reports 503 if any is down.
func HealthHandler(checks map[string]infra.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, p := range checks {
			if err := infra.HealthCheck(r.Context(), p); err != nil {
				deps[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		body := map[string]interface{}{"status": "healthy", "dependencies": deps}
		if status != http.StatusOK {
			body["status"] = "unhealthy"
		}
		RespondJSON(w, status, body)
	}
}
