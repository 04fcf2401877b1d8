package http

import (
	"net/http"
	"time"

	"github.com/samimwebdev/jsninja/pkg/httpx"
	"github.com/samimwebdev/jsninja/pkg/identity"
)

// LivezHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness probe. Always 200 while the process is serving.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	identity.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, identity.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe running the configured dependency checks (session store, backend).
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	identity.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	identity.HealthResponse	"one or more checks failed"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, checks map[string]ReadyCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := make(map[string]string, len(checks))
		overallStatus := "ok"
		statusCode := http.StatusOK

		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				results[name] = "error: " + err.Error()
				overallStatus = "degraded"
				statusCode = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		httpx.WriteJSON(w, statusCode, identity.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  results,
		})
	}
}
