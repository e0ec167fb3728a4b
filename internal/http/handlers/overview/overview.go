// Package overview serves the registry-wide statistics.
package overview

import (
	"net/http"

	"github.com/aanand-mishra/activity-registry/internal/service"
	"github.com/aanand-mishra/activity-registry/internal/utils/response"
)

// Get handles GET /api/stats
func Get(svc *service.Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteResult(w, http.StatusOK, svc.Overview())
	}
}
