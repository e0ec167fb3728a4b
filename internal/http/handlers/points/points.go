// Package points contains the HTTP handlers for the point catalog and
// point summaries.
package points

import (
	"errors"
	"log/slog"
	"net/http"

	pointsdomain "github.com/aanand-mishra/activity-registry/internal/points"
	"github.com/aanand-mishra/activity-registry/internal/service"
	"github.com/aanand-mishra/activity-registry/internal/types"
	"github.com/aanand-mishra/activity-registry/internal/utils/response"
)

// GetCatalog handles GET /api/points/catalog?eixo=research
func GetCatalog(svc *service.PointsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eixo := pointsdomain.Eixo(r.URL.Query().Get("eixo"))
		response.WriteResult(w, http.StatusOK, svc.Catalog(eixo))
	}
}

// SummaryRequest is the body of POST /api/points/summary.
type SummaryRequest struct {
	Registrations []types.RegistrationRequest `json:"registrations"`
}

// Summarize handles POST /api/points/summary
//
//	{ "registrations": [ { "entryId": "1.1", "units": 2, "year": 2024 } ] }
//
// The response holds the clamped points per eixo and the total.
func Summarize(svc *service.PointsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SummaryRequest
		if err := response.ReadJSON(r, &req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(types.CodeValidation, err))
			return
		}
		if req.Registrations == nil {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(types.CodeValidation, errors.New("registrations is required")))
			return
		}

		slog.Info("summarizing points", slog.Int("registrations", len(req.Registrations)))
		response.WriteResult(w, http.StatusOK, svc.Summarize(req.Registrations))
	}
}
