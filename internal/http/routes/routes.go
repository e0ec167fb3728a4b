// Package routes builds the HTTP route table.
package routes

import (
	"net/http"

	"github.com/aanand-mishra/activity-registry/internal/http/handlers/activity"
	"github.com/aanand-mishra/activity-registry/internal/http/handlers/overview"
	"github.com/aanand-mishra/activity-registry/internal/http/handlers/points"
	"github.com/aanand-mishra/activity-registry/internal/http/handlers/student"
	"github.com/aanand-mishra/activity-registry/internal/service"
)

// New registers every route on a fresh ServeMux.
//
// Fixed segments such as /api/students/stats take precedence over the
// {id} wildcard, so they can share a prefix.
func New(svc *service.Services) *http.ServeMux {
	router := http.NewServeMux()

	router.HandleFunc("POST /api/students", student.New(svc.Students))
	router.HandleFunc("GET /api/students", student.GetList(svc.Students))
	router.HandleFunc("POST /api/students/validate", student.Validate(svc.Students))
	router.HandleFunc("GET /api/students/availability", student.GetAvailability(svc.Students))
	router.HandleFunc("GET /api/students/search", student.Search(svc.Students))
	router.HandleFunc("GET /api/students/suggestions", student.Suggestions(svc.Students))
	router.HandleFunc("GET /api/students/stats", student.Stats(svc.Students))
	router.HandleFunc("GET /api/students/export", student.Export(svc))
	router.HandleFunc("POST /api/students/bulk-delete", student.BulkDelete(svc.Students))
	router.HandleFunc("GET /api/students/{id}", student.GetByID(svc.Students))
	router.HandleFunc("PUT /api/students/{id}", student.Update(svc.Students))
	router.HandleFunc("DELETE /api/students/{id}", student.Delete(svc.Students))

	router.HandleFunc("POST /api/activities", activity.New(svc.Activities))
	router.HandleFunc("GET /api/activities", activity.GetList(svc.Activities))
	router.HandleFunc("POST /api/activities/validate", activity.Validate(svc.Activities))
	router.HandleFunc("GET /api/activities/availability", activity.GetAvailability(svc.Activities))
	router.HandleFunc("GET /api/activities/stats", activity.Stats(svc.Activities))
	router.HandleFunc("GET /api/activities/popular", activity.Popular(svc.Activities))
	router.HandleFunc("GET /api/activities/recent", activity.Recent(svc.Activities))
	router.HandleFunc("POST /api/activities/bulk-delete", activity.BulkDelete(svc.Activities))
	router.HandleFunc("GET /api/activities/{id}", activity.GetByID(svc.Activities))
	router.HandleFunc("GET /api/activities/{id}/students", activity.GetStudents(svc.Activities))
	router.HandleFunc("PUT /api/activities/{id}", activity.Update(svc.Activities))
	router.HandleFunc("DELETE /api/activities/{id}", activity.Delete(svc.Activities))

	router.HandleFunc("GET /api/points/catalog", points.GetCatalog(svc.Points))
	router.HandleFunc("POST /api/points/summary", points.Summarize(svc.Points))

	router.HandleFunc("GET /api/stats", overview.Get(svc))

	return router
}
