// Package activity contains the HTTP handlers for the activity resource.
package activity

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aanand-mishra/activity-registry/internal/search"
	"github.com/aanand-mishra/activity-registry/internal/service"
	"github.com/aanand-mishra/activity-registry/internal/types"
	"github.com/aanand-mishra/activity-registry/internal/utils/response"
)

func badRequest(w http.ResponseWriter, err error) {
	response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(types.CodeValidation, err))
}

func limitParam(r *http.Request) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return n, nil
}

// New handles POST /api/activities
//
//	{ "name": "Robotics Club", "description": "Weekly robotics workshops." }
func New(activities *service.ActivityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating an activity")

		var form types.ActivityForm
		if err := response.ReadJSON(r, &form); err != nil {
			badRequest(w, err)
			return
		}
		response.WriteResult(w, http.StatusCreated, activities.Create(form))
	}
}

// Validate handles POST /api/activities/validate
func Validate(activities *service.ActivityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form types.ActivityForm
		if err := response.ReadJSON(r, &form); err != nil {
			badRequest(w, err)
			return
		}
		response.WriteResult(w, http.StatusOK, activities.ValidateForm(form))
	}
}

// GetList handles GET /api/activities?q=...&sort=studentCount&dir=desc
func GetList(activities *service.ActivityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all activities")

		v := r.URL.Query()
		response.WriteResult(w, http.StatusOK, activities.Find(service.ActivityQuery{
			Query:     v.Get("q"),
			Options:   search.ActivityOptions{Options: search.Options{ExactMatch: v.Get("exact") == "true"}},
			SortBy:    search.ActivitySortKey(v.Get("sort")),
			Direction: search.Direction(v.Get("dir")),
		}))
	}
}

// GetByID handles GET /api/activities/{id}
func GetByID(activities *service.ActivityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("getting an activity", slog.String("id", id))

		response.WriteResult(w, http.StatusOK, activities.Get(id))
	}
}

// GetStudents handles GET /api/activities/{id}/students
func GetStudents(activities *service.ActivityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteResult(w, http.StatusOK, activities.EnrolledStudents(r.PathValue("id")))
	}
}

// GetAvailability handles GET /api/activities/availability?name=...&exclude=...
func GetAvailability(activities *service.ActivityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			badRequest(w, errors.New("name is required"))
			return
		}
		response.WriteResult(w, http.StatusOK, activities.IsNameAvailable(name, r.URL.Query().Get("exclude")))
	}
}

// Update handles PUT /api/activities/{id}
func Update(activities *service.ActivityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating an activity", slog.String("id", id))

		var update types.ActivityUpdate
		if err := response.ReadJSON(r, &update); err != nil {
			badRequest(w, err)
			return
		}
		response.WriteResult(w, http.StatusOK, activities.Update(id, update))
	}
}

// Delete handles DELETE /api/activities/{id}. Activities with enrolled
// students answer 409 unless ?force=true, which also unenrolls them.
func Delete(activities *service.ActivityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		force := r.URL.Query().Get("force") == "true"
		slog.Info("deleting an activity", slog.String("id", id), slog.Bool("force", force))

		if force {
			response.WriteResult(w, http.StatusOK, activities.ForceDelete(id))
			return
		}
		response.WriteResult(w, http.StatusOK, activities.Delete(id))
	}
}

// BulkDeleteRequest is the body of POST /api/activities/bulk-delete.
type BulkDeleteRequest struct {
	IDs   []string `json:"ids"`
	Force bool     `json:"force"`
}

// BulkDelete handles POST /api/activities/bulk-delete
func BulkDelete(activities *service.ActivityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BulkDeleteRequest
		if err := response.ReadJSON(r, &req); err != nil {
			badRequest(w, err)
			return
		}
		if len(req.IDs) == 0 {
			badRequest(w, errors.New("ids must not be empty"))
			return
		}
		response.WriteResult(w, http.StatusOK, activities.BulkDelete(req.IDs, req.Force))
	}
}

// Stats handles GET /api/activities/stats
func Stats(activities *service.ActivityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteResult(w, http.StatusOK, activities.Stats())
	}
}

// Popular handles GET /api/activities/popular?limit=5
func Popular(activities *service.ActivityService) http.HandlerFunc {
	return ranked("popular", activities.Popular)
}

// Recent handles GET /api/activities/recent?limit=5
func Recent(activities *service.ActivityService) http.HandlerFunc {
	return ranked("recent", activities.Recent)
}

func ranked(name string, list func(int) types.Result[[]types.Activity]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := limitParam(r)
		if err != nil {
			badRequest(w, fmt.Errorf("%s: %w", name, err))
			return
		}
		response.WriteResult(w, http.StatusOK, list(limit))
	}
}
