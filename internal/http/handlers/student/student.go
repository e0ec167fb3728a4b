// Package student contains the HTTP handlers for the student resource.
//
// Handlers are built by factory functions that close over the service
// they need:
//
//	router.HandleFunc("POST /api/students", student.New(svc.Students))
//
// The factory runs once at startup; the returned func runs per request.
package student

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aanand-mishra/activity-registry/internal/export"
	"github.com/aanand-mishra/activity-registry/internal/search"
	"github.com/aanand-mishra/activity-registry/internal/service"
	"github.com/aanand-mishra/activity-registry/internal/types"
	"github.com/aanand-mishra/activity-registry/internal/utils/response"
)

const dateLayout = "2006-01-02"

func badRequest(w http.ResponseWriter, err error) {
	response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(types.CodeValidation, err))
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/students
//
//	{ "name": "Maria Oliveira", "email": "maria@example.com",
//	  "studentId": "STU2024001", "selectedActivities": ["act-robotics"] }
//
// 201 with the created student, 400 with every field error, 409 when the
// email is taken.
// ─────────────────────────────────────────────────────────────────────────────
func New(students *service.StudentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		var form types.StudentForm
		if err := response.ReadJSON(r, &form); err != nil {
			badRequest(w, err)
			return
		}

		res := students.Create(form)
		if res.Success {
			slog.Info("student created", slog.String("id", res.Data.ID))
		}
		response.WriteResult(w, http.StatusCreated, res)
	}
}

// Validate handles POST /api/students/validate. It runs the registration
// checks without saving anything.
func Validate(students *service.StudentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form types.StudentForm
		if err := response.ReadJSON(r, &form); err != nil {
			badRequest(w, err)
			return
		}
		response.WriteResult(w, http.StatusOK, students.ValidateForm(form))
	}
}

// GetByID handles GET /api/students/{id}
func GetByID(students *service.StudentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("getting a student", slog.String("id", id))

		response.WriteResult(w, http.StatusOK, students.Get(id))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /api/students
//
// Optional query parameters:
//
//	q           text search over name, email and id
//	fields      comma-separated subset of name,email,id
//	exact       "true" for whole-value matches
//	activity    keep students enrolled in this activity
//	activities  comma-separated ids; students must be in all of them
//	from, to    registration date range, YYYY-MM-DD, inclusive
//	sort, dir   name|email|id|registeredAt|activityCount, asc|desc
//
// ─────────────────────────────────────────────────────────────────────────────
func GetList(students *service.StudentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		q, err := parseQuery(r)
		if err != nil {
			badRequest(w, err)
			return
		}
		response.WriteResult(w, http.StatusOK, students.Find(q))
	}
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDate(name, v string, endOfDay bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, fmt.Errorf("%s must be a date in YYYY-MM-DD format", name)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func parseQuery(r *http.Request) (service.StudentQuery, error) {
	v := r.URL.Query()

	start, err := parseDate("from", v.Get("from"), false)
	if err != nil {
		return service.StudentQuery{}, err
	}
	end, err := parseDate("to", v.Get("to"), true)
	if err != nil {
		return service.StudentQuery{}, err
	}

	opts := search.StudentOptions{Options: search.Options{ExactMatch: v.Get("exact") == "true"}}
	for _, f := range splitList(v.Get("fields")) {
		opts.Fields = append(opts.Fields, search.StudentField(f))
	}

	return service.StudentQuery{
		Filters: search.StudentFilters{
			Query:       v.Get("q"),
			ActivityID:  v.Get("activity"),
			ActivityIDs: splitList(v.Get("activities")),
			Start:       start,
			End:         end,
			Options:     opts,
		},
		SortBy:    search.StudentSortKey(v.Get("sort")),
		Direction: search.Direction(v.Get("dir")),
	}, nil
}

// Search handles GET /api/students/search?q=...
// With index=true the cached token index answers instead of a scan.
func Search(students *service.StudentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if r.URL.Query().Get("index") == "true" {
			response.WriteResult(w, http.StatusOK, students.IndexedSearch(q))
			return
		}
		response.WriteResult(w, http.StatusOK, students.Search(q, search.StudentOptions{}))
	}
}

// Suggestions handles GET /api/students/suggestions?q=...&limit=5
func Suggestions(students *service.StudentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := intParam(r, "limit")
		if err != nil {
			badRequest(w, err)
			return
		}
		response.WriteResult(w, http.StatusOK, students.Suggestions(r.URL.Query().Get("q"), limit))
	}
}

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

// Availability is the body of GET /api/students/availability.
type Availability struct {
	ID    *bool `json:"id,omitempty"`
	Email *bool `json:"email,omitempty"`
}

// GetAvailability handles GET /api/students/availability?id=...&email=...
// exclude names the student being edited, whose own email stays available.
func GetAvailability(students *service.StudentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := r.URL.Query()
		if v.Get("id") == "" && v.Get("email") == "" {
			badRequest(w, errors.New("pass id or email"))
			return
		}

		var out Availability
		if id := v.Get("id"); id != "" {
			res := students.IsIDAvailable(id)
			if !res.Success {
				response.WriteResult(w, http.StatusOK, res)
				return
			}
			out.ID = &res.Data
		}
		if email := v.Get("email"); email != "" {
			res := students.IsEmailAvailable(email, v.Get("exclude"))
			if !res.Success {
				response.WriteResult(w, http.StatusOK, res)
				return
			}
			out.Email = &res.Data
		}
		response.WriteResult(w, http.StatusOK, types.OK(out))
	}
}

// Stats handles GET /api/students/stats
func Stats(students *service.StudentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteResult(w, http.StatusOK, students.Stats())
	}
}

// Update handles PUT /api/students/{id}. Only the fields present in the
// body change.
func Update(students *service.StudentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating a student", slog.String("id", id))

		var update types.StudentUpdate
		if err := response.ReadJSON(r, &update); err != nil {
			badRequest(w, err)
			return
		}

		res := students.Update(id, update)
		if res.Success {
			slog.Info("student updated", slog.String("id", id))
		}
		response.WriteResult(w, http.StatusOK, res)
	}
}

// Delete handles DELETE /api/students/{id}
func Delete(students *service.StudentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting a student", slog.String("id", id))

		response.WriteResult(w, http.StatusOK, students.Delete(id))
	}
}

// BulkDeleteRequest is the body of POST /api/students/bulk-delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BulkDelete handles POST /api/students/bulk-delete
func BulkDelete(students *service.StudentService) http.HandlerFunc {
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

		slog.Info("bulk deleting students", slog.Int("count", len(req.IDs)))
		response.WriteResult(w, http.StatusOK, students.BulkDelete(req.IDs))
	}
}

// Export handles GET /api/students/export?format=csv|xlsx. The workbook
// also carries an Activities sheet.
func Export(svc *service.Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format := r.URL.Query().Get("format")
		if format == "" {
			format = "csv"
		}
		if format != "csv" && format != "xlsx" {
			badRequest(w, fmt.Errorf("unsupported export format %q", format))
			return
		}

		students := svc.Students.List()
		if !students.Success {
			response.WriteResult(w, http.StatusOK, students)
			return
		}
		activities := svc.Activities.List()
		if !activities.Success {
			response.WriteResult(w, http.StatusOK, activities)
			return
		}

		var (
			buf         bytes.Buffer
			err         error
			contentType string
		)
		switch format {
		case "csv":
			contentType = "text/csv; charset=utf-8"
			err = export.WriteStudentsCSV(&buf, students.Data, activities.Data)
		case "xlsx":
			contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
			err = export.WriteXLSX(&buf, students.Data, activities.Data)
		}
		if err != nil {
			slog.Error("error exporting students", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(types.CodeInternal, errors.New("export failed")))
			return
		}

		filename := fmt.Sprintf("students-%s.%s", time.Now().Format(dateLayout), format)
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}
