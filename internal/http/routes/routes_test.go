package routes

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aanand-mishra/activity-registry/internal/points"
	"github.com/aanand-mishra/activity-registry/internal/service"
	"github.com/aanand-mishra/activity-registry/internal/storage/memory"
	"github.com/aanand-mishra/activity-registry/internal/storage/seed"
	"github.com/aanand-mishra/activity-registry/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := memory.New()
	data, err := seed.Load()
	require.NoError(t, err)
	require.NoError(t, seed.Apply(store, data))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(New(service.New(store, validation.New(), points.DefaultCatalog(), log)))
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, envelope) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, r)
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestStudentLifecycle(t *testing.T) {
	srv := newServer(t)

	status, env := do(t, srv, http.MethodPost, "/api/students", `{
		"name": "Lucas Ferreira",
		"email": "lucas@example.com",
		"studentId": "STU2024099",
		"selectedActivities": ["act-choir"]
	}`)
	require.Equal(t, http.StatusCreated, status, env.Error)
	assert.True(t, env.Success)

	status, env = do(t, srv, http.MethodGet, "/api/students/STU2024099", "")
	require.Equal(t, http.StatusOK, status)
	var got struct {
		Name       string   `json:"name"`
		Activities []string `json:"activities"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Lucas Ferreira", got.Name)

	status, _ = do(t, srv, http.MethodPut, "/api/students/STU2024099", `{"selectedActivities":["act-council","act-choir"]}`)
	require.Equal(t, http.StatusOK, status)

	status, _ = do(t, srv, http.MethodDelete, "/api/students/STU2024099", "")
	assert.Equal(t, http.StatusOK, status)

	status, env = do(t, srv, http.MethodGet, "/api/students/STU2024099", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", env.Code)
}

func TestCreateStudent_ValidationErrors(t *testing.T) {
	srv := newServer(t)

	status, env := do(t, srv, http.MethodPost, "/api/students", `{"name":"","email":"email-invalido","studentId":""}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation", env.Code)
	assert.Len(t, env.Errors, 4)

	status, env = do(t, srv, http.MethodPost, "/api/students", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "request body is empty", env.Error)
}

func TestListStudents_FiltersAndSorts(t *testing.T) {
	srv := newServer(t)

	status, env := do(t, srv, http.MethodGet, "/api/students?activity=act-robotics&sort=name&dir=desc", "")
	require.Equal(t, http.StatusOK, status)

	var found struct {
		Students []struct {
			ID string `json:"id"`
		} `json:"students"`
		Stats struct {
			Total  int `json:"total"`
			Hidden int `json:"hidden"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &found))
	require.Len(t, found.Students, 3)
	assert.Equal(t, "STU2024001", found.Students[0].ID)
	assert.Equal(t, 2, found.Stats.Hidden)

	status, env = do(t, srv, http.MethodGet, "/api/students?from=2024-03-15&to=2024-04-02", "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &found))
	assert.Len(t, found.Students, 2)

	status, _ = do(t, srv, http.MethodGet, "/api/students?from=15/03/2024", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestStudentQueries(t *testing.T) {
	srv := newServer(t)

	_, env := do(t, srv, http.MethodGet, "/api/students/search?q=costa&index=true", "")
	assert.Contains(t, string(env.Data), "STU2024003")

	_, env = do(t, srv, http.MethodGet, "/api/students/availability?id=STU2024001&email=new@example.com", "")
	assert.JSONEq(t, `{"id":false,"email":true}`, string(env.Data))

	status, _ := do(t, srv, http.MethodGet, "/api/students/availability", "")
	assert.Equal(t, http.StatusBadRequest, status)

	_, env = do(t, srv, http.MethodGet, "/api/students/stats", "")
	assert.Contains(t, string(env.Data), `"total":5`)

	_, env = do(t, srv, http.MethodGet, "/api/students/suggestions?q=example&limit=2", "")
	var suggestions []string
	require.NoError(t, json.Unmarshal(env.Data, &suggestions))
	assert.Len(t, suggestions, 2)

	_, env = do(t, srv, http.MethodPost, "/api/students/validate", `{"name":"Ana","email":"ana@gmial.com","studentId":"NEWID123","selectedActivities":["act-choir"]}`)
	assert.Contains(t, string(env.Data), `"isValid":true`)
	assert.Contains(t, string(env.Data), "gmail.com")

	_, env = do(t, srv, http.MethodPost, "/api/students/bulk-delete", `{"ids":["STU2024004","STU2024005"]}`)
	assert.Contains(t, string(env.Data), `"done":["STU2024004","STU2024005"]`)
}

func TestExport(t *testing.T) {
	srv := newServer(t)

	resp, err := srv.Client().Get(srv.URL + "/api/students/export")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".csv")
	records, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 6)
	assert.Equal(t, "Robotics Club, Peer Tutoring", records[1][3])

	resp, err = srv.Client().Get(srv.URL + "/api/students/export?format=xlsx")
	require.NoError(t, err)
	defer resp.Body.Close()

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Activities")
	require.NoError(t, err)
	assert.Len(t, rows, 6)

	status, _ := do(t, srv, http.MethodGet, "/api/students/export?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestActivityRoutes(t *testing.T) {
	srv := newServer(t)

	status, env := do(t, srv, http.MethodPost, "/api/activities", `{"name":"Chess Club","description":"Weekly chess games and tournaments."}`)
	require.Equal(t, http.StatusCreated, status, env.Error)

	status, env = do(t, srv, http.MethodPost, "/api/activities", `{"name":"chess club","description":"Weekly chess games and tournaments."}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "name", env.Errors[0].Field)

	status, env = do(t, srv, http.MethodDelete, "/api/activities/act-robotics", "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", env.Code)

	status, _ = do(t, srv, http.MethodDelete, "/api/activities/act-robotics?force=true", "")
	assert.Equal(t, http.StatusOK, status)

	_, env = do(t, srv, http.MethodGet, "/api/students/STU2024001", "")
	assert.NotContains(t, string(env.Data), "act-robotics")

	_, env = do(t, srv, http.MethodGet, "/api/activities/act-choir/students", "")
	assert.Contains(t, string(env.Data), "STU2024002")

	_, env = do(t, srv, http.MethodGet, "/api/activities/popular?limit=1", "")
	assert.Contains(t, string(env.Data), "act-")

	status, _ = do(t, srv, http.MethodGet, "/api/activities/recent?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, status)

	_, env = do(t, srv, http.MethodGet, "/api/activities/availability?name=UNIVERSITY%20CHOIR", "")
	assert.Equal(t, "false", string(env.Data))

	_, env = do(t, srv, http.MethodGet, "/api/activities?q=choir", "")
	assert.Contains(t, string(env.Data), "act-choir")

	_, env = do(t, srv, http.MethodGet, "/api/activities/stats", "")
	assert.Contains(t, string(env.Data), `"total":5`)
}

func TestPointsRoutes(t *testing.T) {
	srv := newServer(t)

	_, env := do(t, srv, http.MethodGet, "/api/points/catalog?eixo=teaching", "")
	var entries []points.CatalogEntry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	assert.Len(t, entries, 3)

	body := `{"registrations":[
		{"entryId":"1.1","units":1,"year":` + strconv.Itoa(time.Now().Year()) + `},
		{"entryId":"1.2","units":2,"year":` + strconv.Itoa(time.Now().Year()) + `}
	]}`
	status, env := do(t, srv, http.MethodPost, "/api/points/summary", body)
	require.Equal(t, http.StatusOK, status, env.Errors)

	var summary points.Summary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 10, summary.PointsByEixo[points.Teaching])
	assert.Equal(t, 13, summary.RawByEixo[points.Teaching])
	assert.Equal(t, 10, summary.Total)

	status, _ = do(t, srv, http.MethodPost, "/api/points/summary", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestOverviewRoute(t *testing.T) {
	srv := newServer(t)

	status, env := do(t, srv, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"totalStudents":5`)
	assert.Contains(t, string(env.Data), "act-robotics")
}
