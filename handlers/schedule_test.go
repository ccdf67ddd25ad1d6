package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/phonginreallife/sentinel/internal/scheduler"
	"github.com/phonginreallife/sentinel/services"
)

type upstreamCall struct {
	method, path, query, body, cookie, secret string
}

func newScheduleRouter(t *testing.T, baseURL string) *gin.Engine {
	t.Helper()
	client := scheduler.NewClient(scheduler.Config{BaseURL: baseURL}, nil)
	h := NewScheduleHandler(services.NewScheduleService(client), nil)

	r := gin.New()
	g := r.Group("/schedule")
	g.GET("", h.ListSchedules)
	g.POST("", h.CreateSchedule)
	g.DELETE("", h.DeleteSchedules)
	g.GET("/json-schema", h.GetJSONSchema)
	g.POST("/next-run-times", h.NextRunTimes)
	g.GET("/:id", h.GetSchedule)
	g.PUT("/:id", h.UpdateSchedule)
	g.DELETE("/:id", h.DeleteSchedule)
	return r
}

func TestScheduleHandler_Relays(t *testing.T) {
	var (
		mu   sync.Mutex
		last upstreamCall
	)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		mu.Lock()
		defer mu.Unlock()
		last = upstreamCall{
			method: req.Method,
			path:   req.URL.Path,
			query:  req.URL.RawQuery,
			body:   string(body),
			cookie: req.Header.Get("Cookie"),
			secret: req.Header.Get("X-Internal-Secret"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"s-1"}`)
	}))
	defer upstream.Close()
	r := newScheduleRouter(t, upstream.URL)

	tests := []struct {
		name      string
		method    string
		path      string
		body      string
		wantPath  string
		wantQuery string
	}{
		{name: "list", method: http.MethodGet, path: "/schedule?dataset_id=ds", wantPath: "/api/v1/schedules", wantQuery: "dataset_id=ds"},
		{name: "create", method: http.MethodPost, path: "/schedule?dataset_id=ds", body: `{"cron":"* * * * *"}`, wantPath: "/api/v1/schedules", wantQuery: "dataset_id=ds"},
		{name: "get", method: http.MethodGet, path: "/schedule/s-1", wantPath: "/api/v1/schedules/s-1"},
		{name: "update", method: http.MethodPut, path: "/schedule/s-1", body: `{"cron":"0 * * * *"}`, wantPath: "/api/v1/schedules/s-1"},
		{name: "delete one", method: http.MethodDelete, path: "/schedule/s-1", wantPath: "/api/v1/schedules/s-1"},
		{name: "delete by datasource", method: http.MethodDelete, path: "/schedule?datasource_id=src", wantPath: "/api/v1/schedules", wantQuery: "datasource_id=src"},
		{name: "next run times", method: http.MethodPost, path: "/schedule/next-run-times", body: `{"cron":"0 * * * *"}`, wantPath: "/api/v1/schedules/next-run-times"},
		{name: "json schema", method: http.MethodGet, path: "/schedule/json-schema", wantPath: "/api/v1/schedules/json-schema"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			req.Header.Set("Cookie", "session=abc")
			req.Header.Set("X-Internal-Secret", "leak")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
			assert.Equal(t, "s-1", gjson.Get(w.Body.String(), "id").String())

			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, tt.method, last.method)
			assert.Equal(t, tt.wantPath, last.path)
			assert.Equal(t, tt.wantQuery, last.query)
			assert.Equal(t, tt.body, last.body)
			assert.Equal(t, "session=abc", last.cookie)
			assert.Empty(t, last.secret)
		})
	}
}

func TestScheduleHandler_Rejects(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		t.Errorf("unexpected upstream call %s %s", req.Method, req.URL)
	}))
	defer upstream.Close()
	r := newScheduleRouter(t, upstream.URL)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		detail string
	}{
		{name: "both filters", method: http.MethodGet, path: "/schedule?dataset_id=a&datasource_id=b", detail: "expected either 'dataset_id' or 'datasource_id'"},
		{name: "delete without filter", method: http.MethodDelete, path: "/schedule", detail: "expected either 'dataset_id' or 'datasource_id'"},
		{name: "create without dataset", method: http.MethodPost, path: "/schedule", body: `{}`, detail: "'dataset_id' is required"},
		{name: "invalid body", method: http.MethodPut, path: "/schedule/s-1", body: `{nope`, detail: "request body must be valid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.detail, gjson.Get(w.Body.String(), "detail").String())
		})
	}
}

func TestScheduleHandler_UpstreamErrorsPassThrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail":"Schedule not found"}`)
	}))
	defer upstream.Close()
	r := newScheduleRouter(t, upstream.URL)

	w := serve(t, r, http.MethodGet, "/schedule/s-9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Schedule not found", gjson.Get(w.Body.String(), "detail").String())
}

func TestScheduleHandler_UpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	baseURL := upstream.URL
	upstream.Close()
	r := newScheduleRouter(t, baseURL)

	w := serve(t, r, http.MethodGet, "/schedule/s-1", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Scheduler service is unavailable", gjson.Get(w.Body.String(), "detail").String())
}
