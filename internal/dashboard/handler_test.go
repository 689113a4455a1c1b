package dashboard_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"jobmate/dashboard-service/internal/dashboard"
	"jobmate/dashboard-service/internal/gateway"
	"jobmate/dashboard-service/internal/model"
	"jobmate/dashboard-service/internal/query"
	"jobmate/dashboard-service/internal/snapshot"
	"jobmate/dashboard-service/internal/theme"
)

type fakeAPI struct {
	mu      sync.Mutex
	list    func(query.Params) (*model.JobsPage, error)
	job     func(int64) (*model.Job, error)
	summary func(query.SummaryQuery) (*model.SummaryResponse, error)
	listed  []query.Params
}

func (f *fakeAPI) ListJobs(_ context.Context, p query.Params) (*model.JobsPage, error) {
	f.mu.Lock()
	f.listed = append(f.listed, p)
	fn := f.list
	f.mu.Unlock()
	return fn(p)
}

func (f *fakeAPI) GetJob(_ context.Context, id int64) (*model.Job, error) {
	return f.job(id)
}

func (f *fakeAPI) GetSummary(_ context.Context, q query.SummaryQuery) (*model.SummaryResponse, error) {
	return f.summary(q)
}

var errOffline = &gateway.RequestError{Op: "test", Err: errors.New("connection refused")}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func sampleJob(id int64) model.Job {
	return model.Job{
		ID:           id,
		Title:        "Backend Engineer",
		Company:      "Acme",
		Location:     strPtr("Berlin"),
		WorkModality: "Remote",
		SalaryMin:    floatPtr(80000),
		Description:  strPtr("<p>Build <b>APIs</b></p><script>alert(1)</script>"),
		URL:          "https://jobs.example.com/1",
		Tags:         []string{"go", "sql", "redis", "k8s", "grpc"},
		CreatedAt:    "2024-01-21T10:00:00Z",
	}
}

func newServer(t *testing.T, api *fakeAPI, snaps dashboard.SnapshotReader) (*gin.Engine, *theme.Provider) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	themes := theme.NewProvider(theme.NewMemoryStore())
	h := dashboard.NewHandler(api, snaps, themes, dashboard.Options{
		Version:  "test",
		Debounce: 50 * time.Millisecond,
		Location: time.UTC,
	})
	return dashboard.NewRouter(h), themes
}

func doJSON(t *testing.T, r http.Handler, method, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w
}

func TestHealth(t *testing.T) {
	r, _ := newServer(t, &fakeAPI{}, nil)
	var body map[string]string
	w := doJSON(t, r, http.MethodGet, "/health", &body)
	if w.Code != http.StatusOK || body["status"] != "ok" || body["service"] != "dashboard-service" || body["version"] != "test" {
		t.Errorf("health = %d %v", w.Code, body)
	}
}

func TestUnknownRouteRedirectsHome(t *testing.T) {
	r, _ := newServer(t, &fakeAPI{}, nil)
	for _, path := range []string{"/nope", "/jobs/1/extra/deep", "/theme/toggle"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
			t.Errorf("GET %s = %d %q, want 302 /", path, w.Code, w.Header().Get("Location"))
		}
	}
}

func TestSummary_Live(t *testing.T) {
	api := &fakeAPI{summary: func(q query.SummaryQuery) (*model.SummaryResponse, error) {
		if q.Days != 7 {
			t.Errorf("days = %d, want 7", q.Days)
		}
		return &model.SummaryResponse{
			Summary: model.DailySummary{TotalJobs: 3, PeriodDays: 7},
			Jobs: []model.Job{
				{Company: "A", Tags: []string{"React"}, CreatedAt: "2024-01-21"},
				{Company: "B", Tags: []string{" react "}, CreatedAt: "2024-01-21"},
				{Company: "A", Tags: []string{"R"}, CreatedAt: "2024-01-22"},
			},
		}, nil
	}}
	r, _ := newServer(t, api, nil)

	var view dashboard.SummaryView
	w := doJSON(t, r, http.MethodGet, "/", &view)
	if w.Code != http.StatusOK || view.Source != "live" || view.Error != nil {
		t.Fatalf("GET / = %d %+v", w.Code, view)
	}
	s := view.Summary
	if s.TotalJobs != 3 || s.Companies.Entries[0].Key != "A" || s.Companies.Entries[0].Count != 2 {
		t.Errorf("companies = %+v", s.Companies)
	}
	if len(s.Skills.Entries) != 1 || s.Skills.Entries[0].Key != "react" || s.Skills.Entries[0].Count != 2 {
		t.Errorf("skills = %+v", s.Skills)
	}
	if len(s.Trend.Points) != 2 || s.Trend.Points[0].Label != "Jan 21" {
		t.Errorf("trend = %+v", s.Trend)
	}
}

func TestSummary_FallsBackToSnapshot(t *testing.T) {
	store := snapshot.NewMemoryStore()
	taken := time.Date(2024, 1, 20, 6, 0, 0, 0, time.UTC)
	store.Save(context.Background(), &snapshot.Snapshot{Days: 7, TakenAt: taken})
	api := &fakeAPI{summary: func(query.SummaryQuery) (*model.SummaryResponse, error) { return nil, errOffline }}
	r, _ := newServer(t, api, store)

	var view dashboard.SummaryView
	w := doJSON(t, r, http.MethodGet, "/", &view)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with stale data", w.Code)
	}
	if view.Source != "snapshot" || view.SnapshotAt == nil || !view.SnapshotAt.Equal(taken) {
		t.Errorf("view = %+v", view)
	}
	if view.Error == nil || !view.Error.Retryable {
		t.Errorf("error = %+v, want retryable banner", view.Error)
	}
}

func TestSummary_FailureWithoutSnapshot(t *testing.T) {
	api := &fakeAPI{summary: func(query.SummaryQuery) (*model.SummaryResponse, error) { return nil, errOffline }}
	r, _ := newServer(t, api, snapshot.NewMemoryStore())

	var view dashboard.SummaryView
	w := doJSON(t, r, http.MethodGet, "/", &view)
	if w.Code != http.StatusBadGateway || view.Summary != nil || view.Error == nil {
		t.Errorf("GET / = %d %+v", w.Code, view)
	}
}

func TestJobs_Listing(t *testing.T) {
	api := &fakeAPI{list: func(p query.Params) (*model.JobsPage, error) {
		return &model.JobsPage{Jobs: []model.Job{sampleJob(1)}, Total: 30, Page: p.Page, PageSize: p.PageSize}, nil
	}}
	r, _ := newServer(t, api, nil)

	var view dashboard.ListingView
	w := doJSON(t, r, http.MethodGet, "/jobs?search=go&remote=true&page=2", &view)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := api.listed[0]
	if got.Search != "go" || !got.RemoteOnly || got.Page != 2 || got.PageSize != query.DefaultPageSize {
		t.Errorf("forwarded params = %+v", got)
	}
	if view.TotalPages != 3 || view.PrevPage != 1 || view.NextPage != 3 {
		t.Errorf("paging = %+v", view)
	}
	card := view.Jobs[0]
	if strings.Join(card.Tags, ",") != "go,sql,redis" || card.MoreTags != 2 {
		t.Errorf("card tags = %v +%d", card.Tags, card.MoreTags)
	}
	if card.Excerpt != "Build APIs" {
		t.Errorf("excerpt = %q", card.Excerpt)
	}
	if card.Salary != "$80,000 - $?" {
		t.Errorf("salary = %q", card.Salary)
	}
}

func TestJobs_RemoteOnlyEmptyIsNotAnError(t *testing.T) {
	api := &fakeAPI{list: func(p query.Params) (*model.JobsPage, error) {
		return &model.JobsPage{Jobs: []model.Job{}, Page: 1, PageSize: 12}, nil
	}}
	r, _ := newServer(t, api, nil)

	var view dashboard.ListingView
	w := doJSON(t, r, http.MethodGet, "/jobs?remote=true", &view)
	if w.Code != http.StatusOK || view.Error != nil {
		t.Errorf("GET /jobs = %d %+v", w.Code, view.Error)
	}
	if !view.Empty || view.Guidance == "" || view.Jobs == nil {
		t.Errorf("view = %+v, want empty state with guidance", view)
	}
}

func TestJobs_NetworkFailure(t *testing.T) {
	api := &fakeAPI{list: func(query.Params) (*model.JobsPage, error) { return nil, errOffline }}
	r, _ := newServer(t, api, nil)

	var view dashboard.ListingView
	w := doJSON(t, r, http.MethodGet, "/jobs", &view)
	if w.Code != http.StatusBadGateway || view.Error == nil || !view.Error.Retryable {
		t.Errorf("GET /jobs = %d %+v", w.Code, view.Error)
	}
}

func TestJob_Detail(t *testing.T) {
	api := &fakeAPI{job: func(id int64) (*model.Job, error) {
		switch id {
		case 1:
			j := sampleJob(1)
			return &j, nil
		case 2:
			return nil, gateway.ErrNotFound
		default:
			return nil, errOffline
		}
	}}
	r, _ := newServer(t, api, nil)

	var view dashboard.DetailView
	w := doJSON(t, r, http.MethodGet, "/jobs/1", &view)
	if w.Code != http.StatusOK || view.Job == nil || view.Job.ID != 1 {
		t.Fatalf("GET /jobs/1 = %d %+v", w.Code, view)
	}
	if view.PostedOn != "January 21, 2024" || view.Description != "Build APIs" || view.ApplyURL == "" {
		t.Errorf("detail = %+v", view)
	}

	cases := []struct {
		path      string
		code      int
		notFound  bool
		retryable bool
	}{
		{"/jobs/abc", http.StatusNotFound, true, false},
		{"/jobs/0", http.StatusNotFound, true, false},
		{"/jobs/2", http.StatusNotFound, true, false},
		{"/jobs/3", http.StatusBadGateway, false, true},
	}
	for _, tc := range cases {
		var v dashboard.DetailView
		w := doJSON(t, r, http.MethodGet, tc.path, &v)
		if w.Code != tc.code || v.Error == nil || v.Error.NotFound != tc.notFound || v.Error.Retryable != tc.retryable {
			t.Errorf("GET %s = %d %+v", tc.path, w.Code, v.Error)
		}
	}
}

func TestApply_OnlyFollowsHTTPURLs(t *testing.T) {
	api := &fakeAPI{job: func(id int64) (*model.Job, error) {
		j := sampleJob(id)
		if id == 2 {
			j.URL = "javascript:alert(1)"
		}
		return &j, nil
	}}
	r, _ := newServer(t, api, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs/1/apply", nil))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "https://jobs.example.com/1" {
		t.Errorf("apply = %d %q", w.Code, w.Header().Get("Location"))
	}

	w = doJSON(t, r, http.MethodGet, "/jobs/2/apply", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unsafe apply = %d, want 400", w.Code)
	}
}

func TestThemeToggle_PersistsPerSession(t *testing.T) {
	api := &fakeAPI{list: func(query.Params) (*model.JobsPage, error) {
		return &model.JobsPage{Jobs: []model.Job{}, Page: 1, PageSize: 12}, nil
	}}
	r, _ := newServer(t, api, nil)

	// first visit hands out a session cookie and renders dark
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs", nil))
	if !strings.Contains(w.Body.String(), `data-theme="dark"`) {
		t.Fatalf("default page not dark: %s", w.Body.String())
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 || cookies[0].Name != dashboard.SessionCookie {
		t.Fatalf("cookies = %v", cookies)
	}
	session := cookies[0]

	req := httptest.NewRequest(http.MethodPost, "/theme/toggle", nil)
	req.AddCookie(session)
	req.Header.Set("Referer", "http://example.com/jobs?page=2")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/jobs?page=2" {
		t.Errorf("toggle = %d %q", w.Code, w.Header().Get("Location"))
	}

	req = httptest.NewRequest(http.MethodGet, "/jobs", nil)
	req.AddCookie(session)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), `data-theme="light"`) {
		t.Errorf("toggled page not light")
	}
}

func TestThemeToggle_ForeignRefererGoesHome(t *testing.T) {
	r, _ := newServer(t, &fakeAPI{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/theme/toggle", nil)
	req.Header.Set("Referer", "https://evil.example.net/phish")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Location") != "/" {
		t.Errorf("Location = %q, want /", w.Header().Get("Location"))
	}
}

func TestSummary_RendersHTML(t *testing.T) {
	api := &fakeAPI{summary: func(query.SummaryQuery) (*model.SummaryResponse, error) {
		return &model.SummaryResponse{
			Summary: model.DailySummary{TotalJobs: 1, PeriodDays: 7},
			Jobs:    []model.Job{sampleJob(1)},
		}, nil
	}}
	r, _ := newServer(t, api, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	body := w.Body.String()
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("GET / = %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	for _, want := range []string{"Top companies", "Acme", "Jan 21"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}
