package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/quantumlife/dayplan/internal/core"
	"github.com/quantumlife/dayplan/internal/metrics"
	"github.com/quantumlife/dayplan/internal/planner"
	"github.com/quantumlife/dayplan/internal/testutil"
)

const testUser = core.UserID("user-1")

// testServer wires the real service over an in-memory database with the
// clock fixed at Wednesday 07:45 UTC.
func testServer(t *testing.T) *Server {
	t.Helper()

	stores := testutil.TestStores(t)
	testutil.SeedScenario(t, stores, testUser, testutil.Wednesday)

	exporter := metrics.NewExporter(metrics.DefaultConfig())
	svc, err := planner.NewService(planner.ServiceConfig{
		Profiles: stores.Profiles,
		Goals:    stores.Goals,
		Mind:     stores.Mind,
		Body:     stores.Body,
		Policy:   planner.DefaultPolicy(),
		Clock:    testutil.FixedClock(testutil.Wednesday.Add(7*time.Hour + 45*time.Minute)),
		Metrics:  exporter,
	})
	testutil.AssertNoError(t, err)

	srv, err := New(Config{
		Planner:  svc,
		Profiles: stores.Profiles,
		Metrics:  exporter.Handler(),
	})
	testutil.AssertNoError(t, err)
	return srv
}

func doRequest(t *testing.T, h http.Handler, path string, user core.UserID) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if user != "" {
		req.Header.Set(UserIDHeader, string(user))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

// --- Construction ---

func TestNew_RequiresPlanner(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, core.ErrMissingRequired) {
		t.Errorf("New() error = %v, want ErrMissingRequired", err)
	}
}

// --- Auth ---

func TestAPI_MissingUserHeader(t *testing.T) {
	srv := testServer(t)

	for _, path := range []string{
		"/api/v1/profile",
		"/api/v1/availability",
		"/api/v1/schedule",
		"/api/v1/schedule/now",
		"/api/v1/schedule/remaining",
	} {
		t.Run(path, func(t *testing.T) {
			rr := doRequest(t, srv.Handler(), path, "")
			if rr.Code != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", rr.Code)
			}
		})
	}
}

func TestRequireUser_StoresID(t *testing.T) {
	var got core.UserID
	h := RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserFrom(r.Context())
	}))

	doRequest(t, h, "/", " alice ")
	if got != "alice" {
		t.Errorf("UserFrom() = %q, want alice", got)
	}
	if UserFrom(context.Background()) != "" {
		t.Error("UserFrom() on a bare context should be empty")
	}
}

// --- Planning endpoints ---

func TestAPI_Schedule(t *testing.T) {
	srv := testServer(t)

	rr := doRequest(t, srv.Handler(), "/api/v1/schedule?date=2025-03-12", testUser)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var sched planner.Schedule
	decode(t, rr, &sched)

	if sched.Date != "2025-03-12" || sched.Mode != planner.ModeFullDay {
		t.Errorf("date/mode = %s/%s", sched.Date, sched.Mode)
	}
	if len(sched.Slots) != 2 {
		t.Fatalf("slots = %d, want 2", len(sched.Slots))
	}
	if sched.Summary.TotalTasksScheduled != 5 || sched.Summary.UnscheduledTasks != 0 {
		t.Errorf("scheduled/unscheduled = %d/%d, want 5/0",
			sched.Summary.TotalTasksScheduled, sched.Summary.UnscheduledTasks)
	}
	first := sched.Slots[0].Items[0]
	if first.Kind != core.KindGoal || first.StartTime.Format("15:04") != "06:00" {
		t.Errorf("first item = %s at %s, want goal at 06:00", first.Kind, first.StartTime.Format("15:04"))
	}
}

func TestAPI_Schedule_InvalidDate(t *testing.T) {
	srv := testServer(t)

	rr := doRequest(t, srv.Handler(), "/api/v1/schedule?date=12/03/2025", testUser)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}

	var resp map[string]string
	decode(t, rr, &resp)
	if !strings.Contains(resp["error"], "invalid date") {
		t.Errorf("error = %q", resp["error"])
	}
}

func TestAPI_UnknownUser(t *testing.T) {
	srv := testServer(t)

	for _, path := range []string{"/api/v1/profile", "/api/v1/availability", "/api/v1/schedule", "/api/v1/schedule/now", "/api/v1/schedule/remaining"} {
		t.Run(path, func(t *testing.T) {
			rr := doRequest(t, srv.Handler(), path, "nobody")
			if rr.Code != http.StatusNotFound {
				t.Errorf("expected status 404, got %d", rr.Code)
			}
			var resp map[string]string
			decode(t, rr, &resp)
			if resp["error"] != core.ErrProfileNotFound.Error() {
				t.Errorf("error = %q, want %q", resp["error"], core.ErrProfileNotFound.Error())
			}
		})
	}
}

func TestAPI_Availability(t *testing.T) {
	srv := testServer(t)

	rr := doRequest(t, srv.Handler(), "/api/v1/availability", testUser)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var report planner.AvailabilityReport
	decode(t, rr, &report)
	if report.TotalAvailableMinutes != 480 {
		t.Errorf("TotalAvailableMinutes = %d, want 480", report.TotalAvailableMinutes)
	}
	if !report.Day.WorkingDay {
		t.Error("Wednesday should be a working day")
	}
	if report.Week.HoursRemaining != 15 {
		t.Errorf("HoursRemaining = %v, want 15", report.Week.HoursRemaining)
	}
}

func TestAPI_Now(t *testing.T) {
	srv := testServer(t)

	rr := doRequest(t, srv.Handler(), "/api/v1/schedule/now", testUser)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var plan planner.NowPlan
	decode(t, rr, &plan)
	if plan.Mode != planner.ModeRightNow {
		t.Errorf("Mode = %s, want %s", plan.Mode, planner.ModeRightNow)
	}
	if plan.UtilizationPercentage > plan.TargetMaxPercentage {
		t.Errorf("utilization %.1f above target max %.1f", plan.UtilizationPercentage, plan.TargetMaxPercentage)
	}
	if plan.SummaryMessage == "" {
		t.Error("SummaryMessage should not be empty")
	}
}

func TestAPI_Remaining(t *testing.T) {
	srv := testServer(t)

	rr := doRequest(t, srv.Handler(), "/api/v1/schedule/remaining", testUser)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var view planner.RemainingView
	decode(t, rr, &view)
	if view.ElapsedItems != 2 || len(view.Items) != 3 {
		t.Errorf("elapsed/items = %d/%d, want 2/3", view.ElapsedItems, len(view.Items))
	}
	if !view.CanCompleteAll {
		t.Error("CanCompleteAll should be true")
	}
}

func TestAPI_Profile(t *testing.T) {
	srv := testServer(t)

	rr := doRequest(t, srv.Handler(), "/api/v1/profile", testUser)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var p core.UserProfile
	decode(t, rr, &p)
	if p.UserID != testUser || p.WorkSchedule.String() != "09:00-17:00" {
		t.Errorf("profile = %+v", p)
	}
}

// --- Error mapping ---

type failingPlanner struct{ err error }

func (f failingPlanner) GetAvailableTime(context.Context, core.UserID) (*planner.AvailabilityReport, error) {
	return nil, f.err
}

func (f failingPlanner) GetOptimizedSchedule(context.Context, core.UserID, string) (*planner.Schedule, error) {
	return nil, f.err
}

func (f failingPlanner) GetTasksRightNow(context.Context, core.UserID) (*planner.NowPlan, error) {
	return nil, f.err
}

func (f failingPlanner) GetRemainingDaySchedule(context.Context, core.UserID) (*planner.RemainingView, error) {
	return nil, f.err
}

func TestAPI_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    int
		message string
	}{
		{"profile not found", fmt.Errorf("load: %w", core.ErrProfileNotFound), http.StatusNotFound, "profile not configured yet"},
		{"invalid date", core.ErrInvalidDate, http.StatusBadRequest, "invalid date"},
		{"invalid profile", core.ErrInvalidProfile, http.StatusUnprocessableEntity, "invalid profile"},
		{"store failure", errors.New("database disk image is malformed"), http.StatusInternalServerError, "internal error"},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, err := New(Config{Planner: failingPlanner{err: tt.err}})
			testutil.AssertNoError(t, err)

			rr := doRequest(t, srv.Handler(), "/api/v1/schedule/now", testUser)
			if rr.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rr.Code)
			}

			var resp map[string]string
			decode(t, rr, &resp)
			if !strings.Contains(resp["error"], tt.message) {
				t.Errorf("error = %q, want it to contain %q", resp["error"], tt.message)
			}
		})
	}
}

// --- Health and metrics ---

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestAPI_Health(t *testing.T) {
	tests := []struct {
		name   string
		health Pinger
		want   int
	}{
		{"no store", nil, http.StatusOK},
		{"store up", pinger{}, http.StatusOK},
		{"store down", pinger{err: errors.New("closed")}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := New(Config{Planner: failingPlanner{}, Health: tt.health})
			rr := doRequest(t, srv.Handler(), "/healthz", "")
			if rr.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rr.Code)
			}
		})
	}
}

func TestAPI_Health_Database(t *testing.T) {
	db := testutil.TestDB(t)
	srv, _ := New(Config{Planner: failingPlanner{}, Health: db})

	rr := doRequest(t, srv.Handler(), "/healthz", "")
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
}

func TestAPI_Metrics(t *testing.T) {
	srv := testServer(t)

	doRequest(t, srv.Handler(), "/api/v1/schedule?date=2025-03-12", testUser)
	doRequest(t, srv.Handler(), "/api/v1/schedule?date=bad", testUser)

	rr := doRequest(t, srv.Handler(), "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `dayplan_planner_runs_total{op="schedule",status="success"} 1`) {
		t.Error("expected one successful schedule run in metrics output")
	}
	if !strings.Contains(body, `dayplan_planner_errors_total{kind="invalid_date",op="schedule"} 1`) {
		t.Error("expected one invalid_date error in metrics output")
	}
}

func TestAPI_MetricsDisabled(t *testing.T) {
	srv, _ := New(Config{Planner: failingPlanner{}})

	rr := doRequest(t, srv.Handler(), "/metrics", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404 without exporter, got %d", rr.Code)
	}
}

func TestAPI_CORSPreflight(t *testing.T) {
	srv, _ := New(Config{Planner: failingPlanner{}, CORSOrigins: []string{"http://localhost:3000"}})

	req := httptest.NewRequest("OPTIONS", "/api/v1/schedule", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	req.Header.Set("Access-Control-Request-Headers", UserIDHeader)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
