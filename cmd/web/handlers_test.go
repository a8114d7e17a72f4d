package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/myrjola/progapp/internal/progression"
	"github.com/myrjola/progapp/internal/sqlite"
	"github.com/myrjola/progapp/internal/testhelpers"
)

func newTestApplication(t *testing.T) *application {
	t.Helper()
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
	db, err := sqlite.NewDatabase(t.Context(), ":memory:", logger)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Errorf("close database: %v", closeErr)
		}
	})
	return &application{
		logger:             logger,
		sessionManager:     scs.New(),
		progressionService: progression.NewService(db, logger),
		defaultProfile:     "default",
	}
}

// seedProfileWithPlan attaches an active plan to the fixture-seeded default
// profile.
func seedProfileWithPlan(t *testing.T, app *application) progression.Profile {
	t.Helper()
	ctx := context.Background()
	profile, err := app.progressionService.GetProfileByName(ctx, "default")
	if err != nil {
		t.Fatalf("get default profile: %v", err)
	}
	plan, err := app.progressionService.CreatePlan(ctx, profile.ID, "Push Pull Legs", []progression.Day{
		{Position: 1, Name: "Push", ExerciseCount: 2},
		{Position: 2, Name: "Pull", ExerciseCount: 2},
		{Position: 3, Name: "Rest", IsRestDay: true},
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	if err = app.progressionService.ActivatePlan(ctx, profile.ID, plan.ID); err != nil {
		t.Fatalf("activate plan: %v", err)
	}
	return profile
}

func doRequest(t *testing.T, app *application, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	app.routes().ServeHTTP(recorder, req)
	return recorder
}

func decodeResponse(t *testing.T, recorder *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(recorder.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func Test_healthy(t *testing.T) {
	app := newTestApplication(t)

	recorder := doRequest(t, app, http.MethodGet, "/api/healthy", nil)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	if got := recorder.Body.String(); got != `{"status":"ok"}` {
		t.Errorf("unexpected body %q", got)
	}
}

func Test_today_withoutProfile(t *testing.T) {
	app := newTestApplication(t)
	// Point the fallback at a profile that does not exist.
	app.defaultProfile = "nobody"

	recorder := doRequest(t, app, http.MethodGet, "/api/today", nil)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", recorder.Code)
	}
}

func Test_today_withoutActivePlan(t *testing.T) {
	app := newTestApplication(t)

	// The fixture-seeded default profile has no active plan; opening the
	// day is a clean no-op rather than an error.
	recorder := doRequest(t, app, http.MethodGet, "/api/today", nil)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var resp todayResponse
	decodeResponse(t, recorder, &resp)
	if resp.Outcome != "no-op" {
		t.Errorf("expected no-op outcome, got %q", resp.Outcome)
	}
	if resp.Day != nil {
		t.Errorf("expected no resolved day, got %+v", resp.Day)
	}
}

func Test_today_defaultProfileFallback(t *testing.T) {
	app := newTestApplication(t)
	seedProfileWithPlan(t, app)

	recorder := doRequest(t, app, http.MethodGet, "/api/today", nil)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var resp todayResponse
	decodeResponse(t, recorder, &resp)
	if resp.Mode != "plan" {
		t.Errorf("expected plan mode, got %q", resp.Mode)
	}
	if resp.DayIndex != 1 {
		t.Errorf("expected day index 1 on first open, got %d", resp.DayIndex)
	}
	if resp.Day == nil || resp.Day.Name != "Push" {
		t.Errorf("expected first day Push, got %+v", resp.Day)
	}
	if resp.Record == nil || len(resp.Record.Sets) == 0 {
		t.Errorf("expected materialized record with set slots, got %+v", resp.Record)
	}
}

func Test_planLifecycle(t *testing.T) {
	app := newTestApplication(t)
	seedProfileWithPlan(t, app)

	recorder := doRequest(t, app, http.MethodPost, "/api/plans", map[string]any{
		"name": "Upper Lower",
		"days": []map[string]any{
			{"name": "Upper", "exerciseCount": 3},
			{"name": "Lower", "exerciseCount": 3},
		},
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var created planResponse
	decodeResponse(t, recorder, &created)
	if len(created.Days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(created.Days))
	}
	if created.Days[0].Position != 1 || created.Days[1].Position != 2 {
		t.Errorf("expected dense 1-based positions, got %+v", created.Days)
	}

	recorder = doRequest(t, app, http.MethodGet, "/api/plans", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	var plans []planResponse
	decodeResponse(t, recorder, &plans)
	if len(plans) != 2 {
		t.Errorf("expected 2 plans, got %d", len(plans))
	}

	recorder = doRequest(t, app, http.MethodPost, "/api/plans/999999/activate", nil)
	if recorder.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for unknown plan, got %d", recorder.Code)
	}
}

func Test_markSetAndChangeDayRejection(t *testing.T) {
	app := newTestApplication(t)
	seedProfileWithPlan(t, app)

	// Opening today materializes the record.
	recorder := doRequest(t, app, http.MethodGet, "/api/today", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	var today todayResponse
	decodeResponse(t, recorder, &today)

	recorder = doRequest(t, app, http.MethodPost, "/api/records/"+today.Date.String()+"/sets", map[string]any{
		"exerciseIndex": 1,
		"setNumber":     1,
		"completed":     true,
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	// A manual day change must not discard the recorded set.
	recorder = doRequest(t, app, http.MethodPost, "/api/today/change-day", map[string]any{
		"dayIndex": 2,
	})
	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var change changeDayResponse
	decodeResponse(t, recorder, &change)
	if change.Outcome != "invalid" {
		t.Errorf("expected invalid outcome, got %q", change.Outcome)
	}

	recorder = doRequest(t, app, http.MethodGet, "/api/records/"+today.Date.String(), nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	var record recordResponse
	decodeResponse(t, recorder, &record)
	marked := 0
	for _, set := range record.Sets {
		if set.Completed {
			marked++
		}
	}
	if marked != 1 {
		t.Errorf("expected 1 completed set to survive, got %d", marked)
	}
}

func Test_backfill_rejectedInCycleMode(t *testing.T) {
	app := newTestApplication(t)
	profile := seedProfileWithPlan(t, app)
	if err := app.progressionService.SetMode(context.Background(), profile.ID, progression.ModeCycle); err != nil {
		t.Fatalf("set mode: %v", err)
	}

	recorder := doRequest(t, app, http.MethodPost, "/api/records/2024-05-01/backfill", nil)

	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func Test_preview_invalidDays(t *testing.T) {
	app := newTestApplication(t)
	seedProfileWithPlan(t, app)

	recorder := doRequest(t, app, http.MethodGet, "/api/preview?days=soon", nil)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", recorder.Code)
	}
}
