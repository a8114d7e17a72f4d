package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/myrjola/progapp/internal/contexthelpers"
	"github.com/myrjola/progapp/internal/progression"
)

func (app *application) recordGET(w http.ResponseWriter, r *http.Request) {
	date, ok := app.parseDateParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	record, err := app.progressionService.GetRecord(ctx, contexthelpers.CurrentProfileID(ctx), date)
	if err != nil {
		if errors.Is(err, progression.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		app.serverError(w, r, fmt.Errorf("get record: %w", err))
		return
	}
	app.writeJSON(w, r, http.StatusOK, toRecordResponse(record))
}

// recordCompletePOST marks the current day's workout as fully completed.
// The progression pointer moves on the next natural open. Past dates go
// through the backfill route instead.
func (app *application) recordCompletePOST(w http.ResponseWriter, r *http.Request) {
	date, ok := app.parseDateParam(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	profileID := contexthelpers.CurrentProfileID(ctx)
	profile, err := app.progressionService.GetProfile(ctx, profileID)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("get profile: %w", err))
		return
	}
	now := time.Now()
	if !date.Equal(progression.ProgramDay(now, profile.BoundaryHour)) {
		app.clientError(w, http.StatusBadRequest, "date is not the current program day")
		return
	}

	if err = app.progressionService.CompleteToday(ctx, profileID, now); err != nil {
		app.serverError(w, r, fmt.Errorf("complete today: %w", err))
		return
	}
	app.writeJSON(w, r, http.StatusOK, envelope{"completed": true})
}

// recordBackfillPOST confirms a completion for a past program day. The
// pointer advances only when the date is newer than the latest confirmed
// completion, so re-deliveries and out-of-order confirmations are inert.
func (app *application) recordBackfillPOST(w http.ResponseWriter, r *http.Request) {
	date, ok := app.parseDateParam(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	profileID := contexthelpers.CurrentProfileID(ctx)
	profile, err := app.progressionService.GetProfile(ctx, profileID)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("get profile: %w", err))
		return
	}
	if profile.Mode == progression.ModeCycle {
		app.clientError(w, http.StatusUnprocessableEntity, "backfill applies to plan mode only")
		return
	}

	result, err := app.progressionService.RecordCompletion(ctx, profileID, date)
	if err != nil {
		if errors.Is(err, progression.ErrNotFound) {
			app.clientError(w, http.StatusUnprocessableEntity, "no active plan")
			return
		}
		app.serverError(w, r, fmt.Errorf("record completion: %w", err))
		return
	}

	resp := changeDayResponse{
		Outcome:  result.Outcome.String(),
		DayIndex: result.DayIndex,
	}
	if result.Day != nil {
		day := toDayResponse(*result.Day)
		resp.Day = &day
	}
	app.writeJSON(w, r, http.StatusOK, resp)
}

func (app *application) recordSetPOST(w http.ResponseWriter, r *http.Request) {
	date, ok := app.parseDateParam(w, r)
	if !ok {
		return
	}
	var input struct {
		ExerciseIndex int  `json:"exerciseIndex"`
		SetNumber     int  `json:"setNumber"`
		Completed     bool `json:"completed"`
	}
	if !app.decodeJSON(w, r, &input) {
		return
	}
	if input.ExerciseIndex < 1 || input.SetNumber < 1 {
		app.clientError(w, http.StatusBadRequest, "exerciseIndex and setNumber are 1-based")
		return
	}

	ctx := r.Context()
	err := app.progressionService.MarkSet(ctx, contexthelpers.CurrentProfileID(ctx),
		date, input.ExerciseIndex, input.SetNumber, input.Completed)
	if err != nil {
		if errors.Is(err, progression.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		app.serverError(w, r, fmt.Errorf("mark set: %w", err))
		return
	}
	app.writeJSON(w, r, http.StatusOK, envelope{"marked": true})
}
