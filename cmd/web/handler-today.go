package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/myrjola/progapp/internal/contexthelpers"
	"github.com/myrjola/progapp/internal/progression"
)

type dayResponse struct {
	ID            string `json:"id"`
	Position      int    `json:"position"`
	Name          string `json:"name"`
	IsRestDay     bool   `json:"isRestDay"`
	ExerciseCount int    `json:"exerciseCount"`
}

func toDayResponse(day progression.Day) dayResponse {
	return dayResponse{
		ID:            day.ID.String(),
		Position:      day.Position,
		Name:          day.Name,
		IsRestDay:     day.IsRestDay,
		ExerciseCount: day.ExerciseCount,
	}
}

type setSlotResponse struct {
	ExerciseIndex int  `json:"exerciseIndex"`
	SetNumber     int  `json:"setNumber"`
	Completed     bool `json:"completed"`
}

type recordResponse struct {
	PlanID      int64             `json:"planId"`
	Date        progression.Date  `json:"date"`
	PlanDayID   string            `json:"planDayId,omitempty"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
	Sets        []setSlotResponse `json:"sets"`
}

func toRecordResponse(record progression.Record) recordResponse {
	resp := recordResponse{
		PlanID:    record.PlanID,
		Date:      record.Date,
		PlanDayID: record.PlanDayID,
		Sets:      make([]setSlotResponse, 0, len(record.Sets)),
	}
	if !record.CompletedAt.IsZero() {
		completedAt := record.CompletedAt
		resp.CompletedAt = &completedAt
	}
	for _, set := range record.Sets {
		resp.Sets = append(resp.Sets, setSlotResponse{
			ExerciseIndex: set.ExerciseIndex,
			SetNumber:     set.SetNumber,
			Completed:     set.Completed,
		})
	}
	return resp
}

type todayResponse struct {
	Mode          string           `json:"mode"`
	Date          progression.Date `json:"date"`
	Outcome       string           `json:"outcome"`
	PlanID        int64            `json:"planId,omitempty"`
	DayIndex      int              `json:"dayIndex,omitempty"`
	ItemIndex     int              `json:"itemIndex"`
	CycleDayIndex int              `json:"cycleDayIndex"`
	Day           *dayResponse     `json:"day"`
	Record        *recordResponse  `json:"record,omitempty"`
}

func (app *application) todayGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := app.progressionService.Today(ctx, contexthelpers.CurrentProfileID(ctx), time.Now())
	if err != nil {
		app.serverError(w, r, fmt.Errorf("resolve today: %w", err))
		return
	}

	resp := todayResponse{
		Mode:          string(view.Mode),
		Date:          view.Date,
		Outcome:       view.Outcome.String(),
		PlanID:        view.PlanID,
		DayIndex:      view.DayIndex,
		ItemIndex:     view.ItemIndex,
		CycleDayIndex: view.CycleDayIndex,
	}
	if view.Day != nil {
		day := toDayResponse(*view.Day)
		resp.Day = &day
		record := toRecordResponse(view.Record)
		resp.Record = &record
	}
	app.writeJSON(w, r, http.StatusOK, resp)
}

type changeDayResponse struct {
	Outcome  string       `json:"outcome"`
	DayIndex int          `json:"dayIndex"`
	Day      *dayResponse `json:"day"`
}

func (app *application) todayChangeDayPOST(w http.ResponseWriter, r *http.Request) {
	var input struct {
		DayIndex       int  `json:"dayIndex"`
		SkipAndAdvance bool `json:"skipAndAdvance"`
	}
	if !app.decodeJSON(w, r, &input) {
		return
	}

	ctx := r.Context()
	profileID := contexthelpers.CurrentProfileID(ctx)
	profile, err := app.progressionService.GetProfile(ctx, profileID)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("get profile: %w", err))
		return
	}

	var result progression.ChangeDayResult
	if profile.Mode == progression.ModeCycle {
		result, err = app.progressionService.ChangeCycleDay(ctx, profileID, input.DayIndex, input.SkipAndAdvance, time.Now())
	} else {
		result, err = app.progressionService.ChangeDay(ctx, profileID, input.DayIndex, input.SkipAndAdvance, time.Now())
	}
	if err != nil {
		app.serverError(w, r, fmt.Errorf("change day: %w", err))
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
	status := http.StatusOK
	if result.Outcome == progression.OutcomeInvalid {
		status = http.StatusConflict
	}
	app.writeJSON(w, r, status, resp)
}
