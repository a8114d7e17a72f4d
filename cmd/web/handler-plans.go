package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/myrjola/progapp/internal/contexthelpers"
	"github.com/myrjola/progapp/internal/progression"
)

type planResponse struct {
	ID     int64         `json:"id"`
	Name   string        `json:"name"`
	Active bool          `json:"active"`
	Days   []dayResponse `json:"days"`
}

func toPlanResponse(plan progression.Plan) planResponse {
	days := make([]dayResponse, 0, len(plan.Days))
	for _, day := range plan.Days {
		days = append(days, toDayResponse(day))
	}
	return planResponse{
		ID:     plan.ID,
		Name:   plan.Name,
		Active: plan.Active,
		Days:   days,
	}
}

type dayInput struct {
	Name          string `json:"name"`
	IsRestDay     bool   `json:"isRestDay"`
	ExerciseCount int    `json:"exerciseCount"`
	Position      int    `json:"position"`
}

func (in dayInput) toDay() progression.Day {
	return progression.Day{
		Position:      in.Position,
		Name:          in.Name,
		IsRestDay:     in.IsRestDay,
		ExerciseCount: in.ExerciseCount,
	}
}

func (app *application) planCreatePOST(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string     `json:"name"`
		Days []dayInput `json:"days"`
	}
	if !app.decodeJSON(w, r, &input) {
		return
	}
	if input.Name == "" {
		app.clientError(w, http.StatusBadRequest, "name is required")
		return
	}

	days := make([]progression.Day, 0, len(input.Days))
	for _, in := range input.Days {
		days = append(days, in.toDay())
	}

	ctx := r.Context()
	plan, err := app.progressionService.CreatePlan(ctx, contexthelpers.CurrentProfileID(ctx), input.Name, days)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("create plan: %w", err))
		return
	}
	app.writeJSON(w, r, http.StatusCreated, toPlanResponse(plan))
}

func (app *application) plansGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plans, err := app.progressionService.ListPlans(ctx, contexthelpers.CurrentProfileID(ctx))
	if err != nil {
		app.serverError(w, r, fmt.Errorf("list plans: %w", err))
		return
	}
	responses := make([]planResponse, 0, len(plans))
	for _, plan := range plans {
		responses = append(responses, toPlanResponse(plan))
	}
	app.writeJSON(w, r, http.StatusOK, responses)
}

func (app *application) planGET(w http.ResponseWriter, r *http.Request) {
	planID, ok := app.parseIDParam(w, r, "planID")
	if !ok {
		return
	}
	plan, err := app.progressionService.GetPlan(r.Context(), planID)
	if err != nil {
		if errors.Is(err, progression.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		app.serverError(w, r, fmt.Errorf("get plan: %w", err))
		return
	}
	app.writeJSON(w, r, http.StatusOK, toPlanResponse(plan))
}

func (app *application) planActivatePOST(w http.ResponseWriter, r *http.Request) {
	planID, ok := app.parseIDParam(w, r, "planID")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := app.progressionService.ActivatePlan(ctx, contexthelpers.CurrentProfileID(ctx), planID); err != nil {
		if errors.Is(err, progression.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		app.serverError(w, r, fmt.Errorf("activate plan: %w", err))
		return
	}
	app.writeJSON(w, r, http.StatusOK, envelope{"activated": planID})
}

func (app *application) planRenamePOST(w http.ResponseWriter, r *http.Request) {
	planID, ok := app.parseIDParam(w, r, "planID")
	if !ok {
		return
	}
	var input struct {
		Name string `json:"name"`
	}
	if !app.decodeJSON(w, r, &input) {
		return
	}
	if input.Name == "" {
		app.clientError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := app.progressionService.RenamePlan(r.Context(), planID, input.Name); err != nil {
		app.serverError(w, r, fmt.Errorf("rename plan: %w", err))
		return
	}
	app.writeJSON(w, r, http.StatusOK, envelope{"renamed": planID})
}

func (app *application) planDELETE(w http.ResponseWriter, r *http.Request) {
	planID, ok := app.parseIDParam(w, r, "planID")
	if !ok {
		return
	}
	if err := app.progressionService.DeletePlan(r.Context(), planID); err != nil {
		app.serverError(w, r, fmt.Errorf("delete plan: %w", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) planDayAddPOST(w http.ResponseWriter, r *http.Request) {
	planID, ok := app.parseIDParam(w, r, "planID")
	if !ok {
		return
	}
	var input dayInput
	if !app.decodeJSON(w, r, &input) {
		return
	}

	day, err := app.progressionService.AddDay(r.Context(), planID, input.toDay())
	if err != nil {
		app.serverError(w, r, fmt.Errorf("add day: %w", err))
		return
	}
	app.writeJSON(w, r, http.StatusCreated, toDayResponse(day))
}

func (app *application) planDayUpdatePOST(w http.ResponseWriter, r *http.Request) {
	planID, ok := app.parseIDParam(w, r, "planID")
	if !ok {
		return
	}
	dayID, ok := app.parseUUIDParam(w, r, "dayID")
	if !ok {
		return
	}
	var input struct {
		Name          *string `json:"name"`
		IsRestDay     *bool   `json:"isRestDay"`
		ExerciseCount *int    `json:"exerciseCount"`
	}
	if !app.decodeJSON(w, r, &input) {
		return
	}

	err := app.progressionService.UpdateDay(r.Context(), planID, dayID, func(day *progression.Day) (bool, error) {
		changed := false
		if input.Name != nil && *input.Name != day.Name {
			day.Name = *input.Name
			changed = true
		}
		if input.IsRestDay != nil && *input.IsRestDay != day.IsRestDay {
			day.IsRestDay = *input.IsRestDay
			changed = true
		}
		if input.ExerciseCount != nil && *input.ExerciseCount != day.ExerciseCount {
			day.ExerciseCount = *input.ExerciseCount
			changed = true
		}
		return changed, nil
	})
	if err != nil {
		if errors.Is(err, progression.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		app.serverError(w, r, fmt.Errorf("update day: %w", err))
		return
	}
	app.writeJSON(w, r, http.StatusOK, envelope{"updated": dayID.String()})
}

func (app *application) planDayDELETE(w http.ResponseWriter, r *http.Request) {
	planID, ok := app.parseIDParam(w, r, "planID")
	if !ok {
		return
	}
	dayID, ok := app.parseUUIDParam(w, r, "dayID")
	if !ok {
		return
	}
	if err := app.progressionService.DeleteDay(r.Context(), planID, dayID); err != nil {
		app.serverError(w, r, fmt.Errorf("delete day: %w", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) planDaysReorderPOST(w http.ResponseWriter, r *http.Request) {
	planID, ok := app.parseIDParam(w, r, "planID")
	if !ok {
		return
	}
	var input struct {
		OrderedIDs []string `json:"orderedIds"`
	}
	if !app.decodeJSON(w, r, &input) {
		return
	}

	orderedIDs := make([]uuid.UUID, 0, len(input.OrderedIDs))
	for _, raw := range input.OrderedIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			app.clientError(w, http.StatusBadRequest, fmt.Sprintf("invalid day id %q", raw))
			return
		}
		orderedIDs = append(orderedIDs, id)
	}

	if err := app.progressionService.ReorderDays(r.Context(), planID, orderedIDs); err != nil {
		app.serverError(w, r, fmt.Errorf("reorder days: %w", err))
		return
	}
	app.writeJSON(w, r, http.StatusOK, envelope{"reordered": planID})
}
