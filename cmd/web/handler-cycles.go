package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/myrjola/progapp/internal/contexthelpers"
	"github.com/myrjola/progapp/internal/progression"
)

type cycleItemResponse struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	// PlanID 0 marks an item whose plan has been deleted.
	PlanID int64 `json:"planId"`
}

type cycleResponse struct {
	ID     int64               `json:"id"`
	Name   string              `json:"name"`
	Active bool                `json:"active"`
	Items  []cycleItemResponse `json:"items"`
}

func toCycleResponse(cycle progression.Cycle) cycleResponse {
	items := make([]cycleItemResponse, 0, len(cycle.Items))
	for _, item := range cycle.Items {
		items = append(items, cycleItemResponse{
			ID:       item.ID.String(),
			Position: item.Position,
			PlanID:   item.PlanID,
		})
	}
	return cycleResponse{
		ID:     cycle.ID,
		Name:   cycle.Name,
		Active: cycle.Active,
		Items:  items,
	}
}

func (app *application) cycleCreatePOST(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name    string  `json:"name"`
		PlanIDs []int64 `json:"planIds"`
	}
	if !app.decodeJSON(w, r, &input) {
		return
	}
	if input.Name == "" {
		app.clientError(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx := r.Context()
	cycle, err := app.progressionService.CreateCycle(ctx, contexthelpers.CurrentProfileID(ctx), input.Name, input.PlanIDs)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("create cycle: %w", err))
		return
	}
	app.writeJSON(w, r, http.StatusCreated, toCycleResponse(cycle))
}

func (app *application) cyclesGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cycles, err := app.progressionService.ListCycles(ctx, contexthelpers.CurrentProfileID(ctx))
	if err != nil {
		app.serverError(w, r, fmt.Errorf("list cycles: %w", err))
		return
	}
	responses := make([]cycleResponse, 0, len(cycles))
	for _, cycle := range cycles {
		responses = append(responses, toCycleResponse(cycle))
	}
	app.writeJSON(w, r, http.StatusOK, responses)
}

func (app *application) cycleGET(w http.ResponseWriter, r *http.Request) {
	cycleID, ok := app.parseIDParam(w, r, "cycleID")
	if !ok {
		return
	}
	cycle, err := app.progressionService.GetCycle(r.Context(), cycleID)
	if err != nil {
		if errors.Is(err, progression.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		app.serverError(w, r, fmt.Errorf("get cycle: %w", err))
		return
	}
	app.writeJSON(w, r, http.StatusOK, toCycleResponse(cycle))
}

func (app *application) cycleActivatePOST(w http.ResponseWriter, r *http.Request) {
	cycleID, ok := app.parseIDParam(w, r, "cycleID")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := app.progressionService.ActivateCycle(ctx, contexthelpers.CurrentProfileID(ctx), cycleID); err != nil {
		if errors.Is(err, progression.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		app.serverError(w, r, fmt.Errorf("activate cycle: %w", err))
		return
	}
	app.writeJSON(w, r, http.StatusOK, envelope{"activated": cycleID})
}

func (app *application) cycleDELETE(w http.ResponseWriter, r *http.Request) {
	cycleID, ok := app.parseIDParam(w, r, "cycleID")
	if !ok {
		return
	}
	if err := app.progressionService.DeleteCycle(r.Context(), cycleID); err != nil {
		app.serverError(w, r, fmt.Errorf("delete cycle: %w", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) cycleItemAddPOST(w http.ResponseWriter, r *http.Request) {
	cycleID, ok := app.parseIDParam(w, r, "cycleID")
	if !ok {
		return
	}
	var input struct {
		PlanID   int64 `json:"planId"`
		Position int   `json:"position"`
	}
	if !app.decodeJSON(w, r, &input) {
		return
	}

	item, err := app.progressionService.AddCycleItem(r.Context(), cycleID, progression.CycleItem{
		Position: input.Position,
		PlanID:   input.PlanID,
	})
	if err != nil {
		app.serverError(w, r, fmt.Errorf("add cycle item: %w", err))
		return
	}
	app.writeJSON(w, r, http.StatusCreated, cycleItemResponse{
		ID:       item.ID.String(),
		Position: item.Position,
		PlanID:   item.PlanID,
	})
}

func (app *application) cycleItemDELETE(w http.ResponseWriter, r *http.Request) {
	cycleID, ok := app.parseIDParam(w, r, "cycleID")
	if !ok {
		return
	}
	itemID, ok := app.parseUUIDParam(w, r, "itemID")
	if !ok {
		return
	}
	if err := app.progressionService.DeleteCycleItem(r.Context(), cycleID, itemID); err != nil {
		app.serverError(w, r, fmt.Errorf("delete cycle item: %w", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) cycleItemsReorderPOST(w http.ResponseWriter, r *http.Request) {
	cycleID, ok := app.parseIDParam(w, r, "cycleID")
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
			app.clientError(w, http.StatusBadRequest, fmt.Sprintf("invalid item id %q", raw))
			return
		}
		orderedIDs = append(orderedIDs, id)
	}

	if err := app.progressionService.ReorderCycleItems(r.Context(), cycleID, orderedIDs); err != nil {
		app.serverError(w, r, fmt.Errorf("reorder cycle items: %w", err))
		return
	}
	app.writeJSON(w, r, http.StatusOK, envelope{"reordered": cycleID})
}

func (app *application) cycleResetPOST(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := app.progressionService.ResetCycle(ctx, contexthelpers.CurrentProfileID(ctx)); err != nil {
		if errors.Is(err, progression.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		app.serverError(w, r, fmt.Errorf("reset cycle: %w", err))
		return
	}
	app.writeJSON(w, r, http.StatusOK, envelope{"reset": true})
}
