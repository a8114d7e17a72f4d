package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/myrjola/progapp/internal/contexthelpers"
	"github.com/myrjola/progapp/internal/progression"
)

type profileResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	BoundaryHour int    `json:"boundaryHour"`
	Mode         string `json:"mode"`
}

func toProfileResponse(profile progression.Profile) profileResponse {
	return profileResponse{
		ID:           profile.ID,
		Name:         profile.Name,
		BoundaryHour: profile.BoundaryHour,
		Mode:         string(profile.Mode),
	}
}

func (app *application) profileCreatePOST(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name         string `json:"name"`
		BoundaryHour *int   `json:"boundaryHour"`
		Mode         string `json:"mode"`
	}
	if !app.decodeJSON(w, r, &input) {
		return
	}
	if input.Name == "" {
		app.clientError(w, http.StatusBadRequest, "name is required")
		return
	}
	boundaryHour := app.defaultBoundaryHour
	if input.BoundaryHour != nil {
		boundaryHour = *input.BoundaryHour
	}
	if boundaryHour < 0 || boundaryHour > 23 {
		app.clientError(w, http.StatusBadRequest, "boundaryHour must be between 0 and 23")
		return
	}
	mode := progression.Mode(input.Mode)
	if mode == "" {
		mode = progression.ModePlan
	}
	if mode != progression.ModePlan && mode != progression.ModeCycle {
		app.clientError(w, http.StatusBadRequest, "mode must be plan or cycle")
		return
	}

	profile, err := app.progressionService.CreateProfile(r.Context(), input.Name, boundaryHour, mode)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("create profile: %w", err))
		return
	}

	// A freshly created profile becomes the session's selected profile.
	app.sessionManager.Put(r.Context(), sessionKeyProfileID, profile.ID)
	app.writeJSON(w, r, http.StatusCreated, toProfileResponse(profile))
}

func (app *application) profilesGET(w http.ResponseWriter, r *http.Request) {
	profiles, err := app.progressionService.ListProfiles(r.Context())
	if err != nil {
		app.serverError(w, r, fmt.Errorf("list profiles: %w", err))
		return
	}
	responses := make([]profileResponse, 0, len(profiles))
	for _, profile := range profiles {
		responses = append(responses, toProfileResponse(profile))
	}
	app.writeJSON(w, r, http.StatusOK, responses)
}

func (app *application) profileSelectPOST(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parseIDParam(w, r, "id")
	if !ok {
		return
	}
	profile, err := app.progressionService.GetProfile(r.Context(), id)
	if err != nil {
		if errors.Is(err, progression.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		app.serverError(w, r, fmt.Errorf("get profile: %w", err))
		return
	}

	app.sessionManager.Put(r.Context(), sessionKeyProfileID, profile.ID)
	app.writeJSON(w, r, http.StatusOK, toProfileResponse(profile))
}

func (app *application) profileGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, err := app.progressionService.GetProfile(ctx, contexthelpers.CurrentProfileID(ctx))
	if err != nil {
		app.serverError(w, r, fmt.Errorf("get profile: %w", err))
		return
	}
	app.writeJSON(w, r, http.StatusOK, toProfileResponse(profile))
}

func (app *application) profileModePOST(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Mode string `json:"mode"`
	}
	if !app.decodeJSON(w, r, &input) {
		return
	}
	mode := progression.Mode(input.Mode)
	if mode != progression.ModePlan && mode != progression.ModeCycle {
		app.clientError(w, http.StatusBadRequest, "mode must be plan or cycle")
		return
	}

	ctx := r.Context()
	if err := app.progressionService.SetMode(ctx, contexthelpers.CurrentProfileID(ctx), mode); err != nil {
		app.serverError(w, r, fmt.Errorf("set mode: %w", err))
		return
	}
	app.writeJSON(w, r, http.StatusOK, envelope{"mode": string(mode)})
}

func (app *application) profileBoundaryHourPOST(w http.ResponseWriter, r *http.Request) {
	var input struct {
		BoundaryHour int `json:"boundaryHour"`
	}
	if !app.decodeJSON(w, r, &input) {
		return
	}

	if input.BoundaryHour < 0 || input.BoundaryHour > 23 {
		app.clientError(w, http.StatusBadRequest, "boundaryHour must be between 0 and 23")
		return
	}

	ctx := r.Context()
	err := app.progressionService.SetBoundaryHour(ctx, contexthelpers.CurrentProfileID(ctx), input.BoundaryHour)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("set boundary hour: %w", err))
		return
	}
	app.writeJSON(w, r, http.StatusOK, envelope{"boundaryHour": input.BoundaryHour})
}
