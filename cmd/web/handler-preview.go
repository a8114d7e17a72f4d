package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/myrjola/progapp/internal/contexthelpers"
)

type previewResponse struct {
	DaysDifference int          `json:"daysDifference"`
	DayIndex       int          `json:"dayIndex"`
	Day            *dayResponse `json:"day"`
}

// previewGET forecasts the active day a number of days away. The days query
// parameter may be negative to look back and defaults to zero.
func (app *application) previewGET(w http.ResponseWriter, r *http.Request) {
	daysDifference := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			app.clientError(w, http.StatusBadRequest, "days must be an integer")
			return
		}
		daysDifference = parsed
	}

	ctx := r.Context()
	result, err := app.progressionService.Preview(ctx, contexthelpers.CurrentProfileID(ctx), daysDifference)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("preview: %w", err))
		return
	}

	resp := previewResponse{
		DaysDifference: daysDifference,
		DayIndex:       result.DayIndex,
	}
	if result.Day != nil {
		day := toDayResponse(*result.Day)
		resp.Day = &day
	}
	app.writeJSON(w, r, http.StatusOK, resp)
}
