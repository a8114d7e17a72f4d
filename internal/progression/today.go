package progression

import (
	"context"
	"fmt"
	"time"
)

// TodayView is the fully resolved answer to "what should the user do today".
type TodayView struct {
	Mode    Mode
	Date    Date
	Outcome Outcome
	PlanID  int64
	// DayIndex is 1-based in plan mode. ItemIndex and CycleDayIndex are
	// 0-based and only set in cycle mode.
	DayIndex      int
	ItemIndex     int
	CycleDayIndex int
	// Day is nil when no day can be resolved (empty plan, all-empty cycle).
	Day *Day
	// Record is today's workout record, zero when no day resolved.
	Record Record
}

// Today runs the open-time transition for the profile's configured mode and
// materializes today's workout record so the host can render and log it.
func (s *Service) Today(ctx context.Context, profileID int64, now time.Time) (TodayView, error) {
	profile, err := s.repo.profiles.Get(ctx, profileID)
	if err != nil {
		return TodayView{}, fmt.Errorf("get profile: %w", err)
	}
	today := ProgramDay(now, profile.BoundaryHour)

	view := TodayView{
		Mode: profile.Mode,
		Date: today,
	}
	if profile.Mode == ModeCycle {
		result, openErr := s.HandleCycleOpen(ctx, profileID, now)
		if openErr != nil {
			return TodayView{}, openErr
		}
		view.Outcome = result.Outcome
		view.PlanID = result.PlanID
		view.ItemIndex = result.ItemIndex
		view.CycleDayIndex = result.DayIndex
		view.Day = result.Day
	} else {
		result, openErr := s.HandleOpen(ctx, profileID, now)
		if openErr != nil {
			return TodayView{}, openErr
		}
		view.Outcome = result.Outcome
		view.DayIndex = result.DayIndex
		view.Day = result.Day
		if result.Day != nil {
			plan, planErr := s.repo.plans.ActiveForProfile(ctx, profileID)
			if planErr != nil {
				return TodayView{}, fmt.Errorf("get active plan: %w", planErr)
			}
			view.PlanID = plan.ID
		}
	}

	if view.Day == nil || view.PlanID == 0 {
		return view, nil
	}

	if err = s.repo.records.Materialize(ctx, profileID, view.PlanID, today, *view.Day); err != nil {
		return TodayView{}, fmt.Errorf("materialize record: %w", err)
	}
	if view.Record, err = s.repo.records.Get(ctx, profileID, view.PlanID, today); err != nil {
		return TodayView{}, fmt.Errorf("get record: %w", err)
	}
	return view, nil
}
