package progression_test

import (
	"context"
	"testing"
	"time"

	"github.com/myrjola/progapp/internal/progression"
)

// newActiveCycle creates and activates a cycle over the given plans.
func newActiveCycle(ctx context.Context, t *testing.T, svc *progression.Service, profileID int64, planIDs []int64) progression.Cycle {
	t.Helper()
	cycle, err := svc.CreateCycle(ctx, profileID, "rotation", planIDs)
	if err != nil {
		t.Fatalf("Failed to create cycle: %v", err)
	}
	if err = svc.ActivateCycle(ctx, profileID, cycle.ID); err != nil {
		t.Fatalf("Failed to activate cycle: %v", err)
	}
	return cycle
}

func newPlan(ctx context.Context, t *testing.T, svc *progression.Service, profileID int64, name string, dayCount int) progression.Plan {
	t.Helper()
	plan, err := svc.CreatePlan(ctx, profileID, name, workoutDays(dayCount))
	if err != nil {
		t.Fatalf("Failed to create plan: %v", err)
	}
	return plan
}

func TestHandleCycleOpen_RotatesAndSkipsEmptyPlans(t *testing.T) {
	t.Parallel()
	ctx, _, svc := newTestService(t)
	profile := newTestProfile(ctx, t, svc, "cycle-rotation", 0, progression.ModeCycle)
	planA := newPlan(ctx, t, svc, profile.ID, "strength", 2)
	planB := newPlan(ctx, t, svc, profile.ID, "deload", 0)
	planC := newPlan(ctx, t, svc, profile.ID, "conditioning", 1)
	newActiveCycle(ctx, t, svc, profile.ID, []int64{planA.ID, planB.ID, planC.ID})

	// First run starts at the first item's first day without advancing.
	result, err := svc.HandleCycleOpen(ctx, profile.ID, at(0, 8, 0))
	if err != nil {
		t.Fatalf("HandleCycleOpen failed: %v", err)
	}
	if result.Outcome != progression.OutcomeNoOp || result.ItemIndex != 0 || result.DayIndex != 0 {
		t.Fatalf("first open = %+v", result)
	}
	if result.PlanID != planA.ID {
		t.Fatalf("plan = %d, want %d", result.PlanID, planA.ID)
	}

	// Day-by-day: through plan A, skipping empty plan B, into plan C, and
	// wrapping back to plan A.
	steps := []struct {
		day       int
		itemIndex int
		dayIndex  int
		planID    int64
	}{
		{day: 1, itemIndex: 0, dayIndex: 1, planID: planA.ID},
		{day: 2, itemIndex: 2, dayIndex: 0, planID: planC.ID},
		{day: 3, itemIndex: 0, dayIndex: 0, planID: planA.ID},
	}
	for _, step := range steps {
		if err = svc.CompleteToday(ctx, profile.ID, at(step.day-1, 18, 0)); err != nil {
			t.Fatalf("CompleteToday failed: %v", err)
		}
		result, err = svc.HandleCycleOpen(ctx, profile.ID, at(step.day, 8, 0))
		if err != nil {
			t.Fatalf("HandleCycleOpen failed: %v", err)
		}
		if result.Outcome != progression.OutcomeAdvanced {
			t.Fatalf("day %d: outcome = %v", step.day, result.Outcome)
		}
		if result.ItemIndex != step.itemIndex || result.DayIndex != step.dayIndex || result.PlanID != step.planID {
			t.Fatalf("day %d: position = item %d day %d plan %d, want item %d day %d plan %d",
				step.day, result.ItemIndex, result.DayIndex, result.PlanID,
				step.itemIndex, step.dayIndex, step.planID)
		}
	}
}

func TestHandleCycleOpen_SameDayIdempotent(t *testing.T) {
	t.Parallel()
	ctx, _, svc := newTestService(t)
	profile := newTestProfile(ctx, t, svc, "cycle-idempotent", 0, progression.ModeCycle)
	plan := newPlan(ctx, t, svc, profile.ID, "strength", 3)
	newActiveCycle(ctx, t, svc, profile.ID, []int64{plan.ID})

	if _, err := svc.HandleCycleOpen(ctx, profile.ID, at(0, 8, 0)); err != nil {
		t.Fatalf("HandleCycleOpen failed: %v", err)
	}
	if err := svc.CompleteToday(ctx, profile.ID, at(0, 9, 0)); err != nil {
		t.Fatalf("CompleteToday failed: %v", err)
	}

	for hour := 10; hour < 14; hour++ {
		result, err := svc.HandleCycleOpen(ctx, profile.ID, at(0, hour, 0))
		if err != nil {
			t.Fatalf("HandleCycleOpen failed: %v", err)
		}
		if result.Outcome != progression.OutcomeNoOp || result.DayIndex != 0 {
			t.Fatalf("repeated same-day open = %+v", result)
		}
	}
}

func TestHandleCycleOpen_SameDayIdempotentInNonUTCZone(t *testing.T) {
	t.Parallel()
	ctx, _, svc := newTestService(t)
	profile := newTestProfile(ctx, t, svc, "cycle-timezone", 0, progression.ModeCycle)
	plan, err := svc.CreatePlan(ctx, profile.ID, "strength", []progression.Day{
		{Position: 1, Name: "Rest", IsRestDay: true},
		{Position: 2, Name: "Squat", ExerciseCount: 2},
	})
	if err != nil {
		t.Fatalf("Failed to create plan: %v", err)
	}
	newActiveCycle(ctx, t, svc, profile.ID, []int64{plan.ID})

	// The stored timestamp round-trips in UTC. Opens carry the host zone,
	// so 01:00+03:00 is 22:00 UTC of the previous calendar date; the guard
	// must still treat a later open in the same zone as the same day.
	zone := time.FixedZone("UTC+3", 3*60*60)
	first := time.Date(2024, time.May, 2, 1, 0, 0, 0, zone)

	result, err := svc.HandleCycleOpen(ctx, profile.ID, first)
	if err != nil {
		t.Fatalf("HandleCycleOpen failed: %v", err)
	}
	if result.Outcome != progression.OutcomeNoOp || result.DayIndex != 0 {
		t.Fatalf("first open = %+v", result)
	}

	result, err = svc.HandleCycleOpen(ctx, profile.ID, first.Add(time.Hour))
	if err != nil {
		t.Fatalf("HandleCycleOpen failed: %v", err)
	}
	if result.Outcome != progression.OutcomeNoOp || result.DayIndex != 0 {
		t.Errorf("second open in same program day = %+v", result)
	}
}

func TestHandleCycleOpen_AbsentRecordDoesNotAdvance(t *testing.T) {
	t.Parallel()
	ctx, _, svc := newTestService(t)
	profile := newTestProfile(ctx, t, svc, "cycle-absent", 0, progression.ModeCycle)
	plan := newPlan(ctx, t, svc, profile.ID, "strength", 3)
	newActiveCycle(ctx, t, svc, profile.ID, []int64{plan.ID})

	if _, err := svc.HandleCycleOpen(ctx, profile.ID, at(0, 8, 0)); err != nil {
		t.Fatalf("HandleCycleOpen failed: %v", err)
	}

	result, err := svc.HandleCycleOpen(ctx, profile.ID, at(2, 8, 0))
	if err != nil {
		t.Fatalf("HandleCycleOpen failed: %v", err)
	}
	if result.Outcome != progression.OutcomeNoOp || result.ItemIndex != 0 || result.DayIndex != 0 {
		t.Errorf("open without completion = %+v", result)
	}
}

func TestHandleCycleOpen_AllEmptyCycleTerminates(t *testing.T) {
	t.Parallel()
	ctx, _, svc := newTestService(t)
	profile := newTestProfile(ctx, t, svc, "cycle-all-empty", 0, progression.ModeCycle)
	planA := newPlan(ctx, t, svc, profile.ID, "empty-a", 0)
	planB := newPlan(ctx, t, svc, profile.ID, "empty-b", 0)
	newActiveCycle(ctx, t, svc, profile.ID, []int64{planA.ID, planB.ID})

	result, err := svc.HandleCycleOpen(ctx, profile.ID, at(0, 8, 0))
	if err != nil {
		t.Fatalf("HandleCycleOpen failed: %v", err)
	}
	if result.Outcome != progression.OutcomeInvalid {
		t.Errorf("outcome = %v, want %v", result.Outcome, progression.OutcomeInvalid)
	}
	if result.Day != nil {
		t.Error("expected no resolved day for all-empty cycle")
	}
}

func TestResetCycle(t *testing.T) {
	t.Parallel()
	ctx, _, svc := newTestService(t)
	profile := newTestProfile(ctx, t, svc, "cycle-reset", 0, progression.ModeCycle)
	plan := newPlan(ctx, t, svc, profile.ID, "strength", 3)
	newActiveCycle(ctx, t, svc, profile.ID, []int64{plan.ID})

	// Advance one day in.
	if _, err := svc.HandleCycleOpen(ctx, profile.ID, at(0, 8, 0)); err != nil {
		t.Fatalf("HandleCycleOpen failed: %v", err)
	}
	if err := svc.CompleteToday(ctx, profile.ID, at(0, 9, 0)); err != nil {
		t.Fatalf("CompleteToday failed: %v", err)
	}
	result, err := svc.HandleCycleOpen(ctx, profile.ID, at(1, 8, 0))
	if err != nil {
		t.Fatalf("HandleCycleOpen failed: %v", err)
	}
	if result.DayIndex != 1 {
		t.Fatalf("day index = %d, want 1", result.DayIndex)
	}

	if err = svc.ResetCycle(ctx, profile.ID); err != nil {
		t.Fatalf("ResetCycle failed: %v", err)
	}
	result, err = svc.HandleCycleOpen(ctx, profile.ID, at(1, 9, 0))
	if err != nil {
		t.Fatalf("HandleCycleOpen failed: %v", err)
	}
	if result.Outcome != progression.OutcomeNoOp || result.ItemIndex != 0 || result.DayIndex != 0 {
		t.Errorf("open after reset = %+v", result)
	}
}

func TestDeleteCycleItem_PointerFollowsIdentity(t *testing.T) {
	t.Parallel()
	ctx, _, svc := newTestService(t)
	profile := newTestProfile(ctx, t, svc, "cycle-reindex", 0, progression.ModeCycle)
	planA := newPlan(ctx, t, svc, profile.ID, "a", 1)
	planB := newPlan(ctx, t, svc, profile.ID, "b", 2)
	cycle := newActiveCycle(ctx, t, svc, profile.ID, []int64{planA.ID, planB.ID})

	// Advance the pointer onto the second item.
	if _, err := svc.HandleCycleOpen(ctx, profile.ID, at(0, 8, 0)); err != nil {
		t.Fatalf("HandleCycleOpen failed: %v", err)
	}
	if err := svc.CompleteToday(ctx, profile.ID, at(0, 9, 0)); err != nil {
		t.Fatalf("CompleteToday failed: %v", err)
	}
	result, err := svc.HandleCycleOpen(ctx, profile.ID, at(1, 8, 0))
	if err != nil {
		t.Fatalf("HandleCycleOpen failed: %v", err)
	}
	if result.ItemIndex != 1 || result.PlanID != planB.ID {
		t.Fatalf("position = %+v, want item 1 plan %d", result, planB.ID)
	}

	// Deleting the first item shifts the pointee to position 0.
	if err = svc.DeleteCycleItem(ctx, cycle.ID, cycle.Items[0].ID); err != nil {
		t.Fatalf("DeleteCycleItem failed: %v", err)
	}
	result, err = svc.HandleCycleOpen(ctx, profile.ID, at(1, 9, 0))
	if err != nil {
		t.Fatalf("HandleCycleOpen failed: %v", err)
	}
	if result.ItemIndex != 0 || result.PlanID != planB.ID {
		t.Errorf("position after reindex = item %d plan %d, want item 0 plan %d",
			result.ItemIndex, result.PlanID, planB.ID)
	}
}

func TestChangeCycleDay(t *testing.T) {
	t.Parallel()
	ctx, _, svc := newTestService(t)
	profile := newTestProfile(ctx, t, svc, "cycle-change-day", 0, progression.ModeCycle)
	plan := newPlan(ctx, t, svc, profile.ID, "strength", 3)
	newActiveCycle(ctx, t, svc, profile.ID, []int64{plan.ID})

	if _, err := svc.Today(ctx, profile.ID, at(0, 8, 0)); err != nil {
		t.Fatalf("Today failed: %v", err)
	}

	result, err := svc.ChangeCycleDay(ctx, profile.ID, 2, false, at(0, 9, 0))
	if err != nil {
		t.Fatalf("ChangeCycleDay failed: %v", err)
	}
	if result.Outcome != progression.OutcomeAdvanced || result.DayIndex != 2 {
		t.Errorf("change result = %+v", result)
	}

	// Completed work blocks a further change.
	view, err := svc.Today(ctx, profile.ID, at(0, 10, 0))
	if err != nil {
		t.Fatalf("Today failed: %v", err)
	}
	if err = svc.MarkSet(ctx, profile.ID, view.Date, 1, 1, true); err != nil {
		t.Fatalf("MarkSet failed: %v", err)
	}
	result, err = svc.ChangeCycleDay(ctx, profile.ID, 0, false, at(0, 11, 0))
	if err != nil {
		t.Fatalf("ChangeCycleDay failed: %v", err)
	}
	if result.Outcome != progression.OutcomeInvalid {
		t.Errorf("outcome = %v, want %v", result.Outcome, progression.OutcomeInvalid)
	}
}
