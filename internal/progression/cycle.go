package progression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// CreateCycle creates a cycle rotating through the given plans in order.
func (s *Service) CreateCycle(ctx context.Context, profileID int64, name string, planIDs []int64) (Cycle, error) {
	cycle, err := s.repo.cycles.Create(ctx, profileID, name, planIDs)
	if err != nil {
		return Cycle{}, fmt.Errorf("create cycle: %w", err)
	}
	return cycle, nil
}

// GetCycle retrieves a cycle with its items.
func (s *Service) GetCycle(ctx context.Context, cycleID int64) (Cycle, error) {
	cycle, err := s.repo.cycles.Get(ctx, cycleID)
	if err != nil {
		return Cycle{}, fmt.Errorf("get cycle: %w", err)
	}
	return cycle, nil
}

// ListCycles retrieves a profile's cycles.
func (s *Service) ListCycles(ctx context.Context, profileID int64) ([]Cycle, error) {
	cycles, err := s.repo.cycles.List(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	return cycles, nil
}

// ActivateCycle marks the cycle as the profile's active cycle.
func (s *Service) ActivateCycle(ctx context.Context, profileID, cycleID int64) error {
	if err := s.repo.cycles.Activate(ctx, profileID, cycleID); err != nil {
		return fmt.Errorf("activate cycle: %w", err)
	}
	return nil
}

// DeleteCycle removes a cycle with its items and progress.
func (s *Service) DeleteCycle(ctx context.Context, cycleID int64) error {
	if err := s.repo.cycles.Delete(ctx, cycleID); err != nil {
		return fmt.Errorf("delete cycle: %w", err)
	}
	return nil
}

// AddCycleItem inserts a plan reference into a cycle, reconciling the
// stored item pointer.
func (s *Service) AddCycleItem(ctx context.Context, cycleID int64, item CycleItem) (CycleItem, error) {
	added, err := s.repo.cycles.AddItem(ctx, cycleID, item)
	if err != nil {
		return CycleItem{}, fmt.Errorf("add cycle item: %w", err)
	}
	return added, nil
}

// DeleteCycleItem removes a plan reference from a cycle, reconciling the
// stored item pointer.
func (s *Service) DeleteCycleItem(ctx context.Context, cycleID int64, itemID uuid.UUID) error {
	if err := s.repo.cycles.DeleteItem(ctx, cycleID, itemID); err != nil {
		return fmt.Errorf("delete cycle item: %w", err)
	}
	return nil
}

// ReorderCycleItems rearranges a cycle's items, reconciling the stored item
// pointer.
func (s *Service) ReorderCycleItems(ctx context.Context, cycleID int64, orderedIDs []uuid.UUID) error {
	if err := s.repo.cycles.ReorderItems(ctx, cycleID, orderedIDs); err != nil {
		return fmt.Errorf("reorder cycle items: %w", err)
	}
	return nil
}

// ResetCycle rewinds the active cycle to its first item's first day.
func (s *Service) ResetCycle(ctx context.Context, profileID int64) error {
	cycle, err := s.repo.cycles.ActiveForProfile(ctx, profileID)
	if err != nil {
		return fmt.Errorf("get active cycle: %w", err)
	}

	unlock := s.locks.lock(progressKey{profileID: profileID, cycleID: cycle.ID})
	defer unlock()

	if _, _, err = s.repo.progress.GetOrCreateCycleProgress(ctx, cycle.ID); err != nil {
		return fmt.Errorf("get cycle progress: %w", err)
	}
	if err = s.repo.progress.ResetCycleProgress(ctx, cycle.ID); err != nil {
		return fmt.Errorf("reset cycle progress: %w", err)
	}
	return nil
}

// cyclePlans loads the plans referenced by the cycle's items. Deleted plans
// are simply missing from the map.
func (s *Service) cyclePlans(ctx context.Context, cycle Cycle) (map[int64]Plan, error) {
	plans := make(map[int64]Plan)
	for _, item := range cycle.Items {
		if item.PlanID == 0 {
			continue
		}
		if _, ok := plans[item.PlanID]; ok {
			continue
		}
		plan, err := s.repo.plans.Get(ctx, item.PlanID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get cycle plan: %w", err)
		}
		plans[item.PlanID] = plan
	}
	return plans, nil
}

func cycleDayCount(plans map[int64]Plan) func(item CycleItem) int {
	return func(item CycleItem) int {
		return len(plans[item.PlanID].Days)
	}
}

// HandleCycleOpen runs the open-time rotation transition for the profile's
// active cycle and returns the day to display.
//
// The rotation advances the day pointer within the current item's plan and
// rolls over to the next item when the plan is exhausted, skipping items
// whose plans were deleted or emptied. lastAdvancedAt's program day is the
// same-day idempotency guard.
func (s *Service) HandleCycleOpen(ctx context.Context, profileID int64, now time.Time) (CycleOpenResult, error) {
	profile, err := s.repo.profiles.Get(ctx, profileID)
	if err != nil {
		return CycleOpenResult{}, fmt.Errorf("get profile: %w", err)
	}
	cycle, err := s.repo.cycles.ActiveForProfile(ctx, profileID)
	if err != nil {
		return CycleOpenResult{}, fmt.Errorf("get active cycle: %w", err)
	}

	unlock := s.locks.lock(progressKey{profileID: profileID, cycleID: cycle.ID})
	defer unlock()

	plans, err := s.cyclePlans(ctx, cycle)
	if err != nil {
		return CycleOpenResult{}, err
	}
	dayCount := cycleDayCount(plans)

	progress, created, err := s.repo.progress.GetOrCreateCycleProgress(ctx, cycle.ID)
	if err != nil {
		return CycleOpenResult{}, fmt.Errorf("get cycle progress: %w", err)
	}

	today := ProgramDay(now, profile.BoundaryHour)
	pos := cyclePosition{itemIndex: progress.CurrentItemIndex, dayIndex: progress.CurrentDayIndex}

	resolved, ok := resolveCyclePosition(cycle.Items, dayCount, pos)
	if !ok {
		// No item references a non-empty plan. Nothing to display.
		return CycleOpenResult{Outcome: OutcomeInvalid}, nil
	}

	// First run: start at the resolved position without advancing.
	if created || progress.LastAdvancedAt.IsZero() {
		if err = s.saveCycleProgress(ctx, cycle.ID, resolved, now); err != nil {
			return CycleOpenResult{}, err
		}
		return s.cycleResult(OutcomeNoOp, cycle, plans, resolved, Date{}), nil
	}

	// LastAdvancedAt round-trips through storage in UTC while now carries
	// the host zone. Both sides of the same-day guard must read their hour
	// in the same location.
	lastOpenDay := ProgramDay(progress.LastAdvancedAt.In(now.Location()), profile.BoundaryHour)
	if lastOpenDay.Equal(today) {
		return s.cycleResult(OutcomeNoOp, cycle, plans, resolved, Date{}), nil
	}

	// A day boundary has passed. Check what happened to the previously
	// displayed day before rotating.
	prevPlan := plans[cycle.Items[resolved.itemIndex].PlanID]
	previous := prevPlan.Days[resolved.dayIndex]
	outcome := OutcomeNoOp
	var stale Date
	if previous.IsRestDay {
		outcome = OutcomeAdvanced
	} else {
		var status RecordStatus
		status, err = s.repo.records.Status(ctx, profileID, prevPlan.ID, lastOpenDay)
		if err != nil {
			return CycleOpenResult{}, fmt.Errorf("record status: %w", err)
		}
		switch status {
		case RecordComplete:
			outcome = OutcomeAdvanced
		case RecordIncomplete:
			stale = lastOpenDay
		case RecordAbsent:
		}
	}

	next := resolved
	if outcome == OutcomeAdvanced {
		next, outcome = advanceCyclePosition(cycle.Items, dayCount, resolved)
		if outcome == OutcomeInvalid {
			// The rotation found no valid plan; keep the old position.
			next = resolved
		}
	}

	if err = s.saveCycleProgress(ctx, cycle.ID, next, now); err != nil {
		return CycleOpenResult{}, err
	}
	if !stale.IsZero() {
		if err = s.repo.records.Delete(ctx, profileID, prevPlan.ID, stale); err != nil {
			return CycleOpenResult{}, fmt.Errorf("delete stale record: %w", err)
		}
		s.logger.LogAttrs(ctx, slog.LevelInfo, "deleted stale incomplete record",
			slog.Int64("profile_id", profileID),
			slog.Int64("plan_id", prevPlan.ID),
			slog.String("date", stale.String()))
	}
	return s.cycleResult(outcome, cycle, plans, next, stale), nil
}

func (s *Service) saveCycleProgress(ctx context.Context, cycleID int64, pos cyclePosition, now time.Time) error {
	err := s.repo.progress.UpdateCycleProgress(ctx, cycleID, func(progress *CycleProgress) (bool, error) {
		progress.CurrentItemIndex = pos.itemIndex
		progress.CurrentDayIndex = pos.dayIndex
		progress.LastAdvancedAt = now
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("save cycle progress: %w", err)
	}
	return nil
}

func (s *Service) cycleResult(
	outcome Outcome,
	cycle Cycle,
	plans map[int64]Plan,
	pos cyclePosition,
	stale Date,
) CycleOpenResult {
	result := CycleOpenResult{
		Outcome:         outcome,
		ItemIndex:       pos.itemIndex,
		DayIndex:        pos.dayIndex,
		StaleRecordDate: stale,
	}
	if pos.itemIndex < len(cycle.Items) {
		plan, ok := plans[cycle.Items[pos.itemIndex].PlanID]
		if ok && pos.dayIndex < len(plan.Days) {
			result.PlanID = plan.ID
			result.Day = &plan.Days[pos.dayIndex]
		}
	}
	return result
}

// ChangeCycleDay manually switches today's displayed day within the active
// cycle's current plan. Rejected when today's workout already has completed
// sets. newDayIndex is 0-based. With skipAndAdvance the rotation moves one
// step past the chosen day.
func (s *Service) ChangeCycleDay(
	ctx context.Context,
	profileID int64,
	newDayIndex int,
	skipAndAdvance bool,
	now time.Time,
) (ChangeDayResult, error) {
	profile, err := s.repo.profiles.Get(ctx, profileID)
	if err != nil {
		return ChangeDayResult{}, fmt.Errorf("get profile: %w", err)
	}
	cycle, err := s.repo.cycles.ActiveForProfile(ctx, profileID)
	if err != nil {
		return ChangeDayResult{}, fmt.Errorf("get active cycle: %w", err)
	}

	unlock := s.locks.lock(progressKey{profileID: profileID, cycleID: cycle.ID})
	defer unlock()

	plans, err := s.cyclePlans(ctx, cycle)
	if err != nil {
		return ChangeDayResult{}, err
	}
	dayCount := cycleDayCount(plans)

	progress, _, err := s.repo.progress.GetOrCreateCycleProgress(ctx, cycle.ID)
	if err != nil {
		return ChangeDayResult{}, fmt.Errorf("get cycle progress: %w", err)
	}
	pos := cyclePosition{itemIndex: progress.CurrentItemIndex, dayIndex: progress.CurrentDayIndex}
	resolved, ok := resolveCyclePosition(cycle.Items, dayCount, pos)
	if !ok {
		return ChangeDayResult{Outcome: OutcomeInvalid}, nil
	}

	plan := plans[cycle.Items[resolved.itemIndex].PlanID]
	total := len(plan.Days)
	if newDayIndex < 0 || newDayIndex >= total {
		return ChangeDayResult{Outcome: OutcomeInvalid}, nil
	}

	today := ProgramDay(now, profile.BoundaryHour)
	completedSets, err := s.repo.records.CompletedSetCount(ctx, profileID, plan.ID, today)
	if err != nil {
		return ChangeDayResult{}, fmt.Errorf("completed set count: %w", err)
	}
	if completedSets > 0 {
		return ChangeDayResult{
			Outcome:  OutcomeInvalid,
			DayIndex: resolved.dayIndex,
			Day:      &plan.Days[resolved.dayIndex],
		}, nil
	}

	if err = s.repo.records.Delete(ctx, profileID, plan.ID, today); err != nil {
		return ChangeDayResult{}, fmt.Errorf("delete record: %w", err)
	}
	target := plan.Days[newDayIndex]
	if err = s.repo.records.Materialize(ctx, profileID, plan.ID, today, target); err != nil {
		return ChangeDayResult{}, fmt.Errorf("materialize record: %w", err)
	}

	next := cyclePosition{itemIndex: resolved.itemIndex, dayIndex: newDayIndex}
	if skipAndAdvance {
		advanced, outcome := advanceCyclePosition(cycle.Items, dayCount, next)
		if outcome == OutcomeAdvanced {
			next = advanced
		}
	}
	if err = s.saveCycleProgress(ctx, cycle.ID, next, now); err != nil {
		return ChangeDayResult{}, err
	}
	return ChangeDayResult{Outcome: OutcomeAdvanced, DayIndex: newDayIndex, Day: &target}, nil
}

// currentCycleDay resolves the active cycle's current plan and day without
// advancing anything. Record operations in cycle mode target this plan.
func (s *Service) currentCycleDay(ctx context.Context, profileID int64) (Plan, Day, error) {
	cycle, err := s.repo.cycles.ActiveForProfile(ctx, profileID)
	if err != nil {
		return Plan{}, Day{}, fmt.Errorf("get active cycle: %w", err)
	}
	plans, err := s.cyclePlans(ctx, cycle)
	if err != nil {
		return Plan{}, Day{}, err
	}
	progress, _, err := s.repo.progress.GetOrCreateCycleProgress(ctx, cycle.ID)
	if err != nil {
		return Plan{}, Day{}, fmt.Errorf("get cycle progress: %w", err)
	}
	pos := cyclePosition{itemIndex: progress.CurrentItemIndex, dayIndex: progress.CurrentDayIndex}
	resolved, ok := resolveCyclePosition(cycle.Items, cycleDayCount(plans), pos)
	if !ok {
		return Plan{}, Day{}, fmt.Errorf("cycle %d has no valid plan: %w", cycle.ID, ErrNotFound)
	}
	plan := plans[cycle.Items[resolved.itemIndex].PlanID]
	return plan, plan.Days[resolved.dayIndex], nil
}

// previewCycle forecasts the cycle's day pointer within the current item's
// plan. The projection stays within the current plan; rolling over into the
// next item is an open-time concern.
func (s *Service) previewCycle(ctx context.Context, profileID int64, daysDifference int) (PreviewResult, error) {
	cycle, err := s.repo.cycles.ActiveForProfile(ctx, profileID)
	if err != nil {
		return PreviewResult{}, fmt.Errorf("get active cycle: %w", err)
	}
	plans, err := s.cyclePlans(ctx, cycle)
	if err != nil {
		return PreviewResult{}, err
	}
	dayCount := cycleDayCount(plans)

	// Read without creating: the projection must not touch stored state.
	progress, err := s.repo.progress.getCycleProgress(ctx, cycle.ID)
	if errors.Is(err, ErrNotFound) {
		progress = CycleProgress{CycleID: cycle.ID}
	} else if err != nil {
		return PreviewResult{}, fmt.Errorf("get cycle progress: %w", err)
	}
	pos := cyclePosition{itemIndex: progress.CurrentItemIndex, dayIndex: progress.CurrentDayIndex}
	resolved, ok := resolveCyclePosition(cycle.Items, dayCount, pos)
	if !ok {
		return PreviewResult{DayIndex: -1}, nil
	}

	plan := plans[cycle.Items[resolved.itemIndex].PlanID]
	idx := PreviewCycleDayIndex(resolved.dayIndex, len(plan.Days), daysDifference)
	if idx < 0 {
		return PreviewResult{DayIndex: -1}, nil
	}
	return PreviewResult{DayIndex: idx, Day: &plan.Days[idx]}, nil
}
