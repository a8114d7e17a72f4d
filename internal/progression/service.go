package progression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/progapp/internal/sqlite"
)

// Service handles the business logic for training-program progression.
type Service struct {
	repo   *repository
	logger *slog.Logger
	locks  *keyedMutex
}

// NewService creates a new progression service.
func NewService(db *sqlite.Database, logger *slog.Logger) *Service {
	factory := newRepositoryFactory(db, logger)
	return &Service{
		repo:   factory.newRepository(),
		logger: logger,
		locks:  newKeyedMutex(),
	}
}

// CreateProfile creates a profile.
func (s *Service) CreateProfile(ctx context.Context, name string, boundaryHour int, mode Mode) (Profile, error) {
	profile, err := s.repo.profiles.Create(ctx, name, boundaryHour, mode)
	if err != nil {
		return Profile{}, fmt.Errorf("create profile: %w", err)
	}
	return profile, nil
}

// GetProfile retrieves a profile by ID.
func (s *Service) GetProfile(ctx context.Context, id int64) (Profile, error) {
	profile, err := s.repo.profiles.Get(ctx, id)
	if err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// GetProfileByName retrieves a profile by its unique name.
func (s *Service) GetProfileByName(ctx context.Context, name string) (Profile, error) {
	profile, err := s.repo.profiles.GetByName(ctx, name)
	if err != nil {
		return Profile{}, fmt.Errorf("get profile by name: %w", err)
	}
	return profile, nil
}

// ListProfiles retrieves all profiles.
func (s *Service) ListProfiles(ctx context.Context) ([]Profile, error) {
	profiles, err := s.repo.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// SetMode switches the profile between plan and cycle progression.
func (s *Service) SetMode(ctx context.Context, profileID int64, mode Mode) error {
	err := s.repo.profiles.Update(ctx, profileID, func(profile *Profile) (bool, error) {
		if profile.Mode == mode {
			return false, nil
		}
		profile.Mode = mode
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("set profile mode: %w", err)
	}
	return nil
}

// SetBoundaryHour reconfigures which hour starts a new program day.
func (s *Service) SetBoundaryHour(ctx context.Context, profileID int64, boundaryHour int) error {
	if boundaryHour < 0 || boundaryHour > 23 {
		return fmt.Errorf("boundary hour %d out of range", boundaryHour)
	}
	err := s.repo.profiles.Update(ctx, profileID, func(profile *Profile) (bool, error) {
		if profile.BoundaryHour == boundaryHour {
			return false, nil
		}
		profile.BoundaryHour = boundaryHour
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("set boundary hour: %w", err)
	}
	return nil
}

// CreatePlan creates a plan with the given days for a profile.
func (s *Service) CreatePlan(ctx context.Context, profileID int64, name string, days []Day) (Plan, error) {
	plan, err := s.repo.plans.Create(ctx, profileID, name, days)
	if err != nil {
		return Plan{}, fmt.Errorf("create plan: %w", err)
	}
	return plan, nil
}

// GetPlan retrieves a plan with its days.
func (s *Service) GetPlan(ctx context.Context, planID int64) (Plan, error) {
	plan, err := s.repo.plans.Get(ctx, planID)
	if err != nil {
		return Plan{}, fmt.Errorf("get plan: %w", err)
	}
	return plan, nil
}

// ListPlans retrieves a profile's plans.
func (s *Service) ListPlans(ctx context.Context, profileID int64) ([]Plan, error) {
	plans, err := s.repo.plans.List(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

// ActivatePlan marks the plan as the profile's active plan.
func (s *Service) ActivatePlan(ctx context.Context, profileID, planID int64) error {
	if err := s.repo.plans.Activate(ctx, profileID, planID); err != nil {
		return fmt.Errorf("activate plan: %w", err)
	}
	return nil
}

// RenamePlan updates the plan's name.
func (s *Service) RenamePlan(ctx context.Context, planID int64, name string) error {
	if err := s.repo.plans.Rename(ctx, planID, name); err != nil {
		return fmt.Errorf("rename plan: %w", err)
	}
	return nil
}

// DeletePlan removes a plan with its days, progress, and records.
func (s *Service) DeletePlan(ctx context.Context, planID int64) error {
	if err := s.repo.plans.Delete(ctx, planID); err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return nil
}

// AddDay inserts a day into a plan, reconciling the stored day pointer.
func (s *Service) AddDay(ctx context.Context, planID int64, day Day) (Day, error) {
	added, err := s.repo.plans.AddDay(ctx, planID, day)
	if err != nil {
		return Day{}, fmt.Errorf("add day: %w", err)
	}
	return added, nil
}

// UpdateDay applies updateFn to a day of a plan.
func (s *Service) UpdateDay(ctx context.Context, planID int64, dayID uuid.UUID, updateFn func(day *Day) (bool, error)) error {
	if err := s.repo.plans.UpdateDay(ctx, planID, dayID, updateFn); err != nil {
		return fmt.Errorf("update day: %w", err)
	}
	return nil
}

// DeleteDay removes a day from a plan, reconciling the stored day pointer.
func (s *Service) DeleteDay(ctx context.Context, planID int64, dayID uuid.UUID) error {
	if err := s.repo.plans.DeleteDay(ctx, planID, dayID); err != nil {
		return fmt.Errorf("delete day: %w", err)
	}
	return nil
}

// ReorderDays rearranges a plan's days, reconciling the stored day pointer.
func (s *Service) ReorderDays(ctx context.Context, planID int64, orderedIDs []uuid.UUID) error {
	if err := s.repo.plans.ReorderDays(ctx, planID, orderedIDs); err != nil {
		return fmt.Errorf("reorder days: %w", err)
	}
	return nil
}

// HandleOpen runs the open-time day-advancement transition for the
// profile's active plan and returns the day to display.
//
// The transition is serialized per (profile, plan): repeated opens within
// the same program day are no-ops, a passed day boundary advances the
// pointer only when the previously displayed day was a rest day or its
// workout record is complete, and a stale incomplete record is deleted so
// the same day can be offered again.
func (s *Service) HandleOpen(ctx context.Context, profileID int64, now time.Time) (OpenResult, error) {
	profile, err := s.repo.profiles.Get(ctx, profileID)
	if err != nil {
		return OpenResult{}, fmt.Errorf("get profile: %w", err)
	}
	plan, err := s.repo.plans.ActiveForProfile(ctx, profileID)
	if errors.Is(err, ErrNotFound) {
		// No active plan behaves like an empty plan: nothing to display.
		return OpenResult{Outcome: OutcomeNoOp}, nil
	}
	if err != nil {
		return OpenResult{}, fmt.Errorf("get active plan: %w", err)
	}

	unlock := s.locks.lock(progressKey{profileID: profileID, planID: plan.ID})
	defer unlock()

	today := ProgramDay(now, profile.BoundaryHour)
	result, err := s.openPlan(ctx, profileID, plan, today)
	if err != nil {
		return OpenResult{}, err
	}

	if !result.StaleRecordDate.IsZero() {
		if err = s.repo.records.Delete(ctx, profileID, plan.ID, result.StaleRecordDate); err != nil {
			return OpenResult{}, fmt.Errorf("delete stale record: %w", err)
		}
		s.logger.LogAttrs(ctx, slog.LevelInfo, "deleted stale incomplete record",
			slog.Int64("profile_id", profileID),
			slog.Int64("plan_id", plan.ID),
			slog.String("date", result.StaleRecordDate.String()))
	}
	return result, nil
}

// openPlan is the open-time transition over (currentDayIndex,
// lastOpenedDate). The caller holds the progress lock.
func (s *Service) openPlan(ctx context.Context, profileID int64, plan Plan, today Date) (OpenResult, error) {
	total := len(plan.Days)
	if total == 0 {
		// Empty plan: nothing to display and nothing to mutate.
		return OpenResult{Outcome: OutcomeNoOp}, nil
	}

	progress, created, err := s.repo.progress.GetOrCreatePlanProgress(ctx, profileID, plan.ID)
	if err != nil {
		return OpenResult{}, fmt.Errorf("get plan progress: %w", err)
	}

	// First run: start at day one without advancing.
	if created || progress.LastOpenedDate.IsZero() {
		idx := clampDayIndex(progress.CurrentDayIndex, total)
		if err = s.savePlanProgress(ctx, profileID, plan.ID, idx, today, nil); err != nil {
			return OpenResult{}, err
		}
		return OpenResult{Outcome: OutcomeNoOp, DayIndex: idx, Day: &plan.Days[idx-1]}, nil
	}

	idx := clampDayIndex(progress.CurrentDayIndex, total)

	// Same program day as the last open: idempotent no matter how often
	// the app comes to the foreground.
	if progress.LastOpenedDate.Equal(today) {
		return OpenResult{Outcome: OutcomeNoOp, DayIndex: idx, Day: &plan.Days[idx-1]}, nil
	}

	// A day boundary has passed. Whether we advance depends on what
	// happened to the previously displayed day.
	previous := plan.Days[idx-1]
	outcome := OutcomeNoOp
	var stale Date
	if previous.IsRestDay {
		// A rest day always auto-completes.
		outcome = OutcomeAdvanced
	} else {
		var status RecordStatus
		status, err = s.repo.records.Status(ctx, profileID, plan.ID, progress.LastOpenedDate)
		if err != nil {
			return OpenResult{}, fmt.Errorf("record status: %w", err)
		}
		switch status {
		case RecordComplete:
			outcome = OutcomeAdvanced
		case RecordIncomplete:
			// A half-finished record must not block re-offering the day.
			stale = progress.LastOpenedDate
		case RecordAbsent:
			// The user never started that day.
		}
	}

	if outcome == OutcomeAdvanced {
		idx = nextDayIndex(idx, total)
	}
	if err = s.savePlanProgress(ctx, profileID, plan.ID, idx, today, nil); err != nil {
		return OpenResult{}, err
	}
	return OpenResult{Outcome: outcome, DayIndex: idx, Day: &plan.Days[idx-1], StaleRecordDate: stale}, nil
}

func (s *Service) savePlanProgress(
	ctx context.Context,
	profileID, planID int64,
	dayIndex int,
	openedDate Date,
	completedDate *Date,
) error {
	err := s.repo.progress.UpdatePlanProgress(ctx, profileID, planID, func(progress *PlanProgress) (bool, error) {
		progress.CurrentDayIndex = dayIndex
		if !openedDate.IsZero() {
			progress.LastOpenedDate = openedDate
		}
		if completedDate != nil {
			progress.LastCompletedDate = *completedDate
		}
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("save plan progress: %w", err)
	}
	return nil
}

// RecordCompletion backfills a completion for a past program day.
//
// The pointer advances exactly once per strictly newer completion date, so
// replaying the same date or logging an older day never double-advances or
// regresses progress. Advancement happens here instead of at the next open
// precisely because the backfilled day is not the day the open-time
// transition would check.
func (s *Service) RecordCompletion(ctx context.Context, profileID int64, completionDate Date) (OpenResult, error) {
	plan, err := s.repo.plans.ActiveForProfile(ctx, profileID)
	if err != nil {
		return OpenResult{}, fmt.Errorf("get active plan: %w", err)
	}

	unlock := s.locks.lock(progressKey{profileID: profileID, planID: plan.ID})
	defer unlock()

	total := len(plan.Days)
	if total == 0 {
		return OpenResult{Outcome: OutcomeNoOp}, nil
	}

	progress, _, err := s.repo.progress.GetOrCreatePlanProgress(ctx, profileID, plan.ID)
	if err != nil {
		return OpenResult{}, fmt.Errorf("get plan progress: %w", err)
	}

	idx := clampDayIndex(progress.CurrentDayIndex, total)
	if !progress.LastCompletedDate.IsZero() && !completionDate.After(progress.LastCompletedDate) {
		// Already counted a completion at least this recent.
		return OpenResult{Outcome: OutcomeNoOp, DayIndex: idx, Day: &plan.Days[idx-1]}, nil
	}

	if err = s.repo.records.Complete(ctx, profileID, plan.ID, completionDate, Day{}, time.Now()); err != nil {
		return OpenResult{}, fmt.Errorf("complete record: %w", err)
	}

	idx = nextDayIndex(idx, total)
	if err = s.savePlanProgress(ctx, profileID, plan.ID, idx, Date{}, &completionDate); err != nil {
		return OpenResult{}, err
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "backfilled completion",
		slog.Int64("profile_id", profileID),
		slog.Int64("plan_id", plan.ID),
		slog.String("date", completionDate.String()),
		slog.Int("day_index", idx))
	return OpenResult{Outcome: OutcomeAdvanced, DayIndex: idx, Day: &plan.Days[idx-1]}, nil
}

// CompleteToday marks today's workout record complete. The pointer itself
// moves at the next open; raising lastCompletedDate here keeps a later
// backfill of an older day from advancing on top of this completion.
func (s *Service) CompleteToday(ctx context.Context, profileID int64, now time.Time) error {
	profile, err := s.repo.profiles.Get(ctx, profileID)
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	if profile.Mode == ModeCycle {
		plan, day, cycleErr := s.currentCycleDay(ctx, profileID)
		if cycleErr != nil {
			return cycleErr
		}
		today := ProgramDay(now, profile.BoundaryHour)
		if err = s.repo.records.Complete(ctx, profileID, plan.ID, today, day, now); err != nil {
			return fmt.Errorf("complete record: %w", err)
		}
		return nil
	}

	plan, err := s.repo.plans.ActiveForProfile(ctx, profileID)
	if err != nil {
		return fmt.Errorf("get active plan: %w", err)
	}

	unlock := s.locks.lock(progressKey{profileID: profileID, planID: plan.ID})
	defer unlock()

	total := len(plan.Days)
	if total == 0 {
		return fmt.Errorf("plan %d has no days: %w", plan.ID, ErrNotFound)
	}

	progress, _, err := s.repo.progress.GetOrCreatePlanProgress(ctx, profileID, plan.ID)
	if err != nil {
		return fmt.Errorf("get plan progress: %w", err)
	}
	idx := clampDayIndex(progress.CurrentDayIndex, total)
	today := ProgramDay(now, profile.BoundaryHour)

	if err = s.repo.records.Complete(ctx, profileID, plan.ID, today, plan.Days[idx-1], now); err != nil {
		return fmt.Errorf("complete record: %w", err)
	}

	if progress.LastCompletedDate.IsZero() || today.After(progress.LastCompletedDate) {
		if err = s.savePlanProgress(ctx, profileID, plan.ID, idx, Date{}, &today); err != nil {
			return err
		}
	}
	return nil
}

// MarkSet records a single set of today's workout as done or not done.
func (s *Service) MarkSet(
	ctx context.Context,
	profileID int64,
	date Date,
	exerciseIndex, setNumber int,
	completed bool,
) error {
	planID, err := s.recordPlanID(ctx, profileID)
	if err != nil {
		return err
	}
	if err = s.repo.records.MarkSet(ctx, profileID, planID, date, exerciseIndex, setNumber, completed); err != nil {
		return fmt.Errorf("mark set: %w", err)
	}
	return nil
}

// GetRecord retrieves the workout record for a program day of the plan the
// profile is currently progressing through.
func (s *Service) GetRecord(ctx context.Context, profileID int64, date Date) (Record, error) {
	planID, err := s.recordPlanID(ctx, profileID)
	if err != nil {
		return Record{}, err
	}
	record, err := s.repo.records.Get(ctx, profileID, planID, date)
	if err != nil {
		return Record{}, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// recordPlanID resolves which plan record operations target: the active
// plan in plan mode, the current item's plan in cycle mode.
func (s *Service) recordPlanID(ctx context.Context, profileID int64) (int64, error) {
	profile, err := s.repo.profiles.Get(ctx, profileID)
	if err != nil {
		return 0, fmt.Errorf("get profile: %w", err)
	}
	if profile.Mode == ModeCycle {
		plan, _, cycleErr := s.currentCycleDay(ctx, profileID)
		if cycleErr != nil {
			return 0, cycleErr
		}
		return plan.ID, nil
	}
	plan, err := s.repo.plans.ActiveForProfile(ctx, profileID)
	if err != nil {
		return 0, fmt.Errorf("get active plan: %w", err)
	}
	return plan.ID, nil
}

// ChangeDay manually switches today's displayed day. The change is rejected
// when today's workout already has completed sets, because a manual
// override must never discard recorded work. With skipAndAdvance the
// pointer lands one past the chosen day so the next natural open continues
// forward instead of repeating it.
func (s *Service) ChangeDay(
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
	plan, err := s.repo.plans.ActiveForProfile(ctx, profileID)
	if err != nil {
		return ChangeDayResult{}, fmt.Errorf("get active plan: %w", err)
	}

	unlock := s.locks.lock(progressKey{profileID: profileID, planID: plan.ID})
	defer unlock()

	total := len(plan.Days)
	if total == 0 || newDayIndex < 1 || newDayIndex > total {
		return ChangeDayResult{Outcome: OutcomeInvalid}, nil
	}

	today := ProgramDay(now, profile.BoundaryHour)
	completedSets, err := s.repo.records.CompletedSetCount(ctx, profileID, plan.ID, today)
	if err != nil {
		return ChangeDayResult{}, fmt.Errorf("completed set count: %w", err)
	}
	if completedSets > 0 {
		progress, _, progressErr := s.repo.progress.GetOrCreatePlanProgress(ctx, profileID, plan.ID)
		if progressErr != nil {
			return ChangeDayResult{}, fmt.Errorf("get plan progress: %w", progressErr)
		}
		idx := clampDayIndex(progress.CurrentDayIndex, total)
		return ChangeDayResult{Outcome: OutcomeInvalid, DayIndex: idx, Day: &plan.Days[idx-1]}, nil
	}

	// Replace today's record with a fresh one for the chosen day.
	if err = s.repo.records.Delete(ctx, profileID, plan.ID, today); err != nil {
		return ChangeDayResult{}, fmt.Errorf("delete record: %w", err)
	}
	target := plan.Days[newDayIndex-1]
	if err = s.repo.records.Materialize(ctx, profileID, plan.ID, today, target); err != nil {
		return ChangeDayResult{}, fmt.Errorf("materialize record: %w", err)
	}

	pointer := newDayIndex
	if skipAndAdvance {
		pointer = nextDayIndex(newDayIndex, total)
	}
	if _, _, err = s.repo.progress.GetOrCreatePlanProgress(ctx, profileID, plan.ID); err != nil {
		return ChangeDayResult{}, fmt.Errorf("get plan progress: %w", err)
	}
	if err = s.savePlanProgress(ctx, profileID, plan.ID, pointer, today, nil); err != nil {
		return ChangeDayResult{}, err
	}
	return ChangeDayResult{Outcome: OutcomeAdvanced, DayIndex: newDayIndex, Day: &target}, nil
}

// PreviewResult is a pure forecast of a future or past day.
type PreviewResult struct {
	// DayIndex is 1-based for plan mode and 0-based for cycle mode.
	DayIndex int
	Day      *Day
}

// Preview forecasts which day is active daysDifference days away without
// touching stored progress.
func (s *Service) Preview(ctx context.Context, profileID int64, daysDifference int) (PreviewResult, error) {
	profile, err := s.repo.profiles.Get(ctx, profileID)
	if err != nil {
		return PreviewResult{}, fmt.Errorf("get profile: %w", err)
	}
	if profile.Mode == ModeCycle {
		return s.previewCycle(ctx, profileID, daysDifference)
	}

	plan, err := s.repo.plans.ActiveForProfile(ctx, profileID)
	if errors.Is(err, ErrNotFound) {
		return PreviewResult{}, nil
	}
	if err != nil {
		return PreviewResult{}, fmt.Errorf("get active plan: %w", err)
	}
	total := len(plan.Days)
	if total == 0 {
		return PreviewResult{}, nil
	}
	// Read without creating: the projection must not touch stored state.
	progress, err := s.repo.progress.getPlanProgress(ctx, profileID, plan.ID)
	if errors.Is(err, ErrNotFound) {
		progress = PlanProgress{CurrentDayIndex: 1}
	} else if err != nil {
		return PreviewResult{}, fmt.Errorf("get plan progress: %w", err)
	}
	idx := PreviewDayIndex(progress.CurrentDayIndex, total, daysDifference)
	if idx == 0 {
		return PreviewResult{}, nil
	}
	return PreviewResult{DayIndex: idx, Day: &plan.Days[idx-1]}, nil
}
