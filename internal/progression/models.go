package progression

import (
	"time"

	"github.com/google/uuid"
)

// Mode selects which progression state machine drives a profile's "today".
type Mode string

const (
	// ModePlan follows a single active plan.
	ModePlan Mode = "plan"
	// ModeCycle rotates through the plans referenced by the active cycle.
	ModeCycle Mode = "cycle"
)

// Profile is the owner of plans, cycles, and progression state.
type Profile struct {
	ID   int64
	Name string
	// BoundaryHour shifts which calendar date a timestamp belongs to, see ProgramDay.
	BoundaryHour int
	Mode         Mode
}

// Day is a single scheduled day within a plan. The ID is stable for the
// lifetime of the day and anchors pointer re-resolution when positions shift.
type Day struct {
	ID        uuid.UUID
	Position  int // 1-based within the plan
	Name      string
	IsRestDay bool
	// ExerciseCount 0 means the day is empty and never advances.
	ExerciseCount int
}

// Plan is an ordered, mutable sequence of days belonging to one profile.
type Plan struct {
	ID        int64
	ProfileID int64
	Name      string
	Active    bool
	Days      []Day
}

// CycleItem references a plan by id from within a cycle. PlanID 0 means the
// referenced plan was deleted; the rotation skips such items.
type CycleItem struct {
	ID       uuid.UUID
	Position int // 0-based within the cycle
	PlanID   int64
}

// Cycle is an ordered sequence of plan references rotated through over time.
type Cycle struct {
	ID        int64
	ProfileID int64
	Name      string
	Active    bool
	Items     []CycleItem
}

// PlanProgress is the single-plan state machine state for one (profile, plan).
type PlanProgress struct {
	ProfileID int64
	PlanID    int64
	// CurrentDayIndex is a 1-based position into the plan's days.
	CurrentDayIndex int
	// LastOpenedDate is the program day of the last open, zero when never opened.
	LastOpenedDate Date
	// LastCompletedDate is the most recent confirmed completion and only
	// moves forward.
	LastCompletedDate Date
}

// CycleProgress is the rotation state for one cycle.
type CycleProgress struct {
	CycleID int64
	// CurrentItemIndex is a 0-based position into the cycle's items.
	CurrentItemIndex int
	// CurrentDayIndex is a 0-based position into the referenced plan's days.
	CurrentDayIndex int
	// LastAdvancedAt records when the open-time transition last ran. Its
	// program day doubles as the same-day idempotency guard.
	LastAdvancedAt time.Time
}

// RecordStatus is the plan store's answer to "is this day's workout complete".
type RecordStatus int

const (
	RecordAbsent RecordStatus = iota
	RecordIncomplete
	RecordComplete
)

// String returns the status name for logging.
func (s RecordStatus) String() string {
	switch s {
	case RecordAbsent:
		return "absent"
	case RecordIncomplete:
		return "incomplete"
	case RecordComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Outcome classifies a progression transition so that every branch of the
// advancement algorithms is observable without inspecting state.
type Outcome int

const (
	// OutcomeNoOp means the transition ran but the pointer did not move.
	OutcomeNoOp Outcome = iota
	// OutcomeAdvanced means the pointer moved forward by one step.
	OutcomeAdvanced
	// OutcomeInvalid means the transition was rejected without mutation.
	OutcomeInvalid
)

// String returns the outcome name for logging.
func (o Outcome) String() string {
	switch o {
	case OutcomeNoOp:
		return "no-op"
	case OutcomeAdvanced:
		return "advanced"
	case OutcomeInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// OpenResult is the outcome of an open-time transition for a single plan.
type OpenResult struct {
	Outcome Outcome
	// DayIndex is the 1-based day to display, 0 when the plan has no days.
	DayIndex int
	// Day is the resolved day, nil when DayIndex is 0.
	Day *Day
	// StaleRecordDate is set when an incomplete record blocked advancement
	// and was deleted so the day can be re-offered.
	StaleRecordDate Date
}

// CycleOpenResult is the outcome of an open-time transition for a cycle.
type CycleOpenResult struct {
	Outcome   Outcome
	ItemIndex int // 0-based
	DayIndex  int // 0-based within the item's plan
	// PlanID is the plan of the resolved item, 0 when no valid plan exists.
	PlanID int64
	// Day is the resolved day, nil when no valid plan exists.
	Day             *Day
	StaleRecordDate Date
}

// ChangeDayResult is the outcome of a manual day change.
type ChangeDayResult struct {
	Outcome  Outcome
	DayIndex int
	Day      *Day
}
