package progression

import (
	"testing"

	"github.com/google/uuid"
)

func TestNextDayIndex(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name      string
		current   int
		totalDays int
		want      int
	}{
		{name: "plain step", current: 1, totalDays: 4, want: 2},
		{name: "wraps at the last day", current: 4, totalDays: 4, want: 1},
		{name: "out of range clamps before stepping", current: 9, totalDays: 4, want: 1},
		{name: "single day plan stays at one", current: 1, totalDays: 1, want: 1},
		{name: "zero days leaves pointer alone", current: 3, totalDays: 0, want: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := nextDayIndex(tc.current, tc.totalDays); got != tc.want {
				t.Errorf("nextDayIndex(%d, %d) = %d, want %d", tc.current, tc.totalDays, got, tc.want)
			}
		})
	}
}

func testItems(n int) []CycleItem {
	items := make([]CycleItem, n)
	for i := range items {
		items[i] = CycleItem{ID: uuid.New(), Position: i, PlanID: int64(i + 1)}
	}
	return items
}

func TestAdvanceCyclePosition(t *testing.T) {
	t.Parallel()
	items := testItems(3)
	counts := map[int64]int{1: 2, 2: 0, 3: 3}
	dayCount := func(item CycleItem) int { return counts[item.PlanID] }

	// Within the first plan the day pointer just increments.
	pos, outcome := advanceCyclePosition(items, dayCount, cyclePosition{itemIndex: 0, dayIndex: 0})
	if outcome != OutcomeAdvanced || pos != (cyclePosition{itemIndex: 0, dayIndex: 1}) {
		t.Errorf("advance within plan = %+v, %v", pos, outcome)
	}

	// Overflowing the first plan skips the empty second plan.
	pos, outcome = advanceCyclePosition(items, dayCount, cyclePosition{itemIndex: 0, dayIndex: 1})
	if outcome != OutcomeAdvanced || pos != (cyclePosition{itemIndex: 2, dayIndex: 0}) {
		t.Errorf("rotate past empty plan = %+v, %v", pos, outcome)
	}

	// Overflowing the last plan wraps back to the first.
	pos, outcome = advanceCyclePosition(items, dayCount, cyclePosition{itemIndex: 2, dayIndex: 2})
	if outcome != OutcomeAdvanced || pos != (cyclePosition{itemIndex: 0, dayIndex: 0}) {
		t.Errorf("wraparound = %+v, %v", pos, outcome)
	}
}

func TestAdvanceCyclePosition_allEmptyTerminates(t *testing.T) {
	t.Parallel()
	items := testItems(5)
	calls := 0
	dayCount := func(CycleItem) int {
		calls++
		return 0
	}

	start := cyclePosition{itemIndex: 2, dayIndex: 0}
	pos, outcome := advanceCyclePosition(items, dayCount, start)
	if outcome != OutcomeInvalid {
		t.Errorf("outcome = %v, want %v", outcome, OutcomeInvalid)
	}
	if pos != start {
		t.Errorf("position mutated to %+v on failed scan", pos)
	}
	// One probe for the current item plus at most one per rotation step.
	if calls > 2*len(items) {
		t.Errorf("scan probed %d times for %d items", calls, len(items))
	}
}

func TestAdvanceCyclePosition_noItems(t *testing.T) {
	t.Parallel()
	_, outcome := advanceCyclePosition(nil, func(CycleItem) int { return 1 }, cyclePosition{})
	if outcome != OutcomeInvalid {
		t.Errorf("outcome = %v, want %v", outcome, OutcomeInvalid)
	}
}

func TestResolveCyclePosition(t *testing.T) {
	t.Parallel()
	items := testItems(3)
	counts := map[int64]int{1: 0, 2: 4, 3: 2}
	dayCount := func(item CycleItem) int { return counts[item.PlanID] }

	// A pointer at an empty plan scans forward without consuming a day.
	pos, ok := resolveCyclePosition(items, dayCount, cyclePosition{itemIndex: 0, dayIndex: 3})
	if !ok || pos != (cyclePosition{itemIndex: 1, dayIndex: 0}) {
		t.Errorf("resolve = %+v, %v", pos, ok)
	}

	// A valid pointer only gets its day clamped into range.
	pos, ok = resolveCyclePosition(items, dayCount, cyclePosition{itemIndex: 2, dayIndex: 9})
	if !ok || pos != (cyclePosition{itemIndex: 2, dayIndex: 1}) {
		t.Errorf("clamp = %+v, %v", pos, ok)
	}

	// All-empty cycle reports failure.
	_, ok = resolveCyclePosition(items, func(CycleItem) int { return 0 }, cyclePosition{})
	if ok {
		t.Error("expected resolve to fail for all-empty cycle")
	}
}
