package progression

import (
	"testing"

	"github.com/google/uuid"
)

func testDays(n int) []Day {
	days := make([]Day, n)
	for i := range days {
		days[i] = Day{ID: uuid.New(), Position: i + 1, ExerciseCount: 1}
	}
	return days
}

func TestResolveDayIndex_identityPreserved(t *testing.T) {
	t.Parallel()
	days := testDays(4)
	pointee := days[2] // position 3

	anchor := dayAnchor(days, 3)
	if anchor != pointee.ID {
		t.Fatalf("anchor = %s, want %s", anchor, pointee.ID)
	}

	// Delete an unrelated earlier day, shifting the pointee to position 2.
	mutated := append([]Day{}, days[0:1]...)
	mutated = append(mutated, days[2], days[3])
	for i := range mutated {
		mutated[i].Position = i + 1
	}

	got := resolveDayIndex(mutated, anchor, 3)
	if got != 2 {
		t.Errorf("resolveDayIndex = %d, want 2", got)
	}
	if mutated[got-1].ID != pointee.ID {
		t.Errorf("pointer resolves to %s, want %s", mutated[got-1].ID, pointee.ID)
	}
}

func TestResolveDayIndex_deletedAnchorClamps(t *testing.T) {
	t.Parallel()
	days := testDays(5)
	anchor := dayAnchor(days, 5)

	// The anchored day itself is gone and the list shrank below oldIndex.
	mutated := testDays(3)
	if got := resolveDayIndex(mutated, anchor, 5); got != 3 {
		t.Errorf("resolveDayIndex = %d, want clamp to 3", got)
	}

	// An out-of-range low pointer clamps up to 1.
	if got := resolveDayIndex(mutated, uuid.Nil, 0); got != 1 {
		t.Errorf("resolveDayIndex = %d, want 1", got)
	}
}

func TestResolveDayIndex_emptyList(t *testing.T) {
	t.Parallel()
	if got := resolveDayIndex(nil, uuid.New(), 3); got != 1 {
		t.Errorf("resolveDayIndex = %d, want 1", got)
	}
}

func TestResolveItemIndex(t *testing.T) {
	t.Parallel()
	items := testItems(4)
	anchor := itemAnchor(items, 2)

	// Reorder: move the anchored item to the front.
	mutated := []CycleItem{items[2], items[0], items[1], items[3]}
	for i := range mutated {
		mutated[i].Position = i
	}
	if got := resolveItemIndex(mutated, anchor, 2); got != 0 {
		t.Errorf("resolveItemIndex = %d, want 0", got)
	}

	// Anchor gone: clamp the old index into range.
	if got := resolveItemIndex(mutated[:2], uuid.New(), 5); got != 1 {
		t.Errorf("resolveItemIndex = %d, want 1", got)
	}
}
