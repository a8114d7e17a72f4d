package progression

import (
	"github.com/google/uuid"
)

// Stored day and item pointers are positions, and positions drift when the
// underlying ordered list is mutated. The reconciler re-derives a position
// from the identity of the entry the pointer referred to before the
// mutation: same identity wins, otherwise the old position is clamped into
// range. A stored pointer therefore never silently refers to the wrong entry
// and never indexes out of bounds.

// dayAnchor captures the identity a 1-based day pointer resolves to, or Nil
// when the pointer is out of range.
func dayAnchor(days []Day, index int) uuid.UUID {
	if index < 1 || index > len(days) {
		return uuid.Nil
	}
	return days[index-1].ID
}

// resolveDayIndex re-derives a 1-based day pointer after a mutation.
func resolveDayIndex(days []Day, anchor uuid.UUID, oldIndex int) int {
	if len(days) == 0 {
		return 1
	}
	if anchor != uuid.Nil {
		for i, day := range days {
			if day.ID == anchor {
				return i + 1
			}
		}
	}
	return clampDayIndex(oldIndex, len(days))
}

// itemAnchor captures the identity a 0-based item pointer resolves to, or
// Nil when the pointer is out of range.
func itemAnchor(items []CycleItem, index int) uuid.UUID {
	if index < 0 || index >= len(items) {
		return uuid.Nil
	}
	return items[index].ID
}

// resolveItemIndex re-derives a 0-based item pointer after a mutation.
func resolveItemIndex(items []CycleItem, anchor uuid.UUID, oldIndex int) int {
	if len(items) == 0 {
		return 0
	}
	if anchor != uuid.Nil {
		for i, item := range items {
			if item.ID == anchor {
				return i
			}
		}
	}
	return clampItemIndex(oldIndex, len(items))
}
