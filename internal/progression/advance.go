package progression

// nextDayIndex advances a 1-based day pointer by one step with wraparound.
// An out-of-range pointer (the plan shrank underneath it) is clamped into
// [1, totalDays] before stepping, so the result is always in range.
func nextDayIndex(current, totalDays int) int {
	if totalDays <= 0 {
		return current
	}
	current = clampDayIndex(current, totalDays)
	return current%totalDays + 1
}

// clampDayIndex forces a 1-based pointer into [1, totalDays].
func clampDayIndex(index, totalDays int) int {
	if index < 1 {
		return 1
	}
	if index > totalDays {
		return totalDays
	}
	return index
}

// clampItemIndex forces a 0-based pointer into [0, totalItems-1].
func clampItemIndex(index, totalItems int) int {
	if index < 0 {
		return 0
	}
	if index >= totalItems {
		return totalItems - 1
	}
	return index
}

// cyclePosition is a resolved (item, day) pointer pair.
type cyclePosition struct {
	itemIndex int
	dayIndex  int
}

// advanceCyclePosition implements the cycle rotation step. dayCount reports
// the day count of an item's plan, 0 for empty or deleted plans.
//
// The scan over invalid items is bounded by the item count: once every item
// has been visited without finding a non-empty plan, the rotation reports
// OutcomeInvalid instead of looping.
func advanceCyclePosition(items []CycleItem, dayCount func(item CycleItem) int, pos cyclePosition) (cyclePosition, Outcome) {
	total := len(items)
	if total == 0 {
		return pos, OutcomeInvalid
	}

	idx := clampItemIndex(pos.itemIndex, total)

	// Try to advance the day pointer within the current plan first.
	if count := dayCount(items[idx]); count > 0 {
		if pos.dayIndex+1 < count {
			return cyclePosition{itemIndex: idx, dayIndex: pos.dayIndex + 1}, OutcomeAdvanced
		}
	}

	// The current plan overflowed or is invalid: rotate to the next item,
	// skipping empty and deleted plans. The start marker bounds the scan.
	start := idx
	next := idx
	for scanned := 0; scanned < total; scanned++ {
		next = (next + 1) % total
		if dayCount(items[next]) > 0 {
			return cyclePosition{itemIndex: next, dayIndex: 0}, OutcomeAdvanced
		}
		if next == start {
			break
		}
	}
	return pos, OutcomeInvalid
}

// resolveCyclePosition returns the position unchanged when it points at a
// valid plan, or scans forward for the first valid item without consuming a
// day advance. Used when a cycle lands on an item whose plan was deleted or
// emptied since the pointer was stored.
func resolveCyclePosition(items []CycleItem, dayCount func(item CycleItem) int, pos cyclePosition) (cyclePosition, bool) {
	total := len(items)
	if total == 0 {
		return pos, false
	}
	idx := clampItemIndex(pos.itemIndex, total)
	if count := dayCount(items[idx]); count > 0 {
		return cyclePosition{itemIndex: idx, dayIndex: clampItemIndex(pos.dayIndex, count)}, true
	}
	next := idx
	for scanned := 0; scanned < total; scanned++ {
		next = (next + 1) % total
		if dayCount(items[next]) > 0 {
			return cyclePosition{itemIndex: next, dayIndex: 0}, true
		}
		if next == idx {
			break
		}
	}
	return pos, false
}
