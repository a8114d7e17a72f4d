package progression

// PreviewDayIndex forecasts which 1-based day index is active daysDifference
// days away from the current one, assuming one advancement per day. It is
// pure: repeated calls with the same inputs return the same result and no
// stored progress is touched. Returns 0 when the plan has no days.
func PreviewDayIndex(currentDayIndex, totalDays, daysDifference int) int {
	if totalDays <= 0 {
		return 0
	}
	shifted := clampDayIndex(currentDayIndex, totalDays) - 1 + daysDifference
	return (shifted%totalDays+totalDays)%totalDays + 1
}

// PreviewCycleDayIndex is the 0-based variant for cycle day pointers.
// Returns -1 when the plan has no days.
func PreviewCycleDayIndex(currentDayIndex, totalDays, daysDifference int) int {
	if totalDays <= 0 {
		return -1
	}
	shifted := clampItemIndex(currentDayIndex, totalDays) + daysDifference
	return (shifted%totalDays + totalDays) % totalDays
}
