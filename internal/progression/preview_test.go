package progression_test

import (
	"testing"

	"github.com/myrjola/progapp/internal/progression"
)

func TestPreviewDayIndex(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name            string
		currentDayIndex int
		totalDays       int
		daysDifference  int
		want            int
	}{
		{name: "zero offset is identity", currentDayIndex: 2, totalDays: 4, daysDifference: 0, want: 2},
		{name: "forward within plan", currentDayIndex: 2, totalDays: 4, daysDifference: 1, want: 3},
		{name: "forward wraps", currentDayIndex: 4, totalDays: 4, daysDifference: 1, want: 1},
		{name: "multiple wraps", currentDayIndex: 1, totalDays: 3, daysDifference: 7, want: 2},
		{name: "negative offset", currentDayIndex: 1, totalDays: 4, daysDifference: -1, want: 4},
		{name: "large negative offset", currentDayIndex: 2, totalDays: 3, daysDifference: -10, want: 1},
		{name: "no days", currentDayIndex: 1, totalDays: 0, daysDifference: 5, want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := progression.PreviewDayIndex(tc.currentDayIndex, tc.totalDays, tc.daysDifference)
			if got != tc.want {
				t.Errorf("PreviewDayIndex(%d, %d, %d) = %d, want %d",
					tc.currentDayIndex, tc.totalDays, tc.daysDifference, got, tc.want)
			}
			// Purity: repeated calls with identical inputs agree.
			if again := progression.PreviewDayIndex(tc.currentDayIndex, tc.totalDays, tc.daysDifference); again != got {
				t.Errorf("repeated call returned %d, first returned %d", again, got)
			}
		})
	}
}

func TestPreviewCycleDayIndex(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name            string
		currentDayIndex int
		totalDays       int
		daysDifference  int
		want            int
	}{
		{name: "zero offset is identity", currentDayIndex: 1, totalDays: 3, daysDifference: 0, want: 1},
		{name: "forward wraps", currentDayIndex: 2, totalDays: 3, daysDifference: 1, want: 0},
		{name: "negative offset", currentDayIndex: 0, totalDays: 3, daysDifference: -1, want: 2},
		{name: "no days", currentDayIndex: 0, totalDays: 0, daysDifference: 1, want: -1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := progression.PreviewCycleDayIndex(tc.currentDayIndex, tc.totalDays, tc.daysDifference)
			if got != tc.want {
				t.Errorf("PreviewCycleDayIndex(%d, %d, %d) = %d, want %d",
					tc.currentDayIndex, tc.totalDays, tc.daysDifference, got, tc.want)
			}
		})
	}
}
