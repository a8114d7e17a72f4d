package progression

import (
	"testing"
	"time"
)

func TestProgramDay(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name         string
		at           time.Time
		boundaryHour int
		want         string
	}{
		{
			name:         "midnight boundary truncates to calendar date",
			at:           time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC),
			boundaryHour: 0,
			want:         "2024-03-10",
		},
		{
			name:         "before boundary hour belongs to previous day",
			at:           time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC),
			boundaryHour: 3,
			want:         "2024-03-09",
		},
		{
			name:         "exactly at boundary hour belongs to same day",
			at:           time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC),
			boundaryHour: 3,
			want:         "2024-03-10",
		},
		{
			name:         "boundary shift across month start",
			at:           time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC),
			boundaryHour: 4,
			want:         "2024-02-29",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ProgramDay(tc.at, tc.boundaryHour)
			if got.String() != tc.want {
				t.Errorf("ProgramDay() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestProgramDay_sameWindowSameDay(t *testing.T) {
	t.Parallel()
	// 2 AM and 11 PM of the previous calendar date fall in the same
	// boundary-shifted window with a boundary hour of 3.
	a := ProgramDay(time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC), 3)
	b := ProgramDay(time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC), 3)
	if !a.Equal(b) {
		t.Errorf("expected %s and %s to be the same program day", a, b)
	}
}

func TestDaysBetween(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name string
		a    Date
		b    Date
		want int
	}{
		{
			name: "same day",
			a:    Date{Year: 2024, Month: time.March, Day: 10},
			b:    Date{Year: 2024, Month: time.March, Day: 10},
			want: 0,
		},
		{
			name: "forward across month",
			a:    Date{Year: 2024, Month: time.February, Day: 28},
			b:    Date{Year: 2024, Month: time.March, Day: 1},
			want: 2,
		},
		{
			name: "backward is negative",
			a:    Date{Year: 2024, Month: time.March, Day: 10},
			b:    Date{Year: 2024, Month: time.March, Day: 7},
			want: -3,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := DaysBetween(tc.a, tc.b); got != tc.want {
				t.Errorf("DaysBetween(%s, %s) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestDate_AddDays(t *testing.T) {
	t.Parallel()
	d := Date{Year: 2024, Month: time.December, Day: 31}
	if got := d.AddDays(1).String(); got != "2025-01-01" {
		t.Errorf("AddDays(1) = %s, want 2025-01-01", got)
	}
	if got := d.AddDays(-31).String(); got != "2024-11-30" {
		t.Errorf("AddDays(-31) = %s, want 2024-11-30", got)
	}
}
