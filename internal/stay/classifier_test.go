package stay

import (
	"testing"
	"time"

	"github.com/clinicware/staffing/internal/shared/types"
)

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04", value)
	if err != nil {
		t.Fatalf("bad timestamp %q: %v", value, err)
	}
	return parsed
}

func TestWindowsTouches(t *testing.T) {
	w := NewWindows(time.UTC)

	tests := []struct {
		name         string
		start, end   string
		touchesDay   bool
		touchesNight bool
	}{
		{
			name:  "overnight stay touches both windows",
			start: "2026-03-10 20:00", end: "2026-03-11 08:00",
			touchesDay: true, touchesNight: true,
		},
		{
			name:  "morning visit touches day only",
			start: "2026-03-10 07:00", end: "2026-03-10 12:00",
			touchesDay: true, touchesNight: false,
		},
		{
			name:  "late evening stay touches night only",
			start: "2026-03-10 23:00", end: "2026-03-11 05:00",
			touchesDay: false, touchesNight: true,
		},
		{
			name:  "early morning stay sits in the previous day's night window",
			start: "2026-03-11 02:00", end: "2026-03-11 05:00",
			touchesDay: false, touchesNight: true,
		},
		{
			name:  "stay ending exactly at night start touches day only",
			start: "2026-03-10 20:00", end: "2026-03-10 22:00",
			touchesDay: true, touchesNight: false,
		},
		{
			name:  "multi-day stay touches everything",
			start: "2026-03-10 10:00", end: "2026-03-13 10:00",
			touchesDay: true, touchesNight: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := ts(t, tt.start), ts(t, tt.end)
			if got := w.TouchesDay(start, end); got != tt.touchesDay {
				t.Errorf("TouchesDay = %v, expected %v", got, tt.touchesDay)
			}
			if got := w.TouchesNight(start, end); got != tt.touchesNight {
				t.Errorf("TouchesNight = %v, expected %v", got, tt.touchesNight)
			}
		})
	}
}

func TestWindowsBucket(t *testing.T) {
	w := NewWindows(time.UTC)

	tests := []struct {
		name       string
		start, end string
		expected   VisitType
	}{
		{
			name:  "five hour daytime visit is acute",
			start: "2026-03-10 07:00", end: "2026-03-10 12:00",
			expected: VisitTypeAcute,
		},
		{
			name:  "twelve hour overnight stay is part-stationary",
			start: "2026-03-10 20:00", end: "2026-03-11 08:00",
			expected: VisitTypePartStationary,
		},
		{
			name:  "short stay crossing the night boundary is part-stationary",
			start: "2026-03-10 21:00", end: "2026-03-10 23:00",
			expected: VisitTypePartStationary,
		},
		{
			name:  "ten hour daytime stay is part-stationary",
			start: "2026-03-10 06:30", end: "2026-03-10 16:30",
			expected: VisitTypePartStationary,
		},
		{
			name:  "full day stay is stationary",
			start: "2026-03-10 10:00", end: "2026-03-11 10:00",
			expected: VisitTypeStationary,
		},
		{
			name:  "week-long stay is stationary",
			start: "2026-03-10 10:00", end: "2026-03-17 09:00",
			expected: VisitTypeStationary,
		},
		{
			name:  "end before start is undefined",
			start: "2026-03-10 12:00", end: "2026-03-10 07:00",
			expected: VisitTypeUndefined,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := w.Bucket(ts(t, tt.start), ts(t, tt.end))
			if got != tt.expected {
				t.Errorf("Bucket = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestLatestInterval(t *testing.T) {
	patientID := types.NewID()
	stationA := types.NewID()
	stationB := types.NewID()

	intervals := []Interval{
		{ID: types.NewID(), PatientID: patientID, StationID: stationA,
			StartAt: ts(t, "2026-03-01 10:00"), EndAt: ts(t, "2026-03-05 10:00")},
		{ID: types.NewID(), PatientID: patientID, StationID: stationB,
			StartAt: ts(t, "2026-03-05 10:00"), EndAt: ts(t, "2026-03-09 10:00")},
	}

	latest := LatestInterval(intervals, ts(t, "2026-03-06 12:00"))
	if latest == nil || latest.StationID != stationB {
		t.Fatalf("Expected latest interval on station B, got %+v", latest)
	}

	// Before the transfer only the first interval has started.
	latest = LatestInterval(intervals, ts(t, "2026-03-03 12:00"))
	if latest == nil || latest.StationID != stationA {
		t.Fatalf("Expected latest interval on station A, got %+v", latest)
	}

	if got := LatestInterval(intervals, ts(t, "2026-02-01 00:00")); got != nil {
		t.Errorf("Expected no interval before admission, got %+v", got)
	}
}

func TestActiveAt(t *testing.T) {
	patientID := types.NewID()
	stationA := types.NewID()
	stationB := types.NewID()

	intervals := []Interval{
		{ID: types.NewID(), PatientID: patientID, StationID: stationA,
			StartAt: ts(t, "2026-03-01 10:00"), EndAt: ts(t, "2026-03-05 10:00")},
	}

	if _, active := ActiveAt(intervals, stationA, ts(t, "2026-03-03 12:00")); !active {
		t.Error("Expected patient active on station A during the interval")
	}
	if _, active := ActiveAt(intervals, stationB, ts(t, "2026-03-03 12:00")); active {
		t.Error("Expected patient not active on station B")
	}
	if _, active := ActiveAt(intervals, stationA, ts(t, "2026-03-06 12:00")); active {
		t.Error("Expected patient not active after the interval ended")
	}

	// An external transfer ends the patient's presence even if the interval
	// instant range would still match.
	external := []Interval{
		{ID: types.NewID(), PatientID: patientID, StationID: stationA,
			StartAt: ts(t, "2026-03-01 10:00"), EndAt: ts(t, "2026-03-05 10:00"),
			ExternalTransfer: true},
	}
	if _, active := ActiveAt(external, stationA, ts(t, "2026-03-03 12:00")); active {
		t.Error("Expected external transfer to exclude the patient")
	}
}

func TestResolveCurrentStation(t *testing.T) {
	patientID := types.NewID()
	stationA := types.NewID()

	intervals := []Interval{
		{ID: types.NewID(), PatientID: patientID, StationID: stationA,
			StartAt: ts(t, "2026-03-01 10:00"), EndAt: ts(t, "2026-03-05 10:00")},
		{ID: types.NewID(), PatientID: patientID, StationID: types.NewID(),
			StartAt: ts(t, "2026-03-05 10:00"), EndAt: ts(t, "2026-03-05 10:00"),
			ExternalTransfer: true},
	}

	current, ok := ResolveCurrentStation(intervals, ts(t, "2026-03-03 12:00"))
	if !ok || current.External || current.StationID != stationA {
		t.Errorf("Expected station A, got %+v", current)
	}

	current, ok = ResolveCurrentStation(intervals, ts(t, "2026-03-06 12:00"))
	if !ok || !current.External {
		t.Errorf("Expected external sentinel after discharge, got %+v", current)
	}

	if _, ok := ResolveCurrentStation(nil, ts(t, "2026-03-06 12:00")); ok {
		t.Error("Expected no resolution without intervals")
	}
}
