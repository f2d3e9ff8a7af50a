package stay

import (
	"time"

	"github.com/clinicware/staffing/internal/shared/types"
)

// Shift boundaries in local wall-clock hours. The day shift runs 06:00-22:00,
// the night shift 22:00-06:00 spanning midnight.
const (
	dayStartHour   = 6
	nightStartHour = 22
)

const (
	acuteMaxDuration      = 6 * time.Hour
	stationaryMinDuration = 24 * time.Hour
)

// Windows evaluates shift-window overlap for stay intervals. All boundary
// arithmetic happens in the configured location so daylight-saving
// transitions shift with the wall clock rather than with UTC.
type Windows struct {
	loc *time.Location
}

// NewWindows creates a Windows evaluator for the given location
func NewWindows(loc *time.Location) *Windows {
	if loc == nil {
		loc = time.UTC
	}
	return &Windows{loc: loc}
}

func overlaps(start, end, windowStart, windowEnd time.Time) bool {
	return start.Before(windowEnd) && end.After(windowStart)
}

// TouchesNight reports whether [start, end] intersects any night window
// (22:00 to 06:00 the next day) in the configured location.
func (w *Windows) TouchesNight(start, end time.Time) bool {
	if !end.After(start) {
		return false
	}
	// The night window starting the calendar day before start may still
	// reach into the interval.
	d := types.DateOf(start.In(w.loc)).AddDays(-1)
	last := types.DateOf(end.In(w.loc))
	for !last.Before(d) {
		nightStart := d.At(nightStartHour, w.loc)
		nightEnd := d.AddDays(1).At(dayStartHour, w.loc)
		if overlaps(start, end, nightStart, nightEnd) {
			return true
		}
		d = d.AddDays(1)
	}
	return false
}

// TouchesDay reports whether [start, end] intersects any day window
// (06:00 to 22:00) in the configured location.
func (w *Windows) TouchesDay(start, end time.Time) bool {
	if !end.After(start) {
		return false
	}
	d := types.DateOf(start.In(w.loc))
	last := types.DateOf(end.In(w.loc))
	for !last.Before(d) {
		dayStart := d.At(dayStartHour, w.loc)
		dayEnd := d.At(nightStartHour, w.loc)
		if overlaps(start, end, dayStart, dayEnd) {
			return true
		}
		d = d.AddDays(1)
	}
	return false
}

// Bucket assigns a stay to a visit-type category. A stay touching the night
// window counts as part-stationary even when it is shorter than six hours;
// the acute bucket is reserved for short daytime visits.
func (w *Windows) Bucket(start, end time.Time) VisitType {
	if !end.After(start) {
		return VisitTypeUndefined
	}
	duration := end.Sub(start)
	switch {
	case duration >= stationaryMinDuration:
		return VisitTypeStationary
	case w.TouchesNight(start, end):
		return VisitTypePartStationary
	case duration <= acuteMaxDuration:
		return VisitTypeAcute
	default:
		return VisitTypePartStationary
	}
}

// LatestInterval picks the interval with the greatest start instant not after
// asOf. Returns nil when no interval has started yet.
func LatestInterval(intervals []Interval, asOf time.Time) *Interval {
	var latest *Interval
	for i := range intervals {
		iv := &intervals[i]
		if iv.StartAt.After(asOf) {
			continue
		}
		if latest == nil || iv.StartAt.After(latest.StartAt) {
			latest = iv
		}
	}
	return latest
}

// ActiveAt reports whether the latest of the given intervals keeps the
// patient on the station at asOf: it targets the station, is not an external
// transfer, and has not ended before asOf.
func ActiveAt(intervals []Interval, stationID types.ID, asOf time.Time) (*Interval, bool) {
	latest := LatestInterval(intervals, asOf)
	if latest == nil {
		return nil, false
	}
	if latest.StationID != stationID || latest.ExternalTransfer {
		return nil, false
	}
	if latest.EndAt.Before(asOf) {
		return nil, false
	}
	return latest, true
}

// ResolveCurrentStation maps a patient's intervals to their station at asOf
func ResolveCurrentStation(intervals []Interval, asOf time.Time) (CurrentStation, bool) {
	latest := LatestInterval(intervals, asOf)
	if latest == nil {
		return CurrentStation{}, false
	}
	if latest.ExternalTransfer {
		return CurrentStation{External: true}, true
	}
	return CurrentStation{StationID: latest.StationID}, true
}
