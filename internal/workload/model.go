package workload

import (
	"time"

	"github.com/clinicware/staffing/internal/shared/types"
)

// DailyAggregate is the staffing workload of one station, day, and shift.
// Rows are recomputed wholesale; a recompute with unchanged inputs writes an
// identical row.
type DailyAggregate struct {
	ID        types.ID    `json:"id"`
	StationID types.ID    `json:"station_id"`
	Date      types.Date  `json:"date"`
	Shift     types.Shift `json:"shift"`

	PatientsTotal        int     `json:"patients_total"`
	CaregiversTotal      int     `json:"caregivers_total"`
	PatientsPerCaregiver float64 `json:"patients_per_caregiver"`
	MinutesTotal         int     `json:"minutes_total"`
	MinutesPerCaregiver  float64 `json:"minutes_per_caregiver"`
	// SuggestedCaregivers is the full-time-equivalent headcount the computed
	// care minutes demand.
	SuggestedCaregivers float64 `json:"suggested_caregivers"`

	ComputedAt time.Time `json:"computed_at"`
}

// MonthlyAggregate averages a station's daily aggregates over one month.
// Month is always the first day of the month.
type MonthlyAggregate struct {
	ID        types.ID    `json:"id"`
	StationID types.ID    `json:"station_id"`
	Month     types.Date  `json:"month"`
	Shift     types.Shift `json:"shift"`

	PatientsAvg            float64 `json:"patients_avg"`
	CaregiversAvg          float64 `json:"caregivers_avg"`
	SuggestedCaregiversAvg float64 `json:"suggested_caregivers_avg"`
	// MinutesTotal is a sum over the month, not an average.
	MinutesTotal int `json:"minutes_total"`

	ComputedAt time.Time `json:"computed_at"`
}

// RecomputeResult reports which granularities a trigger actually recomputed
type RecomputeResult struct {
	DailyRecomputed   bool `json:"daily_recomputed"`
	MonthlyRecomputed bool `json:"monthly_recomputed"`
}
