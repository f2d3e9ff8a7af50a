package domain

import (
	"time"

	"github.com/clinicware/staffing/internal/shared/types"
)

// Input carries everything a single classification depends on. The engine is
// a pure function over Input and the care-option catalog; stay context
// (admission day, quarter billing) is resolved by the caller before
// classification so the engine itself performs no lookups beyond the catalog.
type Input struct {
	PatientID types.ID   `json:"patient_id"`
	StationID types.ID   `json:"station_id"`
	Date      types.Date `json:"date"`

	// SelectedIndicators are the care-indicator ids observed true.
	SelectedIndicators []types.ID `json:"selected_indicators"`

	IsInIsolation bool `json:"is_in_isolation"`

	// Clinical scores gating the highest general-care severity.
	BarthelIndex         int `json:"barthel_index"`
	ExpandedBarthelIndex int `json:"expanded_barthel_index"`
	MiniMentalStatus     int `json:"mini_mental_status"`

	// Stay context flags.
	IsSemiStationary  bool `json:"is_semi_stationary"`
	IsFullyStationary bool `json:"is_fully_stationary"`
	IsDayOfAdmission  bool `json:"is_day_of_admission"`
	IsDayOfDischarge  bool `json:"is_day_of_discharge"`
	IsRepeatingVisit  bool `json:"is_repeating_visit"`
	// BilledThisQuarter is true when an earlier stay in the same calendar
	// quarter already consumed the repeat-visit bonus.
	BilledThisQuarter bool `json:"billed_this_quarter"`
}

// Result is the outcome of one classification: the two severity indices and
// the minute value the ordinance assigns to them.
type Result struct {
	GeneralSeverity  int `json:"general_severity"`
	SpecificSeverity int `json:"specific_severity"`
	Minutes          int `json:"minutes"`
}

// Classification is the persisted record of a patient's classification on one
// calendar day. Exactly one exists per (patient, date); recomputes replace it
// wholesale rather than mutating fields in place.
type Classification struct {
	ID        types.ID   `json:"id"`
	PatientID types.ID   `json:"patient_id"`
	StationID types.ID   `json:"station_id"`
	Date      types.Date `json:"date"`

	IsInIsolation        bool `json:"is_in_isolation"`
	BarthelIndex         int  `json:"barthel_index"`
	ExpandedBarthelIndex int  `json:"expanded_barthel_index"`
	MiniMentalStatus     int  `json:"mini_mental_status"`

	GeneralSeverity  int `json:"general_severity"`
	SpecificSeverity int `json:"specific_severity"`
	ResultMinutes    int `json:"result_minutes"`

	RoomName  string    `json:"room_name"`
	BedNumber string    `json:"bed_number"`
	UpdatedAt time.Time `json:"updated_at"`
}
