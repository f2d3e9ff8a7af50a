package stay

import (
	"time"

	"github.com/clinicware/staffing/internal/shared/types"
)

// VisitType buckets a stay by its duration and shift overlap
type VisitType string

const (
	VisitTypeAcute          VisitType = "acute"
	VisitTypePartStationary VisitType = "part_stationary"
	VisitTypeStationary     VisitType = "stationary"
	VisitTypeUndefined      VisitType = "undefined"
)

// ExternalStation is reported as the current station of a patient whose most
// recent interval moved them out of the hospital.
const ExternalStation = "external"

// Station is a care unit of the hospital
type Station struct {
	ID                      types.ID  `json:"id"`
	Name                    string    `json:"name"`
	IsIntensiveCare         bool      `json:"is_intensive_care"`
	IsChildCareUnit         bool      `json:"is_child_care_unit"`
	BedCount                int       `json:"bed_count"`
	MaxPatientsPerCaregiver float64   `json:"max_patients_per_caregiver"`
	CreatedAt               time.Time `json:"created_at"`
}

// Patient is hospital master data, keyed internally by uuid and externally by
// the hospital information system's patient number.
type Patient struct {
	ID           types.ID    `json:"id"`
	ExternalID   string      `json:"external_id"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	DateOfBirth  *types.Date `json:"date_of_birth,omitempty"`
	DeceasedDate *types.Date `json:"deceased_date,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Interval is a patient's continuous occupancy of one station. A transfer
// closes the previous interval and opens a new one; ExternalTransfer marks a
// move out of the hospital.
type Interval struct {
	ID               types.ID  `json:"id"`
	PatientID        types.ID  `json:"patient_id"`
	StationID        types.ID  `json:"station_id"`
	StartAt          time.Time `json:"start_at"`
	EndAt            time.Time `json:"end_at"`
	ExternalTransfer bool      `json:"external_transfer"`
}

// Duration returns the length of the interval
func (i Interval) Duration() time.Duration {
	return i.EndAt.Sub(i.StartAt)
}

// PatientDay is one expected patient-stay record per station and calendar
// day, imported from the hospital information system or a spreadsheet. It is
// the unit the recomputation scheduler counts classifications against.
type PatientDay struct {
	ID        types.ID   `json:"id"`
	PatientID types.ID   `json:"patient_id"`
	StationID types.ID   `json:"station_id"`
	Date      types.Date `json:"date"`

	IsSemiStationary  bool      `json:"is_semi_stationary"`
	IsFullyStationary bool      `json:"is_fully_stationary"`
	AdmittedAt        time.Time `json:"admitted_at"`
	DischargedAt      time.Time `json:"discharged_at"`
	IsRepeatingVisit  bool      `json:"is_repeating_visit"`
	// UsesQuarterEntry marks this stay as the one consuming the once-per-
	// quarter repeat-visit bonus.
	UsesQuarterEntry bool `json:"uses_quarter_entry"`
	NightStay        bool `json:"night_stay"`
	DayStay          bool `json:"day_stay"`
}

// CurrentStation is the station a patient occupies at a query instant.
// External is set instead of a station id when the latest interval moved the
// patient out of the hospital.
type CurrentStation struct {
	StationID types.ID `json:"station_id,omitempty"`
	External  bool     `json:"external"`
}

// VisitTypeReport partitions a station's active patients into visit-type
// buckets. Undefined entries are logged and counted, never dropped.
type VisitTypeReport struct {
	Acute          []types.ID `json:"acute"`
	PartStationary []types.ID `json:"part_stationary"`
	Stationary     []types.ID `json:"stationary"`
	Undefined      []types.ID `json:"undefined"`
}
