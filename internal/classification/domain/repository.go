package domain

import (
	"context"

	"github.com/clinicware/staffing/internal/shared/types"
)

// Repository persists classifications
type Repository interface {
	// FindByPatientDate returns the classification for one patient on one
	// calendar day, or a not-found error.
	FindByPatientDate(ctx context.Context, patientID types.ID, date types.Date) (*Classification, error)

	// GetSelections returns the care-indicator ids recorded with a
	// classification.
	GetSelections(ctx context.Context, classificationID types.ID) ([]types.ID, error)

	// Replace stores a classification together with its selections,
	// overwriting any previous record for the same patient and day.
	Replace(ctx context.Context, c *Classification, selections []types.ID) error

	// ListByStationDate returns all classifications on a station for one day.
	ListByStationDate(ctx context.Context, stationID types.ID, date types.Date) ([]Classification, error)

	// Delete removes a classification and its selections.
	Delete(ctx context.Context, id types.ID) error
}
