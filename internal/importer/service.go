package importer

import (
	"context"
	"io"
	"time"

	"github.com/clinicware/staffing/internal/shared/events"
	"github.com/clinicware/staffing/internal/shared/metrics"
	"github.com/clinicware/staffing/internal/shared/types"
	"github.com/clinicware/staffing/internal/stay"
	"github.com/clinicware/staffing/internal/workload"
	"go.uber.org/zap"
)

// Summary reports an import run
type Summary struct {
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}

// Service turns parsed import rows into stored master data and expected
// patient-stay records. Rows are independent; a bad row is counted and
// skipped, not a reason to abort the batch.
type Service struct {
	stays     *stay.Repository
	workloads *workload.Repository
	windows   *stay.Windows
	publisher events.Publisher
	logger    *zap.Logger
	loc       *time.Location
}

// NewService creates an import service
func NewService(stays *stay.Repository, workloads *workload.Repository, windows *stay.Windows, publisher events.Publisher, logger *zap.Logger, loc *time.Location) *Service {
	return &Service{
		stays:     stays,
		workloads: workloads,
		windows:   windows,
		publisher: publisher,
		logger:    logger,
		loc:       loc,
	}
}

// ImportPatientDays parses and stores a workbook of expected patient-stay
// records. Patients and their stay intervals are created on the fly; the
// night/day stay flags are derived from the admission and discharge instants.
func (s *Service) ImportPatientDays(ctx context.Context, r io.Reader) (*Summary, error) {
	rows, err := ParsePatientDays(r, s.loc)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, row := range rows {
		if err := s.importPatientDay(ctx, row); err != nil {
			summary.Failed++
			metrics.RecordImportRow("excel", "error")
			s.logger.Warn("failed to import patient day",
				zap.String("external_id", row.ExternalID),
				zap.String("date", row.Date.String()),
				zap.Error(err),
			)
			continue
		}
		summary.Imported++
		metrics.RecordImportRow("excel", "ok")
	}

	s.publishCompleted(ctx, "patient_days", summary)
	return summary, nil
}

func (s *Service) importPatientDay(ctx context.Context, row PatientDayRow) error {
	station, err := s.stays.GetStationByName(ctx, row.StationName)
	if err != nil {
		return err
	}

	patient := &stay.Patient{
		ID:         types.NewID(),
		ExternalID: row.ExternalID,
		FirstName:  row.FirstName,
		LastName:   row.LastName,
	}
	if err := s.stays.UpsertPatient(ctx, patient); err != nil {
		return err
	}

	interval := &stay.Interval{
		ID:        types.NewDeterministicID("stay-interval", row.ExternalID+"/"+row.AdmittedAt.UTC().Format(time.RFC3339)),
		PatientID: patient.ID,
		StationID: station.ID,
		StartAt:   row.AdmittedAt,
		EndAt:     row.DischargedAt,
	}
	if err := s.stays.SaveInterval(ctx, interval); err != nil {
		return err
	}

	// Bound the shift-overlap test to the imported calendar day, not the
	// whole stay.
	dayStart := row.Date.In(s.loc)
	dayEnd := row.Date.AddDays(1).In(s.loc)
	start, end := row.AdmittedAt, row.DischargedAt
	if start.Before(dayStart) {
		start = dayStart
	}
	if end.After(dayEnd) {
		end = dayEnd
	}

	pd := &stay.PatientDay{
		ID:                types.NewID(),
		PatientID:         patient.ID,
		StationID:         station.ID,
		Date:              row.Date,
		IsSemiStationary:  row.IsSemiStationary,
		IsFullyStationary: row.IsFullyStationary,
		AdmittedAt:        row.AdmittedAt,
		DischargedAt:      row.DischargedAt,
		IsRepeatingVisit:  row.IsRepeatingVisit,
		UsesQuarterEntry:  row.UsesQuarterEntry,
		NightStay:         s.windows.TouchesNight(start, end),
		DayStay:           s.windows.TouchesDay(start, end),
	}

	return s.stays.UpsertPatientDay(ctx, pd)
}

// ImportCaregiverShifts parses and stores a workbook of caregiver duty
// counts per station, day, and shift
func (s *Service) ImportCaregiverShifts(ctx context.Context, r io.Reader) (*Summary, error) {
	rows, err := ParseCaregiverShifts(r)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, row := range rows {
		station, err := s.stays.GetStationByName(ctx, row.StationName)
		if err == nil {
			err = s.workloads.UpsertCaregiverShift(ctx, station.ID, row.Date, row.Shift, row.Caregivers)
		}
		if err != nil {
			summary.Failed++
			metrics.RecordImportRow("excel", "error")
			s.logger.Warn("failed to import caregiver shift",
				zap.String("station", row.StationName),
				zap.String("date", row.Date.String()),
				zap.Error(err),
			)
			continue
		}
		summary.Imported++
		metrics.RecordImportRow("excel", "ok")
	}

	s.publishCompleted(ctx, "caregiver_shifts", summary)
	return summary, nil
}

func (s *Service) publishCompleted(ctx context.Context, kind string, summary *Summary) {
	if s.publisher == nil {
		return
	}
	event := events.NewEvent(events.TypeImportCompleted, map[string]any{
		"kind":     kind,
		"imported": summary.Imported,
		"failed":   summary.Failed,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish import event", zap.Error(err))
	}
}
