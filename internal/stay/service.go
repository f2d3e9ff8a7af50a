package stay

import (
	"context"
	"sort"
	"time"

	"github.com/clinicware/staffing/internal/shared/errors"
	"github.com/clinicware/staffing/internal/shared/metrics"
	"github.com/clinicware/staffing/internal/shared/types"
	"go.uber.org/zap"
)

// Service answers occupancy questions: which patients are on a station at an
// instant, what kind of visit they are on, and where a patient currently is.
// Every entry point takes an explicit asOf instant instead of reading the
// clock, so answers are reproducible.
type Service struct {
	repo    *Repository
	windows *Windows
	logger  *zap.Logger
}

// NewService creates a stay service
func NewService(repo *Repository, windows *Windows, logger *zap.Logger) *Service {
	return &Service{repo: repo, windows: windows, logger: logger}
}

// Windows exposes the shift-window evaluator for collaborating services
func (s *Service) Windows() *Windows {
	return s.windows
}

// VisitTypes partitions the station's active patients at asOf into visit-type
// buckets. Undefined stays are logged and counted; an empty station is a
// valid, empty report.
func (s *Service) VisitTypes(ctx context.Context, stationID types.ID, asOf time.Time) (*VisitTypeReport, error) {
	if _, err := s.repo.GetStation(ctx, stationID); err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		// A station may be known only through imported intervals before the
		// registry catches up; only a station no interval ever targeted is
		// truly unknown.
		seen, herr := s.repo.HasAnyInterval(ctx, stationID)
		if herr != nil {
			return nil, herr
		}
		if !seen {
			return nil, err
		}
	}

	byPatient, err := s.repo.IntervalsForStationPatients(ctx, stationID, asOf)
	if err != nil {
		return nil, err
	}

	report := &VisitTypeReport{}
	for patientID, intervals := range byPatient {
		interval, active := ActiveAt(intervals, stationID, asOf)
		if !active {
			continue
		}

		switch s.windows.Bucket(interval.StartAt, interval.EndAt) {
		case VisitTypeAcute:
			report.Acute = append(report.Acute, patientID)
		case VisitTypePartStationary:
			report.PartStationary = append(report.PartStationary, patientID)
		case VisitTypeStationary:
			report.Stationary = append(report.Stationary, patientID)
		default:
			report.Undefined = append(report.Undefined, patientID)
			metrics.RecordUndefinedVisitType()
			s.logger.Warn("stay did not match any visit type",
				zap.String("patient_id", patientID.String()),
				zap.String("station_id", stationID.String()),
				zap.Time("start_at", interval.StartAt),
				zap.Time("end_at", interval.EndAt),
			)
		}
	}

	sortIDs(report.Acute)
	sortIDs(report.PartStationary)
	sortIDs(report.Stationary)
	sortIDs(report.Undefined)

	return report, nil
}

// CurrentStation resolves the station a patient occupies at asOf
func (s *Service) CurrentStation(ctx context.Context, patientID types.ID, asOf time.Time) (*CurrentStation, error) {
	intervals, err := s.repo.IntervalsForPatient(ctx, patientID, asOf)
	if err != nil {
		return nil, err
	}

	current, ok := ResolveCurrentStation(intervals, asOf)
	if !ok {
		return nil, errors.NotFound("stay interval", patientID.String())
	}

	return &current, nil
}

// CurrentStationByExternalID resolves a patient by the hospital's patient
// number and answers where they are at asOf
func (s *Service) CurrentStationByExternalID(ctx context.Context, externalID string, asOf time.Time) (*CurrentStation, error) {
	patient, err := s.repo.GetPatientByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return s.CurrentStation(ctx, patient.ID, asOf)
}

func sortIDs(ids []types.ID) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
}
