package api

import (
	"context"
	"time"

	"github.com/clinicware/staffing/internal/catalog"
	"github.com/clinicware/staffing/internal/classification/domain"
	"github.com/clinicware/staffing/internal/shared/errors"
	"github.com/clinicware/staffing/internal/shared/events"
	"github.com/clinicware/staffing/internal/shared/metrics"
	"github.com/clinicware/staffing/internal/shared/types"
	"github.com/clinicware/staffing/internal/stay"
	"github.com/clinicware/staffing/internal/workload"
	"go.uber.org/zap"
)

// Service orchestrates one classification round trip: resolve the stay
// context for the patient and day, run the rule engine, persist the result
// wholesale, and hand the station to the recomputation scheduler.
type Service struct {
	engine    *domain.Engine
	repo      domain.Repository
	catalog   catalog.Catalog
	stays     *stay.Repository
	scheduler *workload.Scheduler
	publisher events.Publisher
	logger    *zap.Logger
	loc       *time.Location
}

// NewService creates a classification service
func NewService(
	engine *domain.Engine,
	repo domain.Repository,
	cat catalog.Catalog,
	stays *stay.Repository,
	scheduler *workload.Scheduler,
	publisher events.Publisher,
	logger *zap.Logger,
	loc *time.Location,
) *Service {
	return &Service{
		engine:    engine,
		repo:      repo,
		catalog:   cat,
		stays:     stays,
		scheduler: scheduler,
		publisher: publisher,
		logger:    logger,
		loc:       loc,
	}
}

// Answers carries what a caregiver enters for a patient and day: the observed
// care indicators, the isolation flag, and the clinical scores.
type Answers struct {
	SelectedIndicators   []types.ID `json:"selected_indicators"`
	IsInIsolation        bool       `json:"is_in_isolation"`
	BarthelIndex         int        `json:"barthel_index"`
	ExpandedBarthelIndex int        `json:"expanded_barthel_index"`
	MiniMentalStatus     int        `json:"mini_mental_status"`
	RoomName             string     `json:"room_name"`
	BedNumber            string     `json:"bed_number"`
}

// QuestionSheet is the grouped care-option catalog with the patient's saved
// answers marked
type QuestionSheet struct {
	PatientID types.ID               `json:"patient_id"`
	Date      types.Date             `json:"date"`
	Catalog   catalog.GroupedCatalog `json:"catalog"`
	Answers   Answers                `json:"answers"`
}

// Questions returns the grouped catalog with the selections of the patient's
// stored classification marked. A patient without a classification yet gets
// an unmarked sheet.
func (s *Service) Questions(ctx context.Context, patientID types.ID, date types.Date) (*QuestionSheet, error) {
	indicators, err := s.catalog.ListIndicators(ctx)
	if err != nil {
		return nil, err
	}

	sheet := &QuestionSheet{PatientID: patientID, Date: date}

	selected := make(map[types.ID]bool)
	c, err := s.repo.FindByPatientDate(ctx, patientID, date)
	switch {
	case err == nil:
		selections, err := s.repo.GetSelections(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		for _, id := range selections {
			selected[id] = true
		}
		sheet.Answers = Answers{
			SelectedIndicators:   selections,
			IsInIsolation:        c.IsInIsolation,
			BarthelIndex:         c.BarthelIndex,
			ExpandedBarthelIndex: c.ExpandedBarthelIndex,
			MiniMentalStatus:     c.MiniMentalStatus,
			RoomName:             c.RoomName,
			BedNumber:            c.BedNumber,
		}
	case errors.Is(err, errors.ErrNotFound):
		// First visit of the sheet, nothing saved yet.
	default:
		return nil, err
	}

	sheet.Catalog = catalog.Group(indicators, selected)
	return sheet, nil
}

// Classify computes and stores the classification for a patient and day from
// the given answers, then triggers the aggregate recompute for the station.
func (s *Service) Classify(ctx context.Context, patientID types.ID, date types.Date, answers Answers, asOf time.Time) (*domain.Classification, error) {
	input, pd, err := s.buildInput(ctx, patientID, date, answers)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Classify(ctx, *input)
	if err != nil {
		return nil, err
	}

	return s.store(ctx, input, pd, answers, result, asOf)
}

// ClassifyDirect stores a classification with caller-supplied severity
// indices, bypassing the indicator decision trees but keeping the minute
// calculation and stay-context handling.
func (s *Service) ClassifyDirect(ctx context.Context, patientID types.ID, date types.Date, generalSeverity, specificSeverity int, answers Answers, asOf time.Time) (*domain.Classification, error) {
	input, pd, err := s.buildInput(ctx, patientID, date, answers)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.ClassifyDirect(generalSeverity, specificSeverity, *input)
	if err != nil {
		return nil, err
	}

	return s.store(ctx, input, pd, answers, result, asOf)
}

// buildInput resolves the stay context of the patient and day into engine
// input. The expected patient-stay record must exist; classifying a patient
// nobody expects on a station would corrupt the aggregate bookkeeping.
func (s *Service) buildInput(ctx context.Context, patientID types.ID, date types.Date, answers Answers) (*domain.Input, *stay.PatientDay, error) {
	pd, err := s.stays.GetPatientDay(ctx, patientID, date)
	if err != nil {
		return nil, nil, err
	}

	billed := false
	if pd.IsRepeatingVisit && !pd.UsesQuarterEntry {
		billed, err = s.stays.HasQuarterEntry(ctx, patientID, date)
		if err != nil {
			return nil, nil, err
		}
	}

	input := &domain.Input{
		PatientID:            patientID,
		StationID:            pd.StationID,
		Date:                 date,
		SelectedIndicators:   answers.SelectedIndicators,
		IsInIsolation:        answers.IsInIsolation,
		BarthelIndex:         answers.BarthelIndex,
		ExpandedBarthelIndex: answers.ExpandedBarthelIndex,
		MiniMentalStatus:     answers.MiniMentalStatus,
		IsSemiStationary:     pd.IsSemiStationary,
		IsFullyStationary:    pd.IsFullyStationary,
		IsDayOfAdmission:     types.DateOf(pd.AdmittedAt.In(s.loc)) == date,
		IsDayOfDischarge:     types.DateOf(pd.DischargedAt.In(s.loc)) == date,
		IsRepeatingVisit:     pd.IsRepeatingVisit,
		BilledThisQuarter:    billed,
	}

	return input, pd, nil
}

// Remove deletes the classification for a patient and day and reschedules
// the station's aggregates, since the day's minute sum just changed.
func (s *Service) Remove(ctx context.Context, patientID types.ID, date types.Date, asOf time.Time) error {
	c, err := s.repo.FindByPatientDate(ctx, patientID, date)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, c.ID); err != nil {
		return err
	}

	if s.scheduler != nil {
		if _, err := s.scheduler.RecomputeIfDue(ctx, c.StationID, date, asOf); err != nil {
			s.logger.Error("aggregate recompute failed",
				zap.String("station_id", c.StationID.String()),
				zap.String("date", date.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// ForStationDay lists the classifications stored for one station and day
func (s *Service) ForStationDay(ctx context.Context, stationID types.ID, date types.Date) ([]domain.Classification, error) {
	return s.repo.ListByStationDate(ctx, stationID, date)
}

func (s *Service) store(ctx context.Context, input *domain.Input, pd *stay.PatientDay, answers Answers, result *domain.Result, asOf time.Time) (*domain.Classification, error) {
	c := &domain.Classification{
		ID:                   types.NewID(),
		PatientID:            input.PatientID,
		StationID:            input.StationID,
		Date:                 input.Date,
		IsInIsolation:        input.IsInIsolation,
		BarthelIndex:         input.BarthelIndex,
		ExpandedBarthelIndex: input.ExpandedBarthelIndex,
		MiniMentalStatus:     input.MiniMentalStatus,
		GeneralSeverity:      result.GeneralSeverity,
		SpecificSeverity:     result.SpecificSeverity,
		ResultMinutes:        result.Minutes,
		RoomName:             answers.RoomName,
		BedNumber:            answers.BedNumber,
	}

	if err := s.repo.Replace(ctx, c, input.SelectedIndicators); err != nil {
		return nil, err
	}

	metrics.RecordClassification(result.GeneralSeverity, result.SpecificSeverity)

	if s.publisher != nil {
		event := events.NewEvent(events.TypeClassificationUpdated, map[string]any{
			"patient_id":        c.PatientID,
			"station_id":        c.StationID,
			"date":              c.Date,
			"general_severity":  c.GeneralSeverity,
			"specific_severity": c.SpecificSeverity,
			"result_minutes":    c.ResultMinutes,
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish classification event", zap.Error(err))
		}
	}

	if s.scheduler != nil {
		if _, err := s.scheduler.RecomputeIfDue(ctx, pd.StationID, input.Date, asOf); err != nil {
			// The classification itself is stored; a failed recompute is
			// retried on the next write or via the recompute endpoint.
			s.logger.Error("aggregate recompute failed",
				zap.String("station_id", pd.StationID.String()),
				zap.String("date", input.Date.String()),
				zap.Error(err),
			)
		}
	}

	return c, nil
}
