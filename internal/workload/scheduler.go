package workload

import (
	"context"
	"time"

	"github.com/clinicware/staffing/internal/shared/errors"
	"github.com/clinicware/staffing/internal/shared/events"
	"github.com/clinicware/staffing/internal/shared/metrics"
	"github.com/clinicware/staffing/internal/shared/types"
	"go.uber.org/zap"
)

// Counts answers the scheduler's bookkeeping queries: how many patients are
// expected versus how many are already classified
type Counts interface {
	CountExpectedPatients(ctx context.Context, stationID types.ID, date types.Date) (int, error)
	CountClassifications(ctx context.Context, stationID types.ID, date types.Date) (int, error)
	CountExpectedPatientsMonth(ctx context.Context, stationID types.ID, month types.Date) (int, error)
	CountClassificationsMonth(ctx context.Context, stationID types.ID, month types.Date) (int, error)
}

// Scheduler decides after a classification write whether the affected daily
// and monthly aggregates are due for a recompute, and runs it. Triggering it
// again without new data rewrites identical aggregates.
type Scheduler struct {
	counts     Counts
	calculator *Calculator
	publisher  events.Publisher
	logger     *zap.Logger
}

// NewScheduler creates a recomputation scheduler
func NewScheduler(counts Counts, calculator *Calculator, publisher events.Publisher, logger *zap.Logger) *Scheduler {
	return &Scheduler{counts: counts, calculator: calculator, publisher: publisher, logger: logger}
}

// RecomputeIfDue recomputes the daily and monthly aggregates of a station
// when they are due as of the given instant.
//
// The daily aggregate is due once every expected patient of the day is
// classified, or once the day lies in the past. The comparison is ">=" on
// purpose: stale expected-record counts or duplicate classification attempts
// must not block recomputation. The monthly aggregate follows the same rule
// at month granularity.
func (s *Scheduler) RecomputeIfDue(ctx context.Context, stationID types.ID, date types.Date, asOf time.Time) (*RecomputeResult, error) {
	result := &RecomputeResult{}
	asOfDate := types.DateOf(asOf)

	expected, err := s.counts.CountExpectedPatients(ctx, stationID, date)
	if err != nil {
		return nil, err
	}
	classified, err := s.counts.CountClassifications(ctx, stationID, date)
	if err != nil {
		return nil, err
	}

	if classified >= expected || date.Before(asOfDate) {
		if err := s.recomputeDaily(ctx, stationID, date); err != nil {
			return nil, err
		}
		result.DailyRecomputed = true
	}

	month := date.FirstOfMonth()
	expectedMonth, err := s.counts.CountExpectedPatientsMonth(ctx, stationID, month)
	if err != nil {
		return nil, err
	}
	classifiedMonth, err := s.counts.CountClassificationsMonth(ctx, stationID, month)
	if err != nil {
		return nil, err
	}

	if classifiedMonth >= expectedMonth || date.MonthElapsed(asOfDate) {
		recomputed, err := s.recomputeMonthly(ctx, stationID, month)
		if err != nil {
			return nil, err
		}
		result.MonthlyRecomputed = recomputed
	}

	return result, nil
}

func (s *Scheduler) recomputeDaily(ctx context.Context, stationID types.ID, date types.Date) error {
	for _, shift := range []types.Shift{types.ShiftDay, types.ShiftNight} {
		if _, err := s.calculator.ComputeDaily(ctx, stationID, date, shift); err != nil {
			return err
		}
		metrics.RecordAggregateRecompute("daily", shift.String())
	}

	s.publish(ctx, map[string]any{
		"station_id":  stationID,
		"date":        date,
		"granularity": "daily",
	})

	return nil
}

// recomputeMonthly runs the monthly aggregate for both shifts. A shift with
// no daily rows yet is skipped, not an error: the month can become due
// before its first daily aggregate exists.
func (s *Scheduler) recomputeMonthly(ctx context.Context, stationID types.ID, month types.Date) (bool, error) {
	recomputed := false
	for _, shift := range []types.Shift{types.ShiftDay, types.ShiftNight} {
		_, err := s.calculator.ComputeMonthly(ctx, stationID, month, shift)
		if errors.Is(err, errors.ErrNoData) {
			s.logger.Debug("no daily workloads for month yet",
				zap.String("station_id", stationID.String()),
				zap.String("month", month.String()),
				zap.String("shift", shift.String()),
			)
			continue
		}
		if err != nil {
			return recomputed, err
		}
		recomputed = true
		metrics.RecordAggregateRecompute("monthly", shift.String())
	}

	if recomputed {
		s.publish(ctx, map[string]any{
			"station_id":  stationID,
			"month":       month,
			"granularity": "monthly",
		})
	}

	return recomputed, nil
}

func (s *Scheduler) publish(ctx context.Context, data map[string]any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(events.TypeAggregateRecomputed, data)); err != nil {
		s.logger.Warn("failed to publish recompute event", zap.Error(err))
	}
}
