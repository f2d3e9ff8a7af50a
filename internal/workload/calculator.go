package workload

import (
	"context"

	"github.com/clinicware/staffing/internal/shared/config"
	"github.com/clinicware/staffing/internal/shared/errors"
	"github.com/clinicware/staffing/internal/shared/types"
	"github.com/clinicware/staffing/internal/stay"
)

// Store is the persistence surface the calculator reads from and writes to
type Store interface {
	SumClassifiedMinutes(ctx context.Context, stationID types.ID, date types.Date) (minutes, patients int, err error)
	CaregiverCount(ctx context.Context, stationID types.ID, date types.Date, shift types.Shift) (int, error)
	DailyForMonth(ctx context.Context, stationID types.ID, month types.Date, shift types.Shift) ([]DailyAggregate, error)
	UpsertDaily(ctx context.Context, a *DailyAggregate) error
	UpsertMonthly(ctx context.Context, a *MonthlyAggregate) error
}

// Occupancy answers how many patients stay overnight and what patient load a
// station's caregivers are dimensioned for
type Occupancy interface {
	NightOccupancy(ctx context.Context, stationID types.ID, date types.Date) (int, error)
	GetStation(ctx context.Context, id types.ID) (*stay.Station, error)
}

// Calculator derives station workload aggregates from classifications,
// occupancy counts, and imported caregiver duty rosters.
//
// Day-shift staffing follows the classified care minutes; night-shift
// staffing follows overnight occupancy against the station's patient ratio.
type Calculator struct {
	store     Store
	occupancy Occupancy
	cfg       config.StaffingConfig
}

// NewCalculator creates a workload calculator
func NewCalculator(store Store, occupancy Occupancy, cfg config.StaffingConfig) *Calculator {
	return &Calculator{store: store, occupancy: occupancy, cfg: cfg}
}

// ComputeDaily recomputes and stores the daily aggregate for one station,
// day, and shift
func (c *Calculator) ComputeDaily(ctx context.Context, stationID types.ID, date types.Date, shift types.Shift) (*DailyAggregate, error) {
	a := &DailyAggregate{
		ID:        types.NewID(),
		StationID: stationID,
		Date:      date,
		Shift:     shift,
	}

	caregivers, err := c.store.CaregiverCount(ctx, stationID, date, shift)
	if err != nil {
		return nil, err
	}
	a.CaregiversTotal = caregivers

	switch shift {
	case types.ShiftDay:
		minutes, patients, err := c.store.SumClassifiedMinutes(ctx, stationID, date)
		if err != nil {
			return nil, err
		}
		a.MinutesTotal = minutes
		a.PatientsTotal = patients
		a.SuggestedCaregivers = float64(minutes) / (c.cfg.WeeklyFullTimeHours * 60)

	case types.ShiftNight:
		occupancy, err := c.occupancy.NightOccupancy(ctx, stationID, date)
		if err != nil {
			return nil, err
		}
		station, err := c.occupancy.GetStation(ctx, stationID)
		if err != nil {
			return nil, err
		}

		maxPatients := station.MaxPatientsPerCaregiver
		if maxPatients <= 0 {
			maxPatients = c.cfg.DefaultMaxPatientsPerCaregiver
		}

		a.PatientsTotal = occupancy
		if occupancy > 0 {
			suggested := (float64(occupancy) / maxPatients) * (c.cfg.NightShiftHours / c.cfg.WeeklyFullTimeHours)
			if suggested < 1 {
				suggested = 1
			}
			a.SuggestedCaregivers = suggested
		}

	default:
		return nil, errors.BadRequest("unknown shift " + string(shift))
	}

	if caregivers > 0 {
		a.PatientsPerCaregiver = float64(a.PatientsTotal) / float64(caregivers)
		a.MinutesPerCaregiver = float64(a.MinutesTotal) / float64(caregivers)
	}

	if err := c.store.UpsertDaily(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

// ShouldCaregivers converts a suggested full-time-equivalent figure into the
// headcount needed on one shift of the given kind, for comparison against the
// imported duty roster.
func (c *Calculator) ShouldCaregivers(suggested float64, shift types.Shift) float64 {
	shiftHours := 24 - c.cfg.NightShiftHours
	if shift == types.ShiftNight {
		shiftHours = c.cfg.NightShiftHours
	}
	if shiftHours <= 0 {
		return suggested
	}
	return suggested * c.cfg.WeeklyFullTimeHours / shiftHours
}

// ComputeMonthly recomputes and stores the monthly aggregate for one station,
// month, and shift. Averages run over the days carrying a daily aggregate;
// with MonthlyBackfillZero set, missing days count as zero instead.
func (c *Calculator) ComputeMonthly(ctx context.Context, stationID types.ID, month types.Date, shift types.Shift) (*MonthlyAggregate, error) {
	month = month.FirstOfMonth()

	days, err := c.store.DailyForMonth(ctx, stationID, month, shift)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, errors.NoData("monthly workload", stationID.String()+"/"+month.String())
	}

	denominator := float64(len(days))
	if c.cfg.MonthlyBackfillZero {
		denominator = float64(month.DaysInMonth())
	}

	a := &MonthlyAggregate{
		ID:        types.NewID(),
		StationID: stationID,
		Month:     month,
		Shift:     shift,
	}

	var patients, caregivers, suggested float64
	for _, d := range days {
		patients += float64(d.PatientsTotal)
		caregivers += float64(d.CaregiversTotal)
		suggested += d.SuggestedCaregivers
		a.MinutesTotal += d.MinutesTotal
	}

	a.PatientsAvg = patients / denominator
	a.CaregiversAvg = caregivers / denominator
	a.SuggestedCaregiversAvg = suggested / denominator

	if err := c.store.UpsertMonthly(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}
