package workload

import (
	"context"
	"testing"

	"github.com/clinicware/staffing/internal/shared/config"
	"github.com/clinicware/staffing/internal/shared/errors"
	"github.com/clinicware/staffing/internal/shared/types"
	"github.com/clinicware/staffing/internal/stay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type aggregateKey struct {
	station types.ID
	date    types.Date
	shift   types.Shift
}

// memStore is an in-memory workload store for calculator and scheduler tests
type memStore struct {
	minutes    map[aggregateKey]int
	patients   map[aggregateKey]int
	caregivers map[aggregateKey]int
	daily      map[aggregateKey]DailyAggregate
	monthly    map[aggregateKey]MonthlyAggregate

	occupancy map[aggregateKey]int
	station   stay.Station

	expectedDay     map[aggregateKey]int
	classifiedDay   map[aggregateKey]int
	expectedMonth   map[aggregateKey]int
	classifiedMonth map[aggregateKey]int
}

func newMemStore(station stay.Station) *memStore {
	return &memStore{
		minutes:         make(map[aggregateKey]int),
		patients:        make(map[aggregateKey]int),
		caregivers:      make(map[aggregateKey]int),
		daily:           make(map[aggregateKey]DailyAggregate),
		monthly:         make(map[aggregateKey]MonthlyAggregate),
		occupancy:       make(map[aggregateKey]int),
		station:         station,
		expectedDay:     make(map[aggregateKey]int),
		classifiedDay:   make(map[aggregateKey]int),
		expectedMonth:   make(map[aggregateKey]int),
		classifiedMonth: make(map[aggregateKey]int),
	}
}

func dayKey(station types.ID, date types.Date) aggregateKey {
	return aggregateKey{station: station, date: date}
}

func shiftKey(station types.ID, date types.Date, shift types.Shift) aggregateKey {
	return aggregateKey{station: station, date: date, shift: shift}
}

func (m *memStore) SumClassifiedMinutes(ctx context.Context, stationID types.ID, date types.Date) (int, int, error) {
	k := dayKey(stationID, date)
	return m.minutes[k], m.patients[k], nil
}

func (m *memStore) CaregiverCount(ctx context.Context, stationID types.ID, date types.Date, shift types.Shift) (int, error) {
	return m.caregivers[shiftKey(stationID, date, shift)], nil
}

func (m *memStore) DailyForMonth(ctx context.Context, stationID types.ID, month types.Date, shift types.Shift) ([]DailyAggregate, error) {
	first := month.FirstOfMonth()
	var out []DailyAggregate
	for d := first; d.Month == first.Month; d = d.AddDays(1) {
		if a, ok := m.daily[shiftKey(stationID, d, shift)]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) UpsertDaily(ctx context.Context, a *DailyAggregate) error {
	m.daily[shiftKey(a.StationID, a.Date, a.Shift)] = *a
	return nil
}

func (m *memStore) UpsertMonthly(ctx context.Context, a *MonthlyAggregate) error {
	m.monthly[shiftKey(a.StationID, a.Month, a.Shift)] = *a
	return nil
}

func (m *memStore) NightOccupancy(ctx context.Context, stationID types.ID, date types.Date) (int, error) {
	return m.occupancy[dayKey(stationID, date)], nil
}

func (m *memStore) GetStation(ctx context.Context, id types.ID) (*stay.Station, error) {
	s := m.station
	return &s, nil
}

func (m *memStore) CountExpectedPatients(ctx context.Context, stationID types.ID, date types.Date) (int, error) {
	return m.expectedDay[dayKey(stationID, date)], nil
}

func (m *memStore) CountClassifications(ctx context.Context, stationID types.ID, date types.Date) (int, error) {
	return m.classifiedDay[dayKey(stationID, date)], nil
}

func (m *memStore) CountExpectedPatientsMonth(ctx context.Context, stationID types.ID, month types.Date) (int, error) {
	return m.expectedMonth[dayKey(stationID, month.FirstOfMonth())], nil
}

func (m *memStore) CountClassificationsMonth(ctx context.Context, stationID types.ID, month types.Date) (int, error) {
	return m.classifiedMonth[dayKey(stationID, month.FirstOfMonth())], nil
}

func staffingConfig() config.StaffingConfig {
	return config.StaffingConfig{
		WeeklyFullTimeHours:            38.5,
		NightShiftHours:                8,
		DefaultMaxPatientsPerCaregiver: 20,
	}
}

func TestComputeDailyDayShift(t *testing.T) {
	stationID := types.NewID()
	store := newMemStore(stay.Station{ID: stationID, MaxPatientsPerCaregiver: 20})
	date := types.MustParseDate("2026-03-10")

	store.minutes[dayKey(stationID, date)] = 2310 // one full-time week of minutes
	store.patients[dayKey(stationID, date)] = 5
	store.caregivers[shiftKey(stationID, date, types.ShiftDay)] = 2

	calc := NewCalculator(store, store, staffingConfig())
	a, err := calc.ComputeDaily(context.Background(), stationID, date, types.ShiftDay)
	require.NoError(t, err)

	assert.Equal(t, 2310, a.MinutesTotal)
	assert.Equal(t, 5, a.PatientsTotal)
	assert.Equal(t, 2, a.CaregiversTotal)
	assert.InDelta(t, 1.0, a.SuggestedCaregivers, 1e-9)
	assert.InDelta(t, 2.5, a.PatientsPerCaregiver, 1e-9)
	assert.InDelta(t, 1155.0, a.MinutesPerCaregiver, 1e-9)

	stored, ok := store.daily[shiftKey(stationID, date, types.ShiftDay)]
	require.True(t, ok, "aggregate must be persisted")
	assert.Equal(t, a.MinutesTotal, stored.MinutesTotal)
}

func TestComputeDailyNightShift(t *testing.T) {
	stationID := types.NewID()
	date := types.MustParseDate("2026-03-10")

	tests := []struct {
		name      string
		occupancy int
		suggested float64
	}{
		{name: "low occupancy floors at one caregiver", occupancy: 4, suggested: 1.0},
		{name: "high occupancy scales with the ratio", occupancy: 200, suggested: (200.0 / 20.0) * (8.0 / 38.5)},
		{name: "empty station needs nobody", occupancy: 0, suggested: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore(stay.Station{ID: stationID, MaxPatientsPerCaregiver: 20})
			store.occupancy[dayKey(stationID, date)] = tt.occupancy

			calc := NewCalculator(store, store, staffingConfig())
			a, err := calc.ComputeDaily(context.Background(), stationID, date, types.ShiftNight)
			require.NoError(t, err)

			assert.Equal(t, tt.occupancy, a.PatientsTotal)
			assert.InDelta(t, tt.suggested, a.SuggestedCaregivers, 1e-9)
			assert.Zero(t, a.MinutesTotal, "night staffing does not consume classification minutes")
		})
	}
}

func TestShouldCaregivers(t *testing.T) {
	calc := NewCalculator(nil, nil, staffingConfig())

	assert.InDelta(t, 38.5/16.0, calc.ShouldCaregivers(1.0, types.ShiftDay), 1e-9)
	assert.InDelta(t, 38.5/8.0, calc.ShouldCaregivers(1.0, types.ShiftNight), 1e-9)
	assert.Zero(t, calc.ShouldCaregivers(0, types.ShiftDay))
}

func TestComputeMonthly(t *testing.T) {
	stationID := types.NewID()
	store := newMemStore(stay.Station{ID: stationID})
	month := types.MustParseDate("2026-03-01")

	minutes := []int{100, 200, 300}
	patients := []int{10, 20, 30}
	for i := range minutes {
		date := month.AddDays(i)
		store.daily[shiftKey(stationID, date, types.ShiftDay)] = DailyAggregate{
			StationID:           stationID,
			Date:                date,
			Shift:               types.ShiftDay,
			MinutesTotal:        minutes[i],
			PatientsTotal:       patients[i],
			CaregiversTotal:     4,
			SuggestedCaregivers: 2,
		}
	}

	calc := NewCalculator(store, store, staffingConfig())
	a, err := calc.ComputeMonthly(context.Background(), stationID, month, types.ShiftDay)
	require.NoError(t, err)

	assert.Equal(t, 600, a.MinutesTotal, "minutes are summed, not averaged")
	assert.InDelta(t, 20.0, a.PatientsAvg, 1e-9, "average runs over the three days present")
	assert.InDelta(t, 4.0, a.CaregiversAvg, 1e-9)
	assert.InDelta(t, 2.0, a.SuggestedCaregiversAvg, 1e-9)
}

func TestComputeMonthlyBackfillZero(t *testing.T) {
	stationID := types.NewID()
	store := newMemStore(stay.Station{ID: stationID})
	month := types.MustParseDate("2026-04-01") // 30 days

	store.daily[shiftKey(stationID, month, types.ShiftDay)] = DailyAggregate{
		StationID:     stationID,
		Date:          month,
		Shift:         types.ShiftDay,
		MinutesTotal:  300,
		PatientsTotal: 30,
	}

	cfg := staffingConfig()
	cfg.MonthlyBackfillZero = true

	calc := NewCalculator(store, store, cfg)
	a, err := calc.ComputeMonthly(context.Background(), stationID, month, types.ShiftDay)
	require.NoError(t, err)

	assert.Equal(t, 300, a.MinutesTotal)
	assert.InDelta(t, 1.0, a.PatientsAvg, 1e-9, "missing days count as zero over 30 days")
}

func TestComputeMonthlyNoData(t *testing.T) {
	stationID := types.NewID()
	store := newMemStore(stay.Station{ID: stationID})

	calc := NewCalculator(store, store, staffingConfig())
	_, err := calc.ComputeMonthly(context.Background(), stationID, types.MustParseDate("2026-03-01"), types.ShiftDay)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoData), "zero daily rows must not produce a zero-valued aggregate")
}
