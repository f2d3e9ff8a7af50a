package workload

import (
	"context"
	"testing"
	"time"

	"github.com/clinicware/staffing/internal/shared/types"
	"github.com/clinicware/staffing/internal/stay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newScheduler(store *memStore) *Scheduler {
	calc := NewCalculator(store, store, staffingConfig())
	return NewScheduler(store, calc, nil, zap.NewNop())
}

func TestRecomputeIfDueDailyTriggers(t *testing.T) {
	stationID := types.NewID()
	date := types.MustParseDate("2026-03-10")
	asOf := date.At(12, time.UTC)

	tests := []struct {
		name       string
		expected   int
		classified int
		asOf       time.Time
		daily      bool
	}{
		{
			name:     "all expected patients classified",
			expected: 3, classified: 3, asOf: asOf,
			daily: true,
		},
		{
			name:     "more classifications than expected still triggers",
			expected: 3, classified: 5, asOf: asOf,
			daily: true,
		},
		{
			name:     "incomplete day does not trigger",
			expected: 3, classified: 2, asOf: asOf,
			daily: false,
		},
		{
			name:     "past date triggers even when incomplete",
			expected: 3, classified: 1, asOf: date.AddDays(1).At(0, time.UTC),
			daily: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore(stay.Station{ID: stationID, MaxPatientsPerCaregiver: 20})
			store.expectedDay[dayKey(stationID, date)] = tt.expected
			store.classifiedDay[dayKey(stationID, date)] = tt.classified
			// Keep the month incomplete so only the daily rule is exercised.
			store.expectedMonth[dayKey(stationID, date.FirstOfMonth())] = 100

			result, err := newScheduler(store).RecomputeIfDue(context.Background(), stationID, date, tt.asOf)
			require.NoError(t, err)

			assert.Equal(t, tt.daily, result.DailyRecomputed)
			assert.False(t, result.MonthlyRecomputed)

			_, stored := store.daily[shiftKey(stationID, date, types.ShiftDay)]
			assert.Equal(t, tt.daily, stored)
		})
	}
}

func TestRecomputeIfDueMonthlyTriggers(t *testing.T) {
	stationID := types.NewID()
	date := types.MustParseDate("2026-03-10")
	month := date.FirstOfMonth()

	store := newMemStore(stay.Station{ID: stationID, MaxPatientsPerCaregiver: 20})
	store.expectedDay[dayKey(stationID, date)] = 1
	store.classifiedDay[dayKey(stationID, date)] = 1
	store.expectedMonth[dayKey(stationID, month)] = 10
	store.classifiedMonth[dayKey(stationID, month)] = 10

	result, err := newScheduler(store).RecomputeIfDue(context.Background(), stationID, date, date.At(12, time.UTC))
	require.NoError(t, err)

	// The daily recompute ran first, so the month has day-shift rows to fold.
	assert.True(t, result.DailyRecomputed)
	assert.True(t, result.MonthlyRecomputed)

	_, stored := store.monthly[shiftKey(stationID, month, types.ShiftDay)]
	assert.True(t, stored)
}

func TestRecomputeIfDueElapsedMonth(t *testing.T) {
	stationID := types.NewID()
	date := types.MustParseDate("2026-02-10")
	month := date.FirstOfMonth()

	store := newMemStore(stay.Station{ID: stationID, MaxPatientsPerCaregiver: 20})
	store.expectedDay[dayKey(stationID, date)] = 5
	store.expectedMonth[dayKey(stationID, month)] = 50

	// March instant: February is over, both granularities are due despite
	// missing classifications.
	result, err := newScheduler(store).RecomputeIfDue(context.Background(), stationID, date,
		types.MustParseDate("2026-03-01").At(8, time.UTC))
	require.NoError(t, err)

	assert.True(t, result.DailyRecomputed)
	assert.True(t, result.MonthlyRecomputed)
}

func TestRecomputeIfDueIdempotent(t *testing.T) {
	stationID := types.NewID()
	date := types.MustParseDate("2026-03-10")

	store := newMemStore(stay.Station{ID: stationID, MaxPatientsPerCaregiver: 20})
	store.minutes[dayKey(stationID, date)] = 480
	store.patients[dayKey(stationID, date)] = 4
	store.occupancy[dayKey(stationID, date)] = 4
	store.expectedDay[dayKey(stationID, date)] = 4
	store.classifiedDay[dayKey(stationID, date)] = 4
	store.classifiedMonth[dayKey(stationID, date.FirstOfMonth())] = 4

	scheduler := newScheduler(store)
	asOf := date.At(18, time.UTC)

	first, err := scheduler.RecomputeIfDue(context.Background(), stationID, date, asOf)
	require.NoError(t, err)
	firstDaily := store.daily[shiftKey(stationID, date, types.ShiftDay)]
	firstMonthly := store.monthly[shiftKey(stationID, date.FirstOfMonth(), types.ShiftDay)]

	second, err := scheduler.RecomputeIfDue(context.Background(), stationID, date, asOf)
	require.NoError(t, err)
	secondDaily := store.daily[shiftKey(stationID, date, types.ShiftDay)]
	secondMonthly := store.monthly[shiftKey(stationID, date.FirstOfMonth(), types.ShiftDay)]

	assert.Equal(t, first, second)

	// Fresh ids are assigned per compute; the aggregate values themselves
	// must not drift.
	firstDaily.ID, secondDaily.ID = "", ""
	firstMonthly.ID, secondMonthly.ID = "", ""
	assert.Equal(t, firstDaily, secondDaily)
	assert.Equal(t, firstMonthly, secondMonthly)
}
