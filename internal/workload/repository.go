package workload

import (
	"context"

	"github.com/clinicware/staffing/internal/shared/errors"
	"github.com/clinicware/staffing/internal/shared/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists workload aggregates and answers the counting queries
// the recomputation scheduler runs on
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CountExpectedPatients counts the expected patient-stay records for a
// station and day
func (r *Repository) CountExpectedPatients(ctx context.Context, stationID types.ID, date types.Date) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM staffing.daily_patient_data WHERE station_id = $1 AND date = $2`,
		stationID, date).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count expected patients")
	}
	return count, nil
}

// CountExpectedPatientsMonth counts the expected patient-stay records for a
// station over a whole month
func (r *Repository) CountExpectedPatientsMonth(ctx context.Context, stationID types.ID, month types.Date) (int, error) {
	first := month.FirstOfMonth()
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM staffing.daily_patient_data
		WHERE station_id = $1 AND date >= $2 AND date < $3`,
		stationID, first, first.AddDays(first.DaysInMonth())).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count expected patients for month")
	}
	return count, nil
}

// CountClassifications counts the classifications stored for a station and day
func (r *Repository) CountClassifications(ctx context.Context, stationID types.ID, date types.Date) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM staffing.classifications WHERE station_id = $1 AND date = $2`,
		stationID, date).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count classifications")
	}
	return count, nil
}

// CountClassificationsMonth counts the classifications stored for a station
// over a whole month
func (r *Repository) CountClassificationsMonth(ctx context.Context, stationID types.ID, month types.Date) (int, error) {
	first := month.FirstOfMonth()
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM staffing.classifications
		WHERE station_id = $1 AND date >= $2 AND date < $3`,
		stationID, first, first.AddDays(first.DaysInMonth())).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count classifications for month")
	}
	return count, nil
}

// SumClassifiedMinutes sums the result minutes over all classifications for
// a station and day and counts the contributing patients
func (r *Repository) SumClassifiedMinutes(ctx context.Context, stationID types.ID, date types.Date) (minutes, patients int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(result_minutes), 0), COUNT(*)
		FROM staffing.classifications
		WHERE station_id = $1 AND date = $2`,
		stationID, date).Scan(&minutes, &patients)
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to sum classified minutes")
	}
	return minutes, patients, nil
}

// CaregiverCount returns the imported caregiver duty count for a station,
// day, and shift; zero when none was imported
func (r *Repository) CaregiverCount(ctx context.Context, stationID types.ID, date types.Date, shift types.Shift) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT caregiver_count FROM staffing.caregiver_shifts
		WHERE station_id = $1 AND date = $2 AND shift = $3`,
		stationID, date, shift).Scan(&count)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "failed to get caregiver count")
	}
	return count, nil
}

// UpsertCaregiverShift stores an imported caregiver duty count
func (r *Repository) UpsertCaregiverShift(ctx context.Context, stationID types.ID, date types.Date, shift types.Shift, caregivers int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO staffing.caregiver_shifts (id, station_id, date, shift, caregiver_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (station_id, date, shift) DO UPDATE SET
			caregiver_count = EXCLUDED.caregiver_count`,
		types.NewID(), stationID, date, shift, caregivers)
	if err != nil {
		return errors.Wrap(err, "failed to upsert caregiver shift")
	}
	return nil
}

// GetDaily finds the daily aggregate for a station, day, and shift
func (r *Repository) GetDaily(ctx context.Context, stationID types.ID, date types.Date, shift types.Shift) (*DailyAggregate, error) {
	query := `
		SELECT id, station_id, date, shift,
			patients_total, caregivers_total, patients_per_caregiver,
			minutes_total, minutes_per_caregiver, suggested_caregivers, computed_at
		FROM staffing.station_workload_daily
		WHERE station_id = $1 AND date = $2 AND shift = $3`

	a := &DailyAggregate{}
	err := r.pool.QueryRow(ctx, query, stationID, date, shift).Scan(
		&a.ID, &a.StationID, &a.Date, &a.Shift,
		&a.PatientsTotal, &a.CaregiversTotal, &a.PatientsPerCaregiver,
		&a.MinutesTotal, &a.MinutesPerCaregiver, &a.SuggestedCaregivers, &a.ComputedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("daily workload", stationID.String()+"/"+date.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find daily workload")
	}

	return a, nil
}

// DailyForMonth returns a station's daily aggregates for one month and shift,
// ordered by date
func (r *Repository) DailyForMonth(ctx context.Context, stationID types.ID, month types.Date, shift types.Shift) ([]DailyAggregate, error) {
	first := month.FirstOfMonth()
	query := `
		SELECT id, station_id, date, shift,
			patients_total, caregivers_total, patients_per_caregiver,
			minutes_total, minutes_per_caregiver, suggested_caregivers, computed_at
		FROM staffing.station_workload_daily
		WHERE station_id = $1 AND date >= $2 AND date < $3 AND shift = $4
		ORDER BY date`

	rows, err := r.pool.Query(ctx, query, stationID, first, first.AddDays(first.DaysInMonth()), shift)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list daily workloads")
	}
	defer rows.Close()

	var aggregates []DailyAggregate
	for rows.Next() {
		var a DailyAggregate
		err := rows.Scan(
			&a.ID, &a.StationID, &a.Date, &a.Shift,
			&a.PatientsTotal, &a.CaregiversTotal, &a.PatientsPerCaregiver,
			&a.MinutesTotal, &a.MinutesPerCaregiver, &a.SuggestedCaregivers, &a.ComputedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan daily workload")
		}
		aggregates = append(aggregates, a)
	}

	return aggregates, nil
}

// DailyRange returns a station's daily aggregates for an inclusive date
// range and shift, ordered by date
func (r *Repository) DailyRange(ctx context.Context, stationID types.ID, from, to types.Date, shift types.Shift) ([]DailyAggregate, error) {
	query := `
		SELECT id, station_id, date, shift,
			patients_total, caregivers_total, patients_per_caregiver,
			minutes_total, minutes_per_caregiver, suggested_caregivers, computed_at
		FROM staffing.station_workload_daily
		WHERE station_id = $1 AND date >= $2 AND date <= $3 AND shift = $4
		ORDER BY date`

	rows, err := r.pool.Query(ctx, query, stationID, from, to, shift)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list daily workloads")
	}
	defer rows.Close()

	var aggregates []DailyAggregate
	for rows.Next() {
		var a DailyAggregate
		err := rows.Scan(
			&a.ID, &a.StationID, &a.Date, &a.Shift,
			&a.PatientsTotal, &a.CaregiversTotal, &a.PatientsPerCaregiver,
			&a.MinutesTotal, &a.MinutesPerCaregiver, &a.SuggestedCaregivers, &a.ComputedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan daily workload")
		}
		aggregates = append(aggregates, a)
	}

	return aggregates, nil
}

// UpsertDaily stores a daily aggregate, replacing any previous row for the
// same station, day, and shift
func (r *Repository) UpsertDaily(ctx context.Context, a *DailyAggregate) error {
	query := `
		INSERT INTO staffing.station_workload_daily (
			id, station_id, date, shift,
			patients_total, caregivers_total, patients_per_caregiver,
			minutes_total, minutes_per_caregiver, suggested_caregivers, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (station_id, date, shift) DO UPDATE SET
			patients_total = EXCLUDED.patients_total,
			caregivers_total = EXCLUDED.caregivers_total,
			patients_per_caregiver = EXCLUDED.patients_per_caregiver,
			minutes_total = EXCLUDED.minutes_total,
			minutes_per_caregiver = EXCLUDED.minutes_per_caregiver,
			suggested_caregivers = EXCLUDED.suggested_caregivers,
			computed_at = NOW()
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		a.ID, a.StationID, a.Date, a.Shift,
		a.PatientsTotal, a.CaregiversTotal, a.PatientsPerCaregiver,
		a.MinutesTotal, a.MinutesPerCaregiver, a.SuggestedCaregivers,
	).Scan(&a.ID)
	if err != nil {
		return errors.Wrap(err, "failed to upsert daily workload")
	}

	return nil
}

// GetMonthly finds the monthly aggregate for a station, month, and shift
func (r *Repository) GetMonthly(ctx context.Context, stationID types.ID, month types.Date, shift types.Shift) (*MonthlyAggregate, error) {
	query := `
		SELECT id, station_id, month, shift,
			patients_avg, caregivers_avg, suggested_caregivers_avg,
			minutes_total, computed_at
		FROM staffing.station_workload_monthly
		WHERE station_id = $1 AND month = $2 AND shift = $3`

	a := &MonthlyAggregate{}
	err := r.pool.QueryRow(ctx, query, stationID, month.FirstOfMonth(), shift).Scan(
		&a.ID, &a.StationID, &a.Month, &a.Shift,
		&a.PatientsAvg, &a.CaregiversAvg, &a.SuggestedCaregiversAvg,
		&a.MinutesTotal, &a.ComputedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("monthly workload", stationID.String()+"/"+month.FirstOfMonth().String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find monthly workload")
	}

	return a, nil
}

// UpsertMonthly stores a monthly aggregate, replacing any previous row for
// the same station, month, and shift
func (r *Repository) UpsertMonthly(ctx context.Context, a *MonthlyAggregate) error {
	query := `
		INSERT INTO staffing.station_workload_monthly (
			id, station_id, month, shift,
			patients_avg, caregivers_avg, suggested_caregivers_avg,
			minutes_total, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (station_id, month, shift) DO UPDATE SET
			patients_avg = EXCLUDED.patients_avg,
			caregivers_avg = EXCLUDED.caregivers_avg,
			suggested_caregivers_avg = EXCLUDED.suggested_caregivers_avg,
			minutes_total = EXCLUDED.minutes_total,
			computed_at = NOW()
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		a.ID, a.StationID, a.Month.FirstOfMonth(), a.Shift,
		a.PatientsAvg, a.CaregiversAvg, a.SuggestedCaregiversAvg,
		a.MinutesTotal,
	).Scan(&a.ID)
	if err != nil {
		return errors.Wrap(err, "failed to upsert monthly workload")
	}

	return nil
}
