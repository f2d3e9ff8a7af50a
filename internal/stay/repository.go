package stay

import (
	"context"
	"time"

	"github.com/clinicware/staffing/internal/shared/errors"
	"github.com/clinicware/staffing/internal/shared/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists stations, patients, stay intervals, and daily
// patient-stay records using PostgreSQL
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetStation finds a station by id
func (r *Repository) GetStation(ctx context.Context, id types.ID) (*Station, error) {
	query := `
		SELECT id, name, is_intensive_care, is_child_care_unit, bed_count,
			max_patients_per_caregiver, created_at
		FROM staffing.stations
		WHERE id = $1`

	s := &Station{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.IsIntensiveCare, &s.IsChildCareUnit, &s.BedCount,
		&s.MaxPatientsPerCaregiver, &s.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("station", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find station")
	}

	return s, nil
}

// GetStationByName finds a station by its unique name
func (r *Repository) GetStationByName(ctx context.Context, name string) (*Station, error) {
	var id types.ID
	err := r.pool.QueryRow(ctx, `SELECT id FROM staffing.stations WHERE name = $1`, name).Scan(&id)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("station", name)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find station by name")
	}

	return r.GetStation(ctx, id)
}

// ListStations lists all stations ordered by name
func (r *Repository) ListStations(ctx context.Context) ([]Station, error) {
	query := `
		SELECT id, name, is_intensive_care, is_child_care_unit, bed_count,
			max_patients_per_caregiver, created_at
		FROM staffing.stations
		ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list stations")
	}
	defer rows.Close()

	var stations []Station
	for rows.Next() {
		var s Station
		err := rows.Scan(
			&s.ID, &s.Name, &s.IsIntensiveCare, &s.IsChildCareUnit, &s.BedCount,
			&s.MaxPatientsPerCaregiver, &s.CreatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan station")
		}
		stations = append(stations, s)
	}

	return stations, nil
}

// UpsertStation creates a station or updates it by name
func (r *Repository) UpsertStation(ctx context.Context, s *Station) error {
	query := `
		INSERT INTO staffing.stations (
			id, name, is_intensive_care, is_child_care_unit, bed_count, max_patients_per_caregiver
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET
			is_intensive_care = EXCLUDED.is_intensive_care,
			is_child_care_unit = EXCLUDED.is_child_care_unit,
			bed_count = EXCLUDED.bed_count,
			max_patients_per_caregiver = EXCLUDED.max_patients_per_caregiver
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		s.ID, s.Name, s.IsIntensiveCare, s.IsChildCareUnit, s.BedCount, s.MaxPatientsPerCaregiver,
	).Scan(&s.ID)
	if err != nil {
		return errors.Wrap(err, "failed to upsert station")
	}

	return nil
}

// GetPatientByExternalID finds a patient by the hospital information
// system's patient number
func (r *Repository) GetPatientByExternalID(ctx context.Context, externalID string) (*Patient, error) {
	query := `
		SELECT id, external_id, first_name, last_name, date_of_birth, deceased_date, created_at
		FROM staffing.patients
		WHERE external_id = $1`

	p := &Patient{}
	err := r.pool.QueryRow(ctx, query, externalID).Scan(
		&p.ID, &p.ExternalID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.DeceasedDate, &p.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("patient", externalID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find patient")
	}

	return p, nil
}

// UpsertPatient creates a patient or updates their master data by external id
func (r *Repository) UpsertPatient(ctx context.Context, p *Patient) error {
	query := `
		INSERT INTO staffing.patients (
			id, external_id, first_name, last_name, date_of_birth, deceased_date
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (external_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			date_of_birth = EXCLUDED.date_of_birth,
			deceased_date = EXCLUDED.deceased_date
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		p.ID, p.ExternalID, p.FirstName, p.LastName, p.DateOfBirth, p.DeceasedDate,
	).Scan(&p.ID)
	if err != nil {
		return errors.Wrap(err, "failed to upsert patient")
	}

	return nil
}

// IntervalsForPatient returns a patient's stay intervals that started at or
// before asOf, ordered by start instant
func (r *Repository) IntervalsForPatient(ctx context.Context, patientID types.ID, asOf time.Time) ([]Interval, error) {
	query := `
		SELECT id, patient_id, station_id, start_at, end_at, external_transfer
		FROM staffing.stay_intervals
		WHERE patient_id = $1 AND start_at <= $2
		ORDER BY start_at`

	rows, err := r.pool.Query(ctx, query, patientID, asOf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get stay intervals")
	}
	defer rows.Close()

	return scanIntervals(rows)
}

// IntervalsForStationPatients returns, per patient, all stay intervals of
// every patient who has ever occupied the station, limited to intervals
// starting at or before asOf. The caller reduces each patient's intervals to
// their latest one; loading the full set keeps transfer chains visible.
func (r *Repository) IntervalsForStationPatients(ctx context.Context, stationID types.ID, asOf time.Time) (map[types.ID][]Interval, error) {
	query := `
		SELECT id, patient_id, station_id, start_at, end_at, external_transfer
		FROM staffing.stay_intervals
		WHERE patient_id IN (
			SELECT DISTINCT patient_id FROM staffing.stay_intervals WHERE station_id = $1
		)
		AND start_at <= $2
		ORDER BY patient_id, start_at`

	rows, err := r.pool.Query(ctx, query, stationID, asOf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get station stay intervals")
	}
	defer rows.Close()

	intervals, err := scanIntervals(rows)
	if err != nil {
		return nil, err
	}

	byPatient := make(map[types.ID][]Interval)
	for _, iv := range intervals {
		byPatient[iv.PatientID] = append(byPatient[iv.PatientID], iv)
	}

	return byPatient, nil
}

// SaveInterval stores a stay interval
func (r *Repository) SaveInterval(ctx context.Context, iv *Interval) error {
	query := `
		INSERT INTO staffing.stay_intervals (
			id, patient_id, station_id, start_at, end_at, external_transfer
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			station_id = EXCLUDED.station_id,
			start_at = EXCLUDED.start_at,
			end_at = EXCLUDED.end_at,
			external_transfer = EXCLUDED.external_transfer`

	_, err := r.pool.Exec(ctx, query,
		iv.ID, iv.PatientID, iv.StationID, iv.StartAt, iv.EndAt, iv.ExternalTransfer,
	)
	if err != nil {
		return errors.Wrap(err, "failed to save stay interval")
	}

	return nil
}

// HasAnyInterval reports whether any stay interval ever targeted the station
func (r *Repository) HasAnyInterval(ctx context.Context, stationID types.ID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM staffing.stay_intervals WHERE station_id = $1)`,
		stationID).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check stay intervals")
	}
	return exists, nil
}

// GetPatientDay finds the expected patient-stay record for a patient and day
func (r *Repository) GetPatientDay(ctx context.Context, patientID types.ID, date types.Date) (*PatientDay, error) {
	query := `
		SELECT id, patient_id, station_id, date,
			is_semi_stationary, is_fully_stationary, admitted_at, discharged_at,
			is_repeating_visit, uses_quarter_entry, night_stay, day_stay
		FROM staffing.daily_patient_data
		WHERE patient_id = $1 AND date = $2`

	pd := &PatientDay{}
	err := r.pool.QueryRow(ctx, query, patientID, date).Scan(
		&pd.ID, &pd.PatientID, &pd.StationID, &pd.Date,
		&pd.IsSemiStationary, &pd.IsFullyStationary, &pd.AdmittedAt, &pd.DischargedAt,
		&pd.IsRepeatingVisit, &pd.UsesQuarterEntry, &pd.NightStay, &pd.DayStay,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("patient stay record", patientID.String()+"/"+date.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find patient stay record")
	}

	return pd, nil
}

// UpsertPatientDay creates or replaces the expected patient-stay record for
// a patient, station, and day
func (r *Repository) UpsertPatientDay(ctx context.Context, pd *PatientDay) error {
	query := `
		INSERT INTO staffing.daily_patient_data (
			id, patient_id, station_id, date,
			is_semi_stationary, is_fully_stationary, admitted_at, discharged_at,
			is_repeating_visit, uses_quarter_entry, night_stay, day_stay
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (patient_id, station_id, date) DO UPDATE SET
			is_semi_stationary = EXCLUDED.is_semi_stationary,
			is_fully_stationary = EXCLUDED.is_fully_stationary,
			admitted_at = EXCLUDED.admitted_at,
			discharged_at = EXCLUDED.discharged_at,
			is_repeating_visit = EXCLUDED.is_repeating_visit,
			uses_quarter_entry = EXCLUDED.uses_quarter_entry,
			night_stay = EXCLUDED.night_stay,
			day_stay = EXCLUDED.day_stay
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		pd.ID, pd.PatientID, pd.StationID, pd.Date,
		pd.IsSemiStationary, pd.IsFullyStationary, pd.AdmittedAt, pd.DischargedAt,
		pd.IsRepeatingVisit, pd.UsesQuarterEntry, pd.NightStay, pd.DayStay,
	).Scan(&pd.ID)
	if err != nil {
		return errors.Wrap(err, "failed to upsert patient stay record")
	}

	return nil
}

// HasQuarterEntry reports whether an earlier stay record of the patient in
// the same calendar quarter already consumed the repeat-visit bonus.
// Quarters are fixed: Jan-Mar, Apr-Jun, Jul-Sep, Oct-Dec.
func (r *Repository) HasQuarterEntry(ctx context.Context, patientID types.ID, date types.Date) (bool, error) {
	quarterStart := types.Date{Year: date.Year, Month: time.Month((date.Quarter()-1)*3 + 1), Day: 1}

	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM staffing.daily_patient_data
			WHERE patient_id = $1
			AND uses_quarter_entry
			AND date >= $2 AND date < $3
		)`,
		patientID, quarterStart, date).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check quarter billing")
	}

	return exists, nil
}

// NightOccupancy counts patients with a night stay on the station and day
func (r *Repository) NightOccupancy(ctx context.Context, stationID types.ID, date types.Date) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM staffing.daily_patient_data
		WHERE station_id = $1 AND date = $2 AND night_stay`,
		stationID, date).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count night occupancy")
	}
	return count, nil
}

func scanIntervals(rows pgx.Rows) ([]Interval, error) {
	var intervals []Interval
	for rows.Next() {
		var iv Interval
		err := rows.Scan(
			&iv.ID, &iv.PatientID, &iv.StationID, &iv.StartAt, &iv.EndAt, &iv.ExternalTransfer,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan stay interval")
		}
		intervals = append(intervals, iv)
	}
	return intervals, nil
}
