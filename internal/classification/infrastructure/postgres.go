package infrastructure

import (
	"context"
	"strings"

	"github.com/clinicware/staffing/internal/classification/domain"
	"github.com/clinicware/staffing/internal/shared/errors"
	"github.com/clinicware/staffing/internal/shared/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements domain.Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var _ domain.Repository = (*PostgresRepository)(nil)

// FindByPatientDate finds the classification for a patient on a calendar day
func (r *PostgresRepository) FindByPatientDate(ctx context.Context, patientID types.ID, date types.Date) (*domain.Classification, error) {
	query := `
		SELECT id, patient_id, station_id, date,
			is_in_isolation, barthel_index, expanded_barthel_index, mini_mental_status,
			general_severity, specific_severity, result_minutes,
			room_name, bed_number, updated_at
		FROM staffing.classifications
		WHERE patient_id = $1 AND date = $2`

	c := &domain.Classification{}
	err := r.pool.QueryRow(ctx, query, patientID, date).Scan(
		&c.ID, &c.PatientID, &c.StationID, &c.Date,
		&c.IsInIsolation, &c.BarthelIndex, &c.ExpandedBarthelIndex, &c.MiniMentalStatus,
		&c.GeneralSeverity, &c.SpecificSeverity, &c.ResultMinutes,
		&c.RoomName, &c.BedNumber, &c.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("classification", patientID.String()+"/"+date.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find classification")
	}

	return c, nil
}

// GetSelections returns the indicator ids recorded with a classification
func (r *PostgresRepository) GetSelections(ctx context.Context, classificationID types.ID) ([]types.ID, error) {
	query := `
		SELECT indicator_id
		FROM staffing.classification_selections
		WHERE classification_id = $1`

	rows, err := r.pool.Query(ctx, query, classificationID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get selections")
	}
	defer rows.Close()

	var selections []types.ID
	for rows.Next() {
		var id types.ID
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan selection")
		}
		selections = append(selections, id)
	}

	return selections, nil
}

// Replace stores a classification and its selections, overwriting any previous
// record for the same patient and day. The whole record is swapped in one
// transaction so readers never observe a half-updated selection set.
func (r *PostgresRepository) Replace(ctx context.Context, c *domain.Classification, selections []types.ID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO staffing.classifications (
			id, patient_id, station_id, date,
			is_in_isolation, barthel_index, expanded_barthel_index, mini_mental_status,
			general_severity, specific_severity, result_minutes,
			room_name, bed_number, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW()
		)
		ON CONFLICT (patient_id, date) DO UPDATE SET
			station_id = EXCLUDED.station_id,
			is_in_isolation = EXCLUDED.is_in_isolation,
			barthel_index = EXCLUDED.barthel_index,
			expanded_barthel_index = EXCLUDED.expanded_barthel_index,
			mini_mental_status = EXCLUDED.mini_mental_status,
			general_severity = EXCLUDED.general_severity,
			specific_severity = EXCLUDED.specific_severity,
			result_minutes = EXCLUDED.result_minutes,
			room_name = EXCLUDED.room_name,
			bed_number = EXCLUDED.bed_number,
			updated_at = NOW()
		RETURNING id`

	err = tx.QueryRow(ctx, query,
		c.ID, c.PatientID, c.StationID, c.Date,
		c.IsInIsolation, c.BarthelIndex, c.ExpandedBarthelIndex, c.MiniMentalStatus,
		c.GeneralSeverity, c.SpecificSeverity, c.ResultMinutes,
		c.RoomName, c.BedNumber,
	).Scan(&c.ID)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("classification is being updated concurrently")
		}
		return errors.Wrap(err, "failed to save classification")
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM staffing.classification_selections WHERE classification_id = $1`,
		c.ID); err != nil {
		return errors.Wrap(err, "failed to clear selections")
	}

	for _, indicatorID := range selections {
		_, err := tx.Exec(ctx,
			`INSERT INTO staffing.classification_selections (classification_id, indicator_id) VALUES ($1, $2)`,
			c.ID, indicatorID)
		if err != nil {
			if strings.Contains(err.Error(), "foreign key") {
				return errors.NotFound("care indicator", indicatorID.String())
			}
			return errors.Wrap(err, "failed to save selection")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	return nil
}

// ListByStationDate lists all classifications on a station for one day
func (r *PostgresRepository) ListByStationDate(ctx context.Context, stationID types.ID, date types.Date) ([]domain.Classification, error) {
	query := `
		SELECT id, patient_id, station_id, date,
			is_in_isolation, barthel_index, expanded_barthel_index, mini_mental_status,
			general_severity, specific_severity, result_minutes,
			room_name, bed_number, updated_at
		FROM staffing.classifications
		WHERE station_id = $1 AND date = $2
		ORDER BY room_name, bed_number`

	rows, err := r.pool.Query(ctx, query, stationID, date)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list classifications")
	}
	defer rows.Close()

	var classifications []domain.Classification
	for rows.Next() {
		var c domain.Classification
		err := rows.Scan(
			&c.ID, &c.PatientID, &c.StationID, &c.Date,
			&c.IsInIsolation, &c.BarthelIndex, &c.ExpandedBarthelIndex, &c.MiniMentalStatus,
			&c.GeneralSeverity, &c.SpecificSeverity, &c.ResultMinutes,
			&c.RoomName, &c.BedNumber, &c.UpdatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan classification")
		}
		classifications = append(classifications, c)
	}

	return classifications, nil
}

// Delete removes a classification; selections cascade
func (r *PostgresRepository) Delete(ctx context.Context, id types.ID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM staffing.classifications WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete classification")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("classification", id.String())
	}

	return nil
}
