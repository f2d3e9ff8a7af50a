package catalog

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicware/staffing/internal/shared/errors"
	"github.com/clinicware/staffing/internal/shared/types"
)

// Catalog is the read-only view of the care-option reference data consumed by
// the classification engine.
type Catalog interface {
	GetIndicator(ctx context.Context, id types.ID) (*Indicator, error)
	ListIndicators(ctx context.Context) ([]Indicator, error)
}

// Repository provides database operations for the care-option catalog
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new catalog repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetIndicator retrieves a care indicator by ID
func (r *Repository) GetIndicator(ctx context.Context, id types.ID) (*Indicator, error) {
	query := `
		SELECT i.id, i.name, i.field, i.category_id, c.name, i.severity, i.list_index, i.description
		FROM staffing.care_indicators i
		JOIN staffing.care_categories c ON c.id = i.category_id
		WHERE i.id = $1`

	ind := &Indicator{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&ind.ID, &ind.Name, &ind.Field, &ind.CategoryID, &ind.Category,
		&ind.Severity, &ind.ListIndex, &ind.Description,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("care indicator", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get care indicator")
	}
	return ind, nil
}

// ListIndicators returns the full catalog ordered by field, category,
// severity, and list index.
func (r *Repository) ListIndicators(ctx context.Context) ([]Indicator, error) {
	query := `
		SELECT i.id, i.name, i.field, i.category_id, c.name, i.severity, i.list_index, i.description
		FROM staffing.care_indicators i
		JOIN staffing.care_categories c ON c.id = i.category_id
		ORDER BY i.field, c.name, i.severity, i.list_index`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list care indicators")
	}
	defer rows.Close()

	var indicators []Indicator
	for rows.Next() {
		var ind Indicator
		if err := rows.Scan(
			&ind.ID, &ind.Name, &ind.Field, &ind.CategoryID, &ind.Category,
			&ind.Severity, &ind.ListIndex, &ind.Description,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan care indicator")
		}
		indicators = append(indicators, ind)
	}
	return indicators, rows.Err()
}

// upsertCategory inserts a category if it does not exist yet.
func (r *Repository) upsertCategory(ctx context.Context, c Category) error {
	query := `
		INSERT INTO staffing.care_categories (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`
	_, err := r.pool.Exec(ctx, query, c.ID, c.Name)
	if err != nil {
		return errors.Wrap(err, "failed to upsert care category")
	}
	return nil
}

// upsertIndicator inserts an indicator if it does not exist yet.
func (r *Repository) upsertIndicator(ctx context.Context, ind Indicator) error {
	query := `
		INSERT INTO staffing.care_indicators (id, name, field, category_id, severity, list_index, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			field = EXCLUDED.field,
			category_id = EXCLUDED.category_id,
			severity = EXCLUDED.severity,
			list_index = EXCLUDED.list_index,
			description = EXCLUDED.description`
	_, err := r.pool.Exec(ctx, query,
		ind.ID, ind.Name, ind.Field, ind.CategoryID, ind.Severity, ind.ListIndex, ind.Description,
	)
	if err != nil {
		return errors.Wrap(err, "failed to upsert care indicator")
	}
	return nil
}

var _ Catalog = (*Repository)(nil)
