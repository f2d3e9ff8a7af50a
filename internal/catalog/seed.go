package catalog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/clinicware/staffing/internal/shared/types"
)

// Care areas per field. General care ("A") counts help with everyday needs,
// specific care ("S") counts treatment-bound tasks. The area lists mirror the
// ordinance's catalog structure.
var seedCategories = map[Field][]string{
	FieldGeneral:  {"Körperpflege", "Ernährung", "Mobilisation"},
	FieldSpecific: {"Wundmanagement", "Medikation", "Kreislaufüberwachung"},
}

const indicatorsPerSeverity = 2

// Seed populates the care-option catalog with the reference indicator set.
// IDs are deterministic over the indicator name, so re-seeding is idempotent
// and existing classifications keep their references.
func Seed(ctx context.Context, repo *Repository, log *zap.Logger) error {
	total := 0
	for field, names := range seedCategories {
		for _, name := range names {
			category := Category{
				ID:   types.NewDeterministicID("care-category", name),
				Name: name,
			}
			if err := repo.upsertCategory(ctx, category); err != nil {
				return err
			}

			slug := categorySlug(name)
			for severity := 1; severity <= 4; severity++ {
				for index := 1; index <= indicatorsPerSeverity; index++ {
					indicatorName := fmt.Sprintf("%s-%s-%d-%d", field, slug, severity, index)
					ind := Indicator{
						ID:          types.NewDeterministicID("care-indicator", indicatorName),
						Name:        indicatorName,
						Field:       field,
						CategoryID:  category.ID,
						Category:    name,
						Severity:    severity,
						ListIndex:   index,
						Description: fmt.Sprintf("%s, Leistungsmerkmal %d der Stufe %d", name, index, severity),
					}
					if err := repo.upsertIndicator(ctx, ind); err != nil {
						return err
					}
					total++
				}
			}
		}
	}

	log.Info("care-option catalog seeded", zap.Int("indicators", total))
	return nil
}

func categorySlug(name string) string {
	r := strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss", " ", "-")
	return r.Replace(strings.ToLower(name))
}
