package catalog

import (
	"fmt"

	"github.com/clinicware/staffing/internal/shared/types"
)

// Field is the care-service field of an indicator: general care ("A") or
// specific care ("S"). The two fields feed the two independent severity
// indices of a classification.
type Field string

const (
	FieldGeneral  Field = "A"
	FieldSpecific Field = "S"
)

// ParseField validates a field value at the boundary.
func ParseField(s string) (Field, error) {
	switch Field(s) {
	case FieldGeneral, FieldSpecific:
		return Field(s), nil
	}
	return "", fmt.Errorf("invalid care field %q", s)
}

// Category groups indicators by care area (hygiene, nutrition, mobilisation).
// Severity selection counts distinct categories, so categories are identity,
// not just labels.
type Category struct {
	ID   types.ID `json:"id"`
	Name string   `json:"name"`
}

// Indicator is one observable care-need characteristic from the ordinance's
// catalog. Immutable reference data.
type Indicator struct {
	ID          types.ID `json:"id"`
	Name        string   `json:"name"`
	Field       Field    `json:"field"`
	CategoryID  types.ID `json:"category_id"`
	Category    string   `json:"category"`
	Severity    int      `json:"severity"`
	ListIndex   int      `json:"list_index"`
	Description string   `json:"description"`
}

// GroupedCatalog is the indicator catalog arranged for the classification
// sheet: field, then category, then severity.
type GroupedCatalog struct {
	Fields []GroupedField `json:"fields"`
}

type GroupedField struct {
	Field      Field             `json:"field"`
	Categories []GroupedCategory `json:"categories"`
}

type GroupedCategory struct {
	Name       string            `json:"name"`
	Severities []GroupedSeverity `json:"severities"`
}

type GroupedSeverity struct {
	Severity   int                `json:"severity"`
	Indicators []GroupedIndicator `json:"indicators"`
}

type GroupedIndicator struct {
	Indicator
	Selected bool `json:"selected"`
}

// Group arranges indicators by field, category, and severity, preserving the
// catalog's list order within each severity. The selected set marks which
// indicators a classification has recorded.
func Group(indicators []Indicator, selected map[types.ID]bool) GroupedCatalog {
	var grouped GroupedCatalog
	for _, ind := range indicators {
		fi := -1
		for i, f := range grouped.Fields {
			if f.Field == ind.Field {
				fi = i
				break
			}
		}
		if fi == -1 {
			grouped.Fields = append(grouped.Fields, GroupedField{Field: ind.Field})
			fi = len(grouped.Fields) - 1
		}

		ci := -1
		for i, c := range grouped.Fields[fi].Categories {
			if c.Name == ind.Category {
				ci = i
				break
			}
		}
		if ci == -1 {
			grouped.Fields[fi].Categories = append(grouped.Fields[fi].Categories, GroupedCategory{Name: ind.Category})
			ci = len(grouped.Fields[fi].Categories) - 1
		}

		si := -1
		for i, s := range grouped.Fields[fi].Categories[ci].Severities {
			if s.Severity == ind.Severity {
				si = i
				break
			}
		}
		if si == -1 {
			grouped.Fields[fi].Categories[ci].Severities = append(
				grouped.Fields[fi].Categories[ci].Severities, GroupedSeverity{Severity: ind.Severity})
			si = len(grouped.Fields[fi].Categories[ci].Severities) - 1
		}

		sev := &grouped.Fields[fi].Categories[ci].Severities[si]
		sev.Indicators = append(sev.Indicators, GroupedIndicator{
			Indicator: ind,
			Selected:  selected[ind.ID],
		})
	}
	return grouped
}
