package domain

import (
	"context"
	"fmt"

	"github.com/clinicware/staffing/internal/catalog"
	"github.com/clinicware/staffing/internal/shared/errors"
	"github.com/clinicware/staffing/internal/shared/types"
)

// Base minute values (§ 12 (1) PPBV). Isolation replaces the base, the two
// are never added.
const (
	baseMinutes          = 33
	baseMinutesIsolation = 123
	admissionBonus       = 75
)

// minuteTable holds the minutes per (general severity, specific severity)
// pair from § 12 (4) PPBV. Rows are A1-A4, columns S1-S4.
var minuteTable = [4][4]int{
	{59, 76, 112, 151},
	{114, 131, 167, 206},
	{203, 220, 256, 295},
	{335, 352, 388, 427},
}

// Score bounds; values outside are rejected, not clamped.
const (
	maxBarthelIndex         = 100
	maxExpandedBarthelIndex = 90
	maxMiniMentalStatus     = 30
)

// Severity-4 score gates: the highest general-care severity additionally
// requires one of these thresholds (§ 5 PPBV).
const (
	barthelGate         = 35
	expandedBarthelGate = 15
	miniMentalGate      = 16
)

// Engine derives severity indices and care minutes from a classification
// input. Stateless; the catalog is its only collaborator.
type Engine struct {
	catalog catalog.Catalog
}

// NewEngine creates a new classification engine
func NewEngine(cat catalog.Catalog) *Engine {
	return &Engine{catalog: cat}
}

// severityGroups counts, per severity, how often each care category appears
// among the selected indicators of one field.
type severityGroups map[int]map[string]int

func (g severityGroups) add(severity int, category string) {
	if g[severity] == nil {
		g[severity] = make(map[string]int)
	}
	g[severity][category]++
}

// categories returns the number of distinct categories with at least one
// indicator at the given severity.
func (g severityGroups) categories(severity int) int {
	return len(g[severity])
}

// any reports whether any indicator of the given severity is present.
func (g severityGroups) any(severity int) bool {
	return len(g[severity]) > 0
}

// Classify computes the classification result for the given input. Two calls
// with identical input yield identical output; an empty indicator set is
// legal and resolves to the lowest severities.
func (e *Engine) Classify(ctx context.Context, input Input) (*Result, error) {
	if err := validateScores(input); err != nil {
		return nil, err
	}

	general, specific, err := e.groupAndSelect(ctx, input)
	if err != nil {
		return nil, err
	}

	return &Result{
		GeneralSeverity:  general,
		SpecificSeverity: specific,
		Minutes:          SumMinutes(general, specific, input),
	}, nil
}

// ClassifyDirect computes minutes from explicitly given severity indices,
// bypassing the decision trees. Used when a caregiver overrides the derived
// classification.
func (e *Engine) ClassifyDirect(generalSeverity, specificSeverity int, input Input) (*Result, error) {
	if generalSeverity < 1 || generalSeverity > 4 || specificSeverity < 1 || specificSeverity > 4 {
		return nil, errors.Validation("severity indices must be between 1 and 4", map[string]string{
			"general_severity":  fmt.Sprint(generalSeverity),
			"specific_severity": fmt.Sprint(specificSeverity),
		})
	}
	return &Result{
		GeneralSeverity:  generalSeverity,
		SpecificSeverity: specificSeverity,
		Minutes:          SumMinutes(generalSeverity, specificSeverity, input),
	}, nil
}

// groupAndSelect partitions the selected indicators by field and severity and
// runs both severity decision trees.
func (e *Engine) groupAndSelect(ctx context.Context, input Input) (general, specific int, err error) {
	indicators, err := e.catalog.ListIndicators(ctx)
	if err != nil {
		return 0, 0, err
	}

	byID := make(map[types.ID]catalog.Indicator, len(indicators))
	for _, ind := range indicators {
		byID[ind.ID] = ind
	}

	generalGroups := make(severityGroups)
	specificGroups := make(severityGroups)
	for _, id := range input.SelectedIndicators {
		ind, ok := byID[id]
		if !ok {
			return 0, 0, errors.Validation("unknown care indicator", map[string]string{"indicator_id": id.String()})
		}
		switch ind.Field {
		case catalog.FieldGeneral:
			generalGroups.add(ind.Severity, ind.Category)
		case catalog.FieldSpecific:
			specificGroups.add(ind.Severity, ind.Category)
		}
	}

	return chooseGeneralSeverity(generalGroups, input), chooseSpecificSeverity(specificGroups), nil
}

// chooseGeneralSeverity assigns the general-care severity (§ 5 PPBV),
// evaluated top-down, first match wins:
//
//	A4: at least 2 areas with an A4 characteristic AND one clinical score gate,
//	A3: at least 2 areas with an A3 characteristic,
//	A2: at least 2 areas with an A2 characteristic, or one A2 area plus any A3
//	    characteristic,
//	A1: otherwise.
func chooseGeneralSeverity(groups severityGroups, input Input) int {
	scoreGate := input.BarthelIndex <= barthelGate ||
		input.ExpandedBarthelIndex <= expandedBarthelGate ||
		input.MiniMentalStatus <= miniMentalGate

	switch {
	case groups.categories(4) >= 2 && scoreGate:
		return 4
	case groups.categories(3) >= 2:
		return 3
	case groups.categories(2) >= 1 && (groups.categories(2) >= 2 || groups.any(3)):
		return 2
	default:
		return 1
	}
}

// chooseSpecificSeverity assigns the specific-care severity (§ 6 PPBV):
//
//	S4: an S3 characteristic in at least 2 areas,
//	S3: any S3 characteristic,
//	S2: any S2 characteristic,
//	S1: otherwise.
func chooseSpecificSeverity(groups severityGroups) int {
	switch {
	case groups.categories(3) >= 2:
		return 4
	case groups.any(3):
		return 3
	case groups.any(2):
		return 2
	default:
		return 1
	}
}

// SumMinutes computes the minute value for a severity pair under the input's
// stay context. The order is fixed: base plus table value, halve for
// semi-stationary stays, then add the admission bonuses. Halving rounds down
// to whole minutes; every other term is integral.
func SumMinutes(generalSeverity, specificSeverity int, input Input) int {
	minutes := baseMinutes
	if input.IsInIsolation {
		minutes = baseMinutesIsolation
	}

	minutes += minuteTable[generalSeverity-1][specificSeverity-1]

	// Semi-stationary stays count half (§ 4 (2) 3. PPBV).
	if input.IsSemiStationary {
		minutes /= 2
	}

	// Admission bonuses (§ 12 (3) PPBV).
	if input.IsFullyStationary && input.IsDayOfAdmission {
		minutes += admissionBonus
	}
	if input.IsSemiStationary && !input.IsRepeatingVisit {
		minutes += admissionBonus
	}

	// A repeating visit earns the bonus at most once per calendar quarter
	// (§ 4 (2) 4. PPBV).
	if input.IsSemiStationary && input.IsRepeatingVisit && !input.BilledThisQuarter {
		minutes += admissionBonus
	}

	return minutes
}

func validateScores(input Input) error {
	details := map[string]string{}
	if input.BarthelIndex < 0 || input.BarthelIndex > maxBarthelIndex {
		details["barthel_index"] = fmt.Sprint(input.BarthelIndex)
	}
	if input.ExpandedBarthelIndex < 0 || input.ExpandedBarthelIndex > maxExpandedBarthelIndex {
		details["expanded_barthel_index"] = fmt.Sprint(input.ExpandedBarthelIndex)
	}
	if input.MiniMentalStatus < 0 || input.MiniMentalStatus > maxMiniMentalStatus {
		details["mini_mental_status"] = fmt.Sprint(input.MiniMentalStatus)
	}
	if len(details) > 0 {
		return errors.Validation("clinical score out of range", details)
	}
	return nil
}
