package domain

import (
	"context"
	"fmt"
	"testing"

	"github.com/clinicware/staffing/internal/catalog"
	"github.com/clinicware/staffing/internal/shared/errors"
	"github.com/clinicware/staffing/internal/shared/types"
)

// memCatalog is an in-memory care-option catalog for engine tests.
type memCatalog struct {
	indicators []catalog.Indicator
}

func (m *memCatalog) ListIndicators(ctx context.Context) ([]catalog.Indicator, error) {
	return m.indicators, nil
}

func (m *memCatalog) GetIndicator(ctx context.Context, id types.ID) (*catalog.Indicator, error) {
	for i := range m.indicators {
		if m.indicators[i].ID == id {
			return &m.indicators[i], nil
		}
	}
	return nil, errors.NotFound("care indicator", id.String())
}

func indicatorID(field catalog.Field, category string, severity, index int) types.ID {
	name := fmt.Sprintf("%s-%s-%d-%d", field, category, severity, index)
	return types.NewDeterministicID("care-indicator", name)
}

// testCatalog builds a catalog with two indicators per field, category, and
// severity across three categories each.
func testCatalog() *memCatalog {
	categories := map[catalog.Field][]string{
		catalog.FieldGeneral:  {"hygiene", "nutrition", "mobility"},
		catalog.FieldSpecific: {"wounds", "medication", "circulation"},
	}
	m := &memCatalog{}
	for field, names := range categories {
		for _, name := range names {
			for severity := 1; severity <= 4; severity++ {
				for index := 1; index <= 2; index++ {
					m.indicators = append(m.indicators, catalog.Indicator{
						ID:       indicatorID(field, name, severity, index),
						Name:     fmt.Sprintf("%s-%s-%d-%d", field, name, severity, index),
						Field:    field,
						Category: name,
						Severity: severity,
					})
				}
			}
		}
	}
	return m
}

// highScores returns an input whose clinical scores are all above the
// severity-4 gates.
func highScores() Input {
	return Input{
		BarthelIndex:         100,
		ExpandedBarthelIndex: 90,
		MiniMentalStatus:     30,
	}
}

func TestClassifyEmptySelection(t *testing.T) {
	engine := NewEngine(testCatalog())

	input := highScores()
	result, err := engine.Classify(context.Background(), input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.GeneralSeverity != 1 || result.SpecificSeverity != 1 {
		t.Errorf("Expected severities 1/1, got %d/%d", result.GeneralSeverity, result.SpecificSeverity)
	}
	if result.Minutes != 92 { // 33 base + 59 table
		t.Errorf("Expected 92 minutes, got %d", result.Minutes)
	}
}

func TestClassifyIsolationBase(t *testing.T) {
	engine := NewEngine(testCatalog())

	input := highScores()
	input.IsInIsolation = true
	result, err := engine.Classify(context.Background(), input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Minutes != 182 { // 123 isolation base + 59 table
		t.Errorf("Expected 182 minutes, got %d", result.Minutes)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	engine := NewEngine(testCatalog())

	input := highScores()
	input.SelectedIndicators = []types.ID{
		indicatorID(catalog.FieldGeneral, "hygiene", 3, 1),
		indicatorID(catalog.FieldGeneral, "nutrition", 3, 1),
		indicatorID(catalog.FieldSpecific, "wounds", 2, 1),
	}

	first, err := engine.Classify(context.Background(), input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := engine.Classify(context.Background(), input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if *first != *second {
		t.Errorf("Expected identical results, got %+v and %+v", first, second)
	}
}

func TestGeneralSeveritySelection(t *testing.T) {
	sel := func(entries ...[2]interface{}) []types.ID {
		var ids []types.ID
		for _, e := range entries {
			ids = append(ids, indicatorID(catalog.FieldGeneral, e[0].(string), e[1].(int), 1))
		}
		return ids
	}

	tests := []struct {
		name       string
		selected   []types.ID
		barthel    int
		expected   int
	}{
		{
			name:     "two severity-4 categories with score gate",
			selected: sel([2]interface{}{"hygiene", 4}, [2]interface{}{"nutrition", 4}),
			barthel:  35, // exactly at the gate
			expected: 4,
		},
		{
			name:     "two severity-4 categories without score gate",
			selected: sel([2]interface{}{"hygiene", 4}, [2]interface{}{"nutrition", 4}),
			barthel:  36,
			expected: 1,
		},
		{
			name:     "one severity-4 category with score gate",
			selected: sel([2]interface{}{"hygiene", 4}),
			barthel:  0,
			expected: 1,
		},
		{
			name:     "two severity-3 categories",
			selected: sel([2]interface{}{"hygiene", 3}, [2]interface{}{"mobility", 3}),
			barthel:  100,
			expected: 3,
		},
		{
			name:     "two severity-2 categories",
			selected: sel([2]interface{}{"hygiene", 2}, [2]interface{}{"nutrition", 2}),
			barthel:  100,
			expected: 2,
		},
		{
			name:     "one severity-2 category plus one severity-3 indicator",
			selected: sel([2]interface{}{"hygiene", 2}, [2]interface{}{"hygiene", 3}),
			barthel:  100,
			expected: 2,
		},
		{
			name:     "single severity-2 category alone",
			selected: sel([2]interface{}{"hygiene", 2}),
			barthel:  100,
			expected: 1,
		},
	}

	engine := NewEngine(testCatalog())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := highScores()
			input.BarthelIndex = tt.barthel
			input.SelectedIndicators = tt.selected

			result, err := engine.Classify(context.Background(), input)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if result.GeneralSeverity != tt.expected {
				t.Errorf("Expected general severity %d, got %d", tt.expected, result.GeneralSeverity)
			}
		})
	}
}

func TestSpecificSeveritySelection(t *testing.T) {
	sel := func(category string, severity int) types.ID {
		return indicatorID(catalog.FieldSpecific, category, severity, 1)
	}

	tests := []struct {
		name     string
		selected []types.ID
		expected int
	}{
		{
			name:     "severity-3 indicators in two areas",
			selected: []types.ID{sel("wounds", 3), sel("medication", 3)},
			expected: 4,
		},
		{
			name:     "single severity-3 indicator",
			selected: []types.ID{sel("wounds", 3)},
			expected: 3,
		},
		{
			name:     "single severity-2 indicator",
			selected: []types.ID{sel("medication", 2)},
			expected: 2,
		},
		{
			name:     "only severity-1 indicators",
			selected: []types.ID{sel("wounds", 1), sel("medication", 1)},
			expected: 1,
		},
	}

	engine := NewEngine(testCatalog())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := highScores()
			input.SelectedIndicators = tt.selected

			result, err := engine.Classify(context.Background(), input)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if result.SpecificSeverity != tt.expected {
				t.Errorf("Expected specific severity %d, got %d", tt.expected, result.SpecificSeverity)
			}
		})
	}
}

func TestSumMinutes(t *testing.T) {
	tests := []struct {
		name     string
		general  int
		specific int
		input    Input
		expected int
	}{
		{
			name:     "lowest severities, no flags",
			general:  1,
			specific: 1,
			expected: 92, // 33 + 59
		},
		{
			name:     "highest severities, fully stationary on admission day",
			general:  4,
			specific: 4,
			input:    Input{IsFullyStationary: true, IsDayOfAdmission: true},
			expected: 535, // 33 + 427 + 75
		},
		{
			name:     "semi-stationary halves before the bonus",
			general:  1,
			specific: 1,
			input:    Input{IsSemiStationary: true},
			expected: 121, // (33+59)/2 + 75 first-visit bonus
		},
		{
			name:     "repeating visit not yet billed this quarter",
			general:  1,
			specific: 1,
			input:    Input{IsSemiStationary: true, IsRepeatingVisit: true},
			expected: 121, // (33+59)/2 + 75 repeat bonus
		},
		{
			name:     "repeating visit already billed this quarter",
			general:  1,
			specific: 1,
			input:    Input{IsSemiStationary: true, IsRepeatingVisit: true, BilledThisQuarter: true},
			expected: 46, // (33+59)/2, no bonus
		},
		{
			name:     "halving rounds down",
			general:  1,
			specific: 3,
			input:    Input{IsSemiStationary: true, IsRepeatingVisit: true, BilledThisQuarter: true},
			expected: 72, // (33+112)/2 = 72.5 floored
		},
		{
			name:     "isolation with mid severities",
			general:  2,
			specific: 3,
			input:    Input{IsInIsolation: true},
			expected: 290, // 123 + 167
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SumMinutes(tt.general, tt.specific, tt.input)
			if got != tt.expected {
				t.Errorf("Expected %d minutes, got %d", tt.expected, got)
			}
		})
	}
}

func TestClassifyUnknownIndicator(t *testing.T) {
	engine := NewEngine(testCatalog())

	input := highScores()
	input.SelectedIndicators = []types.ID{types.NewID()}

	_, err := engine.Classify(context.Background(), input)
	if err == nil {
		t.Fatal("Expected error for unknown indicator")
	}
	if !errors.Is(err, errors.ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestClassifyScoreOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		input Input
	}{
		{"negative barthel", Input{BarthelIndex: -1, ExpandedBarthelIndex: 30, MiniMentalStatus: 20}},
		{"barthel above maximum", Input{BarthelIndex: 101, ExpandedBarthelIndex: 30, MiniMentalStatus: 20}},
		{"expanded barthel above maximum", Input{BarthelIndex: 50, ExpandedBarthelIndex: 91, MiniMentalStatus: 20}},
		{"mini mental above maximum", Input{BarthelIndex: 50, ExpandedBarthelIndex: 30, MiniMentalStatus: 31}},
	}

	engine := NewEngine(testCatalog())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Classify(context.Background(), tt.input)
			if err == nil {
				t.Fatal("Expected error for out-of-range score")
			}
			if !errors.Is(err, errors.ErrValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestClassifyDirectRejectsInvalidSeverity(t *testing.T) {
	engine := NewEngine(testCatalog())

	if _, err := engine.ClassifyDirect(0, 1, Input{}); err == nil {
		t.Error("Expected error for severity 0")
	}
	if _, err := engine.ClassifyDirect(1, 5, Input{}); err == nil {
		t.Error("Expected error for severity 5")
	}

	result, err := engine.ClassifyDirect(3, 2, Input{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Minutes != 253 { // 33 + 220
		t.Errorf("Expected 253 minutes, got %d", result.Minutes)
	}
}
