package catalog

import (
	"testing"

	"github.com/clinicware/staffing/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseField(t *testing.T) {
	for _, valid := range []string{"A", "S"} {
		field, err := ParseField(valid)
		require.NoError(t, err)
		assert.Equal(t, Field(valid), field)
	}

	for _, invalid := range []string{"", "a", "B", "general"} {
		_, err := ParseField(invalid)
		assert.Error(t, err, "field %q must be rejected", invalid)
	}
}

func TestGroup(t *testing.T) {
	ind := func(field Field, category string, severity, index int) Indicator {
		return Indicator{
			ID:        types.NewDeterministicID("test", string(field)+category+string(rune('0'+severity))+string(rune('0'+index))),
			Field:     field,
			Category:  category,
			Severity:  severity,
			ListIndex: index,
		}
	}

	indicators := []Indicator{
		ind(FieldGeneral, "hygiene", 1, 1),
		ind(FieldGeneral, "hygiene", 1, 2),
		ind(FieldGeneral, "hygiene", 2, 1),
		ind(FieldGeneral, "nutrition", 1, 1),
		ind(FieldSpecific, "wounds", 3, 1),
	}

	selected := map[types.ID]bool{
		indicators[1].ID: true,
		indicators[4].ID: true,
	}

	grouped := Group(indicators, selected)

	require.Len(t, grouped.Fields, 2)
	general := grouped.Fields[0]
	assert.Equal(t, FieldGeneral, general.Field)
	require.Len(t, general.Categories, 2)

	hygiene := general.Categories[0]
	assert.Equal(t, "hygiene", hygiene.Name)
	require.Len(t, hygiene.Severities, 2)
	require.Len(t, hygiene.Severities[0].Indicators, 2)

	// List order within a severity is preserved, and the selected set is
	// carried onto the matching indicators.
	assert.False(t, hygiene.Severities[0].Indicators[0].Selected)
	assert.True(t, hygiene.Severities[0].Indicators[1].Selected)

	specific := grouped.Fields[1]
	assert.Equal(t, FieldSpecific, specific.Field)
	require.Len(t, specific.Categories, 1)
	assert.True(t, specific.Categories[0].Severities[0].Indicators[0].Selected)
}

func TestGroupEmpty(t *testing.T) {
	grouped := Group(nil, nil)
	assert.Empty(t, grouped.Fields)
}
