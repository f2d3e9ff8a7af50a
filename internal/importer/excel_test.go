package importer

import (
	"bytes"
	"testing"
	"time"

	"github.com/clinicware/staffing/internal/shared/errors"
	"github.com/clinicware/staffing/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]string) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for r, cells := range rows {
		for c, value := range cells {
			cellName, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cellName, value))
		}
	}

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestParsePatientDays(t *testing.T) {
	buf := buildWorkbook(t, [][]string{
		patientDayHeaders,
		{"P-1001", "Anna", "Schmidt", "Station 3A", "10.03.2026", "10.03.2026 08:30", "12.03.2026 10:00", "", "ja", "", ""},
		{"P-1002", "Karl", "Meier", "Station 3A", "10.03.2026", "10.03.2026 09:00", "10.03.2026 13:00", "ja", "", "ja", "x"},
	})

	rows, err := ParsePatientDays(buf, time.UTC)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "P-1001", rows[0].ExternalID)
	assert.Equal(t, "Anna", rows[0].FirstName)
	assert.Equal(t, "Station 3A", rows[0].StationName)
	assert.Equal(t, types.MustParseDate("2026-03-10"), rows[0].Date)
	assert.True(t, rows[0].IsFullyStationary)
	assert.False(t, rows[0].IsSemiStationary)
	assert.Equal(t, time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC), rows[0].AdmittedAt)

	assert.True(t, rows[1].IsSemiStationary)
	assert.True(t, rows[1].IsRepeatingVisit)
	assert.True(t, rows[1].UsesQuarterEntry)
}

func TestParsePatientDaysRejectsBadRows(t *testing.T) {
	tests := []struct {
		name string
		row  []string
	}{
		{
			name: "missing patient number",
			row:  []string{"", "Anna", "Schmidt", "Station 3A", "10.03.2026", "10.03.2026 08:30", "12.03.2026 10:00", "", "", "", ""},
		},
		{
			name: "missing station",
			row:  []string{"P-1", "Anna", "Schmidt", "", "10.03.2026", "10.03.2026 08:30", "12.03.2026 10:00", "", "", "", ""},
		},
		{
			name: "unparseable date",
			row:  []string{"P-1", "Anna", "Schmidt", "Station 3A", "2026-03-10", "10.03.2026 08:30", "12.03.2026 10:00", "", "", "", ""},
		},
		{
			name: "unparseable admission instant",
			row:  []string{"P-1", "Anna", "Schmidt", "Station 3A", "10.03.2026", "morgens", "12.03.2026 10:00", "", "", "", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := buildWorkbook(t, [][]string{patientDayHeaders, tt.row})
			_, err := ParsePatientDays(buf, time.UTC)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrValidation))
		})
	}
}

func TestParsePatientDaysRejectsWrongHeaders(t *testing.T) {
	buf := buildWorkbook(t, [][]string{
		{"Nummer", "Vorname", "Nachname"},
	})

	_, err := ParsePatientDays(buf, time.UTC)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestParseCaregiverShifts(t *testing.T) {
	buf := buildWorkbook(t, [][]string{
		caregiverShiftHeaders,
		{"Station 3A", "10.03.2026", "Tag", "4"},
		{"Station 3A", "10.03.2026", "Nacht", "2"},
	})

	rows, err := ParseCaregiverShifts(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, types.ShiftDay, rows[0].Shift)
	assert.Equal(t, 4, rows[0].Caregivers)
	assert.Equal(t, types.ShiftNight, rows[1].Shift)
	assert.Equal(t, 2, rows[1].Caregivers)
}

func TestParseCaregiverShiftsRejectsUnknownShift(t *testing.T) {
	buf := buildWorkbook(t, [][]string{
		caregiverShiftHeaders,
		{"Station 3A", "10.03.2026", "Spät", "3"},
	})

	_, err := ParseCaregiverShifts(buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}
