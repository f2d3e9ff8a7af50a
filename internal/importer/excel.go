package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/clinicware/staffing/internal/shared/errors"
	"github.com/clinicware/staffing/internal/shared/types"
	"github.com/xuri/excelize/v2"
)

// Spreadsheet column headers as exported by the hospital information system.
// The sheets arrive in German; header matching is case-insensitive.
var patientDayHeaders = []string{
	"Patientennummer",
	"Vorname",
	"Nachname",
	"Station",
	"Datum",
	"Aufnahme",
	"Entlassung",
	"Teilstationär",
	"Vollstationär",
	"Wiederkehrend",
	"Quartalseintrag",
}

var caregiverShiftHeaders = []string{
	"Station",
	"Datum",
	"Schicht",
	"Pflegekräfte",
}

// PatientDayRow is one parsed spreadsheet row of expected patient-stay data
type PatientDayRow struct {
	ExternalID        string
	FirstName         string
	LastName          string
	StationName       string
	Date              types.Date
	AdmittedAt        time.Time
	DischargedAt      time.Time
	IsSemiStationary  bool
	IsFullyStationary bool
	IsRepeatingVisit  bool
	UsesQuarterEntry  bool
}

// CaregiverShiftRow is one parsed spreadsheet row of caregiver duty counts
type CaregiverShiftRow struct {
	StationName string
	Date        types.Date
	Shift       types.Shift
	Caregivers  int
}

// ParsePatientDays reads an uploaded workbook of expected patient-stay
// records. The first sheet is used; the first row must carry the known
// headers. Timestamps are wall-clock values in the given location.
func ParsePatientDays(r io.Reader, loc *time.Location) ([]PatientDayRow, error) {
	rows, err := sheetRows(r, patientDayHeaders)
	if err != nil {
		return nil, err
	}

	out := make([]PatientDayRow, 0, len(rows))
	for i, cells := range rows {
		row := PatientDayRow{
			ExternalID:  cell(cells, 0),
			FirstName:   cell(cells, 1),
			LastName:    cell(cells, 2),
			StationName: cell(cells, 3),
		}
		if row.ExternalID == "" {
			return nil, rowError(i, "Patientennummer fehlt")
		}
		if row.StationName == "" {
			return nil, rowError(i, "Station fehlt")
		}

		if row.Date, err = parseGermanDate(cell(cells, 4)); err != nil {
			return nil, rowError(i, err.Error())
		}
		if row.AdmittedAt, err = parseGermanInstant(cell(cells, 5), loc); err != nil {
			return nil, rowError(i, err.Error())
		}
		if row.DischargedAt, err = parseGermanInstant(cell(cells, 6), loc); err != nil {
			return nil, rowError(i, err.Error())
		}

		row.IsSemiStationary = parseFlag(cell(cells, 7))
		row.IsFullyStationary = parseFlag(cell(cells, 8))
		row.IsRepeatingVisit = parseFlag(cell(cells, 9))
		row.UsesQuarterEntry = parseFlag(cell(cells, 10))

		out = append(out, row)
	}

	return out, nil
}

// ParseCaregiverShifts reads an uploaded workbook of caregiver duty counts
// per station, day, and shift
func ParseCaregiverShifts(r io.Reader) ([]CaregiverShiftRow, error) {
	rows, err := sheetRows(r, caregiverShiftHeaders)
	if err != nil {
		return nil, err
	}

	out := make([]CaregiverShiftRow, 0, len(rows))
	for i, cells := range rows {
		row := CaregiverShiftRow{StationName: cell(cells, 0)}
		if row.StationName == "" {
			return nil, rowError(i, "Station fehlt")
		}

		if row.Date, err = parseGermanDate(cell(cells, 1)); err != nil {
			return nil, rowError(i, err.Error())
		}

		switch strings.ToLower(cell(cells, 2)) {
		case "tag":
			row.Shift = types.ShiftDay
		case "nacht":
			row.Shift = types.ShiftNight
		default:
			return nil, rowError(i, fmt.Sprintf("unbekannte Schicht %q", cell(cells, 2)))
		}

		row.Caregivers, err = strconv.Atoi(cell(cells, 3))
		if err != nil || row.Caregivers < 0 {
			return nil, rowError(i, fmt.Sprintf("ungültige Pflegekräfte-Anzahl %q", cell(cells, 3)))
		}

		out = append(out, row)
	}

	return out, nil
}

// sheetRows opens the workbook, validates the header row, and returns the
// data rows of the first sheet.
func sheetRows(r io.Reader, headers []string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.BadRequest("could not read workbook: " + err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.BadRequest("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.BadRequest("could not read sheet: " + err.Error())
	}
	if len(rows) == 0 {
		return nil, errors.BadRequest("sheet is empty")
	}

	for i, header := range headers {
		if !strings.EqualFold(cell(rows[0], i), header) {
			return nil, errors.BadRequest(fmt.Sprintf("unexpected header in column %d: got %q, want %q",
				i+1, cell(rows[0], i), header))
		}
	}

	return rows[1:], nil
}

func cell(cells []string, i int) string {
	if i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

func parseGermanDate(s string) (types.Date, error) {
	t, err := time.Parse("02.01.2006", s)
	if err != nil {
		return types.Date{}, fmt.Errorf("ungültiges Datum %q", s)
	}
	return types.DateOf(t), nil
}

func parseGermanInstant(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("02.01.2006 15:04", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("ungültiger Zeitpunkt %q", s)
	}
	return t, nil
}

func parseFlag(s string) bool {
	switch strings.ToLower(s) {
	case "ja", "x", "1", "true", "wahr":
		return true
	default:
		return false
	}
}

func rowError(index int, message string) error {
	return errors.Validation("spreadsheet row invalid", map[string]string{
		"row":    strconv.Itoa(index + 2), // 1-based, after the header
		"reason": message,
	})
}
