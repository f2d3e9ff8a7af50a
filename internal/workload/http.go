package workload

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/clinicware/staffing/internal/shared/errors"
	"github.com/clinicware/staffing/internal/shared/types"
	"github.com/clinicware/staffing/internal/stay"
	"github.com/go-chi/chi/v5"
)

// Handler provides HTTP handlers for workload analysis
type Handler struct {
	repo       *Repository
	stays      *stay.Repository
	calculator *Calculator
	scheduler  *Scheduler
}

// NewHandler creates a new workload handler
func NewHandler(repo *Repository, stays *stay.Repository, calculator *Calculator, scheduler *Scheduler) *Handler {
	return &Handler{repo: repo, stays: stays, calculator: calculator, scheduler: scheduler}
}

// Routes registers the workload routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/overview", h.Overview)
	r.Route("/stations/{stationID}", func(r chi.Router) {
		r.Get("/daily", h.Daily)
		r.Get("/monthly", h.Monthly)
		r.Get("/analysis", h.Analysis)
		r.Post("/recompute", h.Recompute)
	})

	return r
}

// StationOverview compares, per station, how many patients are expected with
// how many are already classified on one day
type StationOverview struct {
	Station    stay.Station `json:"station"`
	Expected   int          `json:"expected_patients"`
	Classified int          `json:"classified_patients"`
	Missing    int          `json:"missing_classifications"`
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r, "date")
	if err != nil {
		writeError(w, err)
		return
	}

	stations, err := h.stays.ListStations(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	overview := make([]StationOverview, 0, len(stations))
	for _, station := range stations {
		expected, err := h.repo.CountExpectedPatients(r.Context(), station.ID, date)
		if err != nil {
			writeError(w, err)
			return
		}
		classified, err := h.repo.CountClassifications(r.Context(), station.ID, date)
		if err != nil {
			writeError(w, err)
			return
		}

		missing := expected - classified
		if missing < 0 {
			missing = 0
		}
		overview = append(overview, StationOverview{
			Station:    station,
			Expected:   expected,
			Classified: classified,
			Missing:    missing,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date": date,
		"data": overview,
	})
}

func (h *Handler) Daily(w http.ResponseWriter, r *http.Request) {
	stationID, err := types.ParseID(chi.URLParam(r, "stationID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid station ID"))
		return
	}

	date, err := parseDate(r, "date")
	if err != nil {
		writeError(w, err)
		return
	}

	shift, err := parseShift(r)
	if err != nil {
		writeError(w, err)
		return
	}

	aggregate, err := h.repo.GetDaily(r.Context(), stationID, date, shift)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, aggregate)
}

func (h *Handler) Monthly(w http.ResponseWriter, r *http.Request) {
	stationID, err := types.ParseID(chi.URLParam(r, "stationID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid station ID"))
		return
	}

	month, err := parseDate(r, "month")
	if err != nil {
		writeError(w, err)
		return
	}

	shift, err := parseShift(r)
	if err != nil {
		writeError(w, err)
		return
	}

	aggregate, err := h.repo.GetMonthly(r.Context(), stationID, month, shift)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, aggregate)
}

// AnalysisRow compares, for one day, how many caregivers the care minutes
// called for with how many were actually on duty
type AnalysisRow struct {
	Date             types.Date `json:"date"`
	MinutesTotal     int        `json:"minutes_total"`
	PatientsTotal    int        `json:"patients_total"`
	CaregiversOnDuty int        `json:"caregivers_on_duty"`
	ShouldCaregivers float64    `json:"should_caregivers"`
}

func (h *Handler) Analysis(w http.ResponseWriter, r *http.Request) {
	stationID, err := types.ParseID(chi.URLParam(r, "stationID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid station ID"))
		return
	}

	from, err := parseDate(r, "from")
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := parseDate(r, "to")
	if err != nil {
		writeError(w, err)
		return
	}
	if to.Before(from) {
		writeError(w, errors.BadRequest("to must not precede from"))
		return
	}

	shift, err := parseShift(r)
	if err != nil {
		writeError(w, err)
		return
	}

	days, err := h.repo.DailyRange(r.Context(), stationID, from, to, shift)
	if err != nil {
		writeError(w, err)
		return
	}

	series := make([]AnalysisRow, 0, len(days))
	for _, d := range days {
		series = append(series, AnalysisRow{
			Date:             d.Date,
			MinutesTotal:     d.MinutesTotal,
			PatientsTotal:    d.PatientsTotal,
			CaregiversOnDuty: d.CaregiversTotal,
			ShouldCaregivers: h.calculator.ShouldCaregivers(d.SuggestedCaregivers, shift),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"station_id": stationID,
		"shift":      shift,
		"from":       from,
		"to":         to,
		"data":       series,
	})
}

func (h *Handler) Recompute(w http.ResponseWriter, r *http.Request) {
	stationID, err := types.ParseID(chi.URLParam(r, "stationID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid station ID"))
		return
	}

	date, err := parseDate(r, "date")
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.scheduler.RecomputeIfDue(r.Context(), stationID, date, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// parseDate reads a required YYYY-MM-DD query parameter
func parseDate(r *http.Request, name string) (types.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return types.Date{}, errors.BadRequest("missing " + name + " parameter")
	}
	date, err := types.ParseDate(raw)
	if err != nil {
		return types.Date{}, errors.BadRequest("invalid " + name + ", expected YYYY-MM-DD")
	}
	return date, nil
}

func parseShift(r *http.Request) (types.Shift, error) {
	raw := r.URL.Query().Get("shift")
	if raw == "" {
		return types.ShiftDay, nil
	}
	shift, err := types.ParseShift(raw)
	if err != nil {
		return "", errors.BadRequest("invalid shift, expected DAY or NIGHT")
	}
	return shift, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
