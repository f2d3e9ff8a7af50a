package stay

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/clinicware/staffing/internal/shared/errors"
	"github.com/clinicware/staffing/internal/shared/types"
	"github.com/go-chi/chi/v5"
)

// Handler provides HTTP handlers for occupancy queries
type Handler struct {
	service *Service
}

// NewHandler creates a new stay handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes registers the stay routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/stations", h.ListStations)
	r.Get("/stations/{stationID}/visit-types", h.VisitTypes)
	r.Get("/patients/{patientID}/current-station", h.CurrentStation)
	r.Get("/patients/external/{externalID}/current-station", h.CurrentStationByExternalID)

	return r
}

func (h *Handler) ListStations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.service.repo.ListStations(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  stations,
		"total": len(stations),
	})
}

func (h *Handler) VisitTypes(w http.ResponseWriter, r *http.Request) {
	stationID, err := types.ParseID(chi.URLParam(r, "stationID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid station ID"))
		return
	}

	asOf, err := parseAsOf(r)
	if err != nil {
		writeError(w, err)
		return
	}

	report, err := h.service.VisitTypes(r.Context(), stationID, asOf)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) CurrentStation(w http.ResponseWriter, r *http.Request) {
	patientID, err := types.ParseID(chi.URLParam(r, "patientID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid patient ID"))
		return
	}

	asOf, err := parseAsOf(r)
	if err != nil {
		writeError(w, err)
		return
	}

	current, err := h.service.CurrentStation(r.Context(), patientID, asOf)
	if err != nil {
		writeError(w, err)
		return
	}

	if current.External {
		writeJSON(w, http.StatusOK, map[string]any{"station": ExternalStation})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"station": current.StationID})
}

// CurrentStationByExternalID resolves a patient by the hospital's patient
// number instead of the internal id
func (h *Handler) CurrentStationByExternalID(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalID")
	if externalID == "" {
		writeError(w, errors.BadRequest("missing patient number"))
		return
	}

	asOf, err := parseAsOf(r)
	if err != nil {
		writeError(w, err)
		return
	}

	current, err := h.service.CurrentStationByExternalID(r.Context(), externalID, asOf)
	if err != nil {
		writeError(w, err)
		return
	}

	if current.External {
		writeJSON(w, http.StatusOK, map[string]any{"station": ExternalStation})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"station": current.StationID})
}

// parseAsOf reads the optional as_of query parameter (RFC 3339), defaulting
// to the current instant.
func parseAsOf(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return time.Now(), nil
	}
	asOf, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.BadRequest("invalid as_of instant, expected RFC 3339")
	}
	return asOf, nil
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
