package importer

import (
	"encoding/json"
	"net/http"

	"github.com/clinicware/staffing/internal/shared/errors"
	"github.com/go-chi/chi/v5"
)

// Handler provides HTTP handlers for spreadsheet imports
type Handler struct {
	service *Service
}

// NewHandler creates a new import handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes registers the import routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/patient-days", h.ImportPatientDays)
	r.Post("/caregiver-shifts", h.ImportCaregiverShifts)

	return r
}

func (h *Handler) ImportPatientDays(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, errors.BadRequest("missing file upload"))
		return
	}
	defer file.Close()

	summary, err := h.service.ImportPatientDays(r.Context(), file)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) ImportCaregiverShifts(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, errors.BadRequest("missing file upload"))
		return
	}
	defer file.Close()

	summary, err := h.service.ImportCaregiverShifts(r.Context(), file)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
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
