package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/clinicware/staffing/internal/classification/domain"
	"github.com/clinicware/staffing/internal/shared/errors"
	"github.com/clinicware/staffing/internal/shared/types"
	"github.com/go-chi/chi/v5"
)

// Handler provides HTTP handlers for the classification module
type Handler struct {
	service *Service
	repo    domain.Repository
}

// NewHandler creates a new classification handler
func NewHandler(service *Service, repo domain.Repository) *Handler {
	return &Handler{service: service, repo: repo}
}

// Routes registers the classification routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/patients/{patientID}/days/{date}", func(r chi.Router) {
		r.Get("/questions", h.GetQuestions)
		r.Put("/questions", h.PutAnswers)
		r.Get("/classification", h.GetClassification)
		r.Delete("/classification", h.DeleteClassification)
		r.Put("/classification/direct", h.PutDirect)
	})
	r.Get("/stations/{stationID}/days/{date}", h.ListByStation)

	return r
}

type DirectRequest struct {
	GeneralSeverity  int     `json:"general_severity"`
	SpecificSeverity int     `json:"specific_severity"`
	Answers          Answers `json:"answers"`
}

func (h *Handler) GetQuestions(w http.ResponseWriter, r *http.Request) {
	patientID, date, err := pathKey(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sheet, err := h.service.Questions(r.Context(), patientID, date)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sheet)
}

func (h *Handler) PutAnswers(w http.ResponseWriter, r *http.Request) {
	patientID, date, err := pathKey(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var answers Answers
	if err := json.NewDecoder(r.Body).Decode(&answers); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	c, err := h.service.Classify(r.Context(), patientID, date, answers, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) GetClassification(w http.ResponseWriter, r *http.Request) {
	patientID, date, err := pathKey(r)
	if err != nil {
		writeError(w, err)
		return
	}

	c, err := h.repo.FindByPatientDate(r.Context(), patientID, date)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteClassification(w http.ResponseWriter, r *http.Request) {
	patientID, date, err := pathKey(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Remove(r.Context(), patientID, date, time.Now()); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListByStation(w http.ResponseWriter, r *http.Request) {
	stationID, err := types.ParseID(chi.URLParam(r, "stationID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid station ID"))
		return
	}
	date, err := types.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid date, expected YYYY-MM-DD"))
		return
	}

	list, err := h.service.ForStationDay(r.Context(), stationID, date)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": list})
}

func (h *Handler) PutDirect(w http.ResponseWriter, r *http.Request) {
	patientID, date, err := pathKey(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req DirectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	c, err := h.service.ClassifyDirect(r.Context(), patientID, date,
		req.GeneralSeverity, req.SpecificSeverity, req.Answers, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func pathKey(r *http.Request) (types.ID, types.Date, error) {
	patientID, err := types.ParseID(chi.URLParam(r, "patientID"))
	if err != nil {
		return "", types.Date{}, errors.BadRequest("invalid patient ID")
	}

	date, err := types.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		return "", types.Date{}, errors.BadRequest("invalid date, expected YYYY-MM-DD")
	}

	return patientID, date, nil
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
