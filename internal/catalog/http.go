package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/clinicware/staffing/internal/shared/errors"
	"github.com/clinicware/staffing/internal/shared/types"
	"github.com/go-chi/chi/v5"
)

// Handler provides HTTP handlers for the care-option catalog
type Handler struct {
	catalog Catalog
}

// NewHandler creates a new catalog handler
func NewHandler(catalog Catalog) *Handler {
	return &Handler{catalog: catalog}
}

// Routes registers the catalog routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/indicators", h.ListIndicators)
	r.Get("/indicators/{indicatorID}", h.GetIndicator)

	return r
}

// ListIndicators returns the catalog, grouped unless grouped=false is set
func (h *Handler) ListIndicators(w http.ResponseWriter, r *http.Request) {
	indicators, err := h.catalog.ListIndicators(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("grouped") == "false" {
		writeJSON(w, http.StatusOK, map[string]any{
			"data":  indicators,
			"total": len(indicators),
		})
		return
	}

	writeJSON(w, http.StatusOK, Group(indicators, nil))
}

func (h *Handler) GetIndicator(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "indicatorID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid indicator ID"))
		return
	}

	indicator, err := h.catalog.GetIndicator(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, indicator)
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
