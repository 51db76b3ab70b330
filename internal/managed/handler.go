package managed

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/HerbHall/managedrecords/internal/records"
	"github.com/HerbHall/managedrecords/internal/server"
	"go.uber.org/zap"
)

// Handler serves managed record retrievals.
type Handler struct {
	retriever *records.Retriever
	logger    *zap.Logger
}

// NewHandler creates a Handler around retriever.
func NewHandler(retriever *records.Retriever, logger *zap.Logger) *Handler {
	return &Handler{retriever: retriever, logger: logger}
}

// RegisterRoutes registers GET /api/v1/managed-records on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/managed-records", h.HandleManagedRecords)
}

// HandleManagedRecords returns the envelope for the requested page.
//
//	@Summary		Retrieve a managed page of records
//	@Tags			managed
//	@Produce		json
//	@Param			page	query		int			false	"1-based page (default 1)"
//	@Param			color[]	query		[]string	false	"Color filter, repeatable"
//	@Success		200		{object}	models.Envelope
//	@Failure		400		{object}	server.Problem
//	@Router			/api/v1/managed-records [get]
func (h *Handler) HandleManagedRecords(w http.ResponseWriter, r *http.Request) {
	env, err := h.retriever.RetrieveRecords(r.Context(), OptionsFromQuery(r.URL.Query()))
	if err != nil {
		if records.IsValidation(err) {
			server.BadRequest(w, err.Error(), r.URL.Path)
			return
		}
		h.logger.Error("managed retrieval failed", zap.Error(err))
		server.InternalError(w, "failed to retrieve records", r.URL.Path)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(env)
}

// OptionsFromQuery maps query parameters onto retrieval options. A numeric
// page becomes a number and anything else is passed through as a string so
// the normalizer rejects it. Colors come from repeated color[] parameters;
// a bare color parameter is passed as a string and rejected the same way.
func OptionsFromQuery(q url.Values) map[string]any {
	opts := map[string]any{}

	if _, ok := q["page"]; ok {
		raw := q.Get("page")
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			opts[records.OptionPage] = n
		} else {
			opts[records.OptionPage] = raw
		}
	}

	if colors, ok := q["color[]"]; ok {
		opts[records.OptionColors] = colors
	}
	if _, ok := q["color"]; ok {
		opts[records.OptionColors] = q.Get("color")
	}

	return opts
}
