package recordstore

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/HerbHall/managedrecords/internal/metrics"
	"github.com/HerbHall/managedrecords/internal/server"
	"github.com/HerbHall/managedrecords/internal/services"
	"github.com/gorilla/schema"
	"go.uber.org/zap"
)

// listRecordsQuery is the decoded query string of GET /records. Limit and
// offset stay strings so unparsable values can fall back to defaults.
type listRecordsQuery struct {
	Limit  string   `schema:"limit"`
	Offset string   `schema:"offset"`
	Colors []string `schema:"color[]"`
	// Color catches the non-list encoding, which is rejected.
	Color []string `schema:"color"`
}

// Handler serves GET /records from a RecordRepository.
type Handler struct {
	repo    services.RecordRepository
	logger  *zap.Logger
	metrics *metrics.Metrics
	decoder *schema.Decoder
}

// NewHandler creates a records Handler. m may be nil.
func NewHandler(repo services.RecordRepository, logger *zap.Logger, m *metrics.Metrics) *Handler {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &Handler{
		repo:    repo,
		logger:  logger,
		metrics: m,
		decoder: decoder,
	}
}

// RegisterRoutes registers GET /records on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /records", h.HandleListRecords)
}

// HandleListRecords returns records filtered by color[] and windowed by
// limit and offset, ordered by ascending id.
//
//	@Summary		List records
//	@Tags			records
//	@Produce		json
//	@Param			limit	query		int		false	"Max records (default 100)"
//	@Param			offset	query		int		false	"Records to skip (default 0)"
//	@Param			color[]	query		[]string	false	"Color filter, repeatable"
//	@Success		200		{array}		models.Record
//	@Failure		400		{object}	server.Problem
//	@Failure		500		{object}	server.Problem
//	@Router			/records [get]
func (h *Handler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	var q listRecordsQuery
	if err := h.decoder.Decode(&q, r.URL.Query()); err != nil {
		h.logger.Debug("invalid records query", zap.Error(err))
		h.badRequest(w, r, "invalid query parameters")
		return
	}

	if len(q.Color) > 0 {
		h.badRequest(w, r, "color must be passed as a list (color[]=...)")
		return
	}

	limit := parseIntOrDefault(q.Limit, services.DefaultLimit)
	offset := parseIntOrDefault(q.Offset, 0)
	if limit < 0 || offset < 0 {
		h.badRequest(w, r, "limit and offset must be non-negative")
		return
	}

	h.logger.Debug("listing records",
		zap.Int("limit", limit),
		zap.Int("offset", offset),
		zap.Strings("colors", q.Colors),
	)

	recs, err := h.repo.List(r.Context(),
		services.RecordFilter{Colors: q.Colors},
		services.ListOptions{Limit: limit, Offset: offset},
	)
	if err != nil {
		h.logger.Error("failed to list records", zap.Error(err))
		h.metrics.ObserveStoreRequest(http.StatusInternalServerError)
		server.InternalError(w, "failed to list records", r.URL.Path)
		return
	}

	h.metrics.ObserveStoreRequest(http.StatusOK)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(recs)
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, detail string) {
	h.metrics.ObserveStoreRequest(http.StatusBadRequest)
	server.BadRequest(w, detail, r.URL.Path)
}

// parseIntOrDefault parses s as an integer, returning def when s is empty
// or not a number.
func parseIntOrDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func unavailable(w http.ResponseWriter, r *http.Request) {
	server.Unavailable(w, "records store not started", r.URL.Path)
}
