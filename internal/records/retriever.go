// Package records turns a page request into a windowed, enriched result
// envelope fetched from a records store.
package records

import (
	"context"

	"github.com/HerbHall/managedrecords/internal/metrics"
	"github.com/HerbHall/managedrecords/pkg/models"
	"go.uber.org/zap"
)

// Query is a single windowed request against the records store.
// An empty Colors means no color filtering.
type Query struct {
	Limit  int
	Offset int
	Colors []string
}

// Fetcher retrieves records from a store. Implementations return records
// in the store's stable order and an error for any non-success response.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) ([]models.Record, error)
}

// Retriever performs managed record retrievals against a Fetcher.
// It holds no per-call state and is safe for concurrent use.
type Retriever struct {
	fetcher  Fetcher
	logger   *zap.Logger
	metrics  *metrics.Metrics
	pageSize int
	primary  ColorSet
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithMetrics records retrieval outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Retriever) { r.metrics = m }
}

// NewRetriever creates a Retriever backed by fetcher.
func NewRetriever(fetcher Fetcher, logger *zap.Logger, opts ...Option) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Retriever{
		fetcher:  fetcher,
		logger:   logger,
		pageSize: PageSize,
		primary:  PrimaryColors(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RetrieveRecords validates options and retrieves the requested page.
// Validation failures are returned before any fetch. Store failures are
// not returned: they yield an empty envelope.
func (r *Retriever) RetrieveRecords(ctx context.Context, options any) (*models.Envelope, error) {
	req, err := Normalize(options)
	if err != nil {
		r.metrics.ObserveRetrieval(metrics.OutcomeInvalid)
		return nil, err
	}
	return r.Retrieve(ctx, req)
}

// Retrieve fetches and transforms one page for an already validated request.
func (r *Retriever) Retrieve(ctx context.Context, req PageRequest) (*models.Envelope, error) {
	w := ComputeWindow(req.Page, r.pageSize)

	r.logger.Debug("calling records store",
		zap.Int("page", req.Page),
		zap.Int("offset", w.Offset),
		zap.Int("limit", w.Limit),
		zap.Strings("colors", req.Colors),
	)

	raw, err := r.fetcher.Fetch(ctx, Query{Limit: w.Limit, Offset: w.Offset, Colors: req.Colors})
	if err != nil {
		r.logger.Warn("failed to retrieve records", zap.Int("page", req.Page), zap.Error(err))
		r.metrics.ObserveRetrieval(metrics.OutcomeStoreError)
		return models.EmptyEnvelope(), nil
	}

	r.logger.Debug("retrieved records", zap.Int("page", req.Page), zap.Int("count", len(raw)))
	r.metrics.ObserveRetrieval(metrics.OutcomeOK)

	return Transform(req.Page, w, raw, r.pageSize, r.primary), nil
}
