package testutil

import (
	"context"
	"sync"

	"github.com/HerbHall/managedrecords/internal/records"
	"github.com/HerbHall/managedrecords/internal/seed"
	"github.com/HerbHall/managedrecords/pkg/models"
)

// SeedCount and SeedValue describe the standard test data set: ids 1..500.
const (
	SeedCount = 500
	SeedValue = 20260101
)

// SeedRecords returns the standard 500-record data set.
func SeedRecords() []models.Record {
	return seed.Generate(SeedCount, SeedValue)
}

// NewRecord returns an open red Record with the given id.
// Override individual fields with options.
func NewRecord(id int64, opts ...func(*models.Record)) models.Record {
	r := models.Record{
		ID:          id,
		Color:       "red",
		Disposition: models.DispositionOpen,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// WithColor sets the record color.
func WithColor(c string) func(*models.Record) {
	return func(r *models.Record) { r.Color = c }
}

// WithDisposition sets the record disposition.
func WithDisposition(d string) func(*models.Record) {
	return func(r *models.Record) { r.Disposition = d }
}

// Compile-time interface check.
var _ records.Fetcher = (*StubFetcher)(nil)

// StubFetcher is a records.Fetcher that serves windows of a fixed slice and
// records every query it receives.
type StubFetcher struct {
	mu      sync.Mutex
	records []models.Record
	err     error
	queries []records.Query
}

// NewStubFetcher returns a StubFetcher over recs. recs are served unfiltered
// by color unless the query names colors.
func NewStubFetcher(recs []models.Record) *StubFetcher {
	return &StubFetcher{records: recs}
}

// FailWith makes every subsequent Fetch return err.
func (f *StubFetcher) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Fetch records q and returns the matching window.
func (f *StubFetcher) Fetch(ctx context.Context, q records.Query) ([]models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}

	allowed := records.NewColorSet(q.Colors...)
	matched := make([]models.Record, 0, len(f.records))
	for _, r := range f.records {
		if len(q.Colors) == 0 || allowed.Contains(r.Color) {
			matched = append(matched, r)
		}
	}

	start := min(q.Offset, len(matched))
	end := min(start+q.Limit, len(matched))
	out := make([]models.Record, end-start)
	copy(out, matched[start:end])
	return out, nil
}

// Calls returns the number of Fetch calls.
func (f *StubFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

// Queries returns a copy of every query received.
func (f *StubFetcher) Queries() []records.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]records.Query, len(f.queries))
	copy(out, f.queries)
	return out
}
