package records_test

import (
	"context"
	"errors"
	"testing"

	"github.com/HerbHall/managedrecords/internal/metrics"
	"github.com/HerbHall/managedrecords/internal/records"
	"github.com/HerbHall/managedrecords/internal/recordsclient"
	"github.com/HerbHall/managedrecords/internal/testutil"
	"github.com/HerbHall/managedrecords/pkg/models"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// newStoreRetriever returns a Retriever talking HTTP to an in-process records
// store seeded with the standard 500 records.
func newStoreRetriever(t *testing.T) (*records.Retriever, []models.Record) {
	t.Helper()
	recs := testutil.SeedRecords()
	srv := testutil.NewRecordsServer(t, recs)
	client, err := recordsclient.New(srv.URL)
	require.NoError(t, err)
	return records.NewRetriever(client, testutil.Logger()), recs
}

// expectedEnvelope computes the envelope for page directly from the full
// data set, without windowing through the store.
func expectedEnvelope(all []models.Record, colors []string, page int) *models.Envelope {
	allowed := records.NewColorSet(colors...)
	var matched []models.Record
	for _, r := range all {
		if len(colors) == 0 || allowed.Contains(r.Color) {
			matched = append(matched, r)
		}
	}

	env := models.EmptyEnvelope()
	start := (page - 1) * records.PageSize
	if start >= len(matched) {
		if page > 1 && start-1 < len(matched) {
			prev := page - 1
			env.PreviousPage = &prev
		}
		return env
	}
	end := min(start+records.PageSize, len(matched))

	primary := records.PrimaryColors()
	for _, r := range matched[start:end] {
		env.IDs = append(env.IDs, r.ID)
		switch {
		case r.Disposition == models.DispositionOpen:
			flag := "false"
			if primary.Contains(r.Color) {
				flag = "true"
			}
			env.Open = append(env.Open, models.AugmentedRecord{Record: r, IsPrimary: flag})
		case primary.Contains(r.Color):
			env.ClosedPrimaryCount++
		}
	}
	if page > 1 {
		prev := page - 1
		env.PreviousPage = &prev
	}
	if end < len(matched) {
		next := page + 1
		env.NextPage = &next
	}
	return env
}

func TestRetrieveRecords_Scenarios(t *testing.T) {
	r, all := newStoreRetriever(t)

	tests := []struct {
		name    string
		options map[string]any
		page    int
		colors  []string
	}{
		{"no options", map[string]any{}, 1, nil},
		{"page 2", map[string]any{"page": 2}, 2, nil},
		{"last page", map[string]any{"page": 50}, 50, nil},
		{"beyond data", map[string]any{"page": 51}, 51, nil},
		{"far beyond data", map[string]any{"page": 999}, 999, nil},
		{"brown only", map[string]any{"page": 2, "colors": []any{"brown"}}, 2, []string{"brown"}},
		{"primary colors", map[string]any{"page": 3, "colors": []string{"red", "blue", "yellow"}}, 3, []string{"red", "blue", "yellow"}},
		{"unknown color", map[string]any{"colors": []string{"chartreuse"}}, 1, []string{"chartreuse"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.RetrieveRecords(context.Background(), tt.options)
			require.NoError(t, err)
			want := expectedEnvelope(all, tt.colors, tt.page)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("envelope mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRetrieveRecords_FirstAndLastPage(t *testing.T) {
	r, _ := newStoreRetriever(t)
	ctx := context.Background()

	first, err := r.RetrieveRecords(ctx, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, first.IDs)
	assert.Nil(t, first.PreviousPage)
	require.NotNil(t, first.NextPage)
	assert.Equal(t, 2, *first.NextPage)

	last, err := r.RetrieveRecords(ctx, map[string]any{"page": 50})
	require.NoError(t, err)
	assert.Equal(t, []int64{491, 492, 493, 494, 495, 496, 497, 498, 499, 500}, last.IDs)
	require.NotNil(t, last.PreviousPage)
	assert.Equal(t, 49, *last.PreviousPage)
	assert.Nil(t, last.NextPage)

	beyond, err := r.RetrieveRecords(ctx, map[string]any{"page": 999})
	require.NoError(t, err)
	assert.Empty(t, beyond.IDs)
	assert.Empty(t, beyond.Open)
	assert.Zero(t, beyond.ClosedPrimaryCount)
	assert.Nil(t, beyond.PreviousPage)
	assert.Nil(t, beyond.NextPage)
}

func TestRetrieveRecords_OpenRecordsAreInPage(t *testing.T) {
	r, _ := newStoreRetriever(t)

	env, err := r.RetrieveRecords(context.Background(), map[string]any{"page": 7, "colors": []string{"red", "green"}})
	require.NoError(t, err)

	ids := make(map[int64]bool, len(env.IDs))
	for _, id := range env.IDs {
		ids[id] = true
	}
	for _, o := range env.Open {
		assert.True(t, ids[o.ID], "open record %d not in ids", o.ID)
		assert.Equal(t, models.DispositionOpen, o.Disposition)
		assert.Contains(t, []string{"red", "green"}, o.Color)
		want := "false"
		if o.Color == "red" {
			want = "true"
		}
		assert.Equal(t, want, o.IsPrimary, "record %d", o.ID)
	}
	assert.LessOrEqual(t, env.ClosedPrimaryCount, len(env.IDs)-len(env.Open))
}

func TestRetrieveRecords_Idempotent(t *testing.T) {
	r, _ := newStoreRetriever(t)
	opts := map[string]any{"page": 4, "colors": []string{"blue"}}

	a, err := r.RetrieveRecords(context.Background(), opts)
	require.NoError(t, err)
	b, err := r.RetrieveRecords(context.Background(), opts)
	require.NoError(t, err)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("repeat retrieval differs (-first +second):\n%s", diff)
	}
}

func TestRetrieveRecords_Concurrent(t *testing.T) {
	r, all := newStoreRetriever(t)

	results := make([]*models.Envelope, 20)
	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			env, err := r.RetrieveRecords(context.Background(), map[string]any{"page": i + 1})
			results[i] = env
			return err
		})
	}
	require.NoError(t, g.Wait())

	for i, got := range results {
		want := expectedEnvelope(all, nil, i+1)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("page %d mismatch (-want +got):\n%s", i+1, diff)
		}
	}
}

func TestRetrieveRecords_ValidationSkipsFetch(t *testing.T) {
	f := testutil.NewStubFetcher(testutil.SeedRecords())
	reg := prometheus.NewRegistry()
	r := records.NewRetriever(f, nil, records.WithMetrics(metrics.New(reg)))

	invalid := []any{
		nil,
		"page=1",
		map[string]any{"page": "1"},
		map[string]any{"page": 0},
		map[string]any{"page": -3},
		map[string]any{"colors": "brown"},
	}
	for _, opts := range invalid {
		env, err := r.RetrieveRecords(context.Background(), opts)
		assert.Error(t, err, "options %#v", opts)
		assert.True(t, records.IsValidation(err), "options %#v: %v", opts, err)
		assert.Nil(t, env)
	}
	assert.Zero(t, f.Calls())

	n, err := promtest.GatherAndCount(reg, "managedrecords_retrievals_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "one outcome series expected")
}

func TestRetrieveRecords_OneFetchPerCall(t *testing.T) {
	f := testutil.NewStubFetcher(testutil.SeedRecords())
	r := records.NewRetriever(f, nil)

	_, err := r.RetrieveRecords(context.Background(), map[string]any{"page": 3, "colors": []string{"red"}})
	require.NoError(t, err)

	require.Equal(t, 1, f.Calls())
	assert.Equal(t, records.Query{Limit: 12, Offset: 19, Colors: []string{"red"}}, f.Queries()[0])
}

func TestRetrieveRecords_StoreFailureYieldsEmptyEnvelope(t *testing.T) {
	f := testutil.NewStubFetcher(testutil.SeedRecords())
	f.FailWith(errors.New("connection refused"))
	r := records.NewRetriever(f, testutil.Logger())

	env, err := r.RetrieveRecords(context.Background(), map[string]any{"page": 2})
	require.NoError(t, err)
	if diff := cmp.Diff(models.EmptyEnvelope(), env); diff != "" {
		t.Errorf("envelope mismatch (-want +got):\n%s", diff)
	}
}

func TestRetrieveRecords_StoreUnreachable(t *testing.T) {
	client, err := recordsclient.New("http://127.0.0.1:1")
	require.NoError(t, err)
	r := records.NewRetriever(client, nil)

	env, err := r.RetrieveRecords(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, env.IDs)
	assert.Nil(t, env.NextPage)
}

func TestRetrieveRecords_CanceledContext(t *testing.T) {
	f := testutil.NewStubFetcher(testutil.SeedRecords())
	r := records.NewRetriever(f, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	env, err := r.RetrieveRecords(ctx, map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, env.IDs)
}

func TestRetrieve_ValidatedRequest(t *testing.T) {
	f := testutil.NewStubFetcher(testutil.SeedRecords())
	r := records.NewRetriever(f, nil)

	env, err := r.Retrieve(context.Background(), records.PageRequest{Page: 1})
	require.NoError(t, err)
	assert.Len(t, env.IDs, records.PageSize)
	assert.Equal(t, records.Query{Limit: 11, Offset: 0}, f.Queries()[0])
}
