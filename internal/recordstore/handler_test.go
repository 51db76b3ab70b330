package recordstore_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HerbHall/managedrecords/internal/metrics"
	"github.com/HerbHall/managedrecords/internal/recordstore"
	"github.com/HerbHall/managedrecords/internal/server"
	"github.com/HerbHall/managedrecords/internal/services"
	"github.com/HerbHall/managedrecords/internal/testutil"
	"github.com/HerbHall/managedrecords/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMux(t *testing.T, recs []models.Record, m *metrics.Metrics) *http.ServeMux {
	t.Helper()
	repo := testutil.NewRecordRepository(t, recs)
	mux := http.NewServeMux()
	recordstore.NewHandler(repo, testutil.Logger(), m).RegisterRoutes(mux)
	return mux
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeRecords(t *testing.T, rec *httptest.ResponseRecorder) []models.Record {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	var out []models.Record
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func ids(recs []models.Record) []int64 {
	out := make([]int64, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestHandleListRecords_Window(t *testing.T) {
	mux := newMux(t, testutil.SeedRecords(), nil)

	tests := []struct {
		target string
		want   []int64
	}{
		{"/records?limit=3&offset=0", []int64{1, 2, 3}},
		{"/records?limit=2&offset=10", []int64{11, 12}},
		{"/records?limit=5&offset=498", []int64{499, 500}},
		{"/records?limit=5&offset=600", []int64{}},
		{"/records?limit=0", []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			got := decodeRecords(t, get(t, mux, tt.target))
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestHandleListRecords_Defaults(t *testing.T) {
	mux := newMux(t, testutil.SeedRecords(), nil)

	got := decodeRecords(t, get(t, mux, "/records"))
	require.Len(t, got, 100)
	assert.Equal(t, int64(1), got[0].ID)

	// Unparsable values fall back to the defaults.
	got = decodeRecords(t, get(t, mux, "/records?limit=many&offset=some"))
	require.Len(t, got, 100)
	assert.Equal(t, int64(1), got[0].ID)
}

func TestHandleListRecords_ColorFilter(t *testing.T) {
	recs := []models.Record{
		testutil.NewRecord(1, testutil.WithColor("red")),
		testutil.NewRecord(2, testutil.WithColor("brown")),
		testutil.NewRecord(3, testutil.WithColor("green")),
		testutil.NewRecord(4, testutil.WithColor("brown")),
		testutil.NewRecord(5, testutil.WithColor("red")),
	}
	mux := newMux(t, recs, nil)

	got := decodeRecords(t, get(t, mux, "/records?color[]=brown"))
	assert.Equal(t, []int64{2, 4}, ids(got))

	got = decodeRecords(t, get(t, mux, "/records?color[]=red&color[]=green&limit=2&offset=1"))
	assert.Equal(t, []int64{3, 5}, ids(got))

	got = decodeRecords(t, get(t, mux, "/records?color[]=chartreuse"))
	assert.Empty(t, got)
}

func TestHandleListRecords_PassesThroughExtraFields(t *testing.T) {
	rec := testutil.NewRecord(1)
	rec.Extra = map[string]json.RawMessage{"owner": json.RawMessage(`"ops"`)}
	mux := newMux(t, []models.Record{rec}, nil)

	resp := get(t, mux, "/records")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[{"id":1,"color":"red","disposition":"open","owner":"ops"}]`, resp.Body.String())
}

func TestHandleListRecords_BadRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	mux := newMux(t, testutil.SeedRecords(), m)

	targets := []string{
		"/records?color=brown",
		"/records?color[]=red&color=brown",
		"/records?limit=-1",
		"/records?offset=-5",
	}
	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			rec := get(t, mux, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var p server.Problem
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
			assert.Equal(t, server.ProblemTypeBadRequest, p.Type)
			assert.Equal(t, "/records", p.Instance)
		})
	}

	n, err := promtest.GatherAndCount(reg, "managedrecords_store_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHandleListRecords_RepositoryError(t *testing.T) {
	db := testutil.NewStore(t)
	// No migrations: the records table does not exist.
	repo := services.NewSQLiteRecordRepository(db.DB())
	mux := http.NewServeMux()
	recordstore.NewHandler(repo, testutil.Logger(), nil).RegisterRoutes(mux)

	rec := get(t, mux, "/records")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
