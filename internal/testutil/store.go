package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HerbHall/managedrecords/internal/recordstore"
	"github.com/HerbHall/managedrecords/internal/services"
	"github.com/HerbHall/managedrecords/internal/store"
	"github.com/HerbHall/managedrecords/pkg/models"
	"go.uber.org/zap"
)

// NewStore creates an in-memory SQLiteStore for testing.
// The store is automatically closed when the test completes.
func NewStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("testutil.NewStore: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// NewRecordRepository returns a migrated in-memory repository holding recs.
func NewRecordRepository(t *testing.T, recs []models.Record) *services.SQLiteRecordRepository {
	t.Helper()
	db := NewStore(t)
	if err := db.Migrate(context.Background(), recordstore.Name, recordstore.Migrations); err != nil {
		t.Fatalf("records migrations: %v", err)
	}
	repo := services.NewSQLiteRecordRepository(db.DB())
	if len(recs) > 0 {
		if err := repo.InsertBatch(context.Background(), recs); err != nil {
			t.Fatalf("seed records: %v", err)
		}
	}
	return repo
}

// NewRecordsServer starts an httptest server exposing GET /records over recs.
// The server is closed when the test completes.
func NewRecordsServer(t *testing.T, recs []models.Record) *httptest.Server {
	t.Helper()
	repo := NewRecordRepository(t, recs)
	mux := http.NewServeMux()
	recordstore.NewHandler(repo, zap.NewNop(), nil).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}
