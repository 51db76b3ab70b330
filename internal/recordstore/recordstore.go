// Package recordstore serves the records store API: a read-only, filterable,
// windowed view of a seeded SQLite records table.
package recordstore

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/HerbHall/managedrecords/internal/metrics"
	"github.com/HerbHall/managedrecords/internal/plugin"
	"github.com/HerbHall/managedrecords/internal/seed"
	"github.com/HerbHall/managedrecords/internal/services"
	"github.com/HerbHall/managedrecords/internal/store"
	"github.com/HerbHall/managedrecords/pkg/models"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Name is the module name used for configuration and migrations.
const Name = "recordstore"

// Default configuration values.
const (
	DefaultPath = "records.db"
	DefaultSeed = 20260101
)

// Migrations creates the records table.
var Migrations = []store.Migration{
	{
		Version:     1,
		Description: "create records table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE TABLE records (
				id          INTEGER PRIMARY KEY,
				color       TEXT NOT NULL,
				disposition TEXT NOT NULL,
				extra       TEXT NOT NULL DEFAULT '{}'
			)`)
			if err != nil {
				return err
			}
			_, err = tx.Exec(`CREATE INDEX idx_records_color ON records(color)`)
			return err
		},
	},
}

// Compile-time interface guard.
var _ plugin.Plugin = (*Module)(nil)

// Module owns the records database and the GET /records route.
type Module struct {
	logger  *zap.Logger
	metrics *metrics.Metrics

	path      string
	seedFile  string
	seedCount int
	seed      uint64

	db      *store.SQLiteStore
	repo    services.RecordRepository
	handler *Handler
}

// New creates the records store module. m may be nil.
func New(m *metrics.Metrics) *Module {
	return &Module{metrics: m}
}

func (m *Module) Name() string    { return Name }
func (m *Module) Version() string { return "1.0.0" }

// Init reads path, seed_file, seed_count and seed from config.
func (m *Module) Init(config *viper.Viper, logger *zap.Logger) error {
	config.SetDefault("path", DefaultPath)
	config.SetDefault("seed_count", seed.DefaultCount)
	config.SetDefault("seed", DefaultSeed)

	m.logger = logger
	m.path = config.GetString("path")
	m.seedFile = config.GetString("seed_file")
	m.seedCount = config.GetInt("seed_count")
	m.seed = config.GetUint64("seed")

	if m.seedCount < 0 {
		return fmt.Errorf("seed_count must be non-negative, got %d", m.seedCount)
	}

	m.logger.Info("records store module initialized", zap.String("path", m.path))
	return nil
}

// Start opens the database, applies migrations and seeds an empty table.
func (m *Module) Start(ctx context.Context) error {
	db, err := store.New(m.path)
	if err != nil {
		return err
	}
	if err := db.Migrate(ctx, Name, Migrations); err != nil {
		db.Close()
		return fmt.Errorf("migrate records store: %w", err)
	}

	repo := services.NewSQLiteRecordRepository(db.DB())
	if err := m.seedIfEmpty(ctx, repo); err != nil {
		db.Close()
		return err
	}

	m.db = db
	m.repo = repo
	m.handler = NewHandler(repo, m.logger, m.metrics)
	m.logger.Info("records store module started")
	return nil
}

// Stop closes the database.
func (m *Module) Stop() error {
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	m.logger.Info("records store module stopped")
	return err
}

// Routes implements plugin.Plugin.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/records", Handler: m.serveRecords},
	}
}

// Repository returns the module's repository once started.
func (m *Module) Repository() services.RecordRepository {
	return m.repo
}

func (m *Module) serveRecords(w http.ResponseWriter, r *http.Request) {
	if m.handler == nil {
		unavailable(w, r)
		return
	}
	m.handler.HandleListRecords(w, r)
}

func (m *Module) seedIfEmpty(ctx context.Context, repo services.RecordRepository) error {
	n, err := repo.Count(ctx, services.RecordFilter{})
	if err != nil {
		return err
	}
	if n > 0 {
		m.logger.Info("records store already seeded", zap.Int("records", n))
		return nil
	}

	var recs []models.Record
	if m.seedFile != "" {
		recs, err = seed.LoadFile(m.seedFile)
		if err != nil {
			return err
		}
	} else {
		recs = seed.Generate(m.seedCount, m.seed)
	}

	if err := repo.InsertBatch(ctx, recs); err != nil {
		return fmt.Errorf("seed records store: %w", err)
	}
	m.logger.Info("records store seeded", zap.Int("records", len(recs)), zap.String("seed_file", m.seedFile))
	return nil
}
