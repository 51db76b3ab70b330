// Package managed exposes managed record retrieval over HTTP as a service
// module. It talks to a records store through recordsclient.
package managed

import (
	"context"
	"fmt"
	"net/http"

	"github.com/HerbHall/managedrecords/internal/metrics"
	"github.com/HerbHall/managedrecords/internal/plugin"
	"github.com/HerbHall/managedrecords/internal/records"
	"github.com/HerbHall/managedrecords/internal/recordsclient"
	"github.com/HerbHall/managedrecords/internal/server"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Name is the module name used for configuration.
const Name = "managed"

// Compile-time interface guard.
var _ plugin.Plugin = (*Module)(nil)

// Module serves GET /api/v1/managed-records.
type Module struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
	handler *Handler
}

// New creates the managed records module. m may be nil.
func New(m *metrics.Metrics) *Module {
	return &Module{metrics: m}
}

func (m *Module) Name() string    { return Name }
func (m *Module) Version() string { return "1.0.0" }

// Init builds the store client from base_url and timeout.
func (m *Module) Init(config *viper.Viper, logger *zap.Logger) error {
	config.SetDefault("base_url", recordsclient.DefaultBaseURL)
	config.SetDefault("timeout", recordsclient.DefaultTimeout)

	m.logger = logger
	baseURL := config.GetString("base_url")

	client, err := recordsclient.New(baseURL,
		recordsclient.WithTimeout(config.GetDuration("timeout")),
		recordsclient.WithLogger(logger.Named("client")),
	)
	if err != nil {
		return fmt.Errorf("records store client: %w", err)
	}

	retriever := records.NewRetriever(client, logger, records.WithMetrics(m.metrics))
	m.handler = NewHandler(retriever, logger)

	m.logger.Info("managed records module initialized", zap.String("base_url", baseURL))
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.logger.Info("managed records module started")
	return nil
}

func (m *Module) Stop() error {
	m.logger.Info("managed records module stopped")
	return nil
}

// Routes implements plugin.Plugin.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/api/v1/managed-records", Handler: m.serveManagedRecords},
	}
}

func (m *Module) serveManagedRecords(w http.ResponseWriter, r *http.Request) {
	if m.handler == nil {
		server.Unavailable(w, "managed records not initialized", r.URL.Path)
		return
	}
	m.handler.HandleManagedRecords(w, r)
}
