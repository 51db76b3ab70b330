package plugin

import (
	"context"
	"net/http"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Route represents an HTTP route exposed by a module. Path is absolute
// (e.g. "/records") and is combined with Method into a ServeMux pattern.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// Plugin defines the interface that all service modules must implement.
type Plugin interface {
	// Name returns the module's unique identifier (e.g., "recordstore", "managed").
	Name() string

	// Version returns the module's semantic version.
	Version() string

	// Init initializes the module with its configuration subtree and logger.
	Init(config *viper.Viper, logger *zap.Logger) error

	// Start begins the module's background operations.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the module.
	Stop() error

	// Routes returns the HTTP routes this module exposes.
	Routes() []Route
}
