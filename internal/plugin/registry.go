package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Registry manages the lifecycle of all registered modules. Modules run in
// registration order and stop in reverse order.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
	order   []string
	enabled map[string]bool
	logger  *zap.Logger
}

// NewRegistry creates a new module registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
		enabled: make(map[string]bool),
		logger:  logger,
	}
}

// Register adds a module to the registry.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("plugin %q already registered", name)
	}

	r.plugins[name] = p
	r.order = append(r.order, name)
	r.logger.Info("plugin registered", zap.String("name", name), zap.String("version", p.Version()))
	return nil
}

// InitAll initializes every enabled module with its "plugins.<name>"
// configuration subtree. Modules with plugins.<name>.enabled=false are
// skipped and take no further part in the lifecycle.
func (r *Registry) InitAll(config *viper.Viper) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if config == nil {
		config = viper.New()
	}

	for _, name := range r.order {
		p := r.plugins[name]

		if enabled := config.GetBool("plugins." + name + ".enabled"); !enabled {
			r.logger.Info("plugin disabled, skipping", zap.String("name", name))
			continue
		}

		pluginConfig := config.Sub("plugins." + name)
		if pluginConfig == nil {
			pluginConfig = viper.New()
		}

		r.logger.Info("initializing plugin", zap.String("name", name))
		if err := p.Init(pluginConfig, r.logger.Named(name)); err != nil {
			return fmt.Errorf("failed to initialize plugin %q: %w", name, err)
		}
		r.enabled[name] = true
	}
	return nil
}

// StartAll starts all initialized modules.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		if !r.enabled[name] {
			continue
		}
		r.logger.Info("starting plugin", zap.String("name", name))
		if err := r.plugins[name].Start(ctx); err != nil {
			return fmt.Errorf("failed to start plugin %q: %w", name, err)
		}
	}
	return nil
}

// StopAll stops all initialized modules in reverse order.
func (r *Registry) StopAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		name := r.order[i]
		if !r.enabled[name] {
			continue
		}
		r.logger.Info("stopping plugin", zap.String("name", name))
		if err := r.plugins[name].Stop(); err != nil {
			r.logger.Error("failed to stop plugin", zap.String("name", name), zap.Error(err))
		}
	}
}

// Get returns a module by name.
func (r *Registry) Get(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// All returns all registered modules in registration order.
func (r *Registry) All() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.plugins[name])
	}
	return result
}

// Enabled reports whether the named module was initialized.
func (r *Registry) Enabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled[name]
}

// AllRoutes returns the routes of every initialized module, keyed by module name.
func (r *Registry) AllRoutes() map[string][]Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := make(map[string][]Route)
	for _, name := range r.order {
		if !r.enabled[name] {
			continue
		}
		if pr := r.plugins[name].Routes(); len(pr) > 0 {
			routes[name] = pr
		}
	}
	return routes
}
