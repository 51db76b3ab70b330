// Package config loads service configuration from an optional YAML file,
// MANAGEDRECORDS_* environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// MANAGEDRECORDS_SERVER_PORT overrides server.port.
const EnvPrefix = "MANAGEDRECORDS"

// Config is a read-only view over a configuration tree.
type Config struct {
	v *viper.Viper
}

// New wraps v. A nil v yields an empty configuration.
func New(v *viper.Viper) *Config {
	if v == nil {
		v = viper.New()
	}
	return &Config{v: v}
}

// Viper returns the underlying viper instance.
func (c *Config) Viper() *viper.Viper { return c.v }

func (c *Config) GetString(key string) string          { return c.v.GetString(key) }
func (c *Config) GetInt(key string) int                { return c.v.GetInt(key) }
func (c *Config) GetBool(key string) bool              { return c.v.GetBool(key) }
func (c *Config) GetFloat64(key string) float64        { return c.v.GetFloat64(key) }
func (c *Config) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }
func (c *Config) IsSet(key string) bool                { return c.v.IsSet(key) }

// Sub returns the subtree at key. A missing key yields an empty Config.
func (c *Config) Sub(key string) *Config {
	return New(c.v.Sub(key))
}

// SetDefaults installs the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.rate_limit", 0)
	v.SetDefault("server.rate_burst", 20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("plugins.recordstore.enabled", true)
	v.SetDefault("plugins.recordstore.path", "records.db")
	v.SetDefault("plugins.recordstore.seed_count", 500)
	v.SetDefault("plugins.recordstore.seed_file", "")
	v.SetDefault("plugins.recordstore.seed", 20260101)

	v.SetDefault("plugins.managed.enabled", true)
	v.SetDefault("plugins.managed.base_url", "http://localhost:3000")
	v.SetDefault("plugins.managed.timeout", "5s")
}

// Load builds the configuration. path may be empty, in which case
// managedrecords.yaml is looked up in the working directory and
// /etc/managedrecords; a missing file is not an error unless path was given.
func Load(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName("managedrecords")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/managedrecords")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Addr returns the server listen address from server.host and server.port.
func Addr(v *viper.Viper) string {
	host := v.GetString("server.host")
	port := v.GetString("server.port")
	if host == "" && port == "" {
		return "0.0.0.0:3000"
	}
	return host + ":" + port
}
