package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/killallgit/study-api/pkg/errors"
)

var (
	once    sync.Once
	initErr error
)

// Init initializes the configuration system
// This should be called once at application startup
func Init() error {
	once.Do(func() {
		initErr = load()
	})

	return initErr
}

// Reload discards any previous Init result and loads the configuration again.
// Tests use it after viper.Reset().
func Reload() error {
	once = sync.Once{}
	return Init()
}

func load() error {
	setDefaults()

	// Environment variables override file values, e.g. STUDY_SERVER_PORT
	viper.SetEnvPrefix("STUDY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	configPath := filepath.Clean("./config/settings.yaml")
	viper.SetConfigFile(configPath)

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine, defaults and env vars still apply
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
	}

	if err := validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// GetConfig returns the current configuration as a struct
// Init() must be called before using this
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// GetString returns a string config value
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a time.Duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// validate validates the configuration using Viper values
func validate() error {
	port := viper.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return apperrors.ConfigError("server.port", fmt.Sprintf("must be between 1 and 65535, got %d", port))
	}

	if strings.TrimSpace(viper.GetString("storage.samples_dir")) == "" {
		return apperrors.ConfigError("storage.samples_dir", "must not be empty")
	}

	switch viper.GetString("logging.format") {
	case "json", "console":
	default:
		return apperrors.ConfigError("logging.format", fmt.Sprintf("must be json or console, got %q", viper.GetString("logging.format")))
	}

	// Auto-correct invalid rate limits
	if viper.GetInt("rate_limiting.rps") <= 0 {
		viper.Set("rate_limiting.rps", 20)
	}
	if viper.GetInt("rate_limiting.burst") <= 0 {
		viper.Set("rate_limiting.burst", 40)
	}

	return nil
}

// Validate validates a Config struct (for testing)
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return apperrors.ConfigError("server.port", fmt.Sprintf("must be between 1 and 65535, got %d", c.Server.Port))
	}

	if strings.TrimSpace(c.Storage.SamplesDir) == "" {
		return apperrors.ConfigError("storage.samples_dir", "must not be empty")
	}

	if c.RateLimiting.RPS <= 0 {
		c.RateLimiting.RPS = 20
	}
	if c.RateLimiting.Burst <= 0 {
		c.RateLimiting.Burst = 40
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("environment", "development")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 3001)
	viper.SetDefault("server.public_url", "")
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 5*time.Minute) // large splat downloads over LAN
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.max_header_bytes", 1048576)
	viper.SetDefault("server.max_body_bytes", 10485760)

	// Storage defaults
	viper.SetDefault("storage.samples_dir", "./samples")
	viper.SetDefault("storage.lock_files", true)
	viper.SetDefault("storage.temp_max_age", time.Hour)
	viper.SetDefault("storage.cleanup_interval", 15*time.Minute)

	// Database defaults
	viper.SetDefault("database.path", "./data/activity.db")
	viper.SetDefault("database.verbose", false)

	// Rate limiting defaults
	viper.SetDefault("rate_limiting.enabled", true)
	viper.SetDefault("rate_limiting.rps", 20)
	viper.SetDefault("rate_limiting.burst", 40)

	// Security defaults
	viper.SetDefault("security.enable_cors", true)
	viper.SetDefault("security.cors_origins", []string{"*"})

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")

	// Client defaults
	viper.SetDefault("client.base_url", "http://localhost:3001")
	viper.SetDefault("client.timeout", 15*time.Second)
}
