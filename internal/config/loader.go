package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. PITWALL_SERVER_PORT
	EnvPrefix = "PITWALL"

	// DefaultConfigPath is used when no path is given
	DefaultConfigPath = "config/config.yaml"
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// readExpanded reads a YAML file and expands ${VAR} placeholders
func readExpanded(v *viper.Viper, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}
	expanded := os.ExpandEnv(string(data))
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	v := newViper()
	if err := readExpanded(v, configPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error: defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if err := readExpanded(v, configPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "pitwall")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("dataset.dir", "data")
	v.SetDefault("dataset.start_year", 2015)
	v.SetDefault("schedule.season", 2025)
	v.SetDefault("schedule.dirs", []string{"data", "./data"})
	v.SetDefault("news.timeout_seconds", 10)
	v.SetDefault("news.max_retries", 3)
	v.SetDefault("news.rate_limit", 5.0)
	v.SetDefault("cache.ttl_seconds", 3600)
	v.SetDefault("cache.cleanup_seconds", 600)
	v.SetDefault("refresh.dataset_cron", "0 */6 * * *")
	v.SetDefault("refresh.schedule_cron", "0 * * * *")
	v.SetDefault("refresh.news_cron", "*/15 * * * *")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.countdown_interval_ms", 1000)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// ReloadFromEnv reloads the configuration from PITWALL_CONFIG_PATH when set
func ReloadFromEnv(cfg *Config) error {
	envPath := os.Getenv(EnvPrefix + "_CONFIG_PATH")
	if envPath == "" {
		return nil
	}

	newCfg, err := Load(envPath)
	if err != nil {
		return err
	}
	*cfg = *newCfg
	return nil
}
