// Package config provides configuration management for the pitwall service.
package config

import (
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	Dataset  DatasetConfig  `mapstructure:"dataset" validate:"required"`
	Schedule ScheduleConfig `mapstructure:"schedule" validate:"required"`
	News     NewsConfig     `mapstructure:"news"`
	Cache    CacheConfig    `mapstructure:"cache" validate:"required"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatasetConfig locates the historical results tables
type DatasetConfig struct {
	Dir       string `mapstructure:"dir" validate:"required"`
	StartYear int    `mapstructure:"start_year" validate:"required,season"`
}

// ScheduleConfig selects the season calendar and where to find it
type ScheduleConfig struct {
	Season int      `mapstructure:"season" validate:"required,season"`
	Dirs   []string `mapstructure:"dirs" validate:"required,min=1,dive,required"`
}

// NewsConfig represents the headline feeds configuration
type NewsConfig struct {
	Feeds          []NewsFeedConfig `mapstructure:"feeds" validate:"dive"`
	TimeoutSeconds int              `mapstructure:"timeout_seconds" validate:"gte=0"`
	MaxRetries     int              `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit      float64          `mapstructure:"rate_limit" validate:"gte=0"`
	AWSSecretName  string           `mapstructure:"aws_secret_name"`
	AWSRegion      string           `mapstructure:"aws_region"`
}

// NewsFeedConfig represents a single news feed
type NewsFeedConfig struct {
	Name     string `mapstructure:"name" validate:"required"`
	Location string `mapstructure:"location" validate:"required"`
	APIKey   string `mapstructure:"api_key"`
}

// CacheConfig controls memoization of stores and computed views
type CacheConfig struct {
	TTLSeconds     int `mapstructure:"ttl_seconds" validate:"required,gt=0"`
	CleanupSeconds int `mapstructure:"cleanup_seconds" validate:"required,gt=0"`
}

// RefreshConfig holds cron expressions for periodic reloads. Empty disables a job.
type RefreshConfig struct {
	DatasetCron  string `mapstructure:"dataset_cron" validate:"omitempty,cronexpr"`
	ScheduleCron string `mapstructure:"schedule_cron" validate:"omitempty,cronexpr"`
	NewsCron     string `mapstructure:"news_cron" validate:"omitempty,cronexpr"`
}

// ServerConfig represents the HTTP API configuration
type ServerConfig struct {
	Port                int `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeoutSeconds  int `mapstructure:"read_timeout_seconds" validate:"required,gt=0"`
	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds" validate:"required,gt=0"`
	CountdownIntervalMs int `mapstructure:"countdown_interval_ms" validate:"required,gte=100"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// CacheTTL returns the cache entry lifetime
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// CacheCleanupInterval returns how often expired cache entries are purged
func (c *Config) CacheCleanupInterval() time.Duration {
	return time.Duration(c.Cache.CleanupSeconds) * time.Second
}

// NewsTimeout returns the per-request timeout for remote feeds
func (c *Config) NewsTimeout() time.Duration {
	return time.Duration(c.News.TimeoutSeconds) * time.Second
}

// CountdownInterval returns the push period of the countdown stream
func (c *Config) CountdownInterval() time.Duration {
	return time.Duration(c.Server.CountdownIntervalMs) * time.Millisecond
}
