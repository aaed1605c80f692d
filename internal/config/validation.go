package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// firstSeason is the first world championship season
const firstSeason = 1950

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("season", validateSeason)
	_ = v.RegisterValidation("cronexpr", validateCronExpr)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateSeason accepts championship years up to next year
func validateSeason(fl validator.FieldLevel) bool {
	year := int(fl.Field().Int())
	return year >= firstSeason && year <= time.Now().Year()+1
}

// validateCronExpr accepts standard five-field expressions and descriptors
func validateCronExpr(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.Dataset.StartYear > cfg.Schedule.Season {
		return fmt.Errorf("dataset start_year %d is after schedule season %d", cfg.Dataset.StartYear, cfg.Schedule.Season)
	}

	if cfg.Cache.CleanupSeconds > cfg.Cache.TTLSeconds*10 {
		return fmt.Errorf("cache cleanup_seconds cannot exceed ten times ttl_seconds")
	}

	seen := make(map[string]bool, len(cfg.News.Feeds))
	for _, feed := range cfg.News.Feeds {
		if seen[feed.Name] {
			return fmt.Errorf("duplicate news feed name %q", feed.Name)
		}
		seen[feed.Name] = true
	}

	if cfg.News.AWSSecretName != "" && cfg.News.AWSRegion == "" {
		return fmt.Errorf("news aws_region is required when aws_secret_name is set")
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with '/'")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg strings.Builder
	for _, fieldError := range validationErrors {
		field := fieldError.Namespace()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required", "required_if":
			fmt.Fprintf(&errMsg, "- Field '%s' is required\n", field)
		case "min", "max":
			fmt.Fprintf(&errMsg, "- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			fmt.Fprintf(&errMsg, "- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			fmt.Fprintf(&errMsg, "- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			fmt.Fprintf(&errMsg, "- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "season":
			fmt.Fprintf(&errMsg, "- Field '%s' must be a championship season, got '%v'\n", field, value)
		case "cronexpr":
			fmt.Fprintf(&errMsg, "- Field '%s' must be a cron expression, got '%v'\n", field, value)
		default:
			fmt.Fprintf(&errMsg, "- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg.String())
}

// ValidateEnvironment validates environment-specific requirements
func ValidateEnvironment(cfg *Config) error {
	if cfg.IsProduction() {
		if cfg.App.LogLevel == "debug" {
			return fmt.Errorf("production environment should not log at debug level")
		}
		for _, feed := range cfg.News.Feeds {
			if strings.HasPrefix(feed.Location, "http://") {
				return fmt.Errorf("production news feed %q must use https", feed.Name)
			}
		}
	}
	return nil
}
