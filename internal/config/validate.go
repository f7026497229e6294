package config

import (
	"fmt"
	"net/url"
	"strings"

	apterrors "github.com/bookverse/apptrust-rollback/internal/errors"
)

// ValidationError contains all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string

	if len(e.Errors) > 0 {
		parts = append(parts, fmt.Sprintf("Errors:\n  - %s", strings.Join(e.Errors, "\n  - ")))
	}

	if len(e.Warnings) > 0 {
		parts = append(parts, fmt.Sprintf("Warnings:\n  - %s", strings.Join(e.Warnings, "\n  - ")))
	}

	return fmt.Sprintf("configuration validation failed:\n%s", strings.Join(parts, "\n"))
}

// HasErrors returns true if there are validation errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// Addf adds a formatted error to the validation error.
func (e *ValidationError) Addf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

// Warnf adds a formatted warning to the validation error.
func (e *ValidationError) Warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks the configuration for the registry-facing commands.
// Missing endpoint or credential is a configuration error: the process must
// exit with code 2 before any network call is attempted.
func Validate(cfg *Config) error {
	const op = "config.Validate"

	ve := &ValidationError{}

	validateRegistry(cfg, ve)
	validateAuth(cfg, ve)
	validateOutput(cfg, ve)

	if ve.HasErrors() {
		return apterrors.ConfigWrap(ve, op, "invalid configuration")
	}
	return nil
}

func validateRegistry(cfg *Config, ve *ValidationError) {
	if cfg.Registry.BaseURL == "" {
		ve.Addf("registry.base_url is required (flag --base-url or env APPTRUST_BASE_URL)")
		return
	}

	u, err := url.Parse(cfg.Registry.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		ve.Addf("registry.base_url %q is not a valid URL", cfg.Registry.BaseURL)
		return
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		ve.Addf("registry.base_url scheme %q is not supported", u.Scheme)
	}
	if u.Scheme == "http" {
		ve.Warnf("registry.base_url uses plain http; the access token is sent in clear text")
	}

	if cfg.Registry.ListLimit <= 0 {
		ve.Addf("registry.list_limit must be positive, got %d", cfg.Registry.ListLimit)
	}
	if cfg.Registry.Timeout <= 0 {
		ve.Addf("registry.timeout must be positive, got %s", cfg.Registry.Timeout)
	}
}

func validateAuth(cfg *Config, ve *ValidationError) {
	if cfg.Auth.UsesTokenExchange() {
		if cfg.Auth.SubjectToken == "" {
			ve.Addf("auth.subject_token is required when auth.exchange_url is set (env APPTRUST_SUBJECT_TOKEN)")
		}
		if u, err := url.Parse(cfg.Auth.ExchangeURL); err != nil || u.Scheme == "" || u.Host == "" {
			ve.Addf("auth.exchange_url %q is not a valid URL", cfg.Auth.ExchangeURL)
		}
		return
	}

	if cfg.Auth.Token == "" {
		ve.Addf("a credential is required: set auth.token (flag --token or env APPTRUST_ACCESS_TOKEN) or configure auth.exchange_url")
	}
}

func validateOutput(cfg *Config, ve *ValidationError) {
	switch cfg.Output.Format {
	case "", "text", "json":
	default:
		ve.Addf("output.format %q is not supported (expected text or json)", cfg.Output.Format)
	}

	switch cfg.Output.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		ve.Addf("output.log_level %q is not supported", cfg.Output.LogLevel)
	}
}
