// Package config provides configuration management for the rollback CLI.
package config

import "time"

// Config is the root configuration.
type Config struct {
	// Registry configures the version registry API.
	Registry RegistryConfig `mapstructure:"registry" json:"registry"`
	// Auth configures credential resolution.
	Auth AuthConfig `mapstructure:"auth" json:"auth"`
	// Versioning configures next-version computation.
	Versioning VersioningConfig `mapstructure:"versioning" json:"versioning"`
	// Output configures output settings.
	Output OutputConfig `mapstructure:"output" json:"output"`
}

// RegistryConfig configures the version registry API.
type RegistryConfig struct {
	// BaseURL is the registry API base URL,
	// e.g. https://host.example/apptrust/api/v1.
	BaseURL string `mapstructure:"base_url" json:"base_url"`
	// Timeout bounds each registry request.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
	// ListLimit is the page size used when listing versions. The default is
	// large enough to cover practical release history in one call.
	ListLimit int `mapstructure:"list_limit" json:"list_limit"`
}

// AuthConfig configures credential resolution. Exactly one strategy is used:
// a static bearer token, or an OIDC-style token exchange when ExchangeURL is
// set.
type AuthConfig struct {
	// Token is a static access token. Supports ${VAR} expansion.
	Token string `mapstructure:"token" json:"-"`
	// ExchangeURL is the token exchange endpoint for OIDC-based resolution.
	ExchangeURL string `mapstructure:"exchange_url" json:"exchange_url,omitempty"`
	// SubjectToken is the identity token presented to the exchange endpoint.
	// Supports ${VAR} expansion.
	SubjectToken string `mapstructure:"subject_token" json:"-"`
	// Audience is the requested token audience for the exchange.
	Audience string `mapstructure:"audience" json:"audience,omitempty"`
}

// VersioningConfig configures next-version computation.
type VersioningConfig struct {
	// VersionMap is the path to the YAML seed map used as a fallback when
	// the registry holds no usable semver history.
	VersionMap string `mapstructure:"version_map" json:"version_map,omitempty"`
	// ScanLimit is how many recent versions to scan when bumping from the
	// max observed semver.
	ScanLimit int `mapstructure:"scan_limit" json:"scan_limit"`
}

// OutputConfig configures output settings.
type OutputConfig struct {
	// Format is the output format (text, json).
	Format string `mapstructure:"format" json:"format"`
	// Color enables colored output.
	Color bool `mapstructure:"color" json:"color"`
	// Verbose enables verbose output.
	Verbose bool `mapstructure:"verbose" json:"verbose"`
	// LogLevel is the log level (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level" json:"log_level"`
}

// Config file names and extensions searched by the loader.
var (
	ConfigFileNames      = []string{"apptrust", ".apptrust"}
	ConfigFileExtensions = []string{"yaml", "yml", "json", "toml"}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Registry: RegistryConfig{
			Timeout:   30 * time.Second,
			ListLimit: 1000,
		},
		Versioning: VersioningConfig{
			ScanLimit: 50,
		},
		Output: OutputConfig{
			Format:   "text",
			Color:    true,
			LogLevel: "info",
		},
	}
}

// UsesTokenExchange reports whether credentials come from a token exchange
// rather than a static token.
func (a AuthConfig) UsesTokenExchange() bool {
	return a.ExchangeURL != ""
}
