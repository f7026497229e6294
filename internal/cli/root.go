// Package cli provides the command-line interface for the AppTrust rollback
// tool.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/bookverse/apptrust-rollback/internal/config"
	"github.com/bookverse/apptrust-rollback/internal/infrastructure/apptrust"
	"github.com/bookverse/apptrust-rollback/internal/security"
)

var (
	// Version information set by main.
	versionInfo struct {
		Version string
		Commit  string
		Date    string
	}

	// Global flags
	cfgFile     string
	verbose     bool
	dryRun      bool
	outputJSON  bool
	noColor     bool
	logLevel    string
	baseURLFlag string
	tokenFlag   string
	timeoutFlag time.Duration

	// Global config
	cfg *config.Config

	// Logger
	logger *log.Logger

	// Styles
	styles = struct {
		Title   lipgloss.Style
		Success lipgloss.Style
		Error   lipgloss.Style
		Warning lipgloss.Style
		Info    lipgloss.Style
		Subtle  lipgloss.Style
		Bold    lipgloss.Style
	}{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		Subtle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Bold:    lipgloss.NewStyle().Bold(true),
	}
)

// SetVersionInfo sets the version information from main.
func SetVersionInfo(version, commit, date string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.Date = date
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "apptrust-rollback",
	Short: "Roll back released application versions in the AppTrust registry",
	Long: `apptrust-rollback operates on the version history the AppTrust registry
keeps for each application.

It rolls a released version back out of PROD, quarantines it, and when the
rolled-back version was the current latest, promotes the next best eligible
version in its place. It can also list the eligible version history and
compute the next version for a CI run.

All decisions are made from fresh registry state; use --dry-run to see what
a rollback would do without mutating anything.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return initConfig()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with a context for graceful shutdown.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Format and level are reconfigured in initConfig once flags are known.
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		ReportCaller:    false,
	})

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: apptrust.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "compute decisions without mutating the registry")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output results as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "registry API base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "registry access token (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 0, "per-request timeout (overrides config)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(nextVersionCmd)
}

// initConfig loads, overrides, and validates the configuration, then
// configures the logger from the result.
func initConfig() error {
	loader := config.NewLoader()
	if cfgFile != "" {
		loader.WithConfigPath(cfgFile)
	}

	var err error
	cfg, err = loader.Load()
	if err != nil {
		return err
	}

	applyGlobalFlags()

	if err := config.Validate(cfg); err != nil {
		return err
	}

	configureLogger()
	return nil
}

// applyGlobalFlags applies CLI flag overrides to the loaded configuration.
func applyGlobalFlags() {
	if verbose {
		cfg.Output.Verbose = true
	}
	if logLevel != "" {
		cfg.Output.LogLevel = logLevel
	}
	if outputJSON {
		cfg.Output.Format = "json"
	}
	if baseURLFlag != "" {
		cfg.Registry.BaseURL = baseURLFlag
	}
	if tokenFlag != "" {
		cfg.Auth.Token = tokenFlag
	}
	if timeoutFlag > 0 {
		cfg.Registry.Timeout = timeoutFlag
	}
	if noColor {
		cfg.Output.Color = false
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// configureLogger applies format and level from the configuration and masks
// credentials in everything the logger emits.
func configureLogger() {
	masker := security.NewMasker(cfg.Auth.Token, cfg.Auth.SubjectToken)
	logger.SetOutput(masker.Writer(os.Stderr))

	if cfg.Output.Format == "json" {
		logger.SetFormatter(log.JSONFormatter)
	} else if !cfg.Output.Color {
		logger.SetFormatter(log.TextFormatter)
	}

	switch cfg.Output.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	if cfg.Output.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
}

// newRegistryClient builds the registry client from the active configuration.
func newRegistryClient() *apptrust.Client {
	var tokens apptrust.TokenProvider
	if cfg.Auth.UsesTokenExchange() {
		tokens = apptrust.NewExchangeTokenProvider(
			cfg.Auth.ExchangeURL, cfg.Auth.SubjectToken, cfg.Auth.Audience, nil)
	} else {
		tokens = apptrust.NewStaticTokenProvider(cfg.Auth.Token)
	}

	return apptrust.NewClient(apptrust.Options{
		BaseURL:   cfg.Registry.BaseURL,
		Tokens:    tokens,
		Timeout:   cfg.Registry.Timeout,
		ListLimit: cfg.Registry.ListLimit,
	})
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("apptrust-rollback %s\n", versionInfo.Version)
		if verbose {
			fmt.Printf("  commit: %s\n", versionInfo.Commit)
			fmt.Printf("  built:  %s\n", versionInfo.Date)
		}
	},
}

// Helper functions for output

func printSuccess(msg string) {
	fmt.Println(styles.Success.Render("✓ " + msg))
}

func printError(msg string) {
	fmt.Println(styles.Error.Render("✗ " + msg))
}

func printWarning(msg string) {
	fmt.Println(styles.Warning.Render("⚠ " + msg))
}

func printInfo(msg string) {
	fmt.Println(styles.Info.Render("ℹ " + msg))
}

func printTitle(msg string) {
	fmt.Println(styles.Title.Render(msg))
}

func printSubtle(msg string) {
	fmt.Println(styles.Subtle.Render(msg))
}

// IsJSONOutput returns true if JSON output is enabled.
func IsJSONOutput() bool {
	return outputJSON
}
