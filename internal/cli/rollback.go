package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/bookverse/apptrust-rollback/internal/application/rollback"
	apterrors "github.com/bookverse/apptrust-rollback/internal/errors"
	"github.com/bookverse/apptrust-rollback/internal/ui"
)

var (
	rollbackApp     string
	rollbackVersion string
	rollbackYes     bool
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Roll back a released version and quarantine it",
	Long: `Roll back a version out of PROD and quarantine it.

The target must be present in the application's eligible release history.
When the target currently holds the latest tag, the next best eligible
version is promoted to latest in its place. Both versions keep a record of
the tag they held before the change.

Without --yes (and outside --dry-run and --json), the computed plan is shown
for interactive confirmation before any mutation.`,
	RunE: runRollback,
}

func init() {
	rollbackCmd.Flags().StringVarP(&rollbackApp, "app", "a", "", "application key (required)")
	rollbackCmd.Flags().StringVar(&rollbackVersion, "version", "", "version to roll back (required)")
	rollbackCmd.Flags().BoolVarP(&rollbackYes, "yes", "y", false, "skip the confirmation prompt")
	_ = rollbackCmd.MarkFlagRequired("app")
	_ = rollbackCmd.MarkFlagRequired("version")
}

func runRollback(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client := newRegistryClient()

	if needsConfirmation() {
		// The plan is a dry-run of the same decision logic. The state it saw
		// can drift before the real run; the real run re-reads and
		// re-validates from scratch.
		plan, err := rollback.NewService(client, logger, true).Run(ctx, rollbackApp, rollbackVersion)
		if err != nil {
			return err
		}

		result, err := ui.RunConfirm(ui.RollbackPlan{
			AppKey:        plan.AppKey,
			TargetVersion: plan.TargetVersion,
			TargetTag:     plan.PriorTag,
			HoldsLatest:   plan.HadLatest,
			Successor:     plan.Successor,
			NoSuccessor:   plan.NoSuccessor,
		})
		if err != nil {
			return apterrors.InternalWrap(err, "cli.rollback", "confirmation prompt failed")
		}
		if result != ui.ConfirmAccepted {
			printWarning("Rollback aborted")
			return nil
		}
	}

	svc := rollback.NewService(client, logger, dryRun)
	result, err := svc.Run(ctx, rollbackApp, rollbackVersion)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		return printJSON(result)
	}
	renderRollbackResult(result)
	return nil
}

// needsConfirmation reports whether the interactive prompt should run.
// Dry runs and JSON output are non-interactive by definition.
func needsConfirmation() bool {
	if rollbackYes || dryRun || IsJSONOutput() {
		return false
	}
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

func renderRollbackResult(result *rollback.Result) {
	if result.DryRun {
		printTitle("Dry run: no changes were made")
	}

	printSuccess(fmt.Sprintf("Rolled back %s %s from PROD", result.AppKey, result.TargetVersion))
	printInfo(fmt.Sprintf("Quarantined %s (previous tag: %s)", result.TargetVersion, displayTag(result.PriorTag)))

	switch {
	case !result.HadLatest:
		printSubtle("Target did not hold the latest tag; no reassignment needed")
	case result.NoSuccessor:
		printWarning("No eligible successor: the application now has no latest version")
	default:
		printSuccess(fmt.Sprintf("Promoted %s to latest (previous tag: %s)",
			result.Successor, displayTag(result.SuccessorPriorTag)))
	}

	printSubtle("run id: " + result.RunID)
}

func displayTag(tag string) string {
	if tag == "" {
		return "none"
	}
	return tag
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
