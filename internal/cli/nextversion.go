package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bookverse/apptrust-rollback/internal/application/versioning"
	apterrors "github.com/bookverse/apptrust-rollback/internal/errors"
)

var (
	nextVersionApp string
	nextVersionMap string
	nextGithubEnv  bool
)

var nextVersionCmd = &cobra.Command{
	Use:   "next-version",
	Short: "Compute the next application version for a CI run",
	Long: `Compute the next application version and build number.

The most recently created registry version is patch-bumped when it is a
plain X.Y.Z version. Otherwise the highest plain version across a recent
window is bumped, and as a last resort the seed from the version map is
bumped. The seed itself is never emitted.

With --github-env, APP_VERSION, IMAGE_TAG and BUILD_NUMBER are appended to
the file named by $GITHUB_ENV for use by later workflow steps.`,
	RunE: runNextVersion,
}

func init() {
	nextVersionCmd.Flags().StringVarP(&nextVersionApp, "app", "a", "", "application key (required)")
	nextVersionCmd.Flags().StringVar(&nextVersionMap, "version-map", "", "seed map file (overrides config)")
	nextVersionCmd.Flags().BoolVar(&nextGithubEnv, "github-env", false, "append results to $GITHUB_ENV")
	_ = nextVersionCmd.MarkFlagRequired("app")
}

func runNextVersion(cmd *cobra.Command, args []string) error {
	seeds, err := loadSeeds()
	if err != nil {
		return err
	}

	svc := versioning.NewService(newRegistryClient(), logger, cfg.Versioning.ScanLimit)
	next, err := svc.NextVersion(cmd.Context(), nextVersionApp, seeds)
	if err != nil {
		return err
	}

	if nextGithubEnv {
		if err := exportGithubEnv(next); err != nil {
			return err
		}
	}

	if IsJSONOutput() {
		return printJSON(next)
	}

	printSuccess(fmt.Sprintf("Next version for %s: %s", next.AppKey, next.Version))
	if next.BuildNumber != "" {
		printInfo("Next build number: " + next.BuildNumber)
	}
	printSubtle("derived from: " + next.Source)
	return nil
}

// loadSeeds resolves the seed map. A missing map is fine as long as the
// registry history suffices; the service errors otherwise.
func loadSeeds() (versioning.Seeds, error) {
	mapPath := nextVersionMap
	if mapPath == "" {
		mapPath = cfg.Versioning.VersionMap
	}
	if mapPath == "" {
		return versioning.Seeds{}, nil
	}

	vm, err := versioning.LoadVersionMap(mapPath)
	if err != nil {
		return versioning.Seeds{}, err
	}

	seeds, ok := vm.Lookup(nextVersionApp)
	if !ok {
		logger.Debug("application not present in version map",
			"app", nextVersionApp, "map", mapPath)
	}
	return seeds, nil
}

// exportGithubEnv appends the computed values to the $GITHUB_ENV file.
func exportGithubEnv(next versioning.Next) error {
	const op = "cli.exportGithubEnv"

	path := os.Getenv("GITHUB_ENV")
	if path == "" {
		return apterrors.Config(op, "--github-env requires the GITHUB_ENV environment variable")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return apterrors.ConfigWrap(err, op, "failed to open GITHUB_ENV file")
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "APP_VERSION=%s\nIMAGE_TAG=%s\n", next.Version, next.Version); err != nil {
		return apterrors.ConfigWrap(err, op, "failed to write GITHUB_ENV file")
	}
	if next.BuildNumber != "" {
		if _, err := fmt.Fprintf(f, "BUILD_NUMBER=%s\n", next.BuildNumber); err != nil {
			return apterrors.ConfigWrap(err, op, "failed to write GITHUB_ENV file")
		}
	}
	return nil
}
