package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bookverse/apptrust-rollback/internal/domain/registry"
)

var (
	versionsApp string
	versionsAll bool
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List an application's versions ranked by precedence",
	Long: `List an application's versions from the registry, ranked highest first
by semantic version precedence.

By default only eligible versions are shown: those whose release status
permits rollback participation. Use --all to include every version the
registry returned, in registry order.`,
	RunE: runVersions,
}

func init() {
	versionsCmd.Flags().StringVarP(&versionsApp, "app", "a", "", "application key (required)")
	versionsCmd.Flags().BoolVar(&versionsAll, "all", false, "include ineligible versions in registry order")
	_ = versionsCmd.MarkFlagRequired("app")
}

// versionRow is the JSON shape of one listed version.
type versionRow struct {
	Version  string `json:"version"`
	Tag      string `json:"tag,omitempty"`
	Status   string `json:"status"`
	Eligible bool   `json:"eligible"`
}

func runVersions(cmd *cobra.Command, args []string) error {
	client := newRegistryClient()

	entries, err := client.ListVersions(cmd.Context(), versionsApp)
	if err != nil {
		return err
	}

	shown := entries
	if !versionsAll {
		shown = registry.RankEligible(entries)
	}

	rows := make([]versionRow, 0, len(shown))
	for _, entry := range shown {
		rows = append(rows, versionRow{
			Version:  entry.Version,
			Tag:      entry.Tag,
			Status:   string(entry.Status),
			Eligible: entry.Status.Eligible(),
		})
	}

	if IsJSONOutput() {
		return printJSON(rows)
	}
	renderVersionRows(rows)
	return nil
}

var statusCaser = cases.Title(language.English)

// humanizeStatus turns a registry status constant into display form,
// e.g. TRUSTED_RELEASE becomes "Trusted Release".
func humanizeStatus(status string) string {
	lowered := strings.ToLower(strings.ReplaceAll(status, "_", " "))
	return statusCaser.String(lowered)
}

func renderVersionRows(rows []versionRow) {
	if len(rows) == 0 {
		printWarning("No versions found for " + versionsApp)
		return
	}

	printTitle(versionsApp)
	for _, row := range rows {
		line := fmt.Sprintf("  %-20s %s", row.Version, humanizeStatus(row.Status))
		switch {
		case row.Tag == registry.TagLatest:
			line += "  " + styles.Success.Render("[latest]")
		case row.Tag == registry.TagQuarantine:
			line += "  " + styles.Error.Render("[quarantine]")
		case row.Tag != "":
			line += "  " + styles.Subtle.Render("["+row.Tag+"]")
		}
		if !row.Eligible {
			line += "  " + styles.Subtle.Render("(ineligible)")
		}
		fmt.Println(line)
	}
	printSubtle(fmt.Sprintf("%d version(s)", len(rows)))
}
