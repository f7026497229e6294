package registry

import (
	"sort"

	"github.com/bookverse/apptrust-rollback/internal/domain/version"
)

// RankEligible filters entries down to the eligible subset and orders them by
// semantic version precedence, highest first.
//
// Entries whose status is neither TRUSTED_RELEASE nor RELEASED are dropped,
// as are entries whose version string fails to parse. Dropping unparsable
// versions is deliberate, silent behavior: the registry may hold build-number
// or date-stamped versions that simply never participate in semver ranking.
// The sort is stable, so entries with equal precedence keep the registry's
// creation-time order.
func RankEligible(entries []VersionEntry) []VersionEntry {
	type ranked struct {
		entry  VersionEntry
		parsed version.SemanticVersion
	}

	eligible := make([]ranked, 0, len(entries))
	for _, e := range entries {
		if !e.Status.Eligible() {
			continue
		}
		v, err := version.Parse(e.Version)
		if err != nil {
			continue
		}
		eligible = append(eligible, ranked{entry: e, parsed: v})
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].parsed.Compare(eligible[j].parsed) > 0
	})

	out := make([]VersionEntry, len(eligible))
	for i, r := range eligible {
		out[i] = r.entry
	}
	return out
}

// FindVersion returns the first entry in ranked order with the given version
// string.
func FindVersion(ranked []VersionEntry, versionStr string) (VersionEntry, bool) {
	for _, e := range ranked {
		if e.Version == versionStr {
			return e, true
		}
	}
	return VersionEntry{}, false
}

// PickSuccessor selects the next holder of the latest tag from an already
// ranked eligible set, excluding the version being rolled back.
//
// Quarantined entries never become latest. When several registry entries
// share the highest remaining version string, an entry with status
// TRUSTED_RELEASE wins over one merely RELEASED; otherwise the first
// encountered entry is taken. The second return value is false when no
// candidate remains, which is a normal outcome, not an error.
func PickSuccessor(ranked []VersionEntry, excludeVersion string) (VersionEntry, bool) {
	candidates := make(map[string][]VersionEntry)
	order := make([]string, 0, len(ranked))

	for _, e := range ranked {
		if e.Version == excludeVersion {
			continue
		}
		if e.IsQuarantined() {
			continue
		}
		if _, seen := candidates[e.Version]; !seen {
			order = append(order, e.Version)
		}
		candidates[e.Version] = append(candidates[e.Version], e)
	}

	if len(order) == 0 {
		return VersionEntry{}, false
	}

	group := candidates[order[0]]
	for _, c := range group {
		if c.Status == StatusTrustedRelease {
			return c, true
		}
	}
	return group[0], true
}
