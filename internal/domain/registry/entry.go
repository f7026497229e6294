// Package registry provides domain types for application version registry
// entries and the eligibility and successor-selection rules used during a
// production rollback.
package registry

import "strings"

// ReleaseStatus is the promotion status of a registry version entry.
type ReleaseStatus string

// Release statuses reported by the registry. Only the first two make an
// entry eligible for rollback decisions.
const (
	StatusTrustedRelease ReleaseStatus = "TRUSTED_RELEASE"
	StatusReleased       ReleaseStatus = "RELEASED"
)

// Version tags with special meaning in the registry.
const (
	// TagLatest designates the currently recommended production version.
	// The system invariant requires at most one holder.
	TagLatest = "latest"
	// TagQuarantine marks a version that has been rolled back and is
	// excluded from future latest selection.
	TagQuarantine = "quarantine"
)

// Backup property keys. The prior tag is recorded under a distinct key per
// mutation kind so a quarantine and a latest reassignment on the same entry
// never clobber each other's backup.
const (
	BackupBeforeQuarantine = "original_tag_before_quarantine"
	BackupBeforeLatest     = "original_tag_before_latest"
)

// StageProd is the only promotion stage this tool rolls back from.
// Rollbacks are only meaningful from the production stage.
const StageProd = "PROD"

// NormalizeStatus upper-cases a raw status string for case-insensitive
// comparison against the known statuses.
func NormalizeStatus(raw string) ReleaseStatus {
	return ReleaseStatus(strings.ToUpper(strings.TrimSpace(raw)))
}

// Eligible reports whether the status admits an entry into rollback
// decisions.
func (s ReleaseStatus) Eligible() bool {
	return s == StatusTrustedRelease || s == StatusReleased
}

// VersionEntry is one application version as reported by the registry,
// decoded into a typed structure at the client boundary.
type VersionEntry struct {
	// Version is the version string as stored in the registry.
	Version string
	// Tag is the entry's tag; empty means untagged. A null or absent tag
	// from the API normalizes to "".
	Tag string
	// Status is the normalized release status.
	Status ReleaseStatus
}

// VersionDetail is the detailed view of one version, used by next-version
// computation to discover the build number the version was produced from.
type VersionDetail struct {
	Version string
	// BuildNumber is the number of the first build source; empty when the
	// version has no build sources.
	BuildNumber string
}

// IsLatest reports whether the entry currently holds the latest tag.
func (e VersionEntry) IsLatest() bool {
	return e.Tag == TagLatest
}

// IsQuarantined reports whether the entry is tagged quarantine.
func (e VersionEntry) IsQuarantined() bool {
	return e.Tag == TagQuarantine
}
