// Package version provides domain types for semantic versioning.
package version

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// SemanticVersion is a value object representing a semantic version.
// Immutable by design - all operations return new instances.
type SemanticVersion struct {
	major      uint64
	minor      uint64
	patch      uint64
	prerelease []string
	metadata   string
	original   string
}

var (
	// semverRegex validates semantic version strings per the semver grammar:
	// an optional leading "v", numeric core fields without leading zeros, a
	// dot-separated prerelease, and dot-separated build metadata.
	semverRegex = regexp.MustCompile(
		`^v?(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
			`(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*))*))?` +
			`(?:\+([0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`)

	// numericIdent matches a purely numeric prerelease identifier.
	numericIdent = regexp.MustCompile(`^\d+$`)

	// Zero is the zero version (0.0.0).
	Zero = SemanticVersion{}
)

// Parse parses a semantic version string into a SemanticVersion value object.
// Surrounding whitespace is tolerated. Returns an error if the string is not
// a valid semantic version; callers filtering registry entries treat that as
// exclusion, not as a failure to report.
func Parse(s string) (SemanticVersion, error) {
	trimmed := strings.TrimSpace(s)
	matches := semverRegex.FindStringSubmatch(trimmed)
	if matches == nil {
		return Zero, fmt.Errorf("invalid semantic version: %q", s)
	}

	major, err := strconv.ParseUint(matches[1], 10, 64)
	if err != nil {
		return Zero, fmt.Errorf("invalid major version: %w", err)
	}

	minor, err := strconv.ParseUint(matches[2], 10, 64)
	if err != nil {
		return Zero, fmt.Errorf("invalid minor version: %w", err)
	}

	patch, err := strconv.ParseUint(matches[3], 10, 64)
	if err != nil {
		return Zero, fmt.Errorf("invalid patch version: %w", err)
	}

	var prerelease []string
	if matches[4] != "" {
		prerelease = strings.Split(matches[4], ".")
	}

	return SemanticVersion{
		major:      major,
		minor:      minor,
		patch:      patch,
		prerelease: prerelease,
		metadata:   matches[5],
		original:   s,
	}, nil
}

// MustParse parses a semantic version string and panics if invalid.
// Use only for known-good version strings.
func MustParse(s string) SemanticVersion {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsValid reports whether s parses as a semantic version.
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Major returns the major version component.
func (v SemanticVersion) Major() uint64 {
	return v.major
}

// Minor returns the minor version component.
func (v SemanticVersion) Minor() uint64 {
	return v.minor
}

// Patch returns the patch version component.
func (v SemanticVersion) Patch() uint64 {
	return v.patch
}

// Prerelease returns the prerelease identifiers in sequence order.
func (v SemanticVersion) Prerelease() []string {
	return v.prerelease
}

// Metadata returns the build metadata.
func (v SemanticVersion) Metadata() string {
	return v.metadata
}

// IsPrerelease returns true if this is a prerelease version.
func (v SemanticVersion) IsPrerelease() bool {
	return len(v.prerelease) > 0
}

// Original returns the source string the version was parsed from.
func (v SemanticVersion) Original() string {
	return v.original
}

// String returns the canonical string representation (without 'v' prefix).
func (v SemanticVersion) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d.%d.%d", v.major, v.minor, v.patch)

	if len(v.prerelease) > 0 {
		sb.WriteString("-")
		sb.WriteString(strings.Join(v.prerelease, "."))
	}

	if v.metadata != "" {
		sb.WriteString("+")
		sb.WriteString(v.metadata)
	}

	return sb.String()
}

// Compare compares two versions by semantic version precedence.
// Returns -1 if v < other, 0 if v == other, 1 if v > other.
// Build metadata is ignored per the semver spec.
func (v SemanticVersion) Compare(other SemanticVersion) int {
	if v.major != other.major {
		if v.major < other.major {
			return -1
		}
		return 1
	}

	if v.minor != other.minor {
		if v.minor < other.minor {
			return -1
		}
		return 1
	}

	if v.patch != other.patch {
		if v.patch < other.patch {
			return -1
		}
		return 1
	}

	// Core fields equal: a version without prerelease has higher precedence
	// than one with a prerelease.
	if len(v.prerelease) == 0 && len(other.prerelease) > 0 {
		return 1
	}
	if len(v.prerelease) > 0 && len(other.prerelease) == 0 {
		return -1
	}

	return comparePrerelease(v.prerelease, other.prerelease)
}

// comparePrerelease compares prerelease identifier sequences. The first
// differing identifier decides; a sequence that is a strict prefix of the
// other has lower precedence.
func comparePrerelease(a, b []string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	for i := 0; i < n; i++ {
		if a[i] == b[i] {
			continue
		}
		return compareIdentifier(a[i], b[i])
	}

	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// compareIdentifier compares two prerelease identifiers. Numeric identifiers
// compare numerically and always have lower precedence than alphanumeric
// ones; alphanumeric identifiers compare in ASCII order.
func compareIdentifier(a, b string) int {
	aNum := numericIdent.MatchString(a)
	bNum := numericIdent.MatchString(b)

	switch {
	case aNum && bNum:
		ai, _ := strconv.ParseUint(a, 10, 64)
		bi, _ := strconv.ParseUint(b, 10, 64)
		if ai < bi {
			return -1
		}
		if ai > bi {
			return 1
		}
		return 0
	case aNum && !bNum:
		return -1
	case !aNum && bNum:
		return 1
	default:
		if a < b {
			return -1
		}
		return 1
	}
}

// LessThan returns true if v < other.
func (v SemanticVersion) LessThan(other SemanticVersion) bool {
	return v.Compare(other) < 0
}

// GreaterThan returns true if v > other.
func (v SemanticVersion) GreaterThan(other SemanticVersion) bool {
	return v.Compare(other) > 0
}

// Equal returns true if two versions have equal precedence (metadata ignored).
func (v SemanticVersion) Equal(other SemanticVersion) bool {
	return v.Compare(other) == 0
}

// SortDescending stable-sorts versions from highest to lowest precedence.
// Entries with equal precedence keep their input relative order.
func SortDescending(versions []SemanticVersion) {
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].Compare(versions[j]) > 0
	})
}
