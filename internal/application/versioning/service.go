// Package versioning computes the next application and build versions for a
// CI run. Only plain X.Y.Z versions participate: prerelease or metadata
// suffixes are skipped rather than bumped, so release trains stay on clean
// patch increments.
package versioning

import (
	"context"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"

	"github.com/bookverse/apptrust-rollback/internal/domain/registry"
	apterrors "github.com/bookverse/apptrust-rollback/internal/errors"
)

// DefaultScanLimit bounds the history window scanned when the most recent
// version does not parse as plain X.Y.Z.
const DefaultScanLimit = 50

// RegistryReader is the subset of the registry client next-version
// computation needs.
type RegistryReader interface {
	ListVersions(ctx context.Context, appKey string) ([]registry.VersionEntry, error)
	GetVersion(ctx context.Context, appKey, version string) (registry.VersionDetail, error)
}

// Service derives the next version for an application. Resolution order:
// bump the most recently created registry version; failing that, bump the
// maximum plain semver across a recent window; failing that, bump the seed
// from the version map.
type Service struct {
	client    RegistryReader
	logger    *log.Logger
	scanLimit int
}

// NewService creates a versioning service. A zero scanLimit means
// DefaultScanLimit.
func NewService(client RegistryReader, logger *log.Logger, scanLimit int) *Service {
	if scanLimit <= 0 {
		scanLimit = DefaultScanLimit
	}
	return &Service{client: client, logger: logger, scanLimit: scanLimit}
}

// Next is the outcome of a next-version computation.
type Next struct {
	AppKey string `json:"app_key"`
	// Version is the next application version.
	Version string `json:"version"`
	// BuildNumber is the next build number, empty when build derivation was
	// not possible and no build seed exists.
	BuildNumber string `json:"build_number,omitempty"`
	// Source names how Version was derived: "latest", "scan", or "seed".
	Source string `json:"source"`
}

// NextVersion computes the next application version and build number.
// The seeds argument may be zero-valued when the application has registry
// history; it is required only as the fallback of last resort.
func (s *Service) NextVersion(ctx context.Context, appKey string, seeds Seeds) (Next, error) {
	const op = "versioning.NextVersion"

	entries, err := s.client.ListVersions(ctx, appKey)
	if err != nil {
		return Next{}, err
	}

	next := Next{AppKey: appKey}

	if len(entries) > 0 {
		if bumped, ok := bumpPlain(entries[0].Version); ok {
			next.Version = bumped
			next.Source = "latest"
		}
	}

	if next.Version == "" {
		if bumped, ok := s.bumpMaxInWindow(entries); ok {
			next.Version = bumped
			next.Source = "scan"
		}
	}

	if next.Version == "" {
		bumped, ok := bumpPlain(seeds.Application)
		if !ok {
			return Next{}, apterrors.Validation(op,
				"no usable version in registry history and no application seed for "+appKey)
		}
		next.Version = bumped
		next.Source = "seed"
	}

	number, err := s.nextBuildNumber(ctx, appKey, entries, seeds)
	if err != nil {
		return Next{}, err
	}
	next.BuildNumber = number

	s.logger.Debug("computed next version",
		"app", appKey, "version", next.Version, "source", next.Source)
	return next, nil
}

// bumpMaxInWindow finds the maximum plain X.Y.Z version across the scan
// window and returns its patch bump.
func (s *Service) bumpMaxInWindow(entries []registry.VersionEntry) (string, bool) {
	window := entries
	if len(window) > s.scanLimit {
		window = window[:s.scanLimit]
	}

	var max *semver.Version
	for _, entry := range window {
		sv, ok := parsePlain(entry.Version)
		if !ok {
			continue
		}
		if max == nil || sv.GreaterThan(max) {
			max = sv
		}
	}
	if max == nil {
		return "", false
	}
	bumped := max.IncPatch()
	return bumped.String(), true
}

// nextBuildNumber bumps the build number recorded on the most recent
// version, falling back to the build seed. An empty result is not an error:
// build numbers are optional.
func (s *Service) nextBuildNumber(ctx context.Context, appKey string, entries []registry.VersionEntry, seeds Seeds) (string, error) {
	if len(entries) > 0 {
		detail, err := s.client.GetVersion(ctx, appKey, entries[0].Version)
		if err != nil {
			return "", err
		}
		if bumped, ok := bumpPlain(detail.BuildNumber); ok {
			return bumped, nil
		}
		s.logger.Debug("latest version has no plain build number",
			"app", appKey, "version", entries[0].Version, "build_number", detail.BuildNumber)
	}

	if bumped, ok := bumpPlain(seeds.Build); ok {
		return bumped, nil
	}
	return "", nil
}

// parsePlain parses a plain X.Y.Z version. Prerelease or build suffixes
// disqualify the value.
func parsePlain(v string) (*semver.Version, bool) {
	sv, err := semver.StrictNewVersion(strings.TrimSpace(v))
	if err != nil {
		return nil, false
	}
	if sv.Prerelease() != "" || sv.Metadata() != "" {
		return nil, false
	}
	return sv, true
}

// bumpPlain returns the patch bump of a plain X.Y.Z version.
func bumpPlain(v string) (string, bool) {
	sv, ok := parsePlain(v)
	if !ok {
		return "", false
	}
	bumped := sv.IncPatch()
	return bumped.String(), true
}
