package core

import (
	"context"
	"io"
	"slices"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of provider queries a Checker runs at once unless configured otherwise
const DefaultConcurrency = 8

// Release is one published version of a project
type Release struct {
	VersionID     string
	VersionNumber string
	Name          string
	GameVersions  []string
	Loaders       []string
}

// SupportsAll returns true if the release lists every one of the given game versions
func (r Release) SupportsAll(gameVersions []string) bool {
	for _, v := range gameVersions {
		if !slices.Contains(r.GameVersions, v) {
			return false
		}
	}
	return true
}

// Provider looks up the releases of a project, e.g. from the Modrinth API
type Provider interface {
	// Releases returns all known releases of a project. Returning no releases is treated the same as an error.
	Releases(ctx context.Context, projectID string) ([]Release, error)
}

// ProviderFunc adapts a function to the Provider interface
type ProviderFunc func(ctx context.Context, projectID string) ([]Release, error)

func (f ProviderFunc) Releases(ctx context.Context, projectID string) ([]Release, error) {
	return f(ctx, projectID)
}

// CompatibilityStatus is the outcome of checking one mod
type CompatibilityStatus int

const (
	// StatusUnknown means the provider had no data for the project
	StatusUnknown CompatibilityStatus = iota
	StatusCompatible
	StatusIncompatible
)

func (s CompatibilityStatus) String() string {
	switch s {
	case StatusCompatible:
		return "compatible"
	case StatusIncompatible:
		return "incompatible"
	}
	return "unknown"
}

// CompatibilityResult is the outcome of checking one mod against the target game versions
type CompatibilityResult struct {
	ProjectID        string
	CurrentVersionID string
	FilePath         string
	Status           CompatibilityStatus
	// MatchingReleaseIDs are the releases that support every target version at once, in provider order
	MatchingReleaseIDs []string
	// SupportedGameVersions is every game version supported by any release of the project, sorted
	SupportedGameVersions []string
	// Err is the provider error behind an unknown status, if there was one
	Err error
}

// SupportsGameVersion returns true if any release of the mod supports the given game version
func (r CompatibilityResult) SupportsGameVersion(version string) bool {
	return slices.Contains(r.SupportedGameVersions, version)
}

// Checker checks the mods of a manifest for releases compatible with a set of game versions
type Checker struct {
	Provider Provider
	// Concurrency is the maximum number of provider queries in flight; values below 1 use DefaultConcurrency
	Concurrency int
	// Loaders, if set, restricts matching releases to those that list one of these loaders
	Loaders []string
	Logger  *log.Logger
	// OnResult is called once for every checked mod, possibly from multiple goroutines
	OnResult func(index int, result CompatibilityResult)
}

// Check returns one result per mod of the manifest, in manifest order.
// Provider failures become StatusUnknown rows; the only errors returned are for missing
// target versions and cancellation, in which case no results are returned.
func (c Checker) Check(ctx context.Context, manifest *Manifest, targets []string) ([]CompatibilityResult, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargetVersions
	}
	logger := c.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	concurrency := c.Concurrency
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	results := make([]CompatibilityResult, len(manifest.Mods))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, mod := range manifest.Mods {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			releases, err := c.Provider.Releases(gctx, mod.ProjectID)
			if err := gctx.Err(); err != nil {
				// Cancelled while waiting on the provider; the result is discarded anyway
				return err
			}
			if err != nil {
				logger.Debug("No release data", "project", mod.ProjectID, "file", mod.FilePath, "err", err)
			}
			results[i] = c.evaluate(mod, releases, err, targets)
			if c.OnResult != nil {
				c.OnResult(i, results[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c Checker) evaluate(mod ModEntry, releases []Release, err error, targets []string) CompatibilityResult {
	result := CompatibilityResult{
		ProjectID:          mod.ProjectID,
		CurrentVersionID:   mod.VersionID,
		FilePath:           mod.FilePath,
		Status:             StatusUnknown,
		MatchingReleaseIDs: []string{},
		Err:                err,
	}
	if err != nil || len(releases) == 0 {
		return result
	}

	supported := make(map[string]bool)
	for _, release := range releases {
		if len(c.Loaders) > 0 && !sharesLoader(release, c.Loaders) {
			continue
		}
		for _, v := range release.GameVersions {
			supported[v] = true
		}
		if release.SupportsAll(targets) {
			result.MatchingReleaseIDs = append(result.MatchingReleaseIDs, release.VersionID)
		}
	}
	result.SupportedGameVersions = make([]string, 0, len(supported))
	for v := range supported {
		result.SupportedGameVersions = append(result.SupportedGameVersions, v)
	}
	SortVersions(result.SupportedGameVersions)

	if len(result.MatchingReleaseIDs) > 0 {
		result.Status = StatusCompatible
	} else {
		result.Status = StatusIncompatible
	}
	return result
}
