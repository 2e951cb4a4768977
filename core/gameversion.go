package core

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/unascribed/FlexVer/go/flexver"
)

// Only release versions; snapshots (23w13a) and pre-releases (1.20-pre1) are rejected
var gameVersionRegex = regexp.MustCompile(`^[0-9]+\.[0-9]+(\.[0-9]+)?$`)

// GameVersion is a parsed Minecraft release version, e.g. 1.20 or 1.20.1
type GameVersion struct {
	raw     string
	version *semver.Version
}

// ParseGameVersion parses a Minecraft release version
func ParseGameVersion(s string) (GameVersion, error) {
	if !gameVersionRegex.MatchString(s) {
		return GameVersion{}, fmt.Errorf("not a valid game version: %s", s)
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return GameVersion{}, fmt.Errorf("not a valid game version: %s: %w", s, err)
	}
	return GameVersion{raw: s, version: v}, nil
}

func (g GameVersion) String() string {
	return g.raw
}

// Compare returns -1, 0 or 1; 1.20 and 1.20.0 compare equal
func (g GameVersion) Compare(other GameVersion) int {
	return g.version.Compare(other.version)
}

// LatestGameVersion returns the highest release version in versions, skipping anything that doesn't parse
func LatestGameVersion(versions []string) (GameVersion, bool) {
	var latest GameVersion
	found := false
	for _, s := range versions {
		v, err := ParseGameVersion(s)
		if err != nil {
			continue
		}
		if !found || v.Compare(latest) > 0 {
			latest = v
			found = true
		}
	}
	return latest, found
}

// SortVersions sorts version strings (game or mod versions) in place, lowest first
func SortVersions(versions []string) {
	flexver.VersionSlice(versions).Sort()
}
