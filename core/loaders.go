package core

import "slices"

// Groups of loaders whose mods also run on the key loader.
// e.g. a Quilt pack can use Fabric releases, but a Fabric pack can't use Quilt-only releases.
var loaderCompatGroups = map[string][]string{
	"quilt":    {"fabric"},
	"neoforge": {"forge"},
}

// CompatibleLoaders returns the Modrinth loader identifiers whose releases can be used by a pack on the given loader
func CompatibleLoaders(family string) []string {
	if family == "" {
		return nil
	}
	return append([]string{family}, loaderCompatGroups[family]...)
}

func sharesLoader(release Release, loaders []string) bool {
	for _, l := range release.Loaders {
		if slices.Contains(loaders, l) {
			return true
		}
	}
	return false
}
