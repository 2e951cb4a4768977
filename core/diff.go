package core

import (
	"maps"
	"slices"
	"strings"
)

// ModChange is a project pinned to a different release in the new manifest
type ModChange struct {
	Old ModEntry
	New ModEntry
}

// OverrideChange is an override present in both manifests with different contents
type OverrideChange struct {
	Old OverrideFile
	New OverrideFile
}

// ExternalChange is a non-Modrinth file present in both manifests with different contents
type ExternalChange struct {
	Old ExternalFile
	New ExternalFile
}

// FieldChange is a change to pack metadata; Old or New is empty if the field was added or removed
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// DiffResult is the structural difference between two manifests.
// Added and changed entries follow the order of the new manifest, removed entries the order of the old one.
type DiffResult struct {
	PackChanges []FieldChange

	AddedMods   []ModEntry
	RemovedMods []ModEntry
	ChangedMods []ModChange

	AddedOverrides   []OverrideFile
	RemovedOverrides []OverrideFile
	ChangedOverrides []OverrideChange

	AddedExternal   []ExternalFile
	RemovedExternal []ExternalFile
	ChangedExternal []ExternalChange
}

// IsEmpty returns true if the two manifests had no differences
func (d *DiffResult) IsEmpty() bool {
	return len(d.PackChanges) == 0 &&
		len(d.AddedMods) == 0 && len(d.RemovedMods) == 0 && len(d.ChangedMods) == 0 &&
		len(d.AddedOverrides) == 0 && len(d.RemovedOverrides) == 0 && len(d.ChangedOverrides) == 0 &&
		len(d.AddedExternal) == 0 && len(d.RemovedExternal) == 0 && len(d.ChangedExternal) == 0
}

// Diff compares two manifests. Mods are matched by project ID, overrides by path and scope,
// and other files by path. It fails with an AmbiguousDiffError if a project appears twice in either manifest.
func Diff(old, new *Manifest) (*DiffResult, error) {
	if err := checkUniqueProjects(old, "old"); err != nil {
		return nil, err
	}
	if err := checkUniqueProjects(new, "new"); err != nil {
		return nil, err
	}

	result := &DiffResult{PackChanges: diffPackData(old, new)}

	var changedMods []pair[ModEntry]
	result.AddedMods, result.RemovedMods, changedMods = diffKeyed(old.Mods, new.Mods,
		func(m ModEntry) string { return m.ProjectID },
		func(a, b ModEntry) bool { return a.VersionID == b.VersionID })
	for _, c := range changedMods {
		result.ChangedMods = append(result.ChangedMods, ModChange{Old: c.old, New: c.new})
	}

	var changedOverrides []pair[OverrideFile]
	result.AddedOverrides, result.RemovedOverrides, changedOverrides = diffKeyed(old.Overrides, new.Overrides,
		OverrideFile.Key,
		func(a, b OverrideFile) bool { return a.ContentHash == b.ContentHash })
	for _, c := range changedOverrides {
		result.ChangedOverrides = append(result.ChangedOverrides, OverrideChange{Old: c.old, New: c.new})
	}

	var changedExternal []pair[ExternalFile]
	result.AddedExternal, result.RemovedExternal, changedExternal = diffKeyed(old.External, new.External,
		func(f ExternalFile) string { return f.Path },
		sameContent)
	for _, c := range changedExternal {
		result.ChangedExternal = append(result.ChangedExternal, ExternalChange{Old: c.old, New: c.new})
	}

	return result, nil
}

func checkUniqueProjects(m *Manifest, side string) error {
	paths := make(map[string][]string, len(m.Mods))
	for _, mod := range m.Mods {
		paths[mod.ProjectID] = append(paths[mod.ProjectID], mod.FilePath)
	}
	// Report the first duplicate in index order so the error is stable
	for _, mod := range m.Mods {
		if len(paths[mod.ProjectID]) > 1 {
			return &AmbiguousDiffError{ProjectID: mod.ProjectID, Side: side, Paths: paths[mod.ProjectID]}
		}
	}
	return nil
}

func diffPackData(old, new *Manifest) []FieldChange {
	var out []FieldChange
	if old.Name != new.Name {
		out = append(out, FieldChange{"modpack name", old.Name, new.Name})
	}
	if old.VersionID != new.VersionID {
		out = append(out, FieldChange{"modpack version", old.VersionID, new.VersionID})
	}

	if old.GameVersion != new.GameVersion {
		out = append(out, FieldChange{"minecraft", old.GameVersion, new.GameVersion})
	}

	// Other dependencies: changed, then added, then removed, each sorted case-insensitively
	var changed, added, removed []FieldChange
	for k, o := range old.Dependencies {
		if k == "minecraft" {
			continue
		}
		n, ok := new.Dependencies[k]
		if !ok {
			removed = append(removed, FieldChange{k, o, ""})
		} else if n != o {
			changed = append(changed, FieldChange{k, o, n})
		}
	}
	for k, n := range new.Dependencies {
		if _, ok := old.Dependencies[k]; !ok && k != "minecraft" {
			added = append(added, FieldChange{k, "", n})
		}
	}
	for _, group := range [][]FieldChange{changed, added, removed} {
		slices.SortFunc(group, func(a, b FieldChange) int {
			return strings.Compare(strings.ToLower(a.Field), strings.ToLower(b.Field))
		})
		out = append(out, group...)
	}
	return out
}

type pair[T any] struct {
	old T
	new T
}

// diffKeyed classifies entries of two lists with unique keys into added, removed and changed
func diffKeyed[T any](old, new []T, key func(T) string, equal func(a, b T) bool) (added []T, removed []T, changed []pair[T]) {
	oldByKey := make(map[string]T, len(old))
	for _, v := range old {
		oldByKey[key(v)] = v
	}
	newKeys := make(map[string]bool, len(new))
	for _, v := range new {
		k := key(v)
		newKeys[k] = true
		o, ok := oldByKey[k]
		if !ok {
			added = append(added, v)
		} else if !equal(o, v) {
			changed = append(changed, pair[T]{o, v})
		}
	}
	for _, v := range old {
		if !newKeys[key(v)] {
			removed = append(removed, v)
		}
	}
	return
}

// sameContent compares the strongest hash both files have; sha1 and sha512 are required by the format
func sameContent(a, b ExternalFile) bool {
	for _, alg := range []string{"sha512", "sha1"} {
		ha, okA := a.Hashes[alg]
		hb, okB := b.Hashes[alg]
		if okA && okB {
			return ha == hb
		}
	}
	return maps.Equal(a.Hashes, b.Hashes)
}
