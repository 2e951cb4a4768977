package core

import (
	"path"
	"strings"
)

// IndexFileName is the name of the index file at the root of every mrpack
const IndexFileName = "modrinth.index.json"

// OverrideScope is the side an override file is installed on
type OverrideScope string

// The three override roots of an mrpack; client and server overrides are applied after global ones.
const (
	GlobalScope OverrideScope = "global"
	ClientScope OverrideScope = "client"
	ServerScope OverrideScope = "server"
)

// overrideRoots maps archive folder prefixes to the scope of the files inside them
var overrideRoots = []struct {
	Prefix string
	Scope  OverrideScope
}{
	{"overrides/", GlobalScope},
	{"client-overrides/", ClientScope},
	{"server-overrides/", ServerScope},
}

func (s OverrideScope) order() int {
	switch s {
	case GlobalScope:
		return 0
	case ClientScope:
		return 1
	case ServerScope:
		return 2
	}
	return 3
}

// Requirement is the value of one side of a file's env in the index
type Requirement string

const (
	RequirementUnknown     Requirement = ""
	RequirementRequired    Requirement = "required"
	RequirementOptional    Requirement = "optional"
	RequirementUnsupported Requirement = "unsupported"
)

// String returns the lowercase name used in reports
func (r Requirement) String() string {
	if r == RequirementUnknown {
		return "unknown"
	}
	return string(r)
}

// Env stores on which sides a file is installed
type Env struct {
	Client Requirement
	Server Requirement
}

// ModLoader is the loader dependency of a pack, e.g. fabric 0.16.5
type ModLoader struct {
	Family  string
	Version string
}

func (l ModLoader) String() string {
	if l.Family == "" {
		return ""
	}
	return l.Family + " " + l.Version
}

// ModEntry is a mod file in the index that is hosted on Modrinth
type ModEntry struct {
	ProjectID string
	VersionID string
	// FilePath is stored in forward slash format relative to the pack root
	FilePath  string
	Required  bool
	Env       *Env
	Hashes    map[string]string
	FileSize  uint32
	Downloads []string
}

// OverrideFile is a file bundled in one of the overrides folders of the pack
type OverrideFile struct {
	RelativePath string
	ContentHash  string
	Scope        OverrideScope
}

// IsModJar returns true if the override is a mod vendored into the pack rather than referenced from Modrinth
func (o OverrideFile) IsModJar() bool {
	return strings.HasSuffix(o.RelativePath, ".jar") && path.Dir(o.RelativePath) == "mods"
}

// Key returns the scope-qualified path of the override, e.g. client:config/foo.json
func (o OverrideFile) Key() string {
	return string(o.Scope) + ":" + o.RelativePath
}

// ExternalFile is an index entry that can't be traced back to a Modrinth project
type ExternalFile struct {
	Path      string
	Env       *Env
	Hashes    map[string]string
	Downloads []string
}

// FileName returns the last path element of the file, as shown in reports
func (f ExternalFile) FileName() string {
	return path.Base(f.Path)
}

// Hash returns the sha512 of the file, or its sha1 if the index has no sha512
func (f ExternalFile) Hash() string {
	if h, ok := f.Hashes["sha512"]; ok {
		return h
	}
	return f.Hashes["sha1"]
}

// Manifest is the parsed contents of an mrpack. It is never modified after parsing.
type Manifest struct {
	FormatVersion uint32
	Game          string
	Name          string
	VersionID     string
	Summary       string
	GameVersion   string
	Loader        ModLoader
	Dependencies  map[string]string
	Mods          []ModEntry
	Overrides     []OverrideFile
	External      []ExternalFile
	// HashFormat is the algorithm used for OverrideFile.ContentHash
	HashFormat string
}

// ProjectIDs returns the project IDs of all mods, in index order and without duplicates
func (m *Manifest) ProjectIDs() []string {
	seen := make(map[string]bool, len(m.Mods))
	ids := make([]string, 0, len(m.Mods))
	for _, mod := range m.Mods {
		if !seen[mod.ProjectID] {
			seen[mod.ProjectID] = true
			ids = append(ids, mod.ProjectID)
		}
	}
	return ids
}

// VersionIDs returns the pinned version IDs of all mods, in index order
func (m *Manifest) VersionIDs() []string {
	ids := make([]string, 0, len(m.Mods))
	for _, mod := range m.Mods {
		ids = append(ids, mod.VersionID)
	}
	return ids
}

// WithoutOverrides returns a copy of the manifest without the overrides for which exclude returns true
func (m *Manifest) WithoutOverrides(exclude func(OverrideFile) bool) *Manifest {
	out := *m
	out.Overrides = make([]OverrideFile, 0, len(m.Overrides))
	for _, o := range m.Overrides {
		if !exclude(o) {
			out.Overrides = append(out.Overrides, o)
		}
	}
	return &out
}
