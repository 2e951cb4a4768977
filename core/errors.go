package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedManifest is matched by errors for structurally invalid index files
	ErrMalformedManifest = errors.New("malformed manifest")
	// ErrDuplicateEntry is matched by errors for two files claiming the same path
	ErrDuplicateEntry = errors.New("duplicate entry")
	// ErrAmbiguousDiff is matched by errors for manifests that can't be diffed by project
	ErrAmbiguousDiff = errors.New("ambiguous diff")
	// ErrNoTargetVersions is returned when a compatibility check is requested without game versions
	ErrNoTargetVersions = errors.New("no target game versions given")
)

// MalformedManifestError describes why an index file was rejected
type MalformedManifestError struct {
	// Field is the JSON path of the offending value, or the archive entry for overrides.
	// It is empty if the document itself is invalid.
	Field  string
	Reason string
	Err    error
}

func (e *MalformedManifestError) Error() string {
	msg := "malformed " + IndexFileName
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedManifestError) Is(target error) bool {
	return target == ErrMalformedManifest
}

func (e *MalformedManifestError) Unwrap() error {
	return e.Err
}

// DuplicateEntryError is returned when two index files share a path, or two overrides share a path and scope
type DuplicateEntryError struct {
	Path string
	// Scope is empty for index files
	Scope OverrideScope
}

func (e *DuplicateEntryError) Error() string {
	if e.Scope != "" {
		return fmt.Sprintf("duplicate %s override %s", e.Scope, e.Path)
	}
	return "duplicate file " + e.Path + " in " + IndexFileName
}

func (e *DuplicateEntryError) Is(target error) bool {
	return target == ErrDuplicateEntry
}

// AmbiguousDiffError is returned when a project appears more than once in one of the diffed manifests
type AmbiguousDiffError struct {
	ProjectID string
	// Side is "old" or "new"
	Side  string
	Paths []string
}

func (e *AmbiguousDiffError) Error() string {
	return fmt.Sprintf("project %s appears more than once in the %s modpack (%s)", e.ProjectID, e.Side, strings.Join(e.Paths, ", "))
}

func (e *AmbiguousDiffError) Is(target error) bool {
	return target == ErrAmbiguousDiff
}
