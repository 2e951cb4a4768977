package core

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ArchiveReader is the read-only view of an mrpack archive needed to parse it
type ArchiveReader interface {
	// ListEntries returns the forward slash paths of all entries in the archive
	ListEntries() []string
	Read(path string) ([]byte, error)
}

// Version/project IDs are base62: [a-zA-Z0-9]+
var cdnURLRegex = regexp.MustCompile("^https?://cdn\\.modrinth\\.com/data/(?P<projectID>[a-zA-Z0-9]+)/versions/(?P<versionID>[a-zA-Z0-9]+)/(?P<filename>[^/]+)$")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names rather than Go ones
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type parseOptions struct {
	hashFormat string
}

// ParseOption configures ParseManifest
type ParseOption func(*parseOptions)

// WithHashFormat sets the algorithm used to hash override contents (sha512 by default)
func WithHashFormat(format string) ParseOption {
	return func(o *parseOptions) {
		o.hashFormat = format
	}
}

// ParseManifest parses the index of an mrpack, and hashes the override files found in source.
// source may be nil, in which case the manifest has no overrides.
func ParseManifest(indexData []byte, source ArchiveReader, opts ...ParseOption) (*Manifest, error) {
	options := parseOptions{hashFormat: DefaultHashFormat}
	for _, opt := range opts {
		opt(&options)
	}
	if _, err := GetHashImpl(options.hashFormat); err != nil {
		return nil, fmt.Errorf("invalid hash format %q: %w", options.hashFormat, err)
	}

	var index indexPack
	if err := decodeIndex(indexData, &index); err != nil {
		return nil, err
	}

	manifest := &Manifest{
		FormatVersion: *index.FormatVersion,
		Game:          index.Game,
		Name:          index.Name,
		VersionID:     index.VersionID,
		Summary:       index.Summary,
		GameVersion:   index.Dependencies["minecraft"],
		Loader:        index.loader(),
		Dependencies:  index.Dependencies,
		Mods:          make([]ModEntry, 0, len(index.Files)),
		HashFormat:    options.hashFormat,
	}

	seenPaths := make(map[string]bool, len(index.Files))
	for i, file := range index.Files {
		if !isSafePath(file.Path) {
			return nil, &MalformedManifestError{
				Field:  fmt.Sprintf("files[%d].path", i),
				Reason: fmt.Sprintf("%q is outside the pack", file.Path),
			}
		}
		// mods/a.jar and mods/./a.jar are installed to the same place
		filePath := path.Clean(file.Path)
		if seenPaths[filePath] {
			return nil, &DuplicateEntryError{Path: filePath}
		}
		seenPaths[filePath] = true

		projectID, versionID, ok := findModrinthIDs(file.Downloads)
		if !ok {
			manifest.External = append(manifest.External, ExternalFile{
				Path:      filePath,
				Env:       file.Env.toEnv(),
				Hashes:    file.Hashes,
				Downloads: file.Downloads,
			})
			continue
		}
		env := file.Env.toEnv()
		manifest.Mods = append(manifest.Mods, ModEntry{
			ProjectID: projectID,
			VersionID: versionID,
			FilePath:  filePath,
			Required:  isRequired(env),
			Env:       env,
			Hashes:    file.Hashes,
			FileSize:  file.FileSize,
			Downloads: file.Downloads,
		})
	}

	if source != nil {
		overrides, err := readOverrides(source, options.hashFormat)
		if err != nil {
			return nil, err
		}
		manifest.Overrides = overrides
	}
	return manifest, nil
}

func decodeIndex(data []byte, index *indexPack) error {
	if err := json.Unmarshal(data, index); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &MalformedManifestError{
				Field:  typeErr.Field,
				Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
			}
		}
		return &MalformedManifestError{Err: err}
	}

	if err := validate.Struct(index); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			fieldErr := validationErrs[0]
			reason := fieldErr.Tag()
			if fieldErr.Param() != "" {
				reason += "=" + fieldErr.Param()
			}
			return &MalformedManifestError{Field: trimNamespace(fieldErr.Namespace()), Reason: reason}
		}
		// validator.InvalidValidationError only happens for non-struct input
		return &MalformedManifestError{Err: err}
	}

	if *index.FormatVersion != 1 {
		return &MalformedManifestError{
			Field:  "formatVersion",
			Reason: fmt.Sprintf("unsupported format version %d", *index.FormatVersion),
		}
	}
	if index.Dependencies["minecraft"] == "" {
		return &MalformedManifestError{Field: "dependencies.minecraft", Reason: "required"}
	}
	return nil
}

// trimNamespace removes the root struct name from a validator namespace, e.g. indexPack.files[0].path
func trimNamespace(ns string) string {
	_, field, found := strings.Cut(ns, ".")
	if !found {
		return ns
	}
	return field
}

func isSafePath(p string) bool {
	if p == "" || path.IsAbs(p) || strings.Contains(p, "\\") {
		return false
	}
	cleaned := path.Clean(p)
	return cleaned != ".." && !strings.HasPrefix(cleaned, "../")
}

func findModrinthIDs(downloads []string) (projectID string, versionID string, ok bool) {
	for _, u := range downloads {
		matches := cdnURLRegex.FindStringSubmatch(u)
		if matches != nil {
			return matches[cdnURLRegex.SubexpIndex("projectID")], matches[cdnURLRegex.SubexpIndex("versionID")], true
		}
	}
	return "", "", false
}

// isRequired returns false only for files that are optional on some side and required on none
func isRequired(env *Env) bool {
	if env == nil {
		return true
	}
	if env.Client == RequirementRequired || env.Server == RequirementRequired {
		return true
	}
	return env.Client != RequirementOptional && env.Server != RequirementOptional
}

func readOverrides(source ArchiveReader, hashFormat string) ([]OverrideFile, error) {
	var overrides []OverrideFile
	seen := make(map[string]bool)
	for _, entry := range source.ListEntries() {
		// Ignore directories
		if strings.HasSuffix(entry, "/") || entry == IndexFileName {
			continue
		}
		for _, root := range overrideRoots {
			relPath, found := strings.CutPrefix(entry, root.Prefix)
			if !found {
				continue
			}
			if relPath == "" {
				break
			}
			if !isSafePath(relPath) {
				return nil, &MalformedManifestError{Field: entry, Reason: "override is outside the pack"}
			}
			relPath = path.Clean(relPath)
			if relPath == "." {
				break
			}
			override := OverrideFile{RelativePath: relPath, Scope: root.Scope}
			if seen[override.Key()] {
				return nil, &DuplicateEntryError{Path: relPath, Scope: root.Scope}
			}
			seen[override.Key()] = true

			data, err := source.Read(entry)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", entry, err)
			}
			override.ContentHash, err = HashBytes(hashFormat, data)
			if err != nil {
				return nil, err
			}
			overrides = append(overrides, override)
			break
		}
	}

	slices.SortStableFunc(overrides, func(a, b OverrideFile) int {
		if c := cmp.Compare(a.Scope.order(), b.Scope.order()); c != 0 {
			return c
		}
		return strings.Compare(a.RelativePath, b.RelativePath)
	})
	return overrides, nil
}
