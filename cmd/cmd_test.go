package cmd

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/packwiz/mrpack-utils/core"
	"github.com/packwiz/mrpack-utils/modrinth"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeModrinth serves canned metadata; projects without releases fail like an unreachable API
type fakeModrinth struct {
	releases map[string][]core.Release
	projects map[string]modrinth.Project
	versions map[string]core.Release
	// failLookups makes Projects and Versions fail
	failLookups bool
}

func (f *fakeModrinth) Releases(_ context.Context, projectID string) ([]core.Release, error) {
	r, ok := f.releases[projectID]
	if !ok {
		return nil, errors.New("connection reset")
	}
	return r, nil
}

func (f *fakeModrinth) Projects(_ context.Context, ids []string) (map[string]modrinth.Project, error) {
	if f.failLookups {
		return nil, errors.New("rate limited")
	}
	out := make(map[string]modrinth.Project)
	for _, id := range ids {
		if p, ok := f.projects[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeModrinth) Versions(_ context.Context, ids []string) (map[string]core.Release, error) {
	if f.failLookups {
		return nil, errors.New("rate limited")
	}
	out := make(map[string]core.Release)
	for _, id := range ids {
		if v, ok := f.versions[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func newFakeModrinth() *fakeModrinth {
	return &fakeModrinth{
		releases: map[string][]core.Release{
			"AAAA": {
				{VersionID: "a2", VersionNumber: "1.1", GameVersions: []string{"1.20.1", "1.20.4"}, Loaders: []string{"fabric"}},
				{VersionID: "a1", VersionNumber: "1.0", GameVersions: []string{"1.20.1"}, Loaders: []string{"fabric"}},
			},
			"BBBB": {
				{VersionID: "b1", VersionNumber: "2.0", GameVersions: []string{"1.20", "1.20.1"}, Loaders: []string{"fabric"}},
			},
			"GGGG": {
				{VersionID: "g1", VersionNumber: "3.0", GameVersions: []string{"1.20.4"}, Loaders: []string{"forge"}},
			},
		},
		projects: map[string]modrinth.Project{
			"AAAA": {ID: "AAAA", Slug: "alpha", Title: "Alpha", ClientSide: core.RequirementRequired, ServerSide: core.RequirementRequired},
			"BBBB": {ID: "BBBB", Slug: "beta", Title: "Beta", ClientSide: core.RequirementRequired, ServerSide: core.RequirementOptional},
			"GGGG": {ID: "GGGG", Slug: "gamma", Title: "Gamma"},
		},
		versions: map[string]core.Release{
			"a1": {VersionID: "a1", VersionNumber: "1.0"},
			"a2": {VersionID: "a2", VersionNumber: "1.1"},
			"b1": {VersionID: "b1", VersionNumber: "2.0"},
			"g1": {VersionID: "g1", VersionNumber: "3.0"},
		},
	}
}

type testMod struct {
	project, version, path string
}

func packIndex(versionID string, mods []testMod, external ...string) string {
	var files []string
	for _, m := range mods {
		files = append(files, fmt.Sprintf(`{"path": %q, "hashes": {"sha1": "x", "sha512": "y"}, "downloads": ["https://cdn.modrinth.com/data/%s/versions/%s/file.jar"], "fileSize": 1}`,
			m.path, m.project, m.version))
	}
	for _, p := range external {
		files = append(files, fmt.Sprintf(`{"path": %q, "hashes": {"sha1": "x", "sha512": "ext-%s"}, "downloads": ["https://example.com/file.jar"], "fileSize": 1}`, p, versionID))
	}
	return fmt.Sprintf(`{
		"formatVersion": 1,
		"game": "minecraft",
		"versionId": %q,
		"name": "Test",
		"files": [%s],
		"dependencies": {"minecraft": "1.20.1", "fabric-loader": "0.16.5"}
	}`, versionID, strings.Join(files, ","))
}

func writePack(t *testing.T, index string, overrides map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	files := map[string]string{core.IndexFileName: index}
	for k, v := range overrides {
		files[k] = v
	}
	for name, contents := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(contents))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	p := filepath.Join(t.TempDir(), "pack.mrpack")
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))
	return p
}

func listPack(t *testing.T) string {
	return writePack(t, packIndex("1.0.0", []testMod{
		{"AAAA", "a1", "mods/alpha.jar"},
		{"BBBB", "b1", "mods/beta.jar"},
		{"CCCC", "c1", "mods/charlie.jar"},
	}, "mods/private.jar"), map[string]string{
		"overrides/mods/vendored.jar": "jar",
		"overrides/config/x.json":     "{}",
	})
}

func TestListCSV(t *testing.T) {
	var out bytes.Buffer
	err := runList(context.Background(), &out, &bytes.Buffer{}, listOptions{
		Path:          listPack(t),
		CheckVersions: []string{"1.20.4"},
		CSV:           true,
		HashFormat:    core.DefaultHashFormat,
	}, newFakeModrinth())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, "Name,Link,Installed version,On client,On server,Latest game version,1.20.1,1.20.4,Status", lines[0])
	assert.Equal(t, "modpack: Test,,1.0.0,,,,,,", lines[1])
	assert.Equal(t, "minecraft,,1.20.1,,,,,,", lines[2])
	assert.Equal(t, "fabric-loader,,0.16.5,,,,,,", lines[3])
	assert.Equal(t, "Alpha,https://modrinth.com/mod/alpha,1.0,required,required,1.20.4,yes,yes,compatible", lines[4])
	assert.Equal(t, "Beta,https://modrinth.com/mod/beta,2.0,required,optional,1.20.1,yes,no,incompatible", lines[5])
	assert.Equal(t, "CCCC,https://modrinth.com/mod/CCCC,c1,unknown,unknown,unknown,unknown,unknown,unknown", lines[6])
	assert.True(t, strings.HasPrefix(lines[7], "vendored.jar,unknown - probably CurseForge,"), lines[7])
	assert.True(t, strings.HasSuffix(lines[7], ",unknown,unknown,unknown,check manually,check manually,unknown"), lines[7])
	assert.True(t, strings.HasPrefix(lines[8], "global:config/x.json,non-mod file,"), lines[8])
	assert.Len(t, lines, 9)
}

func TestListReport(t *testing.T) {
	var out bytes.Buffer
	err := runList(context.Background(), &out, &bytes.Buffer{}, listOptions{
		Path:          listPack(t),
		CheckVersions: []string{"1.20.4", "1.20.1"},
		HashFormat:    core.DefaultHashFormat,
	}, newFakeModrinth())
	require.NoError(t, err)

	report := out.String()
	assert.Contains(t, report, "Mods supposed to be on Modrinth, but not found:\n  private.jar")
	assert.Contains(t, report, "Modpack game version: 1.20.1")
	assert.Contains(t, report, "For version 1.20.1:\n  All mods are compatible with this version")
	assert.Contains(t, report, "For version 1.20.4:\n  1 out of 2 mods are incompatible with this version:\n    Beta")
	assert.Contains(t, report, "No single release supports all of 1.20.4, 1.20.1:\n  Beta")
	assert.Contains(t, report, "Could not determine compatibility (must be checked manually):\n  CCCC")
}

func TestListDefaultsToPackVersion(t *testing.T) {
	var out bytes.Buffer
	err := runList(context.Background(), &out, &bytes.Buffer{}, listOptions{
		Path:       listPack(t),
		CSV:        true,
		HashFormat: core.DefaultHashFormat,
	}, newFakeModrinth())
	require.NoError(t, err)
	header, _, _ := strings.Cut(out.String(), "\n")
	assert.Equal(t, "Name,Link,Installed version,On client,On server,Latest game version,1.20.1,Status", header)
}

func TestListFilter(t *testing.T) {
	var out bytes.Buffer
	err := runList(context.Background(), &out, &bytes.Buffer{}, listOptions{
		Path:       listPack(t),
		CSV:        true,
		Filter:     "alp",
		HashFormat: core.DefaultHashFormat,
	}, newFakeModrinth())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "\nAlpha,")
	assert.NotContains(t, out.String(), "\nBeta,")
	assert.NotContains(t, out.String(), "\nCCCC,")
}

func TestListMatchLoader(t *testing.T) {
	path := writePack(t, packIndex("1.0.0", []testMod{{"GGGG", "g1", "mods/gamma.jar"}}), nil)
	var out bytes.Buffer
	err := runList(context.Background(), &out, &bytes.Buffer{}, listOptions{
		Path:          path,
		CheckVersions: []string{"1.20.4"},
		CSV:           true,
		MatchLoader:   true,
		HashFormat:    core.DefaultHashFormat,
	}, newFakeModrinth())
	require.NoError(t, err)
	// The only release is for forge, and the pack uses fabric
	assert.Contains(t, out.String(), "\nGamma,https://modrinth.com/mod/gamma,3.0,unknown,unknown,unknown,no,no,incompatible")
}

func TestListLookupFailureFallsBackToIDs(t *testing.T) {
	source := newFakeModrinth()
	source.failLookups = true
	var out bytes.Buffer
	err := runList(context.Background(), &out, &bytes.Buffer{}, listOptions{
		Path:       listPack(t),
		CSV:        true,
		HashFormat: core.DefaultHashFormat,
	}, source)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "\nAAAA,https://modrinth.com/mod/AAAA,a1,")
}

func TestListInvalidCheckVersion(t *testing.T) {
	err := runList(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, listOptions{
		Path:          listPack(t),
		CheckVersions: []string{"1.21-pre1"},
		HashFormat:    core.DefaultHashFormat,
	}, newFakeModrinth())
	assert.ErrorContains(t, err, "1.21-pre1")
}

func TestListMalformedPack(t *testing.T) {
	path := writePack(t, `{"formatVersion": 1, "game": "minecraft"}`, nil)
	err := runList(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, listOptions{
		Path:       path,
		HashFormat: core.DefaultHashFormat,
	}, newFakeModrinth())
	assert.ErrorIs(t, err, core.ErrMalformedManifest)
}

func TestListCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := runList(ctx, &bytes.Buffer{}, &bytes.Buffer{}, listOptions{
		Path:       listPack(t),
		HashFormat: core.DefaultHashFormat,
	}, newFakeModrinth())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiffCSV(t *testing.T) {
	oldPath := writePack(t, packIndex("1.0.0", []testMod{
		{"AAAA", "a1", "mods/alpha.jar"},
		{"BBBB", "b1", "mods/beta.jar"},
	}), map[string]string{
		"overrides/config/x.json":       "{}",
		"overrides/config/ignored.json": "1",
		"overrides/config/same.json":    "same",
	})
	newPath := writePack(t, packIndex("1.1.0", []testMod{
		{"AAAA", "a2", "mods/alpha.jar"},
		{"GGGG", "g1", "mods/gamma.jar"},
	}), map[string]string{
		"overrides/config/x.json":       `{"changed": true}`,
		"overrides/config/ignored.json": "2",
		"overrides/config/same.json":    "same",
		"overrides/mods/vendored.jar":   "jar",
	})

	var out bytes.Buffer
	err := runDiff(context.Background(), &out, diffOptions{
		OldPath:    oldPath,
		NewPath:    newPath,
		CSV:        true,
		Ignore:     []string{"ignored.json"},
		HashFormat: core.DefaultHashFormat,
	}, newFakeModrinth())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "Name,Old,New", lines[0])
	assert.Equal(t, "modpack version,1.0.0,1.1.0", lines[1])
	assert.Equal(t, "Alpha,1.0,1.1", lines[2])
	assert.Equal(t, "Gamma,,3.0", lines[3])
	assert.Equal(t, "Beta,2.0,", lines[4])
	assert.True(t, strings.HasPrefix(lines[5], "global:mods/vendored.jar,,"), lines[5])
	assert.True(t, strings.HasPrefix(lines[6], "global:config/x.json,"), lines[6])
	assert.NotContains(t, out.String(), "ignored.json")
	assert.NotContains(t, out.String(), "same.json")
}

func TestDiffReportsExternalFiles(t *testing.T) {
	oldPath := writePack(t, packIndex("1.0.0", nil, "mods/private.jar"), nil)
	newPath := writePack(t, packIndex("1.1.0", nil, "mods/private.jar"), nil)

	var out bytes.Buffer
	err := runDiff(context.Background(), &out, diffOptions{
		OldPath:    oldPath,
		NewPath:    newPath,
		HashFormat: core.DefaultHashFormat,
	}, newFakeModrinth())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "mods/private.jar")
	assert.Contains(t, out.String(), "Mods supposed to be on Modrinth, but not found:\n  private.jar")
}

func TestDiffIdenticalPacks(t *testing.T) {
	path := listPack(t)
	var out bytes.Buffer
	err := runDiff(context.Background(), &out, diffOptions{
		OldPath:    path,
		NewPath:    path,
		CSV:        true,
		HashFormat: core.DefaultHashFormat,
	}, newFakeModrinth())
	require.NoError(t, err)
	assert.Equal(t, "Name,Old,New", strings.TrimSpace(out.String()))
}

func TestDiffAmbiguous(t *testing.T) {
	oldPath := writePack(t, packIndex("1.0.0", []testMod{
		{"AAAA", "a1", "mods/alpha.jar"},
		{"AAAA", "a1", "mods/alpha-copy.jar"},
	}), nil)
	newPath := listPack(t)
	err := runDiff(context.Background(), &bytes.Buffer{}, diffOptions{
		OldPath:    oldPath,
		NewPath:    newPath,
		HashFormat: core.DefaultHashFormat,
	}, newFakeModrinth())
	assert.ErrorIs(t, err, core.ErrAmbiguousDiff)
}

func TestLoadConfig(t *testing.T) {
	v := viper.New()
	v.SetDefault("hash-format", "sha1")
	v.SetDefault("check.concurrency", 4)
	v.Set("modrinth.timeout", "30s")
	v.Set("list.check-version", "1.20,1.20.1")
	v.Set("diff.ignore", []string{"*.log"})

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "sha1", cfg.HashFormat)
	assert.Equal(t, 4, cfg.Check.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Modrinth.Timeout)
	assert.Equal(t, []string{"1.20", "1.20.1"}, cfg.List.CheckVersion)
	assert.Equal(t, []string{"*.log"}, cfg.Diff.Ignore)
}

func TestLoadConfigInvalid(t *testing.T) {
	v := viper.New()
	v.Set("hash-format", "sha512")
	v.Set("check.concurrency", 0)
	_, err := loadConfig(v)
	assert.ErrorContains(t, err, "concurrency")

	v.Set("check.concurrency", 2)
	v.Set("hash-format", "crc32")
	_, err = loadConfig(v)
	assert.ErrorIs(t, err, core.ErrUnknownHashFormat)
}

func TestLogLevelFromConfig(t *testing.T) {
	v := viper.New()
	v.Set("hash-format", "sha512")
	v.Set("check.concurrency", 1)
	v.Set("log.level", "warn")
	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, log.WarnLevel, logLevel(cfg))

	v.Set("verbose", true)
	cfg, err = loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, logLevel(cfg))

	assert.Equal(t, log.InfoLevel, logLevel(Config{Log: defaultConfig.Log}))
	assert.Equal(t, log.InfoLevel, logLevel(Config{}))
}
