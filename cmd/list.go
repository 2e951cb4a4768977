package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/packwiz/mrpack-utils/cmdshared"
	"github.com/packwiz/mrpack-utils/core"
	"github.com/packwiz/mrpack-utils/modrinth"
	"github.com/packwiz/mrpack-utils/packinterop"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	headerName          = "Name"
	headerLink          = "Link"
	headerInstalled     = "Installed version"
	headerClient        = "On client"
	headerServer        = "On server"
	headerLatestVersion = "Latest game version"
	headerStatus        = "Status"
)

// metadataSource is the Modrinth data needed to build reports
type metadataSource interface {
	core.Provider
	Projects(ctx context.Context, ids []string) (map[string]modrinth.Project, error)
	Versions(ctx context.Context, ids []string) (map[string]core.Release, error)
}

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list <mrpack>",
	Short: "List the mods in a modpack, and check them for compatibility with other game versions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		return runList(cmd.Context(), cmd.OutOrStdout(), os.Stderr, listOptions{
			Path:          args[0],
			CheckVersions: cfg.List.CheckVersion,
			CSV:           cfg.List.CSV,
			Filter:        cfg.List.Filter,
			MatchLoader:   cfg.List.MatchLoader,
			Concurrency:   cfg.Check.Concurrency,
			HashFormat:    cfg.HashFormat,
		}, newModrinthClient(cfg))
	},
}

type listOptions struct {
	Path          string
	CheckVersions []string
	CSV           bool
	Filter        string
	MatchLoader   bool
	Concurrency   int
	HashFormat    string
}

// modInfo is a checked mod along with the Modrinth data used to display it
type modInfo struct {
	entry   core.ModEntry
	result  core.CompatibilityResult
	project modrinth.Project
	version core.Release
}

func (m modInfo) name() string {
	if m.project.Title != "" {
		return m.project.Title
	}
	return m.entry.ProjectID
}

// link falls back to the project ID when Modrinth returned no project data
func (m modInfo) link() string {
	p := m.project
	if p.ID == "" {
		p.ID = m.entry.ProjectID
	}
	return p.Link()
}

func (m modInfo) installedVersion() string {
	if m.version.VersionNumber != "" {
		return m.version.VersionNumber
	}
	return m.entry.VersionID
}

// env returns the sides of the mod from the index, falling back to the project defaults
func (m modInfo) env() core.Env {
	env := core.Env{Client: m.project.ClientSide, Server: m.project.ServerSide}
	if m.entry.Env != nil {
		if m.entry.Env.Client != core.RequirementUnknown {
			env.Client = m.entry.Env.Client
		}
		if m.entry.Env.Server != core.RequirementUnknown {
			env.Server = m.entry.Env.Server
		}
	}
	return env
}

func runList(ctx context.Context, out io.Writer, progressOut io.Writer, opts listOptions, source metadataSource) error {
	for _, v := range opts.CheckVersions {
		if _, err := core.ParseGameVersion(v); err != nil {
			return err
		}
	}

	logger.Info("Loading modpack...", "path", opts.Path)
	manifest, err := packinterop.LoadManifest(opts.Path, core.WithHashFormat(opts.HashFormat))
	if err != nil {
		return err
	}

	targets := dedupe(opts.CheckVersions)
	if len(targets) == 0 {
		targets = []string{manifest.GameVersion}
	}
	columns := dedupe(append(slices.Clone(targets), manifest.GameVersion))
	core.SortVersions(columns)

	checker := core.Checker{
		Provider:    source,
		Concurrency: opts.Concurrency,
		Logger:      logger,
	}
	if opts.MatchLoader {
		checker.Loaders = core.CompatibleLoaders(manifest.Loader.Family)
	}
	progress := cmdshared.NewProgress(ctx, progressOut, "Checking mods", len(manifest.Mods))
	checker.OnResult = func(int, core.CompatibilityResult) {
		progress.Increment()
	}
	logger.Debug("Checking mods", "count", len(manifest.Mods), "versions", strings.Join(targets, ", "), "loaders", strings.Join(checker.Loaders, ", "))
	results, err := checker.Check(ctx, manifest, targets)
	progress.Wait()
	if err != nil {
		return fmt.Errorf("compatibility check failed: %w", err)
	}

	projects, versions := describe(ctx, source, manifest.ProjectIDs(), manifest.VersionIDs())
	mods := make([]modInfo, len(manifest.Mods))
	for i, entry := range manifest.Mods {
		mods[i] = modInfo{
			entry:   entry,
			result:  results[i],
			project: projects[entry.ProjectID],
			version: versions[entry.VersionID],
		}
	}
	mods = filterMods(mods, opts.Filter)

	elements := buildListReport(manifest, mods, targets, columns)
	return writeReport(out, elements, opts.CSV)
}

// describe fetches display data for mods; failures only cost the report its names and version numbers
func describe(ctx context.Context, source metadataSource, projectIDs []string, versionIDs []string) (map[string]modrinth.Project, map[string]core.Release) {
	projects, err := source.Projects(ctx, projectIDs)
	if err != nil {
		logger.Warn("Failed to look up project names", "err", err)
		projects = map[string]modrinth.Project{}
	}
	versions, err := source.Versions(ctx, versionIDs)
	if err != nil {
		logger.Warn("Failed to look up installed versions", "err", err)
		versions = map[string]core.Release{}
	}
	return projects, versions
}

// filterMods keeps the mods whose name fuzzy matches the query, best matches first
func filterMods(mods []modInfo, query string) []modInfo {
	if query == "" {
		return mods
	}
	names := make([]string, len(mods))
	for i, m := range mods {
		names[i] = m.name()
	}
	matches := fuzzy.Find(query, names)
	out := make([]modInfo, 0, len(matches))
	for _, match := range matches {
		out = append(out, mods[match.Index])
	}
	return out
}

func listHeaders(columns []string) []string {
	return append([]string{headerName, headerLink, headerInstalled, headerClient, headerServer, headerLatestVersion}, append(slices.Clone(columns), headerStatus)...)
}

func emptyRow(headers []string) []string {
	return make([]string, len(headers))
}

func buildListReport(manifest *core.Manifest, mods []modInfo, targets []string, columns []string) []cmdshared.Element {
	headers := listHeaders(columns)
	rows := cmdshared.Table{headers}
	rows = append(rows, modpackRows(manifest, headers)...)

	sorted := slices.Clone(mods)
	slices.SortStableFunc(sorted, func(a, b modInfo) int {
		return strings.Compare(strings.ToLower(a.name()), strings.ToLower(b.name()))
	})
	incompatible := make(map[string][]string, len(columns))
	var incompatibleAll, unknown []string
	for _, mod := range sorted {
		env := mod.env()
		latest := "unknown"
		if v, ok := core.LatestGameVersion(mod.result.SupportedGameVersions); ok {
			latest = v.String()
		}
		row := []string{mod.name(), mod.link(), mod.installedVersion(), env.Client.String(), env.Server.String(), latest}
		for _, version := range columns {
			switch {
			case mod.result.Status == core.StatusUnknown:
				row = append(row, "unknown")
			case mod.result.SupportsGameVersion(version):
				row = append(row, "yes")
			default:
				row = append(row, "no")
				incompatible[version] = append(incompatible[version], mod.name())
			}
		}
		row = append(row, mod.result.Status.String())
		rows = append(rows, row)

		switch mod.result.Status {
		case core.StatusIncompatible:
			incompatibleAll = append(incompatibleAll, mod.name())
		case core.StatusUnknown:
			unknown = append(unknown, mod.name())
		}
	}
	rows = append(rows, unknownModRows(manifest, headers, len(columns))...)
	rows = append(rows, otherFileRows(manifest, headers)...)

	var external []string
	for _, f := range manifest.External {
		external = append(external, f.FileName())
	}

	elements := []cmdshared.Element{
		rows,
		cmdshared.Set{Title: "Mods supposed to be on Modrinth, but not found", Items: external},
		cmdshared.List{"Modpack game version: " + manifest.GameVersion},
	}
	known := len(mods) - len(unknown)
	for _, version := range columns {
		elements = append(elements, cmdshared.IncompatibleMods{
			NumMods:     known,
			GameVersion: version,
			Mods:        incompatible[version],
		})
	}
	if len(targets) > 1 {
		elements = append(elements, cmdshared.Set{
			Title: "No single release supports all of " + strings.Join(targets, ", "),
			Items: incompatibleAll,
		})
	}
	elements = append(elements, cmdshared.Set{
		Title: "Could not determine compatibility (must be checked manually)",
		Items: unknown,
	})
	return elements
}

func modpackRows(manifest *core.Manifest, headers []string) [][]string {
	row := func(name string, version string) []string {
		r := emptyRow(headers)
		r[slices.Index(headers, headerName)] = name
		r[slices.Index(headers, headerInstalled)] = version
		return r
	}
	rows := [][]string{
		row("modpack: "+manifest.Name, manifest.VersionID),
		row("minecraft", manifest.GameVersion),
	}
	deps := make([]string, 0, len(manifest.Dependencies))
	for k := range manifest.Dependencies {
		if k != "minecraft" {
			deps = append(deps, k)
		}
	}
	slices.Sort(deps)
	for _, k := range deps {
		rows = append(rows, row(k, manifest.Dependencies[k]))
	}
	return rows
}

// unknownModRows lists mod jars bundled in the overrides, which can't be checked automatically
func unknownModRows(manifest *core.Manifest, headers []string, numColumns int) [][]string {
	var rows [][]string
	for _, o := range manifest.Overrides {
		if !o.IsModJar() {
			continue
		}
		r := []string{path.Base(o.RelativePath), "unknown - probably CurseForge", shortHash(o.ContentHash), "unknown", "unknown", "unknown"}
		for range numColumns {
			r = append(r, "check manually")
		}
		r = append(r, core.StatusUnknown.String())
		rows = append(rows, r[:len(headers)])
	}
	return rows
}

func otherFileRows(manifest *core.Manifest, headers []string) [][]string {
	var rows [][]string
	for _, o := range manifest.Overrides {
		if o.IsModJar() {
			continue
		}
		r := emptyRow(headers)
		r[slices.Index(headers, headerName)] = o.Key()
		r[slices.Index(headers, headerLink)] = "non-mod file"
		r[slices.Index(headers, headerInstalled)] = shortHash(o.ContentHash)
		rows = append(rows, r)
	}
	return rows
}

func writeReport(out io.Writer, elements []cmdshared.Element, csv bool) error {
	if csv {
		text, err := cmdshared.RenderCSV(elements)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, text)
		return err
	}
	_, err := fmt.Fprintln(out, cmdshared.Render(elements))
	return err
}

// shortHash truncates a hex digest for display
func shortHash(h string) string {
	if len(h) > 16 {
		return h[:16]
	}
	return h
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringArray("check-version", nil, "Game version to check the mods against; may be specified multiple times")
	bindFlag(listCmd.Flags(), "list.check-version", "check-version")
	listCmd.Flags().Bool("csv", false, "Print the table as CSV instead of a human readable report")
	bindFlag(listCmd.Flags(), "list.csv", "csv")
	listCmd.Flags().StringP("filter", "f", "", "Only show mods whose name matches this (fuzzy) query")
	bindFlag(listCmd.Flags(), "list.filter", "filter")
	listCmd.Flags().Bool("match-loader", false, "Only count releases for the modpack's mod loader as compatible")
	bindFlag(listCmd.Flags(), "list.match-loader", "match-loader")
}
