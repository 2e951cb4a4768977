package cmd

import (
	"context"
	"io"
	"slices"
	"strings"

	"github.com/packwiz/mrpack-utils/cmdshared"
	"github.com/packwiz/mrpack-utils/core"
	"github.com/packwiz/mrpack-utils/modrinth"
	"github.com/packwiz/mrpack-utils/packinterop"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// diffCmd represents the diff command
var diffCmd = &cobra.Command{
	Use:   "diff <old mrpack> <new mrpack>",
	Short: "Show the mods, dependencies and files that changed between two versions of a modpack",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		return runDiff(cmd.Context(), cmd.OutOrStdout(), diffOptions{
			OldPath:    args[0],
			NewPath:    args[1],
			CSV:        cfg.Diff.CSV,
			Ignore:     cfg.Diff.Ignore,
			HashFormat: cfg.HashFormat,
		}, newModrinthClient(cfg))
	},
}

type diffOptions struct {
	OldPath    string
	NewPath    string
	CSV        bool
	Ignore     []string
	HashFormat string
}

// displayNames turns project and version IDs into titles and version numbers where Modrinth knows them
type displayNames struct {
	projects map[string]modrinth.Project
	versions map[string]core.Release
}

func (d displayNames) mod(m core.ModEntry) string {
	if p, ok := d.projects[m.ProjectID]; ok && p.Title != "" {
		return p.Title
	}
	return m.ProjectID
}

func (d displayNames) version(m core.ModEntry) string {
	if v, ok := d.versions[m.VersionID]; ok && v.VersionNumber != "" {
		return v.VersionNumber
	}
	return m.VersionID
}

func runDiff(ctx context.Context, out io.Writer, opts diffOptions, source metadataSource) error {
	logger.Info("Loading modpacks...", "old", opts.OldPath, "new", opts.NewPath)
	oldManifest, err := packinterop.LoadManifest(opts.OldPath, core.WithHashFormat(opts.HashFormat))
	if err != nil {
		return err
	}
	newManifest, err := packinterop.LoadManifest(opts.NewPath, core.WithHashFormat(opts.HashFormat))
	if err != nil {
		return err
	}

	if len(opts.Ignore) > 0 {
		matcher := ignore.CompileIgnoreLines(opts.Ignore...)
		excluded := func(o core.OverrideFile) bool {
			return matcher.MatchesPath(o.RelativePath)
		}
		oldManifest = oldManifest.WithoutOverrides(excluded)
		newManifest = newManifest.WithoutOverrides(excluded)
	}

	result, err := core.Diff(oldManifest, newManifest)
	if err != nil {
		return err
	}
	if result.IsEmpty() {
		logger.Info("The modpacks are identical")
	}

	projectIDs, versionIDs := changedIDs(result)
	projects, versions := describe(ctx, source, projectIDs, versionIDs)
	elements := buildDiffReport(result, displayNames{projects, versions}, oldManifest, newManifest)
	return writeReport(out, elements, opts.CSV)
}

// changedIDs returns the project and version IDs that appear in the diff, so only those are looked up
func changedIDs(result *core.DiffResult) ([]string, []string) {
	var projects, versions []string
	add := func(m core.ModEntry) {
		projects = append(projects, m.ProjectID)
		versions = append(versions, m.VersionID)
	}
	for _, c := range result.ChangedMods {
		add(c.Old)
		add(c.New)
	}
	for _, m := range result.AddedMods {
		add(m)
	}
	for _, m := range result.RemovedMods {
		add(m)
	}
	return dedupe(projects), dedupe(versions)
}

func buildDiffReport(result *core.DiffResult, names displayNames, oldManifest, newManifest *core.Manifest) []cmdshared.Element {
	rows := cmdshared.Table{{"Name", "Old", "New"}}
	for _, c := range result.PackChanges {
		rows = append(rows, []string{c.Field, c.Old, c.New})
	}

	var modRows [][]string
	for _, c := range result.ChangedMods {
		modRows = append(modRows, []string{names.mod(c.New), names.version(c.Old), names.version(c.New)})
	}
	rows = append(rows, sortRows(modRows)...)
	modRows = nil
	for _, m := range result.AddedMods {
		modRows = append(modRows, []string{names.mod(m), "", names.version(m)})
	}
	rows = append(rows, sortRows(modRows)...)
	modRows = nil
	for _, m := range result.RemovedMods {
		modRows = append(modRows, []string{names.mod(m), names.version(m), ""})
	}
	rows = append(rows, sortRows(modRows)...)

	// Vendored jars come before other override files, as in list
	var jars, files [][]string
	appendOverride := func(o core.OverrideFile, oldHash, newHash string) {
		if o.IsModJar() {
			jars = append(jars, []string{o.Key(), shortHash(oldHash), shortHash(newHash)})
		} else {
			files = append(files, []string{o.Key(), shortHash(oldHash), shortHash(newHash)})
		}
	}
	for _, c := range result.ChangedOverrides {
		appendOverride(c.New, c.Old.ContentHash, c.New.ContentHash)
	}
	for _, o := range result.AddedOverrides {
		appendOverride(o, "", o.ContentHash)
	}
	for _, o := range result.RemovedOverrides {
		appendOverride(o, o.ContentHash, "")
	}
	rows = append(rows, jars...)
	rows = append(rows, files...)

	for _, c := range result.ChangedExternal {
		rows = append(rows, []string{c.New.Path, shortHash(c.Old.Hash()), shortHash(c.New.Hash())})
	}
	for _, f := range result.AddedExternal {
		rows = append(rows, []string{f.Path, "", shortHash(f.Hash())})
	}
	for _, f := range result.RemovedExternal {
		rows = append(rows, []string{f.Path, shortHash(f.Hash()), ""})
	}

	var missing []string
	for _, m := range []*core.Manifest{oldManifest, newManifest} {
		for _, f := range m.External {
			missing = append(missing, f.FileName())
		}
	}

	return []cmdshared.Element{
		rows,
		cmdshared.Set{Title: "Mods supposed to be on Modrinth, but not found", Items: dedupe(missing)},
	}
}

// sortRows orders report rows case-insensitively by their first column
func sortRows(rows [][]string) [][]string {
	slices.SortStableFunc(rows, func(a, b []string) int {
		return strings.Compare(strings.ToLower(a[0]), strings.ToLower(b[0]))
	})
	return rows
}

func init() {
	rootCmd.AddCommand(diffCmd)

	diffCmd.Flags().Bool("csv", false, "Print the table as CSV instead of a human readable report")
	bindFlag(diffCmd.Flags(), "diff.csv", "csv")
	diffCmd.Flags().StringArray("ignore", nil, "Override paths to leave out of the comparison, in .gitignore syntax; may be specified multiple times")
	bindFlag(diffCmd.Flags(), "diff.ignore", "ignore")
}
