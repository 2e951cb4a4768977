package cmdshared

import (
	"encoding/csv"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Element is one section of a report
type Element interface {
	// Render returns the text of the element, or an empty string if there is nothing to show
	Render() string
}

// List renders lines as they are
type List []string

func (l List) Render() string {
	return strings.Join(l, "\n")
}

// Set renders a titled, case-insensitively sorted list of items; nothing if there are no items
type Set struct {
	Title string
	Items []string
}

func (s Set) Render() string {
	if len(s.Items) == 0 {
		return ""
	}
	items := slices.Clone(s.Items)
	sortFold(items)
	var b strings.Builder
	b.WriteString(s.Title + ":")
	for _, item := range items {
		b.WriteString("\n  " + item)
	}
	return b.String()
}

// Table is a report table; the first row holds the headers
type Table [][]string

func (t Table) Render() string {
	if len(t) == 0 {
		return ""
	}
	return table.New().
		Border(lipgloss.MarkdownBorder()).
		BorderTop(false).
		BorderBottom(false).
		Headers(t[0]...).
		Rows(t[1:]...).
		String()
}

// RenderCSV renders the table as comma separated values
func (t Table) RenderCSV() (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.WriteAll(t); err != nil {
		return "", err
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// IncompatibleMods summarises the mods that don't support one game version
type IncompatibleMods struct {
	NumMods     int
	GameVersion string
	Mods        []string
}

func (m IncompatibleMods) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "For version %s:\n", m.GameVersion)
	if len(m.Mods) == 0 {
		b.WriteString("  All mods are compatible with this version")
		return b.String()
	}
	mods := slices.Clone(m.Mods)
	sortFold(mods)
	fmt.Fprintf(&b, "  %d out of %d mods are incompatible with this version:", len(mods), m.NumMods)
	for _, mod := range mods {
		b.WriteString("\n    " + mod)
	}
	return b.String()
}

// Render joins the non-empty elements with blank lines
func Render(elements []Element) string {
	items := make([]string, 0, len(elements))
	for _, e := range elements {
		if s := e.Render(); s != "" {
			items = append(items, s)
		}
	}
	return strings.Join(items, "\n\n")
}

// RenderCSV renders the first table in elements as CSV; reports only have one table
func RenderCSV(elements []Element) (string, error) {
	for _, e := range elements {
		if t, ok := e.(Table); ok {
			return t.RenderCSV()
		}
	}
	return "", nil
}

func sortFold(items []string) {
	slices.SortStableFunc(items, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
}
