package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/kolah/oclist/internal/listview"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	linkStyle   = lipgloss.NewStyle().Underline(true)
	mutedStyle  = lipgloss.NewStyle().Faint(true)

	tagColors = map[listview.Color]lipgloss.Color{
		listview.ColorTeal:   lipgloss.Color("6"),
		listview.ColorGreen:  lipgloss.Color("2"),
		listview.ColorRed:    lipgloss.Color("1"),
		listview.ColorYellow: lipgloss.Color("3"),
	}
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// renderCell draws tags as coloured labels and links underlined. Without a
// colour-capable terminal only the text remains.
func renderCell(c listview.Cell) string {
	switch {
	case len(c.Tags) > 0:
		parts := make([]string, len(c.Tags))
		for i, tag := range c.Tags {
			parts[i] = lipgloss.NewStyle().Foreground(tagColors[tag.Color]).Render(tag.Text)
		}
		return strings.Join(parts, " ")
	case c.Link != "":
		return linkStyle.Render(c.Text)
	default:
		return c.Text
	}
}

func muted(s string) string {
	return mutedStyle.Render(s)
}
