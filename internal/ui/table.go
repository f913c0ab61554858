package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	tableHeaderStyle = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	tableMutedStyle  = tableCellStyle.Foreground(MutedColor)
)

// RenderTable renders rows under headers in a rounded table. Rows for which
// muted returns true are dimmed; muted may be nil.
func RenderTable(headers []string, rows [][]string, muted func(row int) bool) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(PrimaryColor)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case muted != nil && muted(row):
				return tableMutedStyle
			default:
				return tableCellStyle
			}
		})
	return t.String()
}
