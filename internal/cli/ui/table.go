package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/rodaine/table"
)

// NewTable creates a table writing to w with the CLI's styling.
func NewTable(w io.Writer, headers ...any) table.Table {
	tbl := table.New(headers...).WithWriter(w)

	// Only the first column (the identifier) is bold.
	tbl.WithFirstColumnFormatter(func(format string, vals ...any) string {
		return BoldStyle.Render(fmt.Sprintf(format, vals...))
	})
	tbl.WithPadding(2)

	// lipgloss.Width ignores ANSI codes when measuring.
	tbl.WithWidthFunc(lipgloss.Width)

	return tbl
}
