package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Tabular is implemented by results that can be printed as a table.
type Tabular interface {
	// Title is printed above the table; empty for none.
	Title() string
	Header() []string
	Rows() [][]string
}

func outputTable(w io.Writer, result any) error {
	t, ok := result.(Tabular)
	if !ok {
		return fmt.Errorf("table output is not supported for %T", result)
	}

	s := NewStyles(DefaultTheme, w)
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		Headers(t.Header()...).
		Rows(t.Rows()...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Header
			}
			return s.Cell
		})

	if title := t.Title(); title != "" {
		if _, err := fmt.Fprintln(w, s.Title.Render(title)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}
