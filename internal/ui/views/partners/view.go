package partners

import (
	"sort"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	connin "connviewer/internal/modules/connectivity/adapter/in"
	conndto "connviewer/internal/modules/connectivity/dto"
	"connviewer/internal/ui/theme"
)

const (
	markColumn  = " "
	minColWidth = 6
	maxColWidth = 22
)

// Model is a partner table with multi-row selection.
type Model struct {
	data     conndto.Table
	table    table.Model
	selected map[int]bool
	width    int
	height   int
}

func New() Model {
	t := table.New(table.WithFocused(true))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Surface1).
		BorderBottom(true).
		Foreground(theme.Sapphire).
		Bold(true)
	styles.Selected = styles.Selected.Foreground(theme.Base).Background(theme.Lavender)
	t.SetStyles(styles)
	return Model{table: t, selected: map[int]bool{}}
}

// SetTable replaces the rows and clears the selection.
func (m *Model) SetTable(data conndto.Table) {
	m.data = data
	m.selected = map[int]bool{}
	m.table.SetRows(nil)
	m.table.SetColumns(m.columns())
	m.refresh()
	m.table.GotoTop()
}

func (m Model) Table() conndto.Table { return m.data }

// Toggle flips the selection of the row under the cursor.
func (m *Model) Toggle() {
	if len(m.data.Rows) == 0 {
		return
	}
	i := m.table.Cursor()
	if m.selected[i] {
		delete(m.selected, i)
	} else {
		m.selected[i] = true
	}
	m.refresh()
}

// ClearSelection drops every selected row.
func (m *Model) ClearSelection() {
	m.selected = map[int]bool{}
	m.refresh()
}

// Selected lists the selected row indexes in table order.
func (m Model) Selected() []int {
	out := make([]int, 0, len(m.selected))
	for i := range m.selected {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetWidth(width)
	m.table.SetHeight(max(height-1, 1))
	m.table.SetColumns(m.columns())
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.data.Rows) == 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, theme.Muted.Render("No partners"))
	}
	return m.table.View()
}

func (m Model) columns() []table.Column {
	cols := []table.Column{{Title: markColumn, Width: 1}}
	if len(m.data.Columns) == 0 {
		return cols
	}
	width := (m.width - 2) / len(m.data.Columns)
	width = min(max(width, minColWidth), maxColWidth)
	for _, c := range m.data.Columns {
		cols = append(cols, table.Column{Title: c, Width: width})
	}
	return cols
}

func (m *Model) refresh() {
	rows := make([]table.Row, len(m.data.Rows))
	for i, r := range m.data.Rows {
		row := make(table.Row, 0, len(m.data.Columns)+1)
		mark := ""
		if m.selected[i] {
			mark = "●"
		}
		row = append(row, mark)
		for _, c := range m.data.Columns {
			row = append(row, connin.Cell(r[c]))
		}
		rows[i] = row
	}
	m.table.SetRows(rows)
}
