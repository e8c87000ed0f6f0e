package app

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	conndto "connviewer/internal/modules/connectivity/dto"
	linkdto "connviewer/internal/modules/link/dto"
	"connviewer/internal/ui/components"
	"connviewer/internal/ui/theme"
	partnersview "connviewer/internal/ui/views/partners"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type connectivityPort interface {
	Connectivity(ctx context.Context, id, idType string, live bool, cellTypeTable string) (conndto.ConnectivityOutput, error)
	CellTypeTables(ctx context.Context) []conndto.Option
}

type linkPort interface {
	SynapseLink(ctx context.Context, tab linkdto.Tab, table conndto.Table, selected []int, info conndto.InfoCache) (linkdto.LinkOutput, error)
	PartnerCellTypeLink(ctx context.Context, table conndto.Table, selected []int, info conndto.InfoCache) (linkdto.LinkOutput, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabOutput tabID = iota
	tabInput
	tabCount
)

var tabKeys = [tabCount]linkdto.Tab{linkdto.TabPre, linkdto.TabPost}

// ─── async messages ───────────────────────────────────────────────────────────

type loadedMsg struct {
	out conndto.ConnectivityOutput
	err error
}

type linkMsg struct {
	out linkdto.LinkOutput
	err error
}

type tablesMsg struct {
	tables []string
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab      key.Binding
	Select   key.Binding
	Link     key.Binding
	CellLink key.Binding
	Reload   key.Binding
	Help     key.Binding
	Palette  key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "output/input")),
		Select:   key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "select row")),
		Link:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "viewer link")),
		CellLink: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cell type link")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette:  key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Link, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Select, k.Reload},
		{k.Link, k.CellLink},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Query is what the browser loads: a cell and how to look it up.
type Query struct {
	ID            string
	IDType        string
	Live          bool
	CellTypeTable string
}

// Model is the root Bubble Tea model. It owns the output/input tabs, the
// status line and the command palette; tables render in partner views.
type Model struct {
	conn connectivityPort
	link linkPort

	query   Query
	result  conndto.ConnectivityOutput
	views   [tabCount]partnersview.Model
	lastURL string

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	spinner   spinner.Model
	loading   bool
	status    string
	failed    bool
	width     int
	height    int
}

func NewModel(conn connectivityPort, link linkPort, query Query) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)
	return Model{
		conn:    conn,
		link:    link,
		query:   query,
		views:   [tabCount]partnersview.Model{partnersview.New(), partnersview.New()},
		keys:    defaultKeys(),
		help:    help.New(),
		palette: components.NewPalette(),
		spinner: sp,
		status:  "No annotation id selected",
	}
}

func (m Model) Init() tea.Cmd {
	if m.query.ID == "" {
		return m.tablesCmd()
	}
	return tea.Batch(m.tablesCmd(), m.loadCmd(), m.spinner.Tick)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The palette intercepts all input while open.
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case loadedMsg:
		m.loading = false
		m.lastURL = ""
		m.failed = msg.err != nil
		if msg.err != nil {
			m.result = conndto.EmptyConnectivity(msg.err.Error())
		} else {
			m.result = msg.out
		}
		m.views[tabOutput].SetTable(m.result.Targets)
		m.views[tabInput].SetTable(m.result.Sources)
		m.status = m.result.Message
		return m, nil

	case linkMsg:
		m.failed = msg.err != nil
		if msg.err != nil {
			m.status = "link failed: " + msg.err.Error()
			return m, nil
		}
		m.lastURL = msg.out.URL
		m.status = "viewer link ready"
		if msg.out.Uploaded {
			m.status = "viewer link ready (state uploaded)"
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tablesMsg:
		m.palette.SetTables(msg.tables)
		return m, nil

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Command)

	case components.PaletteCancelMsg:
		m.status = m.result.Message
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		case key.Matches(msg, m.keys.Palette):
			return m, m.palette.Open()
		case key.Matches(msg, m.keys.Tab):
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.Select):
			m.views[m.activeTab].Toggle()
			return m, nil
		case key.Matches(msg, m.keys.Reload):
			return m.reload()
		case key.Matches(msg, m.keys.Link):
			return m, m.linkCmd(false)
		case key.Matches(msg, m.keys.CellLink):
			return m, m.linkCmd(true)
		}
	}

	var cmd tea.Cmd
	m.views[m.activeTab], cmd = m.views[m.activeTab].Update(msg)
	return m, cmd
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar), 1)

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.loading:
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.spinner.View()+" Loading connectivity…")
	default:
		content = m.views[m.activeTab].View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) tabLabel(t tabID) string {
	if t == tabOutput {
		if m.result.OutputLabel != "" {
			return m.result.OutputLabel
		}
		return "Output"
	}
	if m.result.InputLabel != "" {
		return m.result.InputLabel
	}
	return "Input"
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := m.tabLabel(i)
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	sep := theme.Muted.Render(" │ ")
	bar := "connviewer  " + strings.Join(parts, sep)
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.failed {
		left = theme.Error.Render(left)
	}
	if m.query.Live {
		left = theme.Hot.Render("● live") + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  l:link  :::palette  q:quit")
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	bar := left + strings.Repeat(" ", gap) + right
	if m.lastURL != "" {
		bar += "\n" + theme.Link.Render(m.lastURL)
	}
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

// executePalette runs a command the palette has already validated.
func (m Model) executePalette(cmd components.Command) (tea.Model, tea.Cmd) {
	switch cmd.Name {
	case "load", "nucleus":
		m.query.ID = cmd.Arg
		m.query.IDType = "root_id"
		if cmd.Name == "nucleus" {
			m.query.IDType = "nucleus_id"
		}
		return m.reload()

	case "live":
		m.query.Live = cmd.Arg == "on"
		return m.reload()

	case "table":
		m.query.CellTypeTable = cmd.Arg
		return m.reload()

	case "link":
		return m, m.linkCmd(false)

	case "cell-type-link":
		return m, m.linkCmd(true)

	case "clear":
		m.views[m.activeTab].ClearSelection()
		m.status = "selection cleared"
	}
	return m, nil
}

// ─── commands ─────────────────────────────────────────────────────────────────

func (m Model) reload() (tea.Model, tea.Cmd) {
	if m.query.ID == "" {
		m.status = "No annotation id selected"
		return m, nil
	}
	m.loading = true
	return m, tea.Batch(m.loadCmd(), m.spinner.Tick)
}

func (m Model) loadCmd() tea.Cmd {
	q := m.query
	return func() tea.Msg {
		out, err := m.conn.Connectivity(context.Background(), q.ID, q.IDType, q.Live, q.CellTypeTable)
		return loadedMsg{out: out, err: err}
	}
}

func (m Model) tablesCmd() tea.Cmd {
	return func() tea.Msg {
		opts := m.conn.CellTypeTables(context.Background())
		tables := make([]string, 0, len(opts))
		for _, o := range opts {
			tables = append(tables, o.Value)
		}
		return tablesMsg{tables: tables}
	}
}

func (m Model) linkCmd(byCellType bool) tea.Cmd {
	view := m.views[m.activeTab]
	table, selected, info, tab := view.Table(), view.Selected(), m.result.Info, tabKeys[m.activeTab]
	return func() tea.Msg {
		var out linkdto.LinkOutput
		var err error
		if byCellType {
			out, err = m.link.PartnerCellTypeLink(context.Background(), table, selected, info)
		} else {
			out, err = m.link.SynapseLink(context.Background(), tab, table, selected, info)
		}
		return linkMsg{out: out, err: err}
	}
}

func (m *Model) propagateSize() {
	tabBarH := 2
	statusBarH := 3
	contentH := max(m.height-tabBarH-statusBarH, 1)
	for i := range m.views {
		m.views[i].SetSize(m.width, contentH)
	}
}
