package components

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"connviewer/internal/ui/theme"
)

// Command is a palette command that passed validation. Arg is empty for
// commands without an argument and for "table none".
type Command struct {
	Name string
	Arg  string
}

// PaletteSubmitMsg is emitted when the user confirms a valid command.
type PaletteSubmitMsg struct{ Command Command }

// PaletteCancelMsg is emitted when the user presses esc or submits nothing.
type PaletteCancelMsg struct{}

type argKind int

const (
	argNone argKind = iota
	argID
	argSwitch
	argTable
)

type commandSpec struct {
	name  string
	usage string
	arg   argKind
}

var commandSpecs = []commandSpec{
	{name: "load", usage: "load <root id>", arg: argID},
	{name: "nucleus", usage: "nucleus <nucleus id>", arg: argID},
	{name: "live", usage: "live <on|off>", arg: argSwitch},
	{name: "table", usage: "table <cell type table|none>", arg: argTable},
	{name: "link", usage: "link", arg: argNone},
	{name: "cell-type-link", usage: "cell-type-link", arg: argNone},
	{name: "clear", usage: "clear", arg: argNone},
}

const maxSuggestions = 6

var (
	paletteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().Foreground(theme.Subtext0)
)

// Palette reads browser commands. It completes command names and cell type
// tables on tab and refuses to submit a command that would fail.
type Palette struct {
	input   textinput.Model
	tables  []string
	problem string
	visible bool
	width   int
}

func NewPalette() Palette {
	ti := textinput.New()
	ti.Placeholder = "load <root id>"
	ti.CharLimit = 128
	return Palette{input: ti}
}

// SetTables sets the cell type tables "table" accepts. Until it is called
// any table name is accepted.
func (p *Palette) SetTables(tables []string) {
	p.tables = append([]string{}, tables...)
}

func (p Palette) Visible() bool { return p.visible }

// Open shows the palette with an empty input and returns the focus command.
func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.problem = ""
	p.input.SetValue("")
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			p.close()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case "tab":
			p.input.SetValue(p.Complete(p.input.Value()))
			p.input.CursorEnd()
			return p, nil
		case "enter":
			if strings.TrimSpace(p.input.Value()) == "" {
				p.close()
				return p, func() tea.Msg { return PaletteCancelMsg{} }
			}
			cmd, err := p.Parse(p.input.Value())
			if err != nil {
				p.problem = err.Error()
				return p, nil
			}
			p.close()
			return p, func() tea.Msg { return PaletteSubmitMsg{Command: cmd} }
		}
	}
	p.problem = ""
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *Palette) close() {
	p.visible = false
	p.problem = ""
	p.input.Blur()
}

// Parse checks input against the command grammar.
func (p Palette) Parse(input string) (Command, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	spec, ok := lookupSpec(fields[0])
	if !ok {
		return Command{}, fmt.Errorf("unknown command %q", fields[0])
	}
	if spec.arg == argNone {
		if len(fields) > 1 {
			return Command{}, fmt.Errorf("%s takes no argument", spec.name)
		}
		return Command{Name: spec.name}, nil
	}
	if len(fields) != 2 {
		return Command{}, fmt.Errorf("usage: %s", spec.usage)
	}
	arg := fields[1]
	switch spec.arg {
	case argID:
		if id, err := strconv.ParseInt(arg, 10, 64); err != nil || id <= 0 {
			return Command{}, fmt.Errorf("%s: %q is not a positive integer id", spec.name, arg)
		}
	case argSwitch:
		if arg != "on" && arg != "off" {
			return Command{}, fmt.Errorf("usage: %s", spec.usage)
		}
	case argTable:
		if arg == "none" {
			return Command{Name: spec.name}, nil
		}
		if p.tables != nil && !slices.Contains(p.tables, arg) {
			return Command{}, fmt.Errorf("unknown cell type table %q", arg)
		}
	}
	return Command{Name: spec.name, Arg: arg}, nil
}

// Complete extends input to the longest unambiguous command or argument.
func (p Palette) Complete(input string) string {
	name, arg, hasArg := strings.Cut(strings.TrimLeft(input, " "), " ")
	if !hasArg {
		names := matching(specNames(), name)
		if len(names) == 1 {
			if spec, _ := lookupSpec(names[0]); spec.arg != argNone {
				return names[0] + " "
			}
			return names[0]
		}
		return longestPrefix(names, name)
	}
	choices := p.argChoices(name)
	if choices == nil {
		return input
	}
	arg = strings.TrimSpace(arg)
	found := matching(choices, arg)
	if len(found) == 1 {
		return name + " " + found[0]
	}
	return name + " " + longestPrefix(found, arg)
}

func (p Palette) argChoices(name string) []string {
	spec, ok := lookupSpec(name)
	if !ok {
		return nil
	}
	switch spec.arg {
	case argSwitch:
		return []string{"on", "off"}
	case argTable:
		return append(append([]string{}, p.tables...), "none")
	}
	return nil
}

// suggestions lists what may follow the current input.
func (p Palette) suggestions() []string {
	value := strings.TrimLeft(p.input.Value(), " ")
	name, arg, hasArg := strings.Cut(value, " ")
	if hasArg {
		if spec, ok := lookupSpec(name); ok && spec.arg == argTable {
			return matching(p.argChoices(name), strings.TrimSpace(arg))
		}
	}
	var out []string
	for _, spec := range commandSpecs {
		if strings.HasPrefix(spec.name, name) || (hasArg && spec.name == name) {
			out = append(out, spec.usage)
		}
	}
	return out
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Command Palette") + "\n")
	sb.WriteString(": " + p.input.View() + "\n")
	if p.problem != "" {
		sb.WriteString(theme.Error.Render(p.problem) + "\n")
	}
	if hints := p.suggestions(); len(hints) > 0 {
		sb.WriteString("\n")
		for _, h := range hints[:min(len(hints), maxSuggestions)] {
			sb.WriteString(hintStyle.Render("  "+h) + "\n")
		}
	}
	w := p.width
	if w < 20 {
		w = 64
	}
	return paletteStyle.Width(w - 2).Render(sb.String())
}

func lookupSpec(name string) (commandSpec, bool) {
	for _, spec := range commandSpecs {
		if spec.name == name {
			return spec, true
		}
	}
	return commandSpec{}, false
}

func specNames() []string {
	out := make([]string, len(commandSpecs))
	for i, spec := range commandSpecs {
		out[i] = spec.name
	}
	return out
}

func matching(items []string, prefix string) []string {
	var out []string
	for _, item := range items {
		if strings.HasPrefix(item, prefix) {
			out = append(out, item)
		}
	}
	return out
}

func longestPrefix(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	prefix := items[0]
	for _, item := range items[1:] {
		for !strings.HasPrefix(item, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	if len(prefix) < len(fallback) {
		return fallback
	}
	return prefix
}
