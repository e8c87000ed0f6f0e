package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func typeText(p Palette, s string) Palette {
	for _, r := range s {
		p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return p
}

func TestPaletteSubmitsParsedCommand(t *testing.T) {
	p := NewPalette()
	p.Open()
	p = typeText(p, "load")
	if view := p.View(); !strings.Contains(view, "load <root id>") || strings.Contains(view, "live <on|off>") {
		t.Fatalf("palette should hint matching commands only:\n%s", view)
	}
	p = typeText(p, " 42 ")
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if p.Visible() {
		t.Fatal("palette should close on enter")
	}
	msg, ok := cmd().(PaletteSubmitMsg)
	if !ok || msg.Command != (Command{Name: "load", Arg: "42"}) {
		t.Fatalf("submit = %#v", cmd())
	}
}

func TestPaletteParse(t *testing.T) {
	p := NewPalette()
	p.SetTables([]string{"aibs_cell_types"})
	tests := []struct {
		input   string
		want    Command
		wantErr string
	}{
		{input: "nucleus 7", want: Command{Name: "nucleus", Arg: "7"}},
		{input: "live off", want: Command{Name: "live", Arg: "off"}},
		{input: "table aibs_cell_types", want: Command{Name: "table", Arg: "aibs_cell_types"}},
		{input: "table none", want: Command{Name: "table"}},
		{input: "clear", want: Command{Name: "clear"}},
		{input: "load", wantErr: "usage: load <root id>"},
		{input: "load abc", wantErr: `"abc" is not a positive integer id`},
		{input: "load -3", wantErr: "not a positive integer id"},
		{input: "live maybe", wantErr: "usage: live <on|off>"},
		{input: "table other", wantErr: `unknown cell type table "other"`},
		{input: "link now", wantErr: "link takes no argument"},
		{input: "bogus", wantErr: `unknown command "bogus"`},
	}
	for _, tt := range tests {
		got, err := p.Parse(tt.input)
		if tt.wantErr != "" {
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Parse(%q) error = %v, want %q", tt.input, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("Parse(%q) = %+v, %v; want %+v", tt.input, got, err, tt.want)
		}
	}
}

func TestPaletteAcceptsAnyTableBeforeTablesAreKnown(t *testing.T) {
	p := NewPalette()
	if _, err := p.Parse("table whatever"); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p.SetTables(nil)
	if _, err := p.Parse("table whatever"); err == nil {
		t.Fatal("an empty configured list should reject every table but none")
	}
}

func TestPaletteComplete(t *testing.T) {
	p := NewPalette()
	p.SetTables([]string{"aibs_cell_types", "aibs_column_types", "baylor_types"})
	tests := map[string]string{
		"lo":        "load ",
		"l":         "l",
		"cell":      "cell-type-link",
		"table b":   "table baylor_types",
		"table ai":  "table aibs_c",
		"table n":   "table none",
		"table zz":  "table zz",
		"live o":    "live o",
		"live of":   "live off",
		"load 12":   "load 12",
		"unknown x": "unknown x",
	}
	for in, want := range tests {
		if got := p.Complete(in); got != want {
			t.Fatalf("Complete(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPaletteKeepsInvalidInputOpen(t *testing.T) {
	p := NewPalette()
	p.SetTables([]string{"aibs_cell_types"})
	p.Open()
	p = typeText(p, "table ")
	if view := p.View(); !strings.Contains(view, "aibs_cell_types") || !strings.Contains(view, "none") {
		t.Fatalf("palette should list cell type tables:\n%s", view)
	}
	p = typeText(p, "x")
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || !p.Visible() {
		t.Fatal("invalid command should keep the palette open")
	}
	if !strings.Contains(p.View(), `unknown cell type table "x"`) {
		t.Fatalf("palette should show the problem:\n%s", p.View())
	}
	p = typeText(p, "y")
	if strings.Contains(p.View(), "unknown cell type table") {
		t.Fatal("editing should clear the problem")
	}
}

func TestPaletteCancel(t *testing.T) {
	p := NewPalette()
	p.Open()
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if p.Visible() {
		t.Fatal("palette should close on esc")
	}
	if _, ok := cmd().(PaletteCancelMsg); !ok {
		t.Fatalf("cancel = %#v", cmd())
	}
}
