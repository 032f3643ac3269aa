package finder

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pfassina/coursesite/internal/course"
	"github.com/pfassina/coursesite/internal/theme"
)

var links = []course.Link{
	{Link: "/swift/intro", Name: "intro"},
	{Link: "/swift/Optionals", Name: "Optionals"},
	{Link: "/swiftui/views", Name: "views"},
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

func press(m Model, k tea.KeyType) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(Model), cmd
}

func TestFinder_FiltersCaseInsensitively(t *testing.T) {
	m := New(links, theme.DefaultTheme(), nil)
	if len(m.Items()) != 3 {
		t.Fatalf("initial items: got %d", len(m.Items()))
	}

	m = typeText(t, m, "OPT")
	items := m.Items()
	if len(items) != 1 || items[0].Link != "/swift/Optionals" {
		t.Errorf("got %v", items)
	}

	m = typeText(t, m, "zzz")
	if len(m.Items()) != 0 {
		t.Errorf("expected no items, got %v", m.Items())
	}
	if !strings.Contains(m.View(), "No results") {
		t.Error("view should report no results")
	}
}

func TestFinder_EnterSelects(t *testing.T) {
	m := New(links, theme.DefaultTheme(), nil)
	m, _ = press(m, tea.KeyDown)
	m, _ = press(m, tea.KeyDown)
	m, _ = press(m, tea.KeyDown) // clamped at the last item
	m, cmd := press(m, tea.KeyEnter)

	got, ok := m.Selected()
	if !ok || got.Link != "/swiftui/views" {
		t.Errorf("selected: got %v, %v", got, ok)
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("enter should quit")
	}
}

func TestFinder_EnterWithoutResults(t *testing.T) {
	m := New(nil, theme.DefaultTheme(), nil)
	m, cmd := press(m, tea.KeyEnter)
	if cmd != nil {
		t.Error("expected nil cmd for enter with no results")
	}
	if _, ok := m.Selected(); ok {
		t.Error("nothing should be selected")
	}
}

func TestFinder_EscQuits(t *testing.T) {
	m := New(links, theme.DefaultTheme(), nil)
	m, cmd := press(m, tea.KeyEsc)
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := m.Selected(); ok {
		t.Error("esc should not select")
	}
	if m.View() != "" {
		t.Error("view should be empty after quitting")
	}
}

func TestFinder_CursorResetsOnQuery(t *testing.T) {
	m := New(links, theme.DefaultTheme(), nil)
	m, _ = press(m, tea.KeyDown)
	m = typeText(t, m, "i")
	if m.cursor != 0 {
		t.Errorf("cursor = %d after typing, want 0", m.cursor)
	}
}

func TestFinder_View(t *testing.T) {
	m := New(links, theme.DefaultTheme(), nil)
	m.SetBaseURL("https://example.com/course/")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(Model)

	view := m.View()
	for _, s := range []string{"Find Course", "intro", "Optionals", "https://example.com/course/swift/intro"} {
		if !strings.Contains(view, s) {
			t.Errorf("view missing %q:\n%s", s, view)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"a longer line", 8, "a lon..."},
		{"héllo wörld", 6, "hél..."},
		{"abc", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
