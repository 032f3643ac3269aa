// Package finder is the interactive course search shown in the terminal and
// over SSH.
package finder

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pfassina/coursesite/internal/course"
	"github.com/pfassina/coursesite/internal/search"
	"github.com/pfassina/coursesite/internal/theme"
)

// Model filters a slug index as the user types.
type Model struct {
	input    textinput.Model
	all      []course.Link
	items    []course.Link
	cursor   int
	width    int
	height   int
	theme    theme.Theme
	renderer *lipgloss.Renderer
	baseURL  string

	selected *course.Link
	quitting bool
}

// New creates a finder over links. renderer may be nil for the local terminal.
func New(links []course.Link, th theme.Theme, renderer *lipgloss.Renderer) Model {
	ti := textinput.New()
	ti.Placeholder = "Search courses..."
	ti.CharLimit = 256
	ti.Width = 50
	ti.Focus()

	if renderer == nil {
		renderer = lipgloss.DefaultRenderer()
	}

	return Model{
		input:    ti,
		all:      links,
		items:    links,
		theme:    th,
		renderer: renderer,
	}
}

// SetBaseURL prefixes the link shown next to each result.
func (m *Model) SetBaseURL(url string) {
	m.baseURL = strings.TrimSuffix(url, "/")
}

// Selected returns the entry chosen with Enter, if any.
func (m Model) Selected() (course.Link, bool) {
	if m.selected == nil {
		return course.Link{}, false
	}
	return *m.selected, true
}

// Items returns the entries matching the current query.
func (m Model) Items() []course.Link {
	return m.items
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width/2-8, 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			if m.cursor < len(m.items) {
				item := m.items[m.cursor]
				m.selected = &item
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil

		case "up", "ctrl+p", "ctrl+k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case "down", "ctrl+n", "ctrl+j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	prev := m.input.Value()
	m.input, cmd = m.input.Update(msg)

	if m.input.Value() != prev {
		m.items = search.FilterFold(m.input.Value(), m.all)
		m.cursor = 0
	}
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	th := m.theme
	r := m.renderer

	width := m.width
	if width == 0 {
		width = 60
	}
	innerWidth := width - 6

	borderStyle := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.Accent).
		Padding(0, 1).
		Width(innerWidth)
	titleStyle := r.NewStyle().Bold(true).Foreground(th.Accent)
	dim := r.NewStyle().Foreground(th.Dim)

	var lines []string
	lines = append(lines, titleStyle.Render("Find Course"))
	lines = append(lines, m.input.View())
	lines = append(lines, "")

	maxResults := m.height/2 - 4
	if maxResults < 5 {
		maxResults = 5
	}
	maxResults = min(maxResults, len(m.items))

	if len(m.items) == 0 {
		lines = append(lines, dim.Render("No results"))
	} else {
		// Keep the cursor inside the visible window.
		offset := 0
		if m.cursor >= maxResults {
			offset = m.cursor - maxResults + 1
		}
		for i := offset; i < offset+maxResults; i++ {
			item := m.items[i]
			prefix := "  "
			style := r.NewStyle().Foreground(th.Text)
			if i == m.cursor {
				prefix = "> "
				style = r.NewStyle().Foreground(th.Accent).Bold(true)
			}

			line := prefix + item.Name
			if lipgloss.Width(line) > innerWidth {
				line = truncate(line, innerWidth)
			}
			line = style.Render(line)
			if room := innerWidth - lipgloss.Width(line) - 1; room > 8 {
				line += " " + dim.Render(truncate(m.baseURL+item.Link, room))
			}
			lines = append(lines, line)
		}

		if rest := len(m.items) - maxResults; rest > 0 {
			lines = append(lines, dim.Render(fmt.Sprintf("  ... and %d more", rest)))
		}
	}

	lines = append(lines, "", dim.Render("enter: open  esc: quit"))
	return borderStyle.Render(strings.Join(lines, "\n"))
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
