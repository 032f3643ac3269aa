package ssh

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	bts "github.com/charmbracelet/wish/bubbletea"

	"github.com/pfassina/coursesite/internal/course"
	"github.com/pfassina/coursesite/internal/finder"
	"github.com/pfassina/coursesite/internal/theme"
)

// LinkSource returns the current slug index. It is called once per session
// so new documents show up without a restart.
type LinkSource func() ([]course.Link, error)

// HandlerOptions tunes each session's finder.
type HandlerOptions struct {
	BaseURL string // shown next to each result
}

// NewHandler returns a Bubble Tea handler for SSH sessions.
func NewHandler(source LinkSource, opts HandlerOptions, logger *log.Logger) bts.Handler {
	return func(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
		links, err := source()
		if err != nil {
			logger.Error("load links", "user", sess.User(), "err", err)
		}

		renderer := bts.MakeRenderer(sess)
		m := finder.New(links, theme.ForBackground(renderer.HasDarkBackground()), renderer)
		m.SetBaseURL(opts.BaseURL)

		return m, []tea.ProgramOption{tea.WithAltScreen()}
	}
}
