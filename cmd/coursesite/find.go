package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pfassina/coursesite/internal/course"
	"github.com/pfassina/coursesite/internal/finder"
	"github.com/pfassina/coursesite/internal/ssh"
	"github.com/pfassina/coursesite/internal/theme"
)

func findCmd(a *app) *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Interactively search the course index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			links, err := course.RouteLinks(a.cfg.ContentDir, a.cfg.RoutePrefix)
			if err != nil {
				return err
			}

			th := theme.ForBackground(lipgloss.HasDarkBackground())
			m := finder.New(links, th, nil)
			m.SetBaseURL(baseURL)

			final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
			if err != nil {
				return err
			}
			if sel, ok := final.(finder.Model).Selected(); ok {
				fmt.Fprintln(cmd.OutOrStdout(), baseURL+sel.Link)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "prefix for printed links")
	return cmd
}

func sshCmd(a *app) *cobra.Command {
	var listen string
	var baseURL string

	cmd := &cobra.Command{
		Use:   "ssh",
		Short: "Serve the course finder over SSH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				a.cfg.SSHListen = listen
			}
			if err := os.MkdirAll(a.cfg.StateDir, 0755); err != nil {
				return fmt.Errorf("create state dir: %w", err)
			}

			source := func() ([]course.Link, error) {
				return course.RouteLinks(a.cfg.ContentDir, a.cfg.RoutePrefix)
			}
			s, err := ssh.New(a.cfg.SSHListen, a.cfg.HostKeyPath(), source, ssh.HandlerOptions{BaseURL: baseURL}, a.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() { errc <- s.ListenAndServe() }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "SSH listen address (default from config)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "prefix shown next to each result")
	return cmd
}
