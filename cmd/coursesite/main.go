package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pfassina/coursesite/internal/cms"
	"github.com/pfassina/coursesite/internal/config"
	"github.com/pfassina/coursesite/internal/course"
	"github.com/pfassina/coursesite/internal/index"
	"github.com/pfassina/coursesite/internal/markdown"
	"github.com/pfassina/coursesite/internal/site"
)

// app is the state shared by every subcommand, filled in before RunE.
type app struct {
	cfg    config.Config
	logger *log.Logger

	configPath string
	content    string
	out        string
	verbose    bool
}

func main() {
	if err := newRoot(&app{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRoot(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "coursesite",
		Short:         "Build and serve the course site",
		Long:          "Turns a directory of markdown course notes into a static site, with an optional CMS-backed blog.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/coursesite/config.toml)")
	root.PersistentFlags().StringVar(&a.content, "content", "", "course content directory")
	root.PersistentFlags().StringVar(&a.out, "out", "", "output directory")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		buildCmd(a),
		serveCmd(a),
		routesCmd(a),
		linksCmd(a),
		searchCmd(a),
		findCmd(a),
		sshCmd(a),
	)
	return root
}

// init resolves configuration: defaults, then the TOML file, then the
// environment, then flags.
func (a *app) init(cmd *cobra.Command) error {
	cfg := config.Default()
	if _, err := config.LoadFile(&cfg, a.configPath); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	config.ApplyEnv(&cfg, os.LookupEnv)

	flags := cmd.Flags()
	if flags.Changed("content") {
		cfg.ContentDir = config.ExpandHome(a.content)
	}
	if flags.Changed("out") {
		cfg.OutputDir = config.ExpandHome(a.out)
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}

	if abs, err := filepath.Abs(cfg.ContentDir); err == nil {
		cfg.ContentDir = abs
	}
	cfg.RoutePrefix = course.MountPrefix(cfg.RoutePrefix)
	a.cfg = cfg
	a.logger = newLogger(cfg.LogLevel)
	return nil
}

func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "coursesite",
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		logger.Warn("unknown log level, using info", "level", level)
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

func (a *app) converter() *markdown.Converter {
	return markdown.NewConverter(markdown.WithStyle(a.cfg.HighlightStyle))
}

func (a *app) cmsConfig() cms.Config {
	return cms.Config{
		Endpoint:  a.cfg.CMSEndpoint,
		AuthToken: a.cfg.CMSToken,
		Timeout:   a.cfg.CMSTimeout,
	}
}

// builder wires a site.Builder from the resolved configuration.
func (a *app) builder(conv *markdown.Converter) (*site.Builder, error) {
	b, err := site.New(site.Options{
		SiteTitle:   a.cfg.SiteTitle,
		ContentDir:  a.cfg.ContentDir,
		OutputDir:   a.cfg.OutputDir,
		RoutePrefix: a.cfg.RoutePrefix,
		Workers:     a.cfg.Workers,
		SkipFailed:  a.cfg.SkipFailed,
	}, conv, a.logger)
	if err != nil {
		return nil, err
	}
	if cc := a.cmsConfig(); cc.Enabled() {
		a.logger.Debug("cms enabled", "endpoint", cc.Endpoint)
		b.WithPosts(cms.New(cc, nil))
	}
	return b, nil
}

// openIndex opens the search index under the state directory.
func (a *app) openIndex() (*index.DB, error) {
	if err := os.MkdirAll(a.cfg.StateDir, 0755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	db, err := index.Open(a.cfg.IndexPath())
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return db, nil
}
