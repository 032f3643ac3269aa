package config

import (
	"path/filepath"
	"runtime"
	"time"
)

// Config holds the resolved settings for every command.
type Config struct {
	SiteTitle      string
	ContentDir     string
	OutputDir      string
	RoutePrefix    string
	StateDir       string
	Listen         string
	SSHListen      string
	Workers        int
	SkipFailed     bool
	HighlightStyle string
	LogLevel       string
	CMSEndpoint    string
	CMSToken       string
	CMSTimeout     time.Duration
}

// Default returns the built-in settings the config file and environment
// override.
func Default() Config {
	return Config{
		SiteTitle:      "The Happy Programmer",
		ContentDir:     "course",
		OutputDir:      "public",
		RoutePrefix:    "/course",
		StateDir:       ".coursesite",
		Listen:         ":3000",
		SSHListen:      ":2222",
		Workers:        runtime.NumCPU(),
		HighlightStyle: "github",
		LogLevel:       "info",
		CMSTimeout:     30 * time.Second,
	}
}

// IndexPath is the SQLite search index location.
func (c Config) IndexPath() string {
	return filepath.Join(c.StateDir, "index.db")
}

// HostKeyPath is where the SSH finder keeps its host key.
func (c Config) HostKeyPath() string {
	return filepath.Join(c.StateDir, "ssh_host_key")
}
