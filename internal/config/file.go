package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// fileConfig mirrors Config with pointer fields so we can distinguish
// "not set" from zero values when merging TOML.
type fileConfig struct {
	SiteTitle      *string `toml:"site_title"`
	ContentDir     *string `toml:"content_dir"`
	OutputDir      *string `toml:"output_dir"`
	RoutePrefix    *string `toml:"route_prefix"`
	StateDir       *string `toml:"state_dir"`
	Listen         *string `toml:"listen"`
	SSHListen      *string `toml:"ssh_listen"`
	Workers        *int    `toml:"workers"`
	SkipFailed     *bool   `toml:"skip_failed"`
	HighlightStyle *string `toml:"highlight_style"`
	LogLevel       *string `toml:"log_level"`
	CMS            *struct {
		Endpoint *string `toml:"endpoint"`
		Token    *string `toml:"token"`
		Timeout  *int    `toml:"timeout_seconds"`
	} `toml:"cms"`
}

// ConfigDir returns the coursesite config directory, respecting XDG_CONFIG_HOME.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "coursesite")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "coursesite")
}

// ConfigPath returns the full path to config.toml.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// LoadFile reads the TOML file at path (ConfigPath when empty) and merges
// non-nil fields into cfg. Returns true if the file existed.
func LoadFile(cfg *Config, path string) (bool, error) {
	if path == "" {
		path = ConfigPath()
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return true, err
	}

	setString(&cfg.SiteTitle, fc.SiteTitle)
	setString(&cfg.ContentDir, fc.ContentDir)
	setString(&cfg.OutputDir, fc.OutputDir)
	setString(&cfg.RoutePrefix, fc.RoutePrefix)
	setString(&cfg.StateDir, fc.StateDir)
	setString(&cfg.Listen, fc.Listen)
	setString(&cfg.SSHListen, fc.SSHListen)
	setString(&cfg.HighlightStyle, fc.HighlightStyle)
	setString(&cfg.LogLevel, fc.LogLevel)
	if fc.Workers != nil && *fc.Workers > 0 {
		cfg.Workers = *fc.Workers
	}
	if fc.SkipFailed != nil {
		cfg.SkipFailed = *fc.SkipFailed
	}
	if fc.CMS != nil {
		setString(&cfg.CMSEndpoint, fc.CMS.Endpoint)
		setString(&cfg.CMSToken, fc.CMS.Token)
		if fc.CMS.Timeout != nil && *fc.CMS.Timeout > 0 {
			cfg.CMSTimeout = time.Duration(*fc.CMS.Timeout) * time.Second
		}
	}

	cfg.ContentDir = ExpandHome(cfg.ContentDir)
	cfg.OutputDir = ExpandHome(cfg.OutputDir)
	cfg.StateDir = ExpandHome(cfg.StateDir)
	return true, nil
}

// ApplyEnv overrides cfg from environment variables looked up through
// lookup (os.LookupEnv in production). The CMS variables keep the names the
// site has always been deployed with.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup("WORDPRESS_API_URL"); ok {
		cfg.CMSEndpoint = v
	}
	if v, ok := lookup("WORDPRESS_AUTH_REFRESH_TOKEN"); ok {
		cfg.CMSToken = v
	}
	if v, ok := lookup("COURSESITE_CONTENT_DIR"); ok && v != "" {
		cfg.ContentDir = ExpandHome(v)
	}
	if v, ok := lookup("COURSESITE_OUTPUT_DIR"); ok && v != "" {
		cfg.OutputDir = ExpandHome(v)
	}
	if v, ok := lookup("COURSESITE_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup("COURSESITE_WORKERS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, _ := os.UserHomeDir()
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
