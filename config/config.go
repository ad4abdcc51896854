package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Renderers supported by [charts] renderer.
const (
	RendererTerminal = "terminal"
	RendererSVG      = "svg"
)

// Config is the top-level configuration.
type Config struct {
	LogFile   string          `toml:"log_file"`
	Server    ServerConfig    `toml:"server"`
	HotReload HotReloadConfig `toml:"hot_reload"`
	Charts    ChartsConfig    `toml:"charts"`
}

// ServerConfig describes the page server and the files it watches.
type ServerConfig struct {
	Host       string   `toml:"host"`
	Port       int      `toml:"port"`
	Watch      []string `toml:"watch"`
	DebounceMS int      `toml:"debounce_ms"`
}

// HotReloadConfig tunes the hot-reload client.
type HotReloadConfig struct {
	BaseDelayMS int `toml:"base_delay_ms"`
}

// ChartsConfig selects the chart renderer.
type ChartsConfig struct {
	Renderer string `toml:"renderer"`
	SVGDir   string `toml:"svg_dir"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// DefaultPath returns the default config file path using XDG conventions.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, "livefrag", "config.toml")
}

// Load reads the config at path. A missing file at the default path is not
// an error and yields Default(); any other path must exist.
func Load(path string) (*Config, error) {
	cfg, err := LoadFrom(path)
	if err != nil && path == DefaultPath() && errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// LoadFrom reads and parses the config file at the given path and applies
// defaults for anything left unset.
func LoadFrom(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.DebounceMS == 0 {
		c.Server.DebounceMS = 200
	}
	if c.HotReload.BaseDelayMS == 0 {
		c.HotReload.BaseDelayMS = 1000
	}
	if c.Charts.Renderer == "" {
		c.Charts.Renderer = RendererTerminal
	}
	if c.Charts.SVGDir == "" {
		c.Charts.SVGDir = "charts"
	}
	c.LogFile = expandPath(c.LogFile)
	c.Charts.SVGDir = expandPath(c.Charts.SVGDir)
	for i, p := range c.Server.Watch {
		c.Server.Watch[i] = expandPath(p)
	}
}

func (c *Config) validate() error {
	switch c.Charts.Renderer {
	case RendererTerminal, RendererSVG:
	default:
		return fmt.Errorf("unknown chart renderer %q", c.Charts.Renderer)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Server.DebounceMS < 0 || c.HotReload.BaseDelayMS < 0 {
		return errors.New("durations must not be negative")
	}
	return nil
}

// expandPath expands ~ to $HOME and then expands all environment variables.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		path = "$HOME" + path[1:]
	}
	return os.ExpandEnv(path)
}

// Addr returns the host:port the page server listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Debounce returns the watcher debounce as a duration.
func (s ServerConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMS) * time.Millisecond
}

// BaseDelay returns the base reconnect delay as a duration.
func (h HotReloadConfig) BaseDelay() time.Duration {
	return time.Duration(h.BaseDelayMS) * time.Millisecond
}
