// Package config resolves server configuration from CLI flags,
// environment variables, and an optional YAML config file, in that
// order of precedence (flags win, then env, then file, then
// defaults).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultTransport = "http"
	DefaultHost      = "127.0.0.1"
	DefaultPort      = 8080
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Options is the CLI surface, parsed by go-flags.
type Options struct {
	Transport            string        `long:"transport" choice:"stdio" choice:"http" description:"Communication transport"`
	Host                 string        `long:"host" description:"Host address for HTTP transport"`
	Port                 int           `long:"port" description:"Port number for HTTP transport"`
	LogLevel             string        `long:"log-level" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Logging level"`
	LogFormat            string        `long:"log-format" choice:"text" choice:"json" description:"Logging output format"`
	ConfigFile           string        `long:"config" description:"Path to a YAML configuration file"`
	DisableCache         bool          `long:"disable-cache" description:"Disable the metadata cache; all lookups use direct API calls"`
	FailOnCacheInitError bool          `long:"fail-on-cache-init-error" description:"Exit if the initial cache refresh fails"`
	DefaultBucketID      string        `long:"default-bucket-id" description:"Bucket ID to use when none is provided in a call"`
	RefreshInterval      time.Duration `long:"refresh-interval" description:"Interval for periodic cache refresh (0 disables)"`
	DiagnosticsAddr      string        `long:"diagnostics-addr" description:"Address for the diagnostics HTTP API (empty disables)"`
}

// Config holds the resolved server configuration.
type Config struct {
	Transport            string        `yaml:"transport"`
	Host                 string        `yaml:"host"`
	Port                 int           `yaml:"port"`
	LogLevel             string        `yaml:"log_level"`
	LogFormat            string        `yaml:"log_format"`
	APIKey               string        `yaml:"-"` // env only, never from file
	APIBaseURL           string        `yaml:"api_base_url"`
	DisableCache         bool          `yaml:"disable_cache"`
	FailOnCacheInitError bool          `yaml:"fail_on_cache_init_error"`
	DefaultBucketID      string        `yaml:"default_bucket_id"`
	RefreshInterval      time.Duration `yaml:"refresh_interval"`
	DiagnosticsAddr      string        `yaml:"diagnostics_addr"`
}

// Load parses args and resolves the full configuration.
func Load(args []string) (*Config, error) {
	var opts Options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	return resolve(opts, os.Getenv)
}

// resolve layers defaults, the config file, the environment, and the
// parsed flags. The env lookup is injected for tests.
func resolve(opts Options, getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Transport: DefaultTransport,
		Host:      DefaultHost,
		Port:      DefaultPort,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}

	if opts.ConfigFile != "" {
		data, err := os.ReadFile(opts.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", opts.ConfigFile, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", opts.ConfigFile, err)
		}
	}

	if v := getenv("MCP_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := getenv("MCP_LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if boolEnv(getenv("GROUNDX_DISABLE_CACHE")) {
		cfg.DisableCache = true
	}
	if boolEnv(getenv("GROUNDX_FAIL_ON_CACHE_INIT_ERROR")) {
		cfg.FailOnCacheInitError = true
	}
	if v := getenv("GROUNDX_DEFAULT_BUCKET_ID"); v != "" {
		cfg.DefaultBucketID = v
	}
	cfg.APIKey = getenv("GROUNDX_API_KEY")

	if opts.Transport != "" {
		cfg.Transport = opts.Transport
	}
	if opts.Host != "" {
		cfg.Host = opts.Host
	}
	if opts.Port != 0 {
		cfg.Port = opts.Port
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.LogFormat = opts.LogFormat
	}
	if opts.DisableCache {
		cfg.DisableCache = true
	}
	if opts.FailOnCacheInitError {
		cfg.FailOnCacheInitError = true
	}
	if opts.DefaultBucketID != "" {
		cfg.DefaultBucketID = opts.DefaultBucketID
	}
	if opts.RefreshInterval != 0 {
		cfg.RefreshInterval = opts.RefreshInterval
	}
	if opts.DiagnosticsAddr != "" {
		cfg.DiagnosticsAddr = opts.DiagnosticsAddr
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("config: unsupported transport %q", c.Transport)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: unsupported log format %q", c.LogFormat)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// boolEnv interprets the truthy spellings accepted for the
// GROUNDX_* switches.
func boolEnv(v string) bool {
	switch strings.ToLower(v) {
	case "true", "yes", "1":
		return true
	}
	return false
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("config: unsupported log level %q", level)
}

// NewLogger builds the process logger on stderr according to the
// configured level and format. Stdout is reserved for the stdio
// transport.
func (c *Config) NewLogger() *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	return slog.New(handler)
}
