// Package config loads server and chat settings from defaults, an optional
// YAML file, TECNOMAT_* environment variables and command-line flags, in that
// order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Session store backends.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

const envPrefix = "TECNOMAT_"

// Config holds all runtime settings.
type Config struct {
	Addr            string        `yaml:"addr"`
	Passcode        string        `yaml:"passcode"`
	TemplatePath    string        `yaml:"template_path"`
	OutputDir       string        `yaml:"output_dir"`
	SessionStore    string        `yaml:"session_store"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	JanitorInterval time.Duration `yaml:"janitor_interval"`
	MergeTimeout    time.Duration `yaml:"merge_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	Debug           bool          `yaml:"debug"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            ":5000",
		Passcode:        "2579",
		TemplatePath:    "PARTES DE TRABAJO PARA PYTHON.xlsx",
		OutputDir:       "partes",
		SessionStore:    StoreSQLite,
		SessionTTL:      2 * time.Hour,
		JanitorInterval: 5 * time.Minute,
		MergeTimeout:    30 * time.Second,
		AllowedOrigins:  []string{"*"},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment. Flags are applied separately with
// ApplyFlags.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnv(&cfg, os.Getenv)
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overrides cfg from TECNOMAT_* variables. Malformed values are
// ignored and the previous value kept.
func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(envPrefix + "ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := getenv(envPrefix + "PASSCODE"); v != "" {
		cfg.Passcode = v
	}
	if v := getenv(envPrefix + "TEMPLATE_PATH"); v != "" {
		cfg.TemplatePath = v
	}
	if v := getenv(envPrefix + "OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := getenv(envPrefix + "SESSION_STORE"); v != "" {
		cfg.SessionStore = strings.ToLower(v)
	}
	applyDurationEnv(&cfg.SessionTTL, getenv(envPrefix+"SESSION_TTL"))
	applyDurationEnv(&cfg.JanitorInterval, getenv(envPrefix+"JANITOR_INTERVAL"))
	applyDurationEnv(&cfg.MergeTimeout, getenv(envPrefix+"MERGE_TIMEOUT"))
	if v := getenv(envPrefix + "ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := getenv(envPrefix + "DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
}

func applyDurationEnv(dst *time.Duration, v string) {
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		*dst = d
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Flag names shared by BindFlags and ApplyFlags.
const (
	FlagAddr            = "addr"
	FlagPasscode        = "passcode"
	FlagTemplate        = "template"
	FlagOutputDir       = "output-dir"
	FlagSessionStore    = "session-store"
	FlagSessionTTL      = "session-ttl"
	FlagJanitorInterval = "janitor-interval"
	FlagMergeTimeout    = "merge-timeout"
	FlagAllowedOrigins  = "allowed-origins"
)

// BindFlags registers the override flags on fs. Their defaults only feed the
// help text; ApplyFlags copies values the user actually set.
func BindFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.String(FlagAddr, d.Addr, "HTTP listen address")
	fs.String(FlagPasscode, d.Passcode, "shared passcode asked at the start of every session")
	fs.String(FlagTemplate, d.TemplatePath, "path to the xlsx report template")
	fs.String(FlagOutputDir, d.OutputDir, "directory for generated reports")
	fs.String(FlagSessionStore, d.SessionStore, "session store backend (sqlite|memory)")
	fs.Duration(FlagSessionTTL, d.SessionTTL, "evict sessions idle for longer than this")
	fs.Duration(FlagJanitorInterval, d.JanitorInterval, "how often to look for idle sessions")
	fs.Duration(FlagMergeTimeout, d.MergeTimeout, "maximum time to process one message, including report generation")
	fs.StringSlice(FlagAllowedOrigins, d.AllowedOrigins, "CORS allowed origins (\"*\" for any)")
}

// ApplyFlags copies every flag the user set explicitly on fs into cfg.
// Flags missing from fs are skipped, so commands may bind a subset.
func ApplyFlags(cfg *Config, fs *pflag.FlagSet) error {
	var errs []error
	str := func(name string, dst *string) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			v, err := fs.GetString(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			v, err := fs.GetDuration(name)
			errs = append(errs, err)
			*dst = v
		}
	}

	str(FlagAddr, &cfg.Addr)
	str(FlagPasscode, &cfg.Passcode)
	str(FlagTemplate, &cfg.TemplatePath)
	str(FlagOutputDir, &cfg.OutputDir)
	str(FlagSessionStore, &cfg.SessionStore)
	dur(FlagSessionTTL, &cfg.SessionTTL)
	dur(FlagJanitorInterval, &cfg.JanitorInterval)
	dur(FlagMergeTimeout, &cfg.MergeTimeout)
	if f := fs.Lookup(FlagAllowedOrigins); f != nil && f.Changed {
		v, err := fs.GetStringSlice(FlagAllowedOrigins)
		errs = append(errs, err)
		cfg.AllowedOrigins = v
	}
	return errors.Join(errs...)
}

// Validate reports every setting that cannot work.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Passcode) == "" {
		errs = append(errs, errors.New("passcode must not be empty"))
	}
	if c.TemplatePath == "" {
		errs = append(errs, errors.New("template_path is required"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir is required"))
	}
	if c.SessionStore != StoreSQLite && c.SessionStore != StoreMemory {
		errs = append(errs, fmt.Errorf("session_store must be %q or %q, got %q", StoreSQLite, StoreMemory, c.SessionStore))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session_ttl must be positive, got %s", c.SessionTTL))
	}
	if c.JanitorInterval <= 0 {
		errs = append(errs, fmt.Errorf("janitor_interval must be positive, got %s", c.JanitorInterval))
	}
	if c.MergeTimeout < 0 {
		errs = append(errs, fmt.Errorf("merge_timeout must not be negative, got %s", c.MergeTimeout))
	}
	return errors.Join(errs...)
}
