// Package config loads hunkstage settings from defaults, a YAML file, a
// .env file and HUNKSTAGE_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the repository root.
const FileName = ".hunkstage.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HUNKSTAGE_"

// Differ names accepted by patch.differ.
const (
	DifferBuiltin = "builtin"
	DifferGit     = "git"
)

// Colour modes accepted by ui.color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds every tunable. Zero values are replaced by defaults.
type Config struct {
	Git   GitConfig   `yaml:"git"`
	Patch PatchConfig `yaml:"patch"`
	Log   LogConfig   `yaml:"log"`
	UI    UIConfig    `yaml:"ui"`
}

// GitConfig controls how the git binary is invoked.
type GitConfig struct {
	Binary      string        `yaml:"binary"`
	Timeout     time.Duration `yaml:"timeout"`
	LockRetries int           `yaml:"lock_retries"` // retries while .git/index.lock is held
}

// PatchConfig controls patch synthesis.
type PatchConfig struct {
	Differ  string `yaml:"differ"` // "builtin" or "git"
	Context int    `yaml:"context"`
	Verify  *bool  `yaml:"verify"` // nil = default true
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// UIConfig controls terminal output.
type UIConfig struct {
	Color string `yaml:"color"`
}

// VerifyEnabled reports whether synthesized patches are checked in memory
// before they are staged.
func (p PatchConfig) VerifyEnabled() bool {
	return p.Verify == nil || *p.Verify
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	var cfg Config
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	c.Git.Binary = strings.TrimSpace(c.Git.Binary)
	if c.Git.Binary == "" {
		c.Git.Binary = "git"
	}
	if c.Git.Timeout <= 0 {
		c.Git.Timeout = 30 * time.Second
	}
	if c.Git.LockRetries < 0 {
		c.Git.LockRetries = 0
	}

	c.Patch.Differ = strings.ToLower(strings.TrimSpace(c.Patch.Differ))
	if c.Patch.Differ == "" {
		c.Patch.Differ = DifferBuiltin
	}
	if c.Patch.Context <= 0 {
		c.Patch.Context = 3
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}

	c.UI.Color = strings.ToLower(strings.TrimSpace(c.UI.Color))
	if c.UI.Color == "" {
		c.UI.Color = ColorAuto
	}
}

// Validate checks enumerated settings. It is run by Load and should be run
// again after flags have been applied.
func (c *Config) Validate() error {
	switch c.Patch.Differ {
	case DifferBuiltin, DifferGit:
	default:
		return fmt.Errorf("patch.differ must be %q or %q, got %q", DifferBuiltin, DifferGit, c.Patch.Differ)
	}
	switch c.UI.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("ui.color must be auto, always or never, got %q", c.UI.Color)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not a known level", c.Log.Level)
	}
	return nil
}

// LoadOptions tells Load where to look.
type LoadOptions struct {
	// RepoRoot is searched for FileName and .env.
	RepoRoot string
	// ConfigPath overrides the YAML file location. An explicit path that
	// does not exist is an error, the implicit one is optional.
	ConfigPath string
	// LookupEnv reads the process environment. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load builds a Config from every source.
func Load(opts LoadOptions) (Config, error) {
	var cfg Config

	path := strings.TrimSpace(opts.ConfigPath)
	explicit := path != ""
	if !explicit {
		path = filepath.Join(opts.RepoRoot, FileName)
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	dotenv, err := godotenv.Read(filepath.Join(opts.RepoRoot, ".env"))
	if err != nil {
		// A missing .env file is fine, but other errors should be surfaced.
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, fmt.Errorf("failed to load .env: %w", err)
		}
		dotenv = nil
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env := func(key string) (string, bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			return v, true
		}
		v, ok := dotenv[EnvPrefix+key]
		return v, ok
	}
	if err := cfg.applyEnv(env); err != nil {
		return Config{}, err
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(env func(string) (string, bool)) error {
	if v, ok := env("GIT_BINARY"); ok {
		c.Git.Binary = v
	}
	if v, ok := env("GIT_TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sGIT_TIMEOUT: %w", EnvPrefix, err)
		}
		c.Git.Timeout = d
	}
	if v, ok := env("GIT_LOCK_RETRIES"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sGIT_LOCK_RETRIES: %w", EnvPrefix, err)
		}
		c.Git.LockRetries = n
	}
	if v, ok := env("PATCH_DIFFER"); ok {
		c.Patch.Differ = v
	}
	if v, ok := env("PATCH_CONTEXT"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sPATCH_CONTEXT: %w", EnvPrefix, err)
		}
		c.Patch.Context = n
	}
	if v, ok := env("PATCH_VERIFY"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sPATCH_VERIFY: %w", EnvPrefix, err)
		}
		c.Patch.Verify = &b
	}
	if v, ok := env("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := env("LOG_FILE"); ok {
		c.Log.File = v
	}
	if v, ok := env("COLOR"); ok {
		c.UI.Color = v
	}
	return nil
}
