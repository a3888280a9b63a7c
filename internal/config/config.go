// Package config loads and validates the updater's startup configuration.
// The configuration is read once at startup and never mutated afterwards;
// components receive immutable snapshots.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/archway-app/updater/internal/manifest"
	"github.com/archway-app/updater/internal/verify"
)

const envPrefix = "ARCHWAY_UPDATE"

// Config is everything the update core consumes at startup.
type Config struct {
	// Owner and Repo locate the release repository in production mode.
	Owner string `mapstructure:"owner"`
	Repo  string `mapstructure:"repo"`

	// PublicKey is the release signing key: base64/hex raw ed25519, a
	// minisign public key, or PEM SPKI for the legacy RSA scheme.
	PublicKey string `mapstructure:"public_key"`

	// ManifestBaseURL, when set, replaces the production URL derivation
	// entirely (override mode).
	ManifestBaseURL string `mapstructure:"manifest_base_url"`

	// Platform is the artifact platform token; defaults to the running OS.
	Platform string `mapstructure:"platform"`

	// FetchTimeout is the hard deadline for one manifest fetch.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig selects logger verbosity and encoding.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultPlatform maps the running OS to its manifest platform token.
func DefaultPlatform() string {
	if runtime.GOOS == "windows" {
		return manifest.PlatformWin32
	}
	return runtime.GOOS
}

// Default returns a configuration with sensible defaults. Owner, Repo, and
// PublicKey have no defaults: they must be configured explicitly.
func Default() *Config {
	return &Config{
		Platform:     DefaultPlatform(),
		FetchTimeout: 30 * time.Second,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from the given file (optional) and the
// ARCHWAY_UPDATE_* environment, layered over defaults. The result is
// validated before it is returned.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper knows about, so every key must be bound
	// explicitly for env-only configuration to work.
	for _, key := range []string{
		"owner", "repo", "public_key", "manifest_base_url",
		"platform", "fetch_timeout", "log.level", "log.format",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	def := Default()
	v.SetDefault("platform", def.Platform)
	v.SetDefault("fetch_timeout", def.FetchTimeout)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and reports every problem at once, each
// naming the offending field. A configuration failure is distinct from any
// network failure.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.PublicKey) == "" {
		problems = append(problems, "public_key: missing")
	} else if _, err := verify.ParsePublicKey(c.PublicKey); err != nil {
		problems = append(problems, fmt.Sprintf("public_key: %v", err))
	}

	if strings.TrimSpace(c.ManifestBaseURL) == "" {
		if strings.TrimSpace(c.Owner) == "" {
			problems = append(problems, "owner: missing (required without manifest_base_url)")
		}
		if strings.TrimSpace(c.Repo) == "" {
			problems = append(problems, "repo: missing (required without manifest_base_url)")
		}
	}

	switch c.Platform {
	case manifest.PlatformDarwin, manifest.PlatformLinux, manifest.PlatformWin32:
	default:
		problems = append(problems, fmt.Sprintf("platform: unsupported %q (supported: darwin, linux, win32)", c.Platform))
	}

	if c.FetchTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("fetch_timeout: must be positive (got %s)", c.FetchTimeout))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid updater configuration:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// ManifestURL derives the URL the fetcher should use: the override base when
// configured, otherwise the production latest-release URL.
func (c *Config) ManifestURL() (string, error) {
	if base := strings.TrimSpace(c.ManifestBaseURL); base != "" {
		return manifest.OverrideURL(base), nil
	}
	return manifest.ProductionURL(c.Owner, c.Repo)
}
