package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/PerezAngel/iep-bedrock-studio/internal/errors"
)

// Config is the root studio configuration, stored at
// ~/.studio/config.yaml with environment-variable overrides.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Identity IdentityConfig `yaml:"identity"`
	Log      LogConfig      `yaml:"log"`
}

// APIConfig holds backend endpoint settings.
type APIConfig struct {
	// Base is the root URL of the content/image backend.
	Base string `yaml:"base" env:"STUDIO_API_BASE"`
	// ContentBase overrides Base for the content endpoints when the text
	// backend is deployed separately. Empty means "same as Base".
	ContentBase string        `yaml:"content_base" env:"STUDIO_CONTENT_BASE"`
	Timeout     time.Duration `yaml:"timeout"      env:"STUDIO_API_TIMEOUT" env-default:"60s"`
	// UserEmail accompanies generation requests as the version creator.
	UserEmail string `yaml:"user_email" env:"STUDIO_USER_EMAIL" env-default:"test@example.com"`
}

// IdentityConfig holds the hosted-login provider settings.
type IdentityConfig struct {
	Domain      string `yaml:"domain"       env:"STUDIO_IDENTITY_DOMAIN"`
	ClientID    string `yaml:"client_id"    env:"STUDIO_IDENTITY_CLIENT_ID"`
	RedirectURI string `yaml:"redirect_uri" env:"STUDIO_IDENTITY_REDIRECT_URI"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"STUDIO_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"STUDIO_LOG_FORMAT" env-default:"text"`
}

// Dir returns the studio configuration directory, creating it if needed.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	dir := filepath.Join(home, ".studio")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return dir, nil
}

// Path returns the path of the configuration file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads configuration from path (falling back to the default path
// when empty), applies environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	var err error
	if path == "" {
		path, err = Path()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigNotFound, "locate configuration", err)
		}
	}

	cfg := &Config{}
	if _, statErr := os.Stat(path); statErr == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigInvalid, fmt.Sprintf("read %s", path), err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "read environment", err)
		}
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadLenient reads configuration like Load but skips validation, so
// partially filled files can still be inspected and edited.
func LoadLenient(path string) (*Config, error) {
	var err error
	if path == "" {
		path, err = Path()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigNotFound, "locate configuration", err)
		}
	}

	cfg := &Config{}
	if _, statErr := os.Stat(path); statErr == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigInvalid, fmt.Sprintf("read %s", path), err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "read environment", err)
		}
	}

	cfg.Normalize()
	return cfg, nil
}

// Normalize trims trailing slashes so URL joins stay predictable.
func (c *Config) Normalize() {
	c.API.Base = strings.TrimRight(strings.TrimSpace(c.API.Base), "/")
	c.API.ContentBase = strings.TrimRight(strings.TrimSpace(c.API.ContentBase), "/")
	c.Identity.Domain = strings.TrimRight(strings.TrimSpace(c.Identity.Domain), "/")
	if c.API.ContentBase == "" {
		c.API.ContentBase = c.API.Base
	}
}

// Validate checks the configuration at startup, before any remote call.
func (c *Config) Validate() error {
	if c.API.Base == "" {
		return errors.NewConfigInvalidError("api.base is required (set STUDIO_API_BASE)")
	}
	if err := validURL(c.API.Base); err != nil {
		return errors.NewConfigInvalidError(fmt.Sprintf("api.base: %v", err))
	}
	if err := validURL(c.API.ContentBase); err != nil {
		return errors.NewConfigInvalidError(fmt.Sprintf("api.content_base: %v", err))
	}
	if c.API.Timeout <= 0 {
		return errors.NewConfigInvalidError("api.timeout must be positive")
	}

	// Identity settings are optional as a block but must be complete
	// when any of them is set.
	id := c.Identity
	if id.Domain != "" || id.ClientID != "" || id.RedirectURI != "" {
		if id.Domain == "" || id.ClientID == "" || id.RedirectURI == "" {
			return errors.NewConfigInvalidError("identity requires domain, client_id and redirect_uri together")
		}
		if err := validURL(id.Domain); err != nil {
			return errors.NewConfigInvalidError(fmt.Sprintf("identity.domain: %v", err))
		}
		if err := validURL(id.RedirectURI); err != nil {
			return errors.NewConfigInvalidError(fmt.Sprintf("identity.redirect_uri: %v", err))
		}
	}
	return nil
}

// HasIdentity reports whether the hosted-login provider is configured.
func (c *Config) HasIdentity() bool {
	return c.Identity.Domain != "" && c.Identity.ClientID != "" && c.Identity.RedirectURI != ""
}

func validURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
