// Package config handles colimail configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/colimail/config.yaml, /config/config.yaml,
// /etc/colimail/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "colimail", "config.yaml"))
	}

	paths = append(paths, "/config/config.yaml") // Container convention
	paths = append(paths, "/etc/colimail/config.yaml")
	return paths
}

// searchPathsFunc is indirected so tests can substitute a fixed search
// order without touching the real filesystem locations.
var searchPathsFunc = DefaultSearchPaths

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	paths := searchPathsFunc()
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", paths)
}

// Config holds all colimail configuration.
type Config struct {
	DataDir  string          `yaml:"data_dir"`
	LogLevel string          `yaml:"log_level"`
	Chain    string          `yaml:"chain"`
	Accounts []AccountConfig `yaml:"accounts"`
}

// AccountConfig describes one mail account. Credential material is
// never stored here — PasswordRef/TokenRef/SigningKeyRef name entries
// in an external secret store (see internal/secret), resolved at
// connect/send time.
type AccountConfig struct {
	Name string `yaml:"name"`

	// Address is the account's canonical email address.
	Address string `yaml:"address"`

	IMAPHost string `yaml:"imap_host"`
	IMAPPort int    `yaml:"imap_port"`
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`

	// AuthKind is "password" or "bearer".
	AuthKind string `yaml:"auth_kind"`

	// PasswordRef/TokenRef name the secret store entry holding the
	// IMAP/SMTP password or OAuth2 bearer token, respectively.
	PasswordRef string `yaml:"password_ref"`
	TokenRef    string `yaml:"token_ref"`

	// SigningKeyRef names the secret store entry holding the
	// account's secp256k1 signing key, if CMVH signing is enabled.
	SigningKeyRef string `yaml:"signing_key_ref"`
}

// Load reads configuration from a YAML file, expands environment
// variables, applies defaults for any unset fields, and validates
// the result. Defaults cover DataDir, Chain, the IMAP/SMTP ports and
// AuthKind; other fields (LogLevel, hosts, Address, SigningKeyRef)
// are left empty when the file does not set them.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${HOME}). This is a
	// convenience for container deployments; the recommended approach
	// is to reference secrets by name via PasswordRef/TokenRef rather
	// than embedding them in the config file at all.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.Chain == "" {
		c.Chain = "Arbitrum"
	}
	for i := range c.Accounts {
		a := &c.Accounts[i]
		if a.IMAPPort == 0 {
			a.IMAPPort = 993
		}
		if a.SMTPPort == 0 {
			a.SMTPPort = 465
		}
		if a.AuthKind == "" {
			a.AuthKind = "password"
		}
	}
}

// Validate checks that the configuration is internally consistent.
// It runs after applyDefaults, so it can assume defaults are populated.
// Returns an error describing the first problem found, or nil.
func (c *Config) Validate() error {
	if c.LogLevel != "" {
		if _, err := ParseLogLevel(c.LogLevel); err != nil {
			return err
		}
	}
	for _, a := range c.Accounts {
		if a.Name == "" {
			return fmt.Errorf("account missing name")
		}
		if a.AuthKind != "password" && a.AuthKind != "bearer" {
			return fmt.Errorf("account %q: auth_kind must be \"password\" or \"bearer\", got %q", a.Name, a.AuthKind)
		}
		if a.AuthKind == "password" && a.PasswordRef == "" {
			return fmt.Errorf("account %q: auth_kind password requires password_ref", a.Name)
		}
		if a.AuthKind == "bearer" && a.TokenRef == "" {
			return fmt.Errorf("account %q: auth_kind bearer requires token_ref", a.Name)
		}
	}
	return nil
}
