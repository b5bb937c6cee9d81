// Package config provides configuration loading and management for sslproxy.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete proxy configuration. It is assembled once
// at startup from an optional YAML file layered under explicit CLI flags;
// nothing in the running engine reloads or mutates it.
type Config struct {
	Listen    string `yaml:"listen"`
	Backend   string `yaml:"backend"`
	CertFile  string `yaml:"cert_file"`
	KeyFile   string `yaml:"key_file"`
	MaxConn   int    `yaml:"max_conn"`
	User      string `yaml:"user"`
	ChrootDir string `yaml:"chroot"`
	Monitor   string `yaml:"monitor"`
	Debug     bool   `yaml:"debug"`
}

// Default returns a Config with the same defaults as the distilled CLI
// surface: listen on all interfaces at 443, a 32-connection pool, and
// credential paths under /etc/symbion.
func Default() *Config {
	return &Config{
		Listen:   "0.0.0.0:443",
		MaxConn:  32,
		CertFile: "/etc/symbion/cert.pem",
		KeyFile:  "/etc/symbion/key.pem",
	}
}

// LoadFromFile reads a YAML config file and overlays it onto the defaults.
// Unlike devproxy's config, sslproxy never writes this file back out: it is
// an optional, static source of flag defaults supplied with -f, not state
// the proxy owns.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for errors. It is run once at startup,
// after CLI flags have been layered onto any -f file.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.Backend == "" {
		return fmt.Errorf("backend address is required")
	}
	if c.MaxConn <= 0 {
		return fmt.Errorf("max-conn must be positive")
	}
	if c.CertFile == "" {
		return fmt.Errorf("cert file is required")
	}
	if c.KeyFile == "" {
		return fmt.Errorf("key file is required")
	}
	return nil
}
