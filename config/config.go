// Package config handles pghelp configuration.
//
// Config is stored at $XDG_CONFIG_HOME/pghelp/config.yaml (defaults to
// ~/.config/pghelp/config.yaml). A missing file yields the built-in
// defaults, which reproduce the classic harvest setup: the official
// postgres images, superuser password "postgres", output under
// ./help_files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Config holds the harvest targets and output layout.
type Config struct {
	// Versions is the ordered list of server releases to harvest.
	Versions []string `yaml:"versions"`

	// ImageRepo is the image repository; the version is appended as tag.
	ImageRepo string `yaml:"image-repo"`

	// SuperuserPassword is passed to the container as POSTGRES_PASSWORD.
	SuperuserPassword string `yaml:"superuser-password"`

	// OutputDir is the root of the help-file tree.
	OutputDir string `yaml:"output-dir"`

	// PublishBasePort, when non-zero, publishes each instance's 5432 on
	// PublishBasePort+index so harvested servers stay reachable during a run.
	PublishBasePort int `yaml:"publish-base-port,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Versions:          []string{"9.6", "10", "11", "12", "13", "14", "15", "16", "17"},
		ImageRepo:         "postgres",
		SuperuserPassword: "postgres",
		OutputDir:         "help_files",
	}
}

// Path returns the config file location. It respects XDG_CONFIG_HOME,
// falling back to ~/.config/pghelp/config.yaml.
func Path() string {
	return filepath.Join(xdg.ConfigHome, "pghelp", "config.yaml")
}

// DataDir returns the directory for pghelp's run-history database.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "pghelp")
}

// Load reads the config file. If the file does not exist, Default()
// is returned (not an error). Fields left empty in the file keep their
// default values.
func Load() (*Config, error) {
	return loadFrom(Path())
}

func loadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(cfg.Versions) == 0 {
		cfg.Versions = Default().Versions
	}
	if cfg.ImageRepo == "" {
		cfg.ImageRepo = Default().ImageRepo
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = Default().OutputDir
	}
	return cfg, nil
}

// Save writes the config to disk, creating directories as needed.
func (c *Config) Save() error {
	p := Path()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Image returns the full image reference for a version.
func (c *Config) Image(version string) string {
	return c.ImageRepo + ":" + version
}
