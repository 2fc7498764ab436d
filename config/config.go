// Package config loads the YAML configuration of the dbdb command.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultVantageCount = 20
	DefaultK            = 5
	DefaultDistance     = "kcorr"
	DefaultKernelMult   = 1.0
	DefaultRadiusFactor = 2.0
	DefaultCatalogName  = "catalog.db"
)

// Config defines index locations and search settings.
type Config struct {
	// DataDir holds the vantage stores and, by default, the catalog.
	DataDir string `yaml:"dataDir"`
	// ItemsURL is the afs location of the encoded series.
	ItemsURL string `yaml:"itemsURL"`
	// Include and Exclude filter item names, see series.Filter.
	Include      []string      `yaml:"include"`
	Exclude      []string      `yaml:"exclude"`
	Catalog      string        `yaml:"catalog"`
	VantageCount int           `yaml:"vantageCount"`
	K            int           `yaml:"k"`
	Distance     string        `yaml:"distance"`
	KernelMult   float64       `yaml:"kernelMult"`
	RadiusFactor float64       `yaml:"radiusFactor"`
	LockTimeout  time.Duration `yaml:"lockTimeout"`
	NodeCache    int           `yaml:"nodeCache"`
	Sync         bool          `yaml:"sync"`
	Seed         uint64        `yaml:"seed"`
}

// Default returns a config rooted at the current directory.
func Default() *Config {
	cfg := &Config{DataDir: ".", ItemsURL: "."}
	_ = cfg.Init()
	return cfg
}

// Load reads the YAML config at path and applies defaults.
func Load(path string) (*Config, error) {
	path, err := expandUserPath(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Init(); err != nil {
		return nil, err
	}
	return &cfg, cfg.Validate()
}

// Init fills defaults and expands ~ in paths.
func (c *Config) Init() error {
	if c.DataDir == "" {
		c.DataDir = "."
	}
	if c.ItemsURL == "" {
		c.ItemsURL = c.DataDir
	}
	if c.Catalog == "" {
		c.Catalog = filepath.Join(c.DataDir, DefaultCatalogName)
	}
	if c.VantageCount == 0 {
		c.VantageCount = DefaultVantageCount
	}
	if c.K == 0 {
		c.K = DefaultK
	}
	if c.Distance == "" {
		c.Distance = DefaultDistance
	}
	if c.KernelMult == 0 {
		c.KernelMult = DefaultKernelMult
	}
	if c.RadiusFactor == 0 {
		c.RadiusFactor = DefaultRadiusFactor
	}
	var err error
	for _, p := range []*string{&c.DataDir, &c.ItemsURL, &c.Catalog} {
		if *p, err = expandUserPath(*p); err != nil {
			return err
		}
	}
	return nil
}

// Validate rejects settings that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.VantageCount < 0:
		return fmt.Errorf("config: vantageCount must be positive, got %d", c.VantageCount)
	case c.K < 0:
		return fmt.Errorf("config: k must be positive, got %d", c.K)
	case c.RadiusFactor < 0:
		return fmt.Errorf("config: radiusFactor must be positive, got %v", c.RadiusFactor)
	case c.LockTimeout < 0:
		return fmt.Errorf("config: lockTimeout must not be negative, got %v", c.LockTimeout)
	}
	return nil
}

func expandUserPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed[0] != '~' {
		return path, nil
	}
	if trimmed != "~" && !strings.HasPrefix(trimmed, "~/") {
		return "", fmt.Errorf("config: unsupported ~user path: %s", path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(trimmed, "~")), nil
}
