package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".nightlyfreight.yml"

// Config is the top-level nightlyfreight configuration.
type Config struct {
	Registry RegistryConfig `yaml:"registry" toml:"registry"`

	// FloatLatest additionally tags the highest nightly major as "latest".
	FloatLatest bool `yaml:"float_latest" toml:"float_latest"`

	Channels ChannelsConfig `yaml:"channels" toml:"channels"`
	Build    BuildConfig    `yaml:"build" toml:"build"`
	Publish  PublishConfig  `yaml:"publish" toml:"publish"`
	Listing  ListingConfig  `yaml:"listing" toml:"listing"`
	Metrics  MetricsConfig  `yaml:"metrics" toml:"metrics"`
}

// RegistryConfig names where images are tagged and pushed.
type RegistryConfig struct {
	Namespace   string `yaml:"namespace" toml:"namespace"`
	Repository  string `yaml:"repository" toml:"repository"`
	Credentials string `yaml:"credentials" toml:"credentials"` // env var prefix: <PREFIX>_USER / <PREFIX>_PASS
	Address     string `yaml:"address" toml:"address"`         // registry host for auth, default docker.io
}

// BuildConfig controls how images are built.
type BuildConfig struct {
	Engine     string `yaml:"engine" toml:"engine"`         // "api" (engine socket) or "buildx" (docker CLI)
	Context    string `yaml:"context" toml:"context"`       // build directory holding the Dockerfile
	Dockerfile string `yaml:"dockerfile" toml:"dockerfile"` // relative to Context
}

// PublishConfig controls how tags are pushed.
type PublishConfig struct {
	Mode string `yaml:"mode" toml:"mode"` // "command" (docker push) or "api" (engine socket)
}

// ListingConfig controls listing fetches.
type ListingConfig struct {
	// Timeout is a Go duration string. Empty means no timeout.
	Timeout string `yaml:"timeout" toml:"timeout"`
}

// MetricsConfig enables pushing run metrics to a Prometheus Pushgateway.
type MetricsConfig struct {
	Pushgateway string `yaml:"pushgateway" toml:"pushgateway"`
	Job         string `yaml:"job" toml:"job"`
}

// Enabled returns true when a pushgateway URL is configured.
func (m MetricsConfig) Enabled() bool { return m.Pushgateway != "" }

// Load reads configuration from a YAML or TOML file.
// If path is empty, it tries the default file.
// Returns defaults if the default file doesn't exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return Defaults(), nil
		}
		return nil, err
	}

	cfg := Defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return &Config{
		Registry: RegistryConfig{
			Namespace:  "nodejs",
			Repository: "node_nightly",
			Address:    "docker.io",
		},
		Channels: DefaultChannels(),
		Build: BuildConfig{
			Engine:     "api",
			Context:    ".",
			Dockerfile: "Dockerfile",
		},
		Publish: PublishConfig{Mode: "command"},
		Metrics: MetricsConfig{Job: "nightlyfreight"},
	}
}
