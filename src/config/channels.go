package config

import (
	"fmt"
	"strings"

	"github.com/sofmeright/nightlyfreight/src/artifact"
)

// Channel names.
const (
	ChannelNightly = "nightly"
	ChannelRC      = "rc"
	ChannelCanary  = "v8-canary"
)

// ChannelConfig is the user-tunable part of a channel.
type ChannelConfig struct {
	BaseURL      string `yaml:"base_url" toml:"base_url"`
	MinimumMajor int    `yaml:"minimum_major" toml:"minimum_major"`
}

// ChannelsConfig holds the three known channels.
type ChannelsConfig struct {
	Nightly ChannelConfig `yaml:"nightly" toml:"nightly"`
	RC      ChannelConfig `yaml:"rc" toml:"rc"`
	Canary  ChannelConfig `yaml:"v8_canary" toml:"v8_canary"`
}

// DefaultChannels points at the nodejs.org download mirrors.
func DefaultChannels() ChannelsConfig {
	return ChannelsConfig{
		Nightly: ChannelConfig{BaseURL: "https://nodejs.org/download/nightly/", MinimumMajor: 10},
		RC:      ChannelConfig{BaseURL: "https://nodejs.org/download/rc/", MinimumMajor: 10},
		Canary:  ChannelConfig{BaseURL: "https://nodejs.org/download/v8-canary/"},
	}
}

// ChannelSpec is the resolved, immutable description of one channel.
type ChannelSpec struct {
	Name         string
	BaseURL      string // always ends with "/"
	MinimumMajor int
	Rule         artifact.Rule
	TagSuffix    string // appended after v<major>

	// Required channels fail the run when nothing is selectable.
	Required bool

	// HighestOnly builds only the newest major line of the channel.
	HighestOnly bool
}

// Specs returns the channel specs in canary, nightly, rc order.
func (c ChannelsConfig) Specs() []ChannelSpec {
	return []ChannelSpec{c.Spec(ChannelCanary), c.Spec(ChannelNightly), c.Spec(ChannelRC)}
}

// Spec returns the spec for a named channel. Unknown names yield a zero spec.
func (c ChannelsConfig) Spec(name string) ChannelSpec {
	switch name {
	case ChannelNightly:
		return ChannelSpec{
			Name:         ChannelNightly,
			BaseURL:      withSlash(c.Nightly.BaseURL),
			MinimumMajor: c.Nightly.MinimumMajor,
			Rule:         artifact.RuleDate,
		}
	case ChannelRC:
		return ChannelSpec{
			Name:         ChannelRC,
			BaseURL:      withSlash(c.RC.BaseURL),
			MinimumMajor: c.RC.MinimumMajor,
			Rule:         artifact.RuleRC,
			TagSuffix:    "-rc",
		}
	case ChannelCanary:
		return ChannelSpec{
			Name:         ChannelCanary,
			BaseURL:      withSlash(c.Canary.BaseURL),
			MinimumMajor: c.Canary.MinimumMajor,
			Rule:         artifact.RuleDate,
			TagSuffix:    "-v8-canary",
			Required:     true,
			HighestOnly:  true,
		}
	default:
		return ChannelSpec{}
	}
}

// LookupChannel resolves a channel name given on the command line.
func (c ChannelsConfig) LookupChannel(name string) (ChannelSpec, error) {
	switch strings.ToLower(name) {
	case ChannelNightly:
		return c.Spec(ChannelNightly), nil
	case ChannelRC:
		return c.Spec(ChannelRC), nil
	case ChannelCanary, "canary":
		return c.Spec(ChannelCanary), nil
	default:
		return ChannelSpec{}, fmt.Errorf("unknown channel %q (valid: %s, %s, %s)", name, ChannelNightly, ChannelRC, ChannelCanary)
	}
}

func withSlash(u string) string {
	if u == "" || strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}
