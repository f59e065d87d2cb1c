package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var (
	validEngines      = []string{"api", "buildx"}
	validPublishModes = []string{"command", "api"}
)

// Validate checks structural invariants of a loaded Config.
// All problems are reported together.
func Validate(cfg *Config) error {
	var errs []string

	// ── Registry ──────────────────────────────────────────────────────────

	if strings.TrimSpace(cfg.Registry.Namespace) == "" {
		errs = append(errs, "registry.namespace: required")
	}
	if strings.TrimSpace(cfg.Registry.Repository) == "" {
		errs = append(errs, "registry.repository: required")
	}

	// ── Channels ──────────────────────────────────────────────────────────

	channels := []struct {
		key string
		ch  ChannelConfig
	}{
		{"channels.nightly", cfg.Channels.Nightly},
		{"channels.rc", cfg.Channels.RC},
		{"channels.v8_canary", cfg.Channels.Canary},
	}
	for _, c := range channels {
		u, err := url.Parse(c.ch.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("%s.base_url: must be an absolute http(s) URL, got %q", c.key, c.ch.BaseURL))
		}
		if c.ch.MinimumMajor < 0 {
			errs = append(errs, fmt.Sprintf("%s.minimum_major: must be >= 0, got %d", c.key, c.ch.MinimumMajor))
		}
	}

	// ── Build / Publish ───────────────────────────────────────────────────

	if !contains(validEngines, cfg.Build.Engine) {
		errs = append(errs, fmt.Sprintf("build.engine: unknown engine %q (supported: %s)", cfg.Build.Engine, strings.Join(validEngines, ", ")))
	}
	if cfg.Build.Context == "" {
		errs = append(errs, "build.context: required")
	}
	if !contains(validPublishModes, cfg.Publish.Mode) {
		errs = append(errs, fmt.Sprintf("publish.mode: unknown mode %q (supported: %s)", cfg.Publish.Mode, strings.Join(validPublishModes, ", ")))
	}

	// ── Listing / Metrics ─────────────────────────────────────────────────

	if cfg.Listing.Timeout != "" {
		if _, err := time.ParseDuration(cfg.Listing.Timeout); err != nil {
			errs = append(errs, fmt.Sprintf("listing.timeout: %v", err))
		}
	}
	if cfg.Metrics.Enabled() && cfg.Metrics.Job == "" {
		errs = append(errs, "metrics.job: required when metrics.pushgateway is set")
	}

	if len(errs) > 0 {
		return errors.New("invalid config:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}

// ListingTimeout returns the parsed listing timeout, zero when unset.
func (c *Config) ListingTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Listing.Timeout)
	return d
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
