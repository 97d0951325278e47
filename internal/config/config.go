// Package config loads and validates the sitegraph configuration file.
package config

import (
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	sgerrors "git.home.luguber.info/inful/sitegraph/internal/errors"
)

// Config is the top-level configuration.
type Config struct {
	// Title names the site; used by the sitemap exporter and page writer.
	Title string `yaml:"title"`
	// BaseURL is the public origin, e.g. https://docs.example.com. Only the
	// sitemap exporter needs it; page URLs stay root-relative.
	BaseURL string `yaml:"base_url,omitempty"`
	// ContentDir is the root of the document corpus.
	ContentDir string `yaml:"content_dir"`
	// Outline is the path to the indented bullet-list navigation source.
	Outline string `yaml:"outline"`
	// Output is the directory the writer and exporters produce into.
	Output string `yaml:"output,omitempty"`
	// AssetPrefix is prepended to content-relative image paths by the default
	// image resolver. A real deployment swaps in a hashed-asset mapping.
	AssetPrefix string `yaml:"asset_prefix,omitempty"`
	// StrictFragments validates cross-document fragments against the target
	// document's anchor table instead of passing them through verbatim.
	StrictFragments bool `yaml:"strict_fragments,omitempty"`
	// StrictOutline escalates outline/registry parse warnings to a build
	// failure (intended for CI; local authoring keeps them advisory).
	StrictOutline bool `yaml:"strict_outline,omitempty"`

	Build   BuildConfig   `yaml:"build,omitempty"`
	Preview PreviewConfig `yaml:"preview,omitempty"`
}

// BuildConfig holds build tuning knobs.
type BuildConfig struct {
	// RenderConcurrency caps the number of unrelated pages rendered in
	// parallel. Defaults to 1 (fully deterministic ordering); values <1 are
	// coerced to 1.
	RenderConcurrency int `yaml:"render_concurrency,omitempty"`
	// LinkIndex, when set, is the SQLite file the link index is exported to.
	LinkIndex string `yaml:"link_index,omitempty"`
}

// PreviewConfig holds the local preview server settings.
type PreviewConfig struct {
	Addr string `yaml:"addr,omitempty"`
	// Watch rebuilds the site when the outline or content changes.
	Watch bool `yaml:"watch,omitempty"`
}

// Load reads, decodes, defaults, and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, sgerrors.ConfigNotFound(path)
		}
		return nil, sgerrors.Wrap(err, sgerrors.CategoryConfig, sgerrors.SeverityFatal, "configuration read failed")
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, sgerrors.Wrap(err, sgerrors.CategoryConfig, sgerrors.SeverityFatal, "configuration parse failed")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Title == "" {
		c.Title = "Documentation"
	}
	if c.ContentDir == "" {
		c.ContentDir = "content"
	}
	if c.Outline == "" {
		c.Outline = "outline.txt"
	}
	if c.Output == "" {
		c.Output = "./site"
	}
	if c.AssetPrefix == "" {
		c.AssetPrefix = "/assets"
	}
	if c.Build.RenderConcurrency < 1 {
		c.Build.RenderConcurrency = 1
	}
	if c.Preview.Addr == "" {
		c.Preview.Addr = ":8080"
	}
	// Environment overrides, mainly for containerized previews.
	if addr := os.Getenv("SITEGRAPH_PREVIEW_ADDR"); addr != "" {
		c.Preview.Addr = addr
	}
}

// LogLevel resolves the effective slog level: the verbose flag wins, then
// the SITEGRAPH_LOG_LEVEL environment variable (debug, info, warn, error).
// Unknown values fall back to info.
func LogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(os.Getenv("SITEGRAPH_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate rejects configurations the build cannot work with.
func (c *Config) Validate() error {
	if c.ContentDir == "" {
		return sgerrors.ConfigRequired("content_dir")
	}
	if c.Outline == "" {
		return sgerrors.ConfigRequired("outline")
	}
	return nil
}

// ExampleYAML is the configuration scaffold written by the init command.
const ExampleYAML = `# sitegraph configuration
title: My Documentation
base_url: https://docs.example.com
content_dir: content
outline: outline.txt
output: ./site
asset_prefix: /assets

# Fail the build when a cross-document fragment does not match any anchor
# in the target document.
strict_fragments: false

build:
  render_concurrency: 1
  # link_index: ./site/links.db

preview:
  addr: :8080
  watch: true
`
