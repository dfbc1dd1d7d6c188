// Package config loads the triage configuration file and applies
// environment overrides.
package config

import (
	"fmt"
	"os"

	"github.com/triagehq/triage/internal/linkage"
	"github.com/triagehq/triage/internal/sources"
	"gopkg.in/yaml.v3"
)

// ResolverKind selects the tracker-link resolver implementation
type ResolverKind string

const (
	ResolverStatic ResolverKind = "static"
	ResolverJira   ResolverKind = "jira"
	ResolverAI     ResolverKind = "ai"
)

// IsValid checks if the resolver kind is valid
func (k ResolverKind) IsValid() bool {
	switch k {
	case ResolverStatic, ResolverJira, ResolverAI:
		return true
	}
	return false
}

// Config is the top-level configuration
type Config struct {
	// DBPath is the SQLite database file path
	DBPath string `yaml:"db_path"`

	// Resolver selects the tracker-link lookup backend
	Resolver ResolverKind `yaml:"resolver"`

	// EnrichConcurrency bounds parallel resolver calls during enrichment.
	// Zero means the enricher default.
	EnrichConcurrency int `yaml:"enrich_concurrency"`

	// Static holds the match table for the static resolver
	Static map[string]linkage.Entry `yaml:"static,omitempty"`

	// Jira configures the Jira-backed resolver
	Jira linkage.JiraConfig `yaml:"jira,omitempty"`

	// AI configures the model-backed resolver
	AI linkage.AIResolverConfig `yaml:"ai,omitempty"`

	// Sources lists the observation feeds to poll each sweep
	Sources []sources.HTTPAdapterConfig `yaml:"sources,omitempty"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		DBPath:   ".triage/triage.db",
		Resolver: ResolverStatic,
	}
}

// Load reads the configuration from path. A missing file yields the default
// configuration; a malformed one is an error. Environment overrides
// (TRIAGE_DB_PATH, TRIAGE_RESOLVER) are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if dbPath := os.Getenv("TRIAGE_DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if resolver := os.Getenv("TRIAGE_RESOLVER"); resolver != "" {
		cfg.Resolver = ResolverKind(resolver)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if !c.Resolver.IsValid() {
		return fmt.Errorf("invalid resolver: %s (want static, jira, or ai)", c.Resolver)
	}
	if c.EnrichConcurrency < 0 {
		return fmt.Errorf("enrich_concurrency cannot be negative")
	}
	for i := range c.Sources {
		if err := c.Sources[i].Validate(); err != nil {
			return fmt.Errorf("source %d: %w", i, err)
		}
	}
	return nil
}

// BuildResolver constructs the configured tracker-link resolver
func (c *Config) BuildResolver() (linkage.Resolver, error) {
	switch c.Resolver {
	case ResolverStatic:
		return linkage.NewStaticResolver(c.Static), nil
	case ResolverJira:
		return linkage.NewJiraResolver(c.Jira)
	case ResolverAI:
		return linkage.NewAIResolver(c.AI)
	default:
		return nil, fmt.Errorf("invalid resolver: %s", c.Resolver)
	}
}

// BuildAdapters constructs the configured source adapters
func (c *Config) BuildAdapters() ([]sources.Adapter, error) {
	adapters := make([]sources.Adapter, 0, len(c.Sources))
	for i := range c.Sources {
		adapter, err := sources.NewHTTPAdapter(c.Sources[i])
		if err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
		adapters = append(adapters, adapter)
	}
	return adapters, nil
}
