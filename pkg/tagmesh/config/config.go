// Package config loads engine thresholds from YAML files in the same way
// the rest of the application configures itself. Absent values fall back to
// the package defaults of each engine component.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/tagmesh/pkg/tagmesh/cluster"
	"github.com/cognicore/tagmesh/pkg/tagmesh/internalerr"
	"github.com/cognicore/tagmesh/pkg/tagmesh/maintenance"
	"github.com/cognicore/tagmesh/pkg/tagmesh/merge"
)

// Config holds the tunable knobs of the engine.
type Config struct {
	Merge   MergeConfig   `yaml:"merge"`
	Cluster ClusterConfig `yaml:"cluster"`
	Trends  TrendsConfig  `yaml:"trends"`
}

// MergeConfig configures merge suggestion detection.
type MergeConfig struct {
	// SimilarityThreshold is the minimum name similarity, in (0, 1], for a
	// pair of tags to be suggested as duplicates.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// ClusterConfig configures greedy tag grouping.
type ClusterConfig struct {
	// CooccurrenceRatio is the minimum overlap/min(|A|,|B|) ratio, in
	// (0, 1], for two tags to share a cluster group.
	CooccurrenceRatio float64 `yaml:"cooccurrence_ratio"`
}

// TrendsConfig configures trend snapshots.
type TrendsConfig struct {
	// RefreshInterval is how long a trend snapshot stays fresh, e.g. "24h".
	RefreshInterval Duration `yaml:"refresh_interval"`
}

// Duration wraps time.Duration so YAML values like "24h" decode directly.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%w: bad duration %q", internalerr.ErrInvalidConfig, raw)
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the engine's built-in configuration.
func Default() Config {
	return Config{
		Merge:   MergeConfig{SimilarityThreshold: merge.DefaultThreshold},
		Cluster: ClusterConfig{CooccurrenceRatio: cluster.DefaultRatio},
		Trends:  TrendsConfig{RefreshInterval: Duration(maintenance.DefaultTrendInterval)},
	}
}

// Load reads a YAML config file, layering it over Default.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks that every knob is in range.
func (c Config) Validate() error {
	if c.Merge.SimilarityThreshold <= 0 || c.Merge.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: merge.similarity_threshold %f not in (0, 1]", internalerr.ErrInvalidConfig, c.Merge.SimilarityThreshold)
	}
	if c.Cluster.CooccurrenceRatio <= 0 || c.Cluster.CooccurrenceRatio > 1 {
		return fmt.Errorf("%w: cluster.cooccurrence_ratio %f not in (0, 1]", internalerr.ErrInvalidConfig, c.Cluster.CooccurrenceRatio)
	}
	if c.Trends.RefreshInterval <= 0 {
		return fmt.Errorf("%w: trends.refresh_interval must be positive", internalerr.ErrInvalidConfig)
	}
	return nil
}
