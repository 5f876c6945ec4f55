// Package config provides configuration loading and structs for the Utsushi server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Detect    DetectConfig    `yaml:"detect"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects the submission store backing. When DatabasePath is
// empty the engine keeps submissions in memory for the process lifetime.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// EmbeddingConfig holds ONNX embedder settings.
type EmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// DetectConfig holds detection pass settings. Threshold and Alpha are fixed
// per process so repeated runs over an unchanged corpus are reproducible.
// Both are pointers because 0 is a legitimate explicit value for each
// (report every pair; semantic-only weighting) and must not be rewritten
// to the default.
type DetectConfig struct {
	// Threshold is the minimum composite score at which a pair is reported.
	Threshold *float64 `yaml:"threshold"`
	// Alpha weights the structural term; the semantic term gets 1-alpha.
	Alpha *float64 `yaml:"alpha"`
	// Workers bounds pairwise scoring parallelism; 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
	// StructuralMetric selects the sequence similarity: "lcs" or "levenshtein".
	StructuralMetric string `yaml:"structural_metric"`
}

// ThresholdOrDefault returns the reporting threshold; defaults to 0.90 when unset.
func (d *DetectConfig) ThresholdOrDefault() float64 {
	if d.Threshold != nil {
		return *d.Threshold
	}
	return 0.90
}

// AlphaOrDefault returns the structural weight; defaults to 0.5 when unset.
func (d *DetectConfig) AlphaOrDefault() float64 {
	if d.Alpha != nil {
		return *d.Alpha
	}
	return 0.5
}

// WatchConfig holds submission intake directory settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies
// defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	if cfg.Storage.DatabasePath != "" {
		cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	}
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative
// to configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
