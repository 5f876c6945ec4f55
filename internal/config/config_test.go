package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults: %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Detect.ThresholdOrDefault() != 0.90 {
		t.Errorf("threshold default = %v, want 0.90", cfg.Detect.ThresholdOrDefault())
	}
	if cfg.Detect.AlphaOrDefault() != 0.5 {
		t.Errorf("alpha default = %v, want 0.5", cfg.Detect.AlphaOrDefault())
	}
	if cfg.Detect.StructuralMetric != "lcs" {
		t.Errorf("structural metric default = %q, want lcs", cfg.Detect.StructuralMetric)
	}
	if cfg.Embedding.Dimensions != 768 {
		t.Errorf("dimensions default = %d, want 768", cfg.Embedding.Dimensions)
	}
	if cfg.Storage.DatabasePath != "" {
		t.Errorf("database path should default to empty (memory store), got %q", cfg.Storage.DatabasePath)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	threshold, alpha := 0.75, 0.3
	cfg.Detect.Threshold = &threshold
	cfg.Detect.Alpha = &alpha
	ApplyDefaults(cfg)
	if cfg.Detect.ThresholdOrDefault() != 0.75 {
		t.Errorf("explicit threshold overwritten: %v", cfg.Detect.ThresholdOrDefault())
	}
	if cfg.Detect.AlphaOrDefault() != 0.3 {
		t.Errorf("explicit alpha overwritten: %v", cfg.Detect.AlphaOrDefault())
	}
}

func TestLoad_ExplicitZeroThresholdAndAlpha(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
detect:
  threshold: 0
  alpha: 0
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	// threshold 0 reports every pair; alpha 0 weights the semantic term
	// alone. Neither may be rewritten to the default.
	if cfg.Detect.ThresholdOrDefault() != 0 {
		t.Errorf("explicit zero threshold rewritten to %v", cfg.Detect.ThresholdOrDefault())
	}
	if cfg.Detect.AlphaOrDefault() != 0 {
		t.Errorf("explicit zero alpha rewritten to %v", cfg.Detect.AlphaOrDefault())
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: 0.0.0.0
  port: 9090
storage:
  database_path: ./submissions.db
detect:
  threshold: 0.85
  alpha: 0.6
  workers: 4
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Detect.ThresholdOrDefault() != 0.85 || cfg.Detect.AlphaOrDefault() != 0.6 || cfg.Detect.Workers != 4 {
		t.Errorf("detect config: %+v", cfg.Detect)
	}
	if cfg.Detect.StructuralMetric != "lcs" {
		t.Errorf("metric should default: %q", cfg.Detect.StructuralMetric)
	}
	want := filepath.Join(dir, "submissions.db")
	if cfg.Storage.DatabasePath != want {
		t.Errorf("database path = %q, want %q", cfg.Storage.DatabasePath, want)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}
