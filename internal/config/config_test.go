package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Import.CurveStride != 1 {
		t.Errorf("expected curve stride 1, got %d", cfg.Import.CurveStride)
	}
	if cfg.Import.VertexStride != 1 {
		t.Errorf("expected vertex stride 1, got %d", cfg.Import.VertexStride)
	}
	if cfg.Import.Radius != 0.2 {
		t.Errorf("expected radius 0.2, got %f", cfg.Import.Radius)
	}
	if cfg.Import.CircumferenceResolution != 8 {
		t.Errorf("expected circumference resolution 8, got %d", cfg.Import.CircumferenceResolution)
	}
	if cfg.Import.LengthResolution != 5 {
		t.Errorf("expected length resolution 5, got %d", cfg.Import.LengthResolution)
	}
	if !cfg.Import.CapEnds {
		t.Error("expected cap_ends to be true by default")
	}
	if cfg.Import.AutoColor {
		t.Error("expected auto_color to be false by default")
	}
	if cfg.Import.CenterCurves {
		t.Error("expected center_curves to be false by default")
	}

	if cfg.Output.Format != "obj" {
		t.Errorf("expected output format 'obj', got %s", cfg.Output.Format)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
import:
  curve_stride: 5
  vertex_stride: 2
  radius: 0.5
  circumference_resolution: 12
  length_resolution: 3
  cap_ends: false
  auto_color: true
  center_curves: true
  workers: 4

output:
  format: json
  path: out.json

logging:
  level: debug
  log_file: import.log
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Import.CurveStride != 5 {
		t.Errorf("expected curve stride 5, got %d", cfg.Import.CurveStride)
	}
	if cfg.Import.VertexStride != 2 {
		t.Errorf("expected vertex stride 2, got %d", cfg.Import.VertexStride)
	}
	if cfg.Import.Radius != 0.5 {
		t.Errorf("expected radius 0.5, got %f", cfg.Import.Radius)
	}
	if cfg.Import.CircumferenceResolution != 12 {
		t.Errorf("expected circumference resolution 12, got %d", cfg.Import.CircumferenceResolution)
	}
	if cfg.Import.CapEnds {
		t.Error("expected cap_ends to be false")
	}
	if !cfg.Import.AutoColor {
		t.Error("expected auto_color to be true")
	}
	if !cfg.Import.CenterCurves {
		t.Error("expected center_curves to be true")
	}
	if cfg.Import.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Import.Workers)
	}

	if cfg.Output.Format != "json" {
		t.Errorf("expected output format 'json', got %s", cfg.Output.Format)
	}
	if cfg.Output.Path != "out.json" {
		t.Errorf("expected output path 'out.json', got %s", cfg.Output.Path)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "import.log" {
		t.Errorf("expected log file 'import.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
import:
  radius: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	// Explicit missing path is an error
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing explicit config")
	}

	// No path and no standard file falls back to defaults
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with no config file should not fail: %v", err)
	}
	if cfg.Import.Radius != 0.2 {
		t.Errorf("expected default radius, got %f", cfg.Import.Radius)
	}
}

func TestSaveTo(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "sub", "config.yaml")

	cfg := Default()
	cfg.Import.CurveStride = 3
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reloading saved config failed: %v", err)
	}
	if loaded.Import.CurveStride != 3 {
		t.Errorf("expected curve stride 3 after round trip, got %d", loaded.Import.CurveStride)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}
