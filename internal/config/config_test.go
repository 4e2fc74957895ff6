package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dtlc-lang/telescope/internal/elab"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.AltAppInference {
		t.Errorf("Default().AltAppInference = true, want false")
	}
	if cfg.Color != "auto" {
		t.Errorf("Default().Color = %q, want auto", cfg.Color)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "telescope.yaml")
	content := "alt_app_inference: true\ncolor: always\ndb_path: run.sqlite\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.AltAppInference {
		t.Errorf("AltAppInference = false, want true")
	}
	if cfg.Color != "always" {
		t.Errorf("Color = %q, want always", cfg.Color)
	}
	if cfg.DBPath != "run.sqlite" {
		t.Errorf("DBPath = %q, want run.sqlite", cfg.DBPath)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	os.Setenv("TELESCOPE_ALT_APP_INFERENCE", "1")
	defer os.Unsetenv("TELESCOPE_ALT_APP_INFERENCE")

	cfg := Default()
	cfg.LoadEnv()
	if !cfg.AltAppInference {
		t.Errorf("LoadEnv did not apply TELESCOPE_ALT_APP_INFERENCE=1")
	}
}

func TestApplyWiresElab(t *testing.T) {
	defer func() { elab.AltAppInference = false }()

	cfg := Default()
	cfg.AltAppInference = true
	cfg.Apply()
	if !elab.AltAppInference {
		t.Errorf("Apply did not set elab.AltAppInference")
	}

	cfg.AltAppInference = false
	cfg.Apply()
	if elab.AltAppInference {
		t.Errorf("Apply did not reset elab.AltAppInference")
	}
}

func TestResolveNoPath(t *testing.T) {
	os.Unsetenv("TELESCOPE_CONFIG")
	cfg, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Color != "auto" {
		t.Errorf("Resolve with no path = %+v, want defaults", cfg)
	}
}
