package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_OverridesDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "viralcut.yaml")
	body := `
captions:
  bucket_size: 3
  font_files: ["/fonts/a.ttf"]
planner:
  workers: 1
llm:
  model: some/model
`
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Captions.BucketSize != 3 || cfg.Planner.Workers != 1 || cfg.LLM.Model != "some/model" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.Captions.FontFiles) != 1 || cfg.Captions.FontFiles[0] != "/fonts/a.ttf" {
		t.Fatalf("unexpected font files %v", cfg.Captions.FontFiles)
	}
	if cfg.Tools.FFmpeg != "ffmpeg" || cfg.LLM.BaseURL != "https://openrouter.ai" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for explicit missing file")
	}

	p := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(p, []byte("planner: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("expected parse error")
	}
}
