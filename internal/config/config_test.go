package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_YAMLThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "bizdoc.yaml")
	content := "" +
		"ocr:\n  key: from-file\n  timeout: 30s\n" +
		"llm:\n  model: gpt-4o-mini\n" +
		"serve:\n  addr: \":9999\"\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("OCR_SPACE_API_KEY", "from-env")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OCR.Key != "from-env" {
		t.Fatalf("env must win over file, got %q", cfg.OCR.Key)
	}
	if cfg.OCR.Timeout.Std() != 30*time.Second {
		t.Fatalf("timeout: %v", cfg.OCR.Timeout)
	}
	if cfg.LLM.Model != "gpt-4o-mini" || cfg.Serve.Addr != ":9999" {
		t.Fatalf("file values lost: %+v", cfg)
	}
}

func TestLoad_DotEnvFillsUnset(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("SERPAPI_KEY=dotenv-key\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("SERPAPI_KEY", "")
	os.Unsetenv("SERPAPI_KEY")

	cfg, err := Load("", envFile)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Search.Key != "dotenv-key" {
		t.Fatalf("dotenv value not applied: %q", cfg.Search.Key)
	}
}

func TestLoad_DefaultAddr(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Serve.Addr == "" {
		t.Fatalf("expected default addr")
	}
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	if _, err := Load("", "/nonexistent/.env"); err != nil {
		t.Fatalf("missing .env must not fail: %v", err)
	}
}
