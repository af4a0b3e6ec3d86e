package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sampleConfig struct {
	Root    string        `envconfig:"ROOT" split_words:"true" default:"processos"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
	Limit   int           `envconfig:"LIMIT" split_words:"true"`
}

// Not parallel: mutates the process environment and package state.
func TestNewExportsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "SAMPLECFG_ROOT=/data/sei\nSAMPLECFG_LIMIT=7\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("SAMPLECFG_LIMIT", "3")
	t.Cleanup(func() {
		_ = os.Unsetenv("SAMPLECFG_ROOT")
		SetEnvFile("")
	})

	SetEnvFile(path)
	cfg, err := New[sampleConfig]("SAMPLECFG")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.Root != "/data/sei" {
		t.Fatalf("unexpected root: %s", cfg.Root)
	}
	if cfg.Limit != 3 {
		t.Fatalf("environment must win over env file, got %d", cfg.Limit)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("unexpected default timeout: %v", cfg.Timeout)
	}
}

func TestNewMissingEnvFile(t *testing.T) {
	t.Cleanup(func() { SetEnvFile("") })

	SetEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	if _, err := New[sampleConfig]("SAMPLECFG"); err == nil {
		t.Fatal("expected error for missing env file")
	}
}
