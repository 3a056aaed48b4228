package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadStartupConfigReadsExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "airdash.yaml")
	body := "service:\n  baseUrl: http://10.0.0.9:5001\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	cfg, err := loadStartupConfig(path)
	if err != nil {
		t.Fatalf("loadStartupConfig: %v", err)
	}
	if cfg.Service.BaseURL != "http://10.0.0.9:5001" {
		t.Fatalf("unexpected base URL %q", cfg.Service.BaseURL)
	}
	if cfg.Forecast.MaxHours != 72 {
		t.Fatalf("expected defaults to fill in, got %+v", cfg.Forecast)
	}
}

func TestLoadStartupConfigRejectsRemotePath(t *testing.T) {
	if _, err := loadStartupConfig("https://example.com/airdash.yaml"); err == nil {
		t.Fatalf("expected rejection of remote config path")
	}
}
