package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Config{
		API:   APIConfig{URL: "http://localhost:8080", Timeout: 30 * time.Second},
		Draft: DraftConfig{Backend: BackendMemory, Dir: ".formdesk/drafts", AutosaveDelay: time.Second},
		Redis: RedisConfig{Addr: "localhost:6379", Prefix: "formdesk:", TTL: 7 * 24 * time.Hour},
		Log:   LogConfig{Level: "info", Format: "console"},
		Mock:  MockConfig{Addr: ":8080"},
		UI:    UIConfig{Locale: "en", PageSize: 10},
	}
	if diff := cmp.Diff(want, *cfg); diff != "" {
		t.Fatalf("defaults (-want +got):\n%s", diff)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
api:
  url: https://forms.example.com/
  timeout: 5s
draft:
  backend: file
  dir: /tmp/drafts
ui:
  locale: de
  page_size: 25
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FORMDESK_API_TOKEN", "abc")
	t.Setenv("FORMDESK_UI_LOCALE", "en")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.URL != "https://forms.example.com/" || cfg.API.Timeout != 5*time.Second {
		t.Fatalf("file values not applied: %+v", cfg.API)
	}
	if cfg.API.Token != "abc" {
		t.Fatalf("env token not applied: %q", cfg.API.Token)
	}
	if cfg.UI.Locale != "en" || cfg.UI.PageSize != 25 {
		t.Fatalf("env should win over file: %+v", cfg.UI)
	}
	if cfg.Draft.Backend != BackendFile || cfg.Draft.Dir != "/tmp/drafts" {
		t.Fatalf("draft config: %+v", cfg.Draft)
	}
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FORMDESK_DRAFT_BACKEND", "sqlite")
	t.Setenv("FORMDESK_UI_PAGE_SIZE", "12")

	_, err := Load("")
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"draft.backend", "ui.page_size"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("FORMDESK_LOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("FORMDESK_LOG_LEVEL", "")
	os.Unsetenv("FORMDESK_LOG_LEVEL")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("FORMDESK_LOG_LEVEL"); got != "debug" {
		t.Fatalf("expected debug, got %q", got)
	}

	chdir(t, dir)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("dotenv value should reach config, got %q", cfg.Log.Level)
	}
}

// chdir changes the working directory for the duration of the test
// (stand-in for testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore wd: %v", err)
		}
	})
}
