package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("search:\n  default_limit: 5\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Workspace.SettingsFile != "settings.gradle.kts" {
		t.Errorf("SettingsFile = %q", cfg.Workspace.SettingsFile)
	}
	if cfg.Workspace.BuildFile != "build.gradle.kts" {
		t.Errorf("BuildFile = %q", cfg.Workspace.BuildFile)
	}
	if cfg.Search.DefaultLimit != 5 {
		t.Errorf("DefaultLimit = %d, want 5", cfg.Search.DefaultLimit)
	}
	if !cfg.GitignoreEnabled() || !cfg.HistoryEnabled() {
		t.Error("gitignore and history should default to enabled")
	}
	if cfg.History.Keep != 50 {
		t.Errorf("Keep = %d, want 50", cfg.History.Keep)
	}
	if len(cfg.Formatter.ExcludeDirs) == 0 {
		t.Error("ExcludeDirs should have defaults")
	}
}

func TestParseExplicitFalse(t *testing.T) {
	cfg, err := Parse([]byte("formatter:\n  use_gitignore: false\n  exclude_dirs: []\nhistory:\n  enabled: false\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.GitignoreEnabled() {
		t.Error("use_gitignore: false was ignored")
	}
	if cfg.HistoryEnabled() {
		t.Error("history.enabled: false was ignored")
	}
	if len(cfg.Formatter.ExcludeDirs) != 0 {
		t.Errorf("explicit empty exclude_dirs replaced by %v", cfg.Formatter.ExcludeDirs)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"nested settings file", "workspace:\n  settings_file: sub/settings.gradle.kts\n", "settings_file"},
		{"negative keep", "history:\n  keep: -1\n", "history.keep"},
		{"limit too large", "search:\n  default_limit: 5000\n", "default_limit"},
		{"empty exclude", "formatter:\n  exclude_dirs: [build, \" \"]\n", "exclude_dirs"},
		{"bad yaml", "workspace: [\n", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if !IsConfigNotFound(err) {
		t.Fatalf("LoadFromFile() error = %v, want ConfigNotFoundError", err)
	}
}

func TestLoadMissingDefaultUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Search.DefaultLimit != 10 {
		t.Errorf("DefaultLimit = %d, want 10", cfg.Search.DefaultLimit)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in   string
		want string
	}{
		{"~/.buildcomp/data/x.db", filepath.Join(home, ".buildcomp/data/x.db")},
		{"$HOME/rules.yaml", filepath.Join(home, "rules.yaml")},
		{"~", home},
		{"relative/rules.yaml", "relative/rules.yaml"},
	}
	for _, tt := range tests {
		if got := expandPath(tt.in); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteDefaultTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "buildcomp.yaml")

	created, err := WriteDefaultTemplate(path)
	if err != nil || !created {
		t.Fatalf("WriteDefaultTemplate() = %v, %v", created, err)
	}
	created, err = WriteDefaultTemplate(path)
	if err != nil || created {
		t.Fatalf("second WriteDefaultTemplate() = %v, %v, want no-op", created, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("template does not parse: %v", err)
	}
	if cfg.Formatter.RulesFile != "" {
		t.Errorf("template RulesFile = %q, want unset", cfg.Formatter.RulesFile)
	}
}
