package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "savectl.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestTemplateLoadsAsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "savectl.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	def := Default()
	if cfg.Save != def.Save || cfg.Thumbnail != def.Thumbnail || cfg.Log != def.Log {
		t.Fatalf("template differs from defaults: %+v vs %+v", cfg, def)
	}
	if cfg.Server.Addr != def.Server.Addr || len(cfg.Server.CorsOrigins) != 1 ||
		cfg.Server.RescalePerSecond != def.Server.RescalePerSecond {
		t.Fatalf("unexpected server section: %+v", cfg.Server)
	}
}

func TestWriteTemplateRefusesOverwrite(t *testing.T) {
	path := writeConfig(t, "[save]\n")
	if err := WriteTemplate(path, false); err == nil {
		t.Fatalf("expected overwrite refusal")
	}
	if err := WriteTemplate(path, true); err != nil {
		t.Fatalf("forced overwrite: %v", err)
	}
}

func TestLoadOverlaysOnlyDefinedKeys(t *testing.T) {
	path := writeConfig(t, `
[save]
extension = ".sav"
label = "Crypt, floor 2"

[server]
cors_origins = [" http://a.test ", ""]

[log]
level = "debug"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Save.Dir != "save" {
		t.Fatalf("dir should keep default, got %q", cfg.Save.Dir)
	}
	if cfg.Save.Extension != "sav" {
		t.Fatalf("extension=%q", cfg.Save.Extension)
	}
	if cfg.Save.Label != "Crypt, floor 2" {
		t.Fatalf("label=%q", cfg.Save.Label)
	}
	if cfg.Thumbnail.MaxWidth != 480 || cfg.Thumbnail.MaxHeight != 270 {
		t.Fatalf("thumbnail=%+v", cfg.Thumbnail)
	}
	if len(cfg.Server.CorsOrigins) != 1 || cfg.Server.CorsOrigins[0] != "http://a.test" {
		t.Fatalf("cors=%v", cfg.Server.CorsOrigins)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("level=%q", cfg.Log.Level)
	}
}

func TestLoadRejectsInvalidConfigs(t *testing.T) {
	cases := map[string]string{
		"unknown key":    "[save]\nslot = 1\n",
		"bad thumbnail":  "[thumbnail]\nmax_width = 0\n",
		"empty dir":      "[save]\ndir = \"  \"\n",
		"bad level":      "[log]\nlevel = \"loud\"\n",
		"bad extension":  "[save]\nextension = \"a/b\"\n",
		"malformed toml": "[save\n",
		"empty addr":     "[server]\naddr = \"\"\n",
		"negative rate":  "[server]\nrescale_per_second = -2.0\n",
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil ||
		!strings.Contains(err.Error(), "config load failed") {
		t.Fatalf("expected load failure, got %v", err)
	}
}
