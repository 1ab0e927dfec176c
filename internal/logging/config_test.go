package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevelAliases(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":       zerolog.TraceLevel,
		"diagnostics": zerolog.TraceLevel,
		" DEBUG ":     zerolog.DebugLevel,
		"warning":     zerolog.WarnLevel,
		"error":       zerolog.ErrorLevel,
		"off":         zerolog.Disabled,
	}
	for raw, want := range cases {
		got, ok := ParseLevel(raw)
		if !ok || got != want {
			t.Fatalf("ParseLevel(%q) = %v,%v want %v", raw, got, ok, want)
		}
	}
	if _, ok := ParseLevel("loud"); ok {
		t.Fatalf("expected unknown level to be rejected")
	}
	if _, ok := ParseLevel(""); ok {
		t.Fatalf("expected empty level to be rejected")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogTimestamp, "false")
	t.Setenv(EnvLogNoColor, "1")
	t.Setenv(EnvLogBypass, "nope")

	cfg := defaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)
	if cfg.Level != zerolog.ErrorLevel {
		t.Fatalf("level override not applied: %v", cfg.Level)
	}
	if cfg.Timestamp {
		t.Fatalf("timestamp override not applied")
	}
	if !cfg.NoColor {
		t.Fatalf("nocolor override not applied")
	}
	if cfg.Bypass {
		t.Fatalf("invalid bypass value should be ignored")
	}
}

func TestDefaultConfigProfiles(t *testing.T) {
	if cfg := defaultConfig(ProfileTest); cfg.Level != zerolog.DebugLevel || cfg.Timestamp {
		t.Fatalf("unexpected test profile: %+v", cfg)
	}
	if cfg := defaultConfig(ProfileRuntime); cfg.Level != zerolog.InfoLevel || !cfg.Timestamp {
		t.Fatalf("unexpected runtime profile: %+v", cfg)
	}
}
