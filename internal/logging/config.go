package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel     = "KRGSAVE_LOG_LEVEL"
	EnvLogTimestamp = "KRGSAVE_LOG_TIMESTAMP"
	EnvLogNoColor   = "KRGSAVE_LOG_NOCOLOR"
	EnvLogBypass    = "KRGSAVE_LOG_BYPASS"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config is the resolved logger setup for one process.
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	// Bypass writes raw JSON lines instead of the console format.
	Bypass bool
	App    string
}

var configureOnce sync.Once

func ConfigureTests() {
	Configure(ProfileTest)
}

func Configure(profile Profile) {
	configureOnce.Do(func() {
		cfg := defaultConfig(profile)
		applyEnvOverrides(&cfg)
		apply(cfg, os.Stderr)
	})
}

// InitLogger configures the global logger for a binary and tags every line with app.
// A non-empty level overrides the profile default; env overrides still win.
func InitLogger(app, level string) zerolog.Logger {
	cfg := defaultConfig(ProfileRuntime)
	cfg.App = app
	if lvl, ok := ParseLevel(level); ok {
		cfg.Level = lvl
	}
	applyEnvOverrides(&cfg)
	return apply(cfg, os.Stderr)
}

func defaultConfig(profile Profile) Config {
	switch profile {
	case ProfileTest:
		return Config{Level: zerolog.DebugLevel, Timestamp: false}
	default:
		return Config{Level: zerolog.InfoLevel, Timestamp: true}
	}
}

func apply(cfg Config, out *os.File) zerolog.Logger {
	var w io.Writer = out
	if !cfg.Bypass {
		console := zerolog.ConsoleWriter{
			Out:        colorable.NewColorable(out),
			NoColor:    cfg.NoColor,
			TimeFormat: time.RFC3339,
		}
		if !cfg.Timestamp {
			console.PartsExclude = []string{zerolog.TimestampFieldName}
		}
		w = console
	}

	ctx := zerolog.New(w).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if cfg.App != "" {
		ctx = ctx.Str("app", cfg.App)
	}
	logger := ctx.Logger().Level(cfg.Level)
	zerolog.SetGlobalLevel(cfg.Level)
	log.Logger = logger
	return logger
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogBypass)); ok {
		cfg.Bypass = v
	}
}

// ParseLevel maps the accepted level spellings onto zerolog levels.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace", "diagnostics":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none", "inactive":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
