package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/krgsave/internal/logging"
	"github.com/danmuck/krgsave/internal/slots"
	"github.com/danmuck/krgsave/internal/thumbnail"
)

type Config struct {
	Save      SaveConfig
	Thumbnail ThumbnailConfig
	Server    ServerConfig
	Log       LogConfig
}

type SaveConfig struct {
	Dir       string
	Extension string
	Label     string
}

type ThumbnailConfig struct {
	MaxWidth  int
	MaxHeight int
}

type ServerConfig struct {
	Addr             string
	CorsOrigins      []string
	RescalePerSecond float64
}

type LogConfig struct {
	Level string
}

type fileConfig struct {
	Save struct {
		Dir       string `toml:"dir"`
		Extension string `toml:"extension"`
		Label     string `toml:"label"`
	} `toml:"save"`
	Thumbnail struct {
		MaxWidth  int `toml:"max_width"`
		MaxHeight int `toml:"max_height"`
	} `toml:"thumbnail"`
	Server struct {
		Addr             string   `toml:"addr"`
		CorsOrigins      []string `toml:"cors_origins"`
		RescalePerSecond float64  `toml:"rescale_per_second"`
	} `toml:"server"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

func Default() Config {
	return Config{
		Save: SaveConfig{
			Dir:       slots.DefaultDir,
			Extension: slots.DefaultExtension,
		},
		Thumbnail: ThumbnailConfig{
			MaxWidth:  thumbnail.DefaultMaxWidth,
			MaxHeight: thumbnail.DefaultMaxHeight,
		},
		Server: ServerConfig{
			Addr:             ":9300",
			CorsOrigins:      []string{"http://localhost:3000"},
			RescalePerSecond: 10,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load overlays the keys present in path onto Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("save", "dir") {
		cfg.Save.Dir = strings.TrimSpace(raw.Save.Dir)
	}
	if meta.IsDefined("save", "extension") {
		cfg.Save.Extension = strings.TrimPrefix(strings.TrimSpace(raw.Save.Extension), ".")
	}
	if meta.IsDefined("save", "label") {
		cfg.Save.Label = raw.Save.Label
	}
	if meta.IsDefined("thumbnail", "max_width") {
		cfg.Thumbnail.MaxWidth = raw.Thumbnail.MaxWidth
	}
	if meta.IsDefined("thumbnail", "max_height") {
		cfg.Thumbnail.MaxHeight = raw.Thumbnail.MaxHeight
	}
	if meta.IsDefined("server", "addr") {
		cfg.Server.Addr = strings.TrimSpace(raw.Server.Addr)
	}
	if meta.IsDefined("server", "cors_origins") {
		cfg.Server.CorsOrigins = normalizeOrigins(raw.Server.CorsOrigins)
	}
	if meta.IsDefined("server", "rescale_per_second") {
		cfg.Server.RescalePerSecond = raw.Server.RescalePerSecond
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if cfg.Save.Dir == "" {
		return fmt.Errorf("save.dir is required")
	}
	if cfg.Save.Extension == "" {
		return fmt.Errorf("save.extension is required")
	}
	if strings.ContainsAny(cfg.Save.Extension, `/\`) {
		return fmt.Errorf("save.extension must not contain path separators: %q", cfg.Save.Extension)
	}
	if len(cfg.Save.Label) > 0xFFFF {
		return fmt.Errorf("save.label exceeds %d bytes", 0xFFFF)
	}
	if cfg.Thumbnail.MaxWidth <= 0 || cfg.Thumbnail.MaxHeight <= 0 {
		return fmt.Errorf("thumbnail bounds must be positive: %dx%d",
			cfg.Thumbnail.MaxWidth, cfg.Thumbnail.MaxHeight)
	}
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if cfg.Server.RescalePerSecond < 0 {
		return fmt.Errorf("server.rescale_per_second must not be negative")
	}
	if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
		return fmt.Errorf("log.level invalid: %q", cfg.Log.Level)
	}
	return nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
