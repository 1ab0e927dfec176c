package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/danmuck/krgsave/internal/config"
	"github.com/danmuck/krgsave/internal/logging"
	"github.com/danmuck/krgsave/internal/session"
	"github.com/danmuck/krgsave/internal/slots"
	"github.com/urfave/cli/v2"
)

// Build information, set via ldflags.
var Version = "dev"

const metaConfig = "config"

func App() *cli.App {
	return &cli.App{
		Name:    "savectl",
		Usage:   "inspect, serve, and exercise tagged-field save files",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file (defaults to ./" + config.DefaultPath + " when present)",
				EnvVars: []string{"KRGSAVE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "save directory, overrides [save] dir",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "trace|debug|info|warn|error|off, overrides [log] level",
			},
		},
		Commands: []*cli.Command{
			listCommand(),
			peekCommand(),
			thumbnailCommand(),
			serveCommand(),
			watchCommand(),
			demoCommand(),
			configCommand(),
		},
		Before: func(c *cli.Context) error {
			// config subcommands manage the file themselves
			if c.Args().First() == "config" {
				return nil
			}
			cfg, err := resolveConfig(c)
			if err != nil {
				return err
			}
			logging.InitLogger("savectl", cfg.Log.Level)
			c.App.Metadata[metaConfig] = cfg
			return nil
		},
	}
}

func resolveConfig(c *cli.Context) (config.Config, error) {
	path := c.String("config")
	cfg := config.Default()
	switch {
	case path != "":
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	default:
		if _, err := os.Stat(config.DefaultPath); err == nil {
			loaded, err := config.Load(config.DefaultPath)
			if err != nil {
				return config.Config{}, err
			}
			cfg = loaded
		} else if !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, fmt.Errorf("stat %s: %w", config.DefaultPath, err)
		}
	}

	if dir := c.String("dir"); dir != "" {
		cfg.Save.Dir = dir
	}
	if lvl := c.String("log-level"); lvl != "" {
		if _, ok := logging.ParseLevel(lvl); !ok {
			return config.Config{}, fmt.Errorf("invalid log level %q", lvl)
		}
		cfg.Log.Level = lvl
	}
	return cfg, nil
}

func configFrom(c *cli.Context) config.Config {
	if cfg, ok := c.App.Metadata[metaConfig].(config.Config); ok {
		return cfg
	}
	return config.Default()
}

func catalogFrom(c *cli.Context) *session.Catalog {
	cfg := configFrom(c)
	return session.NewCatalog(slots.New(cfg.Save.Dir, cfg.Save.Extension))
}

func requireName(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("%s: expected exactly one save name", c.Command.Name)
	}
	return c.Args().First(), nil
}
