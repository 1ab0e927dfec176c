package main

import (
	"fmt"

	"github.com/danmuck/krgsave/internal/config"
	"github.com/urfave/cli/v2"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Write or check a savectl config file",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the default config template",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: config.DefaultPath},
					&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
					&cli.BoolFlag{Name: "stdout", Usage: "print the template instead of writing it"},
				},
				Action: func(c *cli.Context) error {
					if c.Bool("stdout") {
						fmt.Fprint(c.App.Writer, config.Template())
						return nil
					}
					path := c.String("output")
					if err := config.WriteTemplate(path, c.Bool("force")); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "wrote config template to %s\n", path)
					return nil
				},
			},
			{
				Name:      "validate",
				Usage:     "Load and validate a config file",
				ArgsUsage: "[PATH]",
				Action: func(c *cli.Context) error {
					path := c.Args().First()
					if path == "" {
						path = config.DefaultPath
					}
					cfg, err := config.Load(path)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "validated %s: dir=%s ext=%s addr=%s\n",
						path, cfg.Save.Dir, cfg.Save.Extension, cfg.Server.Addr)
					return nil
				},
			},
		},
	}
}
