package main

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/danmuck/krgsave/internal/persist"
	"github.com/danmuck/krgsave/internal/scene"
	"github.com/danmuck/krgsave/internal/session"
	"github.com/danmuck/krgsave/internal/thumbnail"
	"github.com/urfave/cli/v2"
)

func demoCommand() *cli.Command {
	return &cli.Command{
		Name:      "demo",
		Usage:     "Save the demo scene, scramble it, and load it back",
		ArgsUsage: "[NAME]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "print the payload layout and diagnostics"},
		},
		Action: func(c *cli.Context) error {
			name := c.Args().First()
			if name == "" {
				name = "demo"
			}
			return runDemo(c, name, c.Bool("verbose"))
		},
	}
}

func runDemo(c *cli.Context, name string, verbose bool) error {
	cfg := configFrom(c)
	w := c.App.Writer

	reg := persist.NewRegistry()
	if err := scene.RegisterDemo(reg); err != nil {
		return err
	}
	world, player := scene.NewDemo()
	var chests []*scene.Chest
	scene.Walk(world, func(n persist.Node, _ int) {
		if c, ok := n.(*scene.Chest); ok {
			chests = append(chests, c)
		}
	})

	capturer := thumbnail.NewImageCapturer(func() (image.Image, error) {
		return gradient(1920, 1080), nil
	}, thumbnail.Options{MaxWidth: cfg.Thumbnail.MaxWidth, MaxHeight: cfg.Thumbnail.MaxHeight})

	s, err := session.New(world, reg, session.Config{
		Dir:       cfg.Save.Dir,
		Extension: cfg.Save.Extension,
		Label:     cfg.Save.Label,
	}, session.WithCapturer(capturer))
	if err != nil {
		return err
	}
	s.OnSaveMade(func(n string) { fmt.Fprintf(w, "save made: %s\n", n) })
	s.OnSaveLoaded(func(n string) { fmt.Fprintf(w, "save loaded: %s\n", n) })

	if verbose {
		scene.Walk(world, func(n persist.Node, depth int) {
			fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), n.Name())
		})
		fmt.Fprint(w, s.Discovery().Describe())
		for _, d := range s.Diagnostics() {
			fmt.Fprintf(w, "diagnostic: %s\n", d)
		}
	}

	printDemo(w, "before", world, player, chests)
	if err := s.MakeSave(name); err != nil {
		return err
	}

	world.TimeOfDay, world.Seed = 0, 0
	player.Health, player.Stamina, player.Alive = 0, 0, false
	for _, c := range chests {
		c.Unlock()
	}
	printDemo(w, "scrambled", world, player, chests)

	if err := s.LoadSave(name); err != nil {
		return err
	}
	printDemo(w, "restored", world, player, chests)
	return nil
}

func printDemo(w io.Writer, stage string, world *scene.World, player *scene.Player, chests []*scene.Chest) {
	locked := 0
	for _, c := range chests {
		if c.Locked() {
			locked++
		}
	}
	fmt.Fprintf(w, "%-9s time_of_day=%.2f seed=%d health=%d stamina=%.1f alive=%t locked=%d\n",
		stage, world.TimeOfDay, world.Seed, player.Health, player.Stamina, player.Alive, locked)
}

func gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 96, A: 255})
		}
	}
	return img
}
