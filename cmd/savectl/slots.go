package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/danmuck/krgsave/internal/savefile"
	"github.com/danmuck/krgsave/internal/thumbnail"
	"github.com/urfave/cli/v2"
)

type slotRow struct {
	Name           string    `json:"name"`
	CapturedAt     time.Time `json:"captured_at"`
	Label          string    `json:"label,omitempty"`
	ThumbnailBytes int       `json:"thumbnail_bytes"`
	PayloadOffset  uint32    `json:"payload_offset"`
	Error          string    `json:"error,omitempty"`
}

func rowFor(name string, h savefile.Header) slotRow {
	return slotRow{
		Name:           name,
		CapturedAt:     h.Time(),
		Label:          h.Label,
		ThumbnailBytes: len(h.Thumbnail),
		PayloadOffset:  h.PayloadOffset,
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List saves with their header metadata",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print JSON instead of a table"},
		},
		Action: func(c *cli.Context) error {
			catalog := catalogFrom(c)
			names, err := catalog.List()
			if err != nil {
				return err
			}
			rows := make([]slotRow, 0, len(names))
			for _, name := range names {
				h, err := catalog.Peek(name)
				if err != nil {
					rows = append(rows, slotRow{Name: name, Error: err.Error()})
					continue
				}
				rows = append(rows, rowFor(name, h))
			}

			if c.Bool("json") {
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(c.App.Writer, "no saves")
				return nil
			}
			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCAPTURED\tLABEL\tTHUMB\tOFFSET")
			for _, r := range rows {
				if r.Error != "" {
					fmt.Fprintf(tw, "%s\t-\t-\t-\t%s\n", r.Name, r.Error)
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
					r.Name, r.CapturedAt.Format("2006-01-02 15:04"), r.Label, r.ThumbnailBytes, r.PayloadOffset)
			}
			return tw.Flush()
		},
	}
}

func peekCommand() *cli.Command {
	return &cli.Command{
		Name:      "peek",
		Usage:     "Print one save's header without loading it",
		ArgsUsage: "NAME",
		Action: func(c *cli.Context) error {
			name, err := requireName(c)
			if err != nil {
				return err
			}
			h, err := catalogFrom(c).Peek(name)
			if err != nil {
				return err
			}
			w := c.App.Writer
			fmt.Fprintf(w, "name:           %s\n", name)
			fmt.Fprintf(w, "payload offset: %d\n", h.PayloadOffset)
			fmt.Fprintf(w, "thumbnail:      %d bytes\n", len(h.Thumbnail))
			if h.Label != "" {
				fmt.Fprintf(w, "label:          %s\n", h.Label)
			}
			fmt.Fprintln(w, h.FormatTime(time.Local))
			return nil
		},
	}
}

func thumbnailCommand() *cli.Command {
	return &cli.Command{
		Name:      "thumbnail",
		Usage:     "Extract a save's thumbnail as PNG",
		ArgsUsage: "NAME",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output path (default NAME.png)"},
			&cli.IntFlag{Name: "width", Usage: "downscale to fit this width"},
			&cli.IntFlag{Name: "height", Usage: "downscale to fit this height"},
		},
		Action: func(c *cli.Context) error {
			name, err := requireName(c)
			if err != nil {
				return err
			}
			h, err := catalogFrom(c).Peek(name)
			if err != nil {
				return err
			}
			if !h.HasThumbnail() {
				return fmt.Errorf("save %q has no thumbnail", name)
			}

			blob := h.Thumbnail
			if w, ht := c.Int("width"), c.Int("height"); w > 0 || ht > 0 {
				img, err := h.Image()
				if err != nil {
					return err
				}
				if w <= 0 {
					w = img.Bounds().Dx()
				}
				if ht <= 0 {
					ht = img.Bounds().Dy()
				}
				if blob, err = thumbnail.Encode(thumbnail.Downscale(img, w, ht)); err != nil {
					return err
				}
			}

			out := c.String("out")
			if strings.TrimSpace(out) == "" {
				out = name + ".png"
			}
			if err := os.WriteFile(out, blob, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "wrote %s (%d bytes)\n", out, len(blob))
			return nil
		},
	}
}
