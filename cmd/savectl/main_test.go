package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/krgsave/internal/slots"
	"github.com/danmuck/krgsave/internal/testutil/testlog"
	"github.com/danmuck/krgsave/internal/thumbnail"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := App()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"savectl", "--log-level", "warn"}, args...))
	return out.String(), err
}

func TestDemoThenInspect(t *testing.T) {
	testlog.Start(t)
	dir := filepath.Join(t.TempDir(), "save")

	out, err := run(t, "--dir", dir, "demo", "-v", "first")
	if err != nil {
		t.Fatalf("demo: %v\n%s", err, out)
	}
	for _, want := range []string{
		"save made: first",
		"save loaded: first",
		"scrambled time_of_day=0.00 seed=0 health=0 stamina=0.0 alive=false locked=0",
		"restored  time_of_day=13.25 seed=1337 health=100 stamina=3.5 alive=true locked=1",
		"world\n  player\n  level\n    chest.gold\n    chest.empty\n",
		"time_of_day",
		"unsupported_member_kind",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("demo output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "--dir", dir, "list", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var rows []slotRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode list: %v\n%s", err, out)
	}
	if len(rows) != 1 || rows[0].Name != "first" || rows[0].ThumbnailBytes == 0 {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	out, err = run(t, "--dir", dir, "peek", "first")
	if err != nil || !strings.Contains(out, "payload offset:") || !strings.Contains(out, "Date: ") {
		t.Fatalf("peek err=%v out=%s", err, out)
	}

	png := filepath.Join(t.TempDir(), "thumb.png")
	if _, err := run(t, "--dir", dir, "thumbnail", "--width", "48", "-o", png, "first"); err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	blob, err := os.ReadFile(png)
	if err != nil {
		t.Fatalf("read png: %v", err)
	}
	img, err := thumbnail.Decode(blob)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 48 || b.Dy() != 27 {
		t.Fatalf("thumbnail bounds=%v", b)
	}
}

func TestPeekFailures(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	if _, err := run(t, "--dir", dir, "peek", "missing"); !errors.Is(err, slots.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := run(t, "--dir", dir, "peek"); err == nil {
		t.Fatalf("expected missing-name error")
	}
	out, err := run(t, "--dir", dir, "list")
	if err != nil || !strings.Contains(out, "no saves") {
		t.Fatalf("list empty err=%v out=%q", err, out)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "savectl.toml")
	if _, err := run(t, "config", "init", "-o", path); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := run(t, "config", "init", "-o", path); err == nil {
		t.Fatalf("expected overwrite refusal")
	}
	out, err := run(t, "config", "init", "--stdout")
	if err != nil || !strings.Contains(out, "[save]") || !strings.Contains(out, "rescale_per_second") {
		t.Fatalf("init --stdout err=%v out=%s", err, out)
	}
	written, err := os.ReadFile(path)
	if err != nil || string(written) != out {
		t.Fatalf("printed template differs from written file err=%v", err)
	}

	out, err = run(t, "config", "validate", path)
	if err != nil || !strings.Contains(out, "dir=save ext=krg") {
		t.Fatalf("validate err=%v out=%s", err, out)
	}

	if err := os.WriteFile(path, []byte("[thumbnail]\nmax_width = -1\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := run(t, "config", "validate", path); err == nil {
		t.Fatalf("expected validation failure")
	}
	if _, err := run(t, "--config", path, "list"); err == nil {
		t.Fatalf("expected global config load failure")
	}
}
