package thumbnail

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/danmuck/krgsave/internal/testutil/testlog"
)

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 90, A: 255})
		}
	}
	return img
}

func TestDownscaleKeepsAspectInsideBounds(t *testing.T) {
	cases := []struct {
		w, h         int
		wantW, wantH int
	}{
		{1920, 1080, 480, 270},
		{1000, 1000, 270, 270},
		{2000, 500, 480, 120},
		{300, 200, 300, 200},
	}
	for _, tc := range cases {
		got := Downscale(solid(tc.w, tc.h), DefaultMaxWidth, DefaultMaxHeight).Bounds()
		if got.Dx() != tc.wantW || got.Dy() != tc.wantH {
			t.Fatalf("%dx%d -> %dx%d want %dx%d", tc.w, tc.h, got.Dx(), got.Dy(), tc.wantW, tc.wantH)
		}
	}
}

func TestImageCapturerProducesDecodablePNG(t *testing.T) {
	testlog.Start(t)
	c := NewImageCapturer(func() (image.Image, error) { return solid(960, 540), nil }, Options{})
	blob, err := c.Capture()
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	img, err := Decode(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 480 || img.Bounds().Dy() != 270 {
		t.Fatalf("unexpected bounds: %v", img.Bounds())
	}
	r, g, b, _ := img.At(100, 100).RGBA()
	if r>>8 != 200 || g>>8 != 40 || b>>8 != 90 {
		t.Fatalf("unexpected pixel: %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestCaptureFailures(t *testing.T) {
	testlog.Start(t)
	if _, err := NewImageCapturer(nil, Options{}).Capture(); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
	boom := errors.New("surface lost")
	c := NewImageCapturer(func() (image.Image, error) { return nil, boom }, Options{})
	if _, err := c.Capture(); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
	if _, err := Decode(nil); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
	if _, err := Decode([]byte("not a png")); err == nil {
		t.Fatalf("expected decode error")
	}
}
