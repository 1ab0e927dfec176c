// Package thumbnail turns a presentation surface into the compressed image
// blob stored in a save header.
package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

const (
	// Quarter of a 1920x1080 surface.
	DefaultMaxWidth  = 480
	DefaultMaxHeight = 270
)

var (
	ErrNoSource   = errors.New("thumbnail: no capture source")
	ErrEmptyImage = errors.New("thumbnail: empty image")
)

// Capturer produces the opaque thumbnail blob for a save.
type Capturer interface {
	Capture() ([]byte, error)
}

// CaptureFunc adapts a function to Capturer.
type CaptureFunc func() ([]byte, error)

func (f CaptureFunc) Capture() ([]byte, error) {
	return f()
}

// Source returns the current presentation surface.
type Source func() (image.Image, error)

type Options struct {
	MaxWidth  int
	MaxHeight int
}

func DefaultOptions() Options {
	return Options{MaxWidth: DefaultMaxWidth, MaxHeight: DefaultMaxHeight}
}

func (o Options) WithDefaults() Options {
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = DefaultMaxHeight
	}
	return o
}

// ImageCapturer downscales a Source image and encodes it as PNG.
type ImageCapturer struct {
	src  Source
	opts Options
}

func NewImageCapturer(src Source, opts Options) *ImageCapturer {
	return &ImageCapturer{src: src, opts: opts.WithDefaults()}
}

func (c *ImageCapturer) Capture() ([]byte, error) {
	if c.src == nil {
		return nil, ErrNoSource
	}
	img, err := c.src()
	if err != nil {
		return nil, fmt.Errorf("thumbnail: capture: %w", err)
	}
	return Encode(Downscale(img, c.opts.MaxWidth, c.opts.MaxHeight))
}

// Downscale fits img inside maxW x maxH keeping its aspect ratio.
// Images already inside the bounds are returned unchanged.
func Downscale(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 || (w <= maxW && h <= maxH) {
		return img
	}

	dw, dh := maxW, h*maxW/w
	if dh > maxH {
		dw, dh = w*maxH/h, maxH
	}
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func Encode(img image.Image) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("thumbnail: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func Decode(blob []byte) (image.Image, error) {
	if len(blob) == 0 {
		return nil, ErrEmptyImage
	}
	img, err := png.Decode(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("thumbnail: decode: %w", err)
	}
	return img, nil
}
