// Package savefile owns the save header: a length-patched preamble that
// precedes the member payload.
package savefile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"time"

	"github.com/danmuck/krgsave/internal/thumbnail"
)

const (
	// MinHeaderLen is offset + capture time + empty thumbnail + empty label.
	MinHeaderLen = 4 + 8 + 4 + 2

	MaxThumbnailBytes = 16 * 1024 * 1024
	MaxLabelBytes     = math.MaxUint16
)

var (
	ErrShortHeader          = errors.New("savefile: short header")
	ErrThumbnailTooLarge    = errors.New("savefile: thumbnail too large")
	ErrLabelTooLarge        = errors.New("savefile: label too large")
	ErrInvalidPayloadOffset = errors.New("savefile: invalid payload offset")
)

// Header is the save preamble. PayloadOffset is filled in by WriteHeader.
type Header struct {
	PayloadOffset uint32
	// CaptureTime is seconds since the Unix epoch.
	CaptureTime float64
	Thumbnail   []byte
	Label       string
}

func NewHeader(captured time.Time, thumbnail []byte, label string) Header {
	return Header{
		CaptureTime: float64(captured.Unix()) + float64(captured.Nanosecond())/float64(time.Second),
		Thumbnail:   thumbnail,
		Label:       label,
	}
}

func (h Header) Time() time.Time {
	sec, frac := math.Modf(h.CaptureTime)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}

// FormatTime renders the capture time for a save-slot card.
func (h Header) FormatTime(loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t := h.Time().In(loc)
	return fmt.Sprintf("Date: %d/%d/%d\nTime: %d:%02d", t.Month(), t.Day(), t.Year(), t.Hour(), t.Minute())
}

func (h Header) HasThumbnail() bool {
	return len(h.Thumbnail) > 0
}

// Image decodes the stored thumbnail.
func (h Header) Image() (image.Image, error) {
	return thumbnail.Decode(h.Thumbnail)
}

// WriteHeader writes a zero offset placeholder, the variable-length body,
// then seeks back to patch the real offset and returns to the end of the header.
func WriteHeader(w io.WriteSeeker, h *Header) error {
	if len(h.Thumbnail) > MaxThumbnailBytes {
		return ErrThumbnailTooLarge
	}
	if len(h.Label) > MaxLabelBytes {
		return ErrLabelTooLarge
	}

	start, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	var placeholder [4]byte
	if _, err := w.Write(placeholder[:]); err != nil {
		return err
	}
	if _, err := w.Write(encodeBody(*h)); err != nil {
		return err
	}

	end, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	size := end - start
	if size > math.MaxUint32 {
		return fmt.Errorf("%w: header spans %d bytes", ErrInvalidPayloadOffset, size)
	}

	if _, err := w.Seek(start, io.SeekStart); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(placeholder[:], uint32(size))
	if _, err := w.Write(placeholder[:]); err != nil {
		return err
	}
	if _, err := w.Seek(end, io.SeekStart); err != nil {
		return err
	}
	h.PayloadOffset = uint32(size)
	return nil
}

func encodeBody(h Header) []byte {
	buf := make([]byte, 8+4+len(h.Thumbnail)+2+len(h.Label))
	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(h.CaptureTime))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(h.Thumbnail)))
	n := 12 + copy(buf[12:], h.Thumbnail)
	binary.LittleEndian.PutUint16(buf[n:n+2], uint16(len(h.Label)))
	copy(buf[n+2:], h.Label)
	return buf
}

// ReadHeader reads header fields only; the payload is left unread.
func ReadHeader(r io.Reader) (Header, error) {
	var fixed [16]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return Header{}, shortHeader(err)
	}
	h := Header{
		PayloadOffset: binary.LittleEndian.Uint32(fixed[0:4]),
		CaptureTime:   math.Float64frombits(binary.LittleEndian.Uint64(fixed[4:12])),
	}
	if h.PayloadOffset < MinHeaderLen {
		return Header{}, fmt.Errorf("%w: %d", ErrInvalidPayloadOffset, h.PayloadOffset)
	}

	thumbLen := binary.LittleEndian.Uint32(fixed[12:16])
	if thumbLen > MaxThumbnailBytes {
		return Header{}, ErrThumbnailTooLarge
	}
	if thumbLen > 0 {
		h.Thumbnail = make([]byte, thumbLen)
		if _, err := io.ReadFull(r, h.Thumbnail); err != nil {
			return Header{}, shortHeader(err)
		}
	}

	var labelLen [2]byte
	if _, err := io.ReadFull(r, labelLen[:]); err != nil {
		return Header{}, shortHeader(err)
	}
	if n := binary.LittleEndian.Uint16(labelLen[:]); n > 0 {
		label := make([]byte, n)
		if _, err := io.ReadFull(r, label); err != nil {
			return Header{}, shortHeader(err)
		}
		h.Label = string(label)
	}
	return h, nil
}

// PayloadAt returns the member records of a whole in-memory save using only
// the leading payload offset. The thumbnail and label are not read, so a
// damaged preview does not prevent a load.
func PayloadAt(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, ErrShortHeader
	}
	offset := binary.LittleEndian.Uint32(data[:4])
	if offset < MinHeaderLen || int64(offset) > int64(len(data)) {
		return nil, fmt.Errorf("%w: %d in %d bytes", ErrInvalidPayloadOffset, offset, len(data))
	}
	return data[offset:], nil
}

func shortHeader(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrShortHeader
	}
	return err
}
