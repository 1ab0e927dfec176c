package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danmuck/krgsave/internal/savefile"
	"github.com/danmuck/krgsave/internal/slots"
	"github.com/danmuck/krgsave/internal/thumbnail"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SlotInfo is the JSON card for one save.
type SlotInfo struct {
	Name           string    `json:"name"`
	CapturedAt     time.Time `json:"captured_at"`
	DateText       string    `json:"date_text"`
	Label          string    `json:"label,omitempty"`
	ThumbnailBytes int       `json:"thumbnail_bytes"`
	PayloadOffset  uint32    `json:"payload_offset"`
	Error          string    `json:"error,omitempty"`
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.started).String(),
			"service": "krgsave",
			"version": Version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/slots", s.listSlots)
	s.router.GET("/slots/:name", s.getSlot)
	s.router.GET("/slots/:name/thumbnail", s.getThumbnail)
}

// listSlots reports unreadable saves inline instead of failing the listing.
func (s *Server) listSlots(c *gin.Context) {
	names, err := s.catalog.List()
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	cards := make([]SlotInfo, 0, len(names))
	for _, name := range names {
		h, err := s.peek(name)
		if err != nil {
			cards = append(cards, SlotInfo{Name: name, Error: err.Error()})
			continue
		}
		cards = append(cards, s.card(name, h))
	}
	c.JSON(http.StatusOK, gin.H{"slots": cards})
}

func (s *Server) getSlot(c *gin.Context) {
	name := c.Param("name")
	h, err := s.peek(name)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.card(name, h))
}

// getThumbnail serves the stored PNG. Optional w and h query bounds downscale it.
func (s *Server) getThumbnail(c *gin.Context) {
	h, err := s.peek(c.Param("name"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if !h.HasThumbnail() {
		c.JSON(http.StatusNotFound, gin.H{"error": "save has no thumbnail"})
		return
	}

	maxW, okW := queryBound(c, "w")
	maxH, okH := queryBound(c, "h")
	if !okW || !okH {
		c.JSON(http.StatusBadRequest, gin.H{"error": "w and h must be positive integers"})
		return
	}
	if maxW == 0 && maxH == 0 {
		c.Data(http.StatusOK, "image/png", h.Thumbnail)
		return
	}
	if s.rescale != nil && !s.rescale.Allow() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "thumbnail rescale rate exceeded"})
		return
	}

	img, err := h.Image()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	b := img.Bounds()
	if maxW == 0 {
		maxW = b.Dx()
	}
	if maxH == 0 {
		maxH = b.Dy()
	}
	blob, err := thumbnail.Encode(thumbnail.Downscale(img, maxW, maxH))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", blob)
}

func (s *Server) card(name string, h savefile.Header) SlotInfo {
	return SlotInfo{
		Name:           name,
		CapturedAt:     h.Time().UTC(),
		DateText:       h.FormatTime(s.cfg.Location),
		Label:          h.Label,
		ThumbnailBytes: len(h.Thumbnail),
		PayloadOffset:  h.PayloadOffset,
	}
}

func queryBound(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, slots.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, slots.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, slots.ErrIO):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
