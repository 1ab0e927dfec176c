package session

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/danmuck/krgsave/internal/observability"
	"github.com/danmuck/krgsave/internal/savefile"
	"github.com/danmuck/krgsave/internal/slots"
	"github.com/rs/zerolog/log"
)

// Catalog reads save metadata without a live tree.
type Catalog struct {
	dir *slots.Dir
}

func NewCatalog(dir *slots.Dir) *Catalog {
	return &Catalog{dir: dir}
}

// List returns the names of every save in the directory.
func (c *Catalog) List() ([]string, error) {
	return c.dir.List()
}

// Peek reads only the header of a save.
func (c *Catalog) Peek(name string) (h savefile.Header, err error) {
	start := time.Now()
	defer func() {
		observability.RecordOperation(observability.OpPeek, err == nil, 0, time.Since(start))
	}()

	f, err := c.dir.Open(name)
	if err != nil {
		return savefile.Header{}, err
	}
	defer f.Close()

	h, err = savefile.ReadHeader(bufio.NewReader(f))
	if err != nil {
		log.Warn().Msgf("session.Catalog.Peek header unreadable name=%q err=%v", name, err)
		return savefile.Header{}, fmt.Errorf("%w: %w", ErrIO, err)
	}
	log.Debug().Msgf("session.Catalog.Peek name=%q payload_offset=%d thumbnail=%d", name, h.PayloadOffset, len(h.Thumbnail))
	return h, nil
}

// Watch forwards save directory changes to fn until ctx is done.
func (c *Catalog) Watch(ctx context.Context, fn func(slots.Event)) error {
	return c.dir.Watch(ctx, fn)
}
