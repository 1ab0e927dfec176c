package slots

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

type EventOp string

const (
	EventWritten EventOp = "written"
	EventRemoved EventOp = "removed"
)

// Event reports a save file that was written or went away.
type Event struct {
	Name string
	Op   EventOp
}

// Watch reports save changes in d until ctx is done. fn runs on the calling
// goroutine; files without the save extension are ignored.
func (d *Dir) Watch(ctx context.Context, fn func(Event)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: watch: %v", ErrIO, err)
	}
	defer w.Close()

	if err := w.Add(d.root); err != nil {
		return fmt.Errorf("%w: watch %s: %v", ErrIO, d.root, err)
	}
	log.Debug().Msgf("slots.Dir.Watch started dir=%q", d.root)

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msgf("slots.Dir.Watch stopped dir=%q", d.root)
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name, ok := d.nameOf(ev.Name)
			if !ok {
				continue
			}
			switch {
			case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
				fn(Event{Name: name, Op: EventRemoved})
			case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
				fn(Event{Name: name, Op: EventWritten})
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Msgf("slots.Dir.Watch error dir=%q err=%v", d.root, err)
		}
	}
}

func (d *Dir) nameOf(path string) (string, bool) {
	base := filepath.Base(path)
	suffix := "." + d.ext
	if !strings.HasSuffix(base, suffix) {
		return "", false
	}
	name := strings.TrimSuffix(base, suffix)
	return name, isValidName(name)
}
