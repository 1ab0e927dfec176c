package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/danmuck/krgsave/internal/observability"
	"github.com/danmuck/krgsave/internal/persist"
	"github.com/danmuck/krgsave/internal/savefile"
	"github.com/danmuck/krgsave/internal/slots"
	"github.com/danmuck/krgsave/internal/thumbnail"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound    = slots.ErrNotFound
	ErrIO          = slots.ErrIO
	ErrInit        = slots.ErrInit
	ErrInvalidName = slots.ErrInvalidName
	ErrNilRoot     = errors.New("session: root node is nil")
	ErrNilRegistry = errors.New("session: registry is nil")
)

// Status tracks whether a save has been applied to the live tree.
type Status int

const (
	StatusUnloaded Status = iota
	StatusLoaded
)

func (s Status) String() string {
	if s == StatusLoaded {
		return "loaded"
	}
	return "unloaded"
}

// Config configures where saves live and what the header carries.
type Config struct {
	Dir       string
	Extension string
	Label     string
}

func DefaultConfig() Config {
	return Config{Dir: slots.DefaultDir, Extension: slots.DefaultExtension}
}

// Listener receives the save name after a successful operation.
type Listener func(name string)

type Option func(*Session)

// WithCapturer sets the thumbnail source. Without one, saves carry no thumbnail.
func WithCapturer(c thumbnail.Capturer) Option {
	return func(s *Session) { s.capturer = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session saves and restores the tagged members of one live tree.
// Save and load run synchronously on the caller's goroutine.
type Session struct {
	cfg       Config
	dir       *slots.Dir
	catalog   *Catalog
	root      persist.Node
	capturer  thumbnail.Capturer
	now       func() time.Time
	discovery *persist.Discovery

	mu          sync.RWMutex
	status      Status
	onMade      []Listener
	onLoaded    []Listener
	diagnostics []persist.Diagnostic
}

// New initializes the save directory and discovers the tree's save targets once.
func New(root persist.Node, reg *persist.Registry, cfg Config, opts ...Option) (*Session, error) {
	if root == nil {
		return nil, ErrNilRoot
	}
	if reg == nil {
		return nil, ErrNilRegistry
	}

	dir := slots.New(cfg.Dir, cfg.Extension)
	if err := dir.Init(); err != nil {
		return nil, err
	}

	s := &Session{
		cfg:     cfg,
		dir:     dir,
		catalog: NewCatalog(dir),
		root:    root,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.discovery = reg.Discover(root)
	s.recordDiagnostics(s.discovery.Diagnostics)
	log.Info().Msgf("session.New ready dir=%q targets=%d payload_bytes=%d",
		dir.Root(), len(s.discovery.Targets), s.discovery.ByteSize)
	return s, nil
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Discovery exposes the cached target list that defines the payload layout.
func (s *Session) Discovery() *persist.Discovery {
	return s.discovery
}

// Diagnostics returns every anomaly recorded by discovery and loads so far.
func (s *Session) Diagnostics() []persist.Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]persist.Diagnostic, len(s.diagnostics))
	copy(out, s.diagnostics)
	return out
}

func (s *Session) Catalog() *Catalog {
	return s.catalog
}

func (s *Session) OnSaveMade(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMade = append(s.onMade, fn)
}

func (s *Session) OnSaveLoaded(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLoaded = append(s.onLoaded, fn)
}

// MakeSave writes the header and every target's current values to name.
func (s *Session) MakeSave(name string) (err error) {
	start := time.Now()
	size := 0
	defer func() {
		observability.RecordOperation(observability.OpSave, err == nil, size, time.Since(start))
	}()

	if _, err := s.dir.Path(name); err != nil {
		return err
	}

	thumb := s.captureThumbnail()
	payload, err := s.discovery.Encode()
	if err != nil {
		log.Error().Msgf("session.Session.MakeSave encode failed name=%q err=%v", name, err)
		return fmt.Errorf("session: encode %q: %w", name, err)
	}

	replaced := s.dir.Exists(name)
	h := savefile.NewHeader(s.now(), thumb, s.cfg.Label)
	if err := s.writeSave(name, &h, payload); err != nil {
		log.Error().Msgf("session.Session.MakeSave write failed name=%q err=%v", name, err)
		return err
	}
	size = int(h.PayloadOffset) + len(payload)

	log.Info().Msgf("session.Session.MakeSave ok name=%q replaced=%t payload_offset=%d payload_bytes=%d", name, replaced, h.PayloadOffset, len(payload))
	s.notify(name, s.listeners(true))
	return nil
}

func (s *Session) writeSave(name string, h *savefile.Header, payload []byte) (err error) {
	f, err := s.dir.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close %q: %v", ErrIO, name, cerr)
		}
	}()

	if err := savefile.WriteHeader(f, h); err != nil {
		return fmt.Errorf("%w: write header %q: %w", ErrIO, name, err)
	}
	if _, err := f.Write(payload); err != nil {
		return fmt.Errorf("%w: write payload %q: %w", ErrIO, name, err)
	}
	return nil
}

func (s *Session) captureThumbnail() []byte {
	if s.capturer == nil {
		return nil
	}
	blob, err := s.capturer.Capture()
	if err != nil {
		log.Warn().Msgf("session.Session.MakeSave thumbnail skipped err=%v", err)
		return nil
	}
	return blob
}

// LoadSave restores every target from name into the live tree.
func (s *Session) LoadSave(name string) (err error) {
	start := time.Now()
	size := 0
	defer func() {
		observability.RecordOperation(observability.OpLoad, err == nil, size, time.Since(start))
	}()

	data, err := s.dir.ReadAll(name)
	if err != nil {
		log.Warn().Msgf("session.Session.LoadSave unavailable name=%q err=%v", name, err)
		return err
	}
	size = len(data)

	payload, err := savefile.PayloadAt(data)
	if err != nil {
		return fmt.Errorf("%w: header %q: %w", ErrIO, name, err)
	}

	diags, err := s.discovery.Decode(payload)
	if err != nil {
		log.Error().Msgf("session.Session.LoadSave decode failed name=%q err=%v", name, err)
		return fmt.Errorf("%w: payload %q: %w", ErrIO, name, err)
	}
	s.recordDiagnostics(diags)

	s.mu.Lock()
	s.status = StatusLoaded
	s.mu.Unlock()

	log.Info().Msgf("session.Session.LoadSave ok name=%q targets=%d desyncs=%d", name, len(s.discovery.Targets), len(diags))
	s.notify(name, s.listeners(false))
	return nil
}

// Peek reads only the header of name; the live tree is not touched.
func (s *Session) Peek(name string) (savefile.Header, error) {
	return s.catalog.Peek(name)
}

// Slots lists the saves available in the session's directory.
func (s *Session) Slots() ([]string, error) {
	return s.catalog.List()
}

func (s *Session) listeners(made bool) []Listener {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if made {
		return append([]Listener(nil), s.onMade...)
	}
	return append([]Listener(nil), s.onLoaded...)
}

func (s *Session) notify(name string, fns []Listener) {
	for _, fn := range fns {
		fn(name)
	}
}

func (s *Session) recordDiagnostics(diags []persist.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	for _, d := range diags {
		observability.RecordDiagnostic(string(d.Kind))
	}
	s.mu.Lock()
	s.diagnostics = append(s.diagnostics, diags...)
	s.mu.Unlock()
}
