// Package analysis coordinates detection runs so that only the newest run for
// an image is ever published.
//
// Every call to Session.Analyze takes a new generation number for its key.
// When the run finishes it is committed only if no newer run was requested
// for the same key in the meantime. Superseded runs still hand their result
// back to their own caller, but Latest never returns them.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/defect-tools-mcp/internal/defect"
)

// ErrEmptyKey is returned when a run is requested without an image key.
var ErrEmptyKey = errors.New("analysis: empty image key")

// Detector is the pipeline a Session drives.
type Detector interface {
	Detect(buf defect.PixelBuffer, p defect.Params) (*defect.Result, error)
}

// Run is one finished detection run.
type Run struct {
	Key        string         `json:"key"`
	Generation uint64         `json:"generation"`
	Committed  bool           `json:"committed"`
	FinishedAt time.Time      `json:"finished_at"`
	Result     *defect.Result `json:"result"`
}

// Session tracks the current generation and latest committed run per key.
// It is safe for concurrent use.
type Session struct {
	detector Detector
	log      zerolog.Logger

	mu     sync.Mutex
	gens   map[string]uint64
	latest map[string]*Run
}

// NewSession returns a Session that runs d.
func NewSession(d Detector, logger zerolog.Logger) *Session {
	return &Session{
		detector: d,
		log:      logger,
		gens:     make(map[string]uint64),
		latest:   make(map[string]*Run),
	}
}

// Analyze requests a new run for key. The returned Run is always complete when
// err is nil; Committed reports whether it became the key's latest result.
//
// ctx is only checked before the run starts. Once started, a run always
// completes.
func (s *Session) Analyze(ctx context.Context, key string, buf defect.PixelBuffer, p defect.Params) (*Run, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	s.mu.Lock()
	s.gens[key]++
	gen := s.gens[key]
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis of %s not started: %w", key, err)
	}

	res, err := s.detector.Detect(buf, p)
	if err != nil {
		return nil, fmt.Errorf("analysis of %s failed: %w", key, err)
	}

	run := &Run{Key: key, Generation: gen, FinishedAt: time.Now(), Result: res}

	s.mu.Lock()
	current := s.gens[key]
	if current == gen {
		run.Committed = true
		s.latest[key] = run
	}
	s.mu.Unlock()

	if !run.Committed {
		s.log.Debug().
			Str("key", key).
			Uint64("generation", gen).
			Uint64("current", current).
			Msg("discarding superseded run")
	}
	return run, nil
}

// Latest returns the most recent committed run for key.
func (s *Session) Latest(key string) (*Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.latest[key]
	return run, ok
}

// Generation returns the newest generation requested for key, or 0 if none.
func (s *Session) Generation(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[key]
}

// Forget drops the committed run for key. Generations keep counting so a run
// already in flight cannot resurrect the entry.
func (s *Session) Forget(key string) {
	s.mu.Lock()
	delete(s.latest, key)
	s.gens[key]++
	s.mu.Unlock()
}
