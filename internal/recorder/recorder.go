// Package recorder captures tracking updates from a source into the store.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/thumbstick/internal/hand"
	"github.com/ayusman/thumbstick/internal/log"
	"github.com/ayusman/thumbstick/internal/store"
	"github.com/ayusman/thumbstick/internal/tracking"
)

// DefaultFlushInterval is how often buffered frames are written.
const DefaultFlushInterval = time.Second

// ErrRecording is returned by Start while a recording is in progress.
var ErrRecording = errors.New("recorder: already recording")

// Recorder writes every update from a source into a new recording.
type Recorder struct {
	repo          *store.RecordingRepository
	src           tracking.Source
	flushInterval time.Duration
	logger        *slog.Logger

	mu       sync.Mutex
	rec      *store.Recording
	start    time.Time
	pending  []tracking.Frame
	unsub    func()
	stopCh   chan struct{}
	wg       sync.WaitGroup
	flushErr error
}

// New returns a recorder for src writing into repo.
func New(repo *store.RecordingRepository, src tracking.Source) *Recorder {
	return &Recorder{
		repo:          repo,
		src:           src,
		flushInterval: DefaultFlushInterval,
		logger:        log.With("component", "recorder"),
	}
}

// SetFlushInterval changes how often frames are written. Non-positive
// values are ignored.
func (r *Recorder) SetFlushInterval(d time.Duration) {
	if d > 0 {
		r.flushInterval = d
	}
}

// Start creates a recording called name and begins capturing. The source is
// started too.
func (r *Recorder) Start(ctx context.Context, name string) (*store.Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rec != nil {
		return nil, ErrRecording
	}

	rec := &store.Recording{Name: name}
	if err := r.repo.Create(rec); err != nil {
		return nil, fmt.Errorf("recorder: create recording: %w", err)
	}

	unsub := r.src.Subscribe(r.capture)
	if err := r.src.Start(ctx); err != nil {
		unsub()
		if delErr := r.repo.Delete(rec.ID); delErr != nil {
			r.logger.Warn("removing empty recording", "id", rec.ID, "error", delErr)
		}
		return nil, fmt.Errorf("recorder: start source: %w", err)
	}

	r.rec = rec
	r.start = time.Time{}
	r.pending = nil
	r.flushErr = nil
	r.unsub = unsub
	r.stopCh = make(chan struct{})
	r.wg.Add(1)
	go r.flushLoop(r.stopCh)

	r.logger.Info("recording started", "id", rec.ID, "name", name)
	return rec, nil
}

// Stop stops capturing, writes what is left and returns the finished
// recording.
func (r *Recorder) Stop() (*store.Recording, error) {
	r.mu.Lock()
	if r.rec == nil {
		r.mu.Unlock()
		return nil, nil
	}
	r.unsub()
	stopCh := r.stopCh
	r.mu.Unlock()

	r.src.Stop()
	close(stopCh)
	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.flushLocked()
	if err == nil {
		err = r.flushErr
	}
	id := r.rec.ID
	r.rec = nil
	r.unsub = nil
	r.stopCh = nil
	if err != nil {
		return nil, fmt.Errorf("recorder: flush: %w", err)
	}

	rec, err := r.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	r.logger.Info("recording stopped", "id", rec.ID, "frames", rec.Frames, "duration", rec.Duration)
	return rec, nil
}

// Recording returns the recording in progress, or nil.
func (r *Recorder) Recording() *store.Recording {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec
}

func (r *Recorder) capture(u hand.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rec == nil {
		return
	}
	ts := u.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	if r.start.IsZero() {
		r.start = ts
	}
	offset := ts.Sub(r.start)
	if offset < 0 {
		offset = 0
	}
	r.pending = append(r.pending, tracking.Frame{Offset: offset, Update: u})
}

func (r *Recorder) flushLoop(stop <-chan struct{}) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			if err := r.flushLocked(); err != nil && r.flushErr == nil {
				r.flushErr = err
				r.logger.Error("writing frames", "error", err)
			}
			r.mu.Unlock()
		}
	}
}

func (r *Recorder) flushLocked() error {
	if len(r.pending) == 0 {
		return nil
	}
	if err := r.repo.AppendFrames(r.rec.ID, r.pending); err != nil {
		return err
	}
	r.pending = r.pending[:0]
	return nil
}
