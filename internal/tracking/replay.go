package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/thumbstick/internal/hand"
	"github.com/ayusman/thumbstick/internal/log"
)

// Frame is one recorded update with its offset from the start of the
// recording.
type Frame struct {
	Offset time.Duration `json:"offset"`
	Update hand.Update   `json:"update"`
}

// ReplaySource plays recorded frames back.
type ReplaySource struct {
	hub

	frames []Frame
	speed  float64
	loop   bool
	logger *slog.Logger

	mu     sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup
}

// ReplayOption configures a ReplaySource.
type ReplayOption func(*ReplaySource)

// WithSpeed scales playback. 2 plays twice as fast; values <= 0 play
// without waiting between frames.
func WithSpeed(speed float64) ReplayOption {
	return func(r *ReplaySource) { r.speed = speed }
}

// WithLoop restarts the recording after the last frame.
func WithLoop(loop bool) ReplayOption {
	return func(r *ReplaySource) { r.loop = loop }
}

// NewReplaySource returns a source over frames, which must be ordered by
// Offset.
func NewReplaySource(frames []Frame, opts ...ReplayOption) *ReplaySource {
	r := &ReplaySource{
		frames: frames,
		speed:  1,
		logger: log.With("component", "replay-source"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins playback. Starting a source whose playback has finished
// plays the recording again; starting one that is still playing does
// nothing. An empty recording cannot be played.
func (r *ReplaySource) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopCh != nil {
		select {
		case <-r.done:
			r.wg.Wait()
			r.stopCh = nil
		default:
			return nil
		}
	}
	if len(r.frames) == 0 {
		return fmt.Errorf("%w: recording has no frames", ErrTrackingUnavailable)
	}

	r.stopCh = make(chan struct{})
	r.done = make(chan struct{})
	r.wg.Add(1)
	go r.run(ctx, r.stopCh, r.done)

	r.logger.Info("replay started", "frames", len(r.frames), "speed", r.speed)
	return nil
}

// Stop halts playback.
func (r *ReplaySource) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopCh == nil {
		return
	}
	close(r.stopCh)
	r.wg.Wait()
	r.stopCh = nil
}

// Done is closed when playback finishes or is stopped. It is nil before
// the first Start.
func (r *ReplaySource) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *ReplaySource) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer r.wg.Done()
	defer close(done)

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		start := time.Now()
		for _, f := range r.frames {
			if wait := r.delay(f.Offset) - time.Since(start); wait > 0 {
				timer.Reset(wait)
				select {
				case <-stop:
					return
				case <-ctx.Done():
					return
				case <-timer.C:
				}
			} else {
				select {
				case <-stop:
					return
				case <-ctx.Done():
					return
				default:
				}
			}
			r.publish(f.Update)
		}
		if !r.loop {
			r.logger.Info("replay finished")
			return
		}
	}
}

func (r *ReplaySource) delay(offset time.Duration) time.Duration {
	if r.speed <= 0 {
		return 0
	}
	return time.Duration(float64(offset) / r.speed)
}
