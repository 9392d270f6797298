// Package controller binds a tracking source to a signal processor.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ayusman/thumbstick/internal/hand"
	"github.com/ayusman/thumbstick/internal/joint"
	"github.com/ayusman/thumbstick/internal/log"
	"github.com/ayusman/thumbstick/internal/signal"
	"github.com/ayusman/thumbstick/internal/tracking"
)

// Controller turns tracking updates from one source into a thumbstick
// signal. Signal is safe to call from any goroutine.
type Controller struct {
	src       tracking.Source
	extractor joint.Extractor
	processor *signal.Processor
	logger    *slog.Logger

	mu          sync.Mutex
	running     bool
	unsubscribe func()

	// touched only from the source goroutine
	wasActive bool
	frames    uint64
}

// New validates cfg and returns a stopped controller over src.
func New(src tracking.Source, cfg signal.Config) (*Controller, error) {
	if src == nil {
		return nil, fmt.Errorf("controller: nil source")
	}
	p, err := signal.NewProcessor(cfg)
	if err != nil {
		return nil, err
	}
	return &Controller{
		src:       src,
		extractor: joint.NewExtractor(cfg.ReferenceJoint),
		processor: p,
		logger:    log.With("component", "controller", "hand", cfg.HandSide.String()),
	}, nil
}

// Start resets the signal to neutral, subscribes to the source and starts
// it. A start failure is returned wrapped and leaves the controller
// stopped. Starting a running controller does nothing.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	c.processor.Reset()
	c.wasActive = false

	unsub := c.src.Subscribe(c.onUpdate)
	if err := c.src.Start(ctx); err != nil {
		unsub()
		return fmt.Errorf("controller: start source: %w", err)
	}

	c.unsubscribe = unsub
	c.running = true
	c.logger.Info("controller started")
	return nil
}

// Stop unsubscribes, stops the source and resets the signal to neutral.
// Stop is idempotent.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	c.unsubscribe()
	c.unsubscribe = nil
	c.src.Stop()
	c.processor.Reset()
	c.wasActive = false
	c.running = false
	c.logger.Info("controller stopped")
}

// Running reports whether the controller is started.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Signal returns the latest signal snapshot.
func (c *Controller) Signal() signal.Signal {
	return c.processor.Signal()
}

// Config returns the signal configuration.
func (c *Controller) Config() signal.Config {
	return c.processor.Config()
}

// HandleUpdate feeds one update through the extractor and processor. It is
// what the source subscription calls and is exported for hosts that drive
// the controller without starting it. It must not be called while the
// controller is running.
func (c *Controller) HandleUpdate(u hand.Update) signal.Signal {
	left := c.extractor.Extract(u.Left)
	right := c.extractor.Extract(u.Right)

	s := c.processor.OnFrame(&left, &right)
	c.frames++

	if s.Active != c.wasActive {
		if s.Active {
			c.logger.Debug("signal active", "magnitude", s.Magnitude, "frame", c.frames)
		} else {
			c.logger.Debug("signal reset", "frame", c.frames)
		}
		c.wasActive = s.Active
	}
	return s
}

func (c *Controller) onUpdate(u hand.Update) {
	c.HandleUpdate(u)
}
