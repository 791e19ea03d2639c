// SPDX-License-Identifier: MIT
package pipeline

import (
	"context"
	"fmt"
	"time"

	applog "scope/internal/log"
)

// statsEvery is how often the runner logs ring statistics at debug level.
const statsEvery = 5 * time.Second

// Runner drives Update from a fixed-rate ticker when there is no interactive
// renderer.
type Runner struct {
	p        *Pipeline
	interval time.Duration
	onFrame  func(*Pipeline)
}

// NewRunner returns a runner ticking at fps frames per second. onFrame, if
// not nil, is called after every Update on the runner's goroutine.
func NewRunner(p *Pipeline, fps int, onFrame func(*Pipeline)) (*Runner, error) {
	if fps < 1 {
		return nil, fmt.Errorf("pipeline: frame rate must be positive, got %d", fps)
	}
	return &Runner{p: p, interval: time.Second / time.Duration(fps), onFrame: onFrame}, nil
}

// Run updates the pipeline once per tick until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	applog.Infof("Runner: started (interval %s)", r.interval)
	var (
		lastLog     = time.Now()
		lastDropped uint64
	)
	for {
		select {
		case <-ctx.Done():
			applog.Infof("Runner: stopped after %d frames", r.p.updates)
			return nil
		case now := <-ticker.C:
			r.p.Update()
			if r.onFrame != nil {
				r.onFrame(r.p)
			}

			if now.Sub(lastLog) >= statsEvery {
				s := r.p.Stats()
				if s.Ingress.Dropped != lastDropped {
					applog.Warnf("Runner: capture ring overflowed, %d frames dropped so far", s.Ingress.Dropped)
					lastDropped = s.Ingress.Dropped
				}
				applog.Debugf("Runner: %d updates, %d analyses, %d/%d frames buffered",
					s.Updates, s.Analyses, s.Ingress.Buffered, s.Ingress.Capacity)
				lastLog = now
			}
		}
	}
}
