// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	applog "scope/internal/log"
	"scope/internal/pipeline"
)

// Publisher periodically copies the latest frame out of a FrameSource and
// sends it to every transport. Frames already sent are not repeated.
type Publisher struct {
	source     FrameSource
	transports []Transport
	interval   time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex

	frame   pipeline.Frame
	lastSeq uint64
	sent    uint64
	failed  uint64
}

// NewPublisher creates a publisher. An interval <= 0 defaults to 16ms.
func NewPublisher(interval time.Duration, source FrameSource, transports ...Transport) (*Publisher, error) {
	if source == nil {
		return nil, fmt.Errorf("Publisher: frame source cannot be nil")
	}
	if len(transports) == 0 {
		return nil, fmt.Errorf("Publisher: at least one transport is required")
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("Publisher: Invalid interval provided, defaulting to %s", interval)
	}

	applog.Infof("Publisher: Initializing (Interval: %s, Transports: %d)", interval, len(transports))
	return &Publisher{source: source, transports: transports, interval: interval}, nil
}

// Start launches the publishing goroutine. Calling Start on a running
// publisher does nothing.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("Publisher: Start called but already running.")
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Debugf("Publisher: goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.publish()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the goroutine to exit and waits for it. Safe to call more
// than once.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("Publisher: stopped (%d frames sent, %d send errors)", p.sent, p.failed)
	return nil
}

// publish sends the newest frame if it has not been sent yet. Only the
// publishing goroutine calls it.
func (p *Publisher) publish() {
	if !p.source.Load(&p.frame) || p.frame.Seq == p.lastSeq {
		return
	}
	p.lastSeq = p.frame.Seq

	for _, t := range p.transports {
		if err := t.Send(&p.frame); err != nil {
			p.failed++
			applog.Debugf("Publisher: send frame %d via %T: %v", p.frame.Seq, t, err)
		}
	}
	p.sent++
}

// Close stops the publisher and closes every transport.
func (p *Publisher) Close() error {
	errs := []error{p.Stop()}
	for _, t := range p.transports {
		errs = append(errs, t.Close())
	}
	return errors.Join(errs...)
}

var _ interface{ Close() error } = (*Publisher)(nil)
