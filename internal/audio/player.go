// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"sync"
	"time"

	applog "scope/internal/log"
)

// player delivers generated blocks at real-time pace from its own goroutine,
// standing in for a hardware callback.
type player struct {
	name   string
	format Format
	// next fills block and returns the number of frames written; 0 ends
	// playback.
	next func(block []float32) int

	mu       sync.Mutex
	stop     chan struct{}
	stopped  bool
	done     chan struct{}
	wg       sync.WaitGroup
	finished sync.Once
}

func newPlayer(name string, format Format, next func([]float32) int) *player {
	return &player{name: name, format: format, next: next, done: make(chan struct{})}
}

func (p *player) start(r Receiver) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return fmt.Errorf("audio: %s already started", p.name)
	}
	p.stop = make(chan struct{})

	block := make([]float32, p.format.FramesPerBuffer*p.format.Channels)
	interval := p.format.BlockDuration()
	stop := p.stop

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				n := p.next(block)
				if n == 0 {
					applog.Infof("Audio: %s finished", p.name)
					p.finished.Do(func() { close(p.done) })
					return
				}
				r.Receive(block, n)
			}
		}
	}()

	applog.Infof("Audio: %s started (%d ch, %.0f Hz, block %s)",
		p.name, p.format.Channels, p.format.SampleRate, interval)
	return nil
}

func (p *player) halt() error {
	p.mu.Lock()
	stop := p.stop
	if stop != nil && !p.stopped {
		close(stop)
		p.stopped = true
	}
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}
