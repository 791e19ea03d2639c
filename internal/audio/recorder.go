// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "scope/internal/log"
)

const (
	recordBitDepth = 16
	recordBlocks   = 64
)

type recordBlock struct {
	samples []float32
	count   int
}

// Recorder forwards capture blocks to another Receiver and writes a copy
// to a WAV file from a background goroutine.
type Recorder struct {
	next     Receiver
	format   Format
	path     string
	file     *os.File
	encoder  *wav.Encoder
	buf      *goaudio.IntBuffer
	free     chan *recordBlock
	full     chan *recordBlock
	done     chan struct{}
	dropped  atomic.Uint64
	written  atomic.Uint64
	closeErr error
	once     sync.Once
}

var _ Receiver = (*Recorder)(nil)

// NewRecorder creates path and starts the writer.
func NewRecorder(path string, format Format, next Receiver) (*Recorder, error) {
	if err := format.validate(); err != nil {
		return nil, err
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}

	r := &Recorder{
		next:    next,
		format:  format,
		path:    path,
		file:    file,
		encoder: wav.NewEncoder(file, int(format.SampleRate), recordBitDepth, format.Channels, 1),
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: format.Channels,
				SampleRate:  int(format.SampleRate),
			},
			Data:           make([]int, 0, format.FramesPerBuffer*format.Channels),
			SourceBitDepth: recordBitDepth,
		},
		free: make(chan *recordBlock, recordBlocks),
		full: make(chan *recordBlock, recordBlocks),
		done: make(chan struct{}),
	}
	for range recordBlocks {
		r.free <- &recordBlock{samples: make([]float32, format.FramesPerBuffer*format.Channels)}
	}

	go r.write()
	applog.Infof("Audio: recording to %s", path)
	return r, nil
}

// Receive forwards to the wrapped receiver, then queues a copy for the
// writer. It never blocks; a block is dropped when the writer is behind.
func (r *Recorder) Receive(frames []float32, count int) {
	r.next.Receive(frames, count)

	select {
	case b := <-r.free:
		n := min(count*r.format.Channels, len(b.samples), len(frames))
		copy(b.samples, frames[:n])
		b.count = n / r.format.Channels
		r.full <- b
	default:
		r.dropped.Add(1)
	}
}

func (r *Recorder) write() {
	defer close(r.done)
	for b := range r.full {
		n := b.count * r.format.Channels
		r.buf.Data = r.buf.Data[:n]
		for i, v := range b.samples[:n] {
			r.buf.Data[i] = toPCM16(v)
		}
		if r.closeErr == nil {
			if err := r.encoder.Write(r.buf); err != nil {
				r.closeErr = fmt.Errorf("audio: write %s: %w", r.path, err)
			} else {
				r.written.Add(uint64(b.count))
			}
		}
		r.free <- b
	}
}

func toPCM16(v float32) int {
	s := int(v * 32768)
	return max(-32768, min(32767, s))
}

// Frames returns the number of frames written so far.
func (r *Recorder) Frames() uint64 { return r.written.Load() }

// Dropped returns the number of blocks skipped because the writer lagged.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

// Close flushes queued blocks and finalises the WAV header. The capture
// source must be stopped first.
func (r *Recorder) Close() error {
	r.once.Do(func() {
		close(r.full)
		<-r.done

		if err := r.encoder.Close(); err != nil && r.closeErr == nil {
			r.closeErr = fmt.Errorf("audio: finalise %s: %w", r.path, err)
		}
		if err := r.file.Close(); err != nil && r.closeErr == nil {
			r.closeErr = err
		}
		applog.Infof("Audio: recorded %d frames to %s (%d blocks dropped)",
			r.written.Load(), r.path, r.dropped.Load())
	})
	return r.closeErr
}
