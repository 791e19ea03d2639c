// SPDX-License-Identifier: MIT
/*
Package audio provides the capture sources that feed the pipeline.

Every source delivers interleaved float32 frames to a Receiver on its own
thread: the PortAudio callback thread for Stream, a pacing goroutine for
ToneSource and FileSource. Receive must return promptly and is never called
concurrently with itself.
*/
package audio

import (
	"fmt"
	"time"

	"scope/internal/config"
)

// Receiver consumes capture blocks. frames holds count interleaved frames.
type Receiver interface {
	Receive(frames []float32, count int)
}

// Format describes the frames a source delivers.
type Format struct {
	SampleRate      float64
	Channels        int
	FramesPerBuffer int
}

// BlockDuration is the wall-clock length of one block.
func (f Format) BlockDuration() time.Duration {
	return time.Duration(float64(f.FramesPerBuffer) / f.SampleRate * float64(time.Second))
}

func (f Format) validate() error {
	if f.SampleRate <= 0 || f.Channels <= 0 || f.FramesPerBuffer <= 0 {
		return fmt.Errorf("audio: invalid format %+v", f)
	}
	return nil
}

// Source is a running or startable capture source.
type Source interface {
	// Format reports what Start will deliver.
	Format() Format
	// Start begins delivering blocks to r.
	Start(r Receiver) error
	// Stop halts delivery. Receive is not called after Stop returns.
	Stop() error
	// Done is closed when a finite source runs out; nil for live sources.
	Done() <-chan struct{}
	// Describe names the source for logs.
	Describe() string
}

var (
	_ Source = (*Stream)(nil)
	_ Source = (*ToneSource)(nil)
	_ Source = (*FileSource)(nil)
)

// Open creates the source selected by cfg.Audio.Source. PortAudio must
// already be initialised for the portaudio source.
func Open(cfg *config.Config) (Source, error) {
	a := cfg.Audio
	format := Format{SampleRate: a.SampleRate, Channels: a.Channels, FramesPerBuffer: a.FramesPerBuffer}

	var (
		src Source
		err error
	)
	switch a.Source {
	case config.SourcePortAudio:
		src, err = NewStream(StreamConfig{
			Device:     a.Device,
			Format:     format,
			LowLatency: a.LowLatency,
		})
	case config.SourceTone:
		src, err = NewToneSource(format, a.ToneHz...)
	case config.SourceFile:
		src, err = NewFileSource(a.File, a.FramesPerBuffer, a.Loop)
	default:
		return nil, fmt.Errorf("audio: unknown source %q", a.Source)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}
