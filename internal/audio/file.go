// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// FileSource replays a decoded WAV file block by block at its own sample
// rate, as if it were being captured live.
type FileSource struct {
	*player
	path    string
	samples []float32 // interleaved, normalised to [-1, 1)
	pos     int       // next frame
	frames  int
	loop    bool
}

// NewFileSource decodes path completely up front.
func NewFileSource(path string, framesPerBuffer int, loop bool) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("audio: %s is not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audio: decode %s: %w", path, err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 || buf.Format.SampleRate < 1 {
		return nil, fmt.Errorf("audio: %s has no usable format", path)
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("audio: %s has unsupported bit depth %d", path, bitDepth)
	}

	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels
	if frames == 0 {
		return nil, fmt.Errorf("audio: %s contains no audio", path)
	}

	scale := 1 / float32(int64(1)<<(bitDepth-1))
	samples := make([]float32, frames*channels)
	for i := range samples {
		samples[i] = float32(buf.Data[i]) * scale
	}
	// 8-bit WAV is unsigned.
	if bitDepth == 8 {
		for i := range samples {
			samples[i] -= 1
		}
	}

	format := Format{
		SampleRate:      float64(buf.Format.SampleRate),
		Channels:        channels,
		FramesPerBuffer: framesPerBuffer,
	}
	if err := format.validate(); err != nil {
		return nil, err
	}

	s := &FileSource{path: path, samples: samples, frames: frames, loop: loop}
	s.player = newPlayer("file "+path, format, s.fill)
	return s, nil
}

func (s *FileSource) fill(block []float32) int {
	channels := s.format.Channels
	want := len(block) / channels
	written := 0
	for written < want {
		if s.pos == s.frames {
			if !s.loop {
				break
			}
			s.pos = 0
		}
		n := min(want-written, s.frames-s.pos)
		copy(block[written*channels:], s.samples[s.pos*channels:(s.pos+n)*channels])
		s.pos += n
		written += n
	}
	return written
}

// Frames returns the decoded length in frames.
func (s *FileSource) Frames() int { return s.frames }

func (s *FileSource) Format() Format         { return s.format }
func (s *FileSource) Start(r Receiver) error { return s.start(r) }
func (s *FileSource) Stop() error            { return s.halt() }
func (s *FileSource) Done() <-chan struct{}  { return s.done }
func (s *FileSource) Describe() string       { return fmt.Sprintf("WAV file %s", s.path) }
