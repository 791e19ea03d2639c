// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	applog "scope/internal/log"
)

// StreamConfig selects a capture device and format.
type StreamConfig struct {
	Device     string // name or index; empty for the default input
	Format     Format
	LowLatency bool
}

// Stream captures from a PortAudio input device.
type Stream struct {
	device   *portaudio.DeviceInfo
	format   Format
	latency  time.Duration
	receiver Receiver

	mu     sync.Mutex
	stream *portaudio.Stream
}

// NewStream resolves the device. PortAudio must be initialised.
func NewStream(cfg StreamConfig) (*Stream, error) {
	if err := cfg.Format.validate(); err != nil {
		return nil, err
	}
	device, err := InputDevice(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}
	if device.MaxInputChannels < cfg.Format.Channels {
		return nil, fmt.Errorf("audio: device %q has %d input channels, %d requested",
			device.Name, device.MaxInputChannels, cfg.Format.Channels)
	}

	latency := device.DefaultHighInputLatency
	if cfg.LowLatency {
		latency = device.DefaultLowInputLatency
	}
	return &Stream{device: device, format: cfg.Format, latency: latency}, nil
}

// Start opens and starts the input stream.
func (s *Stream) Start(r Receiver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != nil {
		return fmt.Errorf("audio: stream already started")
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   s.device,
			Channels: s.format.Channels,
			Latency:  s.latency,
		},
		FramesPerBuffer: s.format.FramesPerBuffer,
		SampleRate:      s.format.SampleRate,
	}

	s.receiver = r
	stream, err := portaudio.OpenStream(params, s.process)
	if err != nil {
		return fmt.Errorf("audio: open stream on %q: %w", s.device.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("audio: start stream on %q: %w", s.device.Name, err)
	}
	s.stream = stream

	applog.Infof("Audio: capturing from %q (%d ch, %.0f Hz, %d frames, latency %s)",
		s.device.Name, s.format.Channels, s.format.SampleRate, s.format.FramesPerBuffer, s.latency)
	return nil
}

// process is the PortAudio callback. It must not block or allocate.
func (s *Stream) process(in []float32) {
	s.receiver.Receive(in, len(in)/s.format.Channels)
}

// Stop stops and closes the stream; it is safe to call more than once.
func (s *Stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return nil
	}
	stream := s.stream
	s.stream = nil

	if err := stream.Stop(); err != nil {
		stream.Close()
		return fmt.Errorf("audio: stop stream: %w", err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("audio: close stream: %w", err)
	}
	applog.Infof("Audio: capture from %q stopped", s.device.Name)
	return nil
}

func (s *Stream) Format() Format                { return s.format }
func (s *Stream) Done() <-chan struct{}         { return nil }
func (s *Stream) Device() *portaudio.DeviceInfo { return s.device }

func (s *Stream) Describe() string {
	return fmt.Sprintf("portaudio device %q", s.device.Name)
}
