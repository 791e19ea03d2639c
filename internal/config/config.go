// SPDX-License-Identifier: MIT
package config

import "time"

// Defaults and limits for every configurable value.
const (
	SourcePortAudio = "portaudio"
	SourceFile      = "file"
	SourceTone      = "tone"

	DefaultSource          = SourcePortAudio
	DefaultSampleRate      = 48000
	DefaultFramesPerBuffer = 256
	DefaultChannels        = 2
	DefaultLowLatency      = true
	DefaultRingFrames      = 4096

	DefaultFFTSize   = 2048
	DefaultFFTWindow = "hann"
	DefaultFloorDB   = -120.0

	DefaultWidth           = 640
	DefaultHeight          = 480
	DefaultFPS             = 60
	DefaultChunkPixelWidth = 2.0
	DefaultResolution      = 5
	DefaultFreqLow         = 50.0
	DefaultFreqHigh        = 20000.0
	DefaultRangeTop        = 15.0
	DefaultRangeSpan       = 60.0
	DefaultThickness       = 8.0

	DefaultChannelAttack   = 0.1
	DefaultChannelRelease  = 1.5
	DefaultEnvelopeAttack  = 3.0
	DefaultEnvelopeRelease = 5.0

	DefaultUDPTargetAddress = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 33 * time.Millisecond
	DefaultWSAddress        = "127.0.0.1:8080"

	DefaultLogLevel = "info"

	MinSampleRate   = 8000
	MaxSampleRate   = 192000
	MaxBufferFrames = 8192
	MaxChannels     = 8
	MaxFFTSize      = 1 << 16
	MaxFPS          = 240
)

// Config is the complete application configuration, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Verbose logging.
	LogLevel  string          `yaml:"log_level"` // debug, info, warn or error.
	Audio     AudioConfig     `yaml:"audio"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Display   DisplayConfig   `yaml:"display"`
	Smoothing SmoothingConfig `yaml:"smoothing"`
	Transport TransportConfig `yaml:"transport"`
}

// AudioConfig selects and configures the capture source.
type AudioConfig struct {
	Source          string    `yaml:"source"`            // portaudio, file or tone.
	Device          string    `yaml:"device"`            // Device name or index; empty for the default input.
	SampleRate      float64   `yaml:"sample_rate"`       // Hz.
	FramesPerBuffer int       `yaml:"frames_per_buffer"` // Frames per capture callback.
	Channels        int       `yaml:"channels"`          // Interleaved input channels.
	LowLatency      bool      `yaml:"low_latency"`       // Use the device's low input latency.
	RingFrames      int       `yaml:"ring_frames"`       // Capture ring size, rounded up to a power of two.
	File            string    `yaml:"file"`              // WAV file for the file source.
	Loop            bool      `yaml:"loop"`              // Restart the file at EOF.
	ToneHz          []float64 `yaml:"tone_hz"`           // Per-channel tone frequencies for the tone source.
	Record          string    `yaml:"record"`            // Tee captured audio to this WAV file.
}

// AnalysisConfig configures the spectral transform.
type AnalysisConfig struct {
	FFTSize   int     `yaml:"fft_size"`   // Power of two.
	FFTWindow string  `yaml:"fft_window"` // hann, hamming, blackman, ...
	FloorDB   float64 `yaml:"floor_db"`   // Substituted for silent bins.
	Normalize bool    `yaml:"normalize"`  // Express levels relative to the loudest bin seen.
}

// DisplayConfig configures the curve layout.
type DisplayConfig struct {
	Width           int     `yaml:"width"`             // Initial width in pixels.
	Height          int     `yaml:"height"`            // Initial height in pixels.
	FPS             int     `yaml:"fps"`               // Analysis and render rate.
	ChunkPixelWidth float64 `yaml:"chunk_pixel_width"` // Minimum pixels per chunk.
	Resolution      int     `yaml:"resolution"`        // Interpolated points per chunk.
	FreqLow         float64 `yaml:"freq_low"`          // Hz at the left edge.
	FreqHigh        float64 `yaml:"freq_high"`         // Hz at the right edge.
	RangeTop        float64 `yaml:"range_top"`         // dB at the top edge.
	RangeSpan       float64 `yaml:"range_span"`        // dB from bottom to top.
	Thickness       float64 `yaml:"thickness"`         // Stroke width in pixels.
}

// Ballistics are attack and release rates for one kind of layer.
type Ballistics struct {
	Attack  float64 `yaml:"attack"`
	Release float64 `yaml:"release"`
}

// SmoothingConfig holds the per-layer ballistics.
type SmoothingConfig struct {
	Channel  Ballistics `yaml:"channel"`  // Per-channel curves.
	Envelope Ballistics `yaml:"envelope"` // Combined maximum layer.
}

// TransportConfig configures frame publishing.
type TransportConfig struct {
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Send binary frames over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // host:port.
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Publish interval.
	WSEnabled        bool          `yaml:"ws_enabled"`         // Serve JSON frames over websocket.
	WSAddress        string        `yaml:"ws_address"`         // Listen address.
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			Source:          DefaultSource,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			Channels:        DefaultChannels,
			LowLatency:      DefaultLowLatency,
			RingFrames:      DefaultRingFrames,
			ToneHz:          []float64{440, 1000},
		},
		Analysis: AnalysisConfig{
			FFTSize:   DefaultFFTSize,
			FFTWindow: DefaultFFTWindow,
			FloorDB:   DefaultFloorDB,
		},
		Display: DisplayConfig{
			Width:           DefaultWidth,
			Height:          DefaultHeight,
			FPS:             DefaultFPS,
			ChunkPixelWidth: DefaultChunkPixelWidth,
			Resolution:      DefaultResolution,
			FreqLow:         DefaultFreqLow,
			FreqHigh:        DefaultFreqHigh,
			RangeTop:        DefaultRangeTop,
			RangeSpan:       DefaultRangeSpan,
			Thickness:       DefaultThickness,
		},
		Smoothing: SmoothingConfig{
			Channel:  Ballistics{Attack: DefaultChannelAttack, Release: DefaultChannelRelease},
			Envelope: Ballistics{Attack: DefaultEnvelopeAttack, Release: DefaultEnvelopeRelease},
		},
		Transport: TransportConfig{
			UDPTargetAddress: DefaultUDPTargetAddress,
			UDPSendInterval:  DefaultUDPSendInterval,
			WSAddress:        DefaultWSAddress,
		},
	}
}

// FrameInterval returns the duration of one display frame.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.Display.FPS)
}
