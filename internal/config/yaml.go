// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"scope/internal/analysis"
	applog "scope/internal/log"
	"scope/pkg/bitint"
)

// Candidate file names searched when no path is given.
var defaultLocations = []string{"scope.yaml", "config.yaml"}

// LoadConfig loads configuration from the YAML file at path. If path is empty
// the default locations are searched and the built-in defaults are used when
// none exists. Environment overrides are applied last, then the result is
// validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range defaultLocations {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		applog.Debugf("Config: loaded %s", path)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level %q is not a known level", c.LogLevel))
	}

	a := c.Audio
	switch a.Source {
	case SourcePortAudio:
	case SourceFile:
		check(a.File != "", "audio.file must be set when audio.source is %q", SourceFile)
	case SourceTone:
		check(len(a.ToneHz) > 0, "audio.tone_hz must list at least one frequency")
	default:
		errs = append(errs, fmt.Errorf("audio.source %q must be one of %s, %s, %s",
			a.Source, SourcePortAudio, SourceFile, SourceTone))
	}
	check(a.SampleRate >= MinSampleRate && a.SampleRate <= MaxSampleRate,
		"audio.sample_rate %g outside [%d, %d]", a.SampleRate, MinSampleRate, MaxSampleRate)
	check(a.FramesPerBuffer > 0 && a.FramesPerBuffer <= MaxBufferFrames,
		"audio.frames_per_buffer %d outside [1, %d]", a.FramesPerBuffer, MaxBufferFrames)
	check(a.Channels > 0 && a.Channels <= MaxChannels,
		"audio.channels %d outside [1, %d]", a.Channels, MaxChannels)
	for _, hz := range a.ToneHz {
		check(hz >= 0 && hz < a.SampleRate/2, "audio.tone_hz %g must be in [0, Nyquist)", hz)
	}

	an := c.Analysis
	check(an.FFTSize >= 2 && an.FFTSize <= MaxFFTSize && bitint.IsPowerOfTwo(an.FFTSize),
		"analysis.fft_size %d must be a power of two in [2, %d]", an.FFTSize, MaxFFTSize)
	if _, err := analysis.ParseWindowFunc(an.FFTWindow); err != nil {
		errs = append(errs, fmt.Errorf("analysis.fft_window: %w", err))
	}
	check(an.FloorDB < 0, "analysis.floor_db %g must be negative", an.FloorDB)
	check(a.RingFrames > 0 && bitint.NextPowerOfTwo(a.RingFrames) >= an.FFTSize,
		"audio.ring_frames %d must hold at least analysis.fft_size (%d) frames", a.RingFrames, an.FFTSize)

	d := c.Display
	check(d.Width > 0 && d.Height > 0, "display size %dx%d must be positive", d.Width, d.Height)
	check(d.FPS > 0 && d.FPS <= MaxFPS, "display.fps %d outside [1, %d]", d.FPS, MaxFPS)
	check(d.ChunkPixelWidth > 0, "display.chunk_pixel_width %g must be positive", d.ChunkPixelWidth)
	check(d.Resolution > 0, "display.resolution %d must be positive", d.Resolution)
	check(d.FreqLow > 0 && d.FreqHigh > d.FreqLow,
		"display frequency range [%g, %g] must be positive and increasing", d.FreqLow, d.FreqHigh)
	check(d.FreqLow < a.SampleRate/2, "display.freq_low %g must be below Nyquist", d.FreqLow)
	check(d.RangeSpan > 0, "display.range_span %g must be positive", d.RangeSpan)
	check(d.Thickness >= 0, "display.thickness %g must not be negative", d.Thickness)

	for name, b := range map[string]Ballistics{"channel": c.Smoothing.Channel, "envelope": c.Smoothing.Envelope} {
		check(b.Attack >= 0 && b.Release >= 0, "smoothing.%s rates must not be negative", name)
	}

	t := c.Transport
	if t.UDPEnabled {
		_, _, err := net.SplitHostPort(t.UDPTargetAddress)
		check(err == nil, "transport.udp_target_address %q must be host:port", t.UDPTargetAddress)
		check(t.UDPSendInterval > 0, "transport.udp_send_interval must be positive")
	}
	if t.WSEnabled {
		_, _, err := net.SplitHostPort(t.WSAddress)
		check(err == nil, "transport.ws_address %q must be host:port", t.WSAddress)
	}

	return errors.Join(errs...)
}

// applyEnvOverrides applies ENV_* variables on top of the loaded values.
// Malformed values are logged and ignored.
func (c *Config) applyEnvOverrides() {
	str := func(key string, dst *string) {
		if val, ok := os.LookupEnv(key); ok {
			*dst = val
			applog.Infof("Config: overriding %s from env: %s", key, val)
		}
	}
	boolean := func(key string, dst *bool) {
		if val, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(val)
			if err != nil {
				applog.Warnf("Config: ignoring %s=%q: %v", key, val, err)
				return
			}
			*dst = b
			applog.Infof("Config: overriding %s from env: %v", key, b)
		}
	}
	duration := func(key string, dst *time.Duration) {
		if val, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(val)
			if err != nil {
				applog.Warnf("Config: ignoring %s=%q: %v", key, val, err)
				return
			}
			*dst = d
			applog.Infof("Config: overriding %s from env: %s", key, d)
		}
	}

	// ENV_{...}
	boolean("ENV_DEBUG", &c.Debug)
	str("ENV_LOG_LEVEL", &c.LogLevel)

	// ENV_AUDIO_{...}
	str("ENV_AUDIO_SOURCE", &c.Audio.Source)
	str("ENV_AUDIO_DEVICE", &c.Audio.Device)
	str("ENV_AUDIO_FILE", &c.Audio.File)
	str("ENV_AUDIO_RECORD", &c.Audio.Record)

	// ENV_UDP_{...}
	boolean("ENV_UDP_ENABLED", &c.Transport.UDPEnabled)
	str("ENV_UDP_TARGET_ADDRESS", &c.Transport.UDPTargetAddress)
	duration("ENV_UDP_SEND_INTERVAL", &c.Transport.UDPSendInterval)

	// ENV_WS_{...}
	boolean("ENV_WS_ENABLED", &c.Transport.WSEnabled)
	str("ENV_WS_ADDRESS", &c.Transport.WSAddress)

	c.Audio.Source = strings.ToLower(strings.TrimSpace(c.Audio.Source))
}
