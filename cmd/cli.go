// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scope/internal/config"
	"scope/pkg/build"
)

// Commands other than the default visualiser.
const (
	CommandList    = "list"
	CommandDevices = "devices"
	CommandVersion = "version"
)

// Options is the parsed command line.
type Options struct {
	Config   *config.Config
	Command  string // empty to run the visualiser
	Headless bool   // run without the terminal UI
}

// flagValues holds raw flag values; only flags the user set are applied
// over the loaded configuration.
type flagValues struct {
	configPath      string
	source          string
	device          string
	file            string
	loop            bool
	channels        int
	sampleRate      float64
	framesPerBuffer int
	lowLatency      bool
	fftSize         int
	window          string
	fps             int
	freqLow         float64
	freqHigh        float64
	record          string
	udp             bool
	udpTarget       string
	ws              bool
	wsAddress       string
	verbose         bool
	logLevel        string
	headless        bool
}

// ParseArgs parses args (without the program name) and loads the
// configuration. It returns nil options when only help was requested.
func ParseArgs(args []string) (*Options, error) {
	buildInfo := build.GetBuildFlags()
	var (
		v       flagValues
		command string
		ran     bool
	)

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ran = true
			return nil
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	subcommand := func(use, short string) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				command = use
				ran = true
				return nil
			},
		}
	}
	rootCmd.AddCommand(
		subcommand(CommandList, "List available audio devices"),
		subcommand(CommandDevices, "Choose an input device interactively"),
		subcommand(CommandVersion, "Print build information"),
	)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&v.configPath, "config", "f", "",
		"YAML configuration file (default: scope.yaml or config.yaml if present)")

	// Audio source
	pf.StringVar(&v.source, "source", config.DefaultSource,
		"Capture source: "+strings.Join([]string{config.SourcePortAudio, config.SourceFile, config.SourceTone}, ", "))
	pf.StringVarP(&v.device, "device", "d", "",
		"Input device name or index. Use 'list' command to see available devices.")
	pf.StringVar(&v.file, "file", "", "WAV file for the file source")
	pf.BoolVar(&v.loop, "loop", false, "Restart the file source at end of file")
	pf.IntVarP(&v.channels, "channels", "c", config.DefaultChannels,
		"Number of channels to capture (1=mono, 2=stereo)")
	pf.Float64VarP(&v.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	pf.IntVarP(&v.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	pf.BoolVarP(&v.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use the device's low input latency")
	pf.StringVarP(&v.record, "record", "r", "", "Also record the captured audio to this WAV file")

	// Analysis and display
	pf.IntVar(&v.fftSize, "fft-size", config.DefaultFFTSize, "Transform size (power of two)")
	pf.StringVar(&v.window, "window", config.DefaultFFTWindow, "Window function")
	pf.IntVar(&v.fps, "fps", config.DefaultFPS, "Frames per second")
	pf.Float64Var(&v.freqLow, "freq-low", config.DefaultFreqLow, "Lowest displayed frequency in Hz")
	pf.Float64Var(&v.freqHigh, "freq-high", config.DefaultFreqHigh, "Highest displayed frequency in Hz")
	pf.BoolVar(&v.headless, "headless", false, "Run without the terminal UI")

	// Transport
	pf.BoolVar(&v.udp, "udp", false, "Publish frames over UDP")
	pf.StringVar(&v.udpTarget, "udp-target", config.DefaultUDPTargetAddress, "UDP target host:port")
	pf.BoolVar(&v.ws, "ws", false, "Serve frames over websocket")
	pf.StringVar(&v.wsAddress, "ws-address", config.DefaultWSAddress, "Websocket listen address")

	// Debug
	pf.BoolVarP(&v.verbose, "verbose", "v", false, "Show verbose output")
	pf.StringVar(&v.logLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	if !ran {
		return nil, nil
	}

	cfg, err := config.LoadConfig(v.configPath)
	if err != nil {
		return nil, err
	}
	applyFlags(cfg, &v, func(name string) bool { return pf.Changed(name) })
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Options{Config: cfg, Command: command, Headless: v.headless}, nil
}

// applyFlags copies every flag the user set onto cfg.
func applyFlags(cfg *config.Config, v *flagValues, changed func(string) bool) {
	set := func(name string, apply func()) {
		if changed(name) {
			apply()
		}
	}
	set("source", func() { cfg.Audio.Source = v.source })
	set("device", func() { cfg.Audio.Device = v.device })
	set("file", func() {
		cfg.Audio.File = v.file
		if !changed("source") {
			cfg.Audio.Source = config.SourceFile
		}
	})
	set("loop", func() { cfg.Audio.Loop = v.loop })
	set("channels", func() { cfg.Audio.Channels = v.channels })
	set("sample-rate", func() { cfg.Audio.SampleRate = v.sampleRate })
	set("frames-per-buffer", func() { cfg.Audio.FramesPerBuffer = v.framesPerBuffer })
	set("low-latency", func() { cfg.Audio.LowLatency = v.lowLatency })
	set("record", func() { cfg.Audio.Record = v.record })
	set("fft-size", func() { cfg.Analysis.FFTSize = v.fftSize })
	set("window", func() { cfg.Analysis.FFTWindow = v.window })
	set("fps", func() { cfg.Display.FPS = v.fps })
	set("freq-low", func() { cfg.Display.FreqLow = v.freqLow })
	set("freq-high", func() { cfg.Display.FreqHigh = v.freqHigh })
	set("udp", func() { cfg.Transport.UDPEnabled = v.udp })
	set("udp-target", func() {
		cfg.Transport.UDPTargetAddress = v.udpTarget
		cfg.Transport.UDPEnabled = true
	})
	set("ws", func() { cfg.Transport.WSEnabled = v.ws })
	set("ws-address", func() {
		cfg.Transport.WSAddress = v.wsAddress
		cfg.Transport.WSEnabled = true
	})
	set("verbose", func() { cfg.Debug = v.verbose })
	set("log-level", func() { cfg.LogLevel = v.logLevel })
}
