// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"scope/cmd"
	"scope/internal/audio"
	"scope/internal/config"
	applog "scope/internal/log"
	"scope/internal/pipeline"
	"scope/internal/transport"
	"scope/internal/transport/udp"
	"scope/internal/tui"
	"scope/pkg/build"
)

// debugLogFile receives log output while the terminal UI owns the screen.
const debugLogFile = "scope.log"

var errSourceFinished = errors.New("source finished")

// main runs in three phases:
//
// 1. Startup: parse arguments, configure logging, initialise PortAudio when
// needed and run one-off commands.
//
// 2. Running: the capture source pushes into the pipeline from its own
// thread while the terminal UI (or the headless runner) drives Update and
// the publisher ships snapshots to the configured transports.
//
// 3. Shutdown: on a signal, quit key or end of file, stop the source first
// so nothing pushes into a pipeline that is going away, then flush the
// recorder and close transports.
func main() {
	if err := execute(); err != nil {
		applog.Fatalf("%v", err)
	}
}

func execute() error {
	buildErr := build.Initialize()

	opts, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		return err
	}
	if opts == nil {
		return nil
	}
	cfg := opts.Config

	if err := applog.Configure(cfg.LogLevel, cfg.Debug); err != nil {
		return err
	}
	if buildErr != nil {
		applog.Debugf("Build: development build (%v)", buildErr)
	}

	if opts.Command == cmd.CommandVersion {
		fmt.Println(build.GetBuildFlags())
		return nil
	}

	if cfg.Audio.Source == config.SourcePortAudio || opts.Command != "" {
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer func() {
			if err := audio.Terminate(); err != nil {
				applog.Errorf("%v", err)
			}
		}()
	}

	switch opts.Command {
	case cmd.CommandList:
		return audio.ListDevices(os.Stdout)
	case cmd.CommandDevices:
		return pickDevice()
	default:
		return run(cfg, opts.Headless)
	}
}

// pickDevice runs the interactive picker and prints the matching config.
func pickDevice() error {
	sel, err := tui.PickDevice()
	if err != nil || sel == nil {
		return err
	}
	fmt.Printf("audio:\n  device: %q\n  sample_rate: %.0f\n", sel.Device.Name, sel.SampleRate)
	return nil
}

func run(cfg *config.Config, headless bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interactive := !headless && term.IsTerminal(int(os.Stdout.Fd()))
	if interactive {
		restore, err := redirectLogs(cfg.Debug)
		if err != nil {
			return err
		}
		defer restore()
	}

	src, err := audio.Open(cfg)
	if err != nil {
		return err
	}
	format := src.Format()
	cfg.Audio.SampleRate = format.SampleRate
	cfg.Audio.Channels = format.Channels

	popts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	p, err := pipeline.New(popts)
	if err != nil {
		return err
	}

	var receiver audio.Receiver = p
	var recorder *audio.Recorder
	if cfg.Audio.Record != "" {
		recorder, err = audio.NewRecorder(cfg.Audio.Record, format, p)
		if err != nil {
			return err
		}
		receiver = recorder
	}

	publisher, err := newPublisher(cfg, p.Snapshot())
	if err != nil {
		closeRecorder(recorder)
		return err
	}

	var runner *pipeline.Runner
	if !interactive {
		runner, err = pipeline.NewRunner(p, cfg.Display.FPS, nil)
		if err != nil {
			closeRecorder(recorder)
			closePublisher(publisher)
			return err
		}
	}

	if err := src.Start(receiver); err != nil {
		closeRecorder(recorder)
		closePublisher(publisher)
		return err
	}
	if publisher != nil {
		publisher.Start()
	}
	applog.Infof("Scope: %s, %d layers, %d fps", src.Describe(), len(p.Layers()), cfg.Display.FPS)

	g, gctx := errgroup.WithContext(ctx)
	if done := src.Done(); done != nil {
		g.Go(func() error {
			select {
			case <-done:
				return errSourceFinished
			case <-gctx.Done():
				return nil
			}
		})
	}
	if interactive {
		g.Go(func() error {
			defer cancel()
			return tui.RunSpectrum(gctx, p, cfg.Display.FPS, build.GetBuildFlags().Name+" • "+src.Describe())
		})
	} else {
		g.Go(func() error { return runner.Run(gctx) })
	}

	err = g.Wait()
	if errors.Is(err, errSourceFinished) {
		err = nil
	}

	// Shutdown order matters: nothing may call Receive once the recorder
	// is closed.
	if stopErr := src.Stop(); stopErr != nil {
		applog.Errorf("%v", stopErr)
	}
	closeRecorder(recorder)
	closePublisher(publisher)

	stats := p.Stats()
	applog.Infof("Scope: %d frames, %d analyses, %d captured frames dropped",
		stats.Updates, stats.Analyses, stats.Ingress.Dropped)
	return err
}

// newPublisher builds the configured transports, or returns nil when none
// is enabled.
func newPublisher(cfg *config.Config, snapshot *pipeline.Snapshot) (*transport.Publisher, error) {
	var transports []transport.Transport
	closeAll := func() {
		for _, t := range transports {
			t.Close()
		}
	}

	if cfg.Transport.UDPEnabled {
		t, err := udp.NewTransport(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return nil, err
		}
		transports = append(transports, t)
	}
	if cfg.Transport.WSEnabled {
		ws := transport.NewWebSocketTransport(cfg.Transport.WSAddress)
		if err := ws.Start(); err != nil {
			closeAll()
			return nil, err
		}
		transports = append(transports, ws)
	}
	if cfg.Debug {
		transports = append(transports, transport.NewLoggingTransport())
	}
	if len(transports) == 0 {
		return nil, nil
	}

	interval := cfg.FrameInterval()
	if cfg.Transport.UDPEnabled {
		interval = cfg.Transport.UDPSendInterval
	}
	publisher, err := transport.NewPublisher(interval, snapshot, transports...)
	if err != nil {
		closeAll()
		return nil, err
	}
	return publisher, nil
}

func closeRecorder(r *audio.Recorder) {
	if r == nil {
		return
	}
	if err := r.Close(); err != nil {
		applog.Errorf("%v", err)
	}
}

func closePublisher(p *transport.Publisher) {
	if p == nil {
		return
	}
	if err := p.Close(); err != nil {
		applog.Errorf("%v", err)
	}
}

// redirectLogs keeps log output off the terminal UI: into debugLogFile when
// debugging, otherwise nowhere.
func redirectLogs(debug bool) (func(), error) {
	if !debug {
		applog.SetOutput(io.Discard)
		return func() { applog.SetOutput(os.Stderr) }, nil
	}
	f, err := os.OpenFile(debugLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", debugLogFile, err)
	}
	applog.SetOutput(f)
	return func() {
		applog.SetOutput(os.Stderr)
		f.Close()
	}, nil
}
