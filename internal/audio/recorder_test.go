// SPDX-License-Identifier: MIT
package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

type countingReceiver struct{ frames int }

func (c *countingReceiver) Receive(_ []float32, count int) { c.frames += count }

func TestRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.wav")
	format := Format{SampleRate: 8000, Channels: 2, FramesPerBuffer: 4}

	var next countingReceiver
	rec, err := NewRecorder(path, format, &next)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	blocks := [][]float32{
		{0, 0.5, -0.5, 0.25, 1, -1, 0.125, 0},
		{0.75, -0.75, 0, 0, 0, 0, 0, 0},
	}
	rec.Receive(blocks[0], 4)
	rec.Receive(blocks[1], 1)

	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if next.frames != 5 {
		t.Errorf("forwarded %d frames, want 5", next.frames)
	}
	if rec.Frames() != 5 || rec.Dropped() != 0 {
		t.Errorf("Frames = %d, Dropped = %d", rec.Frames(), rec.Dropped())
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("recording is not a valid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if buf.Format.NumChannels != 2 || buf.Format.SampleRate != 8000 || dec.BitDepth != 16 {
		t.Errorf("format = %+v, bit depth %d", buf.Format, dec.BitDepth)
	}
	want := []int{0, 16384, -16384, 8192, 32767, -32768, 4096, 0, 24576, -24576}
	if len(buf.Data) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), len(want))
	}
	for i := range want {
		if buf.Data[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, buf.Data[i], want[i])
		}
	}
}

func TestRecorderDropsWhenFull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drop.wav")
	format := Format{SampleRate: 8000, Channels: 1, FramesPerBuffer: 2}

	var next countingReceiver
	rec, err := NewRecorder(path, format, &next)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	// Starve the pool so every Receive has to drop.
	var held []*recordBlock
	for range recordBlocks {
		held = append(held, <-rec.free)
	}
	rec.Receive([]float32{0.1, 0.2}, 2)
	rec.Receive([]float32{0.3, 0.4}, 2)
	if rec.Dropped() != 2 {
		t.Errorf("Dropped = %d, want 2", rec.Dropped())
	}
	if next.frames != 4 {
		t.Errorf("forwarded %d frames, want 4", next.frames)
	}
	for _, b := range held {
		rec.free <- b
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestToPCM16(t *testing.T) {
	for _, tt := range []struct {
		in   float32
		want int
	}{
		{0, 0}, {0.5, 16384}, {-1, -32768}, {1, 32767}, {2, 32767}, {-3, -32768},
	} {
		if got := toPCM16(tt.in); got != tt.want {
			t.Errorf("toPCM16(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
