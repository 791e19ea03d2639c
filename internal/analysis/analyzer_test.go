// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"scope/internal/ingress"
	"scope/pkg/utils"
)

const (
	testSize       = 2048
	testSampleRate = 48000.0
)

func newTestAnalyzer(t testing.TB, normalize bool) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(Options{
		TransformSize: testSize,
		SampleRate:    testSampleRate,
		FloorDB:       DefaultFloorDB,
		Normalize:     normalize,
	})
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}
	return a
}

func historyWith(t testing.TB, size int, samples []float32) *ingress.History {
	t.Helper()
	h, err := ingress.NewHistory(1, size)
	if err != nil {
		t.Fatal(err)
	}
	h.Append(samples, len(samples))
	return h
}

func TestNewAnalyzerValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"valid", Options{TransformSize: 8, SampleRate: 8, FloorDB: -120}, false},
		{"smallest", Options{TransformSize: 2, SampleRate: 8, FloorDB: -120}, false},
		{"zero size", Options{TransformSize: 0, SampleRate: 8, FloorDB: -120}, true},
		{"size one", Options{TransformSize: 1, SampleRate: 8, FloorDB: -120}, true},
		{"not power of two", Options{TransformSize: 1000, SampleRate: 8, FloorDB: -120}, true},
		{"no sample rate", Options{TransformSize: 8, FloorDB: -120}, true},
		{"negative channel", Options{TransformSize: 8, SampleRate: 8, Channel: -1, FloorDB: -120}, true},
		{"positive floor", Options{TransformSize: 8, SampleRate: 8, FloorDB: 3}, true},
		{"bad window", Options{TransformSize: 8, SampleRate: 8, FloorDB: -120, Window: WindowFunc(99)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAnalyzer(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewAnalyzer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && a.SpectrumSize() != tt.opts.TransformSize/2+1 {
				t.Errorf("SpectrumSize() = %d", a.SpectrumSize())
			}
		})
	}
}

func TestAnalyzerBinAlignedPeak(t *testing.T) {
	for _, bin := range []int{16, 100, 511} {
		a := newTestAnalyzer(t, false)
		freq := utils.BinAlignedFrequency(bin, testSize, testSampleRate)
		h := historyWith(t, testSize, utils.GenerateSineWave(testSize, testSampleRate, freq))

		if !a.Process(h) {
			t.Fatal("Process() = false with a full history")
		}
		frame := a.Frame()

		if got := utils.FindPeakBin(frame, 0, len(frame)-1); got != bin {
			t.Fatalf("bin %d: peak at %d", bin, got)
		}
		peak := frame[bin]
		if want := 20 * math.Log10(testSize/4); math.Abs(peak-want) > 0.01 {
			t.Errorf("bin %d: peak = %.3f dB, want %.3f dB", bin, peak, want)
		}

		// The periodic Hann window spreads a bin-aligned tone into exactly the
		// two adjacent bins at -6.02 dB; everything further away is noise.
		for _, n := range []int{bin - 1, bin + 1} {
			if rel := frame[n] - peak; rel > -6.0 || rel < -6.1 {
				t.Errorf("bin %d: neighbour %d at %.2f dB relative", bin, n, rel)
			}
		}
		for i, v := range frame {
			if d := i - bin; d >= -1 && d <= 1 {
				continue
			}
			if v-peak > -100 {
				t.Fatalf("bin %d: leakage into bin %d at %.1f dB relative", bin, i, v-peak)
			}
		}
	}
}

func TestAnalyzerWrapAroundMatchesContiguous(t *testing.T) {
	freq := utils.BinAlignedFrequency(37, testSize, testSampleRate) + 11
	signal := utils.GenerateSineWave(testSize+1500, testSampleRate, freq)

	contiguous := newTestAnalyzer(t, false)
	contiguous.Process(historyWith(t, testSize, signal[1500:]))

	wrapped := newTestAnalyzer(t, false)
	h := historyWith(t, testSize, signal[:1500])
	h.Append(signal[1500:], testSize)
	if _, pos := h.Channel(0); pos == 0 {
		t.Fatal("history did not wrap")
	}
	wrapped.Process(h)

	if !floats.EqualApprox(contiguous.Frame(), wrapped.Frame(), 1e-9) {
		t.Error("spectrum differs when history wraps")
	}
}

func TestAnalyzerFloorsSilence(t *testing.T) {
	a := newTestAnalyzer(t, false)
	a.Process(historyWith(t, testSize, make([]float32, testSize)))

	for i, v := range a.Frame() {
		if v != DefaultFloorDB {
			t.Fatalf("bin %d = %v, want floor %v", i, v, DefaultFloorDB)
		}
	}
}

func TestAnalyzerWaitsForFullWindow(t *testing.T) {
	a := newTestAnalyzer(t, false)
	h := historyWith(t, testSize, utils.GenerateSineWave(testSize-1, testSampleRate, 1000))

	if a.Process(h) {
		t.Fatal("Process() = true before the history holds a full window")
	}
	if floats.Max(a.Frame()) != DefaultFloorDB {
		t.Error("frame changed before the first full window")
	}
}

func TestAnalyzerNormalize(t *testing.T) {
	a := newTestAnalyzer(t, true)
	if a.RunningMax() != DefaultFloorDB {
		t.Fatalf("RunningMax() = %v before processing, want floor", a.RunningMax())
	}

	freq := utils.BinAlignedFrequency(64, testSize, testSampleRate)
	loud := utils.GenerateSineWave(testSize, testSampleRate, freq)
	a.Process(historyWith(t, testSize, loud))
	if got := floats.Max(a.Frame()); math.Abs(got) > 1e-9 {
		t.Errorf("normalised peak = %v, want 0", got)
	}

	quiet := make([]float32, testSize)
	for i, v := range loud {
		quiet[i] = v / 2
	}
	a.Process(historyWith(t, testSize, quiet))
	if got := a.Frame()[64]; math.Abs(got+20*math.Log10(2)) > 0.01 {
		t.Errorf("quieter peak = %.3f dB, want -6.02 dB relative to running max", got)
	}
}

func TestAnalyzerBinFrequency(t *testing.T) {
	a := newTestAnalyzer(t, false)
	if got := a.BinFrequency(0); got != 0 {
		t.Errorf("BinFrequency(0) = %v", got)
	}
	if got := a.BinFrequency(testSize / 2); got != testSampleRate/2 {
		t.Errorf("BinFrequency(N/2) = %v, want Nyquist", got)
	}
}

func TestAnalyzerProcessZeroAllocs(t *testing.T) {
	a := newTestAnalyzer(t, true)
	h := historyWith(t, testSize, utils.GenerateComplexWave(testSize, testSampleRate))

	allocs := testing.AllocsPerRun(50, func() { a.Process(h) })
	if allocs != 0 {
		t.Errorf("Process() allocated %v times per run, want 0", allocs)
	}
}

func BenchmarkAnalyzerProcess(b *testing.B) {
	a := newTestAnalyzer(b, false)
	h := historyWith(b, testSize, utils.GenerateComplexWave(testSize, testSampleRate))

	b.ReportAllocs()
	for b.Loop() {
		a.Process(h)
	}
}
