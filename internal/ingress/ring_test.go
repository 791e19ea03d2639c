// SPDX-License-Identifier: MIT
package ingress

import (
	"sync"
	"testing"
)

// sequence builds count frames whose samples encode (frame index, channel).
func sequence(first, count, channels int) []float32 {
	out := make([]float32, count*channels)
	for i := range count {
		for ch := range channels {
			out[i*channels+ch] = float32((first+i)*10 + ch)
		}
	}
	return out
}

func latest(t *testing.T, h *History, ch, n int) []float32 {
	t.Helper()
	dst := make([]float32, n)
	h.Latest(ch, dst)
	return dst
}

func TestNewRingValidation(t *testing.T) {
	tests := []struct {
		name     string
		frames   int
		channels int
		wantCap  int
		wantErr  bool
	}{
		{"rounds up", 1000, 2, 1024, false},
		{"exact", 4096, 1, 4096, false},
		{"zero frames", 0, 2, 0, true},
		{"zero channels", 16, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRing(tt.frames, tt.channels)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewRing() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && r.Capacity() != tt.wantCap {
				t.Errorf("Capacity() = %d, want %d", r.Capacity(), tt.wantCap)
			}
		})
	}
}

func TestRingPreservesOrder(t *testing.T) {
	r, _ := NewRing(64, 2)
	h, _ := NewHistory(2, 64)

	r.Push(sequence(0, 10, 2), 10)
	r.Push(sequence(10, 20, 2), 20)

	if got := r.Buffered(); got != 30 {
		t.Fatalf("Buffered() = %d, want 30", got)
	}
	if n := r.Drain(h); n != 30 {
		t.Fatalf("Drain() = %d, want 30", n)
	}
	for ch := range 2 {
		got := latest(t, h, ch, 30)
		for i, v := range got {
			if want := float32(i*10 + ch); v != want {
				t.Fatalf("channel %d sample %d = %v, want %v", ch, i, v, want)
			}
		}
	}
	if n := r.Drain(h); n != 0 {
		t.Errorf("second Drain() = %d, want 0", n)
	}
}

func TestRingWrapAround(t *testing.T) {
	r, _ := NewRing(16, 1)
	h, _ := NewHistory(1, 16)

	next := 0
	for range 10 {
		r.Push(sequence(next, 7, 1), 7)
		next += 7
		if n := r.Drain(h); n != 7 {
			t.Fatalf("Drain() = %d, want 7", n)
		}
		got := latest(t, h, 0, 7)
		for i, v := range got {
			if want := float32((next - 7 + i) * 10); v != want {
				t.Fatalf("sample %d = %v, want %v", i, v, want)
			}
		}
	}
}

func TestRingOverflowKeepsNewestSuffix(t *testing.T) {
	r, _ := NewRing(16, 2)
	h, _ := NewHistory(2, 16)

	// 40 frames pushed without draining: only the newest 16 survive.
	for i := range 5 {
		r.Push(sequence(i*8, 8, 2), 8)
	}

	n := r.Drain(h)
	if n > r.Capacity() {
		t.Fatalf("Drain() = %d, exceeds capacity %d", n, r.Capacity())
	}
	if n != 16 {
		t.Fatalf("Drain() = %d, want 16", n)
	}
	got := latest(t, h, 1, n)
	for i, v := range got {
		if want := float32((24+i)*10 + 1); v != want {
			t.Fatalf("sample %d = %v, want %v", i, v, want)
		}
	}
	if d := r.Dropped(); d != 24 {
		t.Errorf("Dropped() = %d, want 24", d)
	}
}

func TestRingOversizedPush(t *testing.T) {
	r, _ := NewRing(8, 1)
	h, _ := NewHistory(1, 8)

	r.Push(sequence(0, 20, 1), 20)
	if n := r.Drain(h); n != 8 {
		t.Fatalf("Drain() = %d, want 8", n)
	}
	got := latest(t, h, 0, 8)
	if got[0] != 120 || got[7] != 190 {
		t.Errorf("got %v, want frames 12..19", got)
	}
}

func TestRingPushClampsCount(t *testing.T) {
	r, _ := NewRing(8, 2)
	h, _ := NewHistory(2, 8)

	r.Push(sequence(0, 3, 2), 100)
	r.Push(nil, 4)
	r.Push(sequence(0, 3, 2), -1)
	if n := r.Drain(h); n != 3 {
		t.Errorf("Drain() = %d, want 3", n)
	}
}

func TestRingConcurrentOrder(t *testing.T) {
	const (
		blocks = 2000
		block  = 32
	)
	r, _ := NewRing(256, 1)
	h, _ := NewHistory(1, 256)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([]float32, block)
		for b := range blocks {
			for i := range buf {
				buf[i] = float32(b*block + i)
			}
			r.Push(buf, block)
		}
	}()

	// Whatever is delivered must be strictly increasing and gap-free within
	// each drained batch.
	last := float32(-1)
	dst := make([]float32, 256)
	check := func(n int) {
		if n == 0 {
			return
		}
		got := dst[:n]
		h.Latest(0, got)
		for i := 1; i < n; i++ {
			if got[i] != got[i-1]+1 {
				t.Fatalf("gap inside batch: %v then %v", got[i-1], got[i])
			}
		}
		if got[0] <= last {
			t.Fatalf("batch starts at %v after %v", got[0], last)
		}
		last = got[n-1]
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		check(r.Drain(h))
	}
	check(r.Drain(h))

	if last != float32(blocks*block-1) {
		t.Errorf("last delivered frame = %v, want %v", last, blocks*block-1)
	}
}

func TestRingZeroAllocs(t *testing.T) {
	r, _ := NewRing(1024, 2)
	h, _ := NewHistory(2, 2048)
	block := sequence(0, 256, 2)

	allocs := testing.AllocsPerRun(100, func() {
		r.Push(block, 256)
		r.Drain(h)
	})
	if allocs != 0 {
		t.Errorf("Push/Drain allocated %v times per run, want 0", allocs)
	}
}

func BenchmarkRingPushDrain(b *testing.B) {
	r, _ := NewRing(4096, 2)
	h, _ := NewHistory(2, 2048)
	block := sequence(0, 256, 2)

	b.ReportAllocs()
	for b.Loop() {
		r.Push(block, 256)
		r.Drain(h)
	}
}
