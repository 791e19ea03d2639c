// SPDX-License-Identifier: MIT
package spectrum

import (
	"math"
	"testing"
)

func TestCoefficient(t *testing.T) {
	if got := Coefficient(0); got != 0 {
		t.Errorf("Coefficient(0) = %v", got)
	}
	if got := Coefficient(math.Ln2); math.Abs(got-0.5) > 1e-15 {
		t.Errorf("Coefficient(ln 2) = %v, want 0.5", got)
	}
}

func TestSmootherPrimesAfterReset(t *testing.T) {
	s, _ := NewSmoother(0.1, 1.5)
	s.Reset(3, -120)
	for _, v := range s.Values() {
		if v != -120 {
			t.Fatalf("Values() = %v after Reset, want floor", s.Values())
		}
	}

	s.Update([]float64{-10, -20, -30})
	if v := s.Values(); v[0] != -10 || v[1] != -20 || v[2] != -30 {
		t.Errorf("first Update did not seed values: %v", v)
	}
}

func TestSmootherAttackRelease(t *testing.T) {
	s, _ := NewSmoother(math.Ln2, 1.5)
	s.Reset(2, -120)
	s.Update([]float64{-40, 0})

	s.Update([]float64{0, -60})
	got := s.Values()
	if want := -20.0; math.Abs(got[0]-want) > 1e-12 {
		t.Errorf("rising chunk = %v, want %v (attack)", got[0], want)
	}
	if want := -60 + 60*Coefficient(1.5); math.Abs(got[1]-want) > 1e-12 {
		t.Errorf("falling chunk = %v, want %v (release)", got[1], want)
	}
}

func TestSmootherConvergesToFixedPoint(t *testing.T) {
	tests := []struct {
		name            string
		attack, release float64
		start, target   float64
	}{
		{"rising", 0.1, 1.5, -120, -10},
		{"falling", 0.1, 1.5, 0, -10},
		{"slow release", 3, 5, 15, -90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := NewSmoother(tt.attack, tt.release)
			s.Reset(1, -120)
			s.Update([]float64{tt.start})

			in := []float64{tt.target}
			dist := math.Abs(tt.start - tt.target)
			for step := range 20000 {
				s.Update(in)
				d := math.Abs(s.Values()[0] - tt.target)
				if d > dist {
					t.Fatalf("step %d: distance grew from %v to %v", step, dist, d)
				}
				dist = d
			}
			if dist > 1e-9 {
				t.Errorf("still %v away from %v", dist, tt.target)
			}
		})
	}
}

func TestSmootherFixedPoint(t *testing.T) {
	s, _ := NewSmoother(0.1, 1.5)
	s.Reset(3, -120)
	in := []float64{-120, -33.3, 7.25}
	s.Update(in)

	for range 1000 {
		s.Update(in)
		for i, v := range s.Values() {
			if v != in[i] {
				t.Fatalf("chunk %d drifted to %v from %v", i, v, in[i])
			}
		}
	}
}

func TestNewSmootherValidation(t *testing.T) {
	for _, rates := range [][2]float64{{-1, 1}, {1, -1}, {math.NaN(), 1}, {1, math.Inf(1)}} {
		if _, err := NewSmoother(rates[0], rates[1]); err == nil {
			t.Errorf("NewSmoother(%v, %v) succeeded", rates[0], rates[1])
		}
	}
}
