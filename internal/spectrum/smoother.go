// SPDX-License-Identifier: MIT
package spectrum

import (
	"fmt"
	"math"
)

// Coefficient converts a rate into the per-frame blend factor 1 - e^-rate.
// Larger rates retain more of the previous value.
func Coefficient(rate float64) float64 {
	return 1 - math.Exp(-rate)
}

// Smoother applies asymmetric exponential smoothing per chunk: the attack
// coefficient while the level rises or holds, release while it falls.
//
// After Reset the values sit at the floor but are unprimed; the first Update
// copies its input straight through so a fresh layout starts at the live level
// instead of sweeping up from silence.
type Smoother struct {
	attackRate  float64
	releaseRate float64
	kAttack     float64
	kRelease    float64
	values      []float64
	primed      bool
}

// NewSmoother builds a smoother from attack and release rates, both >= 0.
func NewSmoother(attack, release float64) (*Smoother, error) {
	if !(attack >= 0) || !(release >= 0) || math.IsInf(attack, 1) || math.IsInf(release, 1) {
		return nil, fmt.Errorf("spectrum: attack and release rates must be finite and >= 0, got %g/%g", attack, release)
	}
	return &Smoother{
		attackRate:  attack,
		releaseRate: release,
		kAttack:     Coefficient(attack),
		kRelease:    Coefficient(release),
	}, nil
}

// Reset sizes the state for n chunks and sets every value to floor.
func (s *Smoother) Reset(n int, floor float64) {
	if cap(s.values) < n {
		s.values = make([]float64, n)
	}
	s.values = s.values[:n]
	for i := range s.values {
		s.values[i] = floor
	}
	s.primed = false
}

// Update blends instants into the smoothed values. len(instants) must equal
// the size given to Reset.
func (s *Smoother) Update(instants []float64) {
	if !s.primed {
		copy(s.values, instants)
		s.primed = true
		return
	}
	for i, x := range instants {
		v := s.values[i]
		k := s.kAttack
		if v > x {
			k = s.kRelease
		}
		// v*k + x*(1-k), arranged so that v == x stays exactly x.
		s.values[i] = x + (v-x)*k
	}
}

// Values returns the smoothed value of every chunk.
func (s *Smoother) Values() []float64 { return s.values }

func (s *Smoother) AttackRate() float64  { return s.attackRate }
func (s *Smoother) ReleaseRate() float64 { return s.releaseRate }
