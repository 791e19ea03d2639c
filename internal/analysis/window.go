// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the taper applied before the transform.
type WindowFunc int

const (
	Hann WindowFunc = iota
	BartlettHann
	Blackman
	BlackmanNuttall
	Hamming
	Lanczos
	Nuttall
)

func (w WindowFunc) String() string {
	switch w {
	case Hann:
		return "hann"
	case BartlettHann:
		return "bartletthann"
	case Blackman:
		return "blackman"
	case BlackmanNuttall:
		return "blackmannuttall"
	case Hamming:
		return "hamming"
	case Lanczos:
		return "lanczos"
	case Nuttall:
		return "nuttall"
	default:
		return fmt.Sprintf("WindowFunc(%d)", int(w))
	}
}

// ParseWindowFunc converts a name (case-insensitive) to a WindowFunc. Unknown
// names return Hann and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "hann", "hanning":
		return Hann, nil
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("unknown window function %q", name)
	}
}

// windowCoefficients fills coeffs for the selected window.
//
// Hann is the periodic raised cosine w[i] = (1 - cos(2*pi*i/N)) / 2, which is
// zero at i = 0 and leaks only into the two adjacent bins for a bin-aligned
// tone. The remaining windows are the symmetric gonum implementations.
func windowCoefficients(coeffs []float64, wf WindowFunc) error {
	if wf == Hann {
		n := float64(len(coeffs))
		for i := range coeffs {
			coeffs[i] = (1 - math.Cos(2*math.Pi*float64(i)/n)) / 2
		}
		return nil
	}

	for i := range coeffs {
		coeffs[i] = 1
	}
	switch wf {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		return fmt.Errorf("unsupported window function %v", wf)
	}
	return nil
}
