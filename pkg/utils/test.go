package utils

import "math"

// GenerateSineWave returns size mono samples of a unit-amplitude sine at
// frequency Hz.
func GenerateSineWave(size int, sampleRate, frequency float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = float32(math.Sin(2 * math.Pi * frequency * t))
	}
	return buffer
}

// GenerateComplexWave returns a 440Hz fundamental with two harmonics.
func GenerateComplexWave(size int, sampleRate float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = float32(signal)
	}
	return buffer
}

// GenerateInterleaved returns frames of interleaved audio where channel c
// carries a sine at frequencies[c]. A zero frequency yields silence.
func GenerateInterleaved(frames int, sampleRate float64, frequencies ...float64) []float32 {
	channels := len(frequencies)
	buffer := make([]float32, frames*channels)
	for i := range frames {
		t := float64(i) / sampleRate
		for c, f := range frequencies {
			if f == 0 {
				continue
			}
			buffer[i*channels+c] = float32(math.Sin(2 * math.Pi * f * t))
		}
	}
	return buffer
}

// BinAlignedFrequency returns the exact centre frequency of bin for a
// transform of size n.
func BinAlignedFrequency(bin, n int, sampleRate float64) float64 {
	return float64(bin) * sampleRate / float64(n)
}

// FindPeakBin returns the index of the largest value in
// magnitudes[startBin:endBin+1], clamping the range to the slice.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
