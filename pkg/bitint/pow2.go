// SPDX-License-Identifier: MIT
/*
Package bitint provides the power-of-two helpers used to size the transform
and the capture ring.

Both the FFT plan and the ingress ring rely on power-of-two sizes: the ring
indexes with a mask instead of a modulo, and the transform rejects anything
else at construction time.

Usage:

	frames := bitint.NextPowerOfTwo(3000) // 4096
	mask := uint64(frames - 1)

	if !bitint.IsPowerOfTwo(fftSize) {
		return errBadSize
	}

The subtraction in NextPowerOfTwo keeps exact powers unchanged:

	size=8: bits.Len(7) = 3, 1<<3 = 8
	size=9: bits.Len(8) = 4, 1<<4 = 16
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size. Non-positive
// sizes return 1.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two.
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 returns the exponent of a power of two, or -1 when n is not one.
func Log2(n int) int {
	if !IsPowerOfTwo(n) {
		return -1
	}
	return bits.TrailingZeros(uint(n))
}
