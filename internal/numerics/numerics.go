// Package numerics implements the low-level spectral bookkeeping shared
// by every frequency-domain transform: fftshift/ifftshift rearrangement,
// frequency grids, and the size-rounding helpers that keep block
// transforms well-behaved.
package numerics

import (
	"math"

	"freqimage/pkg/geom"
)

// FFTShift2D rearranges a row-major real buffer so that the zero
// frequency, currently at index 0, moves to the center of the image.
// Row/column shift amounts use floor(n/2), matching the forward
// direction used after a DFT.
func FFTShift2D(data []float64, size geom.Size) []float64 {
	rowShift := size.Row / 2
	colShift := size.Col / 2
	return shift2D(data, size, rowShift, colShift)
}

// IFFTShift2D is the inverse of FFTShift2D: it moves a centered zero
// frequency back to index 0. Row/column shift amounts use ceil(n/2).
func IFFTShift2D(data []float64, size geom.Size) []float64 {
	rowShift := int(math.Ceil(float64(size.Row) / 2))
	colShift := int(math.Ceil(float64(size.Col) / 2))
	return shift2D(data, size, rowShift, colShift)
}

func shift2D(data []float64, size geom.Size, rowShift, colShift int) []float64 {
	out := make([]float64, len(data))
	for row := 0; row < size.Row; row++ {
		shiftedRow := (row + rowShift) % size.Row
		for col := 0; col < size.Col; col++ {
			shiftedCol := (col + colShift) % size.Col
			out[shiftedRow*size.Col+shiftedCol] = data[row*size.Col+col]
		}
	}
	return out
}

// blockCopy copies a rectangular block from src starting at srcOrigin
// into dst starting at dstOrigin, both laid out row-major with stride
// size.Col.
func blockCopy(dst, src []float64, size geom.Size, dstOrigin, srcOrigin geom.Point, block geom.Size) {
	dstOff := dstOrigin.Y*size.Col + dstOrigin.X
	srcOff := srcOrigin.Y*size.Col + srcOrigin.X
	for i := 0; i < block.Row; i++ {
		copy(dst[dstOff:dstOff+block.Col], src[srcOff:srcOff+block.Col])
		dstOff += size.Col
		srcOff += size.Col
	}
}

// IFFTShift2DUncentered moves the sample at hotPoint to the origin,
// wrapping the other three quadrants around it. Used to center a filter
// kernel on an arbitrary hot point rather than the image center.
func IFFTShift2DUncentered(data []float64, size geom.Size, hotPoint geom.Point) []float64 {
	out := make([]float64, len(data))

	block4 := geom.Size{Row: size.Row - hotPoint.Y, Col: size.Col - hotPoint.X}
	block3 := geom.Size{Row: block4.Row, Col: hotPoint.X}
	block2 := geom.Size{Row: hotPoint.Y, Col: block4.Col}
	block1 := geom.Size{Row: hotPoint.Y, Col: hotPoint.X}

	p4Shifted := geom.Point{X: 0, Y: 0}
	p3Shifted := geom.Point{X: block4.Col, Y: 0}
	p2Shifted := geom.Point{X: 0, Y: block4.Row}
	p1Shifted := geom.Point{X: block4.Col, Y: block4.Row}

	p4 := hotPoint
	p3 := geom.Point{X: 0, Y: size.Row - block4.Row}
	p2 := geom.Point{X: p4.X, Y: 0}
	p1 := geom.Point{X: 0, Y: 0}

	blockCopy(out, data, size, p4Shifted, p4, block4)
	blockCopy(out, data, size, p3Shifted, p3, block3)
	blockCopy(out, data, size, p2Shifted, p2, block2)
	blockCopy(out, data, size, p1Shifted, p1, block1)

	return out
}

// FFTShift2DUncentered is the inverse of IFFTShift2DUncentered: it moves
// the sample currently at the origin back out to hotPoint.
func FFTShift2DUncentered(data []float64, size geom.Size, hotPoint geom.Point) []float64 {
	out := make([]float64, len(data))

	block4 := geom.Size{Row: size.Row - hotPoint.Y, Col: size.Col - hotPoint.X}
	block3 := geom.Size{Row: block4.Row, Col: hotPoint.X}
	block2 := geom.Size{Row: hotPoint.Y, Col: block4.Col}
	block1 := geom.Size{Row: hotPoint.Y, Col: hotPoint.X}

	p4 := geom.Point{X: 0, Y: 0}
	p3 := geom.Point{X: block4.Col, Y: 0}
	p2 := geom.Point{X: 0, Y: block4.Row}
	p1 := geom.Point{X: block4.Col, Y: block4.Row}

	p4Shifted := hotPoint
	p3Shifted := geom.Point{X: 0, Y: size.Row - block4.Row}
	p2Shifted := geom.Point{X: p4Shifted.X, Y: 0}
	p1Shifted := geom.Point{X: 0, Y: 0}

	blockCopy(out, data, size, p4Shifted, p4, block4)
	blockCopy(out, data, size, p3Shifted, p3, block3)
	blockCopy(out, data, size, p2Shifted, p2, block2)
	blockCopy(out, data, size, p1Shifted, p1, block1)

	return out
}

// GCD returns the greatest common divisor of a and b via Euclidean
// subtraction.
func GCD(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	if a == 0 || b == 0 {
		return a + b
	}
	for a != b {
		if a > b {
			a -= b
		} else {
			b -= a
		}
	}
	return a
}

// FFTFreq returns the DFT sample frequencies for n samples, normalized
// to a unit sample spacing. If half is true only the non-negative half
// is returned, sized n/2+1 to match a real-input half-plane spectrum's
// column count (n/2+1), with the Nyquist bin included for even n: the
// original's ComputeFFTFreq omits it from the half case (returning only
// n/2 entries) and every call site that indexes up to n/2 inclusive
// reads past the end of that vector, so the Nyquist bin is added back
// here rather than ported as an out-of-bounds read.
func FFTFreq(n int, half bool) []float64 {
	var freq []float64
	if n%2 != 0 {
		for i := 0; i < (n+1)/2; i++ {
			freq = append(freq, float64(i)/float64(n))
		}
		if !half {
			for i := 0; i < n/2; i++ {
				freq = append(freq, -float64(n/2-i)/float64(n))
			}
		}
	} else {
		upper := n / 2
		if half {
			upper = n/2 + 1
		}
		for i := 0; i < upper; i++ {
			freq = append(freq, float64(i)/float64(n))
		}
		if !half {
			for i := 0; i < n/2; i++ {
				freq = append(freq, -float64(n/2-i)/float64(n))
			}
		}
	}
	return freq
}

// DyadicSize grows size until (size+padding)*resIn is a power of two in
// both dimensions, giving up and returning the original size after 100x
// growth (logged by the caller).
func DyadicSize(size geom.Size, resIn int, padding geom.Size) (geom.Size, bool) {
	h, w := size.Row, size.Col
	initH, initW := size.Row, size.Col

	for !isPow2Exp(float64(h+padding.Row) * float64(resIn)) {
		h++
		if h > 100*initH {
			return geom.Size{Row: initH, Col: initW}, false
		}
	}
	for !isPow2Exp(float64(w+padding.Col) * float64(resIn)) {
		w++
		if w > 100*initW {
			return geom.Size{Row: initH, Col: initW}, false
		}
	}
	return geom.Size{Row: h, Col: w}, true
}

func isPow2Exp(v float64) bool {
	l := math.Log2(v)
	return math.Floor(l) == math.Ceil(l)
}

// ZoomCompliantSize grows size until it scales to an integral pixel
// count under zr in both dimensions, giving up and returning the
// original size after 100x growth.
func ZoomCompliantSize(size geom.Size, zr geom.ZoomRatio) (geom.Size, bool) {
	h, w := size.Row, size.Col
	initH, initW := size.Row, size.Col
	in, out := float64(zr.InputResolution()), float64(zr.OutputResolution())

	for !isIntegral(float64(h) * in / out) {
		h++
		if h > 100*initH {
			return geom.Size{Row: initH, Col: initW}, false
		}
	}
	for !isIntegral(float64(w) * in / out) {
		w++
		if w > 100*initW {
			return geom.Size{Row: initH, Col: initW}, false
		}
	}
	return geom.Size{Row: h, Col: w}, true
}

func isIntegral(v float64) bool {
	return math.Floor(v) == math.Ceil(v)
}
