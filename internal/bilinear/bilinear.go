// Package bilinear performs 2-D bilinear interpolation, adapted from the
// windowed-sinc interpolation shape of the teacher's audio resampler:
// a small stateless kernel function driving a resampling loop over the
// full signal (image rows/cols here instead of audio samples).
package bilinear

import (
	"math"

	"freqimage/internal/imgbuf"
	"freqimage/pkg/geom"
)

// Zoom resamples image to a new size scaled by zoomRow/zoomCol using
// bilinear interpolation, clamping to the border at the edges.
func Zoom(image imgbuf.Image, zoomRow, zoomCol float64) imgbuf.Image {
	if image.IsEmpty() || zoomRow <= 0 || zoomCol <= 0 {
		return image
	}

	outSize := geom.Size{
		Row: int(math.Round(float64(image.Size.Row) * zoomRow)),
		Col: int(math.Round(float64(image.Size.Col) * zoomCol)),
	}
	if outSize.Row <= 0 || outSize.Col <= 0 {
		return imgbuf.New(geom.Size{})
	}

	out := imgbuf.New(outSize)
	for row := 0; row < outSize.Row; row++ {
		srcRow := (float64(row)+0.5)/zoomRow - 0.5
		r0, rFrac := splitClamped(srcRow, image.Size.Row)
		r1 := clampIndex(r0+1, image.Size.Row)

		for col := 0; col < outSize.Col; col++ {
			srcCol := (float64(col)+0.5)/zoomCol - 0.5
			c0, cFrac := splitClamped(srcCol, image.Size.Col)
			c1 := clampIndex(c0+1, image.Size.Col)

			top := image.At(r0, c0)*(1-cFrac) + image.At(r0, c1)*cFrac
			bot := image.At(r1, c0)*(1-cFrac) + image.At(r1, c1)*cFrac
			out.Set(row, col, top*(1-rFrac)+bot*rFrac)
		}
	}
	return out
}

func splitClamped(v float64, n int) (int, float64) {
	if v < 0 {
		v = 0
	}
	idx := int(math.Floor(v))
	frac := v - float64(idx)
	if idx >= n-1 {
		return n - 1, 0
	}
	return idx, frac
}

func clampIndex(idx, n int) int {
	if idx >= n {
		return n - 1
	}
	if idx < 0 {
		return 0
	}
	return idx
}
