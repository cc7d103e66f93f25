package transform

import (
	"math"

	"freqimage/internal/fftcore"
	"freqimage/internal/imgbuf"
	"freqimage/internal/numerics"
)

// Translator shifts an image by a sub-pixel amount using a phase ramp
// multiplied into its spectrum, splitting the shift into an integer
// part (a plain border removal) and a fractional part (the spectral
// phase ramp), so the common case of an integer-only shift skips the
// FFT round trip entirely.
type Translator struct{}

// Compute shifts input by (rowShift, colShift) pixels, cropping the
// borders that the shift pushes outside the original frame.
func (Translator) Compute(input imgbuf.Image, rowShift, colShift float64) (imgbuf.Image, error) {
	if input.IsEmpty() {
		return imgbuf.Image{}, ErrInvalidInput
	}

	// Clamp shift magnitude to the image extent, as a fraction of image
	// size, matching the guard in the original translation processor.
	if math.Abs(rowShift) >= float64(input.Size.Row) {
		rowShift = math.Mod(rowShift, float64(input.Size.Row))
	}
	if math.Abs(colShift) >= float64(input.Size.Col) {
		colShift = math.Mod(colShift, float64(input.Size.Col))
	}

	intRow, fracRow := math.Modf(rowShift)
	intCol, fracCol := math.Modf(colShift)

	working := input
	if fracRow != 0 || fracCol != 0 {
		shifted, err := shiftSpectral(working, fracRow, fracCol)
		if err != nil {
			return imgbuf.Image{}, err
		}
		working = removeBorders(shifted, math.Ceil(fracCol), math.Ceil(fracRow))
	}

	working = removeBorders(working, -intCol, -intRow)
	return working, nil
}

func shiftSpectral(image imgbuf.Image, rowShift, colShift float64) (imgbuf.Image, error) {
	size := image.Size
	data := numerics.IFFTShift2D(image.Data, size)

	spectrum, err := fftcore.Forward(data, size)
	if err != nil {
		return imgbuf.Image{}, err
	}

	specCols := size.Col/2 + 1
	rowFreq := numerics.FFTFreq(size.Row, false)
	colFreq := numerics.FFTFreq(size.Col, true)

	for r := 0; r < size.Row; r++ {
		for c := 0; c < specCols; c++ {
			angle := -2 * math.Pi * (rowFreq[r]*rowShift + colFreq[c]*colShift)
			phase := complex(math.Cos(angle), math.Sin(angle))
			spectrum[r*specCols+c] *= phase
		}
	}

	out, err := fftcore.Inverse(size, spectrum)
	if err != nil {
		return imgbuf.Image{}, err
	}
	out = numerics.FFTShift2D(out, size)

	return imgbuf.Image{Size: size, Data: out}, nil
}

// removeBorders crops image by colShift columns and rowShift rows off
// the edge the shift direction indicates: a positive shift moves
// content toward higher indices, exposing stale border content at the
// low end that must be cropped away (and vice versa for a negative
// shift).
func removeBorders(image imgbuf.Image, colShift, rowShift float64) imgbuf.Image {
	top, bottom := borderSplit(rowShift, image.Size.Row)
	left, right := borderSplit(colShift, image.Size.Col)

	newSize := image.Size
	newSize.Row -= top + bottom
	newSize.Col -= left + right
	if newSize.Row <= 0 || newSize.Col <= 0 {
		return image
	}
	return image.Crop(top, left, newSize)
}

func borderSplit(shift float64, extent int) (low, high int) {
	s := int(shift)
	if s >= extent || -s >= extent {
		return 0, 0
	}
	if s >= 0 {
		return s, 0
	}
	return 0, -s
}
