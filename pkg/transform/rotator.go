package transform

import (
	"fmt"
	"math"

	"freqimage/internal/fftcore"
	"freqimage/internal/imgbuf"
	"freqimage/pkg/geom"
)

// Rotator rotates an image by an arbitrary angle using the three-pass
// shear decomposition described in "Fast Fourier method for the
// accurate rotation of sampled images": a row shear, a column shear,
// then a second row shear, each applied as a per-line phase ramp in
// the frequency domain.
type Rotator struct{}

// Compute rotates input by angleDegrees, returning the rotated image
// cropped to the rectangular hull that contains every rotated pixel.
func (Rotator) Compute(input imgbuf.Image, angleDegrees float64) (imgbuf.Image, error) {
	if input.IsEmpty() {
		return imgbuf.Image{}, fmt.Errorf("%w: empty input image", ErrInvalidInput)
	}

	var canvasSize geom.Size
	if input.Size.Row <= input.Size.Col {
		canvasSize = input.Size.Scale(2)
	} else {
		canvasSize = input.Size.Scale(3)
	}
	canvas := imgbuf.New(canvasSize)

	center := geom.Point{
		X: int(math.Floor(float64(canvasSize.Col) / 2.0)),
		Y: int(math.Floor(float64(canvasSize.Row) / 2.0)),
	}

	beginRow := center.Y - input.Size.Row/2
	beginCol := center.X - input.Size.Col/2
	for row := 0; row < input.Size.Row; row++ {
		for col := 0; col < input.Size.Col; col++ {
			canvas.Set(beginRow+row, beginCol+col, input.At(row, col))
		}
	}

	minSize := nonRotatedHull(input.Size, angleDegrees)

	hypotenuse := math.Sqrt(math.Pow(float64(minSize.Row), 2) + math.Pow(float64(minSize.Col), 2))
	angleDiagRad := math.Acos(float64(minSize.Col) / hypotenuse)

	var shift geom.Size
	if angleDegrees == 90 || angleDegrees == -90 {
		shift = geom.Size{
			Row: int(math.Ceil(hypotenuse/2.0) * math.Sin(angleDiagRad)),
			Col: int(math.Ceil(hypotenuse/2.0)*math.Cos(angleDiagRad) - 1),
		}
	} else {
		shift = geom.Size{
			Row: int(math.Ceil(hypotenuse/2.0) * math.Sin(angleDiagRad)),
			Col: int(math.Ceil(hypotenuse/2.0) * math.Cos(angleDiagRad)),
		}
	}

	theta := angleDegrees * math.Pi / 180.0
	a := math.Tan(theta / 2.0)
	b := -math.Sin(theta)

	m := canvasSize.Row
	n := canvasSize.Col

	nx := ifftShiftIndex(m)
	ny := ifftShiftIndex(n)

	rowForward, err := fftcore.RealForward1D(n)
	if err != nil {
		return imgbuf.Image{}, err
	}
	rowInverse, err := fftcore.RealInverse1D(n)
	if err != nil {
		return imgbuf.Image{}, err
	}
	colForward, err := fftcore.RealForward1D(m)
	if err != nil {
		return imgbuf.Image{}, err
	}
	colInverse, err := fftcore.RealInverse1D(m)
	if err != nil {
		return imgbuf.Image{}, err
	}

	// Pass 1: x shear (row-wise).
	ixReal := imgbuf.New(canvasSize)
	rowSpecLen := n/2 + 1
	rowTime := make([]float64, n)
	rowSpec := make([]complex128, rowSpecLen)
	rowShifted := make([]complex128, rowSpecLen)
	rowOut := make([]float64, n)
	for i := 0; i < m; i++ {
		copy(rowTime, canvas.Data[i*n:(i+1)*n])
		if err := rowForward(rowSpec, rowTime); err != nil {
			return imgbuf.Image{}, err
		}
		phaseShear(rowSpec, rowShifted, ny, a, float64(i)-math.Floor(float64(m)/2.0), n)
		if err := rowInverse(rowOut, rowShifted); err != nil {
			return imgbuf.Image{}, err
		}
		copy(ixReal.Data[i*n:(i+1)*n], rowOut)
	}

	// Pass 2: y shear (column-wise).
	iyReal := imgbuf.New(canvasSize)
	colSpecLen := m/2 + 1
	colTime := make([]float64, m)
	colSpec := make([]complex128, colSpecLen)
	colShifted := make([]complex128, colSpecLen)
	colOut := make([]float64, m)
	for j := 0; j < n; j++ {
		for i := 0; i < m; i++ {
			colTime[i] = ixReal.At(i, j)
		}
		if err := colForward(colSpec, colTime); err != nil {
			return imgbuf.Image{}, err
		}
		phaseShear(colSpec, colShifted, nx, b, float64(j)-math.Floor(float64(n)/2.0), m)
		if err := colInverse(colOut, colShifted); err != nil {
			return imgbuf.Image{}, err
		}
		for i := 0; i < m; i++ {
			iyReal.Set(i, j, colOut[i])
		}
	}

	// Pass 3: x shear again.
	rotated := imgbuf.New(canvasSize)
	for i := 0; i < m; i++ {
		copy(rowTime, iyReal.Data[i*n:(i+1)*n])
		if err := rowForward(rowSpec, rowTime); err != nil {
			return imgbuf.Image{}, err
		}
		phaseShear(rowSpec, rowShifted, ny, a, float64(i)-math.Floor(float64(m)/2.0), n)
		if err := rowInverse(rowOut, rowShifted); err != nil {
			return imgbuf.Image{}, err
		}
		copy(rotated.Data[i*n:(i+1)*n], rowOut)
	}

	topLeft := geom.Point{
		X: int(math.Ceil(float64(center.X - shift.Col))),
		Y: int(math.Ceil(float64(center.Y - shift.Row))),
	}

	out := imgbuf.New(minSize)
	offset := topLeft.Y*rotated.Size.Col + topLeft.X
	offsetOut := 0
	for i := center.Y; i < center.Y+minSize.Row; i++ {
		copy(out.Data[offsetOut:offsetOut+minSize.Col], rotated.Data[offset:offset+minSize.Col])
		offsetOut += minSize.Col
		offset += rotated.Size.Col
	}

	return out, nil
}

// phaseShear multiplies a real-FFT half-plane spectrum by the per-bin
// phase ramp exp(-2*pi*i * lineIndex * freqIndex[k] * shearFactor / n)
// that implements one shear pass.
func phaseShear(spec, out []complex128, freqIndex []int, shearFactor, lineIndex float64, n int) {
	for k := range spec {
		angle := -2 * math.Pi * lineIndex * float64(freqIndex[k]) * shearFactor / float64(n)
		c, s := math.Cos(angle), math.Sin(angle)
		re, im := real(spec[k]), imag(spec[k])
		out[k] = complex(re*c-im*s, re*s+im*c)
	}
}

// ifftShiftIndex returns the ifftshift-reordered centered frequency
// index range for n samples, matching rotation/processor.cc's nx/ny.
func ifftShiftIndex(n int) []int {
	beginRange := -int(math.Floor(float64(n) / 2.0))
	rng := make([]int, n)
	for i := range rng {
		rng[i] = beginRange + i
	}
	shift := int(math.Ceil(float64(n) / 2.0))
	out := make([]int, n)
	for i, v := range rng {
		out[(i+shift)%n] = v
	}
	return out
}

func nonRotatedHull(size geom.Size, angleDegrees float64) geom.Size {
	angleRad := angleDegrees * math.Pi / 180.0
	width := math.Ceil(float64(size.Col)*math.Abs(math.Cos(angleRad)) + float64(size.Row)*math.Abs(math.Sin(angleRad)) - 0.001)
	height := math.Ceil(float64(size.Col)*math.Abs(math.Sin(angleRad)) + float64(size.Row)*math.Abs(math.Cos(angleRad)) - 0.001)
	return geom.Size{Row: int(height), Col: int(width)}
}

// RecoverCorners computes the four corners of the rotated image hull
// relative to hullSize, used by the streaming pipeline to place
// per-block rotation output at the correct absolute coordinate.
func RecoverCorners(size geom.Size, angleDegrees float64, hullSize geom.Size) (tr, tl, br, bl geom.Point) {
	angleRad := angleDegrees * math.Pi / 180.0
	if angleDegrees >= 0 {
		tr = geom.Point{X: int(math.Round(float64(size.Col) * math.Cos(angleRad))), Y: 0}
		br = geom.Point{X: hullSize.Col, Y: int(math.Round(float64(size.Row) * math.Cos(angleRad)))}
		tl = geom.Point{X: 0, Y: int(math.Round(float64(size.Col) * math.Sin(angleRad)))}
		bl = geom.Point{X: int(math.Round(float64(size.Row) * math.Sin(angleRad))), Y: hullSize.Row}
	} else {
		tr = geom.Point{X: hullSize.Col, Y: int(math.Round(math.Abs(float64(size.Col) * math.Sin(angleRad))))}
		br = geom.Point{X: int(math.Round(float64(size.Col) * math.Cos(angleRad))), Y: hullSize.Row}
		tl = geom.Point{X: int(math.Round(math.Abs(float64(size.Row) * math.Sin(angleRad)))), Y: 0}
		bl = geom.Point{X: 0, Y: int(math.Round(float64(size.Row) * math.Cos(angleRad)))}
	}
	return tr, tl, br, bl
}
