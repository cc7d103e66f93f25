// Package fftcore builds 2-D real<->complex DFTs out of algo-fft's 1-D
// plans, the same library the teacher repo uses for its 1-D overlap-add
// and partitioned convolution engines. There is no native 2-D entry
// point in algo-fft, so a 2-D real-to-complex transform is computed row
// by row with a real FFT, then column by column with a complex FFT over
// the resulting half-plane spectrum -- mirroring the way the original
// rotation processor itself builds its shear passes out of per-row and
// per-column 1-D FFTs.
//
// algo-fft is only exercised by the teacher in float32/complex64 form.
// This package assumes the float64/complex128 counterparts
// (NewPlanReal64, NewPlan64) exist with the same shape; see DESIGN.md.
package fftcore

import (
	"fmt"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"

	"freqimage/internal/lru"
	"freqimage/pkg/geom"
)

// ErrPlanFailed wraps any error returned by the underlying FFT planner.
var ErrPlanFailed = fmt.Errorf("freqimage: fft plan failed")

const planCacheCapacity = 10

var (
	planMu       sync.Mutex
	realPlans    = lru.New[int, *algofft.PlanRealT[float64, complex128]](planCacheCapacity)
	complexPlans = lru.New[int, *algofft.Plan[complex128]](planCacheCapacity)
)

func realPlan(n int) (*algofft.PlanRealT[float64, complex128], error) {
	planMu.Lock()
	defer planMu.Unlock()

	if p, ok := realPlans.Get(n); ok {
		return p, nil
	}
	p, err := algofft.NewPlanReal64(n)
	if err != nil {
		return nil, fmt.Errorf("%w: real fft size %d: %v", ErrPlanFailed, n, err)
	}
	realPlans.Insert(n, p)
	return p, nil
}

func complexPlan(n int) (*algofft.Plan[complex128], error) {
	planMu.Lock()
	defer planMu.Unlock()

	if p, ok := complexPlans.Get(n); ok {
		return p, nil
	}
	p, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("%w: complex fft size %d: %v", ErrPlanFailed, n, err)
	}
	complexPlans.Insert(n, p)
	return p, nil
}

// SpectrumCols returns the half-plane column count R x (C/2+1) for an
// R x C real image.
func SpectrumCols(cols int) int {
	return cols/2 + 1
}

// Forward computes the half-plane spectrum of a real R x C image:
// R x (C/2+1) complex bins, row-major.
func Forward(real []float64, size geom.Size) ([]complex128, error) {
	rowPlan, err := realPlan(size.Col)
	if err != nil {
		return nil, err
	}
	specCols := SpectrumCols(size.Col)

	// Row-wise real FFT.
	rowSpectrum := make([]complex128, size.Row*specCols)
	for r := 0; r < size.Row; r++ {
		src := real[r*size.Col : (r+1)*size.Col]
		dst := rowSpectrum[r*specCols : (r+1)*specCols]
		if err := rowPlan.Forward(dst, src); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrPlanFailed, r, err)
		}
	}

	// Column-wise complex FFT over each of the specCols half-plane columns.
	colPlan, err := complexPlan(size.Row)
	if err != nil {
		return nil, err
	}
	out := make([]complex128, len(rowSpectrum))
	col := make([]complex128, size.Row)
	colOut := make([]complex128, size.Row)
	for c := 0; c < specCols; c++ {
		for r := 0; r < size.Row; r++ {
			col[r] = rowSpectrum[r*specCols+c]
		}
		if err := colPlan.Forward(colOut, col); err != nil {
			return nil, fmt.Errorf("%w: col %d: %v", ErrPlanFailed, c, err)
		}
		for r := 0; r < size.Row; r++ {
			out[r*specCols+c] = colOut[r]
		}
	}
	return out, nil
}

// Inverse recovers an R x C real image from its R x (C/2+1) half-plane
// spectrum. algo-fft's plans normalize by 1/N internally, so the result
// is already scaled; callers must not divide by size.Cells() again.
func Inverse(size geom.Size, spectrum []complex128) ([]float64, error) {
	specCols := SpectrumCols(size.Col)

	colPlan, err := complexPlan(size.Row)
	if err != nil {
		return nil, err
	}
	rowSpectrum := make([]complex128, len(spectrum))
	col := make([]complex128, size.Row)
	colOut := make([]complex128, size.Row)
	for c := 0; c < specCols; c++ {
		for r := 0; r < size.Row; r++ {
			col[r] = spectrum[r*specCols+c]
		}
		if err := colPlan.Inverse(colOut, col); err != nil {
			return nil, fmt.Errorf("%w: inverse col %d: %v", ErrPlanFailed, c, err)
		}
		for r := 0; r < size.Row; r++ {
			rowSpectrum[r*specCols+c] = colOut[r]
		}
	}

	rowPlan, err := realPlan(size.Col)
	if err != nil {
		return nil, err
	}
	out := make([]float64, size.Row*size.Col)
	for r := 0; r < size.Row; r++ {
		src := rowSpectrum[r*specCols : (r+1)*specCols]
		dst := out[r*size.Col : (r+1)*size.Col]
		if err := rowPlan.Inverse(dst, src); err != nil {
			return nil, fmt.Errorf("%w: inverse row %d: %v", ErrPlanFailed, r, err)
		}
	}
	return out, nil
}

// RealForward1D and RealInverse1D expose single real<->complex 1-D
// transforms of length n (producing/consuming the n/2+1-bin half-plane
// spectrum), used directly by the rotation processor's three shear
// passes, each of which FFTs a real row or column, applies a phase
// ramp, and inverse-transforms back to real samples.
func RealForward1D(n int) (func(dst []complex128, src []float64) error, error) {
	p, err := realPlan(n)
	if err != nil {
		return nil, err
	}
	return p.Forward, nil
}

func RealInverse1D(n int) (func(dst []float64, src []complex128) error, error) {
	p, err := realPlan(n)
	if err != nil {
		return nil, err
	}
	return p.Inverse, nil
}
