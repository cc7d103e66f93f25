package transform

import (
	"fmt"
	"math"

	"freqimage/internal/decompose"
	"freqimage/internal/imgbuf"
	"freqimage/internal/upsample"
	"freqimage/pkg/filter"
	"freqimage/pkg/geom"
)

// Resampler zooms an image by a rational ratio in the frequency domain.
type Resampler struct {
	decomposition decompose.Policy
	upsampling    upsample.Strategy
	upsamplingSet bool
}

// ResamplerOption configures a Resampler at construction time.
type ResamplerOption func(*Resampler)

// WithPeriodicSmooth selects Moisan's periodic-plus-smooth decomposition
// instead of the regular direct-FFT path.
func WithPeriodicSmooth() ResamplerOption {
	return func(r *Resampler) { r.decomposition = decompose.PeriodicSmooth{} }
}

// WithZeroPadding pins zero-padding spectral upsampling, overriding the
// default strategy selection Compute would otherwise make from the
// filter it is given.
func WithZeroPadding() ResamplerOption {
	return func(r *Resampler) { r.upsampling = upsample.ZeroPadding{}; r.upsamplingSet = true }
}

// WithPeriodization pins periodization spectral upsampling, overriding
// the default strategy selection. Requires a non-nil, loaded filter to
// be supplied to Compute.
func WithPeriodization() ResamplerOption {
	return func(r *Resampler) { r.upsampling = upsample.Periodization{}; r.upsamplingSet = true }
}

// NewResampler builds a Resampler using the regular decomposition by
// default. Unless WithZeroPadding or WithPeriodization pins the
// upsampling strategy explicitly, Compute picks it per call: periodization
// when it is given a loaded filter, zero-padding otherwise.
func NewResampler(opts ...ResamplerOption) *Resampler {
	r := &Resampler{
		decomposition: decompose.Regular{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Compute zooms input by zr, optionally applying a padding margin and a
// filter kernel. It implements the full resampling pipeline: even-size
// extension, padding, decomposition+upsampling+filtering, unpadding, and
// final decimation to the exact target size.
func (r *Resampler) Compute(input imgbuf.Image, padding geom.Padding, zr geom.ZoomRatio, f *filter.Filter) (imgbuf.Image, error) {
	if input.IsEmpty() {
		return imgbuf.Image{}, fmt.Errorf("%w: empty input image", ErrInvalidInput)
	}

	padded := input
	if !padding.IsEmpty() {
		padded = input.Padded(padding)
	}
	even := padded.MadeEven()

	upsampling := r.upsampling
	if !r.upsamplingSet {
		if f.Loaded() {
			upsampling = upsample.Periodization{}
		} else {
			upsampling = upsample.ZeroPadding{}
		}
	}

	// Upsample spectrally by the input resolution factor; the output
	// resolution factor is then applied as a final decimation step.
	out, err := r.decomposition.DecomposeAndZoom(zr.InputResolution(), even, f, upsampling)
	if err != nil {
		return imgbuf.Image{}, err
	}

	// Unpad: the margin scales with the same spectral zoom factor.
	scaledPadding := geom.Padding{
		Top:    padding.Top * zr.InputResolution(),
		Bottom: padding.Bottom * zr.InputResolution(),
		Left:   padding.Left * zr.InputResolution(),
		Right:  padding.Right * zr.InputResolution(),
	}
	unpaddedSize := geom.Size{
		Row: out.Size.Row - scaledPadding.Top - scaledPadding.Bottom,
		Col: out.Size.Col - scaledPadding.Left - scaledPadding.Right,
	}
	if unpaddedSize.Row <= 0 || unpaddedSize.Col <= 0 {
		unpaddedSize = out.Size
		scaledPadding = geom.Padding{}
	}
	unpadded := out.Crop(scaledPadding.Top, scaledPadding.Left, unpaddedSize)

	targetSize := geom.Size{
		Row: int(math.Round(float64(input.Size.Row) * float64(zr.InputResolution()) / float64(zr.OutputResolution()))),
		Col: int(math.Round(float64(input.Size.Col) * float64(zr.InputResolution()) / float64(zr.OutputResolution()))),
	}
	if targetSize.Row > unpadded.Size.Row {
		targetSize.Row = unpadded.Size.Row
	}
	if targetSize.Col > unpadded.Size.Col {
		targetSize.Col = unpadded.Size.Col
	}
	return decimate(unpadded, targetSize), nil
}

// decimate keeps every step-th sample of unpadded down to targetSize,
// used after an integer-output zoom-in pass to drop the oversampled
// in-between grid points.
func decimate(unpadded imgbuf.Image, targetSize geom.Size) imgbuf.Image {
	if targetSize == unpadded.Size {
		return unpadded
	}
	step := unpadded.Size.Row / maxInt(targetSize.Row, 1)
	if step < 1 {
		step = 1
	}
	out := imgbuf.New(targetSize)
	for row := 0; row < targetSize.Row; row++ {
		for col := 0; col < targetSize.Col; col++ {
			out.Set(row, col, unpadded.At(minInt(row*step, unpadded.Size.Row-1), minInt(col*step, unpadded.Size.Col-1)))
		}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
