// Package filter builds and applies the frequency-domain interpolation
// kernel used by the resampler: a polyphase sub-filter set, normalized
// per phase, centered on an optional hot point, and cached per
// image size as a pre-computed FFT so repeated blocks in a stream reuse
// the same filter spectrum.
package filter

import (
	"fmt"
	"math"

	"freqimage/internal/fftcore"
	"freqimage/internal/imgbuf"
	"freqimage/internal/lru"
	"freqimage/internal/numerics"
	"freqimage/pkg/geom"
)

// ErrInvalidInput, ErrFilterTooLarge mirror the module-wide error
// taxonomy for filter-specific failures.
var (
	ErrInvalidInput   = fmt.Errorf("freqimage: invalid filter input")
	ErrFilterTooLarge = fmt.Errorf("freqimage: filter is too large")
)

const filterFFTCacheCapacity = 10

// Filter is a loaded interpolation kernel ready to be applied to image
// spectra of compatible size.
type Filter struct {
	image       imgbuf.Image
	paddingSize geom.Size
	zoomRatio   geom.ZoomRatio
	paddingKind geom.PaddingKind
	hotPoint    geom.Point
	loaded      bool

	fftCache *lru.Cache[geom.Size, []complex128]
}

// Empty returns an unloaded filter: Process on it is a pass-through.
func Empty() *Filter {
	return &Filter{}
}

// New builds a filter from a raw kernel image, oriented for the given
// zoom ratio. hotPoint of {-1,-1} selects the default (kernel-center)
// placement; any other value must lie within the kernel bounds.
func New(kernel imgbuf.Image, zr geom.ZoomRatio, hotPoint geom.Point, kind geom.PaddingKind, normalize bool) (*Filter, error) {
	if hotPoint.X < -1 || hotPoint.X >= kernel.Size.Col || hotPoint.Y < -1 || hotPoint.Y >= kernel.Size.Row {
		return nil, fmt.Errorf("%w: hot point %+v out of filter bounds %+v", ErrInvalidInput, hotPoint, kernel.Size)
	}

	f := &Filter{
		zoomRatio:   zr,
		paddingKind: kind,
		hotPoint:    hotPoint,
		loaded:      true,
		fftCache:    lru.New[geom.Size, []complex128](filterFFTCacheCapacity),
	}

	working := kernel.Clone()
	if normalize {
		normalizePolyphase(working, zr.InputResolution())
	}

	var oriented imgbuf.Image
	var err error
	switch {
	case zr.Ratio() <= 1:
		oriented, err = f.buildZoomOutKernel(working)
	case zr.IsRealZoom():
		oriented, err = f.buildRealZoomKernel(working)
	default:
		oriented, err = f.buildZoomInKernel(working)
	}
	if err != nil {
		return nil, err
	}

	f.paddingSize = paddingSizeFor(oriented.Size, zr)
	f.image = f.centerKernel(oriented)

	return f, nil
}

// Loaded reports whether the filter holds an actual kernel.
func (f *Filter) Loaded() bool {
	return f != nil && f.loaded
}

// PaddingSize returns the margin the resampler must apply on each side
// of an image before this filter can be correctly applied.
func (f *Filter) PaddingSize() geom.Size {
	if f == nil {
		return geom.Size{}
	}
	return f.paddingSize
}

// Process multiplies spectrum (for an image of imageSize) by this
// filter's frequency response, building and caching the filter's own
// FFT for imageSize on first use. A nil or unloaded filter passes the
// spectrum through unchanged.
func (f *Filter) Process(imageSize geom.Size, spectrum []complex128) ([]complex128, error) {
	if !f.Loaded() {
		return spectrum, nil
	}
	if f.image.Size.Row > imageSize.Row || f.image.Size.Col > imageSize.Col {
		return nil, fmt.Errorf("%w: filter %+v exceeds image %+v", ErrFilterTooLarge, f.image.Size, imageSize)
	}

	filterSpectrum, ok := f.fftCache.Get(imageSize)
	if !ok {
		var err error
		filterSpectrum, err = f.buildFilterFFT(imageSize)
		if err != nil {
			return nil, err
		}
		f.fftCache.Insert(imageSize, filterSpectrum)
	}

	out := make([]complex128, len(spectrum))
	for i := range spectrum {
		out[i] = spectrum[i] * filterSpectrum[i]
	}
	return out, nil
}

func (f *Filter) buildFilterFFT(imageSize geom.Size) ([]complex128, error) {
	placed := imgbuf.New(imageSize)
	lowerRow := imageSize.Row/2 - (f.image.Size.Row-1)/2
	lowerCol := imageSize.Col/2 - (f.image.Size.Col-1)/2
	for row := 0; row < f.image.Size.Row; row++ {
		for col := 0; col < f.image.Size.Col; col++ {
			placed.Set(lowerRow+row, lowerCol+col, f.image.At(row, col))
		}
	}
	shifted := numerics.IFFTShift2D(placed.Data, imageSize)
	return fftcore.Forward(shifted, imageSize)
}

// buildZoomOutKernel leaves a downsampling kernel (ratio <= 1) as-is;
// its padding is derived directly from its own extent.
func (f *Filter) buildZoomOutKernel(kernel imgbuf.Image) (imgbuf.Image, error) {
	return kernel, nil
}

// buildZoomInKernel leaves an integer-upsampling kernel (ratio > 1)
// as-is; its padding is scaled down by the zoom ratio in
// paddingSizeFor, since the kernel already operates at output
// resolution.
func (f *Filter) buildZoomInKernel(kernel imgbuf.Image) (imgbuf.Image, error) {
	return kernel, nil
}

// buildRealZoomKernel resamples a non-integer-ratio kernel onto the
// output-resolution zoom ratio's own grid (a nested zero-padding
// spectral zoom by outputRes -- the same transform upsample.ZeroPadding
// performs, reimplemented locally here since pkg/filter cannot import
// internal/decompose or internal/upsample without an import cycle --
// both of those packages depend on *Filter already), then re-applies
// the same per-phase polyphase normalization used before dispatch, this
// time counting inputRes phases against the newly zoomed grid. This is
// the path the original project's hot-point check had a typo in
// ("hp.y != 1" instead of "hp.y != -1"). This function does no
// hot-point handling itself: like the other branches, its result is
// recentered by centerKernel, which treats only (-1,-1) as the
// centered sentinel.
func (f *Filter) buildRealZoomKernel(kernel imgbuf.Image) (imgbuf.Image, error) {
	zoomed, err := zoomKernelZeroPad(kernel, f.zoomRatio.OutputResolution())
	if err != nil {
		return imgbuf.Image{}, err
	}
	normalizePolyphase(zoomed, f.zoomRatio.InputResolution())
	return zoomed, nil
}

// zoomKernelZeroPad grows kernel to factor times its size via
// zero-padding spectral interpolation: forward FFT, insert zero bins
// at the high frequencies (wrapping the bottom half to preserve
// Hermitian symmetry), inverse FFT, normalize.
func zoomKernelZeroPad(kernel imgbuf.Image, factor int) (imgbuf.Image, error) {
	if factor <= 1 {
		return kernel, nil
	}
	even := kernel.MadeEven()
	spectrum, err := fftcore.Forward(even.Data, even.Size)
	if err != nil {
		return imgbuf.Image{}, err
	}

	zoomedSize := even.Size.Scale(factor)
	specCols := even.Size.Col/2 + 1
	zoomedSpecCols := zoomedSize.Col/2 + 1
	out := make([]complex128, zoomedSize.Row*zoomedSpecCols)

	halfRowCount := int(math.Ceil(float64(even.Size.Row) / 2.0))
	for row := 0; row < halfRowCount; row++ {
		copy(out[row*zoomedSpecCols:row*zoomedSpecCols+specCols], spectrum[row*specCols:(row+1)*specCols])
	}
	for row := halfRowCount; row < even.Size.Row; row++ {
		destRow := zoomedSize.Row - (even.Size.Row - row)
		copy(out[destRow*zoomedSpecCols:destRow*zoomedSpecCols+specCols], spectrum[row*specCols:(row+1)*specCols])
	}

	real, err := fftcore.Inverse(zoomedSize, out)
	if err != nil {
		return imgbuf.Image{}, err
	}
	return imgbuf.Image{Size: zoomedSize, Data: real}, nil
}

// normalizePolyphase treats kernel as a k x k grid of interleaved
// polyphase sub-filters -- sub-filter (i,j) consists of the samples at
// (i+m*k, j+n*k) -- and divides each sample by k^2 times that
// sub-filter's own sum, so every phase of the zoomed output carries
// equal weight. k <= 1 is a no-op (no oversampling to normalize).
func normalizePolyphase(kernel imgbuf.Image, k int) {
	if k <= 1 {
		return
	}
	for i := 0; i < k && i < kernel.Size.Row; i++ {
		for j := 0; j < k && j < kernel.Size.Col; j++ {
			sum := 0.0
			for m := i; m < kernel.Size.Row; m += k {
				for n := j; n < kernel.Size.Col; n += k {
					sum += kernel.At(m, n)
				}
			}
			if sum == 0 {
				continue
			}
			norm := float64(k*k) * sum
			for m := i; m < kernel.Size.Row; m += k {
				for n := j; n < kernel.Size.Col; n += k {
					kernel.Set(m, n, kernel.At(m, n)/norm)
				}
			}
		}
	}
}

// paddingSizeFor derives the margin a resampler must add around an
// image before applying a kernel of orientedSize, following the
// downsampling / integer-upsampling / real-zoom branches of filter
// construction.
func paddingSizeFor(orientedSize geom.Size, zr geom.ZoomRatio) geom.Size {
	base := geom.Size{
		Row: halfExtent(orientedSize.Row),
		Col: halfExtent(orientedSize.Col),
	}
	ratio := zr.Ratio()
	switch {
	case ratio <= 1:
		return base
	case zr.IsRealZoom():
		// buildRealZoomKernel already resampled the kernel; its
		// half-extent is scaled back down by 1/inputRes to land in
		// output-pixel units, matching the original's real-zoom filter
		// construction.
		inRes := float64(zr.InputResolution())
		return geom.Size{
			Row: int(math.Round(float64(base.Row) / inRes)),
			Col: int(math.Round(float64(base.Col) / inRes)),
		}
	default:
		return geom.Size{
			Row: int(math.Round(float64(base.Row) / ratio)),
			Col: int(math.Round(float64(base.Col) / ratio)),
		}
	}
}

func halfExtent(n int) int {
	if n%2 == 0 {
		return n / 2
	}
	return (n - 1) / 2
}

func (f *Filter) centerKernel(kernel imgbuf.Image) imgbuf.Image {
	if f.hotPoint.X == -1 && f.hotPoint.Y == -1 {
		shifted := numerics.IFFTShift2D(kernel.Data, kernel.Size)
		recentered := numerics.FFTShift2D(shifted, kernel.Size)
		return imgbuf.Image{Size: kernel.Size, Data: recentered}
	}
	shifted := numerics.IFFTShift2DUncentered(kernel.Data, kernel.Size, f.hotPoint)
	recentered := numerics.FFTShift2D(shifted, kernel.Size)
	return imgbuf.Image{Size: kernel.Size, Data: recentered}
}
