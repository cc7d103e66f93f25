package filter

import (
	"errors"
	"math"
	"testing"

	"freqimage/internal/imgbuf"
	"freqimage/pkg/geom"
)

func TestEmptyFilterPassesThrough(t *testing.T) {
	t.Parallel()

	f := Empty()
	spectrum := []complex128{1 + 2i, 3 - 1i}
	out, err := f.Process(geom.Size{Row: 2, Col: 2}, spectrum)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	for i := range spectrum {
		if out[i] != spectrum[i] {
			t.Errorf("Process()[%d] = %v, want unchanged %v", i, out[i], spectrum[i])
		}
	}
	if f.Loaded() {
		t.Error("Empty() filter should report Loaded() == false")
	}
}

func TestNewRejectsOutOfBoundsHotPoint(t *testing.T) {
	t.Parallel()

	kernel := imgbuf.New(geom.Size{Row: 4, Col: 4})
	zr, _ := geom.NewZoomRatio(1, 1)

	_, err := New(kernel, zr, geom.Point{X: 10, Y: 0}, geom.PaddingZero, false)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("New with out-of-bounds hot point: err = %v, want ErrInvalidInput", err)
	}

	// (-1,-1) is the centered sentinel and must be accepted.
	if _, err := New(kernel, zr, geom.Point{X: -1, Y: -1}, geom.PaddingZero, false); err != nil {
		t.Errorf("New with sentinel hot point: unexpected error %v", err)
	}
}

func TestNewProcessTooLargeFilter(t *testing.T) {
	t.Parallel()

	kernel := imgbuf.New(geom.Size{Row: 8, Col: 8})
	zr, _ := geom.NewZoomRatio(1, 1)
	f, err := New(kernel, zr, geom.Point{X: -1, Y: -1}, geom.PaddingZero, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = f.Process(geom.Size{Row: 4, Col: 4}, make([]complex128, 4*3))
	if !errors.Is(err, ErrFilterTooLarge) {
		t.Errorf("Process with oversized filter: err = %v, want ErrFilterTooLarge", err)
	}
}

func TestPaddingSizeForDownsampling(t *testing.T) {
	t.Parallel()

	zr, _ := geom.NewZoomRatio(1, 2) // ratio 0.5 <= 1: downsampling branch
	got := paddingSizeFor(geom.Size{Row: 8, Col: 9}, zr)
	want := geom.Size{Row: 4, Col: 4} // 8/2=4, (9-1)/2=4
	if got != want {
		t.Errorf("paddingSizeFor(downsampling) = %+v, want %+v", got, want)
	}
}

func TestPaddingSizeForIntegerUpsampling(t *testing.T) {
	t.Parallel()

	zr, _ := geom.NewZoomRatio(2, 1) // ratio 2, integer upsampling
	got := paddingSizeFor(geom.Size{Row: 8, Col: 8}, zr)
	want := geom.Size{Row: 2, Col: 2} // (8/2)/2 = 2
	if got != want {
		t.Errorf("paddingSizeFor(upsampling) = %+v, want %+v", got, want)
	}
}

func TestPaddingSizeForRealZoom(t *testing.T) {
	t.Parallel()

	zr, _ := geom.NewZoomRatio(3, 2) // ratio 1.5: real (non-integer) zoom
	got := paddingSizeFor(geom.Size{Row: 9, Col: 8}, zr)
	// base = {halfExtent(9)=4, halfExtent(8)=4}, scaled back by 1/input_res=1/3.
	want := geom.Size{Row: 1, Col: 1}
	if got != want {
		t.Errorf("paddingSizeFor(real zoom) = %+v, want %+v", got, want)
	}
}

func TestZoomKernelZeroPadGrowsByFactorAndPreservesSum(t *testing.T) {
	t.Parallel()

	kernel := imgbuf.New(geom.Size{Row: 4, Col: 4})
	sum := 0.0
	for i := range kernel.Data {
		kernel.Data[i] = float64(i + 1)
		sum += kernel.Data[i]
	}

	zoomed, err := zoomKernelZeroPad(kernel, 2)
	if err != nil {
		t.Fatalf("zoomKernelZeroPad: %v", err)
	}
	want := geom.Size{Row: 8, Col: 8}
	if zoomed.Size != want {
		t.Fatalf("zoomKernelZeroPad size = %+v, want %+v", zoomed.Size, want)
	}

	zoomedSum := 0.0
	for _, v := range zoomed.Data {
		zoomedSum += v
	}
	// Zero-padding the spectrum and inverse-transforming preserves the
	// DC bin exactly, so the overall sum is unchanged by the zoom.
	if math.Abs(zoomedSum-sum) > 1e-6 {
		t.Errorf("zoomed sum = %v, want %v", zoomedSum, sum)
	}
}

func TestZoomKernelZeroPadFactorOneIsNoOp(t *testing.T) {
	t.Parallel()

	kernel := imgbuf.New(geom.Size{Row: 3, Col: 3})
	for i := range kernel.Data {
		kernel.Data[i] = float64(i)
	}
	out, err := zoomKernelZeroPad(kernel, 1)
	if err != nil {
		t.Fatalf("zoomKernelZeroPad: %v", err)
	}
	if out.Size != kernel.Size {
		t.Fatalf("zoomKernelZeroPad(factor=1) size = %+v, want %+v", out.Size, kernel.Size)
	}
	for i := range kernel.Data {
		if out.Data[i] != kernel.Data[i] {
			t.Errorf("zoomKernelZeroPad(factor=1) pixel %d = %v, want %v", i, out.Data[i], kernel.Data[i])
		}
	}
}

func TestBuildRealZoomKernelZoomsByOutputResolution(t *testing.T) {
	t.Parallel()

	kernel := imgbuf.New(geom.Size{Row: 4, Col: 4})
	for i := range kernel.Data {
		kernel.Data[i] = 1.0
	}
	zr, err := geom.NewZoomRatio(3, 2)
	if err != nil {
		t.Fatalf("NewZoomRatio: %v", err)
	}
	f := &Filter{zoomRatio: zr, hotPoint: geom.Point{X: -1, Y: -1}}

	out, err := f.buildRealZoomKernel(kernel)
	if err != nil {
		t.Fatalf("buildRealZoomKernel: %v", err)
	}
	want := geom.Size{Row: 4 * zr.OutputResolution(), Col: 4 * zr.OutputResolution()}
	if out.Size != want {
		t.Errorf("buildRealZoomKernel size = %+v, want %+v (zoomed by OutputResolution)", out.Size, want)
	}
}

func TestNormalizePolyphasePerPhaseSum(t *testing.T) {
	t.Parallel()

	const k = 2
	img := imgbuf.New(geom.Size{Row: 4, Col: 4})
	for i := range img.Data {
		img.Data[i] = float64(i + 1)
	}

	normalizePolyphase(img, k)

	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			sum := 0.0
			for m := i; m < img.Size.Row; m += k {
				for n := j; n < img.Size.Col; n += k {
					sum += img.At(m, n)
				}
			}
			want := 1.0 / float64(k*k)
			if math.Abs(sum-want) > 1e-9 {
				t.Errorf("phase (%d,%d) sum = %v, want %v", i, j, sum, want)
			}
		}
	}
}

func TestNormalizePolyphaseNoOversampling(t *testing.T) {
	t.Parallel()

	img := imgbuf.New(geom.Size{Row: 2, Col: 2})
	img.Data = []float64{1, 2, 3, 4}
	normalizePolyphase(img, 1)
	want := []float64{1, 2, 3, 4}
	for i := range want {
		if img.Data[i] != want[i] {
			t.Errorf("normalizePolyphase(k=1) should be a no-op, got %v at %d", img.Data[i], i)
		}
	}
}
