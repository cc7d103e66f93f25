package numerics

import (
	"math"
	"testing"

	"freqimage/pkg/geom"
)

func sequential(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestFFTShiftRoundTripEven(t *testing.T) {
	t.Parallel()

	size := geom.Size{Row: 4, Col: 6}
	data := sequential(size.Cells())

	shifted := FFTShift2D(data, size)
	back := IFFTShift2D(shifted, size)

	for i := range data {
		if back[i] != data[i] {
			t.Fatalf("round trip mismatch at %d: got %v, want %v", i, back[i], data[i])
		}
	}
}

func TestFFTShiftRoundTripOdd(t *testing.T) {
	t.Parallel()

	size := geom.Size{Row: 5, Col: 7}
	data := sequential(size.Cells())

	shifted := FFTShift2D(data, size)
	back := IFFTShift2D(shifted, size)

	for i := range data {
		if back[i] != data[i] {
			t.Fatalf("round trip mismatch at %d: got %v, want %v", i, back[i], data[i])
		}
	}
}

func TestFFTShiftUncenteredRoundTrip(t *testing.T) {
	t.Parallel()

	size := geom.Size{Row: 8, Col: 5}
	data := sequential(size.Cells())
	hot := geom.Point{X: 2, Y: 3}

	shifted := IFFTShift2DUncentered(data, size, hot)
	back := FFTShift2DUncentered(shifted, size, hot)

	for i := range data {
		if back[i] != data[i] {
			t.Fatalf("round trip mismatch at %d: got %v, want %v", i, back[i], data[i])
		}
	}
}

func TestGCD(t *testing.T) {
	t.Parallel()

	cases := []struct{ a, b, want int }{
		{12, 8, 4},
		{14, 10, 2},
		{7, 5, 1},
		{-6, 9, 3},
		{0, 5, 5},
	}
	for _, c := range cases {
		if got := GCD(c.a, c.b); got != c.want {
			t.Errorf("GCD(%d,%d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestFFTFreqEven(t *testing.T) {
	t.Parallel()

	freq := FFTFreq(4, true)
	want := []float64{0, 0.25, 0.5}
	if len(freq) != len(want) {
		t.Fatalf("FFTFreq(4,true) length = %d, want %d (must cover the n/2+1 half-plane columns)", len(freq), len(want))
	}
	for i, w := range want {
		if math.Abs(freq[i]-w) > 1e-12 {
			t.Errorf("FFTFreq(4,true)[%d] = %v, want %v", i, freq[i], w)
		}
	}

	full := FFTFreq(4, false)
	wantFull := []float64{0, 0.25, -0.5, -0.25}
	for i, w := range wantFull {
		if math.Abs(full[i]-w) > 1e-12 {
			t.Errorf("FFTFreq(4,false)[%d] = %v, want %v", i, full[i], w)
		}
	}
}

func TestFFTFreqOdd(t *testing.T) {
	t.Parallel()

	full := FFTFreq(5, false)
	wantFull := []float64{0, 0.2, 0.4, -0.4, -0.2}
	for i, w := range wantFull {
		if math.Abs(full[i]-w) > 1e-12 {
			t.Errorf("FFTFreq(5,false)[%d] = %v, want %v", i, full[i], w)
		}
	}
}

func TestDyadicSize(t *testing.T) {
	t.Parallel()

	size, ok := DyadicSize(geom.Size{Row: 10, Col: 10}, 1, geom.Size{})
	if !ok {
		t.Fatal("DyadicSize should succeed within 100x growth")
	}
	if size.Row&(size.Row-1) != 0 || size.Col&(size.Col-1) != 0 {
		t.Errorf("DyadicSize result %+v is not a power of two on both axes", size)
	}
}

func TestZoomCompliantSize(t *testing.T) {
	t.Parallel()

	zr, err := geom.NewZoomRatio(3, 2)
	if err != nil {
		t.Fatalf("NewZoomRatio: %v", err)
	}
	size, ok := ZoomCompliantSize(geom.Size{Row: 10, Col: 10}, zr)
	if !ok {
		t.Fatal("ZoomCompliantSize should succeed within 100x growth")
	}
	if (size.Row*zr.InputResolution())%zr.OutputResolution() != 0 {
		t.Errorf("size.Row=%d does not scale to an integer under %v", size.Row, zr)
	}
	if (size.Col*zr.InputResolution())%zr.OutputResolution() != 0 {
		t.Errorf("size.Col=%d does not scale to an integer under %v", size.Col, zr)
	}
}
