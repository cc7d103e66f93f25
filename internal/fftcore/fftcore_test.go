package fftcore

import (
	"math"
	"testing"

	"freqimage/pkg/geom"
)

func TestForwardInverseRoundTrip(t *testing.T) {
	t.Parallel()

	size := geom.Size{Row: 4, Col: 8}
	input := make([]float64, size.Cells())
	for i := range input {
		input[i] = float64(i) * 0.5
	}

	spectrum, err := Forward(input, size)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if len(spectrum) != size.Row*SpectrumCols(size.Col) {
		t.Fatalf("spectrum length = %d, want %d", len(spectrum), size.Row*SpectrumCols(size.Col))
	}

	out, err := Inverse(size, spectrum)
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	for i := range out {
		if math.Abs(out[i]-input[i]) > 1e-6 {
			t.Errorf("round trip pixel %d = %v, want %v", i, out[i], input[i])
		}
	}
}

func TestForwardDCBinIsImageSum(t *testing.T) {
	t.Parallel()

	size := geom.Size{Row: 4, Col: 4}
	input := make([]float64, size.Cells())
	sum := 0.0
	for i := range input {
		input[i] = float64(i + 1)
		sum += input[i]
	}

	spectrum, err := Forward(input, size)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	dc := spectrum[0]
	if math.Abs(real(dc)-sum) > 1e-6 || math.Abs(imag(dc)) > 1e-6 {
		t.Errorf("DC bin = %v, want (%v, 0)", dc, sum)
	}
}

func TestSpectrumCols(t *testing.T) {
	t.Parallel()

	cases := map[int]int{4: 3, 5: 3, 8: 5, 9: 5}
	for cols, want := range cases {
		if got := SpectrumCols(cols); got != want {
			t.Errorf("SpectrumCols(%d) = %d, want %d", cols, got, want)
		}
	}
}
