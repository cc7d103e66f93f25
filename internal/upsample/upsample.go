// Package upsample implements the two spectral upsampling strategies
// used to grow a half-plane spectrum before the inverse FFT of a zoom
// operation: zero-padding (insert zero bins) and periodization (tile the
// spectrum, handling the Hermitian half-plane boundary).
package upsample

import (
	"fmt"
	"math"

	"freqimage/pkg/filter"
	"freqimage/pkg/geom"
)

// Strategy grows a half-plane spectrum of an image currently at
// imageSize up to a zoom-multiplied size, optionally applying filter.
type Strategy interface {
	Zoom(zoom int, imageSize geom.Size, spectrum []complex128, f *filter.Filter) (geom.Size, []complex128, error)
}

// ZeroPadding inserts zero-valued frequency bins around the spectrum's
// existing content, preserving phase exactly at the shared frequencies.
type ZeroPadding struct{}

// Zoom implements Strategy.
func (ZeroPadding) Zoom(zoom int, imageSize geom.Size, spectrum []complex128, f *filter.Filter) (geom.Size, []complex128, error) {
	zoomedSize := imageSize.Scale(zoom)
	if zoom <= 1 {
		return imageSize, spectrum, applyFilter(f, imageSize, spectrum)
	}

	specCols := imageSize.Col/2 + 1
	zoomedSpecCols := zoomedSize.Col/2 + 1
	out := make([]complex128, zoomedSize.Row*zoomedSpecCols)

	halfRowCount := int(math.Ceil(float64(imageSize.Row) / 2.0))
	for row := 0; row < halfRowCount; row++ {
		copy(out[row*zoomedSpecCols:row*zoomedSpecCols+specCols], spectrum[row*specCols:(row+1)*specCols])
	}
	for row := halfRowCount; row < imageSize.Row; row++ {
		destRow := zoomedSize.Row - (imageSize.Row - row)
		copy(out[destRow*zoomedSpecCols:destRow*zoomedSpecCols+specCols], spectrum[row*specCols:(row+1)*specCols])
	}

	if err := applyFilter(f, zoomedSize, out); err != nil {
		return geom.Size{}, nil, err
	}
	return zoomedSize, out, nil
}

// Periodization tiles the spectrum's low-frequency content across the
// larger spectrum, which corresponds in the time domain to periodizing
// the image's smooth component; it requires a loaded filter.
type Periodization struct{}

// Zoom implements Strategy.
func (Periodization) Zoom(zoom int, imageSize geom.Size, spectrum []complex128, f *filter.Filter) (geom.Size, []complex128, error) {
	if f == nil || !f.Loaded() {
		return geom.Size{}, nil, fmt.Errorf("%w: periodization requires a loaded filter", filter.ErrInvalidInput)
	}

	zoomedSize := imageSize.Scale(zoom)
	if zoom <= 1 {
		return imageSize, spectrum, applyFilter(f, imageSize, spectrum)
	}

	specCols := imageSize.Col/2 + 1
	zoomedSpecCols := zoomedSize.Col/2 + 1
	out := make([]complex128, zoomedSize.Row*zoomedSpecCols)

	for period := 0; period < zoom; period++ {
		rowBase := period * imageSize.Row
		for row := 0; row < imageSize.Row; row++ {
			destRow := rowBase + row
			if destRow >= zoomedSize.Row {
				continue
			}
			for col := 0; col < specCols; col++ {
				v := spectrum[row*specCols+col]
				if col == specCols-1 && zoom != 2 {
					// The rightmost half-plane column sits on the Nyquist
					// boundary shared by both halves of the spectrum; it is
					// mirrored rather than repeated when periodizing.
					v = complex(real(v), -imag(v))
				}
				out[destRow*zoomedSpecCols+col] += v
			}
		}
	}

	if err := applyFilter(f, zoomedSize, out); err != nil {
		return geom.Size{}, nil, err
	}
	return zoomedSize, out, nil
}

func applyFilter(f *filter.Filter, size geom.Size, spectrum []complex128) error {
	if f == nil || !f.Loaded() {
		return nil
	}
	result, err := f.Process(size, spectrum)
	if err != nil {
		return err
	}
	copy(spectrum, result)
	return nil
}
