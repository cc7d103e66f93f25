// Package imgbuf implements the row-major single-band raster buffer
// shared by every transform, including zero/mirror padding and the
// even-size extension step that precedes frequency-domain resampling.
package imgbuf

import (
	"freqimage/pkg/geom"
)

// Image is a row-major real-valued raster.
type Image struct {
	Size geom.Size
	Data []float64
}

// New allocates a zeroed image of the given size.
func New(size geom.Size) Image {
	return Image{Size: size, Data: make([]float64, size.Cells())}
}

// IsEmpty reports whether the image holds no data.
func (img Image) IsEmpty() bool {
	return img.Size.Row == 0 || img.Size.Col == 0
}

// At returns the value at (row, col).
func (img Image) At(row, col int) float64 {
	return img.Data[row*img.Size.Col+col]
}

// Set assigns the value at (row, col).
func (img Image) Set(row, col int, v float64) {
	img.Data[row*img.Size.Col+col] = v
}

// Padded returns a new image with the given margin applied on each
// side, per geom.Padding.Kind. Mirror padding fills corners from the
// already-written top/bottom edges of the result, matching the layout
// of a physically mirrored border rather than re-deriving corners from
// the interior.
func (img Image) Padded(p geom.Padding) Image {
	outSize := geom.Size{
		Row: img.Size.Row + p.Top + p.Bottom,
		Col: img.Size.Col + p.Left + p.Right,
	}
	out := New(outSize)

	switch p.Kind {
	case geom.PaddingMirror:
		padMirror(img, out, p)
	default:
		padZero(img, out, p)
	}
	return out
}

func padZero(img, out Image, p geom.Padding) {
	topOffset := out.Size.Col*p.Top + p.Left
	src := 0
	dst := topOffset
	for row := 0; row < img.Size.Row; row++ {
		copy(out.Data[dst:dst+img.Size.Col], img.Data[src:src+img.Size.Col])
		src += img.Size.Col
		dst += out.Size.Col
	}
}

func padMirror(img, out Image, p geom.Padding) {
	// Copy the source into the interior first.
	padZero(img, out, p)

	// Left/right margins: mirror columns of the original image, written
	// row-by-row alongside the interior.
	for row := 0; row < img.Size.Row; row++ {
		outRow := row + p.Top
		for i := 1; i <= p.Left; i++ {
			out.Set(outRow, p.Left-i, img.At(row, min(i, img.Size.Col-1)))
		}
		for i := 0; i < p.Right; i++ {
			out.Set(outRow, out.Size.Col-p.Right+i, img.At(row, img.Size.Col-2-i))
		}
	}

	// Top/bottom margins, including corners: mirror full rows already
	// written into out (so the corners pick up the left/right margins
	// just filled in above), matching the source behavior of deriving
	// corners from already-written edges rather than the original data.
	for i := 1; i <= p.Top; i++ {
		srcRow := min(i, img.Size.Row-1) + p.Top
		copy(out.Data[(p.Top-i)*out.Size.Col:(p.Top-i+1)*out.Size.Col], out.Data[srcRow*out.Size.Col:(srcRow+1)*out.Size.Col])
	}
	for i := 0; i < p.Bottom; i++ {
		srcRow := p.Top + img.Size.Row - 2 - i
		dstRow := p.Top + img.Size.Row + i
		if srcRow < 0 {
			srcRow = p.Top
		}
		copy(out.Data[dstRow*out.Size.Col:(dstRow+1)*out.Size.Col], out.Data[srcRow*out.Size.Col:(srcRow+1)*out.Size.Col])
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// MadeEven returns an even-row, even-col copy of img, duplicating the
// last row and/or column when a dimension is odd. Always returns a new
// buffer, even when img is already even-sized, matching the copy (not
// move) semantics required before the result is shared across goroutines.
func (img Image) MadeEven() Image {
	rows, cols := img.Size.Row, img.Size.Col
	if rows%2 != 0 {
		rows++
	}
	if cols%2 != 0 {
		cols++
	}
	out := New(geom.Size{Row: rows, Col: cols})
	for row := 0; row < out.Size.Row; row++ {
		srcRow := row
		if srcRow >= img.Size.Row {
			srcRow = img.Size.Row - 1
		}
		for col := 0; col < out.Size.Col; col++ {
			srcCol := col
			if srcCol >= img.Size.Col {
				srcCol = img.Size.Col - 1
			}
			out.Set(row, col, img.At(srcRow, srcCol))
		}
	}
	return out
}

// Crop returns the sub-image [top:top+size.Row) x [left:left+size.Col).
func (img Image) Crop(top, left int, size geom.Size) Image {
	out := New(size)
	for row := 0; row < size.Row; row++ {
		srcOff := (row+top)*img.Size.Col + left
		dstOff := row * size.Col
		copy(out.Data[dstOff:dstOff+size.Col], img.Data[srcOff:srcOff+size.Col])
	}
	return out
}

// Clone returns an independent copy of img.
func (img Image) Clone() Image {
	out := New(img.Size)
	copy(out.Data, img.Data)
	return out
}
