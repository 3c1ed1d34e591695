package defect

import (
	"gonum.org/v1/gonum/stat"
)

// ITU-R BT.601 luma weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// IntensityBuffer holds one luma value per pixel and their mean.
type IntensityBuffer struct {
	Width  int
	Height int
	Values []float64
	Mean   float64
}

// At returns the luma at (x, y). No bounds checking is performed.
func (ib *IntensityBuffer) At(x, y int) float64 {
	return ib.Values[y*ib.Width+x]
}

// Preprocess reduces buf to luma and computes the global mean.
func Preprocess(buf PixelBuffer) (*IntensityBuffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	n := buf.Width * buf.Height
	values := make([]float64, n)
	ch := buf.Channels

	if ch >= 3 {
		for i, p := 0, 0; i < n; i, p = i+1, p+ch {
			values[i] = lumaR*float64(buf.Pix[p]) + lumaG*float64(buf.Pix[p+1]) + lumaB*float64(buf.Pix[p+2])
		}
	} else {
		// Gray or gray+alpha: the sample already is the luma.
		for i, p := 0, 0; i < n; i, p = i+1, p+ch {
			values[i] = float64(buf.Pix[p])
		}
	}

	return &IntensityBuffer{
		Width:  buf.Width,
		Height: buf.Height,
		Values: values,
		Mean:   stat.Mean(values, nil),
	}, nil
}
