package defect

import "math"

// Mask flags foreground pixels with 1 and background pixels with 0.
type Mask struct {
	Width  int
	Height int
	Bits   []uint8
}

// At reports whether (x, y) is foreground. Out-of-bounds pixels are background.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Bits[y*m.Width+x] != 0
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b != 0 {
			n++
		}
	}
	return n
}

// ContrastMargin converts a contrast percentage into an absolute luma margin
// on the 0-255 scale.
func ContrastMargin(minContrastPercent float64) float64 {
	return minContrastPercent / 100 * 255
}

// Threshold marks every pixel whose luma differs from the buffer's mean by at
// least the contrast margin. Bright and dark deviations both count.
func Threshold(ib *IntensityBuffer, minContrastPercent float64) *Mask {
	margin := ContrastMargin(minContrastPercent)
	bits := make([]uint8, len(ib.Values))
	for i, v := range ib.Values {
		if math.Abs(v-ib.Mean) >= margin {
			bits[i] = 1
		}
	}
	return &Mask{Width: ib.Width, Height: ib.Height, Bits: bits}
}
