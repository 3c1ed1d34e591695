package defect

import (
	"strings"
)

// grayBuffer builds a 1-channel buffer filled with bg.
func grayBuffer(w, h int, bg uint8) PixelBuffer {
	pix := make([]uint8, w*h)
	for i := range pix {
		pix[i] = bg
	}
	return PixelBuffer{Width: w, Height: h, Channels: 1, Pix: pix}
}

// fillRect paints the inclusive rectangle (x0,y0)-(x1,y1) of a 1-channel buffer.
func fillRect(buf PixelBuffer, x0, y0, x1, y1 int, v uint8) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			buf.Pix[y*buf.Width+x] = v
		}
	}
}

// maskFromRows parses rows of '1' (foreground) and '.' or '0' (background).
func maskFromRows(rows ...string) *Mask {
	h := len(rows)
	w := len(rows[0])
	bits := make([]uint8, 0, w*h)
	for _, r := range rows {
		r = strings.TrimSpace(r)
		for _, c := range r {
			if c == '1' {
				bits = append(bits, 1)
			} else {
				bits = append(bits, 0)
			}
		}
	}
	return &Mask{Width: w, Height: h, Bits: bits}
}

// floodFillPartition labels m with a 4-connected flood fill. It is the oracle
// the two-pass labeler is compared against.
func floodFillPartition(m *Mask) ([]int, int) {
	w, h := m.Width, m.Height
	comp := make([]int, w*h)
	n := 0
	for start := range m.Bits {
		if m.Bits[start] == 0 || comp[start] != 0 {
			continue
		}
		n++
		stack := []int{start}
		comp[start] = n
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := p%w, p/w
			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				nx, ny := x+d[0], y+d[1]
				if !m.At(nx, ny) {
					continue
				}
				q := ny*w + nx
				if comp[q] == 0 {
					comp[q] = n
					stack = append(stack, q)
				}
			}
		}
	}
	return comp, n
}

// samePartition reports whether two labelings group pixels identically,
// ignoring the actual label values.
func samePartition(a []int32, b []int) bool {
	ab := map[int32]int{}
	ba := map[int]int32{}
	for i := range a {
		if (a[i] == 0) != (b[i] == 0) {
			return false
		}
		if a[i] == 0 {
			continue
		}
		if v, ok := ab[a[i]]; ok && v != b[i] {
			return false
		}
		if v, ok := ba[b[i]]; ok && v != a[i] {
			return false
		}
		ab[a[i]] = b[i]
		ba[b[i]] = a[i]
	}
	return true
}
