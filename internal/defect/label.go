package defect

// Labeling assigns every foreground pixel a dense component id in 1..Count.
// Background pixels keep label 0.
type Labeling struct {
	Width  int
	Height int
	Labels []int32
	Count  int
}

// At returns the label of (x, y), or 0 when out of bounds.
func (l *Labeling) At(x, y int) int32 {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return 0
	}
	return l.Labels[y*l.Width+x]
}

// Label runs two-pass connected-component labeling on m.
//
// The first pass scans rows top to bottom and probes only the left and up
// neighbours of each foreground pixel:
//   - neither labeled: allocate a new provisional label
//   - one labeled: adopt it
//   - both labeled: adopt the smaller and union the two when they differ
//
// The disjoint set is then flattened, and the second pass maps each root to a
// dense id in order of first appearance.
func Label(m *Mask) *Labeling {
	w, h := m.Width, m.Height
	labels := make([]int32, w*h)
	ds := newDisjointSet(w * h / 4)

	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			i := row + x
			if m.Bits[i] == 0 {
				continue
			}
			var left, up int32
			if x > 0 {
				left = labels[i-1]
			}
			if y > 0 {
				up = labels[i-w]
			}

			switch {
			case left == 0 && up == 0:
				labels[i] = ds.makeSet()
			case up == 0:
				labels[i] = left
			case left == 0:
				labels[i] = up
			default:
				labels[i] = min(left, up)
				if left != up {
					ds.union(left, up)
				}
			}
		}
	}

	ds.flatten()

	dense := make(map[int32]int32, ds.size())
	var next int32
	for i, l := range labels {
		if l == 0 {
			continue
		}
		root := ds.root(l)
		id, ok := dense[root]
		if !ok {
			next++
			id = next
			dense[root] = id
		}
		labels[i] = id
	}

	return &Labeling{Width: w, Height: h, Labels: labels, Count: int(next)}
}
