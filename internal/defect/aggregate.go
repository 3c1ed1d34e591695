package defect

// Aggregate builds one record per component of lab. Records are returned in
// id order, so records[id-1] describes component id.
//
// ib may be nil, in which case SumIntensity stays zero.
//
// Border pixels are collected in a second scan once every label is final: a
// foreground pixel is on the border if any 4-neighbour is background or lies
// outside the image.
func Aggregate(lab *Labeling, ib *IntensityBuffer) []ComponentRecord {
	w, h := lab.Width, lab.Height
	records := make([]ComponentRecord, lab.Count)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			id := lab.Labels[i]
			if id == 0 {
				continue
			}
			rec := &records[id-1]
			if rec.ID == 0 {
				*rec = ComponentRecord{ID: int(id), MinX: x, MinY: y, MaxX: x, MaxY: y}
			}
			rec.PixelCount++
			if x < rec.MinX {
				rec.MinX = x
			}
			if x > rec.MaxX {
				rec.MaxX = x
			}
			if y < rec.MinY {
				rec.MinY = y
			}
			if y > rec.MaxY {
				rec.MaxY = y
			}
			rec.SumX += float64(x)
			rec.SumY += float64(y)
			if ib != nil {
				rec.SumIntensity += ib.Values[i]
			}
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			id := lab.Labels[y*w+x]
			if id == 0 {
				continue
			}
			if isBorder(lab, x, y) {
				rec := &records[id-1]
				rec.Border = append(rec.Border, Point{X: x, Y: y})
			}
		}
	}

	return records
}

// isBorder reports whether the foreground pixel (x, y) has a background or
// out-of-bounds 4-neighbour.
func isBorder(lab *Labeling, x, y int) bool {
	return lab.At(x-1, y) == 0 ||
		lab.At(x+1, y) == 0 ||
		lab.At(x, y-1) == 0 ||
		lab.At(x, y+1) == 0
}
