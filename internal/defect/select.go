package defect

import "math"

// Select drops records with fewer than minSpotSizePx pixels and turns the rest
// into Components, in ascending id order.
//
// The centroid is the mean pixel position. The radius is half the longer side
// of the bounding box, so the circle is centred on the centroid rather than
// the box. Border lists are capped at maxEdgePoints via SampleEdges.
func Select(records []ComponentRecord, minSpotSizePx int, mean float64, maxEdgePoints int) []Component {
	out := make([]Component, 0, len(records))
	for i := range records {
		rec := &records[i]
		if rec.PixelCount < minSpotSizePx {
			continue
		}
		n := float64(rec.PixelCount)
		b := rec.Bounds()
		meanIntensity := rec.SumIntensity / n

		polarity := PolarityDark
		if meanIntensity > mean {
			polarity = PolarityBright
		}

		out = append(out, Component{
			ID:            rec.ID,
			PixelCount:    rec.PixelCount,
			CenterX:       rec.SumX / n,
			CenterY:       rec.SumY / n,
			Radius:        0.5 * math.Max(float64(b.Width()), float64(b.Height())),
			Bounds:        b,
			MeanIntensity: meanIntensity,
			Polarity:      polarity,
			BorderCount:   len(rec.Border),
			Border:        SampleEdges(rec.Border, maxEdgePoints),
		})
	}
	return out
}
