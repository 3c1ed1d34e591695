package defect

// SampleEdges caps a border list at maxPoints by keeping every factor-th point,
// where factor = ceil(len(points)/maxPoints). Order is preserved. Lists that
// already fit are returned unchanged. A non-positive maxPoints means
// DefaultMaxEdgePoints.
func SampleEdges(points []Point, maxPoints int) []Point {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxEdgePoints
	}
	n := len(points)
	if n <= maxPoints {
		return points
	}
	factor := (n + maxPoints - 1) / maxPoints
	out := make([]Point, 0, (n+factor-1)/factor)
	for i := 0; i < n; i += factor {
		out = append(out, points[i])
	}
	return out
}
