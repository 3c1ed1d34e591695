package defect

import (
	"fmt"
	"math"
)

// DefaultMaxEdgePoints caps the border points reported per component.
const DefaultMaxEdgePoints = 20000

// Params controls which pixels count as defects and which components are kept.
type Params struct {
	// MinSpotSizePx is the smallest pixel count a component needs to be reported.
	MinSpotSizePx int `json:"min_spot_size_px"`

	// MinContrastPercent is the required deviation from the mean luma, as a
	// percentage of 255. Must lie in (0, 100].
	MinContrastPercent float64 `json:"min_contrast_percent"`
}

// Validate reports whether p is usable. No value is ever defaulted.
func (p Params) Validate() error {
	if p.MinSpotSizePx < 1 {
		return fmt.Errorf("%w: min spot size %d must be >= 1", ErrParameterOutOfRange, p.MinSpotSizePx)
	}
	if math.IsNaN(p.MinContrastPercent) || p.MinContrastPercent <= 0 || p.MinContrastPercent > 100 {
		return fmt.Errorf("%w: min contrast %v%% must be in (0,100]", ErrParameterOutOfRange, p.MinContrastPercent)
	}
	return nil
}

// Point is a pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Bounds is an inclusive pixel bounding box.
type Bounds struct {
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
}

// Width returns the number of columns covered by b.
func (b Bounds) Width() int { return b.MaxX - b.MinX + 1 }

// Height returns the number of rows covered by b.
func (b Bounds) Height() int { return b.MaxY - b.MinY + 1 }

// Polarity tells whether a component is brighter or darker than the image mean.
type Polarity string

const (
	PolarityBright Polarity = "bright"
	PolarityDark   Polarity = "dark"
)

// ComponentRecord accumulates statistics for one labeled component while the
// label buffer is scanned. It is read-only once Aggregate returns.
type ComponentRecord struct {
	ID           int
	PixelCount   int
	MinX, MinY   int
	MaxX, MaxY   int
	SumX, SumY   float64
	SumIntensity float64
	Border       []Point
}

// Bounds returns the record's bounding box.
func (r *ComponentRecord) Bounds() Bounds {
	return Bounds{MinX: r.MinX, MinY: r.MinY, MaxX: r.MaxX, MaxY: r.MaxY}
}

// Component is a detected defect ready for rendering.
type Component struct {
	// ID is the dense 1-based label the component received during labeling.
	// IDs of reported components need not be contiguous.
	ID int `json:"id"`

	// PixelCount is the number of pixels in the component.
	PixelCount int `json:"pixel_count"`

	// CenterX and CenterY are the centroid of the component's pixels.
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`

	// Radius is half the longer side of the bounding box. It sizes an overlay
	// circle and is not a tight enclosing circle.
	Radius float64 `json:"radius"`

	Bounds Bounds `json:"bounds"`

	// MeanIntensity is the average luma of the component's pixels.
	MeanIntensity float64  `json:"mean_intensity"`
	Polarity      Polarity `json:"polarity"`

	// BorderCount is the number of border pixels before subsampling.
	BorderCount int `json:"border_count"`

	// Border holds border pixels in row-major discovery order, possibly
	// subsampled.
	Border []Point `json:"border,omitempty"`
}

// Result is the outcome of one detection run. A new run produces a new
// Result; existing ones are never modified.
type Result struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Mean is the global mean luma of the image.
	Mean float64 `json:"mean"`

	// Margin is the absolute luma deviation derived from MinContrastPercent.
	Margin float64 `json:"margin"`

	// ForegroundPixels is the number of pixels that passed the threshold.
	ForegroundPixels int `json:"foreground_pixels"`

	// TotalComponents counts components before the size filter.
	TotalComponents int `json:"total_components"`

	Params     Params      `json:"params"`
	Components []Component `json:"components"`
}

// Component returns the reported component with the given id.
func (r *Result) Component(id int) (Component, bool) {
	for _, c := range r.Components {
		if c.ID == id {
			return c, true
		}
	}
	return Component{}, false
}
