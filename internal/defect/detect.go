package defect

import (
	"time"

	"github.com/rs/zerolog"
)

// Detector runs the detection pipeline. The zero value is ready to use and
// logs nothing.
type Detector struct {
	// MaxEdgePoints caps each component's border list. Non-positive values
	// mean DefaultMaxEdgePoints.
	MaxEdgePoints int

	// Logger receives per-run debug events.
	Logger zerolog.Logger
}

// NewDetector returns a Detector that logs to logger.
func NewDetector(maxEdgePoints int, logger zerolog.Logger) *Detector {
	return &Detector{MaxEdgePoints: maxEdgePoints, Logger: logger}
}

var defaultDetector = &Detector{Logger: zerolog.Nop()}

// Detect runs the pipeline with default settings.
func Detect(buf PixelBuffer, p Params) (*Result, error) {
	return defaultDetector.Detect(buf, p)
}

// Detect validates p and buf, then runs every stage to completion. It either
// returns a full Result or an error raised before any processing.
func (d *Detector) Detect(buf PixelBuffer, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	ib, err := Preprocess(buf)
	if err != nil {
		return nil, err
	}
	mask := Threshold(ib, p.MinContrastPercent)
	lab := Label(mask)
	records := Aggregate(lab, ib)
	components := Select(records, p.MinSpotSizePx, ib.Mean, d.MaxEdgePoints)

	res := &Result{
		Width:            buf.Width,
		Height:           buf.Height,
		Mean:             ib.Mean,
		Margin:           ContrastMargin(p.MinContrastPercent),
		ForegroundPixels: mask.Count(),
		TotalComponents:  lab.Count,
		Params:           p,
		Components:       components,
	}

	d.Logger.Debug().
		Int("width", res.Width).
		Int("height", res.Height).
		Float64("mean", res.Mean).
		Float64("margin", res.Margin).
		Int("foreground", res.ForegroundPixels).
		Int("labeled", res.TotalComponents).
		Int("kept", len(res.Components)).
		Dur("elapsed", time.Since(start)).
		Msg("defect detection complete")

	return res, nil
}
