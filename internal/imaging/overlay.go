package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/defect-tools-mcp/internal/defect"
)

// Overlay alpha levels for circle fill, circle outline and border pixels.
const (
	fillAlpha   = 31  // ~12%
	strokeAlpha = 230 // ~90%
	strokeWidth = 2.0
)

// OverlayOptions controls how detected defects are drawn.
type OverlayOptions struct {
	// Color is the hex color for circles, labels and borders, e.g. "#DC2626".
	Color string

	// DrawBorder paints each component's (possibly subsampled) border pixels.
	DrawBorder bool

	// ShowLabels writes "#id (pixels)" to the right of each circle.
	ShowLabels bool
}

// OverlayResult contains the annotated image as base64 PNG.
type OverlayResult struct {
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	ImageBase64    string `json:"image_base64"`
	MimeType       string `json:"mime_type"`
	ComponentCount int    `json:"component_count"`
}

// RenderOverlay draws every component of res over img: a translucent circle
// of the component's radius at its centroid, an optional id label and
// optional border pixels. The overlay is drawn on its own layer and
// alpha-composited onto a copy of img.
func RenderOverlay(img image.Image, res *defect.Result, opts OverlayOptions) (*OverlayResult, error) {
	if res == nil {
		return nil, fmt.Errorf("no detection result to render")
	}
	bounds := img.Bounds()
	if bounds.Dx() != res.Width || bounds.Dy() != res.Height {
		return nil, fmt.Errorf("result is %dx%d but image is %dx%d",
			res.Width, res.Height, bounds.Dx(), bounds.Dy())
	}

	c, err := colorful.Hex(opts.Color)
	if err != nil {
		return nil, fmt.Errorf("invalid overlay color %q: %w", opts.Color, err)
	}
	r, g, b := c.RGB255()

	layer := image.NewRGBA(image.Rect(0, 0, res.Width, res.Height))
	fill := color.NRGBA{R: r, G: g, B: b, A: fillAlpha}
	stroke := color.NRGBA{R: r, G: g, B: b, A: strokeAlpha}
	solid := color.NRGBA{R: r, G: g, B: b, A: 255}
	labelBg := color.NRGBA{R: 255, G: 255, B: 255, A: 160}

	for _, comp := range res.Components {
		drawCircle(layer, comp.CenterX, comp.CenterY, comp.Radius, fill, stroke)
		if opts.DrawBorder {
			for _, p := range comp.Border {
				paint(layer, p.X, p.Y, solid)
			}
		}
		if opts.ShowLabels {
			lx := int(math.Round(comp.CenterX + comp.Radius + 4))
			ly := int(math.Round(comp.CenterY - 6))
			drawLabel(layer, lx, ly, fmt.Sprintf("#%d (%d)", comp.ID, comp.PixelCount), solid, labelBg)
		}
	}

	base := imaging.Clone(img)
	out := blend.Normal(base, layer)

	var buf bytes.Buffer
	if err := encodePNG(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode overlay: %w", err)
	}

	return &OverlayResult{
		Width:          res.Width,
		Height:         res.Height,
		ImageBase64:    base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:       "image/png",
		ComponentCount: len(res.Components),
	}, nil
}

// encodePNG writes rendered images.
var encodePNG = imgio.PNGEncoder()

// paint stores c unpremultiplied. blend.Normal reads the layer's bytes as
// straight alpha, so going through image.RGBA.Set would apply alpha twice.
func paint(img *image.RGBA, x, y int, c color.NRGBA) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	i := img.PixOffset(x, y)
	img.Pix[i+0] = c.R
	img.Pix[i+1] = c.G
	img.Pix[i+2] = c.B
	img.Pix[i+3] = c.A
}

// drawCircle fills the disc of radius r around (cx, cy) and strokes its rim.
// The stroke straddles the radius and wins over the fill.
func drawCircle(img *image.RGBA, cx, cy, r float64, fill, stroke color.NRGBA) {
	reach := r + strokeWidth
	x0 := int(math.Floor(cx - reach))
	x1 := int(math.Ceil(cx + reach))
	y0 := int(math.Floor(cy - reach))
	y1 := int(math.Ceil(cy + reach))

	bounds := img.Bounds()
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if !(image.Point{X: x, Y: y}).In(bounds) {
				continue
			}
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			switch {
			case math.Abs(d-r) < strokeWidth/2:
				paint(img, x, y, stroke)
			case d < r:
				paint(img, x, y, fill)
			}
		}
	}
}

// glyphs is a 3x5 pixel font covering the characters used in labels.
var glyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	'#': {"101", "111", "101", "111", "101"},
	'(': {"010", "100", "100", "100", "010"},
	')': {"010", "001", "001", "001", "010"},
}

// drawLabel writes text with its top-left corner at (x, y) on a background
// box. Characters without a glyph, such as spaces, only advance the cursor.
// Pixels falling outside img are skipped.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.NRGBA) {
	bounds := img.Bounds()
	const charWidth = 4
	labelWidth := len(text) * charWidth
	const labelHeight = 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			if p := (image.Point{X: x + dx, Y: y + dy}); p.In(bounds) {
				paint(img, p.X, p.Y, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		if glyph, ok := glyphs[ch]; ok {
			for row, line := range glyph {
				for col, pixel := range line {
					if pixel != '1' {
						continue
					}
					if p := (image.Point{X: cx + col, Y: y + row}); p.In(bounds) {
						paint(img, p.X, p.Y, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}
