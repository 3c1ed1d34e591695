package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/defect-tools-mcp/internal/defect"
)

// MaxCropScale bounds the zoom factor accepted by CropDefect.
const MaxCropScale = 16.0

// CropResult contains a cropped region as base64 PNG. X and Y locate the
// region's top-left corner in the source image.
type CropResult struct {
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// CropDefect cuts out a component's bounding box grown by padding pixels on
// every side and clamped to the image, optionally scaled by scale.
func CropDefect(img image.Image, b defect.Bounds, padding int, scale float64) (*CropResult, error) {
	if padding < 0 {
		return nil, fmt.Errorf("padding must be >= 0, got %d", padding)
	}
	if b.MaxX < b.MinX || b.MaxY < b.MinY {
		return nil, fmt.Errorf("invalid bounds (%d,%d)-(%d,%d)", b.MinX, b.MinY, b.MaxX, b.MaxY)
	}

	ib := img.Bounds()
	rect := image.Rect(
		ib.Min.X+b.MinX-padding,
		ib.Min.Y+b.MinY-padding,
		ib.Min.X+b.MaxX+1+padding,
		ib.Min.Y+b.MaxY+1+padding,
	).Intersect(ib)
	if rect.Empty() {
		return nil, fmt.Errorf("bounds (%d,%d)-(%d,%d) lie outside the %dx%d image",
			b.MinX, b.MinY, b.MaxX, b.MaxY, ib.Dx(), ib.Dy())
	}

	res, err := crop(img, rect, scale)
	if err != nil {
		return nil, err
	}
	res.X = rect.Min.X - ib.Min.X
	res.Y = rect.Min.Y - ib.Min.Y
	return res, nil
}

func crop(img image.Image, rect image.Rectangle, scale float64) (*CropResult, error) {
	if scale <= 0 || scale > MaxCropScale {
		return nil, fmt.Errorf("scale must be in (0, %g], got %g", MaxCropScale, scale)
	}

	cropped := imaging.Crop(img, rect)
	if scale != 1.0 {
		w := max(1, int(float64(cropped.Bounds().Dx())*scale))
		h := max(1, int(float64(cropped.Bounds().Dy())*scale))
		// Nearest neighbour keeps single defect pixels crisp when zooming in.
		filter := imaging.NearestNeighbor
		if scale < 1 {
			filter = imaging.Lanczos
		}
		cropped = imaging.Resize(cropped, w, h, filter)
	}

	var buf bytes.Buffer
	if err := encodePNG(&buf, cropped); err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	return &CropResult{
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
