package defect

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// PixelBuffer is a decoded raster with interleaved 8-bit samples in row-major
// order. The pipeline only reads it.
//
// Channels 1 and 2 are read as gray (plus alpha). With 3 or more channels the
// first three are R, G and B and the rest are ignored.
type PixelBuffer struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewPixelBuffer wraps pix as a width x height buffer and checks its shape.
func NewPixelBuffer(width, height, channels int, pix []uint8) (PixelBuffer, error) {
	buf := PixelBuffer{Width: width, Height: height, Channels: channels, Pix: pix}
	if err := buf.Validate(); err != nil {
		return PixelBuffer{}, err
	}
	return buf, nil
}

// Validate checks that the buffer has a positive area and a sample slice that
// matches its dimensions.
func (b PixelBuffer) Validate() error {
	if b.Width < 1 || b.Height < 1 {
		return fmt.Errorf("%w: image is %dx%d", ErrInvalidInput, b.Width, b.Height)
	}
	if b.Channels < 1 {
		return fmt.Errorf("%w: %d channels", ErrInvalidInput, b.Channels)
	}
	if want := b.Width * b.Height * b.Channels; len(b.Pix) != want {
		return fmt.Errorf("%w: have %d samples, want %d", ErrInvalidInput, len(b.Pix), want)
	}
	return nil
}

// FromImage converts any image to a 4-channel, non-premultiplied RGBA buffer
// anchored at (0,0).
func FromImage(img image.Image) (PixelBuffer, error) {
	if img == nil {
		return PixelBuffer{}, fmt.Errorf("%w: nil image", ErrInvalidInput)
	}
	b := img.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		return PixelBuffer{}, fmt.Errorf("%w: image is %dx%d", ErrInvalidInput, b.Dx(), b.Dy())
	}
	nrgba := imaging.Clone(img)
	return NewPixelBuffer(b.Dx(), b.Dy(), 4, nrgba.Pix)
}
