package extract

import (
	"fmt"
	"image"
	"image/color"
)

// RGB is an image backed by a packed 3-channel, 8-bit buffer.
type RGB struct {
	Pix    []uint8
	Stride int
	Rect   image.Rectangle
}

// NewRGB wraps pix, laid out row by row as R, G, B triples.
func NewRGB(width, height int, pix []uint8) (*RGB, error) {
	return FromPixels(width, height, 3, pix)
}

// FromPixels converts a packed 8-bit buffer with 1 (gray), 3 (RGB) or 4
// (RGBA, alpha ignored) channels into an RGB image.
func FromPixels(width, height, channels int, pix []uint8) (*RGB, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: negative dimensions %dx%d", ErrUnsupportedFormat, width, height)
	}
	if channels != 1 && channels != 3 && channels != 4 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, channels)
	}
	if len(pix) != width*height*channels {
		return nil, fmt.Errorf("%w: buffer holds %d bytes, want %d", ErrUnsupportedFormat, len(pix), width*height*channels)
	}

	img := &RGB{
		Pix:    make([]uint8, width*height*3),
		Stride: width * 3,
		Rect:   image.Rect(0, 0, width, height),
	}

	if channels == 3 {
		copy(img.Pix, pix)
		return img, nil
	}

	for i, o := 0, 0; i < len(pix); i, o = i+channels, o+3 {
		if channels == 1 {
			img.Pix[o], img.Pix[o+1], img.Pix[o+2] = pix[i], pix[i], pix[i]
			continue
		}
		img.Pix[o], img.Pix[o+1], img.Pix[o+2] = pix[i], pix[i+1], pix[i+2]
	}

	return img, nil
}

func (p *RGB) ColorModel() color.Model {
	return color.RGBAModel
}

func (p *RGB) Bounds() image.Rectangle {
	return p.Rect
}

func (p *RGB) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
	return color.RGBA{R: p.Pix[i], G: p.Pix[i+1], B: p.Pix[i+2], A: 0xff}
}
