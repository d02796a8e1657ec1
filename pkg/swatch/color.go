// Package swatch holds the color model shared by the extractor, the index and
// the storage drivers: plain 8-bit RGB colors, weighted fingerprints and the
// perceptual distances between them.
package swatch

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidColor is returned by ParseColor for input that is not a color.
var ErrInvalidColor = errors.New("invalid color")

// Color is an opaque 8-bit RGB color.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// FromStd converts any image/color value, dropping alpha.
func FromStd(c color.Color) Color {
	r, g, b, _ := c.RGBA()
	return Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}.RGBA()
}

// Hex renders the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) String() string {
	return c.Hex()
}

// Less orders colors by R, then G, then B.
func (c Color) Less(o Color) bool {
	if c.R != o.R {
		return c.R < o.R
	}
	if c.G != o.G {
		return c.G < o.G
	}
	return c.B < o.B
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// Lab returns the CIE L*a*b* coordinates of c under D65, with L* in 0..100.
func (c Color) Lab() (l, a, b float64) {
	l, a, b = c.colorful().Lab()
	return l * 100, a * 100, b * 100
}

// ParseColor accepts "#rrggbb", "rrggbb", "#rgb" and "r,g,b".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Color{}, fmt.Errorf("%w: empty", ErrInvalidColor)
	}

	if strings.Contains(s, ",") {
		return parseTriple(s)
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	c, err := colorful.Hex("#" + strings.ToLower(hex))
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b}, nil
}

func parseTriple(s string) (Color, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Color{}, fmt.Errorf("%w: %q needs three channels", ErrInvalidColor, s)
	}

	var ch [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return Color{}, fmt.Errorf("%w: channel %q", ErrInvalidColor, strings.TrimSpace(p))
		}
		ch[i] = uint8(v)
	}

	return Color{R: ch[0], G: ch[1], B: ch[2]}, nil
}
