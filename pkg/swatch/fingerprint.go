package swatch

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidFingerprint is returned by Validate and FromFlat.
var ErrInvalidFingerprint = errors.New("invalid fingerprint")

// WeightedColor is one dominant color of an image. Weight is only meaningful
// relative to the other entries of the same fingerprint.
type WeightedColor struct {
	Color
	Weight float64 `json:"weight"`
}

// Fingerprint is the ordered list of dominant colors of an image, most
// dominant first.
type Fingerprint []WeightedColor

// Solid wraps a bare color as a single-entry, weight 1 fingerprint so it can
// be used as a query.
func Solid(c Color) Fingerprint {
	return Fingerprint{{Color: c, Weight: 1}}
}

// Validate reports whether f can be stored or queried.
func (f Fingerprint) Validate() error {
	if len(f) == 0 {
		return fmt.Errorf("%w: no colors", ErrInvalidFingerprint)
	}
	for i, wc := range f {
		if math.IsNaN(wc.Weight) || math.IsInf(wc.Weight, 0) || wc.Weight < 0 {
			return fmt.Errorf("%w: entry %d has weight %v", ErrInvalidFingerprint, i, wc.Weight)
		}
	}
	return nil
}

// Clone returns a copy that shares no memory with f.
func (f Fingerprint) Clone() Fingerprint {
	if f == nil {
		return nil
	}
	out := make(Fingerprint, len(f))
	copy(out, f)
	return out
}

// Equal reports whether both fingerprints hold the same entries in the same order.
func (f Fingerprint) Equal(o Fingerprint) bool {
	if len(f) != len(o) {
		return false
	}
	for i := range f {
		if f[i] != o[i] {
			return false
		}
	}
	return true
}

// Dominant returns the first entry's color.
func (f Fingerprint) Dominant() (Color, bool) {
	if len(f) == 0 {
		return Color{}, false
	}
	return f[0].Color, true
}

// Flatten encodes f as [R, G, B, weight, R, G, B, weight, ...].
func (f Fingerprint) Flatten() []float64 {
	out := make([]float64, 0, len(f)*4)
	for _, wc := range f {
		out = append(out, float64(wc.R), float64(wc.G), float64(wc.B), wc.Weight)
	}
	return out
}

// FromFlat decodes the output of Flatten.
func FromFlat(flat []float64) (Fingerprint, error) {
	if len(flat)%4 != 0 {
		return nil, fmt.Errorf("%w: flat length %d is not a multiple of 4", ErrInvalidFingerprint, len(flat))
	}

	f := make(Fingerprint, 0, len(flat)/4)
	for i := 0; i < len(flat); i += 4 {
		var ch [3]uint8
		for j := range 3 {
			v := flat[i+j]
			if v < 0 || v > 255 || v != math.Trunc(v) {
				return nil, fmt.Errorf("%w: channel value %v", ErrInvalidFingerprint, v)
			}
			ch[j] = uint8(v)
		}
		f = append(f, WeightedColor{
			Color:  Color{R: ch[0], G: ch[1], B: ch[2]},
			Weight: flat[i+3],
		})
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}
