package storage

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/papercomputeco/hues/pkg/swatch"
)

// EncodeColors serializes a fingerprint as little-endian float64 values in
// its flat [R, G, B, weight] form. Drivers without a native float array
// type store this blob.
func EncodeColors(fp swatch.Fingerprint) []byte {
	flat := fp.Flatten()
	buf := make([]byte, len(flat)*8)
	for i, f := range flat {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

// DecodeColors is the inverse of EncodeColors.
func DecodeColors(b []byte) (swatch.Fingerprint, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("invalid colors blob length %d: must be divisible by 8", len(b))
	}
	flat := make([]float64, len(b)/8)
	for i := range flat {
		flat[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return swatch.FromFlat(flat)
}
