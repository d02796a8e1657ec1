package extract

import "errors"

var (
	// ErrUnsupportedFormat is returned for pixel data that cannot be read as RGB.
	ErrUnsupportedFormat = errors.New("unsupported pixel format")

	// ErrEmptyImage is returned for zero-pixel input or when quantization
	// yields no colors.
	ErrEmptyImage = errors.New("empty image")
)
