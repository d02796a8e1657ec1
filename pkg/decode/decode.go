// Package decode turns image files and byte streams into image.Image values.
// The extractor never reads files itself; callers decode first.
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// ErrDecode wraps every failure to read or decode an image.
var ErrDecode = errors.New("decode error")

type decoder func(io.Reader) (image.Image, error)

var decoders = map[string]decoder{
	"image/jpeg": jpeg.Decode,
	"image/png":  png.Decode,
	"image/gif":  gif.Decode,
	"image/bmp":  bmp.Decode,
	"image/tiff": tiff.Decode,
	"image/webp": webp.Decode,
}

var extensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".bmp":  {},
	".tif":  {},
	".tiff": {},
	".webp": {},
}

// IsImageFile reports whether path has a supported image extension.
func IsImageFile(path string) bool {
	_, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// SupportedMIME reports whether Decode can handle the given MIME type.
func SupportedMIME(mime string) bool {
	_, ok := decoders[mime]
	return ok
}

// Decode sniffs the content type of r and decodes it. It returns the image
// and its detected MIME type.
func Decode(r io.Reader) (image.Image, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: reading image: %w", ErrDecode, err)
	}
	return DecodeBytes(data)
}

// DecodeBytes decodes an in-memory image.
func DecodeBytes(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: no data", ErrDecode)
	}

	mime := mimetype.Detect(data).String()
	dec, ok := decoders[mime]
	if !ok {
		return nil, mime, fmt.Errorf("%w: unsupported content type %s", ErrDecode, mime)
	}

	img, err := dec(bytes.NewReader(data))
	if err != nil {
		return nil, mime, fmt.Errorf("%w: %s: %w", ErrDecode, mime, err)
	}
	return img, mime, nil
}

// DecodeFile opens and decodes the image at path.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer f.Close()

	img, _, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}
