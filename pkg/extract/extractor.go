// Package extract builds color fingerprints from decoded images.
//
// An image is downscaled with nearest-neighbor sampling, reduced to a small
// palette by median cut, and the most populous palette entries that are
// significant and perceptually distinct become the fingerprint.
package extract

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/ericpauley/go-quantize/quantize"

	"github.com/papercomputeco/hues/pkg/swatch"
)

const (
	DefaultPaletteSize       = 16
	DefaultMaxColors         = 5
	DefaultSignificanceRatio = 0.025
	DefaultMinSeparation     = 20.0
	DefaultScaleSize         = 128
)

// Config tunes extraction.
type Config struct {
	// PaletteSize is the number of median-cut buckets.
	PaletteSize int

	// MaxColors caps the fingerprint length.
	MaxColors int

	// SignificanceRatio is the minimum population of a bucket relative to the
	// most popular bucket.
	SignificanceRatio float64

	// MinSeparation is the minimum Metric distance between two admitted colors.
	MinSeparation float64

	// ScaleSize bounds both sides of the image before quantization.
	ScaleSize int

	// Metric is used for the separation check.
	Metric swatch.Metric
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		PaletteSize:       DefaultPaletteSize,
		MaxColors:         DefaultMaxColors,
		SignificanceRatio: DefaultSignificanceRatio,
		MinSeparation:     DefaultMinSeparation,
		ScaleSize:         DefaultScaleSize,
		Metric:            swatch.DefaultMetric,
	}
}

// Validate checks that every field is usable.
func (c Config) Validate() error {
	var errs []error
	if c.PaletteSize < 1 || c.PaletteSize > 256 {
		errs = append(errs, fmt.Errorf("palette size must be within 1..256, got %d", c.PaletteSize))
	}
	if c.MaxColors < 1 {
		errs = append(errs, fmt.Errorf("max colors must be at least 1, got %d", c.MaxColors))
	}
	if c.SignificanceRatio < 0 || c.SignificanceRatio > 1 {
		errs = append(errs, fmt.Errorf("significance ratio must be within 0..1, got %v", c.SignificanceRatio))
	}
	if c.MinSeparation < 0 {
		errs = append(errs, fmt.Errorf("min separation must not be negative, got %v", c.MinSeparation))
	}
	if c.ScaleSize < 1 {
		errs = append(errs, fmt.Errorf("scale size must be at least 1, got %d", c.ScaleSize))
	}
	return errors.Join(errs...)
}

// Extractor turns images into fingerprints. It holds no mutable state and
// is safe for concurrent use.
type Extractor struct {
	config Config
}

// NewExtractor validates cfg and returns an Extractor.
func NewExtractor(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extract config: %w", err)
	}
	return &Extractor{config: cfg}, nil
}

// Config returns the configuration the extractor was built with.
func (e *Extractor) Config() Config {
	return e.config
}

// BuildFingerprint is a one-off Extract with cfg.
func BuildFingerprint(img image.Image, cfg Config) (swatch.Fingerprint, error) {
	e, err := NewExtractor(cfg)
	if err != nil {
		return nil, err
	}
	return e.Extract(img)
}

type bucket struct {
	color swatch.Color
	count int
}

// Extract returns the fingerprint of img. It never returns an empty
// fingerprint without an error.
func (e *Extractor) Extract(img image.Image) (swatch.Fingerprint, error) {
	if img == nil || img.ColorModel() == nil {
		return nil, ErrUnsupportedFormat
	}
	if img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	small := opaque(imaging.Fit(img, e.config.ScaleSize, e.config.ScaleSize, imaging.NearestNeighbor))

	buckets := e.histogram(small)
	if len(buckets) == 0 {
		return nil, ErrEmptyImage
	}

	return e.admit(buckets), nil
}

// opaque copies the color channels of src, discarding alpha.
func opaque(src *image.NRGBA) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := range b.Dy() {
		si := src.PixOffset(b.Min.X, b.Min.Y+y)
		di := dst.PixOffset(0, y)
		for x := 0; x < b.Dx(); x, si, di = x+1, si+4, di+4 {
			dst.Pix[di] = src.Pix[si]
			dst.Pix[di+1] = src.Pix[si+1]
			dst.Pix[di+2] = src.Pix[si+2]
			dst.Pix[di+3] = 0xff
		}
	}
	return dst
}

// histogram quantizes img and counts the pixels mapped to each palette
// color, sorted by descending count and then by color.
func (e *Extractor) histogram(img *image.RGBA) []bucket {
	q := quantize.MedianCutQuantizer{Aggregation: quantize.Mean}
	palette := q.Quantize(make(color.Palette, 0, e.config.PaletteSize), img)
	if len(palette) == 0 {
		return nil
	}

	counts := make(map[swatch.Color]int, len(palette))
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := swatch.FromStd(palette[palette.Index(img.RGBAAt(x, y))])
			counts[c]++
		}
	}

	buckets := make([]bucket, 0, len(counts))
	for c, n := range counts {
		buckets = append(buckets, bucket{color: c, count: n})
	}

	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].count != buckets[j].count {
			return buckets[i].count > buckets[j].count
		}
		return buckets[i].color.Less(buckets[j].color)
	})

	return buckets
}

// admit walks buckets in order and keeps those that are significant and far
// enough from every color admitted before them.
func (e *Extractor) admit(buckets []bucket) swatch.Fingerprint {
	threshold := e.config.SignificanceRatio * float64(buckets[0].count)

	fp := make(swatch.Fingerprint, 0, e.config.MaxColors)
	for _, b := range buckets {
		if len(fp) == e.config.MaxColors {
			break
		}
		if float64(b.count) < threshold {
			break
		}
		if !e.separated(fp, b.color) {
			continue
		}
		fp = append(fp, swatch.WeightedColor{Color: b.color, Weight: float64(b.count)})
	}

	return fp
}

func (e *Extractor) separated(fp swatch.Fingerprint, c swatch.Color) bool {
	for _, wc := range fp {
		if e.config.Metric.Distance(wc.Color, c) <= e.config.MinSeparation {
			return false
		}
	}
	return true
}
