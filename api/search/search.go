// Package search provides shared color search types and logic. It is used by
// the REST API endpoints, the MCP server tool and the local CLI search.
package search

import (
	"context"
	"errors"
	"log/slog"

	"github.com/papercomputeco/hues/pkg/collection"
	"github.com/papercomputeco/hues/pkg/decode"
	"github.com/papercomputeco/hues/pkg/extract"
	"github.com/papercomputeco/hues/pkg/index"
	"github.com/papercomputeco/hues/pkg/swatch"
)

const (
	// DefaultTopK is used when a request asks for zero results.
	DefaultTopK = 5

	// All returns every entry of the collection, fully ranked.
	All = index.All
)

// ErrInvalidQuery is returned when a request does not name exactly one of a
// color or an image.
var ErrInvalidQuery = errors.New("exactly one of color or image is required")

// Input represents the arguments of a search request.
type Input struct {
	Collection string `json:"collection"`
	Color      string `json:"color,omitempty"`
	Image      []byte `json:"-"`
	TopK       int    `json:"top_k,omitempty"`
}

// Color is one fingerprint entry rendered for clients.
type Color struct {
	Hex    string  `json:"hex"`
	Weight float64 `json:"weight"`
}

// Result represents a single ranked image.
type Result struct {
	Rank     int     `json:"rank"`
	ID       string  `json:"id"`
	Distance float64 `json:"distance"`
	Colors   []Color `json:"colors"`
}

// Output represents the output of a search operation.
type Output struct {
	Collection string   `json:"collection"`
	Query      []Color  `json:"query"`
	Results    []Result `json:"results"`
	Count      int      `json:"count"`
}

// Query builds the fingerprint a request searches with: a solid fingerprint
// for a color, an extracted one for an image.
func Query(extractor *extract.Extractor, in Input) (swatch.Fingerprint, error) {
	switch {
	case in.Color != "" && len(in.Image) == 0:
		c, err := swatch.ParseColor(in.Color)
		if err != nil {
			return nil, err
		}
		return swatch.Solid(c), nil

	case in.Color == "" && len(in.Image) > 0:
		img, _, err := decode.DecodeBytes(in.Image)
		if err != nil {
			return nil, err
		}
		return extractor.Extract(img)

	default:
		return nil, ErrInvalidQuery
	}
}

// Search ranks the images of a collection by similarity to a color or an
// uploaded image.
func Search(
	ctx context.Context,
	manager *collection.Manager,
	extractor *extract.Extractor,
	in Input,
	logger *slog.Logger,
) (*Output, error) {
	topK := normalizeTopK(in.TopK)

	logger.Debug("search request",
		"collection", in.Collection,
		"color", in.Color,
		"image_bytes", len(in.Image),
		"topK", topK,
	)

	query, err := Query(extractor, in)
	if err != nil {
		return nil, err
	}

	var results []index.Result
	err = manager.View(ctx, in.Collection, func(c *collection.Collection) error {
		results = c.Index.KNN(query, topK)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return buildOutput(in.Collection, query, results), nil
}

// Similar ranks the other images of a collection by similarity to the image
// stored under id.
func Similar(
	ctx context.Context,
	manager *collection.Manager,
	name, id string,
	topK int,
	logger *slog.Logger,
) (*Output, error) {
	topK = normalizeTopK(topK)

	logger.Debug("similar request",
		"collection", name,
		"id", id,
		"topK", topK,
	)

	var (
		query   swatch.Fingerprint
		results []index.Result
	)
	err := manager.View(ctx, name, func(c *collection.Collection) error {
		var err error
		query, err = c.Index.Get(id)
		if err != nil {
			return err
		}
		results, err = c.Index.Similar(id, topK)
		return err
	})
	if err != nil {
		return nil, err
	}

	return buildOutput(name, query, results), nil
}

// normalizeTopK maps 0 to DefaultTopK and every negative value to All.
func normalizeTopK(topK int) int {
	switch {
	case topK == 0:
		return DefaultTopK
	case topK < 0:
		return All
	}
	return topK
}

// Colors renders a fingerprint for clients.
func Colors(fp swatch.Fingerprint) []Color {
	colors := make([]Color, len(fp))
	for i, wc := range fp {
		colors[i] = Color{Hex: wc.Hex(), Weight: wc.Weight}
	}
	return colors
}

// Fingerprint parses client colors back into a fingerprint.
func Fingerprint(colors []Color) (swatch.Fingerprint, error) {
	fp := make(swatch.Fingerprint, len(colors))
	for i, c := range colors {
		parsed, err := swatch.ParseColor(c.Hex)
		if err != nil {
			return nil, err
		}
		fp[i] = swatch.WeightedColor{Color: parsed, Weight: c.Weight}
	}
	return fp, nil
}

func buildOutput(name string, query swatch.Fingerprint, results []index.Result) *Output {
	out := &Output{
		Collection: name,
		Query:      Colors(query),
		Results:    make([]Result, len(results)),
		Count:      len(results),
	}
	for i, r := range results {
		out.Results[i] = Result{
			Rank:     i + 1,
			ID:       r.ID,
			Distance: r.Distance,
			Colors:   Colors(r.Fingerprint),
		}
	}
	return out
}
