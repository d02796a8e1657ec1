package api

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	apisearch "github.com/papercomputeco/hues/api/search"
	"github.com/papercomputeco/hues/pkg/collection"
	"github.com/papercomputeco/hues/pkg/decode"
	"github.com/papercomputeco/hues/pkg/extract"
	"github.com/papercomputeco/hues/pkg/index"
	"github.com/papercomputeco/hues/pkg/storage"
	"github.com/papercomputeco/hues/pkg/swatch"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CollectionsResponse lists stored collections.
type CollectionsResponse struct {
	Count       int            `json:"count"`
	Collections []storage.Meta `json:"collections"`
}

// CollectionResponse describes one collection and the images it holds.
type CollectionResponse struct {
	storage.Meta
	Images []string `json:"images"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleListCollections returns the metadata of every collection.
func (s *Server) handleListCollections(c *fiber.Ctx) error {
	metas, err := s.manager.List(c.Context())
	if err != nil {
		s.logger.Error("failed to list collections", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list collections"})
	}
	if metas == nil {
		metas = []storage.Meta{}
	}

	return c.JSON(CollectionsResponse{Count: len(metas), Collections: metas})
}

// handleGetCollection returns a collection's metadata and image ids.
func (s *Server) handleGetCollection(c *fiber.Ctx) error {
	var resp CollectionResponse
	err := s.manager.View(c.Context(), c.Params("name"), func(col *collection.Collection) error {
		resp.Meta = col.Meta
		resp.Meta.Count = col.Index.Len()
		entries := col.Index.Entries()
		resp.Images = make([]string, len(entries))
		for i, e := range entries {
			resp.Images[i] = e.ID
		}
		return nil
	})
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(resp)
}

// handleSearchColor handles GET /v1/collections/:name/search requests.
// Query parameters:
//   - color (required): "#rrggbb", "#rgb" or "r,g,b"
//   - top_k (optional, default 5): number of results, or "all"
func (s *Server) handleSearchColor(c *fiber.Ctx) error {
	color := c.Query("color")
	if color == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "color parameter is required"})
	}

	topK, err := parseTopK(c.Query("top_k"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	output, err := apisearch.Search(c.Context(), s.manager, s.extractor, apisearch.Input{
		Collection: c.Params("name"),
		Color:      color,
		TopK:       topK,
	}, s.logger)
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(output)
}

// handleSearchImage handles POST /v1/collections/:name/search requests with
// a multipart "image" file and an optional "top_k" form value.
func (s *Server) handleSearchImage(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "image file is required"})
	}

	topK, err := parseTopK(c.FormValue("top_k"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "could not read image"})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "could not read image"})
	}

	output, err := apisearch.Search(c.Context(), s.manager, s.extractor, apisearch.Input{
		Collection: c.Params("name"),
		Image:      data,
		TopK:       topK,
	}, s.logger)
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(output)
}

// handleSimilar handles GET /v1/collections/:name/similar?id=&top_k=.
func (s *Server) handleSimilar(c *fiber.Ctx) error {
	id := c.Query("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter is required"})
	}

	topK, err := parseTopK(c.Query("top_k"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	output, err := apisearch.Similar(c.Context(), s.manager, c.Params("name"), id, topK, s.logger)
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(output)
}

// parseTopK accepts an empty value (default), a positive integer or "all".
func parseTopK(v string) (int, error) {
	switch strings.ToLower(v) {
	case "":
		return apisearch.DefaultTopK, nil
	case "all":
		return apisearch.All, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, errors.New(`top_k must be a positive integer or "all"`)
	}
	return n, nil
}

// errorResponse maps domain errors onto HTTP status codes.
func (s *Server) errorResponse(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.As(err, new(storage.NotFoundError)), errors.Is(err, index.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, apisearch.ErrInvalidQuery),
		errors.Is(err, swatch.ErrInvalidColor),
		errors.Is(err, decode.ErrDecode),
		errors.Is(err, extract.ErrUnsupportedFormat),
		errors.Is(err, extract.ErrEmptyImage),
		errors.Is(err, storage.ErrInvalidName):
		status = fiber.StatusBadRequest
	default:
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}

	return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
}
