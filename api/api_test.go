package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apisearch "github.com/papercomputeco/hues/api/search"
	"github.com/papercomputeco/hues/pkg/collection"
	"github.com/papercomputeco/hues/pkg/extract"
	hueslogger "github.com/papercomputeco/hues/pkg/logger"
	"github.com/papercomputeco/hues/pkg/storage/inmemory"
	"github.com/papercomputeco/hues/pkg/swatch"
)

func solidPNG(c color.Color) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := range 16 {
		for x := range 16 {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	Expect(png.Encode(&buf, img)).To(Succeed())
	return buf.Bytes()
}

func decodeBody[T any](resp *http.Response) T {
	var out T
	body, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	Expect(json.Unmarshal(body, &out)).To(Succeed())
	return out
}

var _ = Describe("Server", func() {
	var (
		server    *Server
		manager   *collection.Manager
		extractor *extract.Extractor
		ctx       context.Context
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		manager = collection.NewManager(inmemory.NewDriver(), swatch.DefaultMetric, hueslogger.Nop())
		extractor, err = extract.NewExtractor(extract.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())

		server, err = NewServer(Config{ListenAddr: ":0"}, manager, extractor, hueslogger.Nop())
		Expect(err).NotTo(HaveOccurred())

		Expect(manager.Do(ctx, "swatches", func(c *collection.Collection) error {
			Expect(c.Insert("red", swatch.Solid(swatch.Color{R: 255}))).To(Succeed())
			Expect(c.Insert("blue", swatch.Solid(swatch.Color{B: 255}))).To(Succeed())
			Expect(c.Insert("navy", swatch.Solid(swatch.Color{B: 128}))).To(Succeed())
			return nil
		})).To(Succeed())
	})

	get := func(target string) *http.Response {
		req, err := http.NewRequest(http.MethodGet, target, nil)
		Expect(err).NotTo(HaveOccurred())
		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	Describe("NewServer", func() {
		It("requires a manager", func() {
			_, err := NewServer(Config{}, nil, extractor, hueslogger.Nop())
			Expect(err).To(MatchError(ContainSubstring("collection manager is required")))
		})

		It("requires an extractor", func() {
			_, err := NewServer(Config{}, manager, nil, hueslogger.Nop())
			Expect(err).To(MatchError(ContainSubstring("extractor is required")))
		})

		It("requires a logger", func() {
			_, err := NewServer(Config{}, manager, extractor, nil)
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("defaults the upload limit", func() {
			Expect(server.config.MaxUploadBytes).To(Equal(defaultMaxUploadBytes))
		})
	})

	Describe("GET /ping", func() {
		It("returns pong", func() {
			resp := get("/ping")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(decodeBody[string](resp)).To(Equal("pong"))
		})
	})

	Describe("GET /v1/collections", func() {
		It("lists collections", func() {
			resp := get("/v1/collections")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			out := decodeBody[CollectionsResponse](resp)
			Expect(out.Count).To(Equal(1))
			Expect(out.Collections[0].Name).To(Equal("swatches"))
		})
	})

	Describe("GET /v1/collections/:name", func() {
		It("returns the image ids in insertion order", func() {
			resp := get("/v1/collections/swatches")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			out := decodeBody[CollectionResponse](resp)
			Expect(out.Name).To(Equal("swatches"))
			Expect(out.Count).To(Equal(3))
			Expect(out.Images).To(Equal([]string{"red", "blue", "navy"}))
		})

		It("returns 404 for an unknown collection", func() {
			resp := get("/v1/collections/missing")
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
			Expect(decodeBody[ErrorResponse](resp).Error).To(ContainSubstring("collection not found"))
		})
	})

	Describe("GET /v1/collections/:name/search", func() {
		It("ranks images by color", func() {
			resp := get("/v1/collections/swatches/search?color=%23ff0000&top_k=2")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			out := decodeBody[apisearch.Output](resp)
			Expect(out.Collection).To(Equal("swatches"))
			Expect(out.Count).To(Equal(2))
			Expect(out.Results[0].ID).To(Equal("red"))
			Expect(out.Results[0].Rank).To(Equal(1))
			Expect(out.Results[0].Distance).To(BeNumerically("~", 0, 1e-9))
		})

		It("returns every entry for top_k=all", func() {
			resp := get("/v1/collections/swatches/search?color=0,0,200&top_k=all")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			out := decodeBody[apisearch.Output](resp)
			Expect(out.Count).To(Equal(3))
			Expect(out.Results[2].ID).To(Equal("red"))
		})

		It("returns 400 without a color", func() {
			resp := get("/v1/collections/swatches/search")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			Expect(decodeBody[ErrorResponse](resp).Error).To(ContainSubstring("color parameter is required"))
		})

		It("returns 400 for a malformed color", func() {
			resp := get("/v1/collections/swatches/search?color=chartreuse")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("returns 400 for an invalid top_k", func() {
			resp := get("/v1/collections/swatches/search?color=%23fff&top_k=-3")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			Expect(decodeBody[ErrorResponse](resp).Error).To(ContainSubstring("top_k must be a positive integer"))
		})

		It("returns 404 for an unknown collection", func() {
			resp := get("/v1/collections/missing/search?color=%23fff")
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})

	Describe("POST /v1/collections/:name/search", func() {
		upload := func(data []byte, topK string) *http.Response {
			var body bytes.Buffer
			w := multipart.NewWriter(&body)
			if data != nil {
				part, err := w.CreateFormFile("image", "query.png")
				Expect(err).NotTo(HaveOccurred())
				_, err = part.Write(data)
				Expect(err).NotTo(HaveOccurred())
			}
			if topK != "" {
				Expect(w.WriteField("top_k", topK)).To(Succeed())
			}
			Expect(w.Close()).To(Succeed())

			req, err := http.NewRequest(http.MethodPost, "/v1/collections/swatches/search", &body)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", w.FormDataContentType())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			return resp
		}

		It("ranks images against an uploaded image", func() {
			resp := upload(solidPNG(color.NRGBA{R: 250, A: 255}), "1")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			out := decodeBody[apisearch.Output](resp)
			Expect(out.Count).To(Equal(1))
			Expect(out.Results[0].ID).To(Equal("red"))
			Expect(out.Query).NotTo(BeEmpty())
		})

		It("returns 400 without an image", func() {
			resp := upload(nil, "")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			Expect(decodeBody[ErrorResponse](resp).Error).To(ContainSubstring("image file is required"))
		})

		It("returns 400 for bytes that are not an image", func() {
			resp := upload([]byte("not an image"), "")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("GET /v1/collections/:name/similar", func() {
		It("ranks the other images", func() {
			resp := get("/v1/collections/swatches/similar?id=blue&top_k=all")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			out := decodeBody[apisearch.Output](resp)
			Expect(out.Count).To(Equal(2))
			Expect(out.Results[0].ID).To(Equal("navy"))
			Expect(out.Results[1].ID).To(Equal("red"))
		})

		It("returns 400 without an id", func() {
			resp := get("/v1/collections/swatches/similar")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("returns 404 for an unknown id", func() {
			resp := get("/v1/collections/swatches/similar?id=green")
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})

	Describe("/mcp", func() {
		It("is mounted by default", func() {
			resp := get("/mcp")
			Expect(resp.StatusCode).NotTo(Equal(fiber.StatusNotFound))
		})

		It("is absent when disabled", func() {
			noMCP, err := NewServer(Config{DisableMCP: true}, manager, extractor, hueslogger.Nop())
			Expect(err).NotTo(HaveOccurred())

			req, err := http.NewRequest(http.MethodGet, "/mcp", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := noMCP.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})
})
