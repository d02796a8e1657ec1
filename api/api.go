package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/hues/api/mcp"
	"github.com/papercomputeco/hues/pkg/collection"
	"github.com/papercomputeco/hues/pkg/extract"
)

const defaultMaxUploadBytes = 32 << 20

// Server is the API server for browsing and searching hues collections.
type Server struct {
	config    Config
	manager   *collection.Manager
	extractor *extract.Extractor
	logger    *slog.Logger
	app       *fiber.App
}

// NewServer creates a new API server.
// The manager is injected to allow sharing with other components
// (e.g., a folder watcher indexing into the same collections).
func NewServer(config Config, manager *collection.Manager, extractor *extract.Extractor, logger *slog.Logger) (*Server, error) {
	if manager == nil {
		return nil, errors.New("collection manager is required")
	}
	if extractor == nil {
		return nil, errors.New("extractor is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = defaultMaxUploadBytes
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		UnescapePath:          true,
		BodyLimit:             config.MaxUploadBytes,
	})

	s := &Server{
		config:    config,
		manager:   manager,
		extractor: extractor,
		logger:    logger,
		app:       app,
	}

	app.Get("/ping", s.handlePing)

	v1 := app.Group("/v1")
	v1.Get("/collections", s.handleListCollections)
	v1.Get("/collections/:name", s.handleGetCollection)
	v1.Get("/collections/:name/search", s.handleSearchColor)
	v1.Post("/collections/:name/search", s.handleSearchImage)
	v1.Get("/collections/:name/similar", s.handleSimilar)

	if !config.DisableMCP {
		mcpServer, err := mcp.NewServer(mcp.Config{
			Manager:   manager,
			Extractor: extractor,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
		app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
