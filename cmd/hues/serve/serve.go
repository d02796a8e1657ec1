// Package servecmder provides the serve command, which runs the hues HTTP API
// and MCP server over the configured storage.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/hues/api"
	"github.com/papercomputeco/hues/cmd/hues/workspace"
	"github.com/papercomputeco/hues/pkg/config"
	"github.com/papercomputeco/hues/pkg/ingest"
	"github.com/papercomputeco/hues/pkg/ingest/worker"
	"github.com/papercomputeco/hues/pkg/logger"
)

type ServeCommander struct {
	listen          string
	storageProvider string
	storagePath     string
	postgresDSN     string
	qdrantTarget    string
	workers         uint
	maxColors       uint
	hueWeight       float64
	eventsProvider  string
	kafkaBrokers    string
	kafkaTopic      string

	watchDir   string
	collection string
	recursive  bool
	noMCP      bool
	logFile    string

	logger *slog.Logger
}

var serveFlags = []string{
	config.FlagAPIListen,
	config.FlagStorageProvider,
	config.FlagStoragePath,
	config.FlagPostgresDSN,
	config.FlagQdrantTarget,
	config.FlagWorkers,
	config.FlagMaxColors,
	config.FlagHueWeight,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
	config.FlagEventsTopic,
}

const serveLongDesc string = `Run the hues API server.

Serves the collections of the configured storage over HTTP:
  GET  /v1/collections                   List collections
  GET  /v1/collections/:name             Show a collection
  GET  /v1/collections/:name/search      Search by ?color=
  POST /v1/collections/:name/search      Search by uploaded image
  GET  /v1/collections/:name/similar     Images similar to ?id=
  /mcp                                   MCP server with the color_search tool

With --watch, a folder is indexed into --collection in the background while
the server runs, so new images become searchable as they arrive.

Examples:
  hues serve
  hues serve --listen :9000 --storage sqlite
  hues serve --watch ~/Pictures/inbox --collection inbox --log-file hues.log`

const serveShortDesc string = "Run the hues API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmder.watchDir != "" && cmder.collection == "" {
				cmder.collection = filepath.Base(filepath.Clean(cmder.watchDir))
			}

			cfg, configDir, err := workspace.LoadConfig(cmd, serveFlags...)
			if err != nil {
				return err
			}

			log, closeLog, err := cmder.newLogger(cmd)
			if err != nil {
				return err
			}
			defer closeLog()
			cmder.logger = log

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return cmder.run(ctx, cfg, configDir)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageProvider, &cmder.storageProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagStoragePath, &cmder.storagePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagQdrantTarget, &cmder.qdrantTarget)
	config.AddUintFlag(cmd, config.Flags, config.FlagWorkers, &cmder.workers)
	config.AddUintFlag(cmd, config.Flags, config.FlagMaxColors, &cmder.maxColors)
	config.AddFloat64Flag(cmd, config.Flags, config.FlagHueWeight, &cmder.hueWeight)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsTopic, &cmder.kafkaTopic)

	cmd.Flags().StringVar(&cmder.watchDir, "watch", "", "Folder to index in the background while serving")
	cmd.Flags().StringVarP(&cmder.collection, "collection", "c", "", "Collection for --watch (default: folder name)")
	cmd.Flags().BoolVarP(&cmder.recursive, "recursive", "r", false, "Watch subfolders too")
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Do not mount the MCP server at /mcp")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")

	return cmd
}

// newLogger returns the stderr logger, fanned out to a JSON log file when
// --log-file is set.
func (c *ServeCommander) newLogger(cmd *cobra.Command) (*slog.Logger, func(), error) {
	console := workspace.NewLogger(cmd, cmd.ErrOrStderr())
	if c.logFile == "" {
		return console, func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	debug, _ := cmd.Flags().GetBool("debug")
	file := logger.New(logger.WithJSON(true), logger.WithDebug(debug), logger.WithWriter(f))
	return logger.Multi(console, file), func() { _ = f.Close() }, nil
}

func (c *ServeCommander) run(ctx context.Context, cfg *config.Config, configDir string) error {
	ws, err := workspace.Open(ctx, cfg, configDir, c.logger)
	if err != nil {
		return err
	}
	defer ws.Close()

	server, err := api.NewServer(api.Config{
		ListenAddr: cfg.API.Listen,
		DisableMCP: c.noMCP,
	}, ws.Manager, ws.Extractor, c.logger)
	if err != nil {
		return err
	}

	// Channel to capture errors from goroutines
	errChan := make(chan error, 2)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	if c.watchDir != "" {
		publisher, err := ws.NewPublisher()
		if err != nil {
			return err
		}
		defer publisher.Close()

		pool, err := worker.NewPool(&worker.Config{
			Manager:    ws.Manager,
			Extractor:  ws.Extractor,
			Publisher:  publisher,
			AutoSave:   true,
			NumWorkers: cfg.Ingest.Workers,
			Logger:     c.logger,
		})
		if err != nil {
			return err
		}
		defer pool.Close()

		// The watcher must be gone before the pool closes.
		watchCtx, cancelWatch := context.WithCancel(ctx)
		var watching sync.WaitGroup
		defer func() {
			cancelWatch()
			watching.Wait()
		}()

		c.logger.Info("watching folder",
			"folder", c.watchDir,
			"collection", c.collection,
		)

		watching.Add(1)
		go func() {
			defer watching.Done()
			err := ingest.Watch(watchCtx, c.watchDir, c.recursive, func(path string) {
				pool.Enqueue(worker.Job{Collection: c.collection, Path: path})
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				errChan <- fmt.Errorf("folder watcher error: %w", err)
			}
		}()
	}

	select {
	case err := <-errChan:
		_ = server.Shutdown()
		return err
	case <-ctx.Done():
		c.logger.Info("shutting down")
	}

	if err := server.Shutdown(); err != nil {
		c.logger.Warn("API server shutdown failed", "error", err)
	}
	return ws.Manager.SaveAll(context.WithoutCancel(ctx))
}
