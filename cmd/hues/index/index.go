// Package indexcmder provides the index command, which fingerprints a folder
// of images into a collection and optionally keeps watching it.
package indexcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/hues/cmd/hues/workspace"
	"github.com/papercomputeco/hues/pkg/cliui"
	"github.com/papercomputeco/hues/pkg/collection"
	"github.com/papercomputeco/hues/pkg/config"
	"github.com/papercomputeco/hues/pkg/eventstream"
	"github.com/papercomputeco/hues/pkg/ingest"
	"github.com/papercomputeco/hues/pkg/ingest/worker"
	"github.com/papercomputeco/hues/pkg/utils"
)

type indexCommander struct {
	folder     string
	collection string
	recursive  bool
	watch      bool
	force      bool

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

	out    io.Writer
	logger *slog.Logger
}

var indexFlags = []string{
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

const indexLongDesc string = `Index a folder of images into a collection.

Every image in the folder is decoded and reduced to a color fingerprint of
its dominant colors. Extraction runs in parallel; images are inserted in
path order so repeated runs build the same index. Images that cannot be
decoded are reported and skipped.

Images already in the collection are skipped unless --force is given.

With --watch, hues keeps running after the initial pass and indexes images
as they are created or modified in the folder, saving after each one.

The collection defaults to the folder name.

Examples:
  hues index ~/Pictures/trips
  hues index ~/Pictures --collection all --recursive
  hues index ./inbox --collection inbox --watch
  hues index ./shots --storage sqlite --workers 8`

const indexShortDesc string = "Index a folder of images"

func NewIndexCmd() *cobra.Command {
	cmder := &indexCommander{}

	cmd := &cobra.Command{
		Use:   "index <folder>",
		Short: indexShortDesc,
		Long:  indexLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.folder = args[0]
			cmder.out = cmd.OutOrStdout()
			cmder.logger = workspace.NewLogger(cmd, cmd.ErrOrStderr())

			cfg, configDir, err := workspace.LoadConfig(cmd, indexFlags...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return cmder.run(ctx, cfg, configDir)
		},
	}

	cmd.Flags().StringVarP(&cmder.collection, "collection", "c", "", "Collection to index into (default: folder name)")
	cmd.Flags().BoolVarP(&cmder.recursive, "recursive", "r", false, "Include images in subfolders")
	cmd.Flags().BoolVar(&cmder.watch, "watch", false, "Keep indexing new and modified images until interrupted")
	cmd.Flags().BoolVarP(&cmder.force, "force", "f", false, "Re-extract images that are already indexed")

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

	return cmd
}

func (c *indexCommander) run(ctx context.Context, cfg *config.Config, configDir string) error {
	info, err := os.Stat(c.folder)
	if err != nil {
		return fmt.Errorf("reading folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a folder", c.folder)
	}

	if c.collection == "" {
		abs, err := filepath.Abs(c.folder)
		if err != nil {
			return err
		}
		c.collection = filepath.Base(abs)
	}

	ws, err := workspace.Open(ctx, cfg, configDir, c.logger)
	if err != nil {
		return err
	}
	defer ws.Close()

	publisher, err := ws.NewPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	files, err := ingest.Files(c.folder, c.recursive)
	if err != nil {
		return err
	}

	ingester := ingest.New(ingest.Config{
		Manager:      ws.Manager,
		Extractor:    ws.Extractor,
		Publisher:    publisher,
		Workers:      int(cfg.Ingest.Workers),
		SkipExisting: !c.force,
		Logger:       c.logger,
	})

	var report *ingest.Report
	msg := fmt.Sprintf("Indexing %d images into %s", len(files), cliui.KeyStyle.Render(c.collection))
	err = cliui.Step(c.out, msg, func() error {
		var err error
		report, err = ingester.Run(ctx, c.collection, files)
		if err != nil {
			return err
		}
		return ws.Manager.Save(ctx, c.collection)
	})
	if err != nil {
		return err
	}

	if err := c.ensureThumbnail(ctx, ws.Manager, report); err != nil {
		return err
	}

	c.printReport(report)

	if !c.watch {
		return nil
	}
	return c.runWatch(ctx, ws, publisher, cfg.Ingest.Workers)
}

// ensureThumbnail gives a collection without one its first indexed image.
func (c *indexCommander) ensureThumbnail(ctx context.Context, manager *collection.Manager, report *ingest.Report) error {
	if len(report.Indexed) == 0 {
		return nil
	}

	var current string
	err := manager.View(ctx, c.collection, func(col *collection.Collection) error {
		current = col.Meta.Thumbnail
		return nil
	})
	if err != nil || current != "" {
		return err
	}
	return manager.SetThumbnail(ctx, c.collection, ingest.ImageID(report.Indexed[0]))
}

func (c *indexCommander) printReport(report *ingest.Report) {
	fmt.Fprintf(c.out, "\n  %s %s  %s %s  %s %s\n",
		cliui.KeyStyle.Render("indexed"), cliui.ValueStyle.Render(fmt.Sprint(len(report.Indexed))),
		cliui.KeyStyle.Render("skipped"), cliui.ValueStyle.Render(fmt.Sprint(len(report.Skipped))),
		cliui.KeyStyle.Render("failed"), cliui.ValueStyle.Render(fmt.Sprint(len(report.Failed))),
	)

	for _, f := range report.Failed {
		fmt.Fprintf(c.out, "  %s %s %s\n",
			cliui.FailMark,
			utils.TruncateLeft(f.Path, 60),
			cliui.DimStyle.Render(f.Err.Error()),
		)
	}
	fmt.Fprintln(c.out)
}

func (c *indexCommander) runWatch(ctx context.Context, ws *workspace.Workspace, publisher eventstream.Publisher, workers uint) error {
	pool, err := worker.NewPool(&worker.Config{
		Manager:    ws.Manager,
		Extractor:  ws.Extractor,
		Publisher:  publisher,
		AutoSave:   true,
		NumWorkers: workers,
		OnResult: func(job worker.Job, err error) {
			fmt.Fprintf(c.out, "  %s %s\n", cliui.Mark(err), utils.TruncateLeft(job.Path, 72))
		},
		Logger: c.logger,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("Watching "+c.folder+" for new images. Press Ctrl+C to stop."))

	err = ingest.Watch(ctx, c.folder, c.recursive, func(path string) {
		pool.Enqueue(worker.Job{Collection: c.collection, Path: path})
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
