// Package workspace resolves what every hues command needs before it runs:
// the layered configuration, a logger, the storage driver and the collection
// manager on top of it.
package workspace

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/hues/pkg/collection"
	"github.com/papercomputeco/hues/pkg/config"
	"github.com/papercomputeco/hues/pkg/eventstream"
	eventstreamutils "github.com/papercomputeco/hues/pkg/eventstream/utils"
	"github.com/papercomputeco/hues/pkg/extract"
	"github.com/papercomputeco/hues/pkg/logger"
	"github.com/papercomputeco/hues/pkg/storage"
	storageutils "github.com/papercomputeco/hues/pkg/storage/utils"
)

// Workspace is an opened storage backend plus the components built on it.
type Workspace struct {
	Config    *config.Config
	ConfigDir string
	Logger    *slog.Logger
	Driver    storage.Driver
	Manager   *collection.Manager
	Extractor *extract.Extractor
}

// LoadConfig resolves the configuration for cmd: registered flags named by
// flagKeys, then HUES_* env vars, then config.toml, then defaults.
func LoadConfig(cmd *cobra.Command, flagKeys ...string) (*config.Config, string, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, flagKeys)

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	return cfg, configDir, nil
}

// NewLogger builds the colorized CLI logger writing to w. Debug output is
// enabled by the persistent --debug flag.
func NewLogger(cmd *cobra.Command, w io.Writer) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	return logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(true),
		logger.WithWriter(w),
	)
}

// Open connects to the configured storage backend.
func Open(ctx context.Context, cfg *config.Config, configDir string, log *slog.Logger) (*Workspace, error) {
	extractor, err := extract.NewExtractor(cfg.Extract.ExtractorConfig())
	if err != nil {
		return nil, fmt.Errorf("invalid extract config: %w", err)
	}

	opts, err := storageutils.OptsFromConfig(cfg.Storage, configDir, log)
	if err != nil {
		return nil, err
	}
	driver, err := storageutils.NewStorageDriver(ctx, opts)
	if err != nil {
		return nil, err
	}

	return &Workspace{
		Config:    cfg,
		ConfigDir: configDir,
		Logger:    log,
		Driver:    driver,
		Manager:   collection.NewManager(driver, cfg.Extract.Metric(), log),
		Extractor: extractor,
	}, nil
}

// NewPublisher creates the configured event publisher.
func (w *Workspace) NewPublisher() (eventstream.Publisher, error) {
	return eventstreamutils.NewPublisher(eventstreamutils.OptsFromConfig(w.Config.Events, w.Logger))
}

// Close releases the storage driver.
func (w *Workspace) Close() error {
	return w.Driver.Close()
}
