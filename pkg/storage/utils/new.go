package storageutils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/hues/pkg/config"
	"github.com/papercomputeco/hues/pkg/dotdir"
	"github.com/papercomputeco/hues/pkg/storage"
	"github.com/papercomputeco/hues/pkg/storage/inmemory"
	"github.com/papercomputeco/hues/pkg/storage/jsonfile"
	"github.com/papercomputeco/hues/pkg/storage/postgres"
	"github.com/papercomputeco/hues/pkg/storage/qdrant"
	"github.com/papercomputeco/hues/pkg/storage/sqlite"
)

type NewStorageDriverOpts struct {
	ProviderType string
	Path         string
	PostgresDSN  string
	QdrantTarget string
	QdrantAPIKey string
	Logger       *slog.Logger
}

// OptsFromConfig builds driver options from the storage section. An empty
// path for the local providers is resolved inside the .hues/ directory
// (configDir overrides its location).
func OptsFromConfig(c config.StorageConfig, configDir string, logger *slog.Logger) (*NewStorageDriverOpts, error) {
	o := &NewStorageDriverOpts{
		ProviderType: c.Provider,
		Path:         c.Path,
		PostgresDSN:  c.PostgresDSN,
		QdrantTarget: c.QdrantTarget,
		QdrantAPIKey: c.QdrantAPIKey,
		Logger:       logger,
	}

	if o.Path != "" {
		return o, nil
	}

	var err error
	ddm := dotdir.NewManager()
	switch o.ProviderType {
	case "json":
		o.Path, err = ddm.CollectionsDir(configDir)
	case "sqlite":
		o.Path, err = ddm.DatabasePath(configDir)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving storage path: %w", err)
	}
	return o, nil
}

func NewStorageDriver(ctx context.Context, o *NewStorageDriverOpts) (storage.Driver, error) {
	switch o.ProviderType {
	case "memory":
		o.Logger.Info("using in-memory storage")
		return inmemory.NewDriver(), nil

	case "json":
		if o.Path == "" {
			return nil, errors.New("json storage requires a path")
		}
		o.Logger.Info("using json storage", "path", o.Path)
		return jsonfile.NewDriver(o.Path)

	case "sqlite":
		if o.Path == "" {
			return nil, errors.New("sqlite storage requires a path")
		}
		driver, err := sqlite.NewSQLiteDriver(o.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storer: %w", err)
		}
		o.Logger.Info("using SQLite storage", "path", o.Path)
		return driver, nil

	case "postgres":
		if o.PostgresDSN == "" {
			return nil, errors.New("postgres storage requires a connection string")
		}
		driver, err := postgres.NewDriver(ctx, o.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL storer: %w", err)
		}
		o.Logger.Info("using PostgreSQL storage")
		return driver, nil

	case "qdrant":
		driver, err := qdrant.NewDriver(qdrant.Config{
			Target: o.QdrantTarget,
			APIKey: o.QdrantAPIKey,
		}, o.Logger)
		if err != nil {
			return nil, err
		}
		o.Logger.Info("using Qdrant storage", "target", o.QdrantTarget)
		return driver, nil

	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", o.ProviderType)
	}
}
