package config

import (
	"github.com/papercomputeco/hues/pkg/extract"
	"github.com/papercomputeco/hues/pkg/swatch"
)

const (
	defaultStorageProvider = "json"
	defaultAPIListen       = ":8081"
	defaultClientAPITarget = "http://localhost:8081"
	defaultIngestWorkers   = 4

	defaultEventsProvider = "nop"
	defaultEventsBrokers  = "localhost:9092"
	defaultEventsTopic    = "hues.fingerprints"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		Extract: ExtractConfig{
			PaletteSize:       extract.DefaultPaletteSize,
			MaxColors:         extract.DefaultMaxColors,
			SignificanceRatio: extract.DefaultSignificanceRatio,
			MinSeparation:     extract.DefaultMinSeparation,
			ScaleSize:         extract.DefaultScaleSize,
			HueWeight:         swatch.DefaultHueWeight,
		},
		Ingest: IngestConfig{
			Workers: defaultIngestWorkers,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Brokers:  defaultEventsBrokers,
			Topic:    defaultEventsTopic,
		},
	}
}
