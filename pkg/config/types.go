package config

import (
	"fmt"
	"strconv"

	"github.com/papercomputeco/hues/pkg/extract"
	"github.com/papercomputeco/hues/pkg/swatch"
)

// Config represents the persistent hues configuration stored as config.toml
// in the .hues/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int           `toml:"version"`
	Storage StorageConfig `toml:"storage"`
	Extract ExtractConfig `toml:"extract"`
	Ingest  IngestConfig  `toml:"ingest"`
	API     APIConfig     `toml:"api"`
	Client  ClientConfig  `toml:"client"`
	Events  EventsConfig  `toml:"events"`
}

// StorageConfig selects where collections are persisted.
type StorageConfig struct {
	// Provider is one of json, sqlite, postgres, qdrant or memory.
	Provider string `toml:"provider,omitempty"`

	// Path is the collections directory (json) or database file (sqlite).
	// Empty means a location inside the .hues/ directory.
	Path string `toml:"path,omitempty"`

	PostgresDSN  string `toml:"postgres_dsn,omitempty"`
	QdrantTarget string `toml:"qdrant_target,omitempty"`
	QdrantAPIKey string `toml:"qdrant_api_key,omitempty"`
}

// ExtractConfig holds fingerprint extraction and distance tuning. Zero
// values fall back to the defaults.
type ExtractConfig struct {
	PaletteSize       uint    `toml:"palette_size,omitempty"`
	MaxColors         uint    `toml:"max_colors,omitempty"`
	SignificanceRatio float64 `toml:"significance_ratio,omitempty"`
	MinSeparation     float64 `toml:"min_separation,omitempty"`
	ScaleSize         uint    `toml:"scale_size,omitempty"`
	HueWeight         float64 `toml:"hue_weight,omitempty"`
}

// Metric returns the distance metric configured by HueWeight.
func (e ExtractConfig) Metric() swatch.Metric {
	return swatch.Metric{HueWeight: e.HueWeight}
}

// ExtractorConfig converts the section into an extract.Config.
func (e ExtractConfig) ExtractorConfig() extract.Config {
	return extract.Config{
		PaletteSize:       int(e.PaletteSize),
		MaxColors:         int(e.MaxColors),
		SignificanceRatio: e.SignificanceRatio,
		MinSeparation:     e.MinSeparation,
		ScaleSize:         int(e.ScaleSize),
		Metric:            e.Metric(),
	}
}

// IngestConfig holds folder indexing settings.
type IngestConfig struct {
	Workers uint `toml:"workers,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// API server (e.g. hues search --api-target). Values are full URLs.
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// EventsConfig selects where indexed-fingerprint events are published.
type EventsConfig struct {
	// Provider is nop or kafka.
	Provider string `toml:"provider,omitempty"`

	// Brokers is a comma-separated list of kafka broker addresses.
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

func floatKey(name string, field func(c *Config) *float64) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatFloat(*field(c), 'g', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			if f < 0 {
				return fmt.Errorf("invalid value for %s: must not be negative", name)
			}
			*field(c) = f
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.provider":       stringKey(func(c *Config) *string { return &c.Storage.Provider }),
	"storage.path":           stringKey(func(c *Config) *string { return &c.Storage.Path }),
	"storage.postgres_dsn":   stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),
	"storage.qdrant_target":  stringKey(func(c *Config) *string { return &c.Storage.QdrantTarget }),
	"storage.qdrant_api_key": stringKey(func(c *Config) *string { return &c.Storage.QdrantAPIKey }),

	"extract.palette_size":       uintKey("extract.palette_size", func(c *Config) *uint { return &c.Extract.PaletteSize }),
	"extract.max_colors":         uintKey("extract.max_colors", func(c *Config) *uint { return &c.Extract.MaxColors }),
	"extract.significance_ratio": floatKey("extract.significance_ratio", func(c *Config) *float64 { return &c.Extract.SignificanceRatio }),
	"extract.min_separation":     floatKey("extract.min_separation", func(c *Config) *float64 { return &c.Extract.MinSeparation }),
	"extract.scale_size":         uintKey("extract.scale_size", func(c *Config) *uint { return &c.Extract.ScaleSize }),
	"extract.hue_weight":         floatKey("extract.hue_weight", func(c *Config) *float64 { return &c.Extract.HueWeight }),

	"ingest.workers": uintKey("ingest.workers", func(c *Config) *uint { return &c.Ingest.Workers }),

	"api.listen":        stringKey(func(c *Config) *string { return &c.API.Listen }),
	"client.api_target": stringKey(func(c *Config) *string { return &c.Client.APITarget }),

	"events.provider": stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers":  stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":    stringKey(func(c *Config) *string { return &c.Events.Topic }),
}

// orderedKeys lists configKeys in the TOML section layout order.
var orderedKeys = []string{
	"storage.provider",
	"storage.path",
	"storage.postgres_dsn",
	"storage.qdrant_target",
	"storage.qdrant_api_key",
	"extract.palette_size",
	"extract.max_colors",
	"extract.significance_ratio",
	"extract.min_separation",
	"extract.scale_size",
	"extract.hue_weight",
	"ingest.workers",
	"api.listen",
	"client.api_target",
	"events.provider",
	"events.brokers",
	"events.topic",
}
