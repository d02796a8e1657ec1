package config

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --storage
// on "hues index", "hues search" and "hues serve").
type Flag struct {
	// Name is the long flag name (e.g. "storage").
	Name string

	// Shorthand is the one-letter short flag (e.g. "s"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "storage.provider").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagStorageProvider = "storage"
	FlagStoragePath     = "storage-path"
	FlagPostgresDSN     = "postgres-dsn"
	FlagQdrantTarget    = "qdrant-target"
	FlagWorkers         = "workers"
	FlagMaxColors       = "max-colors"
	FlagHueWeight       = "hue-weight"
	FlagAPIListen       = "listen"
	FlagAPITarget       = "api-target"
	FlagEventsProvider  = "events"
	FlagEventsBrokers   = "kafka-brokers"
	FlagEventsTopic     = "kafka-topic"
)

// Flags is the registry shared by every hues command.
var Flags = FlagSet{
	FlagStorageProvider: {Name: "storage", ViperKey: "storage.provider", Description: "Storage provider (json, sqlite, postgres, qdrant, memory)"},
	FlagStoragePath:     {Name: "storage-path", ViperKey: "storage.path", Description: "Collections directory (json) or database file (sqlite)"},
	FlagPostgresDSN:     {Name: "postgres-dsn", ViperKey: "storage.postgres_dsn", Description: "PostgreSQL connection string"},
	FlagQdrantTarget:    {Name: "qdrant-target", ViperKey: "storage.qdrant_target", Description: "Qdrant gRPC address (host:port)"},
	FlagWorkers:         {Name: "workers", Shorthand: "w", ViperKey: "ingest.workers", Description: "Number of concurrent extraction workers"},
	FlagMaxColors:       {Name: "max-colors", ViperKey: "extract.max_colors", Description: "Maximum colors per fingerprint"},
	FlagHueWeight:       {Name: "hue-weight", ViperKey: "extract.hue_weight", Description: "Weight of the hue penalty in color distance"},
	FlagAPIListen:       {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for API server to listen on"},
	FlagAPITarget:       {Name: "api-target", ViperKey: "client.api_target", Description: "Query a running hues API server instead of local storage"},
	FlagEventsProvider:  {Name: "events", ViperKey: "events.provider", Description: "Event publisher (nop, kafka)"},
	FlagEventsBrokers:   {Name: "kafka-brokers", ViperKey: "events.brokers", Description: "Comma-separated kafka broker addresses"},
	FlagEventsTopic:     {Name: "kafka-topic", ViperKey: "events.topic", Description: "Kafka topic for indexed-fingerprint events"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddFloat64Flag registers a float64 flag on cmd from the given FlagSet.
func AddFloat64Flag(cmd *cobra.Command, fs FlagSet, registryKey string, target *float64) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultFloat64(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().Float64VarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().Float64Var(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	n, _ := strconv.ParseUint(defaultString(viperKey), 10, 64)
	return uint(n)
}

// defaultFloat64 returns the default float64 value for a viper key from NewDefaultConfig.
func defaultFloat64(viperKey string) float64 {
	f, _ := strconv.ParseFloat(defaultString(viperKey), 64)
	return f
}
