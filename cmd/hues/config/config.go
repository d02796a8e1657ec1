// Package configcmder provides the config command for managing persistent
// hues configuration stored in the .hues/ directory.
package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/hues/pkg/config"
)

const configLongDesc string = `Manage persistent hues configuration.

Configuration is stored as config.toml in the .hues/ directory and provides
default values for command flags. CLI flags and HUES_* environment variables
always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  storage.provider, storage.path, storage.postgres_dsn,
  storage.qdrant_target, storage.qdrant_api_key,
  extract.palette_size, extract.max_colors, extract.significance_ratio,
  extract.min_separation, extract.scale_size, extract.hue_weight,
  ingest.workers, api.listen, client.api_target,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  hues config set <key> <value>    Set a configuration value
  hues config get <key>            Get a configuration value
  hues config list                 List all configuration values

Examples:
  hues config set storage.provider sqlite
  hues config set extract.max_colors 6
  hues config get storage.provider
  hues config list`

const configShortDesc string = "Manage persistent hues configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}
