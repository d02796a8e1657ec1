// Package huescmder
package huescmder

import (
	"github.com/spf13/cobra"

	collectioncmder "github.com/papercomputeco/hues/cmd/hues/collection"
	configcmder "github.com/papercomputeco/hues/cmd/hues/config"
	indexcmder "github.com/papercomputeco/hues/cmd/hues/index"
	initcmder "github.com/papercomputeco/hues/cmd/hues/init"
	palettecmder "github.com/papercomputeco/hues/cmd/hues/palette"
	searchcmder "github.com/papercomputeco/hues/cmd/hues/search"
	servecmder "github.com/papercomputeco/hues/cmd/hues/serve"
	versioncmder "github.com/papercomputeco/hues/cmd/version"
)

const huesLongDesc string = `Hues indexes folders of images by their dominant colors and finds the
images that look closest to a color or to another image.

Get started:
  hues index ~/Pictures/trips --collection trips
  hues search --collection trips --color "#1e90ff"
  hues search --collection trips --image beach.jpg --top 10
  hues serve                Run the API and MCP server`

const huesShortDesc string = "Hues - color similarity search"

func NewHuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "hues",
		Short:        huesShortDesc,
		Long:         huesLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .hues/ directory")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(indexcmder.NewIndexCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(palettecmder.NewPaletteCmd())
	cmd.AddCommand(collectioncmder.NewCollectionCmd())
	cmd.AddCommand(servecmder.NewServeCmd())

	return cmd
}
