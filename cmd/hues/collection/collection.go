// Package collectioncmder provides the collection command for inspecting and
// managing stored collections.
package collectioncmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/hues/cmd/hues/workspace"
	"github.com/papercomputeco/hues/pkg/config"
)

const collectionLongDesc string = `Inspect and manage stored collections.

  hues collection list                      List collections
  hues collection show <name>               Show a collection and its images
  hues collection rename <name> <new-name>  Rename a collection
  hues collection delete <name>             Delete a collection
  hues collection thumbnail <name> <image>  Set the image shown for a collection`

const collectionShortDesc string = "Inspect and manage collections"

var storageFlags = []string{
	config.FlagStorageProvider,
	config.FlagStoragePath,
	config.FlagPostgresDSN,
	config.FlagQdrantTarget,
}

// storageOptions holds the flag targets shared by every subcommand.
type storageOptions struct {
	provider     string
	path         string
	postgresDSN  string
	qdrantTarget string
}

func (o *storageOptions) register(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageProvider, &o.provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagStoragePath, &o.path)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgresDSN, &o.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagQdrantTarget, &o.qdrantTarget)
}

func openWorkspace(cmd *cobra.Command) (*workspace.Workspace, error) {
	cfg, configDir, err := workspace.LoadConfig(cmd, storageFlags...)
	if err != nil {
		return nil, err
	}
	return workspace.Open(cmd.Context(), cfg, configDir, workspace.NewLogger(cmd, cmd.ErrOrStderr()))
}

func NewCollectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"collections"},
		Short:   collectionShortDesc,
		Long:    collectionLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newRenameCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newThumbnailCmd())

	return cmd
}
