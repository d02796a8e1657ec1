package collectioncmder

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/hues/pkg/cliui"
	"github.com/papercomputeco/hues/pkg/ingest"
)

func newThumbnailCmd() *cobra.Command {
	opts := &storageOptions{}

	cmd := &cobra.Command{
		Use:   "thumbnail <name> <image>",
		Short: "Set the image shown for a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[1]); err != nil {
				return fmt.Errorf("reading thumbnail: %w", err)
			}

			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			path := ingest.ImageID(args[1])
			if err := ws.Manager.SetThumbnail(cmd.Context(), args[0], path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "  %s Thumbnail of %s set to %s\n",
				cliui.SuccessMark,
				cliui.KeyStyle.Render(args[0]),
				cliui.ValueStyle.Render(path),
			)
			return nil
		},
	}

	opts.register(cmd)
	return cmd
}
