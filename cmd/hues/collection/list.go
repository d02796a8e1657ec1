package collectioncmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/hues/pkg/cliui"
	"github.com/papercomputeco/hues/pkg/utils"
)

func newListCmd() *cobra.Command {
	opts := &storageOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			metas, err := ws.Manager.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(metas) == 0 {
				fmt.Fprintf(out, "  %s\n", cliui.DimStyle.Render("No collections yet. Create one with: hues index <folder>"))
				return nil
			}

			width := 0
			for _, m := range metas {
				width = max(width, len(m.Name))
			}

			for _, m := range metas {
				fmt.Fprintf(out, "  %s  %s  %s\n",
					cliui.KeyStyle.Render(fmt.Sprintf("%-*s", width, m.Name)),
					cliui.ValueStyle.Render(fmt.Sprintf("%6d images", m.Count)),
					cliui.DimStyle.Render(utils.TruncateLeft(m.Thumbnail, 48)),
				)
			}
			return nil
		},
	}

	opts.register(cmd)
	return cmd
}
