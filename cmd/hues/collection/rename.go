package collectioncmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/hues/pkg/cliui"
)

func newRenameCmd() *cobra.Command {
	opts := &storageOptions{}

	cmd := &cobra.Command{
		Use:   "rename <name> <new-name>",
		Short: "Rename a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := ws.Manager.Rename(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "  %s Renamed %s to %s\n",
				cliui.SuccessMark,
				cliui.KeyStyle.Render(args[0]),
				cliui.KeyStyle.Render(args[1]),
			)
			return nil
		},
	}

	opts.register(cmd)
	return cmd
}
