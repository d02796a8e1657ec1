package collectioncmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/hues/pkg/cliui"
)

func newDeleteCmd() *cobra.Command {
	opts := &storageOptions{}

	cmd := &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a collection",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := ws.Manager.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "  %s Deleted %s\n", cliui.SuccessMark, cliui.KeyStyle.Render(args[0]))
			return nil
		},
	}

	opts.register(cmd)
	return cmd
}
