// Package initcmder provides the init command for initializing a local .hues
// directory in the current working directory.
package initcmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/hues/pkg/cliui"
	"github.com/papercomputeco/hues/pkg/config"
)

const (
	dirName = ".hues"
)

const initLongDesc string = `Initialize a new .hues/ directory in the current working directory.

Creates a local .hues/ directory with a default config.toml. The local
directory takes precedence over ~/.hues/ for configuration and for the
collections stored by the json and sqlite providers.

This is useful for keeping separate collections per project or photo library.

Examples:
  hues init`

const initShortDesc string = "Initialize a local .hues/ directory"

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.OutOrStdout())
		},
	}

	return cmd
}

func runInit(out io.Writer) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Fprintf(out, "  %s %s\n", cliui.DimStyle.Render("Already initialized:"), dir)
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .hues directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if _, err := os.Stat(cfger.GetTarget()); errors.Is(err, os.ErrNotExist) {
		if err := cfger.SaveConfig(config.NewDefaultConfig()); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "  %s Initialized .hues directory: %s\n", cliui.SuccessMark, dir)
	return nil
}
