// Package searchcmder provides the search command for finding the images of a
// collection closest to a color or to another image.
package searchcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	apisearch "github.com/papercomputeco/hues/api/search"
	"github.com/papercomputeco/hues/cmd/hues/workspace"
	"github.com/papercomputeco/hues/pkg/cliui"
	"github.com/papercomputeco/hues/pkg/config"
	"github.com/papercomputeco/hues/pkg/utils"
)

type searchCommander struct {
	collection string
	color      string
	image      string
	topK       int
	all        bool
	quiet      bool

	apiTarget       string
	storageProvider string
	storagePath     string
	postgresDSN     string
	qdrantTarget    string
	maxColors       uint
	hueWeight       float64

	out    io.Writer
	logger *slog.Logger
}

var searchFlags = []string{
	config.FlagAPITarget,
	config.FlagStorageProvider,
	config.FlagStoragePath,
	config.FlagPostgresDSN,
	config.FlagQdrantTarget,
	config.FlagMaxColors,
	config.FlagHueWeight,
}

const searchLongDesc string = `Search a collection by color or by example image.

Pass --color to rank images by how close their dominant colors are to a
single color, or --image to rank them against the colors extracted from
another picture. Distances are perceptual: lower is closer, 0 is identical.

By default hues opens the configured storage directly. Pass --api-target
to query a running "hues serve" instead.

Use --quiet to output only image ids, one per line, for piping.

Examples:
  hues search -c trips --color "#1e90ff"
  hues search -c trips --color 230,90,40 --top 10
  hues search -c trips --image ./sunset.jpg --all
  hues search -c trips --color "#222" --api-target http://localhost:8081
  hues search -c trips --color "#f5deb3" --quiet | xargs open`

const searchShortDesc string = "Search a collection by color or image"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (cmder.color == "") == (cmder.image == "") {
				return errors.New("exactly one of --color or --image is required")
			}

			cmder.out = cmd.OutOrStdout()
			cmder.logger = workspace.NewLogger(cmd, cmd.ErrOrStderr())

			cfg, configDir, err := workspace.LoadConfig(cmd, searchFlags...)
			if err != nil {
				return err
			}

			topK := cmder.topK
			if cmder.all {
				topK = apisearch.All
			}

			var output *apisearch.Output
			if cmd.Flags().Changed(config.Flags[config.FlagAPITarget].Name) {
				output, err = cmder.searchRemote(cmd.Context(), cfg.Client.APITarget, topK)
			} else {
				output, err = cmder.searchLocal(cmd.Context(), cfg, configDir, topK)
			}
			if err != nil {
				return err
			}

			return cmder.print(output)
		},
	}

	cmd.Flags().StringVarP(&cmder.collection, "collection", "c", "", "Collection to search")
	cmd.Flags().StringVar(&cmder.color, "color", "", `Query color ("#rrggbb", "#rgb" or "r,g,b")`)
	cmd.Flags().StringVarP(&cmder.image, "image", "i", "", "Query image file")
	cmd.Flags().IntVarP(&cmder.topK, "top", "k", apisearch.DefaultTopK, "Number of results to return")
	cmd.Flags().BoolVar(&cmder.all, "all", false, "Return every image, fully ranked")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only image ids, one per line")
	_ = cmd.MarkFlagRequired("collection")

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageProvider, &cmder.storageProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagStoragePath, &cmder.storagePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagQdrantTarget, &cmder.qdrantTarget)
	config.AddUintFlag(cmd, config.Flags, config.FlagMaxColors, &cmder.maxColors)
	config.AddFloat64Flag(cmd, config.Flags, config.FlagHueWeight, &cmder.hueWeight)

	return cmd
}

func (c *searchCommander) searchLocal(ctx context.Context, cfg *config.Config, configDir string, topK int) (*apisearch.Output, error) {
	ws, err := workspace.Open(ctx, cfg, configDir, c.logger)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	in := apisearch.Input{
		Collection: c.collection,
		Color:      c.color,
		TopK:       topK,
	}
	if c.image != "" {
		in.Image, err = os.ReadFile(c.image)
		if err != nil {
			return nil, fmt.Errorf("reading query image: %w", err)
		}
	}

	return apisearch.Search(ctx, ws.Manager, ws.Extractor, in, c.logger)
}

func (c *searchCommander) searchRemote(ctx context.Context, apiTarget string, topK int) (*apisearch.Output, error) {
	if c.image != "" {
		return SearchImageAPI(ctx, apiTarget, c.collection, c.image, topK)
	}
	return SearchColorAPI(ctx, apiTarget, c.collection, c.color, topK)
}

func (c *searchCommander) print(output *apisearch.Output) error {
	if c.quiet {
		for _, r := range output.Results {
			fmt.Fprintln(c.out, r.ID)
		}
		return nil
	}

	query, err := apisearch.Fingerprint(output.Query)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\n%s %s %s\n\n",
		cliui.HeaderStyle.Render("Closest in"),
		cliui.KeyStyle.Render(output.Collection),
		cliui.Strip(query),
	)

	if output.Count == 0 {
		fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("No results found."))
		return nil
	}

	for _, r := range output.Results {
		fp, err := apisearch.Fingerprint(r.Colors)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "  %s  %s  %s  %s\n",
			cliui.RankStyle.Render(fmt.Sprintf("#%-3d", r.Rank)),
			cliui.DimStyle.Render(fmt.Sprintf("%7.2f", r.Distance)),
			cliui.Strip(fp),
			cliui.ValueStyle.Render(utils.TruncateLeft(r.ID, 72)),
		)
	}

	fmt.Fprintln(c.out)
	return nil
}
