// Package palettecmder provides the palette command, which shows the color
// fingerprint hues extracts from a single image.
package palettecmder

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/hues/cmd/hues/workspace"
	"github.com/papercomputeco/hues/pkg/cliui"
	"github.com/papercomputeco/hues/pkg/config"
	"github.com/papercomputeco/hues/pkg/extract"
	"github.com/papercomputeco/hues/pkg/ingest"
	"github.com/papercomputeco/hues/pkg/swatch"
)

const (
	swatchWidth  = 640
	swatchHeight = 160
)

type paletteCommander struct {
	path      string
	outPath   string
	maxColors uint
	hueWeight float64

	out io.Writer
}

const paletteLongDesc string = `Show the dominant colors of an image.

Extracts the color fingerprint hues would index for the image and prints
each color with its share of the image. With --out, the palette is also
written as an image of proportional color bands (format from the file
extension: png, jpg, gif, bmp or tiff).

Examples:
  hues palette ./sunset.jpg
  hues palette ./sunset.jpg --out sunset-palette.png
  hues palette ./sunset.jpg --max-colors 8`

const paletteShortDesc string = "Show the dominant colors of an image"

func NewPaletteCmd() *cobra.Command {
	cmder := &paletteCommander{}

	cmd := &cobra.Command{
		Use:   "palette <image>",
		Short: paletteShortDesc,
		Long:  paletteLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.path = args[0]
			cmder.out = cmd.OutOrStdout()

			cfg, _, err := workspace.LoadConfig(cmd, config.FlagMaxColors, config.FlagHueWeight)
			if err != nil {
				return err
			}
			return cmder.run(cfg)
		},
	}

	cmd.Flags().StringVarP(&cmder.outPath, "out", "o", "", "Write the palette as an image to this path")
	config.AddUintFlag(cmd, config.Flags, config.FlagMaxColors, &cmder.maxColors)
	config.AddFloat64Flag(cmd, config.Flags, config.FlagHueWeight, &cmder.hueWeight)

	return cmd
}

func (c *paletteCommander) run(cfg *config.Config) error {
	extractor, err := extract.NewExtractor(cfg.Extract.ExtractorConfig())
	if err != nil {
		return fmt.Errorf("invalid extract config: %w", err)
	}

	fp, err := ingest.Fingerprint(extractor, c.path)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\n%s %s\n\n",
		cliui.HeaderStyle.Render("Palette of"),
		cliui.KeyStyle.Render(filepath.Base(c.path)),
	)
	fmt.Fprint(c.out, cliui.Palette(fp))
	fmt.Fprintln(c.out)

	if c.outPath == "" {
		return nil
	}

	if err := imaging.Save(RenderPalette(fp, swatchWidth, swatchHeight), c.outPath); err != nil {
		return fmt.Errorf("writing palette image: %w", err)
	}
	fmt.Fprintf(c.out, "  %s Wrote %s\n\n", cliui.SuccessMark, c.outPath)
	return nil
}

// RenderPalette draws fp as vertical bands whose widths are proportional to
// the color weights. The last band absorbs rounding so the image is always
// fully covered.
func RenderPalette(fp swatch.Fingerprint, width, height int) *image.NRGBA {
	canvas := imaging.New(width, height, color.White)

	var total float64
	for _, wc := range fp {
		total += wc.Weight
	}
	if total <= 0 {
		return canvas
	}

	x := 0
	acc := 0.0
	for i, wc := range fp {
		acc += wc.Weight
		end := int(acc / total * float64(width))
		if i == len(fp)-1 {
			end = width
		}
		if end <= x {
			continue
		}
		band := imaging.New(end-x, height, wc.Color)
		canvas = imaging.Paste(canvas, band, image.Pt(x, 0))
		x = end
	}
	return canvas
}
