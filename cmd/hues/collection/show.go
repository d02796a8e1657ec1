package collectioncmder

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/hues/pkg/cliui"
	"github.com/papercomputeco/hues/pkg/collection"
	"github.com/papercomputeco/hues/pkg/index"
)

const showLongDesc string = `Show a collection: its metadata and the colors of its images.

The listing is limited to the first --limit images (0 shows all).

Examples:
  hues collection show trips
  hues collection show trips --limit 0`

func newShowCmd() *cobra.Command {
	opts := &storageOptions{}
	var limit int

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a collection and its images",
		Long:  showLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			var doc string
			err = ws.Manager.View(cmd.Context(), args[0], func(c *collection.Collection) error {
				doc = Markdown(c, limit)
				return nil
			})
			if err != nil {
				return err
			}

			rendered, err := cliui.RenderMarkdown(doc)
			if err != nil {
				ws.Logger.Debug("markdown rendering failed", "error", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of images to list")
	opts.register(cmd)
	return cmd
}

// Markdown describes c as a markdown document listing up to limit images
// with their colors.
func Markdown(c *collection.Collection, limit int) string {
	var b strings.Builder

	entries := c.Index.Entries()
	fmt.Fprintf(&b, "# %s\n\n", c.Meta.Name)
	fmt.Fprintf(&b, "- **ID:** `%s`\n", c.Meta.ID)
	fmt.Fprintf(&b, "- **Images:** %d\n", len(entries))
	if !c.Meta.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "- **Created:** %s\n", c.Meta.CreatedAt.Format(time.RFC3339))
	}
	if !c.Meta.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, "- **Updated:** %s\n", c.Meta.UpdatedAt.Format(time.RFC3339))
	}
	if c.Meta.Thumbnail != "" {
		fmt.Fprintf(&b, "- **Thumbnail:** `%s`\n", c.Meta.Thumbnail)
	}

	if len(entries) == 0 {
		return b.String()
	}

	shown := entries
	if limit > 0 && len(entries) > limit {
		shown = entries[:limit]
	}

	b.WriteString("\n## Images\n\n| # | Image | Colors |\n|---|---|---|\n")
	for i, e := range shown {
		fmt.Fprintf(&b, "| %d | `%s` | %s |\n", i+1, e.ID, colorList(e))
	}
	if len(shown) < len(entries) {
		fmt.Fprintf(&b, "\n_%d more not shown._\n", len(entries)-len(shown))
	}
	return b.String()
}

func colorList(e index.Entry) string {
	var total float64
	for _, wc := range e.Fingerprint {
		total += wc.Weight
	}

	parts := make([]string, len(e.Fingerprint))
	for i, wc := range e.Fingerprint {
		share := 0.0
		if total > 0 {
			share = wc.Weight / total * 100
		}
		parts[i] = fmt.Sprintf("%s (%.0f%%)", wc.Hex(), share)
	}
	return strings.Join(parts, " ")
}
