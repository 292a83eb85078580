package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridcraft/pkg/pipeline"
)

// renderOpts holds the command-line flags shared by render and stack.
type renderOpts struct {
	output   string // output file path, derived from the input when empty
	format   string // pipeline format
	width    int    // PNG width in pixels, 0 for the grid's natural size
	detailed bool   // label stack diagram nodes with cell attributes
	noCache  bool   // bypass the artifact cache entirely
	refresh  bool   // re-render and overwrite the cached artifact
}

// renderCommand creates the render command for rasterizing exported markup.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: pipeline.FormatPNG}

	cmd := &cobra.Command{
		Use:   "render <markup-file|->",
		Short: "Render exported markup to PNG or text",
		Long: `Render an exported grid fragment.

The png format draws the grid, the cells and their text. The txt format
draws the same picture with terminal characters, two columns per grid cell.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != pipeline.FormatPNG && opts.format != pipeline.FormatText {
				return fmt.Errorf("invalid format: %s (must be 'png' or 'txt')", opts.format)
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: input name with the format extension, - for stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: png (default), txt")
	cmd.Flags().IntVar(&opts.width, "width", 0, "PNG width in pixels")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when cached")

	return cmd
}

// stackCommand creates the stack command for rendering z-order diagrams.
func (c *CLI) stackCommand() *cobra.Command {
	opts := renderOpts{format: pipeline.FormatSVG}

	cmd := &cobra.Command{
		Use:   "stack <markup-file|->",
		Short: "Render the stacking order of exported markup as SVG",
		Long: `Render the stacking order of an exported grid fragment as an SVG
diagram drawn by Graphviz. Every cell is a box; an arrow from a to b means
a overlaps b and lies above it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: input name with .svg, - for stdout)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label cells with their grid rectangle and z-order")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when cached")

	return cmd
}

// runRender reads markup from input, renders it through the cached pipeline
// and writes the artifact.
func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	markup, err := readMarkup(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	var res *pipeline.Result
	err = spin(ctx, fmt.Sprintf("Rendering %s...", opts.format), func() error {
		var err error
		res, err = runner.Execute(ctx, markup, pipeline.Options{
			Format:   opts.format,
			Width:    float64(opts.width),
			Detailed: opts.detailed,
			Refresh:  opts.refresh,
		})
		return err
	})
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if opts.output == "-" {
		_, err := os.Stdout.Write(res.Artifact)
		return err
	}
	out := outputPath(opts.output, input, opts.format)
	if err := os.WriteFile(out, res.Artifact, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	prog.done(fmt.Sprintf("Rendered %s", opts.format))
	printSuccess("Rendered %s", opts.format)
	printFile(out)
	fmt.Println(renderStats(res.Cells, len(res.Artifact), res.CacheHit))
	return nil
}
