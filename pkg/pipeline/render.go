package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/matzehuels/gridcraft/pkg/designer"
	"github.com/matzehuels/gridcraft/pkg/errors"
	"github.com/matzehuels/gridcraft/pkg/markup"
	"github.com/matzehuels/gridcraft/pkg/render/nodelink"
	"github.com/matzehuels/gridcraft/pkg/workspace"
)

// Load decodes markup into a fresh workspace drawn with the given options.
func Load(markup string, opts ...workspace.Option) (*workspace.Workspace, error) {
	d := designer.New(nil, designer.WithWorkspaceOptions(opts...))
	if err := d.SetMarkup(markup); err != nil {
		return nil, err
	}
	return d.Workspace(), nil
}

// Render produces the artifact for markup without caching.
func Render(ctx context.Context, markup string, opts Options) ([]byte, int, error) {
	switch opts.Format {
	case FormatPNG:
		return renderPNG(markup, opts)
	case FormatSVG:
		return renderStack(ctx, markup, opts)
	case FormatText:
		return renderText(markup)
	}
	return nil, 0, ValidateFormat(opts.Format)
}

func renderPNG(markup string, opts Options) ([]byte, int, error) {
	width, err := rasterWidth(markup, opts.Width)
	if err != nil {
		return nil, 0, err
	}
	ws, err := Load(markup, workspace.WithSize(width, 0))
	if err != nil {
		return nil, 0, err
	}
	data, err := ws.ComposeRaster().PNG()
	if err != nil {
		return nil, 0, fmt.Errorf("encode png: %w", err)
	}
	return data, ws.Layer.Len(), nil
}

// rasterWidth picks the PNG width for markup: the requested width, or
// DefaultCellPixels per column, shrunk so neither side exceeds MaxWidth.
func rasterWidth(html string, requested float64) (float64, error) {
	if err := errors.ValidateMarkupSize(len(html)); err != nil {
		return 0, err
	}
	doc, err := markup.Decode(html)
	if err != nil {
		return 0, err
	}
	xCells, yCells := doc.XCells, doc.YCells
	if xCells <= 0 || yCells <= 0 {
		xCells, yCells = designer.DefaultXCells, designer.DefaultYCells
	}
	x, y := float64(xCells), float64(yCells)

	if requested <= 0 {
		cell := min(DefaultCellPixels, math.Floor(MaxWidth/max(x, y)))
		return max(cell, 1) * x, nil
	}
	return min(requested, MaxWidth, MaxWidth*x/y), nil
}

func renderStack(ctx context.Context, markup string, opts Options) ([]byte, int, error) {
	ws, err := Load(markup, terminalOptions()...)
	if err != nil {
		return nil, 0, err
	}
	dot := nodelink.ToDOT(ws.Layer.Stacked(), nodelink.Options{Detailed: opts.Detailed})
	svg, err := nodelink.RenderSVG(ctx, dot)
	if err != nil {
		return nil, 0, err
	}
	return svg, ws.Layer.Len(), nil
}

func renderText(markup string) ([]byte, int, error) {
	ws, err := Load(markup, terminalOptions()...)
	if err != nil {
		return nil, 0, err
	}
	return []byte(ws.ComposeTerminal().Plain() + "\n"), ws.Layer.Len(), nil
}

func terminalOptions() []workspace.Option {
	return []workspace.Option{
		workspace.WithCellSize(workspace.TerminalCellColumns),
		workspace.WithSurface(workspace.TerminalSurface),
	}
}
