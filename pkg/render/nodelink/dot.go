package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/gridcraft/pkg/layer"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes the grid rectangle and z-order in node labels.
	// When false, only the cell text (or its position) is shown.
	Detailed bool
}

// maxLabel bounds the text shown in a node.
const maxLabel = 24

// Edge is one covering relation: From lies above To.
type Edge struct {
	From, To string
}

// Edges returns every pair of overlapping cells ordered by z-order, the
// upper cell first. Cells with equal z-order are not related.
func Edges(cells []*layer.Cell) []Edge {
	var out []Edge
	for _, a := range cells {
		for _, b := range cells {
			if a != b && a.Z > b.Z && a.Rect.Overlaps(b.Rect) {
				out = append(out, Edge{From: a.ID, To: b.ID})
			}
		}
	}
	return out
}

// ToDOT converts cells to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
//
// Selected cells are drawn with a bold blue outline.
func ToDOT(cells []*layer.Cell, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, c := range cells {
		attrs := fmtAttrs(c, fmtLabel(c, opts.Detailed))
		fmt.Fprintf(&buf, "  %q [%s];\n", c.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range Edges(cells) {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(c *layer.Cell, detailed bool) string {
	r := c.Rect
	name := strings.TrimSpace(c.Text)
	if name == "" {
		name = fmt.Sprintf("cell %d,%d", r.X, r.Y)
	}
	if runes := []rune(name); len(runes) > maxLabel {
		name = string(runes[:maxLabel-1]) + "…"
	}
	if !detailed {
		return name
	}
	return fmt.Sprintf("%s\nrect: %d,%d %dx%d\nz: %d", name, r.X, r.Y, r.Width, r.Height, c.Z)
}

func fmtAttrs(c *layer.Cell, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if c.Selected() {
		attrs = append(attrs, "color=\"#0096fa\"", "penwidth=2")
	}
	if c.BackgroundImage != "" {
		attrs = append(attrs, "fillcolor=\"#dcebf7\"")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the SVG scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
