// Package nodelink renders the stacking order of a layer as a node-link diagram.
//
// # Overview
//
// Overlapping cells hide each other according to their z-order. This package
// makes that order visible: every cell becomes a box, and an arrow a -> b
// means a covers b (they overlap and a has the higher z-order). Cells that
// overlap nothing appear as isolated boxes.
//
// # Usage
//
//	dot := nodelink.ToDOT(l.Stacked(), nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
//   - Detailed: When true, node labels include the grid rectangle and z-order.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
