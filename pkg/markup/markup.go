// Package markup converts a layer's cells to and from an HTML fragment.
//
// # Format
//
// The exported fragment is a workspace element wrapping one layer element
// wrapping one element per cell:
//
//	<div class="grid-workspace" data-workspace="" data-x-cells="50" data-y-cells="20" style="padding-top: 40%">
//	  <div class="grid-layer" data-layer="">
//	    <div class="grid-cell" data-cell="" data-left="10" data-top="10" data-width="6"
//	         data-height="15" data-z="1001" style="left: 10%; top: 10%; ...">Hello</div>
//	  </div>
//	</div>
//
// Placement is expressed in percent of the grid extent so the fragment scales
// with its container. Font and background image live in the inline style only.
// Editor state such as selection is never written.
//
// # Import
//
// [Decode] is best effort. It accepts a full workspace, a bare layer or loose
// cell elements; nodes it does not recognise are skipped, and a cell without
// data attributes falls back to its inline style.
package markup

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/matzehuels/gridcraft/pkg/errors"
	"github.com/matzehuels/gridcraft/pkg/geometry"
)

// Class names of the exported elements.
const (
	ClassWorkspace = "grid-workspace"
	ClassLayer     = "grid-layer"
	ClassCell      = "grid-cell"
)

// CellData is one exported cell. Placement is in percent of the grid.
type CellData struct {
	Left, Top, Width, Height float64
	Z                        int
	Font                     string
	Text                     string
	BackgroundImage          string
}

// Rect converts the placement to grid units, rounding to the nearest cell.
func (c CellData) Rect(xCells, yCells int) geometry.Rect {
	return geometry.FromPercent(c.Left, c.Top, c.Width, c.Height, xCells, yCells)
}

// Document is an exported workspace. XCells and YCells are zero when the
// decoded fragment did not carry a workspace element.
type Document struct {
	XCells, YCells int
	Cells          []CellData
}

// =============================================================================
// Encode
// =============================================================================

// Encode renders doc as an HTML fragment.
func Encode(doc Document) string {
	ws := element("div",
		attr("class", ClassWorkspace),
		attr("data-workspace", ""),
		attr("data-x-cells", strconv.Itoa(doc.XCells)),
		attr("data-y-cells", strconv.Itoa(doc.YCells)),
		attr("style", fmt.Sprintf("padding-top: %d%%", aspect(doc.XCells, doc.YCells))),
	)
	layer := element("div", attr("class", ClassLayer), attr("data-layer", ""))
	ws.AppendChild(layer)

	for _, c := range doc.Cells {
		layer.AppendChild(encodeCell(c))
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, ws); err != nil {
		// bytes.Buffer writes do not fail
		panic(err)
	}
	return buf.String()
}

// aspect is the workspace height as a whole percentage of its width.
func aspect(xCells, yCells int) int {
	if xCells <= 0 {
		return 0
	}
	return int(math.Floor(float64(yCells) / float64(xCells) * 100))
}

func encodeCell(c CellData) *html.Node {
	style := []string{
		"left: " + percent(c.Left),
		"top: " + percent(c.Top),
		"width: " + percent(c.Width),
		"height: " + percent(c.Height),
		"z-index: " + strconv.Itoa(c.Z),
	}
	if c.Font != "" {
		style = append(style, "font: "+c.Font)
	}
	if c.BackgroundImage != "" {
		style = append(style, "background-image: "+c.BackgroundImage)
	}

	n := element("div",
		attr("class", ClassCell),
		attr("data-cell", ""),
		attr("data-left", number(c.Left)),
		attr("data-top", number(c.Top)),
		attr("data-width", number(c.Width)),
		attr("data-height", number(c.Height)),
		attr("data-z", strconv.Itoa(c.Z)),
		attr("style", strings.Join(style, "; ")),
	)
	if c.Text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: c.Text})
	}
	return n
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func percent(v float64) string {
	return number(v) + "%"
}

func element(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

// =============================================================================
// Decode
// =============================================================================

// Decode parses an HTML fragment produced by [Encode] or written by hand.
func Decode(s string) (Document, error) {
	return DecodeReader(strings.NewReader(s))
}

// DecodeReader is [Decode] for a stream.
func DecodeReader(r io.Reader) (Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInvalidMarkup, err, "parse markup")
	}

	var doc Document
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case isWorkspace(n):
				if doc.XCells == 0 {
					doc.XCells, _ = strconv.Atoi(attrValue(n, "data-x-cells"))
					doc.YCells, _ = strconv.Atoi(attrValue(n, "data-y-cells"))
				}
			case isCell(n):
				if c, ok := decodeCell(n); ok {
					doc.Cells = append(doc.Cells, c)
				}
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return doc, nil
}

func isWorkspace(n *html.Node) bool {
	return hasAttr(n, "data-workspace") || hasClass(n, ClassWorkspace)
}

func isCell(n *html.Node) bool {
	return hasAttr(n, "data-cell") || hasClass(n, ClassCell)
}

func decodeCell(n *html.Node) (CellData, bool) {
	style := parseStyle(attrValue(n, "style"))

	var c CellData
	var ok bool
	fields := []struct {
		dst      *float64
		data, st string
	}{
		{&c.Left, "data-left", "left"},
		{&c.Top, "data-top", "top"},
		{&c.Width, "data-width", "width"},
		{&c.Height, "data-height", "height"},
	}
	for _, f := range fields {
		if *f.dst, ok = parseNumber(attrValue(n, f.data)); ok {
			continue
		}
		if *f.dst, ok = parseNumber(style[f.st]); !ok {
			return CellData{}, false
		}
	}

	if c.Z, ok = parseInt(attrValue(n, "data-z")); !ok {
		c.Z, _ = parseInt(style["z-index"])
	}
	c.Font = style["font"]
	c.BackgroundImage = style["background-image"]
	c.Text = textContent(n)
	return c, true
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

func parseInt(s string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	return v, err == nil
}

// parseStyle splits an inline style into lower-cased properties. Semicolons
// inside parentheses or quotes do not end a declaration.
func parseStyle(s string) map[string]string {
	out := make(map[string]string)
	var decls []string
	depth, start := 0, 0
	var quote rune
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case r == ';' && depth == 0:
			decls = append(decls, s[start:i])
			start = i + 1
		}
	}
	decls = append(decls, s[start:])

	for _, d := range decls {
		k, v, found := strings.Cut(d, ":")
		if !found {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return b.String()
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrValue(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
