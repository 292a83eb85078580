package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridcraft/pkg/cache"
	"github.com/matzehuels/gridcraft/pkg/errors"
)

const sample = `<div class="grid-workspace" data-workspace="" data-x-cells="4" data-y-cells="2">
<div class="grid-layer" data-layer="">
<div class="grid-cell" data-cell="" data-left="0" data-top="0" data-width="50" data-height="100" data-z="1001">hi</div>
<div class="grid-cell" data-cell="" data-left="25" data-top="50" data-width="50" data-height="50" data-z="1002"></div>
</div></div>`

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"png", false},
		{"svg", false},
		{"txt", false},
		{"pdf", true},
		{"PNG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeUnsupported) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, errors.GetCode(err))
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	if err := (Options{Format: FormatPNG, Width: -1}).Validate(); err == nil {
		t.Error("negative width should fail")
	}
	if err := (Options{Format: FormatPNG, Width: MaxWidth + 1}).Validate(); err == nil {
		t.Error("oversized width should fail")
	}
	if err := (Options{Format: FormatPNG, Width: 400}).Validate(); err != nil {
		t.Errorf("valid options: %v", err)
	}
}

func TestKeyOpts(t *testing.T) {
	png := Options{Format: FormatPNG, Width: 300, Detailed: true}.KeyOpts()
	if png.Width != 300 || png.Detailed {
		t.Errorf("png KeyOpts() = %+v", png)
	}
	svg := Options{Format: FormatSVG, Width: 300, Detailed: true}.KeyOpts()
	if svg.Width != 0 || !svg.Detailed {
		t.Errorf("svg KeyOpts() = %+v", svg)
	}
}

func TestRenderText(t *testing.T) {
	data, cells, err := Render(context.Background(), sample, Options{Format: FormatText})
	if err != nil {
		t.Fatal(err)
	}
	if cells != 2 {
		t.Errorf("cells = %d, want 2", cells)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	for _, line := range lines {
		if len([]rune(line)) != 8 {
			t.Errorf("line %q should be 8 columns wide", line)
		}
	}
	if !strings.Contains(lines[0], "hi") {
		t.Errorf("text missing from %q", lines[0])
	}
}

func TestRenderPNG(t *testing.T) {
	data, _, err := Render(context.Background(), sample, Options{Format: FormatPNG})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}

func TestRenderPNGSize(t *testing.T) {
	grid := func(x, y int) string {
		return fmt.Sprintf(`<div class="grid-workspace" data-workspace="" data-x-cells="%d" data-y-cells="%d"></div>`, x, y)
	}
	tests := []struct {
		name   string
		markup string
		width  float64
		wantW  int
		wantH  int
	}{
		{"default cell size", grid(4, 2), 0, 80, 40},
		{"wide grid shrinks cells", grid(450, 5), 0, 8100, 90},
		{"tall grid shrinks cells", grid(5, 450), 0, 90, 8100},
		{"requested width", grid(4, 2), 400, 400, 200},
		{"requested width bounded by height", grid(1, 16), 1000, 512, 8192},
		{"no grid uses defaults", `<div class="grid-cell"></div>`, 0, 1000, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, _, err := Render(context.Background(), tt.markup, Options{Format: FormatPNG, Width: tt.width})
			if err != nil {
				t.Fatal(err)
			}
			cfg, err := png.DecodeConfig(bytes.NewReader(data))
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Width != tt.wantW || cfg.Height != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", cfg.Width, cfg.Height, tt.wantW, tt.wantH)
			}
			if cfg.Width > MaxWidth || cfg.Height > MaxWidth {
				t.Errorf("size %dx%d exceeds %g", cfg.Width, cfg.Height, MaxWidth)
			}
		})
	}
}

func TestRenderStack(t *testing.T) {
	data, _, err := Render(context.Background(), sample, Options{Format: FormatSVG, Detailed: true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Error("output is not an SVG")
	}
}

func TestRenderRejectsBadMarkup(t *testing.T) {
	bad := `<div class="grid-workspace" data-x-cells="0" data-y-cells="5"></div>`
	if _, _, err := Render(context.Background(), bad, Options{Format: FormatText}); !errors.Is(err, errors.ErrCodeInvalidGrid) {
		t.Errorf("Render() = %v, want INVALID_GRID", err)
	}
}

func TestRunnerCaches(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, log.New(io.Discard))
	ctx := context.Background()
	opts := Options{Format: FormatText}

	first, err := r.Execute(ctx, sample, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheHit || first.Cells != 2 {
		t.Errorf("first run = %+v", first)
	}

	second, err := r.Execute(ctx, sample, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheHit || !bytes.Equal(second.Artifact, first.Artifact) {
		t.Errorf("second run should hit the cache: %s", second)
	}

	opts.Refresh = true
	third, _ := r.Execute(ctx, sample, opts)
	if third.CacheHit {
		t.Error("refresh should bypass the cache")
	}

	if _, err := r.Execute(ctx, sample, Options{Format: "gif"}); err == nil {
		t.Error("invalid format should fail")
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil || r.TTL != DefaultTTL {
		t.Errorf("NewRunner(nil, nil, nil) = %+v", r)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
