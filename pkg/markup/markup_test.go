package markup

import (
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/gridcraft/pkg/errors"
	"github.com/matzehuels/gridcraft/pkg/geometry"
)

func TestEncode(t *testing.T) {
	doc := Document{
		XCells: 50,
		YCells: 20,
		Cells: []CellData{{
			Left: 10, Top: 10, Width: 6, Height: 15, Z: 1001,
			Font:            `normal 2vw "Roboto", sans-serif`,
			Text:            "a < b",
			BackgroundImage: "url(https://cdn.example.com/sample.jpg)",
		}},
	}
	out := Encode(doc)

	for _, want := range []string{
		`class="grid-workspace"`,
		`data-x-cells="50"`,
		`style="padding-top: 40%"`,
		`class="grid-layer"`,
		`class="grid-cell"`,
		`data-left="10"`,
		`data-z="1001"`,
		`z-index: 1001`,
		`background-image: url(https://cdn.example.com/sample.jpg)`,
		`a &lt; b`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Encode() missing %q in\n%s", want, out)
		}
	}
	if strings.Contains(out, "selected") {
		t.Error("editor-only state must not be exported")
	}
}

func TestRoundTrip(t *testing.T) {
	doc := Document{
		XCells: 3,
		YCells: 7,
		Cells: []CellData{
			{Left: 100.0 / 3, Top: 0, Width: 200.0 / 3, Height: 100.0 / 7, Z: 1001, Text: "one"},
			{Left: 0, Top: 400.0 / 7, Width: 100.0 / 3, Height: 300.0 / 7, Z: 999,
				Font: "bold 12px serif", BackgroundImage: "url(data:image/png;base64,AAAA)"},
		},
	}

	got, err := Decode(Encode(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, doc) {
		t.Errorf("round trip mismatch\n got %+v\nwant %+v", got, doc)
	}
	if r := got.Cells[1].Rect(3, 7); r != (geometry.Rect{X: 0, Y: 4, Width: 1, Height: 3}) {
		t.Errorf("Rect() = %+v", r)
	}
}

func TestDecodeBestEffort(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Document
	}{
		{
			name:  "style fallback",
			input: `<div class="grid-cell" style="left: 20%; top: 50%; width: 10%; height: 25%; z-index: 1002">x</div>`,
			want:  Document{Cells: []CellData{{Left: 20, Top: 50, Width: 10, Height: 25, Z: 1002, Text: "x"}}},
		},
		{
			name: "bare layer with unknown nodes",
			input: `<div class="grid-layer"><p>ignored</p><span data-cell data-left="0" data-top="0"
				data-width="50" data-height="50" data-z="7"></span><img src="x.png"></div>`,
			want: Document{Cells: []CellData{{Width: 50, Height: 50, Z: 7}}},
		},
		{
			name:  "cell without placement is skipped",
			input: `<div class="grid-cell">no size</div><div class="grid-cell" data-left="1" data-top="1" data-width="1" data-height="1"></div>`,
			want:  Document{Cells: []CellData{{Left: 1, Top: 1, Width: 1, Height: 1}}},
		},
		{
			name:  "garbage",
			input: `<<<not markup>>>`,
			want:  Document{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Decode() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseStyle(t *testing.T) {
	got := parseStyle(`Font: normal 2vw "A;B", serif; background-image: url(data:a;b); ; junk`)
	want := map[string]string{
		"font":             `normal 2vw "A;B", serif`,
		"background-image": "url(data:a;b)",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseStyle() = %v, want %v", got, want)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New(errors.ErrCodeInternal, "boom") }

func TestDecodeReaderError(t *testing.T) {
	_, err := DecodeReader(failingReader{})
	if !errors.Is(err, errors.ErrCodeInvalidMarkup) {
		t.Errorf("err = %v, want INVALID_MARKUP", err)
	}
}
