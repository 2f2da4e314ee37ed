package parser

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/docoutline/internal/outline"
	pdflib "github.com/ledongthuc/pdf"
)

// glyphs lays out s as single-character runs at the given baseline.
func glyphs(s, font string, size, x, y float64) []pdflib.Text {
	var out []pdflib.Text
	w := size * 0.5
	for _, r := range s {
		out = append(out, pdflib.Text{Font: font, FontSize: size, X: x, Y: y, W: w, S: string(r)})
		x += w
	}
	return out
}

func TestMergeTextRuns_SplitsOnFontSizeAndBaseline(t *testing.T) {
	var runs []pdflib.Text
	runs = append(runs, glyphs("Intro", "Helvetica-Bold", 14, 72, 700)...)
	runs = append(runs, glyphs("Hello", "Helvetica", 10, 72, 680)...)
	runs = append(runs, glyphs("World", "Helvetica", 10, 72, 668)...)

	got := mergeTextRuns(runs)
	want := []outline.Fragment{
		{Text: "Intro", Size: 14, FontName: "Helvetica-Bold"},
		{Text: "Hello", Size: 10, FontName: "Helvetica"},
		{Text: "World", Size: 10, FontName: "Helvetica"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestMergeTextRuns_InsertsSpaceOnGap(t *testing.T) {
	runs := glyphs("two", "Times", 10, 72, 500)
	last := runs[len(runs)-1]
	runs = append(runs, glyphs("words", "Times", 10, last.X+last.W+3, 500)...)

	got := mergeTextRuns(runs)
	if len(got) != 1 {
		t.Fatalf("expected 1 fragment, got %+v", got)
	}
	if got[0].Text != "two words" {
		t.Errorf("expected %q, got %q", "two words", got[0].Text)
	}
}

func TestMergeTextRuns_DropsWhitespaceRuns(t *testing.T) {
	runs := []pdflib.Text{
		{Font: "Symbol", FontSize: 10, X: 10, Y: 100, W: 2, S: "  "},
		{Font: "Times", FontSize: 10, X: 20, Y: 100, W: 5, S: "x"},
	}
	got := mergeTextRuns(runs)
	if len(got) != 1 || got[0].Text != "x" {
		t.Errorf("expected only %q, got %+v", "x", got)
	}
}

func TestMergeTextRuns_Empty(t *testing.T) {
	if got := mergeTextRuns(nil); len(got) != 0 {
		t.Errorf("expected no fragments, got %+v", got)
	}
}

func TestPDFParser_InvalidInput(t *testing.T) {
	p := &PDFParser{}
	_, err := p.Parse(bytes.NewReader([]byte("definitely not a pdf")), "bad.pdf")
	if err == nil {
		t.Fatal("expected error for non-pdf input")
	}
	var readErr *outline.DocumentReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected DocumentReadError, got %T: %v", err, err)
	}
	if readErr.Source != "bad.pdf" {
		t.Errorf("expected source %q, got %q", "bad.pdf", readErr.Source)
	}
	if !strings.Contains(err.Error(), "bad.pdf") {
		t.Errorf("expected error to name the source, got %q", err.Error())
	}
}
