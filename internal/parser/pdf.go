package parser

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dgallion1/docoutline/internal/outline"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. Glyph runs from each page's content stream
// are merged into fragments that share a font, a size and a baseline.
type PDFParser struct{}

func (p *PDFParser) Parse(r io.Reader, filename string) (outline.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, readError(filename, err)
	}
	return NewPDFDocument(bytes.NewReader(data), int64(len(data)), filename)
}

// PDFDocument adapts a ledongthuc/pdf reader to outline.Document.
type PDFDocument struct {
	name   string
	reader *pdflib.Reader
}

// NewPDFDocument opens a PDF from r. Malformed input is reported as a
// *outline.DocumentReadError.
func NewPDFDocument(r io.ReaderAt, size int64, name string) (doc *PDFDocument, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, readError(name, fmt.Errorf("open pdf: %v", rec))
		}
	}()

	reader, err := pdflib.NewReader(r, size)
	if err != nil {
		return nil, readError(name, err)
	}
	return &PDFDocument{name: name, reader: reader}, nil
}

func (d *PDFDocument) NumPage() int {
	return d.reader.NumPage()
}

func (d *PDFDocument) Page(num int) (outline.Page, error) {
	if num < 1 || num > d.NumPage() {
		return nil, readError(d.name, fmt.Errorf("page %d out of range [1,%d]", num, d.NumPage()))
	}
	return &pdfPage{name: d.name, num: num, page: d.reader.Page(num)}, nil
}

type pdfPage struct {
	name string
	num  int
	page pdflib.Page
}

func (p *pdfPage) TextObjects() (fragments []outline.Fragment, err error) {
	if p.page.V.IsNull() {
		return nil, nil
	}

	// The content interpreter panics on malformed streams.
	defer func() {
		if rec := recover(); rec != nil {
			fragments, err = nil, readError(p.name, fmt.Errorf("page %d: %v", p.num, rec))
		}
	}()

	content := p.page.Content()
	return mergeTextRuns(content.Text), nil
}

// mergeTextRuns joins consecutive glyph runs into fragments. A new fragment
// starts whenever the font, the font size or the baseline changes. A space
// is inserted between runs separated by more than a fifth of the font size.
func mergeTextRuns(runs []pdflib.Text) []outline.Fragment {
	const (
		minGap           = 0.5
		baselineEpsilon  = 0.5
		spaceGapFraction = 0.2
	)

	var fragments []outline.Fragment
	var buf strings.Builder
	var cur pdflib.Text
	var prevEnd float64
	open := false

	flush := func() {
		if !open {
			return
		}
		if text := strings.TrimSpace(buf.String()); text != "" {
			fragments = append(fragments, outline.Fragment{
				Text:     text,
				Size:     cur.FontSize,
				FontName: cur.Font,
			})
		}
		buf.Reset()
		open = false
	}

	for _, t := range runs {
		sameRun := open &&
			t.Font == cur.Font &&
			t.FontSize == cur.FontSize &&
			math.Abs(t.Y-cur.Y) <= baselineEpsilon
		if !sameRun {
			flush()
			cur = t
			open = true
		} else if t.X-prevEnd > math.Max(t.FontSize*spaceGapFraction, minGap) {
			buf.WriteByte(' ')
		}
		buf.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	flush()

	return fragments
}
