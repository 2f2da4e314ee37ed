package outline

import "fmt"

// Fragment is one piece of text as drawn on a page.
type Fragment struct {
	Text     string  // Raw text; trimmed by the builder
	Size     float64 // Font size in points
	FontName string  // Font name, empty when the source has none
}

// Section is a heading plus the body text that follows it.
type Section struct {
	Heading    *string  `json:"heading" yaml:"heading"`       // nil before the first heading
	Paragraphs []string `json:"paragraphs" yaml:"paragraphs"` // Document order
	PageStart  int      `json:"page_start" yaml:"page_start"`
	PageEnd    int      `json:"page_end" yaml:"page_end"`

	// ParagraphPages holds the page each paragraph came from, parallel to
	// Paragraphs. It is left nil for sections built by hand.
	ParagraphPages []int `json:"-" yaml:"-"`
}

// PageOf returns the page paragraph i came from, or 0 if unknown.
func (s Section) PageOf(i int) int {
	if len(s.ParagraphPages) != len(s.Paragraphs) || i < 0 || i >= len(s.ParagraphPages) {
		return 0
	}
	return s.ParagraphPages[i]
}

// Title returns the heading text, or "" for a leading section.
func (s Section) Title() string {
	if s.Heading == nil {
		return ""
	}
	return *s.Heading
}

// Document is the paginated source the builder reads from.
type Document interface {
	NumPage() int
	// Page returns page num, counting from 1.
	Page(num int) (Page, error)
}

// Page yields the text fragments of one page in drawing order.
type Page interface {
	TextObjects() ([]Fragment, error)
}

// DocumentReadError reports a document that could not be opened or decoded.
type DocumentReadError struct {
	Source string
	Err    error
}

func (e *DocumentReadError) Error() string {
	return fmt.Sprintf("read document %s: %v", e.Source, e.Err)
}

func (e *DocumentReadError) Unwrap() error {
	return e.Err
}

// StaticDocument is an in-memory Document, one fragment slice per page.
type StaticDocument [][]Fragment

func (d StaticDocument) NumPage() int {
	return len(d)
}

func (d StaticDocument) Page(num int) (Page, error) {
	if num < 1 || num > len(d) {
		return nil, fmt.Errorf("page %d out of range [1,%d]", num, len(d))
	}
	return staticPage(d[num-1]), nil
}

type staticPage []Fragment

func (p staticPage) TextObjects() ([]Fragment, error) {
	return p, nil
}
