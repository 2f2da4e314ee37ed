package outline

import (
	"fmt"
	"log/slog"
	"strings"
)

// Classifier decides which fragments are headings.
type Classifier struct {
	SizeThreshold float64 // Sizes strictly above this are headings
	FontMarker    string  // Case-sensitive substring of the font name; "" disables
}

// DefaultClassifier treats anything over 12pt or in a "Bold" font as a heading.
func DefaultClassifier() Classifier {
	return Classifier{
		SizeThreshold: 12,
		FontMarker:    "Bold",
	}
}

// IsHeading reports whether f should start a new section.
func (c Classifier) IsHeading(f Fragment) bool {
	if f.Size > c.SizeThreshold {
		return true
	}
	return c.FontMarker != "" && strings.Contains(f.FontName, c.FontMarker)
}

// FlushPolicy controls what happens to pending paragraphs at a page break.
type FlushPolicy int

const (
	// FlushOnHeading seals sections only when a new heading starts or the
	// document ends, so a section may span pages.
	FlushOnHeading FlushPolicy = iota
	// FlushOnPage also seals at every page end; the next page continues
	// under the same heading in a fresh section.
	FlushOnPage
)

func (p FlushPolicy) String() string {
	switch p {
	case FlushOnHeading:
		return "heading"
	case FlushOnPage:
		return "page"
	}
	return fmt.Sprintf("FlushPolicy(%d)", int(p))
}

// ParseFlushPolicy accepts "heading" or "page".
func ParseFlushPolicy(s string) (FlushPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "heading":
		return FlushOnHeading, nil
	case "page":
		return FlushOnPage, nil
	}
	return 0, fmt.Errorf("unknown flush policy %q (want heading or page)", s)
}

// Builder groups body text under the most recent heading.
type Builder struct {
	Classifier Classifier
	Policy     FlushPolicy
	SkipBlank  bool // Drop fragments that are empty after trimming
	Log        *slog.Logger
}

// NewBuilder returns a builder with the default classifier and policy.
func NewBuilder(log *slog.Logger) *Builder {
	return &Builder{
		Classifier: DefaultClassifier(),
		Policy:     FlushOnHeading,
		Log:        log,
	}
}

// Build runs the builder with defaults.
func Build(doc Document) ([]Section, error) {
	return NewBuilder(nil).Build(doc)
}

// Build makes one pass over doc. Errors from the document abort the pass
// and are returned unchanged with no sections.
func (b *Builder) Build(doc Document) ([]Section, error) {
	log := b.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	var result []Section
	current := Section{}

	seal := func() {
		if len(current.Paragraphs) == 0 {
			return
		}
		log.Debug("section sealed",
			"heading", current.Title(),
			"paragraphs", len(current.Paragraphs),
			"page_start", current.PageStart,
			"page_end", current.PageEnd,
		)
		result = append(result, current)
	}

	numPages := doc.NumPage()
	for n := 1; n <= numPages; n++ {
		page, err := doc.Page(n)
		if err != nil {
			return nil, err
		}
		fragments, err := page.TextObjects()
		if err != nil {
			return nil, err
		}

		for _, f := range fragments {
			text := strings.TrimSpace(f.Text)
			if text == "" && b.SkipBlank {
				continue
			}

			if b.Classifier.IsHeading(f) {
				seal()
				heading := text
				current = Section{Heading: &heading}
				continue
			}

			if len(current.Paragraphs) == 0 {
				current.PageStart = n
			}
			current.Paragraphs = append(current.Paragraphs, text)
			current.ParagraphPages = append(current.ParagraphPages, n)
			current.PageEnd = n
		}

		if b.Policy == FlushOnPage && len(current.Paragraphs) > 0 {
			seal()
			current = Section{Heading: current.Heading}
		}
	}
	seal()

	log.Debug("outline built", "pages", numPages, "sections", len(result))
	return result, nil
}
