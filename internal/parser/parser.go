package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docoutline/internal/outline"
)

// Parser decodes raw document bytes into pages of text fragments.
type Parser interface {
	Parse(r io.Reader, filename string) (outline.Document, error)
}

// Synthetic typography for formats that mark headings structurally
// rather than typographically.
const (
	structuredHeadingFont = "Outline-Bold"
	structuredHeadingSize = 16
	structuredBodyFont    = "Outline-Regular"
	structuredBodySize    = 10
)

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// OpenFile reads and decodes the document at path. The file handle is
// released before returning; the Document is fully in memory.
func OpenFile(path string) (outline.Document, error) {
	p, err := ForFile(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &outline.DocumentReadError{Source: path, Err: err}
	}
	return p.Parse(bytes.NewReader(data), filepath.Base(path))
}

// Title derives a document title from its filename.
func Title(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func readError(filename string, err error) error {
	return &outline.DocumentReadError{Source: filename, Err: err}
}

// blockCollector gathers heading and body fragments for single-page
// structured formats.
type blockCollector struct {
	fragments []outline.Fragment
}

func (c *blockCollector) heading(text string) {
	c.fragments = append(c.fragments, outline.Fragment{
		Text:     text,
		Size:     structuredHeadingSize,
		FontName: structuredHeadingFont,
	})
}

func (c *blockCollector) body(text string) {
	if text == "" {
		return
	}
	c.fragments = append(c.fragments, outline.Fragment{
		Text:     text,
		Size:     structuredBodySize,
		FontName: structuredBodyFont,
	})
}

func (c *blockCollector) document() outline.Document {
	if len(c.fragments) == 0 {
		return outline.StaticDocument{}
	}
	return outline.StaticDocument{c.fragments}
}
