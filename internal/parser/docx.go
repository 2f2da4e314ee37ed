package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Paragraphs styled HeadingN (or
// "heading N") become heading fragments.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (outline.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, readError(filename, err)
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, readError(filename, err)
	}

	var c blockCollector
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		if isDocxHeading(para) {
			c.heading(text)
		} else {
			c.body(text)
		}
	}
	return c.document(), nil
}

func isDocxHeading(para *docx.Paragraph) bool {
	if para.Properties == nil || para.Properties.Style == nil {
		return false
	}
	return isHeadingStyle(para.Properties.Style.Val)
}

// isHeadingStyle accepts Heading1 through Heading6, ignoring case and spaces.
func isHeadingStyle(style string) bool {
	style = strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if !strings.HasPrefix(style, "heading") {
		return false
	}
	level := strings.TrimPrefix(style, "heading")
	return len(level) == 1 && level[0] >= '1' && level[0] <= '6'
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
