package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. ATX and setext
// headings become heading fragments; every other top-level block becomes
// one body fragment.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (outline.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, readError(filename, err)
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var c blockCollector
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if _, ok := n.(*ast.Heading); ok {
			c.heading(extractText(n, src))
			continue
		}
		c.body(extractText(n, src))
	}
	return c.document(), nil
}

// extractText gets the text content of a goldmark AST node. Code and raw
// HTML blocks keep their source lines; everything else is rebuilt from
// inline children so paragraph text is not emitted twice.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	switch n.(type) {
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			if buf.Len() > 0 && c.Type() == ast.TypeBlock {
				buf.WriteByte('\n')
			}
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
