package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/docoutline/internal/outline"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. <h1>..<h6> become heading fragments and
// paragraph-like elements become body fragments.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (outline.Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, readError(filename, err)
	}

	var c blockCollector
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if isHeadingTag(n.Data) {
				c.heading(textContent(n))
				return
			}
			switch n.Data {
			case "script", "style", "nav", "footer", "header", "title":
				return
			case "p", "li", "td", "blockquote", "pre":
				c.body(textContent(n))
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return c.document(), nil
}

func isHeadingTag(tag string) bool {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
