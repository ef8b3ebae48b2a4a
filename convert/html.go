package convert

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/wudi/latexkit/output"
)

// HTML converts an HTML document into body content on doc.
func HTML(doc output.Document, r io.Reader) error {
	root, err := html.Parse(r)
	if err != nil {
		return fmt.Errorf("convert: html: %w", err)
	}
	h := &htmlWriter{bodyWriter: bodyWriter{doc: doc}}
	h.node(root)
	if h.err != nil {
		return fmt.Errorf("convert: html: %w", h.err)
	}
	return nil
}

type htmlWriter struct {
	bodyWriter
}

func (h *htmlWriter) node(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		h.text(n.Data)
		return
	case html.ElementNode:
		if h.element(n) {
			return
		}
	}
	h.children(n)
}

func (h *htmlWriter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		h.node(c)
	}
}

// element renders n and reports whether it was handled.
func (h *htmlWriter) element(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Head, atom.Script, atom.Style:
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		h.write(sectionCommand(headingLevel(n.DataAtom)) + "{")
		h.children(n)
		h.write("}\n\n")
	case atom.P:
		h.children(n)
		h.write("\n\n")
	case atom.Ul:
		h.environment("itemize", func() { h.children(n) })
	case atom.Ol:
		h.environment("enumerate", func() { h.children(n) })
	case atom.Li:
		h.write(`\item `)
		h.children(n)
		h.write("\n")
	case atom.Pre:
		body := extractText(n)
		if !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
		h.environment("verbatim", func() { h.write(body) })
	case atom.Blockquote:
		h.environment("quote", func() { h.children(n) })
	case atom.Em, atom.I:
		h.wrap(`\emph{`, n)
	case atom.Strong, atom.B:
		h.wrap(`\textbf{`, n)
	case atom.Code:
		h.wrap(`\texttt{`, n)
	case atom.Br:
		h.write(`\\` + "\n")
	case atom.Hr:
		h.write(horizontalRule)
	default:
		return false
	}
	return true
}

func (h *htmlWriter) wrap(cmd string, n *html.Node) {
	h.write(cmd)
	h.children(n)
	h.write("}")
}

// text collapses whitespace runs, drops leading space at a boundary and
// escapes LaTeX specials.
func (h *htmlWriter) text(s string) {
	s = collapseSpace(s)
	if h.atBoundary() {
		s = strings.TrimLeft(s, " ")
	}
	h.write(Escape(s))
}

func collapseSpace(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			space = true
			continue
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.WriteRune(r)
	}
	if space {
		sb.WriteByte(' ')
	}
	return sb.String()
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	default:
		return 3
	}
}

func extractText(n *html.Node) string {
	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return sb.String()
}
