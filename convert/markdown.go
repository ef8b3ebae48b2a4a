package convert

import (
	"fmt"
	"strings"

	treeblood "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/wudi/latexkit/output"
)

// Markdown converts CommonMark source into body content on doc. Math in
// $...$ and $$...$$ is parsed by treeblood and written through as LaTeX.
func Markdown(doc output.Document, source []byte, opts ...goldmark.Option) error {
	opts = append([]goldmark.Option{goldmark.WithExtensions(treeblood.MathML())}, opts...)
	md := goldmark.New(opts...)
	root := md.Parser().Parse(text.NewReader(source))

	m := &markdownWriter{bodyWriter: bodyWriter{doc: doc}, src: source}
	m.block(root)
	if m.err != nil {
		return fmt.Errorf("convert: markdown: %w", m.err)
	}
	return nil
}

type markdownWriter struct {
	bodyWriter
	src []byte
}

func (m *markdownWriter) blocks(n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		m.block(c)
	}
}

func (m *markdownWriter) block(node ast.Node) {
	if ok, _ := isMath(node); ok {
		m.write(`\[` + m.mathSource(node) + `\]` + "\n\n")
		return
	}
	switch n := node.(type) {
	case *ast.Heading:
		m.write(sectionCommand(n.Level) + "{")
		m.inlines(n)
		m.write("}\n\n")
	case *ast.Paragraph:
		m.inlines(n)
		m.write("\n\n")
	case *ast.TextBlock:
		// Tight list items hold a TextBlock instead of a Paragraph.
		m.inlines(n)
		m.write("\n")
	case *ast.List:
		env := "itemize"
		if n.IsOrdered() {
			env = "enumerate"
		}
		m.environment(env, func() { m.blocks(n) })
	case *ast.ListItem:
		m.write(`\item `)
		m.blocks(n)
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		m.environment("verbatim", func() { m.lines(n) })
	case *ast.Blockquote:
		m.environment("quote", func() { m.blocks(n) })
	case *ast.ThematicBreak:
		m.write(horizontalRule)
	case *ast.HTMLBlock:
	default:
		m.blocks(n)
	}
}

func (m *markdownWriter) lines(n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		m.write(string(seg.Value(m.src)))
	}
}

func (m *markdownWriter) inlines(n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		m.inline(c)
	}
}

func (m *markdownWriter) inline(node ast.Node) {
	if ok, display := isMath(node); ok {
		if display {
			m.write(`\[` + m.mathSource(node) + `\]`)
		} else {
			m.write("$" + m.mathSource(node) + "$")
		}
		return
	}
	switch n := node.(type) {
	case *ast.Text:
		m.write(Escape(m.textValue(n)))
		switch {
		case n.HardLineBreak():
			m.write(`\\` + "\n")
		case n.SoftLineBreak():
			m.write("\n")
		}
	case *ast.String:
		m.write(Escape(string(n.Value)))
	case *ast.Emphasis:
		cmd := `\emph{`
		if n.Level >= 2 {
			cmd = `\textbf{`
		}
		m.write(cmd)
		m.inlines(n)
		m.write("}")
	case *ast.CodeSpan:
		m.write(`\texttt{`)
		m.inlines(n)
		m.write("}")
	case *ast.AutoLink:
		m.write(Escape(string(n.Label(m.src))))
	case *ast.RawHTML:
	default:
		// Links and images keep their text.
		m.inlines(n)
	}
}

// textValue resolves backslash escapes and character references the way
// goldmark's HTML renderer does. Raw segments (code spans) are left as is.
func (m *markdownWriter) textValue(n *ast.Text) string {
	v := n.Segment.Value(m.src)
	if n.IsRaw() {
		return string(v)
	}
	v = util.UnescapePunctuations(v)
	v = util.ResolveNumericReferences(v)
	v = util.ResolveEntityNames(v)
	return string(v)
}

// isMath matches treeblood's math nodes by kind name, so the walker only
// relies on the ast.Node interface. Block nodes and display kinds are
// reported as display math.
func isMath(n ast.Node) (ok, display bool) {
	kind := strings.ToLower(n.Kind().String())
	if !strings.Contains(kind, "math") {
		return false, false
	}
	display = n.Type() == ast.TypeBlock ||
		strings.Contains(kind, "display") ||
		strings.Contains(kind, "block")
	return true, display
}

// mathSource returns the TeX inside a math node, without delimiters.
func (m *markdownWriter) mathSource(n ast.Node) string {
	var sb strings.Builder
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			sb.Write(seg.Value(m.src))
		}
	}
	if sb.Len() == 0 {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				sb.Write(t.Segment.Value(m.src))
				if t.SoftLineBreak() || t.HardLineBreak() {
					sb.WriteByte('\n')
				}
			case *ast.String:
				sb.Write(t.Value)
			}
		}
	}
	s := strings.TrimSpace(sb.String())
	for _, delim := range []string{"$$", "$"} {
		if len(s) >= 2*len(delim) && strings.HasPrefix(s, delim) && strings.HasSuffix(s, delim) {
			s = strings.TrimSpace(s[len(delim) : len(s)-len(delim)])
			break
		}
	}
	return s
}
