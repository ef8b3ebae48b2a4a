// Package convert drives an output.Document from structured source formats.
//
// The converters only produce body content. Opening and closing the
// document, and declaring any preamble it needs, stay with the caller.
// Text is handed to Document.Write unescaped, so the emitter's own
// substitution rules apply.
package convert

import (
	"strings"

	"github.com/wudi/latexkit/output"
)

// bodyWriter forwards to a Document and keeps the first error.
type bodyWriter struct {
	doc  output.Document
	err  error
	last byte
}

func (w *bodyWriter) write(s string) {
	if w.err != nil || s == "" {
		return
	}
	if w.err = w.doc.Write(s); w.err == nil {
		w.last = s[len(s)-1]
	}
}

func (w *bodyWriter) begin(env string) {
	if w.err != nil {
		return
	}
	if w.err = w.doc.Begin(env); w.err == nil {
		w.last = '}'
	}
}

func (w *bodyWriter) end(env string) {
	if w.err != nil {
		return
	}
	if w.err = w.doc.End(env); w.err == nil {
		w.last = '}'
	}
}

// environment writes env around body, each marker on its own line.
func (w *bodyWriter) environment(env string, body func()) {
	w.begin(env)
	w.write("\n")
	body()
	w.end(env)
	w.write("\n\n")
}

// atBoundary reports whether the output currently ends in whitespace.
func (w *bodyWriter) atBoundary() bool {
	return w.last == 0 || w.last == ' ' || w.last == '\n'
}

func sectionCommand(level int) string {
	switch level {
	case 1:
		return `\section`
	case 2:
		return `\subsection`
	default:
		return `\subsubsection`
	}
}

const horizontalRule = `\noindent\hrulefill` + "\n\n"

// textEscaper escapes the LaTeX specials the Document leaves alone. "&" and
// the accented vowels are substituted by the Document itself.
var textEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`{`, `\{`,
	`}`, `\}`,
	`%`, `\%`,
	`$`, `\$`,
	`_`, `\_`,
	`#`, `\#`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// Escape makes prose safe to write as LaTeX body text.
func Escape(s string) string {
	return textEscaper.Replace(s)
}
