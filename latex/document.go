// Package latex writes LaTeX source files.
//
// A Document collects preamble directives, then on Open writes a fixed
// article header followed by the preamble. Body text written through Write
// goes through a small fixed substitution table. Close writes the footer.
package latex

import (
	"bufio"
	"io"
	"runtime"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/wudi/latexkit/observability"
	"github.com/wudi/latexkit/output"
)

// Page setup written by every document.
const (
	FontSize        = "12pt"
	PaperSize       = "a4paper"
	MarginTop       = "3cm"
	MarginBottom    = "3cm"
	MarginLeft      = "3cm"
	MarginRight     = "6cm"
	MarginParWidth  = "4cm"
	BaselineStretch = "1.50"
)

// MaxLineLength is the advisory line length for body text. Write does not
// enforce it.
const MaxLineLength = 1024

const (
	documentClassLine   = `\documentclass[` + FontSize + `,` + PaperSize + `]{article}`
	inputEncodingLine   = `\usepackage[utf8]{inputenc}`
	geometryLine        = `\usepackage[top=` + MarginTop + `, bottom=` + MarginBottom + `, left=` + MarginLeft + `, right=` + MarginRight + `, marginparwidth=` + MarginParWidth + `]{geometry}`
	baselineStretchLine = `\renewcommand{\baselinestretch}{` + BaselineStretch + `}`
	beginDocumentLine   = `\begin{document}`
	endDocumentLine     = `\end{document}`
)

// State is the lifecycle phase of a Document.
type State int

const (
	StateUnopened State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Document is a LaTeX source file being written. It is not safe for
// concurrent use.
type Document struct {
	path     string
	preamble []string
	state    State

	opener Opener
	file   io.WriteCloser
	count  *countWriter
	sink   *bufio.Writer

	lineSeparator string
	normalize     bool
	form          norm.Form

	log observability.Logger
}

var _ output.Document = (*Document)(nil)

// New creates a Document for path. No I/O happens until Open.
func New(path string, opts ...Option) *Document {
	d := &Document{
		path:          path,
		opener:        createFile,
		lineSeparator: platformLineSeparator(),
		log:           observability.NopLogger{},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With(observability.String(observability.KeyPath, path))
	return d
}

func platformLineSeparator() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// Path returns the destination path.
func (d *Document) Path() string { return d.path }

// State returns the current lifecycle phase.
func (d *Document) State() State { return d.state }

// LineSeparator returns the separator substituted for "\n" in body text.
func (d *Document) LineSeparator() string { return d.lineSeparator }

// Preamble returns a copy of the accumulated preamble entries, each with its
// trailing newline.
func (d *Document) Preamble() []string {
	out := make([]string, len(d.preamble))
	copy(out, d.preamble)
	return out
}

// BytesWritten reports the bytes handed to the sink so far.
func (d *Document) BytesWritten() int64 {
	if d.count == nil {
		return 0
	}
	return d.count.n
}

// UsePackage declares \usepackage{name}, or \usepackage[options]{name} when
// options are given. Multiple options are joined with commas.
func (d *Document) UsePackage(name string, options ...string) {
	if len(options) == 0 {
		d.addPreamble(`\usepackage{` + name + "}\n")
		return
	}
	d.addPreamble(`\usepackage[` + strings.Join(options, ",") + `]{` + name + "}\n")
}

// AddPreambleLine appends a raw preamble line. The line is not validated or
// substituted.
func (d *Document) AddPreambleLine(line string) {
	d.addPreamble(line + "\n")
}

func (d *Document) addPreamble(entry string) {
	if d.state != StateUnopened {
		d.log.Warn("preamble entry added after open is never written",
			observability.String("entry", strings.TrimSuffix(entry, "\n")),
			observability.String("state", d.state.String()))
	}
	d.preamble = append(d.preamble, entry)
}

// Open creates or truncates the destination and writes the header, the
// preamble and \begin{document}. On failure the document is closed and
// cannot be reopened.
func (d *Document) Open() error {
	switch d.state {
	case StateOpen:
		return ErrAlreadyOpen
	case StateClosed:
		return ErrClosed
	}

	f, err := d.opener(d.path)
	if err != nil {
		d.state = StateClosed
		return d.fail("open", err)
	}
	d.file = f
	d.count = &countWriter{w: f}
	d.sink = bufio.NewWriter(d.count)
	d.state = StateOpen

	if err := d.writeHeader(); err != nil {
		d.release()
		d.state = StateClosed
		return d.fail("write header", err)
	}

	d.log.Debug("latex document opened",
		observability.Int(observability.KeyEntries, len(d.preamble)))
	return nil
}

func (d *Document) writeHeader() error {
	lines := []string{documentClassLine, inputEncodingLine, geometryLine}
	for _, line := range lines {
		if _, err := d.sink.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	for _, entry := range d.preamble {
		if _, err := d.sink.WriteString(entry); err != nil {
			return err
		}
	}
	for _, line := range []string{baselineStretchLine, beginDocumentLine} {
		if _, err := d.sink.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return d.sink.Flush()
}

// Write substitutes text and appends it to the body. No line break is added.
// Body text is buffered: a sink failure is returned by the Write that fills
// the buffer, or by Close as a "write footer" error.
func (d *Document) Write(text string) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	if d.normalize {
		text = d.form.String(text)
	}
	if _, err := d.sink.WriteString(Substitute(text, d.lineSeparator)); err != nil {
		return d.fail("write", err)
	}
	return nil
}

// Begin writes \begin{env} with no trailing newline.
func (d *Document) Begin(env string) error {
	return d.Write(`\begin{` + env + `}`)
}

// End writes \end{env} with no trailing newline.
func (d *Document) End(env string) error {
	return d.Write(`\end{` + env + `}`)
}

// Close writes \end{document} and releases the sink. The sink is released
// even when the footer write fails; the first error is returned. Calling
// Close again is a no-op.
func (d *Document) Close() error {
	switch d.state {
	case StateClosed:
		return nil
	case StateUnopened:
		d.state = StateClosed
		return nil
	}

	var first error
	if _, err := d.sink.WriteString(endDocumentLine + "\n"); err != nil {
		first = d.fail("write footer", err)
	} else if err := d.sink.Flush(); err != nil {
		first = d.fail("write footer", err)
	}
	if err := d.release(); err != nil && first == nil {
		first = d.fail("close", err)
	}
	d.state = StateClosed

	d.log.Debug("latex document closed",
		observability.Int64(observability.KeyBytes, d.BytesWritten()))
	return first
}

// release flushes and closes the sink, dropping it whatever happens.
func (d *Document) release() error {
	if d.file == nil {
		return nil
	}
	err := d.sink.Flush()
	if cerr := d.file.Close(); err == nil {
		err = cerr
	}
	d.file = nil
	d.sink = nil
	return err
}

func (d *Document) checkOpen() error {
	switch d.state {
	case StateUnopened:
		return ErrNotOpen
	case StateClosed:
		return ErrClosed
	}
	return nil
}

func (d *Document) fail(op string, err error) error {
	wrapped := &PathError{Op: op, Path: d.path, Err: err}
	d.log.Error("latex document I/O failed",
		observability.String(observability.KeyOp, op),
		observability.Error("error", err))
	return wrapped
}
