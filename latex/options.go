package latex

import (
	"io"
	"os"

	"golang.org/x/text/unicode/norm"

	"github.com/wudi/latexkit/observability"
)

// Opener acquires the sink for a destination path.
type Opener func(path string) (io.WriteCloser, error)

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger used for lifecycle and I/O failure records.
func WithLogger(l observability.Logger) Option {
	return func(d *Document) {
		if l != nil {
			d.log = l
		}
	}
}

// WithLineSeparator overrides the platform line separator used when
// translating "\n" in body text.
func WithLineSeparator(sep string) Option {
	return func(d *Document) {
		d.lineSeparator = sep
	}
}

// WithOpener replaces the default create/truncate file opener.
func WithOpener(open Opener) Option {
	return func(d *Document) {
		if open != nil {
			d.opener = open
		}
	}
}

// WithNormalization normalizes body text to form before substitution, so
// decomposed input such as "ē" still matches the table.
func WithNormalization(form norm.Form) Option {
	return func(d *Document) {
		d.normalize = true
		d.form = form
	}
}

func createFile(path string) (io.WriteCloser, error) {
	return os.Create(path)
}
