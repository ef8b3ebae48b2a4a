package latex

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"

	"github.com/wudi/latexkit/observability"
)

const header = "\\documentclass[12pt,a4paper]{article}\n" +
	"\\usepackage[utf8]{inputenc}\n" +
	"\\usepackage[top=3cm, bottom=3cm, left=3cm, right=6cm, marginparwidth=4cm]{geometry}\n"

const bodyStart = "\\renewcommand{\\baselinestretch}{1.50}\n" +
	"\\begin{document}\n"

const footer = "\\end{document}\n"

// render builds a document at a temp path and returns the file content.
func render(t *testing.T, preamble func(d *Document), body func(d *Document), opts ...Option) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.tex")
	opts = append([]Option{WithLineSeparator("\n")}, opts...)
	d := New(path, opts...)
	if preamble != nil {
		preamble(d)
	}
	require.NoError(t, d.Open())
	if body != nil {
		body(d)
	}
	require.NoError(t, d.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestNewDoesNoIO(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tex")
	d := New(path)

	assert.Equal(t, path, d.Path())
	assert.Equal(t, StateUnopened, d.State())
	assert.Empty(t, d.Preamble())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestEmptyDocument(t *testing.T) {
	got := render(t, nil, nil)
	assert.Equal(t, header+bodyStart+footer, got)
}

func TestPreambleOrder(t *testing.T) {
	got := render(t, func(d *Document) {
		d.UsePackage("amsmath")
		d.AddPreambleLine(`\title{Report}`)
		d.UsePackage("hyperref", "hidelinks")
		d.AddPreambleLine(`\author{Somebody}`)
	}, nil)

	want := header +
		"\\usepackage{amsmath}\n" +
		"\\title{Report}\n" +
		"\\usepackage[hidelinks]{hyperref}\n" +
		"\\author{Somebody}\n" +
		bodyStart + footer
	assert.Equal(t, want, got)
}

func TestUsePackage(t *testing.T) {
	tests := []struct {
		name    string
		pkg     string
		options []string
		want    string
	}{
		{"no options", "geometry", nil, "\\usepackage{geometry}\n"},
		{"one option", "geometry", []string{"margin=1in"}, "\\usepackage[margin=1in]{geometry}\n"},
		{"several options", "babel", []string{"english", "greek"}, "\\usepackage[english,greek]{babel}\n"},
		{"empty option", "x", []string{""}, "\\usepackage[]{x}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New("unused.tex")
			d.UsePackage(tt.pkg, tt.options...)
			assert.Equal(t, []string{tt.want}, d.Preamble())
		})
	}
}

func TestAddPreambleLineIsVerbatim(t *testing.T) {
	d := New("unused.tex")
	d.AddPreambleLine(`\newcommand{\R}{\mathbb{R}} & ē`)
	assert.Equal(t, []string{"\\newcommand{\\R}{\\mathbb{R}} & ē\n"}, d.Preamble())
}

func TestPreambleCopy(t *testing.T) {
	d := New("unused.tex")
	d.UsePackage("a")
	p := d.Preamble()
	p[0] = "mutated"
	assert.Equal(t, []string{"\\usepackage{a}\n"}, d.Preamble())
}

func TestSubstitute(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"A & B", `A \& B`},
		{"cafē", `caf\~{e}`},
		{"ā ū ę ō", `\~{a} \~{u} \c{e} \~{o}`},
		{"&&", `\&\&`},
		{`50% of $x_1 #{}\`, `50% of $x_1 #{}\`},
		{"line1\nline2", "line1\r\nline2"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Substitute(tt.in, "\r\n"))
		})
	}
}

func TestWrite(t *testing.T) {
	got := render(t, nil, func(d *Document) {
		require.NoError(t, d.Write("A & B"))
		require.NoError(t, d.Write(" cafē\n"))
	})
	assert.Equal(t, header+bodyStart+"A \\& B caf\\~{e}\n"+footer, got)
}

func TestWriteTranslatesNewlines(t *testing.T) {
	got := render(t, nil, func(d *Document) {
		require.NoError(t, d.Write("line1\nline2"))
	}, WithLineSeparator("\r\n"))

	assert.Contains(t, got, "line1\r\nline2")
	// Header and footer keep plain newlines.
	assert.True(t, strings.HasSuffix(got, "line2"+footer))
}

func TestDefaultLineSeparator(t *testing.T) {
	d := New("unused.tex")
	assert.Equal(t, platformLineSeparator(), d.LineSeparator())
}

func TestBeginEnd(t *testing.T) {
	got := render(t, nil, func(d *Document) {
		require.NoError(t, d.Begin("itemize"))
		require.NoError(t, d.End("itemize"))
	})
	assert.Equal(t, header+bodyStart+"\\begin{itemize}\\end{itemize}"+footer, got)
}

func TestWellFormedOutput(t *testing.T) {
	got := render(t, func(d *Document) {
		d.UsePackage("graphicx")
	}, func(d *Document) {
		require.NoError(t, d.Write("Hello\n"))
		require.NoError(t, d.Begin("quote"))
		require.NoError(t, d.Write("\nquoted & done\n"))
		require.NoError(t, d.End("quote"))
		require.NoError(t, d.Write("\n"))
	})

	assert.True(t, strings.HasPrefix(got, `\documentclass[12pt,a4paper]{article}`))
	assert.Equal(t, 1, strings.Count(got, `\begin{document}`))
	assert.Equal(t, 1, strings.Count(got, `\end{document}`))
	assert.True(t, strings.HasSuffix(got, footer))
}

func TestNormalization(t *testing.T) {
	decomposed := "cafe\u0304"

	plain := render(t, nil, func(d *Document) {
		require.NoError(t, d.Write(decomposed))
	})
	assert.Contains(t, plain, decomposed)

	normalized := render(t, nil, func(d *Document) {
		require.NoError(t, d.Write(decomposed))
	}, WithNormalization(norm.NFC))
	assert.Contains(t, normalized, `caf\~{e}`)
}

func TestCloseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tex")
	d := New(path)
	require.NoError(t, d.Open())
	require.NoError(t, d.Write("body"))
	require.NoError(t, d.Close())

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.NoError(t, d.Close())
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, StateClosed, d.State())
}

func TestBytesWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tex")
	d := New(path)
	assert.Zero(t, d.BytesWritten())
	require.NoError(t, d.Open())
	require.NoError(t, d.Write("body"))
	require.NoError(t, d.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), d.BytesWritten())
}

func TestIllegalState(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "out.tex"))

	err := d.Write("early")
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, err, ErrIllegalState)
	assert.ErrorIs(t, d.Begin("x"), ErrNotOpen)

	require.NoError(t, d.Open())
	assert.ErrorIs(t, d.Open(), ErrAlreadyOpen)
	require.NoError(t, d.Close())

	err = d.Write("late")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, err, ErrIllegalState)
	assert.ErrorIs(t, d.End("x"), ErrClosed)
	assert.ErrorIs(t, d.Open(), ErrClosed)
}

func TestCloseUnopened(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tex")
	d := New(path)
	assert.NoError(t, d.Close())
	assert.Equal(t, StateClosed, d.State())
	assert.ErrorIs(t, d.Open(), ErrClosed)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestOpenUnwritableDestination(t *testing.T) {
	var logs bytes.Buffer
	// A directory cannot be created as a file, even with root privileges.
	dir := t.TempDir()
	d := New(dir, WithLogger(observability.NewZerolog(zerolog.New(&logs))))

	err := d.Open()
	require.Error(t, err)
	var pe *PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "open", pe.Op)
	assert.Equal(t, dir, pe.Path)
	assert.Contains(t, logs.String(), "latex document I/O failed")

	assert.Equal(t, StateClosed, d.State())
	assert.ErrorIs(t, d.Write("x"), ErrClosed)
	assert.NoError(t, d.Close())
}

func TestOpenMissingDirectory(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "missing", "out.tex"))
	err := d.Open()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// sink is an in-memory destination whose writes can be made to fail.
type sink struct {
	buf    bytes.Buffer
	err    error
	closed int
}

func (s *sink) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.buf.Write(p)
}

func (s *sink) Close() error {
	s.closed++
	return nil
}

func withSink(s *sink) Option {
	return WithOpener(func(string) (io.WriteCloser, error) { return s, nil })
}

func TestOpenHeaderFailureReleasesSink(t *testing.T) {
	s := &sink{err: errors.New("disk full")}
	d := New("mem.tex", withSink(s))

	err := d.Open()
	require.Error(t, err)
	var pe *PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "write header", pe.Op)
	assert.Equal(t, 1, s.closed)
	assert.Equal(t, StateClosed, d.State())
}

func TestCloseReleasesOnFooterFailure(t *testing.T) {
	s := &sink{}
	d := New("mem.tex", withSink(s), WithLineSeparator("\n"))
	require.NoError(t, d.Open())
	assert.Equal(t, header+bodyStart, s.buf.String())

	require.NoError(t, d.Write("buffered"))
	s.err = errors.New("disk full")

	err := d.Close()
	var pe *PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "write footer", pe.Op)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, s.closed)
	assert.Equal(t, StateClosed, d.State())

	assert.NoError(t, d.Close())
	assert.Equal(t, 1, s.closed)
}

func TestWriteFailure(t *testing.T) {
	s := &sink{}
	d := New("mem.tex", withSink(s))
	require.NoError(t, d.Open())
	s.err = errors.New("disk full")

	err := d.Write(strings.Repeat("x", 8192))
	var pe *PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "write", pe.Op)
	assert.Equal(t, "mem.tex", pe.Path)
	assert.Equal(t, StateOpen, d.State())

	assert.Error(t, d.Close())
	assert.Equal(t, 1, s.closed)
}

func TestBufferedWriteFailureSurfacesAtClose(t *testing.T) {
	var logs bytes.Buffer
	s := &sink{}
	d := New("mem.tex", withSink(s), WithLogger(observability.NewZerolog(zerolog.New(&logs))))
	require.NoError(t, d.Open())
	s.err = errors.New("disk full")

	// Fits in the buffer, so nothing reaches the sink yet.
	require.NoError(t, d.Write("body that is lost"))

	err := d.Close()
	var pe *PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "write footer", pe.Op)
	assert.Contains(t, logs.String(), `"op":"write footer"`)
	assert.NotContains(t, logs.String(), `"op":"close"`)
}

type closeErrSink struct{ sink }

func (s *closeErrSink) Close() error {
	s.closed++
	return errors.New("close failed")
}

func TestCloseReportsReleaseFailure(t *testing.T) {
	s := &closeErrSink{}
	d := New("mem.tex", WithOpener(func(string) (io.WriteCloser, error) { return s, nil }))
	require.NoError(t, d.Open())

	err := d.Close()
	var pe *PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "close", pe.Op)
	assert.True(t, strings.HasSuffix(s.buf.String(), footer))
	assert.Equal(t, StateClosed, d.State())
}

func TestLatePreambleEntryWarns(t *testing.T) {
	var logs bytes.Buffer
	s := &sink{}
	d := New("mem.tex", withSink(s), WithLogger(observability.NewZerolog(zerolog.New(&logs))))
	require.NoError(t, d.Open())

	d.UsePackage("late")
	assert.Contains(t, logs.String(), "preamble entry added after open")
	require.NoError(t, d.Close())
	assert.NotContains(t, s.buf.String(), "late")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unopened", StateUnopened.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", State(9).String())
}
