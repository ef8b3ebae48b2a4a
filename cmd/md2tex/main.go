package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wudi/latexkit/convert"
	"github.com/wudi/latexkit/latex"
	"github.com/wudi/latexkit/observability"
	"github.com/wudi/latexkit/profile"
)

type options struct {
	input     string
	output    string
	format    string
	profile   string
	packages  []string
	verbosity int
}

func main() {
	if err := newRootCmd(os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "md2tex [flags] <input>",
		Short:        "Convert Markdown or HTML to a LaTeX article",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			opts.input = args[0]
			logger := newLogger(logOut, opts.verbosity)
			if err := run(opts, logger); err != nil {
				logger.Error("conversion failed", observability.Error("error", err))
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output .tex path (default: input with .tex extension)")
	cmd.Flags().StringVar(&opts.format, "format", "", "input format: markdown or html (default: from extension)")
	cmd.Flags().StringVarP(&opts.profile, "profile", "c", "", "TOML preamble profile")
	cmd.Flags().StringArrayVarP(&opts.packages, "package", "p", nil, "extra package as name[:opt1,opt2] (repeatable)")
	cmd.Flags().CountVarP(&opts.verbosity, "verbose", "v", "increase log verbosity")
	return cmd
}

func newLogger(w io.Writer, verbosity int) observability.Logger {
	level := zerolog.WarnLevel
	switch verbosity {
	case 0:
	case 1:
		level = zerolog.InfoLevel
	case 2:
		level = zerolog.DebugLevel
	default:
		level = zerolog.TraceLevel
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	l := zerolog.New(console).Level(level).With().Timestamp().Logger()
	return observability.NewZerolog(l)
}

func run(opts options, logger observability.Logger) error {
	format, err := inputFormat(opts.input, opts.format)
	if err != nil {
		return err
	}
	output := opts.output
	if output == "" {
		output = strings.TrimSuffix(opts.input, filepath.Ext(opts.input)) + ".tex"
	}

	src, err := os.ReadFile(opts.input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	docOpts := []latex.Option{latex.WithLogger(logger.With(observability.String(observability.KeyComponent, "latex")))}
	var prof *profile.Profile
	if opts.profile != "" {
		if prof, err = profile.Load(opts.profile); err != nil {
			return err
		}
		docOpts = append(docOpts, prof.Options()...)
	}

	doc := latex.New(output, docOpts...)
	if prof != nil {
		prof.Apply(doc)
	}
	for _, arg := range opts.packages {
		pkg, err := profile.ParsePackage(arg)
		if err != nil {
			return err
		}
		doc.UsePackage(pkg.Name, pkg.Options...)
	}

	if err := doc.Open(); err != nil {
		return err
	}
	switch format {
	case "markdown":
		err = convert.Markdown(doc, src)
	case "html":
		err = convert.HTML(doc, bytes.NewReader(src))
	}
	if cerr := doc.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	logger.Info("wrote latex document",
		observability.String(observability.KeyPath, output),
		observability.Int64(observability.KeyBytes, doc.BytesWritten()))
	return nil
}

func inputFormat(path, explicit string) (string, error) {
	if explicit != "" {
		switch f := strings.ToLower(explicit); f {
		case "markdown", "md":
			return "markdown", nil
		case "html", "htm":
			return "html", nil
		default:
			return "", fmt.Errorf("unknown format %q", explicit)
		}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return "markdown", nil
	case ".html", ".htm":
		return "html", nil
	}
	return "", fmt.Errorf("cannot infer format of %q, use --format", path)
}
