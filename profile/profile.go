// Package profile loads reusable preamble settings from TOML.
//
//	normalize = true
//	preamble = ['\title{Report}']
//
//	[[package]]
//	name = "hyperref"
//	options = ["hidelinks"]
package profile

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"

	"github.com/wudi/latexkit/latex"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("profile: invalid")

// Package is one \usepackage directive.
type Package struct {
	Name    string   `toml:"name"`
	Options []string `toml:"options"`
}

// Profile is a set of preamble directives applied to new documents.
type Profile struct {
	Normalize bool      `toml:"normalize"`
	Packages  []Package `toml:"package"`
	Preamble  []string  `toml:"preamble"`
}

// Load reads the profile at path.
func Load(path string) (*Profile, error) {
	var p Profile
	meta, err := toml.DecodeFile(path, &p)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if err := check(&p, meta); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &p, nil
}

// Decode reads a profile from r.
func Decode(r io.Reader) (*Profile, error) {
	var p Profile
	meta, err := toml.NewDecoder(r).Decode(&p)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if err := check(&p, meta); err != nil {
		return nil, err
	}
	return &p, nil
}

func check(p *Profile, meta toml.MetaData) error {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("%w: unknown keys %s", ErrInvalid, strings.Join(keys, ", "))
	}
	for i, pkg := range p.Packages {
		if strings.TrimSpace(pkg.Name) == "" {
			return fmt.Errorf("%w: package %d has no name", ErrInvalid, i+1)
		}
	}
	return nil
}

// Options returns the document options implied by the profile.
func (p *Profile) Options() []latex.Option {
	if p.Normalize {
		return []latex.Option{latex.WithNormalization(norm.NFC)}
	}
	return nil
}

// Apply declares packages and then raw preamble lines on doc, each in file
// order.
func (p *Profile) Apply(doc *latex.Document) {
	for _, pkg := range p.Packages {
		doc.UsePackage(pkg.Name, pkg.Options...)
	}
	for _, line := range p.Preamble {
		doc.AddPreambleLine(line)
	}
}

// ParsePackage parses "name" or "name:opt1,opt2" as given on a command line.
func ParsePackage(arg string) (Package, error) {
	name, opts, found := strings.Cut(arg, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return Package{}, fmt.Errorf("%w: package %q has no name", ErrInvalid, arg)
	}
	pkg := Package{Name: name}
	if found {
		pkg.Options = strings.Split(opts, ",")
	}
	return pkg, nil
}
