// Package output defines the contract shared by the document-format emitters.
//
// A driver opens a Document once, streams body content through Write, Begin
// and End, and closes it once. Emitters own their own escaping rules.
package output

// Document is a write-only output document.
type Document interface {
	// Open acquires the destination and writes the format's header.
	Open() error
	// Write appends body text after applying the emitter's substitutions.
	Write(text string) error
	// Begin opens a named block (an environment, an element).
	Begin(name string) error
	// End closes a named block.
	End(name string) error
	// Close writes the footer and releases the destination. It always
	// releases, even when the footer write fails.
	Close() error
}
