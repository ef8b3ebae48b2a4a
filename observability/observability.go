// Package observability holds the logging hooks the emitters report through.
// Callers inject a Logger; the package keeps no global state.
package observability

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type Field interface {
	Key() string
	Value() interface{}
}

type field struct {
	key   string
	value interface{}
}

func (f field) Key() string        { return f.key }
func (f field) Value() interface{} { return f.value }

func String(key, value string) Field      { return field{key, value} }
func Int(key string, value int) Field     { return field{key, value} }
func Int64(key string, value int64) Field { return field{key, value} }
func Error(key string, err error) Field   { return field{key, err} }

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// Field keys shared by the emitters and the CLI.
const (
	KeyPath      = "path"
	KeyOp        = "op"
	KeyEntries   = "preamble_entries"
	KeyBytes     = "bytes"
	KeyComponent = "component"
)
