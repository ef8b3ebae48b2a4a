package observability

import "github.com/rs/zerolog"

// NewZerolog adapts a zerolog logger to Logger.
func NewZerolog(l zerolog.Logger) Logger {
	return zerologAdapter{l: l}
}

type zerologAdapter struct {
	l zerolog.Logger
}

func (z zerologAdapter) Debug(msg string, fields ...Field) { emit(z.l.Debug(), msg, fields) }
func (z zerologAdapter) Info(msg string, fields ...Field)  { emit(z.l.Info(), msg, fields) }
func (z zerologAdapter) Warn(msg string, fields ...Field)  { emit(z.l.Warn(), msg, fields) }
func (z zerologAdapter) Error(msg string, fields ...Field) { emit(z.l.Error(), msg, fields) }

func (z zerologAdapter) With(fields ...Field) Logger {
	return zerologAdapter{l: z.l.With().Fields(keyValues(fields)).Logger()}
}

func emit(e *zerolog.Event, msg string, fields []Field) {
	// disabled level
	if e == nil {
		return
	}
	e.Fields(keyValues(fields)).Msg(msg)
}

func keyValues(fields []Field) []interface{} {
	kv := make([]interface{}, 0, 2*len(fields))
	for _, f := range fields {
		kv = append(kv, f.Key(), f.Value())
	}
	return kv
}
