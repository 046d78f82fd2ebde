package structlog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// Logger is the caller-facing surface: one method per severity plus a generic
// Log/Logf pair, and the context-binding operations. Implementations are
// immutable; Bind, Unbind, TryUnbind and New derive new loggers and leave the
// receiver untouched, so a Logger is safe for concurrent use.
//
// Chain misconfiguration (a ChainProtocolError or a failing processor)
// panics at the call site rather than vanishing: a broken pipeline is a
// programming error, and every record it silently ate would be a lie.
type Logger interface {
	// Debug logs msg at DebugLevel.
	Debug(msg string, keyvals ...any)
	// Info logs msg at InfoLevel.
	Info(msg string, keyvals ...any)
	// Warn logs msg at WarnLevel.
	Warn(msg string, keyvals ...any)
	// Error logs msg at ErrorLevel.
	Error(msg string, keyvals ...any)
	// Critical logs msg at CriticalLevel.
	Critical(msg string, keyvals ...any)
	// Log emits msg at the supplied level.
	Log(level Level, msg string, keyvals ...any)
	// Logf emits format at the supplied level with positional args attached
	// to the record. Interpolation is deferred to the FormatArgs processor so
	// a level filter ahead of it can reject the record before any formatting
	// work happens.
	Logf(level Level, format string, args ...any)

	// Bind returns a logger whose context is the union of the current context
	// and keyvals, new keys overriding old on collision.
	Bind(keyvals ...any) Logger
	// Unbind returns a logger with keys removed from the context. It fails
	// with a *KeyNotBoundError when any key is absent.
	Unbind(keys ...string) (Logger, error)
	// TryUnbind is Unbind that silently ignores absent keys.
	TryUnbind(keys ...string) Logger
	// New returns a logger whose context is exactly keyvals, discarding the
	// current context.
	New(keyvals ...any) Logger

	// Name returns the channel name the logger was resolved under.
	Name() string
}

type field struct {
	key   string
	value any
}

// collectFields normalizes a variadic key/value list into ordered fields. A
// trailing value without a key is kept under a synthetic argN key, and
// non-string keys are stringified.
func collectFields(keyvals []any) []field {
	if len(keyvals) == 0 {
		return nil
	}
	fields := make([]field, 0, (len(keyvals)+1)/2)
	pair := 0
	for i := 0; i < len(keyvals); {
		if i+1 < len(keyvals) {
			fields = append(fields, field{key: keyFromValue(keyvals[i], pair), value: keyvals[i+1]})
			i += 2
			pair++
			continue
		}
		fields = append(fields, field{key: argKeyName(pair), value: keyvals[i]})
		i++
		pair++
	}
	return fields
}

func keyFromValue(v any, pair int) string {
	switch k := v.(type) {
	case nil:
		return argKeyName(pair)
	case string:
		return k
	case fmt.Stringer:
		return k.String()
	default:
		return fmt.Sprint(v)
	}
}

func argKeyName(pair int) string {
	return "arg" + strconv.Itoa(pair)
}

func cloneFields(src []field) []field {
	if len(src) == 0 {
		return nil
	}
	dst := make([]field, len(src))
	copy(dst, src)
	return dst
}

// mergeBound unions extra into a copy of base. Re-bound keys keep their
// original position and take the new value.
func mergeBound(base, extra []field) []field {
	if len(extra) == 0 {
		return cloneFields(base)
	}
	merged := make([]field, len(base), len(base)+len(extra))
	copy(merged, base)
outer:
	for _, f := range extra {
		for i := range merged {
			if merged[i].key == f.key {
				merged[i].value = f.value
				continue outer
			}
		}
		merged = append(merged, f)
	}
	return merged
}

type boundLogger struct {
	name    string
	fields  []field
	chain   []Processor
	channel Channel
}

// NewLogger constructs a bound logger directly from a chain and a channel,
// bypassing the registry. GetLogger is the usual entry point.
func NewLogger(name string, chain []Processor, channel Channel) Logger {
	if channel == nil {
		channel = nopChannel{}
	}
	return &boundLogger{name: name, chain: chain, channel: channel}
}

func (l *boundLogger) Debug(msg string, keyvals ...any) { l.log(DebugLevel, msg, nil, keyvals) }
func (l *boundLogger) Info(msg string, keyvals ...any)  { l.log(InfoLevel, msg, nil, keyvals) }
func (l *boundLogger) Warn(msg string, keyvals ...any)  { l.log(WarnLevel, msg, nil, keyvals) }
func (l *boundLogger) Error(msg string, keyvals ...any) { l.log(ErrorLevel, msg, nil, keyvals) }
func (l *boundLogger) Critical(msg string, keyvals ...any) {
	l.log(CriticalLevel, msg, nil, keyvals)
}

func (l *boundLogger) Log(level Level, msg string, keyvals ...any) {
	l.log(level, msg, nil, keyvals)
}

func (l *boundLogger) Logf(level Level, format string, args ...any) {
	l.log(level, format, args, nil)
}

// log builds the per-call record from an immutable context snapshot, runs the
// chain, and forwards the terminal value to the channel. Nothing shared is
// mutated on this path.
func (l *boundLogger) log(level Level, msg string, args []any, keyvals []any) {
	ev := NewEvent()
	for _, f := range l.fields {
		ev.Set(f.key, f.value)
	}
	for _, f := range collectFields(keyvals) {
		ev.Set(f.key, f.value)
	}
	ev.Set(KeyEvent, msg)
	if len(args) > 0 {
		ev.Set(KeyArgs, args)
	}
	rendered, err := runChain(l.chain, l.name, level, ev)
	if err != nil {
		if errors.Is(err, errDropped) {
			return
		}
		panic(fmt.Errorf("structlog: logger %q: %w", l.name, err))
	}
	l.channel.Log(level, rendered)
}

func (l *boundLogger) Bind(keyvals ...any) Logger {
	extra := collectFields(keyvals)
	if len(extra) == 0 {
		return l
	}
	clone := *l
	clone.fields = mergeBound(l.fields, extra)
	return &clone
}

func (l *boundLogger) Unbind(keys ...string) (Logger, error) {
	var missing []string
	for _, key := range keys {
		if !hasField(l.fields, key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &KeyNotBoundError{Keys: missing}
	}
	return l.TryUnbind(keys...), nil
}

func (l *boundLogger) TryUnbind(keys ...string) Logger {
	if len(keys) == 0 {
		return l
	}
	kept := make([]field, 0, len(l.fields))
	for _, f := range l.fields {
		if !containsKey(keys, f.key) {
			kept = append(kept, f)
		}
	}
	if len(kept) == len(l.fields) {
		return l
	}
	clone := *l
	clone.fields = kept
	return &clone
}

func (l *boundLogger) New(keyvals ...any) Logger {
	clone := *l
	clone.fields = collectFields(keyvals)
	return &clone
}

func (l *boundLogger) Name() string {
	return l.name
}

func hasField(fields []field, key string) bool {
	for _, f := range fields {
		if f.key == key {
			return true
		}
	}
	return false
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

type loggerContextKey struct{}

// ContextWithLogger returns a child context carrying logger.
func ContextWithLogger(ctx context.Context, logger Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// LoggerFromContext extracts a Logger from ctx if present or returns a no-op
// logger.
func LoggerFromContext(ctx context.Context) Logger {
	if ctx == nil {
		return noopLogger{}
	}
	if logger, ok := ctx.Value(loggerContextKey{}).(Logger); ok && logger != nil {
		return logger
	}
	return noopLogger{}
}

// Ctx is shorthand for LoggerFromContext.
func Ctx(ctx context.Context) Logger {
	return LoggerFromContext(ctx)
}
