package structlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Channel is one named handle of an emitter. The core never bypasses it: all
// output goes through Log so the emitter's own dispatch, thresholds and sinks
// continue to apply unchanged.
type Channel interface {
	// Log forwards a terminal chain value at the given severity. The value is
	// conventionally a string or []byte; a *Wrapped payload defers rendering
	// to Formatter instances downstream.
	Log(level Level, rendered any)
	// EffectiveLevel returns the channel's current threshold. It is a live
	// value; thresholds can change at runtime.
	EffectiveLevel() Level
}

// EmitterFactory resolves channel names to emitter handles.
type EmitterFactory interface {
	Channel(name string) Channel
}

// ThresholdSource answers live effective-threshold queries by channel name.
// Both built-in emitter factories implement it, which is what NewLevelFilter
// consumes.
type ThresholdSource interface {
	EffectiveLevel(name string) Level
}

// SlogEmitter routes rendered output through named *slog.Logger channels that
// share one root handler. Each channel carries its own slog.LevelVar, so the
// legacy layer's handler and sink configuration keeps working and thresholds
// stay adjustable at runtime.
type SlogEmitter struct {
	mu           sync.Mutex
	handler      slog.Handler
	defaultLevel Level
	channels     map[string]*slogChannel
}

// NewSlogEmitter returns a factory over handler. A nil handler falls back to
// slog's process default. New channels start at InfoLevel.
func NewSlogEmitter(handler slog.Handler) *SlogEmitter {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SlogEmitter{
		handler:      handler,
		defaultLevel: InfoLevel,
		channels:     make(map[string]*slogChannel),
	}
}

// Channel resolves name, creating the channel on first use.
func (e *SlogEmitter) Channel(name string) Channel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.channel(name)
}

func (e *SlogEmitter) channel(name string) *slogChannel {
	if ch, ok := e.channels[name]; ok {
		return ch
	}
	level := new(slog.LevelVar)
	level.Set(e.defaultLevel.SlogLevel())
	ch := &slogChannel{
		name:   name,
		level:  level,
		logger: slog.New(&leveledHandler{min: level, next: e.handler}),
	}
	e.channels[name] = ch
	return ch
}

// SetLevel adjusts the threshold of name, creating the channel when absent.
func (e *SlogEmitter) SetLevel(name string, level Level) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.channel(name).level.Set(level.SlogLevel())
}

// SetDefaultLevel sets the threshold channels created afterwards start with.
func (e *SlogEmitter) SetDefaultLevel(level Level) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.defaultLevel = level
}

// EffectiveLevel implements ThresholdSource.
func (e *SlogEmitter) EffectiveLevel(name string) Level {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.channel(name).EffectiveLevel()
}

type slogChannel struct {
	name   string
	level  *slog.LevelVar
	logger *slog.Logger
}

func (c *slogChannel) Log(level Level, rendered any) {
	ctx := context.Background()
	switch v := rendered.(type) {
	case *Wrapped:
		c.logger.LogAttrs(ctx, level.SlogLevel(), v.Event().Message(), slog.Any(WrappedAttrKey, v))
	case string:
		c.logger.Log(ctx, level.SlogLevel(), v)
	case []byte:
		c.logger.Log(ctx, level.SlogLevel(), string(v))
	default:
		c.logger.Log(ctx, level.SlogLevel(), fmt.Sprint(v))
	}
}

func (c *slogChannel) EffectiveLevel() Level {
	return LevelFromSlog(c.level.Level())
}

// leveledHandler gates a shared handler behind a per-channel level variable.
type leveledHandler struct {
	min  *slog.LevelVar
	next slog.Handler
}

func (h *leveledHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level < h.min.Level() {
		return false
	}
	return h.next.Enabled(ctx, level)
}

func (h *leveledHandler) Handle(ctx context.Context, rec slog.Record) error {
	return h.next.Handle(ctx, rec)
}

func (h *leveledHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &leveledHandler{min: h.min, next: h.next.WithAttrs(attrs)}
}

func (h *leveledHandler) WithGroup(name string) slog.Handler {
	return &leveledHandler{min: h.min, next: h.next.WithGroup(name)}
}

// WriterEmitter is the direct-render factory: rendered lines go straight to
// one io.Writer, newline-terminated, with no legacy layer in between. All
// channels share a mutex so lines never interleave.
type WriterEmitter struct {
	mu           sync.Mutex
	w            io.Writer
	defaultLevel Level
	levels       map[string]Level
}

// NewWriterEmitter returns a factory writing to w. Channels start at
// DebugLevel, i.e. nothing is filtered unless SetLevel says so.
func NewWriterEmitter(w io.Writer) *WriterEmitter {
	if w == nil {
		w = io.Discard
	}
	return &WriterEmitter{w: w, defaultLevel: DebugLevel, levels: make(map[string]Level)}
}

// Channel resolves name. Channels are stateless views over the factory.
func (e *WriterEmitter) Channel(name string) Channel {
	return &writerChannel{emitter: e, name: name}
}

// SetLevel adjusts the threshold of name.
func (e *WriterEmitter) SetLevel(name string, level Level) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.levels[name] = level
}

// SetDefaultLevel sets the threshold for channels without an explicit level.
func (e *WriterEmitter) SetDefaultLevel(level Level) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.defaultLevel = level
}

// EffectiveLevel implements ThresholdSource.
func (e *WriterEmitter) EffectiveLevel(name string) Level {
	e.mu.Lock()
	defer e.mu.Unlock()
	if level, ok := e.levels[name]; ok {
		return level
	}
	return e.defaultLevel
}

func (e *WriterEmitter) write(line string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	// Write failures are the sink's concern; wrap w in an ObservedWriter to
	// count them.
	_, _ = io.WriteString(e.w, line)
	_, _ = io.WriteString(e.w, "\n")
}

type writerChannel struct {
	emitter *WriterEmitter
	name    string
}

func (c *writerChannel) Log(level Level, rendered any) {
	if level < c.emitter.EffectiveLevel(c.name) {
		return
	}
	switch v := rendered.(type) {
	case string:
		c.emitter.write(v)
	case []byte:
		c.emitter.write(string(v))
	case *Wrapped:
		// No Formatter downstream to finish the render; fall back to logfmt.
		c.emitter.write(logfmtLine(v.Event()))
	default:
		c.emitter.write(fmt.Sprint(v))
	}
}

func (c *writerChannel) EffectiveLevel() Level {
	return c.emitter.EffectiveLevel(c.name)
}

type nopEmitter struct{}

// NewNopEmitter returns a factory whose channels discard everything and
// report Disabled as their threshold.
func NewNopEmitter() EmitterFactory { return nopEmitter{} }

func (nopEmitter) Channel(string) Channel { return nopChannel{} }

// EffectiveLevel implements ThresholdSource.
func (nopEmitter) EffectiveLevel(string) Level { return Disabled }

type nopChannel struct{}

func (nopChannel) Log(Level, any)        {}
func (nopChannel) EffectiveLevel() Level { return Disabled }
