package structlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// normalizationPlaceholder substitutes for records the bridge cannot
// interpret. A bridge failure must never prevent the legacy emit path from
// completing, so Handle degrades to this instead of returning an error.
const normalizationPlaceholder = "(malformed log record)"

// Formatter is the dual-format bridge: a slog.Handler that renders both
// already-structured payloads (a bound logger whose chain ends in Wrap) and
// genuine slog-origin records onto one sink. Wrapped payloads went through
// the full chain upstream and are only rendered here; slog-origin records are
// first normalized through the Formatter's foreign pre-chain. Attach one
// Formatter per sink and fan out with Tee when a record should reach several
// independently-styled sinks.
type Formatter struct {
	mu       *sync.Mutex
	w        io.Writer
	renderer Processor
	pre      []Processor
	attrs    []boundAttr
	groups   []string
}

type boundAttr struct {
	groups []string
	attr   slog.Attr
}

// FormatterOption customizes NewFormatter.
type FormatterOption func(*Formatter)

// WithForeignChain sets the pre-chain run over slog-origin records before
// rendering, conventionally a subset of the main chain such as AddLevel and a
// Timestamper. Wrapped payloads skip it.
func WithForeignChain(steps ...Processor) FormatterOption {
	return func(f *Formatter) {
		f.pre = steps
	}
}

// NewFormatter builds a bridge writing newline-terminated renderer output to
// w. The renderer is the terminal processor producing the final line, e.g.
// NewConsoleRenderer or NewJSONRenderer.
func NewFormatter(w io.Writer, renderer Processor, opts ...FormatterOption) *Formatter {
	if w == nil {
		w = io.Discard
	}
	f := &Formatter{mu: new(sync.Mutex), w: w, renderer: renderer}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Enabled implements slog.Handler. Thresholding belongs to the legacy layer
// in front of the bridge, so every record that reaches Handle is formatted.
func (f *Formatter) Enabled(context.Context, slog.Level) bool { return true }

// Handle implements slog.Handler. It classifies the record once at entry as
// wrapped or legacy-origin and never returns an error: records the bridge
// cannot interpret degrade to a placeholder line.
func (f *Formatter) Handle(_ context.Context, rec slog.Record) error {
	defer func() {
		if recover() != nil {
			f.writeLine(normalizationPlaceholder)
		}
	}()
	var (
		chain []Processor
		name  string
		level Level
		ev    *Event
	)
	if wp := wrappedPayload(rec); wp != nil {
		chain = []Processor{f.renderer}
		name, level, ev = wp.Logger(), wp.Level(), wp.Event()
	} else {
		chain = make([]Processor, 0, len(f.pre)+1)
		chain = append(chain, f.pre...)
		chain = append(chain, f.renderer)
		level = LevelFromSlog(rec.Level)
		ev = f.synthesize(rec)
		if v, ok := ev.Get(KeyLogger); ok {
			name, _ = v.(string)
		}
	}
	rendered, err := runChain(chain, name, level, ev)
	if err != nil {
		if !errors.Is(err, errDropped) {
			f.writeLine(normalizationPlaceholder)
		}
		return nil
	}
	f.writeLine(renderedText(rendered))
	return nil
}

// WithAttrs implements slog.Handler. Accumulated attrs only apply to
// slog-origin records; wrapped payloads carry their own context.
func (f *Formatter) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return f
	}
	clone := f.clone()
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, boundAttr{groups: f.groups, attr: a})
	}
	return clone
}

// WithGroup implements slog.Handler. Group names become dotted key prefixes
// on synthesized records.
func (f *Formatter) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	clone := f.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

// clone shares the sink and its mutex; only attr/group state diverges.
func (f *Formatter) clone() *Formatter {
	clone := *f
	clone.attrs = append([]boundAttr(nil), f.attrs...)
	clone.groups = append([]string(nil), f.groups...)
	return &clone
}

// synthesize builds an event record from a slog-origin record: message,
// handler-bound attrs, then record attrs, group names joined into dotted
// keys. Severity and timestamp fields are the foreign pre-chain's job.
func (f *Formatter) synthesize(rec slog.Record) *Event {
	ev := NewEvent()
	ev.Set(KeyEvent, rec.Message)
	for _, ba := range f.attrs {
		flattenAttr(ev, ba.groups, ba.attr)
	}
	rec.Attrs(func(a slog.Attr) bool {
		flattenAttr(ev, f.groups, a)
		return true
	})
	return ev
}

func flattenAttr(ev *Event, groups []string, a slog.Attr) {
	value := a.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		nested := groups
		if a.Key != "" {
			nested = append(append([]string(nil), groups...), a.Key)
		}
		for _, sub := range value.Group() {
			flattenAttr(ev, nested, sub)
		}
		return
	}
	if a.Key == "" {
		return
	}
	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + a.Key
	}
	ev.Set(key, value.Any())
}

// wrappedPayload extracts the deferred payload when the record carries one.
func wrappedPayload(rec slog.Record) *Wrapped {
	var payload *Wrapped
	rec.Attrs(func(a slog.Attr) bool {
		if a.Key != WrappedAttrKey {
			return true
		}
		if wp, ok := a.Value.Any().(*Wrapped); ok {
			payload = wp
			return false
		}
		return true
	})
	return payload
}

func renderedText(rendered any) string {
	switch v := rendered.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case *Wrapped:
		// Wrap inside a Formatter has nowhere left to defer to.
		return logfmtLine(v.Event())
	default:
		return fmt.Sprint(v)
	}
}

func (f *Formatter) writeLine(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, _ = io.WriteString(f.w, line)
	_, _ = io.WriteString(f.w, "\n")
}

// Tee fans one record out to every handler, cloning the record per handler,
// so the same event can reach several independently-configured Formatters.
func Tee(handlers ...slog.Handler) slog.Handler {
	return &teeHandler{handlers: handlers}
}

type teeHandler struct {
	handlers []slog.Handler
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, rec slog.Record) error {
	var errs []error
	for _, h := range t.handlers {
		if !h.Enabled(ctx, rec.Level) {
			continue
		}
		if err := h.Handle(ctx, rec.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &teeHandler{handlers: next}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithGroup(name)
	}
	return &teeHandler{handlers: next}
}
