package structlog

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-logfmt/logfmt"
	gojson "github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/text"
)

// WrappedAttrKey is the slog attribute key a *Wrapped payload travels under
// between the slog emitter and Formatter instances.
const WrappedAttrKey = "structlog"

// Wrapped is the deferred-render payload produced by Wrap: the record has
// been through the full chain once but no terminal string exists yet, so
// several Formatters can each render it with their own style. The event
// inside is sealed.
type Wrapped struct {
	logger string
	level  Level
	event  *Event
}

// Logger returns the channel name the record was logged under.
func (w *Wrapped) Logger() string { return w.logger }

// Level returns the severity the record was logged at.
func (w *Wrapped) Level() Level { return w.level }

// Event returns the sealed record.
func (w *Wrapped) Event() *Event { return w.event }

// Wrap returns the terminal processor for bridge mode. Instead of a final
// string it produces the structured payload each Formatter downstream
// finishes independently.
func Wrap() Processor {
	return func(logger string, level Level, ev *Event) (Outcome, error) {
		return Rendered(&Wrapped{logger: logger, level: level, event: ev}), nil
	}
}

// NewJSONRenderer returns a terminal renderer producing one compact JSON
// object per record, fields in insertion order. Values the encoder rejects
// degrade to their fmt.Sprint text instead of failing the record.
func NewJSONRenderer() Processor {
	return func(_ string, _ Level, ev *Event) (Outcome, error) {
		var buf bytes.Buffer
		buf.Grow(ev.Len() * 24)
		buf.WriteByte('{')
		first := true
		ev.Each(func(key string, value any) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			writeJSONValue(&buf, key)
			buf.WriteByte(':')
			writeJSONValue(&buf, jsonSafeValue(value))
			return true
		})
		buf.WriteByte('}')
		return Rendered(buf.String()), nil
	}
}

func writeJSONValue(buf *bytes.Buffer, value any) {
	encoded, err := gojson.Marshal(value)
	if err != nil {
		encoded, _ = gojson.Marshal(fmt.Sprint(value))
	}
	buf.Write(encoded)
}

func jsonSafeValue(value any) any {
	switch v := value.(type) {
	case error:
		if v == nil {
			return nil
		}
		return v.Error()
	case time.Duration:
		return v.String()
	default:
		return value
	}
}

// NewLogfmtRenderer returns a terminal renderer producing one key=value line
// per record in field order.
func NewLogfmtRenderer() Processor {
	return func(_ string, _ Level, ev *Event) (Outcome, error) {
		return Rendered(logfmtLine(ev)), nil
	}
}

// logfmtLine renders ev as a single logfmt line. Keys are sanitized to the
// characters logfmt permits and values the encoder rejects degrade to their
// fmt.Sprint text.
func logfmtLine(ev *Event) string {
	var buf bytes.Buffer
	enc := logfmt.NewEncoder(&buf)
	ev.Each(func(key string, value any) bool {
		key = logfmtSafeKey(key)
		value = logfmtSafeValue(value)
		if err := enc.EncodeKeyval(key, value); err != nil {
			_ = enc.EncodeKeyval(key, fmt.Sprint(value))
		}
		return true
	})
	return buf.String()
}

func logfmtSafeKey(key string) string {
	if key == "" {
		return "_"
	}
	clean := strings.Map(func(r rune) rune {
		if r <= ' ' || r == '=' || r == '"' {
			return '_'
		}
		return r
	}, key)
	return clean
}

func logfmtSafeValue(value any) any {
	switch v := value.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64:
		return value
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case time.Duration:
		return v.String()
	case error:
		if v == nil {
			return nil
		}
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(value)
	}
}

// ColorMode selects console renderer styling.
type ColorMode int

const (
	// ColorAuto enables color when the configured output is a terminal and
	// NO_COLOR is unset.
	ColorAuto ColorMode = iota
	// ColorAlways emits color regardless of terminal detection. Useful for
	// tests and forced-colour logs.
	ColorAlways
	// ColorNever forces color off.
	ColorNever
)

// ConsoleRendererOptions controls NewConsoleRenderer.
type ConsoleRendererOptions struct {
	// Color selects styling.
	Color ColorMode

	// Output is consulted only by ColorAuto for terminal detection; the
	// renderer itself never writes to it.
	Output io.Writer
}

// NewConsoleRenderer returns a human-oriented terminal renderer: timestamp,
// three-letter level label, message, then remaining fields as key=value.
// KeyEvent, KeyLevel and KeyTimestamp are consumed by the fixed prefix and
// not repeated in the field list.
func NewConsoleRenderer(opts ConsoleRendererOptions) Processor {
	color := resolveColor(opts.Color, opts.Output)
	if color {
		// go-pretty gates escape codes on a package-global probe; a renderer
		// that decided to colorize must not be silently stripped by it.
		text.EnableColors()
	}
	return func(_ string, level Level, ev *Event) (Outcome, error) {
		var b strings.Builder
		b.Grow(ev.Len()*16 + 32)
		if ts, ok := ev.Get(KeyTimestamp); ok {
			b.WriteString(colorize(color, colorTimestamp, consoleValueText(ts)))
			b.WriteByte(' ')
		}
		b.WriteString(colorize(color, consoleLevelColors(level), consoleLevelLabel(level)))
		if msg := ev.Message(); msg != "" {
			b.WriteByte(' ')
			b.WriteString(msg)
		}
		ev.Each(func(key string, value any) bool {
			switch key {
			case KeyEvent, KeyLevel, KeyTimestamp:
				return true
			}
			b.WriteByte(' ')
			b.WriteString(colorize(color, colorKey, key))
			b.WriteByte('=')
			b.WriteString(consoleQuoted(consoleValueText(value)))
			return true
		})
		return Rendered(b.String()), nil
	}
}

var (
	colorTimestamp = text.Colors{text.FgHiBlack}
	colorKey       = text.Colors{text.FgCyan}
)

func consoleLevelColors(level Level) text.Colors {
	switch level {
	case DebugLevel:
		return text.Colors{text.FgMagenta}
	case InfoLevel:
		return text.Colors{text.FgGreen}
	case WarnLevel:
		return text.Colors{text.FgYellow}
	case ErrorLevel:
		return text.Colors{text.FgRed}
	case CriticalLevel:
		return text.Colors{text.FgRed, text.Bold}
	default:
		return nil
	}
}

func consoleLevelLabel(level Level) string {
	switch level {
	case DebugLevel:
		return "DBG"
	case InfoLevel:
		return "INF"
	case WarnLevel:
		return "WRN"
	case ErrorLevel:
		return "ERR"
	case CriticalLevel:
		return "CRT"
	case NoLevel:
		return "---"
	default:
		return "INF"
	}
}

func colorize(enabled bool, colors text.Colors, s string) string {
	if !enabled || len(colors) == 0 {
		return s
	}
	return colors.Sprint(s)
}

func consoleValueText(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.Format(time.RFC3339)
	case time.Duration:
		return v.String()
	case error:
		if v == nil {
			return "nil"
		}
		return v.Error()
	case fmt.Stringer:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.FormatInt(int64(v), 10)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case uintptr:
		return strconv.FormatUint(uint64(v), 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []byte:
		return string(v)
	case nil:
		return "nil"
	default:
		return fmt.Sprint(v)
	}
}

func consoleQuoted(s string) string {
	if needsQuote(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuote(s string) bool {
	if s == "" {
		return true
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= ' ' || c == '=' || c == '"' || c == 0x7f {
			return true
		}
	}
	return false
}
