package structlog

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// AddLoggerName returns a processor that records the channel name under
// KeyLogger. A logger field already present on the record wins.
func AddLoggerName() Processor {
	return func(logger string, _ Level, ev *Event) (Outcome, error) {
		if logger != "" && !ev.Has(KeyLogger) {
			ev.Set(KeyLogger, logger)
		}
		return Next(ev), nil
	}
}

// AddLevel returns a processor that records the severity name the call was
// made at under KeyLevel.
func AddLevel() Processor {
	return func(_ string, level Level, ev *Event) (Outcome, error) {
		ev.Set(KeyLevel, LevelString(level))
		return Next(ev), nil
	}
}

// FormatArgs returns the processor that interpolates positional arguments
// held under KeyArgs into the event message, then removes KeyArgs. Semantics
// are exactly fmt.Sprintf's, including its %!s(MISSING) and %!(EXTRA ...)
// artifacts on placeholder/argument mismatch.
func FormatArgs() Processor {
	return func(_ string, _ Level, ev *Event) (Outcome, error) {
		raw, ok := ev.Get(KeyArgs)
		if !ok {
			return Next(ev), nil
		}
		ev.Delete(KeyArgs)
		var args []any
		switch v := raw.(type) {
		case nil:
		case []any:
			args = v
		default:
			args = []any{v}
		}
		if len(args) == 0 {
			return Next(ev), nil
		}
		ev.Set(KeyEvent, fmt.Sprintf(ev.Message(), args...))
		return Next(ev), nil
	}
}

// RenderErrors returns a processor that replaces an error value under
// KeyError with its message text, so renderers downstream only ever see
// wire-safe strings there.
func RenderErrors() Processor {
	return func(_ string, _ Level, ev *Event) (Outcome, error) {
		if v, ok := ev.Get(KeyError); ok {
			if err, isErr := v.(error); isErr && err != nil {
				ev.Set(KeyError, err.Error())
			}
		}
		return Next(ev), nil
	}
}

// StackDump returns a processor that replaces KeyStack == true with a dump of
// the calling goroutine's stack. A false value removes the field; any other
// value passes through untouched.
func StackDump() Processor {
	return func(_ string, _ Level, ev *Event) (Outcome, error) {
		v, ok := ev.Get(KeyStack)
		if !ok {
			return Next(ev), nil
		}
		if want, isBool := v.(bool); isBool {
			if want {
				ev.Set(KeyStack, captureStack())
			} else {
				ev.Delete(KeyStack)
			}
		}
		return Next(ev), nil
	}
}

func captureStack() string {
	buf := make([]byte, 16<<10)
	n := runtime.Stack(buf, false)
	return strings.TrimSpace(string(buf[:n]))
}

// CoerceStrings returns a processor that stringifies non-scalar field values
// for wire safety: []byte, error, time.Time, time.Duration and fmt.Stringer
// become strings; scalars, maps and sequences pass through.
func CoerceStrings() Processor {
	return func(_ string, _ Level, ev *Event) (Outcome, error) {
		for _, key := range ev.Keys() {
			v, _ := ev.Get(key)
			switch c := v.(type) {
			case []byte:
				ev.Set(key, string(c))
			case time.Time:
				ev.Set(key, c.Format(time.RFC3339))
			case time.Duration:
				ev.Set(key, c.String())
			case error:
				if c != nil {
					ev.Set(key, c.Error())
				}
			case fmt.Stringer:
				ev.Set(key, c.String())
			}
		}
		return Next(ev), nil
	}
}

// Caller returns a processor attaching the name of the first calling function
// outside this module under key ("fn" when empty).
func Caller(key string) Processor {
	if key == "" {
		key = "fn"
	}
	return func(_ string, _ Level, ev *Event) (Outcome, error) {
		ev.Set(key, callerFunctionName())
		return Next(ev), nil
	}
}

const (
	unknownFunction     = "unknown"
	structlogModulePath = "pkt.systems/structlog"
)

// callerFunctionName walks the stack and returns the first frame that is not
// within this module, without package path.
func callerFunctionName() string {
	pcs := make([]uintptr, 16)
	// Skip runtime.Callers and callerFunctionName.
	n := runtime.Callers(2, pcs)
	if n == 0 {
		return unknownFunction
	}
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.Function == "" {
			if !more {
				break
			}
			continue
		}
		if strings.HasPrefix(frame.Function, structlogModulePath+".") || strings.HasPrefix(frame.Function, structlogModulePath+"/") {
			if !more {
				break
			}
			continue
		}
		return trimFunctionName(frame.Function)
	}
	return unknownFunction
}

func trimFunctionName(name string) string {
	if name == "" {
		return unknownFunction
	}
	// Remove package path and package prefix.
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return unknownFunction
	}
	return name
}
