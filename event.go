package structlog

// Conventional keys recognized by the stock processors. The Event type itself
// does not treat any key specially.
const (
	// KeyEvent carries the human-readable message.
	KeyEvent = "event"
	// KeyLevel carries the severity name.
	KeyLevel = "level"
	// KeyLogger carries the channel name.
	KeyLogger = "logger"
	// KeyTimestamp carries the formatted event time.
	KeyTimestamp = "timestamp"
	// KeyError carries an error or its rendered text.
	KeyError = "error"
	// KeyStack carries a stack dump request or its rendered text.
	KeyStack = "stack"
	// KeyArgs carries positional arguments awaiting interpolation by
	// FormatArgs.
	KeyArgs = "args"
)

type eventField struct {
	key   string
	value any
}

// Event is the ordered key/value record threaded through a processor chain.
// Keys are unique and keep their first-insertion position; setting an
// existing key overwrites its value in place (last write wins). An Event is
// mutable while the chain runs and frozen once a terminal renderer has
// consumed it.
//
// Event is not safe for concurrent mutation. The chain engine owns the record
// for the duration of one log call, which is the only mutation window.
type Event struct {
	fields []eventField
	index  map[string]int
	sealed bool
}

// NewEvent returns an empty, unsealed record.
func NewEvent() *Event {
	return &Event{index: make(map[string]int, 8)}
}

// Set stores value under key, overwriting in place when the key exists.
// Sealed records ignore the write.
func (e *Event) Set(key string, value any) *Event {
	if e.sealed {
		return e
	}
	if i, ok := e.index[key]; ok {
		e.fields[i].value = value
		return e
	}
	e.index[key] = len(e.fields)
	e.fields = append(e.fields, eventField{key: key, value: value})
	return e
}

// Get returns the value stored under key.
func (e *Event) Get(key string) (any, bool) {
	i, ok := e.index[key]
	if !ok {
		return nil, false
	}
	return e.fields[i].value, true
}

// Has reports whether key is present.
func (e *Event) Has(key string) bool {
	_, ok := e.index[key]
	return ok
}

// Delete removes key and reports whether it was present. Sealed records
// ignore the delete.
func (e *Event) Delete(key string) bool {
	if e.sealed {
		return false
	}
	i, ok := e.index[key]
	if !ok {
		return false
	}
	e.fields = append(e.fields[:i], e.fields[i+1:]...)
	delete(e.index, key)
	for k, j := range e.index {
		if j > i {
			e.index[k] = j - 1
		}
	}
	return true
}

// Len returns the number of fields.
func (e *Event) Len() int {
	return len(e.fields)
}

// Keys returns the field keys in insertion order.
func (e *Event) Keys() []string {
	keys := make([]string, len(e.fields))
	for i, f := range e.fields {
		keys[i] = f.key
	}
	return keys
}

// Each calls fn for every field in insertion order until fn returns false.
func (e *Event) Each(fn func(key string, value any) bool) {
	for _, f := range e.fields {
		if !fn(f.key, f.value) {
			return
		}
	}
}

// Clone returns an unsealed copy sharing no field storage with the receiver.
func (e *Event) Clone() *Event {
	clone := &Event{
		fields: make([]eventField, len(e.fields)),
		index:  make(map[string]int, len(e.index)),
	}
	copy(clone.fields, e.fields)
	for k, v := range e.index {
		clone.index[k] = v
	}
	return clone
}

// Message returns the KeyEvent field when it holds a string.
func (e *Event) Message() string {
	if v, ok := e.Get(KeyEvent); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (e *Event) seal() {
	e.sealed = true
}
