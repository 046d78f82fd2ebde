package structlog

// Processor is one step of a chain. It receives the channel name, the
// severity the call was made at, and the record in flight, and returns one of
// the three Outcome cases plus an optional error. Errors propagate to the
// chain's caller; they are not swallowed by the engine.
type Processor func(logger string, level Level, ev *Event) (Outcome, error)

type outcomeKind uint8

const (
	outcomeInvalid outcomeKind = iota
	outcomeNext
	outcomeRendered
	outcomeDropped
)

// Outcome is the tagged result of a processor step. Construct it with Next,
// Rendered, or Discard; the zero Outcome violates the chain protocol.
type Outcome struct {
	kind   outcomeKind
	record *Event
	value  any
}

// Next passes a replacement record to the following step. Returning the input
// record (mutated or not) is the common case.
func Next(ev *Event) Outcome {
	return Outcome{kind: outcomeNext, record: ev}
}

// Rendered terminates the chain with a final renderable value, conventionally
// a string or []byte. Any step may render-and-stop, not only the last one.
func Rendered(value any) Outcome {
	return Outcome{kind: outcomeRendered, value: value}
}

// Discard suppresses the record entirely. The call site observes no output
// and no error.
func Discard() Outcome {
	return Outcome{kind: outcomeDropped}
}

// runChain executes chain strictly in order, threading one record through
// each step. It returns the terminal rendered value, errDropped when a step
// discarded the record, a *ChainProtocolError when a step's outcome violates
// the protocol or the chain ends without a terminal value, or the first step
// error as-is. The record is sealed the moment a terminal value is produced.
func runChain(chain []Processor, logger string, level Level, ev *Event) (any, error) {
	current := ev
	for i, step := range chain {
		out, err := step(logger, level, current)
		if err != nil {
			return nil, err
		}
		switch out.kind {
		case outcomeNext:
			if out.record == nil {
				return nil, &ChainProtocolError{Step: i, Reason: "replacement outcome carries no record"}
			}
			current = out.record
		case outcomeRendered:
			current.seal()
			return out.value, nil
		case outcomeDropped:
			return nil, errDropped
		default:
			return nil, &ChainProtocolError{Step: i, Reason: "processor returned the zero Outcome"}
		}
	}
	return nil, &ChainProtocolError{Step: max(len(chain)-1, 0), Reason: "chain ended without a terminal renderer"}
}
