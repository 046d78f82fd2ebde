package structlog

import (
	"errors"
	"fmt"
	"strings"
)

// errDropped short-circuits chain execution when a processor discards the
// record. It never escapes the logger or the bridge: the call site observes
// no output and no error.
var errDropped = errors.New("structlog: event dropped")

// KeyNotBoundError is returned by Unbind when one or more of the requested
// keys are not present in the logger's bound context.
type KeyNotBoundError struct {
	Keys []string
}

func (e *KeyNotBoundError) Error() string {
	return fmt.Sprintf("structlog: keys not bound: %s", strings.Join(e.Keys, ", "))
}

// ChainProtocolError reports a processor outcome that violates the chain
// protocol: a zero Outcome, a replacement outcome carrying no record, or a
// chain that ran out of steps without any terminal renderer. It is fatal to
// the single log call that triggered it and is surfaced loudly, because a
// malformed chain is a configuration bug that silent suppression would hide.
type ChainProtocolError struct {
	// Step is the zero-based index of the offending processor, or the index
	// of the last step when the chain ended without a terminal value.
	Step   int
	Reason string
}

func (e *ChainProtocolError) Error() string {
	return fmt.Sprintf("structlog: chain protocol violation at step %d: %s", e.Step, e.Reason)
}
