package structlog

import (
	"errors"
	"testing"
)

func setStep(key string, value any) Processor {
	return func(_ string, _ Level, ev *Event) (Outcome, error) {
		ev.Set(key, value)
		return Next(ev), nil
	}
}

func captureStep() Processor {
	return func(_ string, _ Level, ev *Event) (Outcome, error) {
		return Rendered(ev), nil
	}
}

func TestChainOrderDeterminesWinner(t *testing.T) {
	a := setStep("k", 1)
	b := setStep("k", 2)

	rendered, err := runChain([]Processor{a, b, captureStep()}, "ch", InfoLevel, NewEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := rendered.(*Event).Get("k"); v != 2 {
		t.Fatalf("expected later step to win, got k=%v", v)
	}

	rendered, err = runChain([]Processor{b, a, captureStep()}, "ch", InfoLevel, NewEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := rendered.(*Event).Get("k"); v != 1 {
		t.Fatalf("expected later step to win after swap, got k=%v", v)
	}
}

func TestChainDropShortCircuits(t *testing.T) {
	ran := false
	after := func(_ string, _ Level, ev *Event) (Outcome, error) {
		ran = true
		return Next(ev), nil
	}
	drop := func(_ string, _ Level, _ *Event) (Outcome, error) {
		return Discard(), nil
	}
	rendered, err := runChain([]Processor{drop, after, captureStep()}, "ch", InfoLevel, NewEvent())
	if !errors.Is(err, errDropped) {
		t.Fatalf("expected drop sentinel, got rendered=%v err=%v", rendered, err)
	}
	if ran {
		t.Fatal("steps after a drop must not run")
	}
}

func TestChainEarlyTerminalStops(t *testing.T) {
	ran := false
	after := func(_ string, _ Level, ev *Event) (Outcome, error) {
		ran = true
		return Next(ev), nil
	}
	early := func(_ string, _ Level, _ *Event) (Outcome, error) {
		return Rendered("done"), nil
	}
	rendered, err := runChain([]Processor{early, after}, "ch", InfoLevel, NewEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rendered != "done" {
		t.Fatalf("expected early terminal value, got %v", rendered)
	}
	if ran {
		t.Fatal("steps after a terminal value must not run")
	}
}

func TestChainZeroOutcomeIsProtocolError(t *testing.T) {
	bad := func(_ string, _ Level, _ *Event) (Outcome, error) {
		return Outcome{}, nil
	}
	_, err := runChain([]Processor{setStep("a", 1), bad}, "ch", InfoLevel, NewEvent())
	var perr *ChainProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ChainProtocolError, got %v", err)
	}
	if perr.Step != 1 {
		t.Fatalf("expected offending step 1, got %d", perr.Step)
	}
}

func TestChainNilReplacementIsProtocolError(t *testing.T) {
	bad := func(_ string, _ Level, _ *Event) (Outcome, error) {
		return Next(nil), nil
	}
	_, err := runChain([]Processor{bad}, "ch", InfoLevel, NewEvent())
	var perr *ChainProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ChainProtocolError, got %v", err)
	}
}

func TestChainWithoutTerminalIsProtocolError(t *testing.T) {
	_, err := runChain([]Processor{setStep("a", 1)}, "ch", InfoLevel, NewEvent())
	var perr *ChainProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ChainProtocolError, got %v", err)
	}
}

func TestChainStepErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	failing := func(_ string, _ Level, _ *Event) (Outcome, error) {
		return Outcome{}, boom
	}
	_, err := runChain([]Processor{failing, captureStep()}, "ch", InfoLevel, NewEvent())
	if !errors.Is(err, boom) {
		t.Fatalf("expected step error to propagate, got %v", err)
	}
}

func TestChainSealsRecordAtTerminal(t *testing.T) {
	ev := NewEvent().Set("a", 1)
	rendered, err := runChain([]Processor{captureStep()}, "ch", InfoLevel, ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := rendered.(*Event)
	got.Set("b", 2)
	got.Delete("a")
	if got.Has("b") || !got.Has("a") {
		t.Fatal("record must be immutable once rendered")
	}
}
