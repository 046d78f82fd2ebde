package structlog_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"pkt.systems/structlog"
)

func newCaptureLogger(name string) (structlog.Logger, *captureChannel) {
	ch := newCaptureChannel()
	logger := structlog.NewLogger(name, []structlog.Processor{captureRenderer()}, ch)
	return logger, ch
}

func recordFields(ev *structlog.Event) map[string]any {
	fields := make(map[string]any)
	ev.Each(func(key string, value any) bool {
		fields[key] = value
		return true
	})
	return fields
}

func TestBindMergesWithLaterKeysWinning(t *testing.T) {
	parent, ch := newCaptureLogger("test")
	parent = parent.Bind("a", 1, "b", 2)
	child := parent.Bind("b", 3, "c", 4)

	child.Info("m")
	got := recordFields(ch.lastRecord())
	want := map[string]any{"a": 1, "b": 3, "c": 4, structlog.KeyEvent: "m"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected child record: %v", got)
	}

	parent.Info("m")
	got = recordFields(ch.lastRecord())
	if got["b"] != 2 {
		t.Fatalf("bind mutated the parent: b=%v", got["b"])
	}
	if _, ok := got["c"]; ok {
		t.Fatal("bind leaked derived context into the parent")
	}
}

func TestCallKeyvalsOverrideBoundContext(t *testing.T) {
	logger, ch := newCaptureLogger("test")
	logger.Bind("user", "alice").Info("login", "user", "bob")
	if got := recordFields(ch.lastRecord()); got["user"] != "bob" {
		t.Fatalf("expected call keyvals to win, got user=%v", got["user"])
	}
}

func TestBindThenUnbindRestoresContext(t *testing.T) {
	logger, ch := newCaptureLogger("test")
	base := logger.Bind("app", "demo")
	bound := base.Bind("x", 1, "y", 2)
	restored, err := bound.Unbind("x", "y")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	base.Info("m")
	want := recordFields(ch.lastRecord())
	restored.Info("m")
	got := recordFields(ch.lastRecord())
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unbind did not restore pre-bind context: got %v want %v", got, want)
	}
}

func TestUnbindAbsentKeyFails(t *testing.T) {
	logger, _ := newCaptureLogger("test")
	_, err := logger.Bind("present", 1).Unbind("present", "absent")
	var kerr *structlog.KeyNotBoundError
	if !errors.As(err, &kerr) {
		t.Fatalf("expected KeyNotBoundError, got %v", err)
	}
	if !reflect.DeepEqual(kerr.Keys, []string{"absent"}) {
		t.Fatalf("unexpected missing keys: %v", kerr.Keys)
	}
}

func TestTryUnbindIgnoresAbsentKeys(t *testing.T) {
	logger, ch := newCaptureLogger("test")
	bound := logger.Bind("a", 1)
	bound.TryUnbind("absent").Info("m")
	if got := recordFields(ch.lastRecord()); got["a"] != 1 {
		t.Fatalf("try_unbind damaged unrelated context: %v", got)
	}
}

func TestNewDiscardsPriorContext(t *testing.T) {
	logger, ch := newCaptureLogger("test")
	logger.Bind("old", 1).New("fresh", 2).Info("m")
	got := recordFields(ch.lastRecord())
	if _, ok := got["old"]; ok {
		t.Fatalf("New kept prior context: %v", got)
	}
	if got["fresh"] != 2 {
		t.Fatalf("New lost its own context: %v", got)
	}
}

func TestSeverityMethods(t *testing.T) {
	logger, ch := newCaptureLogger("test")
	calls := []struct {
		log   func(string, ...any)
		level structlog.Level
	}{
		{logger.Debug, structlog.DebugLevel},
		{logger.Info, structlog.InfoLevel},
		{logger.Warn, structlog.WarnLevel},
		{logger.Error, structlog.ErrorLevel},
		{logger.Critical, structlog.CriticalLevel},
	}
	for _, call := range calls {
		call.log("m")
	}
	logger.Log(structlog.WarnLevel, "m")
	ch.mu.Lock()
	defer ch.mu.Unlock()
	want := []structlog.Level{
		structlog.DebugLevel,
		structlog.InfoLevel,
		structlog.WarnLevel,
		structlog.ErrorLevel,
		structlog.CriticalLevel,
		structlog.WarnLevel,
	}
	if !reflect.DeepEqual(ch.levels, want) {
		t.Fatalf("unexpected levels: %v", ch.levels)
	}
}

func TestLogfDefersInterpolationToProcessor(t *testing.T) {
	ch := newCaptureChannel()
	logger := structlog.NewLogger("test", []structlog.Processor{
		structlog.FormatArgs(),
		captureRenderer(),
	}, ch)
	logger.Logf(structlog.InfoLevel, "Hello, %s", "World")
	got := recordFields(ch.lastRecord())
	if got[structlog.KeyEvent] != "Hello, World" {
		t.Fatalf("unexpected interpolated event: %v", got[structlog.KeyEvent])
	}
	if _, ok := got[structlog.KeyArgs]; ok {
		t.Fatal("args field must be consumed by interpolation")
	}
}

func TestLogfWithoutFormatterKeepsArgs(t *testing.T) {
	logger, ch := newCaptureLogger("test")
	logger.Logf(structlog.InfoLevel, "Hello, %s", "World")
	got := recordFields(ch.lastRecord())
	if got[structlog.KeyEvent] != "Hello, %s" {
		t.Fatalf("event interpolated eagerly: %v", got[structlog.KeyEvent])
	}
	if !reflect.DeepEqual(got[structlog.KeyArgs], []any{"World"}) {
		t.Fatalf("expected args carried on the record, got %v", got[structlog.KeyArgs])
	}
}

func TestDanglingKeyvalGetsSyntheticKey(t *testing.T) {
	logger, ch := newCaptureLogger("test")
	logger.Info("m", "k", 1, "dangling")
	got := recordFields(ch.lastRecord())
	if got["k"] != 1 {
		t.Fatalf("unexpected record: %v", got)
	}
	if got["arg1"] != "dangling" {
		t.Fatalf("expected dangling value under arg1, got %v", got)
	}
}

func TestChainMisconfigurationPanics(t *testing.T) {
	ch := newCaptureChannel()
	bad := func(_ string, _ structlog.Level, _ *structlog.Event) (structlog.Outcome, error) {
		return structlog.Outcome{}, nil
	}
	logger := structlog.NewLogger("test", []structlog.Processor{bad}, ch)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on chain protocol violation")
		}
	}()
	logger.Info("m")
}

func TestConcurrentLogging(t *testing.T) {
	logger, ch := newCaptureLogger("test")
	shared := logger.Bind("app", "demo")
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			derived := shared.Bind("goroutine", g)
			for i := 0; i < 100; i++ {
				derived.Info("tick", "i", i)
			}
		}(g)
	}
	wg.Wait()
	if got := ch.count(); got != 800 {
		t.Fatalf("expected 800 records, got %d", got)
	}
}

func TestLoggerFromContext(t *testing.T) {
	logger, ch := newCaptureLogger("test")
	ctx := structlog.ContextWithLogger(context.Background(), logger)
	structlog.Ctx(ctx).Info("from context")
	if ch.count() != 1 {
		t.Fatal("expected context logger to be used")
	}
	// Absent logger yields a safe no-op.
	structlog.Ctx(context.Background()).Error("dropped")
	if _, err := structlog.NewNopLogger().Unbind("k"); err == nil {
		t.Fatal("noop Unbind must still report unbound keys")
	}
}
