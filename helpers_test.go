package structlog_test

import (
	"sync"

	"pkt.systems/structlog"
)

// captureChannel records everything forwarded by a bound logger so tests can
// inspect levels and records without a real sink.
type captureChannel struct {
	mu      sync.Mutex
	level   structlog.Level
	levels  []structlog.Level
	records []*structlog.Event
	lines   []string
}

func newCaptureChannel() *captureChannel {
	return &captureChannel{level: structlog.DebugLevel}
}

func (c *captureChannel) Log(level structlog.Level, rendered any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.levels = append(c.levels, level)
	switch v := rendered.(type) {
	case *structlog.Event:
		c.records = append(c.records, v)
	case string:
		c.lines = append(c.lines, v)
	case []byte:
		c.lines = append(c.lines, string(v))
	}
}

func (c *captureChannel) EffectiveLevel() structlog.Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

func (c *captureChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.levels)
}

func (c *captureChannel) lastLine() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.lines) == 0 {
		return ""
	}
	return c.lines[len(c.lines)-1]
}

func (c *captureChannel) lastRecord() *structlog.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.records) == 0 {
		return nil
	}
	return c.records[len(c.records)-1]
}

// captureRenderer terminates a chain with the record itself so tests see the
// merged fields instead of a rendered string.
func captureRenderer() structlog.Processor {
	return func(_ string, _ structlog.Level, ev *structlog.Event) (structlog.Outcome, error) {
		return structlog.Rendered(ev), nil
	}
}
