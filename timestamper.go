package structlog

import "time"

// TimestamperOptions controls how Timestamper stamps records.
type TimestamperOptions struct {
	// Layout is the time layout. Defaults to time.RFC3339.
	Layout string

	// Key is the field the stamp is stored under. Defaults to KeyTimestamp.
	Key string

	// UTC forces timestamps into UTC.
	UTC bool

	// Now injects a clock, which also disables the per-second format cache.
	// Tests use this; production leaves it nil.
	Now func() time.Time
}

// Timestamper is the stock timestamping step. For second-resolution layouts
// it serves stamps from a background-refreshed cache instead of formatting on
// every record.
type Timestamper struct {
	key    string
	layout string
	utc    bool
	now    func() time.Time
	cache  *timeCache
}

// NewTimestamper builds a Timestamper; pass its Process method into the
// chain. Close stops the cache refresher when one was started.
func NewTimestamper(opts TimestamperOptions) *Timestamper {
	layout := opts.Layout
	if layout == "" {
		layout = time.RFC3339
	}
	key := opts.Key
	if key == "" {
		key = KeyTimestamp
	}
	t := &Timestamper{
		key:    key,
		layout: layout,
		utc:    opts.UTC,
		now:    opts.Now,
	}
	if t.now == nil && isCacheableLayout(layout) {
		t.cache = newTimeCache(layout, opts.UTC)
	}
	return t
}

// Process implements Processor.
func (t *Timestamper) Process(_ string, _ Level, ev *Event) (Outcome, error) {
	ev.Set(t.key, t.timestamp())
	return Next(ev), nil
}

func (t *Timestamper) timestamp() string {
	if t.cache != nil {
		return t.cache.Current()
	}
	nowFunc := t.now
	if nowFunc == nil {
		nowFunc = time.Now
	}
	now := nowFunc()
	if t.utc {
		now = now.UTC()
	}
	return now.Format(t.layout)
}

// Close stops the cache refresh goroutine. Safe to call more than once and on
// a Timestamper that never started one.
func (t *Timestamper) Close() {
	if t.cache != nil {
		t.cache.Close()
	}
}
