package structlog

import (
	"sync"
	"sync/atomic"
	"time"
)

var (
	cacheableLayouts sync.Map
	nonCacheLayouts  sync.Map
)

func init() {
	for _, layout := range []string{
		time.ANSIC,
		time.UnixDate,
		time.RubyDate,
		time.RFC822,
		time.RFC822Z,
		time.RFC850,
		time.RFC1123,
		time.RFC1123Z,
		time.RFC3339,
		time.Kitchen,
		time.Stamp,
		time.DateTime,
		time.DateOnly,
		time.TimeOnly,
	} {
		cacheableLayouts.Store(layout, struct{}{})
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.StampMilli,
		time.StampMicro,
		time.StampNano,
	} {
		nonCacheLayouts.Store(layout, struct{}{})
	}
}

// timeCache keeps one pre-formatted timestamp per layout, refreshed once a
// second, so cacheable layouts skip time.Format on the log path.
type timeCache struct {
	layout    string
	utc       bool
	value     atomic.Value
	now       func() time.Time
	newTicker func(time.Duration) tickerControl

	stopCh   chan struct{}
	stopOnce sync.Once
}

type tickerControl struct {
	C    <-chan time.Time
	Stop func()
}

func (t tickerControl) stop() {
	if t.Stop != nil {
		t.Stop()
	}
}

func newTimeCache(layout string, utc bool) *timeCache {
	return newTimeCacheWithClock(layout, utc, time.Now, defaultTicker)
}

// newTimeCacheWithClock injects clock and ticker, for tests.
func newTimeCacheWithClock(layout string, utc bool, now func() time.Time, newTicker func(time.Duration) tickerControl) *timeCache {
	cache := &timeCache{
		layout:    layout,
		utc:       utc,
		now:       now,
		newTicker: newTicker,
		stopCh:    make(chan struct{}),
	}
	cache.start()
	return cache
}

func defaultTicker(d time.Duration) tickerControl {
	t := time.NewTicker(d)
	return tickerControl{
		C:    t.C,
		Stop: t.Stop,
	}
}

func (c *timeCache) start() {
	c.value.Store(c.formatTime(c.nowTime()))
	ticker := c.makeTicker(time.Second)
	if ticker.C == nil {
		return
	}
	go c.refresh(ticker)
}

func (c *timeCache) Current() string {
	if c == nil {
		return ""
	}
	return c.value.Load().(string)
}

func (c *timeCache) refresh(ticker tickerControl) {
	defer ticker.stop()
	for {
		select {
		case <-c.stopCh:
			return
		case now, ok := <-ticker.C:
			if !ok {
				return
			}
			c.value.Store(c.formatTime(now))
		}
	}
}

func (c *timeCache) nowTime() time.Time {
	nowFunc := c.now
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return nowFunc()
}

func (c *timeCache) formatTime(t time.Time) string {
	if c.utc {
		t = t.UTC()
	}
	return t.Format(c.layout)
}

func (c *timeCache) makeTicker(d time.Duration) tickerControl {
	if c.newTicker != nil {
		if ticker := c.newTicker(d); ticker.C != nil {
			return ticker
		}
	}
	return defaultTicker(d)
}

func (c *timeCache) Close() {
	if c == nil {
		return
	}
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}

func isCacheableLayout(layout string) bool {
	if _, ok := cacheableLayouts.Load(layout); ok {
		return true
	}
	if _, ok := nonCacheLayouts.Load(layout); ok {
		return false
	}
	if hasSubSecondPrecision(layout) {
		nonCacheLayouts.Store(layout, struct{}{})
		return false
	}
	cacheableLayouts.Store(layout, struct{}{})
	return true
}

func hasSubSecondPrecision(layout string) bool {
	base := time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)
	// If formatting changes within the same second, layout depends on sub-second precision.
	return base.Format(layout) != base.Add(time.Millisecond).Format(layout)
}
