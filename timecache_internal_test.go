package structlog

import (
	"testing"
	"time"
)

func TestIsCacheableLayout(t *testing.T) {
	tests := []struct {
		layout string
		want   bool
	}{
		{time.RFC3339, true},
		{time.DateTime, true},
		{time.Kitchen, true},
		{time.RFC3339Nano, false},
		{time.StampMilli, false},
		{"15:04:05.000", false},
		{"2006-01-02 15:04", true},
	}
	for _, tc := range tests {
		if got := isCacheableLayout(tc.layout); got != tc.want {
			t.Fatalf("isCacheableLayout(%q) = %v, want %v", tc.layout, got, tc.want)
		}
	}
}

func TestTimeCacheRefreshesOnTick(t *testing.T) {
	base := time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)
	tick := make(chan time.Time)
	cache := newTimeCacheWithClock(time.RFC3339, true,
		func() time.Time { return base },
		func(time.Duration) tickerControl {
			return tickerControl{C: tick, Stop: func() {}}
		})
	defer cache.Close()

	if got := cache.Current(); got != "2024-01-02T15:04:05Z" {
		t.Fatalf("unexpected initial value %q", got)
	}

	tick <- base.Add(time.Second)
	// A second send can only proceed once the first tick was consumed and
	// stored, so Current is deterministic here.
	tick <- base.Add(2 * time.Second)
	if got := cache.Current(); got != "2024-01-02T15:04:06Z" && got != "2024-01-02T15:04:07Z" {
		t.Fatalf("cache did not refresh, got %q", got)
	}
}

func TestTimeCacheCloseStopsRefresh(t *testing.T) {
	stopped := make(chan struct{})
	tick := make(chan time.Time)
	cache := newTimeCacheWithClock(time.RFC3339, true, time.Now,
		func(time.Duration) tickerControl {
			return tickerControl{C: tick, Stop: func() { close(stopped) }}
		})

	cache.Close()
	cache.Close()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("refresh goroutine did not stop")
	}
}
