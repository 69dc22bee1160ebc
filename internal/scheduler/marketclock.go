package scheduler

import (
	"sync"
	"time"
)

// easternTime is a fixed UTC-5 offset. The calendar deliberately ignores
// daylight saving and exchange holidays.
var easternTime = time.FixedZone("ET", -5*60*60)

// IsMarketOpen reports whether the NYSE regular session is open at t:
// weekdays 9:30–16:00 ET.
func IsMarketOpen(t time.Time) bool {
	et := t.In(easternTime)

	switch et.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	minutes := et.Hour()*60 + et.Minute()
	return minutes >= 9*60+30 && minutes < 16*60
}

// ShouldCollectData reports whether a collection pass should run at t:
// during market hours, in the post-close window (16:05–16:15 ET), in the
// evening window (20:00–20:10 ET), or in the Saturday catch-up window
// (12:00–12:10 ET).
func ShouldCollectData(t time.Time) bool {
	if IsMarketOpen(t) {
		return true
	}

	et := t.In(easternTime)
	minutes := et.Hour()*60 + et.Minute()

	if et.Weekday() == time.Saturday {
		return minutes >= 12*60 && minutes < 12*60+10
	}

	switch et.Weekday() {
	case time.Sunday:
		return false
	}

	if minutes >= 16*60+5 && minutes < 16*60+15 {
		return true
	}
	return minutes >= 20*60 && minutes < 20*60+10
}

// MarketClock tracks the last observed market-open state so jobs can log
// and emit only on transitions.
type MarketClock struct {
	mu    sync.RWMutex
	open  bool
	known bool
}

// NewMarketClock creates a clock with no observed state yet.
func NewMarketClock() *MarketClock {
	return &MarketClock{}
}

// IsOpen returns the last observed state.
func (c *MarketClock) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open
}

// Observe records the state at t and reports whether it changed since the
// previous observation. The first observation always counts as a change.
func (c *MarketClock) Observe(t time.Time) (open, changed bool) {
	open = IsMarketOpen(t)

	c.mu.Lock()
	defer c.mu.Unlock()

	changed = !c.known || c.open != open
	c.open = open
	c.known = true
	return open, changed
}
