package clock

import (
	"sync"
	"time"
)

// FakeClock hands out tickers that only fire when the test calls Tick.
// Tick channels are unbuffered, so a successful Tick means the consumer
// has received it and no tick is ever dropped.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	created chan *FakeTicker
	count   int
}

func Fake(initial time.Time) *FakeClock {
	return &FakeClock{
		current: initial,
		created: make(chan *FakeTicker, 64),
	}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the clock forward without firing any ticker.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}
	ft := &FakeTicker{
		clock:    c,
		interval: d,
		ch:       make(chan time.Time),
		stopped:  make(chan struct{}),
	}
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
	c.created <- ft
	return &Ticker{C: ft.ch, stopFunc: ft.stop}
}

// NextTicker blocks until a ticker is created and returns it, in
// creation order.
func (c *FakeClock) NextTicker() *FakeTicker {
	return <-c.created
}

// TickersCreated returns how many tickers have been created so far.
func (c *FakeClock) TickersCreated() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// FakeTicker is the test-side handle of a ticker created by FakeClock.
type FakeTicker struct {
	clock    *FakeClock
	interval time.Duration
	ch       chan time.Time

	once      sync.Once
	stopped   chan struct{}
	stopCount int
	mu        sync.Mutex
}

// Tick advances the clock by one interval and delivers the tick. It
// blocks until the consumer receives it and reports false if the ticker
// was stopped instead.
func (t *FakeTicker) Tick() bool {
	select {
	case <-t.stopped:
		return false
	default:
	}

	t.clock.mu.Lock()
	t.clock.current = t.clock.current.Add(t.interval)
	now := t.clock.current
	t.clock.mu.Unlock()

	select {
	case t.ch <- now:
		return true
	case <-t.stopped:
		return false
	}
}

// Stopped reports whether Stop has been called.
func (t *FakeTicker) Stopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}

// StopCount returns how many times Stop was called.
func (t *FakeTicker) StopCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopCount
}

// WaitStopped blocks until Stop is called or the timeout elapses.
func (t *FakeTicker) WaitStopped(timeout time.Duration) bool {
	select {
	case <-t.stopped:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (t *FakeTicker) stop() {
	t.mu.Lock()
	t.stopCount++
	t.mu.Unlock()
	t.once.Do(func() { close(t.stopped) })
}
