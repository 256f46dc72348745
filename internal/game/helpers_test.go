package game

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"testing"
	"time"

	"wordmatch/internal/models"
)

// fakeClock fires timers only when the test advances it
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	seq    int
}

type fakeTimer struct {
	clock   *fakeClock
	when    time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{clock: c, when: c.now.Add(d), seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward, running every due timer in order. Callbacks run
// without the clock lock so they may schedule new timers.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.when.After(target) {
				continue
			}
			if next == nil || t.when.Before(next.when) || (t.when.Equal(next.when) && t.seq < next.seq) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.fired = true
		c.now = next.when
		c.mu.Unlock()
		next.f()
	}
}

// Pending counts timers that are armed and not yet fired
func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// identityRNG makes Shuffle a no-op: j is always i
type identityRNG struct{}

func (identityRNG) Intn(n int) int { return n - 1 }

type seededRNG struct{ r *rand.Rand }

func newSeededRNG(seed uint64) seededRNG {
	return seededRNG{r: rand.New(rand.NewPCG(seed, seed^0x5eed))}
}

func (s seededRNG) Intn(n int) int { return s.r.IntN(n) }

// recorder collects emitted events
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listen(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) count(typ EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func (r *recorder) last(typ EventType) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == typ {
			return r.events[i], true
		}
	}
	return Event{}, false
}

func testWords(n int) []models.WordPair {
	words := make([]models.WordPair, n)
	for i := range words {
		words[i] = models.WordPair{English: fmt.Sprintf("word%d", i), Chinese: fmt.Sprintf("词%d", i)}
	}
	return words
}

// newTestSession deals words in their original order on both columns, so
// r<round>-e<i> pairs with r<round>-c<i>.
func newTestSession(t *testing.T, words []models.WordPair, opts ...Option) (*Session, *fakeClock, *recorder) {
	t.Helper()
	clock := newFakeClock()
	rec := &recorder{}
	base := []Option{WithClock(clock), WithRNG(identityRNG{}), WithListener(rec.listen)}
	s, err := NewSession(DefaultConfig(), words, append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s, clock, rec
}

func cardID(round int, side Side, slot int) string {
	if side == SideEnglish {
		return fmt.Sprintf("r%d-e%d", round, slot)
	}
	return fmt.Sprintf("r%d-c%d", round, slot)
}

func stateOf(v View, id string) CardState {
	for _, c := range append(append([]CardView{}, v.English...), v.Chinese...) {
		if c.ID == id {
			return c.State
		}
	}
	return ""
}

func sortedTexts(cards []CardView) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Text
	}
	sort.Strings(out)
	return out
}
