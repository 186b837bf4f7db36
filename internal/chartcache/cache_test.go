package chartcache

import (
	"testing"
	"time"

	"github.com/b0ase/path402/apps/feescope/internal/fees"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(ttl time.Duration, size int) (*Cache, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	c := New(ttl, size)
	c.now = clk.now
	return c, clk
}

func TestPutGet(t *testing.T) {
	c, _ := newTestCache(time.Minute, 10)
	chart := &fees.Chart{Stats: fees.Stats{AvgRate: 5}}

	c.Put(100, fees.ModeNone, chart)
	if got := c.Get(100, fees.ModeNone); got != chart {
		t.Errorf("Get = %v, want stored chart", got)
	}
	if got := c.Get(100, fees.ModeSortRate); got != nil {
		t.Errorf("Get with other mode = %v, want nil", got)
	}
}

func TestExpiry(t *testing.T) {
	c, clk := newTestCache(time.Minute, 10)
	c.Put(1, fees.ModeNone, &fees.Chart{})

	clk.t = clk.t.Add(2 * time.Minute)
	if c.Get(1, fees.ModeNone) != nil {
		t.Error("expired chart still returned")
	}
	if n := c.prune(); n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}
	if c.Len() != 0 {
		t.Errorf("len = %d after prune", c.Len())
	}
}

func TestEvictOldest(t *testing.T) {
	c, clk := newTestCache(0, 2)
	c.Put(1, fees.ModeNone, &fees.Chart{})
	clk.t = clk.t.Add(time.Second)
	c.Put(2, fees.ModeNone, &fees.Chart{})
	clk.t = clk.t.Add(time.Second)
	c.Put(3, fees.ModeNone, &fees.Chart{})

	if c.Len() != 2 {
		t.Errorf("len = %d, want 2", c.Len())
	}
	if c.Get(1, fees.ModeNone) != nil {
		t.Error("oldest entry was not evicted")
	}
	if c.Get(3, fees.ModeNone) == nil {
		t.Error("newest entry missing")
	}
}

func TestInvalidate(t *testing.T) {
	c, _ := newTestCache(0, 10)
	c.Put(7, fees.ModeNone, &fees.Chart{})
	c.Put(7, fees.ModeGroupRuns, &fees.Chart{})
	c.Put(8, fees.ModeNone, &fees.Chart{})

	c.Invalidate(7)
	if c.Len() != 1 || c.Get(8, fees.ModeNone) == nil {
		t.Errorf("Invalidate(7) left len=%d", c.Len())
	}
}

func TestPutIfCurrentSkipsAfterInvalidate(t *testing.T) {
	c, _ := newTestCache(0, 10)

	gen := c.Generation()
	c.Invalidate(5)
	if c.PutIfCurrent(5, fees.ModeNone, gen, &fees.Chart{}) {
		t.Error("PutIfCurrent stored a chart built before Invalidate")
	}
	if c.Get(5, fees.ModeNone) != nil {
		t.Error("stale chart cached")
	}

	gen = c.Generation()
	if !c.PutIfCurrent(5, fees.ModeNone, gen, &fees.Chart{}) {
		t.Error("PutIfCurrent refused a current chart")
	}
	if c.Get(5, fees.ModeNone) == nil {
		t.Error("current chart not cached")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	c := New(time.Minute, 1)
	c.Start()
	c.Stop()
	c.Stop()
}
