package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func TestFakeAfterFuncFiresInDeadlineOrder(t *testing.T) {
	c := Fake(epoch)
	var order []int
	c.AfterFunc(2*time.Minute, func() { order = append(order, 2) })
	c.AfterFunc(1*time.Minute, func() { order = append(order, 1) })

	c.Advance(90 * time.Second)
	if len(order) != 1 || order[0] != 1 {
		t.Fatalf("after 90s order = %v, want [1]", order)
	}

	c.Advance(time.Minute)
	if len(order) != 2 || order[1] != 2 {
		t.Fatalf("after 150s order = %v, want [1 2]", order)
	}
	if got := c.Now(); !got.Equal(epoch.Add(150 * time.Second)) {
		t.Errorf("Now() = %v, want %v", got, epoch.Add(150*time.Second))
	}
}

func TestFakeCallbackSeesItsDeadline(t *testing.T) {
	c := Fake(epoch)
	var seen time.Time
	c.AfterFunc(time.Hour, func() { seen = c.Now() })
	c.Advance(3 * time.Hour)
	if !seen.Equal(epoch.Add(time.Hour)) {
		t.Errorf("callback saw %v, want %v", seen, epoch.Add(time.Hour))
	}
}

func TestFakeChainedCallbacks(t *testing.T) {
	c := Fake(epoch)
	fired := 0
	var step func()
	step = func() {
		fired++
		if fired < 3 {
			c.AfterFunc(10*time.Minute, step)
		}
	}
	c.AfterFunc(10*time.Minute, step)

	c.Advance(time.Hour)
	if fired != 3 {
		t.Errorf("fired = %d, want 3", fired)
	}
	if len(c.Pending()) != 0 {
		t.Errorf("Pending() = %v, want none", c.Pending())
	}
}

func TestFakeStop(t *testing.T) {
	c := Fake(epoch)
	fired := false
	timer := c.AfterFunc(time.Minute, func() { fired = true })

	if !timer.Stop() {
		t.Error("Stop() = false on a pending timer")
	}
	if timer.Stop() {
		t.Error("second Stop() = true, want false")
	}
	c.Advance(time.Hour)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestFakePending(t *testing.T) {
	c := Fake(epoch)
	c.AfterFunc(2*time.Hour, func() {})
	c.AfterFunc(30*time.Minute, func() {})

	pending := c.Pending()
	if len(pending) != 2 {
		t.Fatalf("len(Pending()) = %d, want 2", len(pending))
	}
	if !pending[0].Equal(epoch.Add(30*time.Minute)) || !pending[1].Equal(epoch.Add(2*time.Hour)) {
		t.Errorf("Pending() = %v", pending)
	}
}
