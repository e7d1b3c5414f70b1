package clock

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFake_FiresAtDeadline(t *testing.T) {
	c := NewFake(epoch)
	fired := 0
	c.AfterFunc(500*time.Millisecond, func() { fired++ })

	c.Advance(499 * time.Millisecond)
	assert.Equal(t, 0, fired)
	assert.Equal(t, 1, c.Pending())

	c.Advance(time.Millisecond)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, c.Pending())
	assert.Equal(t, epoch.Add(500*time.Millisecond), c.Now())

	c.Advance(time.Hour)
	assert.Equal(t, 1, fired)
}

func TestFake_Stop(t *testing.T) {
	c := NewFake(epoch)
	fired := false
	tm := c.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop())
	c.Advance(2 * time.Second)
	assert.False(t, fired)
}

func TestFake_OrderAndNowDuringCallback(t *testing.T) {
	c := NewFake(epoch)
	var order []string
	var seenAt time.Time
	c.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	c.AfterFunc(time.Second, func() {
		order = append(order, "a")
		seenAt = c.Now()
	})
	c.AfterFunc(2*time.Second, func() { order = append(order, "c") })

	c.Advance(3 * time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, epoch.Add(time.Second), seenAt)
	assert.Equal(t, epoch.Add(3*time.Second), c.Now())
}

func TestFake_TimerArmedByCallback(t *testing.T) {
	c := NewFake(epoch)
	fired := 0
	c.AfterFunc(time.Second, func() {
		c.AfterFunc(time.Second, func() { fired++ })
	})

	c.Advance(2 * time.Second)
	assert.Equal(t, 1, fired)
}

func TestReal_AfterFunc(t *testing.T) {
	done := make(chan struct{})
	Real().AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("real timer did not fire")
	}
}

func TestWaiter_WaitsForFiredAndStopped(t *testing.T) {
	fake := NewFake(epoch)
	w := NewWaiter(fake)

	fired := 0
	w.AfterFunc(time.Second, func() { fired++ })
	stopped := w.AfterFunc(time.Minute, func() { fired += 10 })

	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())
	fake.Advance(time.Second)

	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after every timer settled")
	}
	assert.Equal(t, 1, fired)
	assert.Equal(t, epoch.Add(time.Second), w.Now())
}

func TestWaiter_RealClock(t *testing.T) {
	w := NewWaiter(Real())
	var fired atomic.Bool
	w.AfterFunc(10*time.Millisecond, func() { fired.Store(true) })
	w.Wait()
	assert.True(t, fired.Load())
}
