package intercept

import (
	"testing"
	"time"
)

func TestTimerQueueOrder(t *testing.T) {
	t.Parallel()

	q := newTimerQueue()
	a := q.add(nil, 30*time.Millisecond, false)
	b := q.add(nil, 10*time.Millisecond, false)
	c := q.add(nil, 10*time.Millisecond, false)
	zero := q.add(nil, 0, false)

	var order []int64
	for {
		tm, ok := q.pop(time.Second)
		if !ok {
			break
		}
		order = append(order, tm.id)
	}
	want := []int64{zero, b, c, a}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order = %v, want %v", order, want)
			break
		}
	}
	if q.now != 30*time.Millisecond {
		t.Errorf("clock = %v, want 30ms", q.now)
	}
}

func TestTimerQueueRepeatAndLimit(t *testing.T) {
	t.Parallel()

	q := newTimerQueue()
	id := q.add(nil, 0, true)

	fired := 0
	for {
		if _, ok := q.pop(5 * time.Millisecond); !ok {
			break
		}
		fired++
	}
	if fired != 5 {
		t.Errorf("zero-delay interval fired %d times within 5ms, want 5", fired)
	}
	if q.pending() != 1 {
		t.Errorf("interval should still be pending")
	}
	q.clear(id)
	if q.pending() != 0 {
		t.Errorf("clear should remove the interval")
	}
}
