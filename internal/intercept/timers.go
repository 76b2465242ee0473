package intercept

import (
	"time"

	"github.com/dop251/goja"
)

// minTimerDelay is the smallest delay a timer is scheduled with, so that
// zero-delay intervals and recursive timeouts still advance the clock.
const minTimerDelay = time.Millisecond

type timer struct {
	id       int64
	seq      int64
	due      time.Duration
	interval time.Duration
	repeat   bool
	fn       goja.Callable
}

// timerQueue schedules page timers on a virtual clock that starts at zero
// when the page's scripts start running.
type timerQueue struct {
	now    time.Duration
	nextID int64
	seq    int64
	timers map[int64]*timer
}

func newTimerQueue() *timerQueue {
	return &timerQueue{timers: make(map[int64]*timer)}
}

func (q *timerQueue) add(fn goja.Callable, delay time.Duration, repeat bool) int64 {
	delay = max(delay, minTimerDelay)
	q.nextID++
	q.seq++
	q.timers[q.nextID] = &timer{
		id:       q.nextID,
		seq:      q.seq,
		due:      q.now + delay,
		interval: delay,
		repeat:   repeat,
		fn:       fn,
	}
	return q.nextID
}

func (q *timerQueue) clear(id int64) {
	delete(q.timers, id)
}

// pop returns the earliest timer due at or before limit and advances the
// clock to its due time. Timers due at the same time fire in scheduling
// order. Repeating timers are rescheduled, one-shot timers removed.
func (q *timerQueue) pop(limit time.Duration) (*timer, bool) {
	var next *timer
	for _, t := range q.timers {
		if next == nil || t.due < next.due || (t.due == next.due && t.seq < next.seq) {
			next = t
		}
	}
	if next == nil || next.due > limit {
		return nil, false
	}
	q.now = next.due
	if next.repeat {
		q.seq++
		fired := *next
		next.due += next.interval
		next.seq = q.seq
		return &fired, true
	}
	delete(q.timers, next.id)
	return next, true
}

// pending returns the number of scheduled timers.
func (q *timerQueue) pending() int {
	return len(q.timers)
}
