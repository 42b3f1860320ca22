package coordinator

import (
	"context"
	"time"

	"github.com/smokyabdulrahman/vakit/internal/prayer"
)

// RecomputeInterval is how often the next-prayer view is re-derived.
const RecomputeInterval = time.Minute

// Update is one emission of Watch. Next is nil when no schedule is held.
type Update struct {
	State State
	Next  *prayer.NextView
	At    time.Time
}

// Watch blocks until the initial load has finished, then calls fn
// immediately and on every tick of interval. It never touches the network.
// It returns when ctx is cancelled.
func (c *Coordinator) Watch(ctx context.Context, interval time.Duration, fn func(Update)) {
	if interval <= 0 {
		interval = RecomputeInterval
	}

	select {
	case <-c.loaded:
	case <-ctx.Done():
		return
	}

	emit := func() {
		now := c.now()
		u := Update{State: c.State(), At: now}
		if v, ok := c.Next(now); ok {
			u.Next = &v
		}
		fn(u)
	}

	emit()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			emit()
		}
	}
}
