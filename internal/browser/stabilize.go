package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
)

const (
	defaultPostLoadWait = 500 * time.Millisecond
	loadCheckFrequency  = 50 * time.Millisecond
)

// loadTracker follows the frame loading events of one tab.
type loadTracker struct {
	mu        sync.Mutex
	loading   map[cdp.FrameID]struct{}
	lastEvent time.Time
}

func newLoadTracker() *loadTracker {
	return &loadTracker{loading: make(map[cdp.FrameID]struct{})}
}

// handle is registered with chromedp.ListenTarget. It must not block.
func (l *loadTracker) handle(ev interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch e := ev.(type) {
	case *page.EventFrameStartedLoading:
		l.loading[e.FrameID] = struct{}{}
	case *page.EventFrameStoppedLoading:
		delete(l.loading, e.FrameID)
	case *page.EventFrameDetached:
		delete(l.loading, e.FrameID)
	case *page.EventLoadEventFired, *page.EventFrameNavigated:
	default:
		return
	}
	l.lastEvent = time.Now()
}

// state returns the number of frames still loading and the time of the last
// loading event.
func (l *loadTracker) state() (int, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.loading), l.lastEvent
}

// waitIdle blocks until no frame has been loading for quietPeriod, counted
// from the later of the call and the last loading event.
func (l *loadTracker) waitIdle(ctx context.Context, quietPeriod time.Duration) error {
	start := time.Now()
	ticker := time.NewTicker(loadCheckFrequency)
	defer ticker.Stop()

	for {
		active, last := l.state()
		if last.Before(start) {
			last = start
		}
		if active == 0 && time.Since(last) >= quietPeriod {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
