package quiz

import (
	"context"
	"time"
)

// SetSleep replaces the pause used between questions.
func (r *Runner) SetSleep(fn func(ctx context.Context, d time.Duration) error) {
	r.sleep = fn
}
