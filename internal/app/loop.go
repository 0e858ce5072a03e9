package app

import (
	"context"
	"sync/atomic"
	"time"
)

// RunLoop calls frame at the given rate until ctx is done. Frames are
// handed to do, which runs them on the UI goroutine; while a frame is still
// waiting to run no further frame is queued. dt is the time since the
// previous frame ran.
func RunLoop(ctx context.Context, fps int, do func(func()), frame func(dt time.Duration)) {
	if fps <= 0 {
		fps = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var pending atomic.Bool
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !pending.CompareAndSwap(false, true) {
				continue
			}
			do(func() {
				defer pending.Store(false)
				if ctx.Err() != nil {
					return
				}
				now := time.Now()
				dt := now.Sub(last)
				last = now
				frame(dt)
			})
		}
	}
}
