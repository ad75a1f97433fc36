package game

import (
	"time"
)

// FPSLimiter paces a render loop to a fixed frame rate
type FPSLimiter struct {
	// Limit is the target frames per second; zero or less disables pacing.
	Limit int

	next time.Time
}

// NewFPSLimiter creates a limiter for the given frame rate.
func NewFPSLimiter(limit int) *FPSLimiter {
	return &FPSLimiter{Limit: limit}
}

// Wait blocks until the next frame is due. Uses a hybrid sleep/spin approach for better
// precision on high caps.
func (f *FPSLimiter) Wait() {
	if f.Limit <= 0 {
		f.next = time.Time{}
		return
	}

	target := f.frameTime()
	if f.next.IsZero() {
		f.next = time.Now().Add(target)
	} else {
		f.next = f.next.Add(target)
	}

	for {
		remaining := time.Until(f.next)
		if remaining <= 0 {
			break
		}
		if remaining > 200*time.Microsecond {
			time.Sleep(remaining - 200*time.Microsecond)
		}
		// busy-wait for the final few microseconds
		if time.Until(f.next) <= 0 {
			break
		}
	}

	// after a hitch, resync instead of racing to catch up
	if late := -time.Until(f.next); late > target {
		f.next = time.Now().Add(target)
	}
}

func (f *FPSLimiter) frameTime() time.Duration {
	return time.Second / time.Duration(f.Limit)
}
