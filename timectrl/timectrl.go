package timectrl

import (
	"math"
	"sync"
	"time"
)

// DocumentClock tracks the time span covered by a converted trajectory.
// Timesteps are seconds relative to StartTime; the interval grows to the
// largest timestep observed and never ends before StartTime.
type DocumentClock struct {
	mu sync.RWMutex

	StartTime     time.Time
	CurrentOffset time.Duration
	Multiplier    float64

	maxTimestep float64
}

// NewDocumentClock constructs a clock starting at start whose current time
// sits currentOffset after it. The playback multiplier defaults to 1.
func NewDocumentClock(start time.Time, currentOffset time.Duration) *DocumentClock {
	return &DocumentClock{
		StartTime:     start,
		CurrentOffset: currentOffset,
		Multiplier:    1,
	}
}

// Observe records a timestep (seconds after StartTime).
func (c *DocumentClock) Observe(timestep float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if timestep > c.maxTimestep {
		c.maxTimestep = timestep
	}
}

// MaxTimestep returns the largest timestep observed so far, or 0.
func (c *DocumentClock) MaxTimestep() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxTimestep
}

// Interval returns the availability interval of the document.
func (c *DocumentClock) Interval() (start, end time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.StartTime, c.StartTime.Add(Seconds(c.maxTimestep))
}

// CurrentTime returns StartTime + CurrentOffset.
func (c *DocumentClock) CurrentTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.StartTime.Add(c.CurrentOffset)
}

// Seconds converts fractional seconds to a Duration rounded to the
// microsecond, the resolution of the document's timestamps.
func Seconds(s float64) time.Duration {
	return time.Duration(math.Round(s*1e6)) * time.Microsecond
}
