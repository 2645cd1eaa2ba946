// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lockstone

import (
	"sync/atomic"
	"time"
)

// Clock supplies the timestamp used by stake lifecycle checks.
// Implementations must be monotonic non-decreasing.
type Clock interface {
	// Now returns the current unix timestamp in seconds.
	Now() uint64
}

// SystemClock reads the wall clock, pinned so it never goes backwards.
type SystemClock struct {
	last atomic.Uint64
}

// NewSystemClock creates a system clock.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the current unix timestamp in seconds.
func (c *SystemClock) Now() uint64 {
	now := uint64(time.Now().Unix())
	for {
		last := c.last.Load()
		if now <= last {
			return last
		}
		if c.last.CompareAndSwap(last, now) {
			return now
		}
	}
}

// ManualClock is a settable clock for tests and solo mode.
type ManualClock struct {
	now atomic.Uint64
}

// NewManualClock creates a manual clock starting at ts.
func NewManualClock(ts uint64) *ManualClock {
	c := &ManualClock{}
	c.now.Store(ts)
	return c
}

// Now returns the manually set timestamp.
func (c *ManualClock) Now() uint64 {
	return c.now.Load()
}

// Forward advances the clock by d seconds.
func (c *ManualClock) Forward(d uint64) {
	c.now.Add(d)
}
