package store

import (
	"strconv"
	"sync"
	"time"
)

// VersionClock hands out version stamps: wall-clock milliseconds, bumped so
// that each stamp is strictly greater than the previous one.
type VersionClock struct {
	mu    sync.Mutex
	last  int64
	nowFn func() time.Time
}

func NewVersionClock() *VersionClock {
	return &VersionClock{nowFn: time.Now}
}

// Next returns a fresh stamp.
func (c *VersionClock) Next() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nowFn == nil {
		c.nowFn = time.Now
	}
	ms := c.nowFn().UnixMilli()
	if ms <= c.last {
		ms = c.last + 1
	}
	c.last = ms
	return strconv.FormatInt(ms, 10)
}

// CompareVersions orders two stamps numerically; non-numeric stamps sort
// before numeric ones and compare as strings among themselves.
func CompareVersions(a, b string) int {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	case aerr != nil && berr == nil:
		return -1
	case aerr == nil && berr != nil:
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
