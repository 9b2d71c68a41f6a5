package gdid

import (
	"sync"
	"time"
)

// Clock 时钟抽象，便于测试中控制时间
type Clock interface {
	Now() time.Time
}

// SystemClock 系统时钟（UTC）
type SystemClock struct{}

// Now 当前 UTC 时间
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// ManualClock 手动推进的时钟，仅用于测试
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock 创建手动时钟
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now 当前时间
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance 推进时间
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set 设置时间
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
