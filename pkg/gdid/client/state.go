package client

import (
	"sync"
	"time"

	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
)

// cachedBlock 当前正在发放的 block，remaining 只存在于本地
type cachedBlock struct {
	block     *gdid.Block
	remaining int
}

func newCachedBlock(b *gdid.Block) *cachedBlock {
	return &cachedBlock{block: b, remaining: b.BlockSize}
}

// take 取出下一个 ID：counter = start + (size - remaining)
func (c *cachedBlock) take() gdid.GDID {
	id := c.block.At(c.block.BlockSize - c.remaining)
	c.remaining--
	return id
}

// sequenceState 单个 (scope, sequence) 的客户端状态，所有字段受 mu 保护
type sequenceState struct {
	mu sync.Mutex

	current          *cachedBlock
	prefetched       *gdid.Block
	prefetchInFlight bool

	lastRequest   time.Time
	intervals     [IntervalHistory]time.Duration
	intervalCount int
	intervalNext  int
}

func (s *sequenceState) remaining() int {
	if s.current == nil {
		return 0
	}
	return s.current.remaining
}

// swapPrefetched 当前 block 用完时换上预取的 block
func (s *sequenceState) swapPrefetched() bool {
	if s.prefetched == nil {
		return false
	}
	s.current = newCachedBlock(s.prefetched)
	s.prefetched = nil
	return true
}

// recordRequest 记录与上一次请求的间隔，不足 MinInterval 按 MinInterval 计
func (s *sequenceState) recordRequest(now time.Time) {
	if !s.lastRequest.IsZero() {
		d := now.Sub(s.lastRequest)
		if d < MinInterval {
			d = MinInterval
		}
		s.intervals[s.intervalNext] = d
		s.intervalNext = (s.intervalNext + 1) % IntervalHistory
		if s.intervalCount < IntervalHistory {
			s.intervalCount++
		}
	}
	s.lastRequest = now
}

// estimateBlockSize MinBlockSize + (5 * 16) / 平均间隔秒数，结果截断到 [MinBlockSize, max]
func (s *sequenceState) estimateBlockSize(fallback, max int) int {
	size := fallback
	if s.intervalCount > 0 {
		var sum time.Duration
		for i := 0; i < s.intervalCount; i++ {
			sum += s.intervals[i]
		}
		avg := sum.Seconds() / float64(s.intervalCount)
		size = MinBlockSize + int(float64(NormSecondsBetweenAuthorityCalls*NormIDsPerSecond)/avg)
	}
	return clampBlockSize(size, max)
}

func clampBlockSize(size, max int) int {
	if size < MinBlockSize {
		size = MinBlockSize
	}
	if size > max {
		size = max
	}
	return size
}
