// Package bytebuff 编解码用的 buffer 池，底层为 valyala/bytebufferpool
package bytebuff

import (
	"github.com/valyala/bytebufferpool"
	"go.uber.org/atomic"
)

// maxSize 超过该容量的 buffer 不放回池中，让 GC 回收
const maxSize = 1 << 20

// Buffer 池中的 buffer 类型
type Buffer = bytebufferpool.ByteBuffer

// Pool 带统计的 buffer 池
type Pool struct {
	pool bytebufferpool.Pool

	gets    atomic.Uint64
	puts    atomic.Uint64
	dropped atomic.Uint64
}

var defaultPool = NewPool()

// NewPool 创建 buffer 池
func NewPool() *Pool {
	return &Pool{}
}

// Get 取出一个已清空的 buffer
func (p *Pool) Get() *Buffer {
	p.gets.Inc()
	return p.pool.Get()
}

// Put 归还 buffer
func (p *Pool) Put(buf *Buffer) {
	if buf == nil {
		return
	}
	if cap(buf.B) > maxSize {
		p.dropped.Inc()
		return
	}
	p.puts.Inc()
	p.pool.Put(buf)
}

// Stats 返回 get/put/丢弃次数
func (p *Pool) Stats() (gets, puts, dropped uint64) {
	return p.gets.Load(), p.puts.Load(), p.dropped.Load()
}

// Get 从默认池取 buffer
func Get() *Buffer {
	return defaultPool.Get()
}

// Put 归还到默认池
func Put(buf *Buffer) {
	defaultPool.Put(buf)
}

// Stats 默认池统计
func Stats() (gets, puts, dropped uint64) {
	return defaultPool.Stats()
}
