package bytebuff

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool_GetPut(t *testing.T) {
	p := NewPool()

	buf := p.Get()
	assert.Equal(t, 0, buf.Len())
	_, _ = buf.WriteString("hello")
	assert.Equal(t, "hello", buf.String())
	p.Put(buf)

	again := p.Get()
	assert.Equal(t, 0, again.Len())

	gets, puts, dropped := p.Stats()
	assert.Equal(t, uint64(2), gets)
	assert.Equal(t, uint64(1), puts)
	assert.Equal(t, uint64(0), dropped)
}

func TestPool_DropsLargeBuffers(t *testing.T) {
	p := NewPool()
	buf := p.Get()
	buf.B = make([]byte, 0, maxSize+1)
	p.Put(buf)
	p.Put(nil)

	_, puts, dropped := p.Stats()
	assert.Equal(t, uint64(0), puts)
	assert.Equal(t, uint64(1), dropped)
}

func TestPool_Concurrent(t *testing.T) {
	p := NewPool()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				buf := p.Get()
				_, _ = buf.Write([]byte{byte(j)})
				p.Put(buf)
			}
		}()
	}
	wg.Wait()

	gets, puts, _ := p.Stats()
	assert.Equal(t, uint64(1600), gets)
	assert.Equal(t, gets, puts)
}
