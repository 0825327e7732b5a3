package transport

import "sync"

// BufferPool recycles the fixed-size byte slices used to read and write
// UDP datagrams, avoiding one allocation per packet. It wraps a sync.Pool
// and is safe for concurrent use; nothing in this repository uses it.
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool returns a pool whose Get always yields a slice of
// capacity bufSize.
func NewBufferPool(bufSize int) *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				b := make([]byte, bufSize)
				return &b
			},
		},
	}
}

// Get returns a buffer from the pool, resliced to its full capacity.
func (p *BufferPool) Get() []byte {
	b := p.pool.Get().(*[]byte)
	return (*b)[:cap(*b)]
}

// Put returns a buffer to the pool for reuse. Callers must not retain b
// afterward.
func (p *BufferPool) Put(b []byte) {
	p.pool.Put(&b)
}
