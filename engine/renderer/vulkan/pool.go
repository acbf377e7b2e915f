package vulkan

import (
	"sync"
	"sync/atomic"
)

// handleCounter is shared by every pool so that no two live objects, of any
// kind, are ever handed the same number.
var handleCounter atomic.Uint64

func nextHandle() uint64 {
	return handleCounter.Add(1)
}

// handlePool maps the opaque handles given to the frame engine onto the
// native objects they stand for.
type handlePool[T any] struct {
	mu    sync.Mutex
	items map[uint64]T
}

func newHandlePool[T any]() *handlePool[T] {
	return &handlePool[T]{items: make(map[uint64]T)}
}

func (p *handlePool[T]) add(item T) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	h := nextHandle()
	p.items[h] = item
	return h
}

func (p *handlePool[T]) get(h uint64) (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	item, ok := p.items[h]
	return item, ok
}

// take removes the handle and returns what it named. A zero or unknown
// handle reports false.
func (p *handlePool[T]) take(h uint64) (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	item, ok := p.items[h]
	if ok {
		delete(p.items, h)
	}
	return item, ok
}

func (p *handlePool[T]) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// queueLocks serializes access to each queue family. Submission and
// presentation on the same family must not overlap.
type queueLocks struct {
	mu    sync.Mutex
	locks map[uint32]*sync.Mutex
}

func newQueueLocks() *queueLocks {
	return &queueLocks{locks: make(map[uint32]*sync.Mutex)}
}

func (ql *queueLocks) lockFor(family uint32) *sync.Mutex {
	ql.mu.Lock()
	defer ql.mu.Unlock()

	if _, exists := ql.locks[family]; !exists {
		ql.locks[family] = &sync.Mutex{}
	}
	return ql.locks[family]
}

// Lock takes the lock of a queue family and returns its unlock function.
func (ql *queueLocks) Lock(family uint32) func() {
	l := ql.lockFor(family)
	l.Lock()
	return l.Unlock
}

func (ql *queueLocks) SafeQueueCall(family uint32, fn func() error) error {
	unlock := ql.Lock(family)
	defer unlock()

	return fn()
}
