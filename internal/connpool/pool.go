/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package connpool is a generic LIFO freelist for per-connection records.
// It is generic over the record type so it can sit underneath the server
// package without an import cycle: the server owns the connection struct,
// connpool only owns its lifecycle.
package connpool

import "sync"

// Pool recycles records of type T in LIFO order: the most recently freed
// record is the first one handed back out, which keeps the hot set small
// and cache-friendly under churn. Freed records are never pooled beyond
// cap — anything above that is simply dropped for the garbage collector.
type Pool[T any] struct {
	mu   sync.Mutex
	free []*T
	cap  int

	newFn   func() *T
	resetFn func(*T)

	allocated int64 // total records ever constructed, for the conn_structs stat
}

// New builds a Pool bounded to capacity entries. newFn constructs a fresh
// record when the freelist is empty; resetFn (optional) clears a record
// before it's handed back out, so stale state never leaks across
// connections.
func New[T any](capacity int, newFn func() *T, resetFn func(*T)) *Pool[T] {
	if capacity < 1 {
		capacity = 1
	}

	return &Pool[T]{
		free:    make([]*T, 0, capacity),
		cap:     capacity,
		newFn:   newFn,
		resetFn: resetFn,
	}
}

// Get pops the most recently freed record, or constructs a new one (and
// counts it toward Allocated) when the freelist is empty.
func (p *Pool[T]) Get() *T {
	p.mu.Lock()

	if n := len(p.free); n > 0 {
		rec := p.free[n-1]
		p.free = p.free[:n-1]
		p.mu.Unlock()

		if p.resetFn != nil {
			p.resetFn(rec)
		}

		return rec
	}

	p.allocated++
	p.mu.Unlock()

	return p.newFn()
}

// Put returns rec to the freelist, growing its backing array by doubling
// up to cap. Once the freelist is at capacity the record is dropped
// instead of pooled, bounding worst-case idle memory.
func (p *Pool[T]) Put(rec *T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) >= p.cap {
		return
	}

	if len(p.free) == cap(p.free) {
		grown := cap(p.free) * 2
		if grown > p.cap {
			grown = p.cap
		}
		if grown <= cap(p.free) {
			grown = cap(p.free) + 1
		}

		next := make([]*T, len(p.free), grown)
		copy(next, p.free)
		p.free = next
	}

	p.free = append(p.free, rec)
}

// Allocated returns how many records this pool has ever constructed,
// feeding the conn_structs counter.
func (p *Pool[T]) Allocated() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.allocated
}

// Free returns how many records currently sit idle in the freelist.
func (p *Pool[T]) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.free)
}
