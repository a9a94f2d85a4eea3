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

package store

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"
)

const shardCount = 64

var errEmptyKey = errors.New("store: empty key")

type record struct {
	val []byte
	flag uint32
	ver  int64
}

type shard struct {
	mu sync.RWMutex
	m  map[string]record
}

// memEngine is a reference Engine implementation sharded by key hash, the
// way a real storage engine partitions its internal concurrency. It is
// memory-only and exists so the front end can be exercised and tested
// without a real bitcask engine attached.
type memEngine struct {
	shards [shardCount]*shard

	total   atomic.Uint64
	curr    atomic.Int64
	optBkt  atomic.Int64
	optStat atomic.Int64 // OptimizeStatus while not optimizing
	closed  atomic.Bool
}

// NewMemEngine builds an empty in-memory Engine.
func NewMemEngine() Engine {
	e := &memEngine{}
	for i := range e.shards {
		e.shards[i] = &shard{m: make(map[string]record)}
	}
	e.optStat.Store(int64(OptimizeStatusIdle))

	return e
}

func (e *memEngine) shardFor(key []byte) *shard {
	h := fnv.New32a()
	_, _ = h.Write(key)

	return e.shards[h.Sum32()%shardCount]
}

func (e *memEngine) Set(key []byte, val []byte, flag uint32, ver int64) (SetResult, error) {
	if len(key) == 0 {
		return SetNotStored, errEmptyKey
	}

	s := e.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.m[string(key)]
	s.m[string(key)] = record{val: append([]byte(nil), val...), flag: flag, ver: ver}

	e.total.Add(1)
	if !existed {
		e.curr.Add(1)
	}

	return SetStored, nil
}

func (e *memEngine) Append(key []byte, val []byte) (bool, error) {
	if len(key) == 0 {
		return false, errEmptyKey
	}

	s := e.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.m[string(key)]
	if !ok {
		return false, nil
	}

	r.val = append(r.val, val...)
	s.m[string(key)] = r
	e.total.Add(1)

	return true, nil
}

func (e *memEngine) Incr(key []byte, delta int64) (uint64, error) {
	if len(key) == 0 {
		return 0, errEmptyKey
	}

	s := e.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.m[string(key)]
	var cur uint64
	if ok {
		cur = parseUint(r.val)
	}

	next := int64(cur) + delta
	if next < 0 {
		next = 0
	}

	r.val = []byte(formatUint(uint64(next)))
	s.m[string(key)] = r

	if !ok {
		e.curr.Add(1)
	}
	e.total.Add(1)

	return uint64(next), nil
}

func (e *memEngine) Delete(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, errEmptyKey
	}

	s := e.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[string(key)]; !ok {
		return false, nil
	}

	delete(s.m, string(key))
	e.curr.Add(-1)

	return true, nil
}

func (e *memEngine) Get(key []byte) (*Item, error) {
	if len(key) == 0 {
		return nil, errEmptyKey
	}

	s := e.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.m[string(key)]
	if !ok {
		return nil, nil
	}

	val := append([]byte(nil), r.val...)

	return &Item{
		Key:    append([]byte(nil), key...),
		Value:  val,
		Flag:   r.flag,
		Ver:    r.ver,
		Suffix: []byte(fmt.Sprintf(" %d %d\r\n", r.flag, len(val))),
	}, nil
}

func (e *memEngine) Count() (curr uint64, total uint64) {
	c := e.curr.Load()
	if c < 0 {
		c = 0
	}

	return uint64(c), e.total.Load()
}

func (e *memEngine) Stat() (totalSpace uint64, availSpace uint64) {
	var used uint64
	for _, s := range e.shards {
		s.mu.RLock()
		for _, r := range s.m {
			used += uint64(len(r.val))
		}
		s.mu.RUnlock()
	}

	const budget = 8 << 30 // 8GiB notional budget for the in-memory reference engine
	if used > budget {
		return used, 0
	}

	return budget, budget - used
}

func (e *memEngine) Flush(limitKB int, period time.Duration) error {
	// The in-memory reference engine has nothing to fsync; flush is a
	// documented no-op kept so the background flush loop has a real call
	// to make on a timer.
	return nil
}

func (e *memEngine) Optimize(limit int, tree string) (OptimizeResult, error) {
	if e.optStat.Load() >= 0 {
		return OptimizeRunning, nil
	}

	e.optStat.Store(0)
	defer e.optStat.Store(int64(OptimizeStatusIdle))

	return OptimizeOK, nil
}

func (e *memEngine) OptimizeStat() OptimizeStatus {
	return OptimizeStatus(e.optStat.Load())
}

func (e *memEngine) Close() error {
	e.closed.Store(true)
	return nil
}

func parseUint(b []byte) uint64 {
	var n uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + uint64(c-'0')
	}

	return n
}

func formatUint(n uint64) string {
	if n == 0 {
		return "0"
	}

	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}

	return string(buf[i:])
}
