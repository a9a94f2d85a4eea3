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

// Package store defines the Store/Engine boundary consumed by the front
// end: a bitcask-style key-value engine is an external collaborator
// here, reached only through the Engine interface below. memengine.go
// provides a reference in-process implementation used by tests and by
// `beansdbd serve --memory`; it is not a production storage engine.
package store

import "time"

// Item is the value-bearing entity the storage engine hands back on Get.
// Suffix is the pre-formatted " <flags> <nbytes>\r\n" text that immediately
// precedes Value in the reply framing, kept pre-built so a get reply can
// reuse it as a single wire segment.
type Item struct {
	Key    []byte
	Value  []byte
	Flag   uint32
	Ver    int64
	Suffix []byte
}

// SetResult mirrors the storage engine's stored/exists/not-found/not-stored
// outcome codes.
type SetResult int

const (
	SetStored SetResult = iota + 1
	SetExists
	SetNotFound
	SetNotStored SetResult = 0
)

// OptimizeResult mirrors the storage engine's optimize outcome codes.
type OptimizeResult int

const (
	OptimizeOK          OptimizeResult = 0
	OptimizeReadOnly    OptimizeResult = -1
	OptimizeRunning     OptimizeResult = -2
	OptimizeBadArgument OptimizeResult = -3
)

// OptimizeStatus mirrors the storage engine's optimize-progress report: a
// non-negative bucket index while optimizing, or a terminal status.
type OptimizeStatus int

const (
	OptimizeStatusIdle OptimizeStatus = -1
	OptimizeStatusFail OptimizeStatus = -2
)

// Engine is the Go shape of the storage engine's interface. The front end
// never holds a lock across an Engine call: the engine is expected to
// provide its own internal concurrency and sharding.
type Engine interface {
	Set(key []byte, val []byte, flag uint32, ver int64) (SetResult, error)
	Append(key []byte, val []byte) (bool, error)
	Incr(key []byte, delta int64) (uint64, error)
	Delete(key []byte) (bool, error)
	Get(key []byte) (*Item, error)

	// Count returns (current live keys, total keys ever written).
	Count() (curr uint64, total uint64)
	// Stat returns (total space bytes, available space bytes).
	Stat() (totalSpace uint64, availSpace uint64)

	Flush(limitKB int, period time.Duration) error
	Optimize(limit int, tree string) (OptimizeResult, error)
	OptimizeStat() OptimizeStatus

	Close() error
}
