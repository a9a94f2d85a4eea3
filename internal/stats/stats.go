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

// Package stats holds the process-wide counters reported by the stats
// command, guarded by a single mutex held only for the minimum time
// needed to increment or read a group of them.
package stats

import (
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Stats is the mutable counter block. Zero value is ready to use.
type Stats struct {
	mu sync.Mutex

	currConns     int64
	totalConns    int64
	connStructs   int64
	cmdGet        int64
	cmdSet        int64
	cmdDelete     int64
	slowCmds      int64
	getHits       int64
	getMisses     int64
	bytesRead     int64
	bytesWritten  int64

	started time.Time
}

func New() *Stats {
	return &Stats{started: time.Now()}
}

func (s *Stats) IncrCurrConns(delta int64) {
	s.mu.Lock()
	s.currConns += delta
	s.mu.Unlock()
}

func (s *Stats) IncrTotalConns() {
	s.mu.Lock()
	s.totalConns++
	s.mu.Unlock()
}

func (s *Stats) IncrConnStructs() {
	s.mu.Lock()
	s.connStructs++
	s.mu.Unlock()
}

func (s *Stats) IncrCmdGet()    { s.mu.Lock(); s.cmdGet++; s.mu.Unlock() }
func (s *Stats) IncrCmdSet()    { s.mu.Lock(); s.cmdSet++; s.mu.Unlock() }
func (s *Stats) IncrCmdDelete() { s.mu.Lock(); s.cmdDelete++; s.mu.Unlock() }
func (s *Stats) IncrSlowCmd()   { s.mu.Lock(); s.slowCmds++; s.mu.Unlock() }
func (s *Stats) IncrGetHit()    { s.mu.Lock(); s.getHits++; s.mu.Unlock() }
func (s *Stats) IncrGetMiss()   { s.mu.Lock(); s.getMisses++; s.mu.Unlock() }

func (s *Stats) AddBytesRead(n int64) {
	s.mu.Lock()
	s.bytesRead += n
	s.mu.Unlock()
}

func (s *Stats) AddBytesWritten(n int64) {
	s.mu.Lock()
	s.bytesWritten += n
	s.mu.Unlock()
}

// Snapshot is an immutable copy of every counter, safe to range over
// without holding the lock.
type Snapshot struct {
	CurrConns, TotalConns, ConnStructs               int64
	CmdGet, CmdSet, CmdDelete, SlowCmds               int64
	GetHits, GetMisses                                int64
	BytesRead, BytesWritten                           int64
	Uptime                                            time.Duration
	Started                                           time.Time
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		CurrConns:    s.currConns,
		TotalConns:   s.totalConns,
		ConnStructs:  s.connStructs,
		CmdGet:       s.cmdGet,
		CmdSet:       s.cmdSet,
		CmdDelete:    s.cmdDelete,
		SlowCmds:     s.slowCmds,
		GetHits:      s.getHits,
		GetMisses:    s.getMisses,
		BytesRead:    s.bytesRead,
		BytesWritten: s.bytesWritten,
		Uptime:       time.Since(s.started),
		Started:      s.started,
	}
}

// Reset zeroes every monotonically increasing counter, for the `stats
// reset` command. currConns is a live gauge tracking presently open
// connections, not a cumulative counter, so it is left untouched here -
// it is adjusted only by the signed IncrCurrConns(±1) deltas on
// accept/release.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalConns = 0
	s.connStructs = 0
	s.cmdGet = 0
	s.cmdSet = 0
	s.cmdDelete = 0
	s.slowCmds = 0
	s.getHits = 0
	s.getMisses = 0
	s.bytesRead = 0
	s.bytesWritten = 0
}

// Rusage reports (user cpu seconds, system cpu seconds, RSS in KiB) for
// the stats command's rusage_user/rusage_system/rusage_maxrss fields. It
// prefers gopsutil's portable process accounting, which gives the current
// resident set size, falling back to the kernel's own getrusage(2)
// accounting, which gives the peak (ru_maxrss), if that lookup fails (e.g.
// a sandboxed environment without /proc).
func Rusage() (userSec, sysSec float64, maxRSSKiB uint64) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return rusageFallback()
	}

	t, errTimes := p.Times()
	m, errMem := p.MemoryInfo()
	if errTimes != nil || errMem != nil {
		return rusageFallback()
	}

	return t.User, t.System, m.RSS / 1024
}
