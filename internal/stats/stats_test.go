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

package stats

import (
	"sync"
	"testing"
)

func TestStatsIncrements(t *testing.T) {
	s := New()

	s.IncrCurrConns(1)
	s.IncrCurrConns(1)
	s.IncrTotalConns()
	s.IncrConnStructs()
	s.IncrCmdGet()
	s.IncrCmdSet()
	s.IncrCmdDelete()
	s.IncrSlowCmd()
	s.IncrGetHit()
	s.IncrGetMiss()
	s.AddBytesRead(100)
	s.AddBytesWritten(50)

	snap := s.Snapshot()
	if snap.CurrConns != 2 {
		t.Errorf("CurrConns = %d, want 2", snap.CurrConns)
	}
	if snap.TotalConns != 1 || snap.ConnStructs != 1 {
		t.Errorf("TotalConns/ConnStructs = %d/%d, want 1/1", snap.TotalConns, snap.ConnStructs)
	}
	if snap.CmdGet != 1 || snap.CmdSet != 1 || snap.CmdDelete != 1 || snap.SlowCmds != 1 {
		t.Errorf("command counters = %+v", snap)
	}
	if snap.GetHits != 1 || snap.GetMisses != 1 {
		t.Errorf("get hit/miss = %d/%d, want 1/1", snap.GetHits, snap.GetMisses)
	}
	if snap.BytesRead != 100 || snap.BytesWritten != 50 {
		t.Errorf("bytes read/written = %d/%d, want 100/50", snap.BytesRead, snap.BytesWritten)
	}
}

func TestStatsReset(t *testing.T) {
	s := New()
	s.IncrCmdGet()
	s.AddBytesRead(10)
	s.IncrCurrConns(1)
	s.IncrCurrConns(1)

	s.Reset()

	snap := s.Snapshot()
	if snap.CmdGet != 0 || snap.BytesRead != 0 {
		t.Errorf("counters after Reset = %+v, want all zero", snap)
	}
	if snap.CurrConns != 2 {
		t.Errorf("CurrConns after Reset = %d, want 2 (live gauge must survive reset)", snap.CurrConns)
	}
}

func TestStatsUptimeAdvances(t *testing.T) {
	s := New()
	snap := s.Snapshot()
	if snap.Uptime < 0 {
		t.Errorf("Uptime = %v, want >= 0", snap.Uptime)
	}
	if snap.Started.IsZero() {
		t.Errorf("Started is zero")
	}
}

func TestStatsConcurrentIncrements(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.IncrCmdGet()
		}()
	}
	wg.Wait()

	if got := s.Snapshot().CmdGet; got != 100 {
		t.Errorf("CmdGet = %d, want 100", got)
	}
}

func TestRusageReturnsNonNegativeValues(t *testing.T) {
	userSec, sysSec, maxRSS := Rusage()
	if userSec < 0 || sysSec < 0 {
		t.Errorf("Rusage cpu times = %v/%v, want >= 0", userSec, sysSec)
	}
	_ = maxRSS
}
