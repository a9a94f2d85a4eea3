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

package server

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yuanfeng0905/beansdb/internal/blog"
	"github.com/yuanfeng0905/beansdb/internal/connpool"
	"github.com/yuanfeng0905/beansdb/internal/stats"
	"github.com/yuanfeng0905/beansdb/internal/store"
	"github.com/yuanfeng0905/beansdb/internal/version"
)

// Config collects every tunable a Server needs at construction. It is
// deliberately a plain struct (rather than depending on internal/config)
// so the server package stays usable without the CLI/config stack.
type Config struct {
	ListenAddress string

	InitialPoolSize int
	PoolCap         int

	SlowCommandThreshold time.Duration

	FlushLimitKB int
	FlushPeriod  time.Duration

	StopEnabled bool

	Verbosity int
}

// Server owns the listener, the connection freelist, the storage engine
// handle, and the background flush loop. One Server corresponds to one
// running beansdbd process.
type Server struct {
	cfg Config

	ln       net.Listener
	pool     *connpool.Pool[Conn]
	store    store.Engine
	stats    *stats.Stats
	log      blog.Logger
	itemSize int

	slowThreshold time.Duration
	stopEnabled   bool

	quit atomic.Bool
	wg   sync.WaitGroup

	// flushLimitKB/flushPeriodNS back Config.FlushLimitKB/FlushPeriod as
	// atomics so a hot config reload can adjust them without racing the
	// flush loop goroutine.
	flushLimitKB  atomic.Int64
	flushPeriodNS atomic.Int64

	// reserveFD keeps one spare file descriptor open to /dev/null so a
	// sudden EMFILE at accept time can be recovered from without the
	// listener spinning; see acceptLoop.
	reserveFD *os.File
}

// New constructs a Server bound to cfg's storage engine and logger, but
// does not yet listen.
func New(cfg Config, eng store.Engine, log blog.Logger) *Server {
	if cfg.InitialPoolSize < 1 {
		cfg.InitialPoolSize = 64
	}
	if cfg.PoolCap < cfg.InitialPoolSize {
		cfg.PoolCap = cfg.InitialPoolSize
	}
	if cfg.SlowCommandThreshold <= 0 {
		cfg.SlowCommandThreshold = 100 * time.Millisecond
	}

	srv := &Server{
		cfg:           cfg,
		store:         eng,
		stats:         stats.New(),
		log:           log,
		itemSize:      initialReadBufferSize,
		slowThreshold: cfg.SlowCommandThreshold,
		stopEnabled:   cfg.StopEnabled,
	}

	srv.pool = connpool.New(cfg.PoolCap, newConn, srv.resetConn)
	srv.log.SetThreshold(blog.FromVerbosity(cfg.Verbosity))
	srv.flushLimitKB.Store(int64(cfg.FlushLimitKB))
	srv.flushPeriodNS.Store(int64(cfg.FlushPeriod))

	return srv
}

// SetVerbosity satisfies config.Reloadable: it takes effect on the very
// next log line, the same as the verbosity protocol command.
func (s *Server) SetVerbosity(level int) {
	if level < 0 {
		level = 0
	}
	s.log.SetThreshold(blog.FromVerbosity(level))
}

// SetFlushLimit satisfies config.Reloadable: it takes effect on the
// flush loop's next tick.
func (s *Server) SetFlushLimit(limitKB int) {
	s.flushLimitKB.Store(int64(limitKB))
}

// SetFlushPeriod satisfies config.Reloadable: it takes effect on the
// flush loop's next tick.
func (s *Server) SetFlushPeriod(period int64) {
	s.flushPeriodNS.Store(period)
}

func (s *Server) resetConn(c *Conn) {
	c.reset(c)
}

// ListenAndServe opens the TCP listener and the background flush loop,
// then blocks accepting connections until Shutdown is requested or a
// fatal listener error occurs.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.ListenAddress, err)
	}
	s.ln = ln

	reserve, err := os.Open(os.DevNull)
	if err != nil {
		return fmt.Errorf("server: reserve fd: %w", err)
	}
	s.reserveFD = reserve

	s.wg.Add(1)
	go s.flushLoop()

	return s.acceptLoop()
}

// RequestShutdown sets the quit flag; the accept loop, every connection
// goroutine, and the flush loop observe it cooperatively and unwind on
// their own.
func (s *Server) RequestShutdown() {
	s.quit.Store(true)
	if s.ln != nil {
		_ = s.ln.Close()
	}
}

// Shutdown requests a stop and waits for the flush loop to exit. It does
// not forcibly close in-flight connections: shutdown waits for
// quiescence, mirroring the original's "no in-flight command is aborted
// mid-flight".
func (s *Server) Shutdown() {
	s.RequestShutdown()
	s.wg.Wait()
	_ = s.store.Close()
}

func (s *Server) quitting() bool {
	return s.quit.Load()
}

// release closes the socket and either returns the record to the
// freelist or lets it be garbage-collected, the way conn_close chooses
// between pooling and destroying based on how large the buffers grew.
func (s *Server) release(c *Conn) {
	_ = c.nc.Close()
	c.setState(StateClosing)
	s.stats.IncrCurrConns(-1)

	if c.oversizedForPool() {
		return
	}

	s.pool.Put(c)
}

func (s *Server) versionString() string {
	return version.String()
}

// StatsSnapshot satisfies metrics.Source, letting the metrics package
// republish the same counters this process exposes via `stats`.
func (s *Server) StatsSnapshot() stats.Snapshot {
	return s.stats.Snapshot()
}

// StoreCount satisfies metrics.Source.
func (s *Server) StoreCount() (curr, total uint64) {
	return s.store.Count()
}

// StoreStat satisfies metrics.Source.
func (s *Server) StoreStat() (totalSpace, availSpace uint64) {
	return s.store.Stat()
}

func (s *Server) statsReport() []string {
	snap := s.stats.Snapshot()
	curr, total := s.store.Count()
	totalSpace, availSpace := s.store.Stat()
	userSec, sysSec, maxRSS := stats.Rusage()

	line := func(name string, val interface{}) string {
		return fmt.Sprintf("STAT %s %v", name, val)
	}

	return []string{
		line("pid", os.Getpid()),
		line("uptime", int64(snap.Uptime.Seconds())),
		line("time", time.Now().Unix()),
		line("version", s.versionString()),
		line("pointer_size", strconv.IntSize),
		line("rusage_user", fmt.Sprintf("%.6f", userSec)),
		line("rusage_system", fmt.Sprintf("%.6f", sysSec)),
		line("rusage_maxrss", maxRSS),
		line("item_buf_size", s.itemSize),
		line("curr_connections", snap.CurrConns),
		line("total_connections", snap.TotalConns),
		line("connection_structures", s.pool.Allocated()),
		line("cmd_get", snap.CmdGet),
		line("cmd_set", snap.CmdSet),
		line("cmd_delete", snap.CmdDelete),
		line("slow_cmd", snap.SlowCmds),
		line("get_hits", snap.GetHits),
		line("get_misses", snap.GetMisses),
		line("curr_items", curr),
		line("total_items", total),
		line("avail_space", availSpace),
		line("total_space", totalSpace),
		line("bytes_read", snap.BytesRead),
		line("bytes_written", snap.BytesWritten),
		line("threads", 1),
	}
}
