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
	"bufio"
	"net"
	"sync/atomic"

	"github.com/yuanfeng0905/beansdb/internal/wire"
)

// initialReadBufferSize seeds every connection's bufio.Reader; it is the
// Go-idiom stand-in for rbuf's initial rsize.
const initialReadBufferSize = 4096

// highWatermarkReadBufferSize is the threshold past which a connection's
// read buffer is considered oversized on release (conn_close's "record
// destroyed instead of pooled" rule).
const highWatermarkReadBufferSize = 1 << 20

// Conn is one accepted connection's state. It is reused across client
// lifetimes through a connpool.Pool, so every field that carries
// per-client state must be cleared by reset.
type Conn struct {
	srv *Server

	nc     net.Conn
	reader *bufio.Reader
	writer wire.Writer
	raw    wire.RawWriter

	remote string
	state  atomic.Int32

	grewBeyondWatermark bool
}

func newConn() *Conn {
	c := &Conn{}
	c.reader = bufio.NewReaderSize(nil, initialReadBufferSize)

	return c
}

// bind attaches a freshly accepted (or pool-recycled) record to a live
// socket, mirroring conn_new's (fd, initial_state, read_buf_size).
func (c *Conn) bind(srv *Server, nc net.Conn) {
	c.srv = srv
	c.nc = nc
	c.remote = nc.RemoteAddr().String()
	c.reader.Reset(nc)
	c.writer.Reset()
	c.state.Store(int32(StateRead))

	if tc, ok := nc.(*net.TCPConn); ok {
		if rw, err := wire.NewTCPWriter(tc); err == nil {
			c.raw = rw
		} else {
			c.raw = wire.NewIOWriter(nc)
		}
	} else {
		c.raw = wire.NewIOWriter(nc)
	}
}

// reset clears per-client state before a Conn goes back onto the
// freelist or is reused, the way conn_close detaches everything a
// client might have left behind.
func (c *Conn) reset(rec *Conn) {
	rec.srv = nil
	rec.nc = nil
	rec.raw = nil
	rec.remote = ""
	rec.state.Store(int32(StateClosing))
	rec.reader.Reset(nil)
	rec.writer.Reset()
	rec.grewBeyondWatermark = false
}

// State reports the connection's current lifecycle phase, for tests and
// metrics.
func (c *Conn) State() State {
	return State(c.state.Load())
}

func (c *Conn) setState(s State) {
	c.state.Store(int32(s))
}

// oversizedForPool reports whether this connection's buffers grew enough
// during its lifetime that it should be destroyed rather than pooled.
func (c *Conn) oversizedForPool() bool {
	return c.grewBeyondWatermark || c.reader.Size() > highWatermarkReadBufferSize
}
