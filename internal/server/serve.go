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
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/yuanfeng0905/beansdb/internal/berr"
	"github.com/yuanfeng0905/beansdb/internal/blog"
	"github.com/yuanfeng0905/beansdb/internal/proto"
	"github.com/yuanfeng0905/beansdb/internal/store"
	"github.com/yuanfeng0905/beansdb/internal/wire"
)

// maxValueSize bounds how large a set/append value may be before the
// connection swallows and rejects it instead of attempting to store it,
// covering the "oversize value" testable property.
const maxValueSize = 64 << 20

// maxLineLength bounds a command line's length. Without this, a client
// that never sends '\n' would grow the read buffer without bound up to
// process memory; this caps that growth: an over-long line is discarded
// up to its '\n', answered with SERVER_ERROR, and the connection goes on
// reading the next command.
const maxLineLength = 65536

var crlf = []byte("\r\n")

var errLineTooLong = errors.New("server: command line too long")

// Serve runs the connection to completion: read a line, dispatch it,
// write a reply, repeat, until the client disconnects, a fatal I/O error
// occurs, or quit is requested.
func (c *Conn) Serve() {
	defer c.srv.release(c)

	for {
		if c.srv.quitting() {
			return
		}

		c.setState(StateRead)

		line, err := c.readLine()
		if err == errLineTooLong && c.State() != StateClosing {
			continue // rejected and resynced; keep reading
		}
		if err != nil {
			return
		}
		if len(line) == 0 {
			continue // blank line between commands; keep reading
		}

		ntok := proto.CountTokens(line)

		start := time.Now()
		c.dispatch(line)
		elapsed := time.Since(start)

		if ntok >= 3 {
			c.srv.log.WithField("remote", c.remote).Debug("%s\t%dms", string(line), elapsed.Milliseconds())
		}
		if elapsed >= c.srv.slowThreshold {
			c.srv.stats.IncrSlowCmd()
		}

		if c.State() == StateClosing {
			return
		}
	}
}

// readLine reads one CRLF- or LF-terminated line, stripping the
// terminator, or returns io.EOF/a read error. A zero-length result with
// a nil error signals a blank line. The accumulated line is capped at
// maxLineLength so a client that withholds '\n' cannot grow the read
// buffer without bound; an over-long line is swallowed, answered with
// SERVER_ERROR, and reported as errLineTooLong.
func (c *Conn) readLine() ([]byte, error) {
	var line []byte

	for {
		chunk, err := c.reader.ReadSlice('\n')
		line = append(line, chunk...)

		if err == nil {
			break
		}
		if err == bufio.ErrBufferFull {
			if len(line) > maxLineLength {
				if serr := c.swallowUntilNewline(); serr != nil {
					return nil, serr
				}
				c.replyLine([]byte("SERVER_ERROR request too large"))
				return nil, errLineTooLong
			}
			continue
		}

		return nil, err
	}

	c.srv.stats.AddBytesRead(int64(len(line)))

	line = line[:len(line)-1]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}

	return line, nil
}

// swallowUntilNewline discards input until the next '\n' so the stream
// realigns on the following command after an oversized line was
// rejected.
func (c *Conn) swallowUntilNewline() error {
	for {
		_, err := c.reader.ReadSlice('\n')
		if err == nil {
			return nil
		}
		if err != bufio.ErrBufferFull {
			return err
		}
	}
}

// dispatch parses and executes one line.
func (c *Conn) dispatch(line []byte) {
	cmd, recognized, perr := proto.Parse(line)
	if perr != nil {
		c.replyError(perr)
		return
	}
	if !recognized {
		c.replyLine([]byte("ERROR"))
		return
	}

	switch cmd.Kind {
	case proto.Get:
		c.handleGet(cmd)
	case proto.Set, proto.Append:
		c.handleStore(cmd)
	case proto.Incr:
		c.handleIncr(cmd)
	case proto.Delete:
		c.handleDelete(cmd)
	case proto.Stats:
		c.handleStats(cmd)
	case proto.FlushAll:
		c.handleFlushAll(cmd)
	case proto.OptimizeStat:
		c.handleOptimizeStat()
	case proto.Verbosity:
		c.handleVerbosity(cmd)
	case proto.Version:
		c.handleVersion()
	case proto.Quit:
		c.setState(StateClosing)
	case proto.StopMe:
		c.handleStopMe()
	}
}

func (c *Conn) handleGet(cmd proto.Command) {
	c.srv.stats.IncrCmdGet()

	c.writer.Reset()
	for _, key := range cmd.Gets {
		item, err := c.srv.store.Get(key)
		if err != nil || item == nil {
			c.srv.stats.IncrGetMiss()
			continue
		}

		c.srv.stats.IncrGetHit()
		c.writer.Add([]byte("VALUE "))
		c.writer.Add(key)
		c.writer.Add(item.Suffix)
		c.writer.Add(item.Value)
		c.writer.Add(crlf)
	}
	c.writer.Add([]byte("END\r\n"))

	c.setState(StateMwrite)
	c.drain()
}

func (c *Conn) handleStore(cmd proto.Command) {
	if cmd.Kind == proto.Set {
		c.srv.stats.IncrCmdSet()
	}

	if int(cmd.Length) > maxValueSize {
		if !cmd.Noreply {
			c.replyLine([]byte("SERVER_ERROR out of memory storing object"))
		}
		c.setState(StateSwallow)
		if err := c.swallow(int64(cmd.Length) + 2); err != nil {
			c.setState(StateClosing)
			return
		}
		c.setState(StateRead)
		return
	}

	c.setState(StateNread)
	if int(cmd.Length) > highWatermarkReadBufferSize {
		c.grewBeyondWatermark = true
	}
	val := make([]byte, int(cmd.Length)+2)
	if _, err := io.ReadFull(c.reader, val); err != nil {
		c.setState(StateClosing)
		return
	}
	c.srv.stats.AddBytesRead(int64(len(val)))

	if val[len(val)-2] != '\r' || val[len(val)-1] != '\n' {
		c.replyError(badDataChunk)
		c.setState(StateRead)
		return
	}
	val = val[:len(val)-2]

	var (
		result store.SetResult
		err    error
	)
	if cmd.Kind == proto.Set {
		result, err = c.srv.store.Set(cmd.Keys, val, cmd.Flags, cmd.Ver)
	} else {
		ok, aerr := c.srv.store.Append(cmd.Keys, val)
		err = aerr
		if ok {
			result = store.SetStored
		} else {
			result = store.SetNotStored
		}
	}

	c.setState(StateWrite)
	if cmd.Noreply {
		c.setState(StateRead)
		return
	}
	if err != nil {
		c.replyLine([]byte("SERVER_ERROR " + err.Error()))
		c.setState(StateRead)
		return
	}

	switch result {
	case store.SetStored:
		c.replyLine([]byte("STORED"))
	case store.SetExists:
		c.replyLine([]byte("EXISTS"))
	case store.SetNotFound:
		c.replyLine([]byte("NOT_FOUND"))
	default:
		c.replyLine([]byte("NOT_STORED"))
	}
	c.setState(StateRead)
}

func (c *Conn) handleIncr(cmd proto.Command) {
	next, err := c.srv.store.Incr(cmd.Keys, cmd.Delta)
	if cmd.Noreply {
		return
	}
	if err != nil {
		c.replyLine([]byte("NOT_FOUND"))
		return
	}
	c.replyLine([]byte(strconv.FormatUint(next, 10)))
}

func (c *Conn) handleDelete(cmd proto.Command) {
	c.srv.stats.IncrCmdDelete()
	ok, _ := c.srv.store.Delete(cmd.Keys)
	if cmd.Noreply {
		return
	}
	if ok {
		c.replyLine([]byte("DELETED"))
	} else {
		c.replyLine([]byte("NOT_FOUND"))
	}
}

func (c *Conn) handleStats(cmd proto.Command) {
	if cmd.StatsReset {
		c.srv.stats.Reset()
		c.replyLine([]byte("RESET"))
		return
	}

	c.writer.Reset()
	for _, line := range c.srv.statsReport() {
		c.writer.Add([]byte(line))
		c.writer.Add(crlf)
	}
	c.writer.Add([]byte("END\r\n"))
	c.setState(StateMwrite)
	c.drain()
}

func (c *Conn) handleFlushAll(cmd proto.Command) {
	result, err := c.srv.store.Optimize(cmd.FlushLimit, cmd.FlushTree)
	if cmd.Noreply {
		return
	}
	if err != nil {
		c.replyLine([]byte("CLIENT_ERROR bad command line format"))
		return
	}

	switch result {
	case store.OptimizeOK:
		c.replyLine([]byte("OK"))
	case store.OptimizeReadOnly:
		c.replyLine([]byte("ERROR READ_ONLY"))
	case store.OptimizeRunning:
		c.replyLine([]byte("ERROR OPTIMIZE_RUNNING"))
	default:
		c.replyLine([]byte("CLIENT_ERROR bad command line format"))
	}
}

func (c *Conn) handleOptimizeStat() {
	switch st := c.srv.store.OptimizeStat(); {
	case st == store.OptimizeStatusIdle:
		c.replyLine([]byte("OK"))
	case st == store.OptimizeStatusFail:
		c.replyLine([]byte("FAIL"))
	default:
		c.replyLine([]byte(strconv.FormatInt(int64(st), 16)))
	}
}

func (c *Conn) handleVerbosity(cmd proto.Command) {
	lvl := cmd.VerbosityLevel
	if lvl < 0 {
		lvl = 0
	}
	c.srv.log.SetThreshold(blog.FromVerbosity(lvl))
	c.replyLine([]byte("OK"))
}

func (c *Conn) handleVersion() {
	c.replyLine([]byte("VERSION " + c.srv.versionString()))
}

func (c *Conn) handleStopMe() {
	if !c.srv.stopEnabled {
		c.replyLine([]byte("ERROR"))
		return
	}
	c.srv.RequestShutdown()
	c.replyLine([]byte("OK"))
}

// swallow discards n bytes from the socket, used to keep the protocol
// stream aligned after a value was rejected without being read.
func (c *Conn) swallow(n int64) error {
	_, err := io.CopyN(io.Discard, c.reader, n)
	return err
}

// replyLine sends a single terminated status line through the same
// scatter/gather drain path a multi-segment reply uses.
func (c *Conn) replyLine(line []byte) {
	c.writer.Reset()
	c.writer.Add(line)
	c.writer.Add(crlf)
	c.setState(StateWrite)
	c.drain()
}

func (c *Conn) replyError(err error) {
	if errors.Is(err, badDataChunk) {
		c.replyLine([]byte("CLIENT_ERROR bad data chunk"))
		return
	}

	msg := err.Error()
	var ce berr.Error
	if errors.As(err, &ce) {
		msg = ce.StringError()
	}
	c.replyLine([]byte("CLIENT_ERROR " + msg))
}

// drain pushes the writer's queued frames out over raw, looping on
// Incomplete exactly the way transmit() is invoked repeatedly until
// Complete, SoftError (here folded into a short blocking retry since the
// underlying writer already blocks until writable), or HardError.
func (c *Conn) drain() {
	queued := int64(c.writer.QueuedBytes())

	for c.writer.Pending() {
		status, err := c.writer.Drain(c.raw)
		switch status {
		case wire.Complete:
			c.srv.stats.AddBytesWritten(queued)
			c.setState(StateRead)
			return
		case wire.Incomplete, wire.SoftError:
			continue
		case wire.HardError:
			c.srv.log.WithField("remote", c.remote).Warning("write failed: %s", err.Error())
			c.setState(StateClosing)
			return
		}
	}
	c.setState(StateRead)
}

var badDataChunk = proto.ErrBadDataChunk
