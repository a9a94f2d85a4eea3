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

package wire

import (
	"errors"
	"io"
)

// Status is the outcome of one Drain call, mirroring the four outcomes a
// scatter/gather send loop distinguishes: fully sent, partially sent
// (call again once writable), a transient error the caller may retry
// after backing off, and a fatal error that must close the connection.
type Status int

const (
	// Complete means every queued frame has been sent.
	Complete Status = iota
	// Incomplete means queued bytes remain (the current frame was only
	// partially written, or later frames are still queued); Drain should
	// be invoked again once the socket is writable.
	Incomplete
	// SoftError is a transient send failure (e.g. EAGAIN/EWOULDBLOCK, or
	// a write timeout standing in for it) the caller should retry.
	SoftError
	// HardError is a fatal send failure; the connection must close.
	HardError
)

// ErrWouldBlock is returned by a RawWriter to signal a transient,
// retry-later failure. Drain turns it into SoftError rather than
// propagating it as an error.
var ErrWouldBlock = errors.New("wire: write would block")

// RawWriter performs a single low-level scatter/gather write attempt,
// the Go equivalent of one sendmsg(2)/writev(2) call. It must not loop
// internally: one call is one syscall-equivalent attempt, so Drain can
// observe partial progress exactly the way the connection state machine
// expects.
type RawWriter interface {
	WriteOnce(bufs []Segment) (n int, err error)
}

// ioWriter adapts any io.Writer (e.g. a net.Conn in tests, or anything
// that doesn't support true vectored I/O) into a RawWriter by
// concatenating segments into one buffer and issuing a single Write.
// Production code should prefer a RawWriter backed by writev so large
// values are never copied; ioWriter exists for portability and tests.
type ioWriter struct {
	w io.Writer
}

// NewIOWriter wraps w as a RawWriter. Each WriteOnce call issues exactly
// one underlying Write, so partial-write semantics from w are preserved.
func NewIOWriter(w io.Writer) RawWriter {
	return &ioWriter{w: w}
}

func (iw *ioWriter) WriteOnce(bufs []Segment) (int, error) {
	total := 0
	for _, b := range bufs {
		total += len(b)
	}
	if total == 0 {
		return 0, nil
	}

	flat := make([]byte, 0, total)
	for _, b := range bufs {
		flat = append(flat, b...)
	}

	return iw.w.Write(flat)
}

// Drain attempts to send as much of the currently queued frame as one
// RawWriter call will take, advancing internal bookkeeping by however
// many bytes were actually accepted. The caller loops on Incomplete and
// SoftError, and treats HardError as connection-fatal, exactly as
// transmit() would around a single sendmsg call.
func (w *Writer) Drain(rw RawWriter) (Status, error) {
	if !w.Pending() {
		return Complete, nil
	}

	segs := w.currentSegments()
	n, err := rw.WriteOnce(segs)

	if n > 0 {
		w.advance(n)
	}

	switch {
	case err != nil && errors.Is(err, ErrWouldBlock):
		return SoftError, nil
	case err != nil:
		return HardError, err
	case !w.Pending():
		return Complete, nil
	default:
		return Incomplete, nil
	}
}
