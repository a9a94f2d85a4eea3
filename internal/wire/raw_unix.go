//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

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
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// unixWriter is the production RawWriter: it issues one real writev(2)
// against the connection's raw file descriptor, so a multi-segment reply
// (header, suffix, value) goes out as a single syscall without ever
// being copied into one contiguous buffer.
type unixWriter struct {
	raw syscall.RawConn
}

// NewTCPWriter builds a RawWriter backed by writev(2) for a *net.TCPConn.
// Callers that don't have a TCP connection (tests, pipes) should use
// NewIOWriter instead.
func NewTCPWriter(c *net.TCPConn) (RawWriter, error) {
	raw, err := c.SyscallConn()
	if err != nil {
		return nil, err
	}

	return &unixWriter{raw: raw}, nil
}

func (u *unixWriter) WriteOnce(bufs []Segment) (int, error) {
	if len(bufs) == 0 {
		return 0, nil
	}

	var n int
	var callErr error

	err := u.raw.Write(func(fd uintptr) bool {
		n, callErr = unix.Writev(int(fd), bufs)
		if callErr == unix.EAGAIN || callErr == unix.EWOULDBLOCK {
			callErr = ErrWouldBlock
			return false // not done: let the runtime poller wait for writability
		}

		return true // done regardless of success or a fatal error
	})

	if err != nil {
		return n, err
	}

	return n, callErr
}
