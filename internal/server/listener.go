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
	"errors"
	"net"
	"os"
	"syscall"
)

// acceptLoop accepts connections until the listener closes (triggered by
// RequestShutdown) or a non-recoverable error occurs. A file-descriptor
// exhaustion error is handled specially: see acceptEMFILE.
func (s *Server) acceptLoop() error {
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			if s.quitting() {
				return nil
			}
			if isEMFILE(err) {
				s.acceptEMFILE()
				continue
			}

			return err
		}

		s.stats.IncrTotalConns()
		s.stats.IncrCurrConns(1)

		c := s.pool.Get()
		c.bind(s, nc)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			c.Serve()
		}()
	}
}

// acceptEMFILE recovers from file-descriptor exhaustion without letting
// the accept loop spin on a ready-but-unacceptable listener: close the
// reserve descriptor to free up exactly one slot, accept the pending
// client just to close it and drop them politely, then reopen the
// reserve descriptor for next time.
func (s *Server) acceptEMFILE() {
	if s.reserveFD != nil {
		_ = s.reserveFD.Close()
		s.reserveFD = nil
	}

	if nc, err := s.ln.Accept(); err == nil {
		_ = nc.Close()
	}

	if f, err := os.Open(os.DevNull); err == nil {
		s.reserveFD = f
	}
}

func isEMFILE(err error) bool {
	if errors.Is(err, net.ErrClosed) {
		return false
	}

	return errors.Is(err, syscall.EMFILE) || errors.Is(err, syscall.ENFILE)
}
