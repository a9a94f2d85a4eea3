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

// Package server drives one accepted connection through its protocol
// lifecycle: read a line, dispatch it, stream a value body when the
// command calls for one, write the reply, repeat. Each connection is
// owned by exactly one goroutine for its lifetime, which plays the role
// a single reactor-owned worker thread plays in the original design —
// Go's netpoller supplies the readiness multiplexing, so a blocking Read
// or Write is this translation's "suspend on EAGAIN".
package server

// State names the phase a connection is in. They exist for observability
// and testing (Conn.State reports the current one); the control flow
// itself is an ordinary blocking loop rather than an explicit event-
// driven switch, since a goroutine can afford to block where a reactor
// callback could not.
type State int

const (
	StateListening State = iota
	StateRead
	StateNread
	StateSwallow
	StateWrite
	StateMwrite
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StateRead:
		return "read"
	case StateNread:
		return "nread"
	case StateSwallow:
		return "swallow"
	case StateWrite:
		return "write"
	case StateMwrite:
		return "mwrite"
	case StateClosing:
		return "closing"
	}

	return "unknown"
}
