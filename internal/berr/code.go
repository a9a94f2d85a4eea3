/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

// Package berr provides the error taxonomy shared by every beansdb package:
// a numeric CodeError per failure mode, grouped by a per-package offset, so
// a code is unique across the whole process the way an HTTP status code is
// unique across a whole API.
package berr

import (
	"fmt"
	"runtime"
)

// CodeError is a small numeric classification for an error, grouped by
// package offset (MinPkg* constants below). It never collides across
// packages and can be rendered straight into a CLIENT_ERROR/SERVER_ERROR
// protocol line.
type CodeError uint16

const (
	UnknownError CodeError = 0
	UnknownMessage         = "unknown error"
)

// Per-package numeric offsets. Each package registers its own CodeError
// constants starting at its Min value and its own message function.
const (
	MinPkgServer  CodeError = 100
	MinPkgProto   CodeError = 200
	MinPkgWire    CodeError = 300
	MinPkgStore   CodeError = 400
	MinPkgConnMgr CodeError = 500
	MinPkgConfig  CodeError = 600
	MinPkgMetrics CodeError = 700

	MinAvailable CodeError = 1000
)

type messageFunc func(code CodeError) string

var registry = make(map[CodeError]messageFunc)

// RegisterIdFctMessage registers the message function responsible for every
// code at or above floor, until the next registered floor. Called once from
// each package's init().
func RegisterIdFctMessage(floor CodeError, fct messageFunc) {
	registry[floor] = fct
}

func messageFor(code CodeError) string {
	var best CodeError
	var fct messageFunc

	for floor, f := range registry {
		if code >= floor && floor >= best {
			best = floor
			fct = f
		}
	}

	if fct == nil {
		return UnknownMessage
	}

	if msg := fct(code); msg != "" {
		return msg
	}

	return UnknownMessage
}

// Error builds a new Error value for this code, optionally wrapping a
// parent error and capturing the caller's file/line for diagnostics.
func (c CodeError) Error(parent error) Error {
	_, file, line, _ := runtime.Caller(1)

	return &errImpl{
		code:   c,
		msg:    messageFor(c),
		parent: parent,
		file:   file,
		line:   line,
	}
}

// ErrorParent is a convenience alias of Error, kept for readability at call
// sites that always pass a non-nil parent (e.g. wrapping a syscall error).
func (c CodeError) ErrorParent(parent error) Error {
	return c.Error(parent)
}

// Uint16 returns the raw numeric code.
func (c CodeError) Uint16() uint16 {
	return uint16(c)
}

// Error is the interface implemented by every beansdb error value: a
// classified, optionally-wrapped error carrying its origin.
type Error interface {
	error
	Code() CodeError
	IsCode(code CodeError) bool
	Unwrap() error

	// StringError returns the plain registered message for this code,
	// with no code prefix, parent chain, or file:line trace - the
	// form safe to send verbatim as a protocol reply.
	StringError() string
}

type errImpl struct {
	code   CodeError
	msg    string
	parent error
	file   string
	line   int
}

func (e *errImpl) Error() string {
	if e.parent != nil {
		return fmt.Sprintf("[%d] %s: %s (%s:%d)", e.code, e.msg, e.parent.Error(), e.file, e.line)
	}

	return fmt.Sprintf("[%d] %s (%s:%d)", e.code, e.msg, e.file, e.line)
}

func (e *errImpl) StringError() string {
	return e.msg
}

func (e *errImpl) Code() CodeError {
	return e.code
}

func (e *errImpl) IsCode(code CodeError) bool {
	return e.code == code
}

func (e *errImpl) Unwrap() error {
	return e.parent
}
