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

package proto

import "github.com/yuanfeng0905/beansdb/internal/berr"

const (
	// CodeBadFormat is returned for a recognized command whose numeric
	// fields fail to parse. A line whose shape the dispatcher does not
	// recognize gets no error code; it is answered with a bare ERROR.
	CodeBadFormat berr.CodeError = berr.MinPkgProto + iota
	// CodeBadDataChunk is returned when a set/append value is not
	// terminated by the expected trailing CRLF.
	CodeBadDataChunk
	// CodeKeyTooLong is returned when a key exceeds the 250-byte limit.
	CodeKeyTooLong
)

func init() {
	berr.RegisterIdFctMessage(berr.MinPkgProto, func(code berr.CodeError) string {
		switch code {
		case CodeBadFormat:
			return "bad command line format"
		case CodeBadDataChunk:
			return "bad data chunk"
		case CodeKeyTooLong:
			return "bad command line format"
		}

		return ""
	})
}

// ErrBadFormat wraps CodeBadFormat as a plain error for callers that only
// need to render "CLIENT_ERROR bad command line format".
var ErrBadFormat = CodeBadFormat.Error(nil)

// ErrBadDataChunk wraps CodeBadDataChunk.
var ErrBadDataChunk = CodeBadDataChunk.Error(nil)

// ErrKeyTooLong wraps CodeKeyTooLong.
var ErrKeyTooLong = CodeKeyTooLong.Error(nil)
