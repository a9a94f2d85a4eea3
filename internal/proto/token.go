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

// Package proto tokenizes a single protocol line and dispatches it onto a
// typed Command. The tokenizer mutates nothing: it slices the caller's
// buffer rather than copying it, the way the original line-oriented
// tokenizer operates in place on its read buffer.
package proto

// MaxTokens bounds how many whitespace-delimited fields a single line is
// split into. The final slot always holds whatever remains unconsumed
// (empty if the whole line was split into at most MaxTokens-1 real
// tokens), mirroring the classic tokenizer's terminal marker.
const MaxTokens = 8

// Token is one field of a tokenized line: a byte-range view into the
// original line buffer.
type Token struct {
	Value []byte
}

// Tokenize splits line on runs of spaces, writing up to MaxTokens tokens
// into out (which must have capacity MaxTokens) and returning how many
// were filled. The last filled token is a terminal marker: its Value is
// whatever of the line was not yet consumed, or empty if the line was
// fully split into ordinary tokens before the limit was reached.
func Tokenize(line []byte, out []Token) int {
	n := 0
	i := 0
	length := len(line)

	for n < MaxTokens-1 {
		for i < length && line[i] == ' ' {
			i++
		}
		if i >= length {
			break
		}

		start := i
		for i < length && line[i] != ' ' {
			i++
		}

		out[n] = Token{Value: line[start:i]}
		n++
	}

	for i < length && line[i] == ' ' {
		i++
	}

	out[n] = Token{Value: line[i:]}
	n++

	return n
}

// CountTokens reports how many tokens line would split into, without
// retaining any of them — used by callers that only need the arity for
// logging/accounting decisions.
func CountTokens(line []byte) int {
	var toks [MaxTokens]Token
	return Tokenize(line, toks[:])
}
