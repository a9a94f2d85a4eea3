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

import (
	"strconv"
)

// MaxKeyLen is the longest key the protocol accepts.
const MaxKeyLen = 250

// Kind classifies a parsed command line.
type Kind int

const (
	Get Kind = iota
	Set
	Append
	Incr
	Delete
	Stats
	FlushAll
	OptimizeStat
	Verbosity
	Version
	Quit
	StopMe
)

// Command is the result of parsing one protocol line. Only the fields
// relevant to Kind are populated; Keys aliases the original line buffer
// and must not outlive it.
type Command struct {
	Kind Kind

	Keys []byte   // the key for set/append/incr/delete
	Gets [][]byte // one or more keys for get

	Flags  uint32
	Ver    int64
	Length int32
	Delta  int64

	StatsReset bool

	FlushLimit int
	FlushTree  string

	VerbosityLevel int

	Noreply bool
}

// noreplyWord is the literal token that suppresses a reply.
var noreplyWord = []byte("noreply")

// Parse tokenizes line (without its trailing CRLF) and builds a Command,
// or returns a proto error (ErrBadFormat / ErrKeyTooLong) describing why
// the line could not be dispatched. An unrecognized verb or arity
// returns (Command{}, false, nil) so the caller can emit a bare "ERROR".
func Parse(line []byte) (Command, bool, error) {
	var toks [MaxTokens]Token
	n := Tokenize(line, toks[:])

	if n < 2 {
		return Command{}, false, nil
	}

	verb := string(toks[0].Value)

	noreply := false
	args := n - 2 // real argument tokens: excludes both the verb and the terminal marker
	if n >= 3 && string(toks[n-2].Value) == string(noreplyWord) {
		noreply = true
		args--
	}

	switch verb {
	case "get":
		if n < 3 {
			return Command{}, false, nil
		}
		keys := make([][]byte, 0, n-2)
		for i := 1; i < n-1; i++ {
			keys = append(keys, toks[i].Value)
		}
		// Keys beyond what one Tokenize pass holds sit in the terminal
		// marker; keep tokenizing that remainder until it is empty.
		for rest := toks[n-1].Value; len(rest) > 0; {
			m := Tokenize(rest, toks[:])
			for i := 0; i < m-1; i++ {
				keys = append(keys, toks[i].Value)
			}
			rest = toks[m-1].Value
		}
		for _, k := range keys {
			if len(k) > MaxKeyLen {
				return Command{}, true, ErrKeyTooLong
			}
		}
		return Command{Kind: Get, Gets: keys}, true, nil

	case "set", "append":
		if args != 4 {
			return Command{}, false, nil
		}
		return parseStore(verb, toks[:], noreply)

	case "incr":
		if args != 2 {
			return Command{}, false, nil
		}
		if len(toks[1].Value) > MaxKeyLen {
			return Command{}, true, ErrKeyTooLong
		}
		delta, err := strconv.ParseInt(string(toks[2].Value), 10, 64)
		if err != nil {
			return Command{}, true, ErrBadFormat
		}
		return Command{Kind: Incr, Keys: toks[1].Value, Delta: delta, Noreply: noreply}, true, nil

	case "delete":
		if args != 1 {
			return Command{}, false, nil
		}
		if len(toks[1].Value) > MaxKeyLen {
			return Command{}, true, ErrKeyTooLong
		}
		return Command{Kind: Delete, Keys: toks[1].Value, Noreply: noreply}, true, nil

	case "stats":
		if n == 2 {
			return Command{Kind: Stats}, true, nil
		}
		if n == 3 && string(toks[1].Value) == "reset" {
			return Command{Kind: Stats, StatsReset: true}, true, nil
		}
		return Command{}, false, nil

	case "flush_all":
		return parseFlushAll(toks[:], n, noreply)

	case "optimize_stat":
		if n != 2 {
			return Command{}, false, nil
		}
		return Command{Kind: OptimizeStat}, true, nil

	case "verbosity":
		if n != 3 {
			return Command{}, false, nil
		}
		lvl, err := strconv.Atoi(string(toks[1].Value))
		if err != nil {
			return Command{}, true, ErrBadFormat
		}
		return Command{Kind: Verbosity, VerbosityLevel: lvl}, true, nil

	case "version":
		if n != 2 {
			return Command{}, false, nil
		}
		return Command{Kind: Version}, true, nil

	case "quit":
		if n != 2 {
			return Command{}, false, nil
		}
		return Command{Kind: Quit}, true, nil

	case "stopme":
		if n != 2 {
			return Command{}, false, nil
		}
		return Command{Kind: StopMe}, true, nil
	}

	return Command{}, false, nil
}

func parseStore(verb string, toks []Token, noreply bool) (Command, bool, error) {
	key := toks[1].Value
	if len(key) > MaxKeyLen {
		return Command{}, true, ErrKeyTooLong
	}

	flags, err := strconv.ParseUint(string(toks[2].Value), 10, 32)
	if err != nil {
		return Command{}, true, ErrBadFormat
	}

	ver, err := strconv.ParseInt(string(toks[3].Value), 10, 64)
	if err != nil {
		return Command{}, true, ErrBadFormat
	}

	length, err := strconv.ParseInt(string(toks[4].Value), 10, 32)
	if err != nil || length < 0 {
		return Command{}, true, ErrBadFormat
	}

	kind := Set
	if verb == "append" {
		kind = Append
	}

	return Command{
		Kind:    kind,
		Keys:    key,
		Flags:   uint32(flags),
		Ver:     ver,
		Length:  int32(length),
		Noreply: noreply,
	}, true, nil
}

func parseFlushAll(toks []Token, n int, noreply bool) (Command, bool, error) {
	cmd := Command{Kind: FlushAll, Noreply: noreply}

	// Tokens between the verb and the (possibly consumed) noreply/terminal
	// marker are [LIMIT [TREE]].
	last := n - 1
	if noreply {
		last--
	}

	switch last - 1 {
	case 0:
		return cmd, true, nil
	case 1:
		limit, err := strconv.Atoi(string(toks[1].Value))
		if err != nil {
			return Command{}, true, ErrBadFormat
		}
		cmd.FlushLimit = limit
		return cmd, true, nil
	case 2:
		limit, err := strconv.Atoi(string(toks[1].Value))
		if err != nil {
			return Command{}, true, ErrBadFormat
		}
		cmd.FlushLimit = limit
		cmd.FlushTree = string(toks[2].Value)
		return cmd, true, nil
	}

	return Command{}, false, nil
}
