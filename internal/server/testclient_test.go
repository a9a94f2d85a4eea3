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

package server_test

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"time"

	. "github.com/onsi/gomega"

	"github.com/yuanfeng0905/beansdb/internal/blog"
	"github.com/yuanfeng0905/beansdb/internal/server"
	"github.com/yuanfeng0905/beansdb/internal/store"
)

// testServer wraps a running Server bound to a loopback address picked at
// construction time, plus helpers to open protocol connections against it.
type testServer struct {
	srv  *server.Server
	addr string
	done chan error
}

func startTestServer(cfg server.Config) *testServer {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).ToNot(HaveOccurred())
	addr := ln.Addr().String()
	Expect(ln.Close()).To(Succeed())

	cfg.ListenAddress = addr

	log := blog.New(io.Discard, blog.WarnLevel)
	srv := server.New(cfg, store.NewMemEngine(), log)

	ts := &testServer{srv: srv, addr: addr, done: make(chan error, 1)}

	go func() {
		ts.done <- srv.ListenAndServe()
	}()

	ts.waitUntilDialable()

	return ts
}

func (ts *testServer) waitUntilDialable() {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c, err := net.DialTimeout("tcp", ts.addr, 100*time.Millisecond)
		if err == nil {
			_ = c.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func (ts *testServer) shutdown() {
	ts.srv.Shutdown()
	<-ts.done
}

// protoClient is a thin line-oriented client for the test server's wire
// protocol: write a command, read back its reply line(s).
type protoClient struct {
	conn net.Conn
	r    *bufio.Reader
}

func (ts *testServer) dial() *protoClient {
	conn, err := net.DialTimeout("tcp", ts.addr, time.Second)
	Expect(err).ToNot(HaveOccurred())
	return &protoClient{conn: conn, r: bufio.NewReader(conn)}
}

func (pc *protoClient) close() {
	_ = pc.conn.Close()
}

func (pc *protoClient) send(line string) {
	_, err := pc.conn.Write([]byte(line + "\r\n"))
	Expect(err).ToNot(HaveOccurred())
}

func (pc *protoClient) sendRaw(data []byte) {
	_, err := pc.conn.Write(data)
	Expect(err).ToNot(HaveOccurred())
}

func (pc *protoClient) readLine() string {
	_ = pc.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := pc.r.ReadString('\n')
	Expect(err).ToNot(HaveOccurred())
	return trimCRLF(line)
}

func trimCRLF(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// readLinesUntil reads lines until terminator (inclusive) is seen,
// returning every line read including the terminator.
func (pc *protoClient) readLinesUntil(terminator string) []string {
	var lines []string
	for {
		line := pc.readLine()
		lines = append(lines, line)
		if line == terminator {
			return lines
		}
	}
}

func set(pc *protoClient, key, val string, flags uint32, ver int64) string {
	pc.send(fmt.Sprintf("set %s %d %d %d", key, flags, ver, len(val)))
	pc.sendRaw([]byte(val + "\r\n"))
	return pc.readLine()
}
