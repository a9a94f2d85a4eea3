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
	"fmt"
	"net"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/yuanfeng0905/beansdb/internal/server"
)

func baseConfig() server.Config {
	return server.Config{
		InitialPoolSize:      4,
		PoolCap:              64,
		SlowCommandThreshold: time.Second,
		FlushLimitKB:         1024,
		FlushPeriod:          time.Hour,
		StopEnabled:          false,
		Verbosity:            0,
	}
}

var _ = Describe("Server", func() {
	var (
		ts *testServer
		pc *protoClient
	)

	AfterEach(func() {
		if pc != nil {
			pc.close()
			pc = nil
		}
		if ts != nil {
			ts.shutdown()
			ts = nil
		}
	})

	Describe("set/get round trip", func() {
		BeforeEach(func() {
			ts = startTestServer(baseConfig())
			pc = ts.dial()
		})

		It("stores and retrieves a value", func() {
			Expect(set(pc, "foo", "bar", 7, 1)).To(Equal("STORED"))

			pc.send("get foo")
			lines := pc.readLinesUntil("END")
			Expect(lines).To(HaveLen(3))
			Expect(lines[0]).To(Equal("VALUE foo 7 3"))
			Expect(lines[1]).To(Equal("bar"))
			Expect(lines[2]).To(Equal("END"))
		})

		It("returns only END for a missing key", func() {
			pc.send("get missing-key")
			lines := pc.readLinesUntil("END")
			Expect(lines).To(Equal([]string{"END"}))
		})

		It("fetches multiple keys in one reply, skipping misses", func() {
			Expect(set(pc, "a", "1", 0, 1)).To(Equal("STORED"))
			Expect(set(pc, "b", "22", 0, 1)).To(Equal("STORED"))

			pc.send("get a missing b")
			lines := pc.readLinesUntil("END")
			Expect(lines).To(Equal([]string{
				"VALUE a 0 1",
				"1",
				"VALUE b 0 2",
				"22",
				"END",
			}))
		})

		It("overwrites an existing key on a later set", func() {
			Expect(set(pc, "k", "first", 0, 1)).To(Equal("STORED"))
			Expect(set(pc, "k", "second-value", 0, 2)).To(Equal("STORED"))

			pc.send("get k")
			lines := pc.readLinesUntil("END")
			Expect(lines).To(Equal([]string{
				"VALUE k 0 12",
				"second-value",
				"END",
			}))
		})
	})

	Describe("append", func() {
		BeforeEach(func() {
			ts = startTestServer(baseConfig())
			pc = ts.dial()
		})

		It("reports NOT_STORED against a key that does not exist", func() {
			pc.send("append nosuch 0 0 3")
			pc.sendRaw([]byte("abc\r\n"))
			Expect(pc.readLine()).To(Equal("NOT_STORED"))
		})

		It("appends to an existing value", func() {
			Expect(set(pc, "k", "ab", 0, 1)).To(Equal("STORED"))

			pc.send("append k 0 0 2")
			pc.sendRaw([]byte("cd\r\n"))
			Expect(pc.readLine()).To(Equal("STORED"))

			pc.send("get k")
			lines := pc.readLinesUntil("END")
			Expect(lines[1]).To(Equal("abcd"))
		})
	})

	Describe("noreply suppression", func() {
		BeforeEach(func() {
			ts = startTestServer(baseConfig())
			pc = ts.dial()
		})

		It("sends no reply for a noreply set, but the value is still stored", func() {
			pc.send("set k 0 1 3 noreply")
			pc.sendRaw([]byte("xyz\r\n"))

			// Immediately pipeline a get; its reply is the first thing we
			// should read back, proving the set never produced output.
			pc.send("get k")
			lines := pc.readLinesUntil("END")
			Expect(lines).To(Equal([]string{
				"VALUE k 0 3",
				"xyz",
				"END",
			}))
		})

		It("sends no reply for a noreply delete", func() {
			Expect(set(pc, "k", "v", 0, 1)).To(Equal("STORED"))

			pc.send("delete k noreply")
			pc.send("get k")
			lines := pc.readLinesUntil("END")
			Expect(lines).To(Equal([]string{"END"}))
		})
	})

	Describe("pipelining", func() {
		BeforeEach(func() {
			ts = startTestServer(baseConfig())
			pc = ts.dial()
		})

		It("replies to back-to-back commands in request order", func() {
			pc.send("set a 0 1 1")
			pc.sendRaw([]byte("1\r\n"))
			pc.send("set b 0 1 1")
			pc.sendRaw([]byte("2\r\n"))
			pc.send("incr a 5")
			pc.send("get b")

			Expect(pc.readLine()).To(Equal("STORED"))
			Expect(pc.readLine()).To(Equal("STORED"))
			Expect(pc.readLine()).To(Equal("6"))
			lines := pc.readLinesUntil("END")
			Expect(lines).To(Equal([]string{"VALUE b 0 1", "2", "END"}))
		})
	})

	Describe("incr", func() {
		BeforeEach(func() {
			ts = startTestServer(baseConfig())
			pc = ts.dial()
		})

		It("adds the delta to a numeric value", func() {
			Expect(set(pc, "n", "10", 0, 1)).To(Equal("STORED"))
			pc.send("incr n 5")
			Expect(pc.readLine()).To(Equal("15"))
		})

		It("treats a missing key as zero and replies with the delta", func() {
			pc.send("incr missing 1")
			Expect(pc.readLine()).To(Equal("1"))
		})
	})

	Describe("delete", func() {
		BeforeEach(func() {
			ts = startTestServer(baseConfig())
			pc = ts.dial()
		})

		It("reports DELETED for an existing key and removes it", func() {
			Expect(set(pc, "k", "v", 0, 1)).To(Equal("STORED"))
			pc.send("delete k")
			Expect(pc.readLine()).To(Equal("DELETED"))

			pc.send("get k")
			lines := pc.readLinesUntil("END")
			Expect(lines).To(Equal([]string{"END"}))
		})

		It("reports NOT_FOUND for a missing key", func() {
			pc.send("delete missing")
			Expect(pc.readLine()).To(Equal("NOT_FOUND"))
		})
	})

	Describe("version", func() {
		BeforeEach(func() {
			ts = startTestServer(baseConfig())
			pc = ts.dial()
		})

		It("replies with a VERSION line", func() {
			pc.send("version")
			line := pc.readLine()
			Expect(line).To(HavePrefix("VERSION "))
		})
	})

	Describe("stats", func() {
		BeforeEach(func() {
			ts = startTestServer(baseConfig())
			pc = ts.dial()
		})

		It("reports counters terminated by END", func() {
			Expect(set(pc, "k", "v", 0, 1)).To(Equal("STORED"))
			pc.send("get k")
			_ = pc.readLinesUntil("END")

			pc.send("stats")
			lines := pc.readLinesUntil("END")
			Expect(lines[len(lines)-1]).To(Equal("END"))

			joined := strings.Join(lines, "\n")
			Expect(joined).To(ContainSubstring("cmd_get"))
			Expect(joined).To(ContainSubstring("curr_connections"))
		})

		It("resets counters and replies RESET", func() {
			pc.send("stats reset")
			Expect(pc.readLine()).To(Equal("RESET"))
		})
	})

	Describe("verbosity", func() {
		BeforeEach(func() {
			ts = startTestServer(baseConfig())
			pc = ts.dial()
		})

		It("acknowledges a verbosity change with OK", func() {
			pc.send("verbosity 2")
			Expect(pc.readLine()).To(Equal("OK"))
		})
	})

	Describe("flush_all and optimize_stat", func() {
		BeforeEach(func() {
			ts = startTestServer(baseConfig())
			pc = ts.dial()
		})

		It("acknowledges flush_all with OK", func() {
			pc.send("flush_all")
			Expect(pc.readLine()).To(Equal("OK"))
		})

		It("reports optimize_stat as OK when idle", func() {
			pc.send("optimize_stat")
			Expect(pc.readLine()).To(Equal("OK"))
		})
	})

	Describe("CLIENT_ERROR wire rendering", func() {
		BeforeEach(func() {
			ts = startTestServer(baseConfig())
			pc = ts.dial()
		})

		It("renders a bad command line verbatim, with no code prefix or trace", func() {
			pc.send("set k 0 0 -1")
			Expect(pc.readLine()).To(Equal("CLIENT_ERROR bad command line format"))

			// the connection must stay open after a CLIENT_ERROR reply
			pc.send("version")
			Expect(pc.readLine()).To(HavePrefix("VERSION "))
		})

		It("renders a too-long key verbatim, with no code prefix or trace", func() {
			longKey := strings.Repeat("k", 251)
			pc.send("get " + longKey)
			Expect(pc.readLine()).To(Equal("CLIENT_ERROR bad command line format"))

			pc.send("version")
			Expect(pc.readLine()).To(HavePrefix("VERSION "))
		})
	})

	Describe("stopme", func() {
		It("is rejected with ERROR when the server disables it", func() {
			ts = startTestServer(baseConfig())
			pc = ts.dial()

			pc.send("stopme")
			Expect(pc.readLine()).To(Equal("ERROR"))
		})

		It("acknowledges with OK and begins shutdown when enabled", func() {
			cfg := baseConfig()
			cfg.StopEnabled = true
			ts = startTestServer(cfg)
			pc = ts.dial()

			pc.send("stopme")
			Expect(pc.readLine()).To(Equal("OK"))

			Eventually(func() error {
				conn, err := net.DialTimeout("tcp", ts.addr, 100*time.Millisecond)
				if err != nil {
					return err
				}
				_ = conn.Close()
				return nil
			}, 2*time.Second, 20*time.Millisecond).Should(HaveOccurred())

			<-ts.done
			ts = nil
		})
	})

	Describe("oversized value rejection", func() {
		BeforeEach(func() {
			ts = startTestServer(baseConfig())
			pc = ts.dial()
		})

		It("rejects a value declared too large with SERVER_ERROR", func() {
			const tooLarge = 64<<20 + 1
			pc.send(fmt.Sprintf("set huge 0 1 %d", tooLarge))
			Expect(pc.readLine()).To(Equal("SERVER_ERROR out of memory storing object"))
		})
	})

	Describe("line length hardening", func() {
		BeforeEach(func() {
			ts = startTestServer(baseConfig())
			pc = ts.dial()
		})

		It("rejects an oversized command line and resyncs the stream", func() {
			huge := strings.Repeat("x", 70000)
			pc.send("get " + huge)
			Expect(pc.readLine()).To(Equal("SERVER_ERROR request too large"))

			pc.send("version")
			Expect(pc.readLine()).To(HavePrefix("VERSION "))
		})
	})

	Describe("large multi-key get reply framing", func() {
		BeforeEach(func() {
			ts = startTestServer(baseConfig())
			pc = ts.dial()
		})

		It("frames many keys correctly across a single scatter/gather reply", func() {
			const n = 200
			for i := 0; i < n; i++ {
				key := fmt.Sprintf("key-%03d", i)
				Expect(set(pc, key, strings.Repeat("v", 64), 0, 1)).To(Equal("STORED"))
			}

			keys := make([]string, n)
			for i := 0; i < n; i++ {
				keys[i] = fmt.Sprintf("key-%03d", i)
			}
			pc.send("get " + strings.Join(keys, " "))

			lines := pc.readLinesUntil("END")
			// 2 lines per key (VALUE, payload) plus END.
			Expect(lines).To(HaveLen(n*2 + 1))
			Expect(lines[len(lines)-1]).To(Equal("END"))
		})
	})

	Describe("graceful shutdown", func() {
		It("stops accepting new connections and lets in-flight work finish", func() {
			ts = startTestServer(baseConfig())
			pc = ts.dial()

			Expect(set(pc, "k", "v", 0, 1)).To(Equal("STORED"))

			ts.srv.Shutdown()
			<-ts.done
			ts = nil
		})
	})
})
