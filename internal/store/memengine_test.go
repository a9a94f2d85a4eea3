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

package store_test

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/yuanfeng0905/beansdb/internal/store"
)

var _ = Describe("memEngine", func() {
	var eng store.Engine

	BeforeEach(func() {
		eng = store.NewMemEngine()
	})

	AfterEach(func() {
		Expect(eng.Close()).To(Succeed())
	})

	Describe("Set/Get round-trip", func() {
		It("stores and retrieves a value with its flag and version", func() {
			res, err := eng.Set([]byte("foo"), []byte("bar"), 42, 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(res).To(Equal(store.SetStored))

			item, err := eng.Get([]byte("foo"))
			Expect(err).ToNot(HaveOccurred())
			Expect(item).ToNot(BeNil())
			Expect(item.Value).To(Equal([]byte("bar")))
			Expect(item.Flag).To(Equal(uint32(42)))
			Expect(item.Ver).To(Equal(int64(1)))
		})

		It("builds the get-reply suffix so callers never need to format it themselves", func() {
			_, err := eng.Set([]byte("foo"), []byte("bar"), 7, 0)
			Expect(err).ToNot(HaveOccurred())

			item, err := eng.Get([]byte("foo"))
			Expect(err).ToNot(HaveOccurred())
			Expect(string(item.Suffix)).To(Equal(" 7 3\r\n"))
		})

		It("reports SetStored when a second write replaces the same key", func() {
			_, err := eng.Set([]byte("foo"), []byte("bar"), 0, 0)
			Expect(err).ToNot(HaveOccurred())

			res, err := eng.Set([]byte("foo"), []byte("baz"), 0, 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(res).To(Equal(store.SetStored))
		})

		It("returns a nil item with no error for a missing key", func() {
			item, err := eng.Get([]byte("missing"))
			Expect(err).ToNot(HaveOccurred())
			Expect(item).To(BeNil())
		})
	})

	Describe("Append", func() {
		It("appends to an existing value", func() {
			_, err := eng.Set([]byte("foo"), []byte("bar"), 0, 0)
			Expect(err).ToNot(HaveOccurred())

			ok, err := eng.Append([]byte("foo"), []byte("baz"))
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeTrue())

			item, err := eng.Get([]byte("foo"))
			Expect(err).ToNot(HaveOccurred())
			Expect(item.Value).To(Equal([]byte("barbaz")))
		})

		It("reports failure against a missing key without creating one", func() {
			ok, err := eng.Append([]byte("missing"), []byte("x"))
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeFalse())

			item, err := eng.Get([]byte("missing"))
			Expect(err).ToNot(HaveOccurred())
			Expect(item).To(BeNil())
		})
	})

	Describe("Incr", func() {
		It("initializes a missing counter at zero before applying delta", func() {
			v, err := eng.Incr([]byte("ctr"), 5)
			Expect(err).ToNot(HaveOccurred())
			Expect(v).To(Equal(uint64(5)))
		})

		It("accumulates across repeated calls", func() {
			_, err := eng.Incr([]byte("ctr"), 5)
			Expect(err).ToNot(HaveOccurred())
			v, err := eng.Incr([]byte("ctr"), 3)
			Expect(err).ToNot(HaveOccurred())
			Expect(v).To(Equal(uint64(8)))
		})

		It("floors at zero instead of going negative", func() {
			_, err := eng.Incr([]byte("ctr"), 2)
			Expect(err).ToNot(HaveOccurred())
			v, err := eng.Incr([]byte("ctr"), -10)
			Expect(err).ToNot(HaveOccurred())
			Expect(v).To(Equal(uint64(0)))
		})
	})

	Describe("Delete", func() {
		It("removes an existing key and reports true", func() {
			_, err := eng.Set([]byte("foo"), []byte("bar"), 0, 0)
			Expect(err).ToNot(HaveOccurred())

			ok, err := eng.Delete([]byte("foo"))
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeTrue())

			item, err := eng.Get([]byte("foo"))
			Expect(err).ToNot(HaveOccurred())
			Expect(item).To(BeNil())
		})

		It("reports false for a missing key", func() {
			ok, err := eng.Delete([]byte("missing"))
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Count", func() {
		It("tracks current and cumulative writes separately", func() {
			_, _ = eng.Set([]byte("a"), []byte("1"), 0, 0)
			_, _ = eng.Set([]byte("b"), []byte("1"), 0, 0)
			_, _ = eng.Set([]byte("a"), []byte("2"), 0, 1) // overwrite, not a new key

			curr, total := eng.Count()
			Expect(curr).To(Equal(uint64(2)))
			Expect(total).To(Equal(uint64(3)))

			_, _ = eng.Delete([]byte("a"))
			curr, _ = eng.Count()
			Expect(curr).To(Equal(uint64(1)))
		})
	})

	Describe("Stat", func() {
		It("reports available space shrinking as data is written", func() {
			totalBefore, availBefore := eng.Stat()
			_, err := eng.Set([]byte("foo"), []byte("some bytes of value"), 0, 0)
			Expect(err).ToNot(HaveOccurred())
			totalAfter, availAfter := eng.Stat()

			Expect(totalAfter).To(Equal(totalBefore))
			Expect(availAfter).To(BeNumerically("<", availBefore))
		})
	})

	Describe("Flush", func() {
		It("is a documented no-op that never errors", func() {
			Expect(eng.Flush(1024, 30*time.Second)).To(Succeed())
		})
	})

	Describe("Optimize", func() {
		It("reports idle status before and after a run", func() {
			Expect(eng.OptimizeStat()).To(Equal(store.OptimizeStatusIdle))

			res, err := eng.Optimize(0, "")
			Expect(err).ToNot(HaveOccurred())
			Expect(res).To(Equal(store.OptimizeOK))

			Expect(eng.OptimizeStat()).To(Equal(store.OptimizeStatusIdle))
		})
	})

	Describe("concurrent access across shards", func() {
		It("survives concurrent writers touching distinct keys without data races", func() {
			var wg sync.WaitGroup
			for i := 0; i < 64; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					key := []byte{byte(i)}
					_, _ = eng.Set(key, []byte("v"), 0, 0)
				}(i)
			}
			wg.Wait()

			curr, _ := eng.Count()
			Expect(curr).To(Equal(uint64(64)))
		})
	})
})
