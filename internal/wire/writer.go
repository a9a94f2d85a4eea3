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

// Package wire implements the scatter/gather write pipeline: a growable
// segment list standing in for iovec[], grouped into frames standing in
// for msghdr[], drained with a writev-equivalent syscall. Segments alias
// borrowed memory (a storage item's suffix and value) and are never
// copied.
package wire

// MaxSegmentsPerFrame is the IOV_MAX-equivalent cap on how many segments
// a single frame may hold before a new frame is started.
const MaxSegmentsPerFrame = 1024

// FirstFrameCap is the legacy MTU-aware reply-framing cap: the first
// frame of a reply may not exceed this many bytes, a limit retained from
// a UDP-framing ancestor even though only stream connections are served.
const FirstFrameCap = 1400

// Segment is one scatter/gather fragment: a byte-range view, never owned
// or mutated by the writer. It may alias a storage item's memory.
type Segment = []byte

// Writer accumulates segments into frames and drains them frame by frame.
// It is per-connection state and is not safe for concurrent use — a
// connection is owned by exactly one worker goroutine while a reply is
// in flight.
type Writer struct {
	frames [][]Segment
	bytes  []int // total bytes per frame, index-aligned with frames
	cur    int   // index of the frame currently being drained
	sent   int   // bytes already sent from frames[cur]
}

// Reset clears all frames, as done on every transition back into the
// read state once a reply has fully drained.
func (w *Writer) Reset() {
	w.frames = w.frames[:0]
	w.bytes = w.bytes[:0]
	w.cur = 0
	w.sent = 0
}

// Add appends seg to the vector list, splitting across frames on three
// conditions: a full frame, a first-frame byte cap, or a fragment that
// itself exceeds the first-frame cap.
func (w *Writer) Add(seg Segment) {
	for len(seg) > 0 {
		fi := w.currentOpenFrame()

		if fi == 0 && w.bytes[fi]+len(seg) > FirstFrameCap && w.bytes[fi] > 0 {
			// First frame would overflow and already has content: start a
			// fresh frame instead of splitting the fragment needlessly.
			fi = w.startFrame()
		}

		room := len(seg)
		if fi == 0 {
			if avail := FirstFrameCap - w.bytes[fi]; avail < room {
				room = avail
			}
		}

		if room <= 0 {
			fi = w.startFrame()
			if fi == 0 {
				room = FirstFrameCap
			} else {
				room = len(seg)
			}
			if room > len(seg) {
				room = len(seg)
			}
		}

		w.frames[fi] = append(w.frames[fi], seg[:room])
		w.bytes[fi] += room
		seg = seg[room:]

		if len(seg) > 0 {
			w.startFrame()
		}
	}
}

// currentOpenFrame returns the index of the last frame, creating the very
// first one lazily, and rolling to a new frame once IOV_MAX segments have
// accumulated.
func (w *Writer) currentOpenFrame() int {
	if len(w.frames) == 0 {
		return w.startFrame()
	}

	last := len(w.frames) - 1
	if len(w.frames[last]) >= MaxSegmentsPerFrame {
		return w.startFrame()
	}

	return last
}

func (w *Writer) startFrame() int {
	w.frames = append(w.frames, make([]Segment, 0, 8))
	w.bytes = append(w.bytes, 0)

	return len(w.frames) - 1
}

// Pending reports whether any frame remains to be drained.
func (w *Writer) Pending() bool {
	return w.cur < len(w.frames)
}

// FrameCount returns how many frames are queued, for tests and metrics.
func (w *Writer) FrameCount() int {
	return len(w.frames)
}

// QueuedBytes returns the total size of every frame queued for this
// reply, regardless of how much has already drained.
func (w *Writer) QueuedBytes() int {
	total := 0
	for _, n := range w.bytes {
		total += n
	}

	return total
}

// currentSegments returns the still-unsent iovec list for the frame being
// drained, with the first segment trimmed by however many bytes a
// previous partial write already consumed.
func (w *Writer) currentSegments() []Segment {
	if !w.Pending() {
		return nil
	}

	segs := w.frames[w.cur]
	if w.sent == 0 {
		return segs
	}

	out := make([]Segment, 0, len(segs))
	skip := w.sent
	for _, s := range segs {
		if skip >= len(s) {
			skip -= len(s)
			continue
		}
		out = append(out, s[skip:])
		skip = 0
	}

	return out
}

// advance records n bytes of the current frame as sent, rolling to the
// next frame once the whole frame has been drained.
func (w *Writer) advance(n int) {
	w.sent += n

	total := w.bytes[w.cur]
	if w.sent >= total {
		w.cur++
		w.sent = 0
	}
}
