//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

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

package stats

import "syscall"

// rusageFallback reads getrusage(2) directly when gopsutil's process
// lookup is unavailable. Darwin reports ru_maxrss in bytes, everything
// else in KiB; normalize to KiB here.
func rusageFallback() (userSec, sysSec float64, maxRSSKiB uint64) {
	var ru syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &ru); err != nil {
		return 0, 0, 0
	}

	userSec = float64(ru.Utime.Sec) + float64(ru.Utime.Usec)/1e6
	sysSec = float64(ru.Stime.Sec) + float64(ru.Stime.Usec)/1e6
	maxRSSKiB = uint64(ru.Maxrss)
	if maxRSSKiB > 0 {
		maxRSSKiB = normalizeMaxRSS(maxRSSKiB)
	}

	return userSec, sysSec, maxRSSKiB
}
