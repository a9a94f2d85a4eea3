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

// Package version exposes the semantic version reported by the `version`
// command and the `stats` report's `version` field, and an AtLeast
// minimum-version comparison.
package version

import (
	hcver "github.com/hashicorp/go-version"
)

// Release is the semantic version this build reports. It is overridden at
// link time with -ldflags "-X .../version.Release=...", the way most Go
// daemons stamp their build.
var Release = "1.6.2"

// Parsed parses Release into a comparable *version.Version. If Release
// was stamped with an invalid string it returns 0.0.0 instead.
func Parsed() *hcver.Version {
	v, err := hcver.NewVersion(Release)
	if err != nil {
		return hcver.Must(hcver.NewVersion("0.0.0"))
	}

	return v
}

// AtLeast reports whether the running build's version is >= min.
func AtLeast(min string) bool {
	mv, err := hcver.NewVersion(min)
	if err != nil {
		return false
	}

	return Parsed().GreaterThanOrEqual(mv)
}

// String returns the bare semantic version string, as rendered after
// "VERSION " on the wire.
func String() string {
	return Release
}
