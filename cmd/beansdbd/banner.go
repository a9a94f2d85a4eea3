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

package main

import (
	"fmt"

	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"

	"github.com/yuanfeng0905/beansdb/internal/blog"
	"github.com/yuanfeng0905/beansdb/internal/config"
	"github.com/yuanfeng0905/beansdb/internal/version"
)

// printBanner writes a short colored startup summary to stdout through a
// colorable writer rather than assuming the terminal supports ANSI
// natively.
func printBanner(log blog.Logger, opts *config.Options) {
	out := colorable.NewColorableStdout()

	bold := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)

	_, _ = bold.Fprintf(out, "beansdbd %s\n", version.String())
	_, _ = dim.Fprintf(out, "  listen       %s\n", opts.ListenAddress)
	_, _ = dim.Fprintf(out, "  threads      %d\n", opts.Threads)
	_, _ = dim.Fprintf(out, "  verbosity    %d\n", opts.Verbosity)
	if opts.MetricsEnabled {
		_, _ = dim.Fprintf(out, "  metrics      %s\n", opts.MetricsAddress)
	}

	log.Info(fmt.Sprintf("beansdbd %s starting on %s", version.String(), opts.ListenAddress))
}
