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

package blog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Logger is the facade every beansdb package logs through. It is safe for
// concurrent use by every connection goroutine.
type Logger interface {
	Debug(message string, args ...interface{})
	Info(message string, args ...interface{})
	Warning(message string, args ...interface{})
	Error(message string, args ...interface{})
	Fatal(message string, args ...interface{})

	// WithField returns a derived Logger that always attaches the given
	// field (e.g. "remote" => "1.2.3.4:5678"), mirroring the access-log
	// line shape ("remote \t command \t ms").
	WithField(key string, val interface{}) Logger

	// SetThreshold adjusts the minimum level that is actually emitted; it
	// is how the `verbosity` command takes effect live.
	SetThreshold(l Level)
	Threshold() Level
}

type logger struct {
	l   *logrus.Logger
	thr atomic.Int32
	fld logrus.Fields
}

var (
	stdOnce sync.Once
	std     *logger
)

// New builds a standalone Logger writing to w (os.Stdout if nil) at the
// given initial threshold.
func New(w io.Writer, initial Level) Logger {
	if w == nil {
		w = os.Stdout
	}

	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	g := &logger{l: l, fld: logrus.Fields{}}
	g.thr.Store(int32(initial))
	l.SetLevel(logrus.TraceLevel)

	return g
}

// Std returns the process-wide default Logger (stdout, InfoLevel), lazily
// constructed on first use.
func Std() Logger {
	stdOnce.Do(func() {
		std = New(os.Stdout, InfoLevel).(*logger)
	})

	return std
}

func (g *logger) emit(lvl Level, message string, args []interface{}) {
	if lvl == NilLevel || lvl > Level(g.thr.Load()) {
		return
	}

	entry := g.l.WithFields(g.fld)
	entry.Log(lvl.logrus(), fmt.Sprintf(message, args...))
}

func (g *logger) Debug(message string, args ...interface{})   { g.emit(DebugLevel, message, args) }
func (g *logger) Info(message string, args ...interface{})    { g.emit(InfoLevel, message, args) }
func (g *logger) Warning(message string, args ...interface{}) { g.emit(WarnLevel, message, args) }
func (g *logger) Error(message string, args ...interface{})   { g.emit(ErrorLevel, message, args) }

func (g *logger) Fatal(message string, args ...interface{}) {
	g.emit(FatalLevel, message, args)
	os.Exit(1)
}

func (g *logger) WithField(key string, val interface{}) Logger {
	nf := make(logrus.Fields, len(g.fld)+1)
	for k, v := range g.fld {
		nf[k] = v
	}
	nf[key] = val

	n := &logger{l: g.l, fld: nf}
	n.thr.Store(g.thr.Load())

	return n
}

func (g *logger) SetThreshold(l Level) {
	g.thr.Store(int32(l))
}

func (g *logger) Threshold() Level {
	return Level(g.thr.Load())
}
