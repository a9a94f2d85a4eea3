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

package config

import (
	"github.com/fsnotify/fsnotify"

	"github.com/yuanfeng0905/beansdb/internal/blog"
)

// Reloadable is the narrow slice of a running server that hot-reload is
// allowed to touch: verbosity and the flush limit/period. Every other
// field requires a restart to take effect.
type Reloadable interface {
	SetVerbosity(level int)
	SetFlushLimit(limitKB int)
	SetFlushPeriod(period int64)
}

// Watch installs viper's fsnotify-backed config file watcher and applies
// only the reloadable fields (verbosity, flush limit, flush period) of
// every subsequent change to target. A change to listenAddress, threads,
// itemBufSize, connPoolCap or metricsEnabled is logged as a warning but
// not applied; changes to any other field are neither applied nor logged.
func (l *Loader) Watch(current *Options, target Reloadable, log blog.Logger) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		var next Options
		if err := l.v.Unmarshal(&next); err != nil {
			log.Warning("config reload: %s", err.Error())
			return
		}
		if err := next.Validate(); err != nil {
			log.Warning("config reload: %s", err.Error())
			return
		}

		if next.Verbosity != current.Verbosity {
			target.SetVerbosity(next.Verbosity)
			current.Verbosity = next.Verbosity
		}
		if next.FlushLimitKB != current.FlushLimitKB {
			target.SetFlushLimit(next.FlushLimitKB)
			current.FlushLimitKB = next.FlushLimitKB
		}
		if next.FlushPeriod != current.FlushPeriod {
			target.SetFlushPeriod(int64(next.FlushPeriod))
			current.FlushPeriod = next.FlushPeriod
		}

		warnIfChanged(log, "listenAddress", current.ListenAddress, next.ListenAddress)
		warnIfChanged(log, "threads", current.Threads, next.Threads)
		warnIfChanged(log, "itemBufSize", current.ItemBufSize, next.ItemBufSize)
		warnIfChanged(log, "connPoolCap", current.ConnPoolCap, next.ConnPoolCap)
		warnIfChanged(log, "metricsEnabled", current.MetricsEnabled, next.MetricsEnabled)
	})

	l.v.WatchConfig()
}

func warnIfChanged(log blog.Logger, field string, old, new interface{}) {
	if old != new {
		log.Warning("config reload: field %q changed but requires a restart to take effect", field)
	}
}
