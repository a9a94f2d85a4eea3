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

// Package metrics mirrors the stats package's counters as Prometheus
// collectors, and serves them over a small opt-in HTTP listener. It is
// an observability addition: the wire protocol's own `stats` command
// remains the source of truth, this package only republishes the same
// numbers in a format a scrape-based monitoring stack can consume.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yuanfeng0905/beansdb/internal/stats"
)

// Source supplies the live values a Collector reports. *server.Server
// satisfies it without metrics importing server, avoiding a cycle.
type Source interface {
	StatsSnapshot() stats.Snapshot
	StoreCount() (curr, total uint64)
	StoreStat() (totalSpace, availSpace uint64)
}

// Collector adapts a Source to prometheus.Collector, computing fresh
// values on every scrape rather than caching, since the underlying
// counters are cheap mutex reads.
type Collector struct {
	src Source

	currConns    *prometheus.Desc
	totalConns   *prometheus.Desc
	cmdGet       *prometheus.Desc
	cmdSet       *prometheus.Desc
	cmdDelete    *prometheus.Desc
	slowCmds     *prometheus.Desc
	getHits      *prometheus.Desc
	getMisses    *prometheus.Desc
	bytesRead    *prometheus.Desc
	bytesWritten *prometheus.Desc
	currItems    *prometheus.Desc
	totalItems   *prometheus.Desc
	availSpace   *prometheus.Desc
	totalSpace   *prometheus.Desc
}

// New builds a Collector over src. namespace prefixes every metric name
// (e.g. "beansdb").
func New(namespace string, src Source) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(namespace+"_"+name, help, nil, nil)
	}

	return &Collector{
		src:          src,
		currConns:    desc("curr_connections", "Currently open client connections"),
		totalConns:   desc("total_connections", "Client connections accepted since start"),
		cmdGet:       desc("cmd_get_total", "get commands processed"),
		cmdSet:       desc("cmd_set_total", "set commands processed"),
		cmdDelete:    desc("cmd_delete_total", "delete commands processed"),
		slowCmds:     desc("slow_commands_total", "Commands exceeding the slow-command threshold"),
		getHits:      desc("get_hits_total", "get commands resolved to a stored value"),
		getMisses:    desc("get_misses_total", "get commands resolved to no value"),
		bytesRead:    desc("bytes_read_total", "Bytes read from client sockets"),
		bytesWritten: desc("bytes_written_total", "Bytes written to client sockets"),
		currItems:    desc("curr_items", "Live keys in the storage engine"),
		totalItems:   desc("total_items", "Keys ever written to the storage engine"),
		availSpace:   desc("avail_space_bytes", "Storage engine space available"),
		totalSpace:   desc("total_space_bytes", "Storage engine space total"),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.currConns
	ch <- c.totalConns
	ch <- c.cmdGet
	ch <- c.cmdSet
	ch <- c.cmdDelete
	ch <- c.slowCmds
	ch <- c.getHits
	ch <- c.getMisses
	ch <- c.bytesRead
	ch <- c.bytesWritten
	ch <- c.currItems
	ch <- c.totalItems
	ch <- c.availSpace
	ch <- c.totalSpace
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.src.StatsSnapshot()
	curr, total := c.src.StoreCount()
	totalSpace, availSpace := c.src.StoreStat()

	gauge := prometheus.MustNewConstMetric
	ch <- gauge(c.currConns, prometheus.GaugeValue, float64(snap.CurrConns))
	ch <- gauge(c.totalConns, prometheus.CounterValue, float64(snap.TotalConns))
	ch <- gauge(c.cmdGet, prometheus.CounterValue, float64(snap.CmdGet))
	ch <- gauge(c.cmdSet, prometheus.CounterValue, float64(snap.CmdSet))
	ch <- gauge(c.cmdDelete, prometheus.CounterValue, float64(snap.CmdDelete))
	ch <- gauge(c.slowCmds, prometheus.CounterValue, float64(snap.SlowCmds))
	ch <- gauge(c.getHits, prometheus.CounterValue, float64(snap.GetHits))
	ch <- gauge(c.getMisses, prometheus.CounterValue, float64(snap.GetMisses))
	ch <- gauge(c.bytesRead, prometheus.CounterValue, float64(snap.BytesRead))
	ch <- gauge(c.bytesWritten, prometheus.CounterValue, float64(snap.BytesWritten))
	ch <- gauge(c.currItems, prometheus.GaugeValue, float64(curr))
	ch <- gauge(c.totalItems, prometheus.CounterValue, float64(total))
	ch <- gauge(c.availSpace, prometheus.GaugeValue, float64(availSpace))
	ch <- gauge(c.totalSpace, prometheus.GaugeValue, float64(totalSpace))
}
