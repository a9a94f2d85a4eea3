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
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Loader wraps a *viper.Viper bound to one beansdbd process: a config
// file (if any), environment variables prefixed BEANSDB_, and command
// flags, merged in viper's usual precedence (flags > env > file >
// defaults).
type Loader struct {
	v *viper.Viper
}

// NewLoader builds a Loader seeded with Default()'s values and the
// default search path (./beansdbd.{yaml,toml,json}, /etc/beansdbd).
// Call SetConfigFile before Load to pin an explicit path instead — e.g.
// once a --config flag value is known, which is only after flag parsing
// completes, so callers must not resolve it at construction time.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix("BEANSDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("beansdbd")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/beansdbd")

	setDefaults(v, Default())

	return &Loader{v: v}
}

// SetConfigFile pins an explicit config file path, overriding the
// default search-path behavior. A no-op when path is empty.
func (l *Loader) SetConfigFile(path string) {
	if path != "" {
		l.v.SetConfigFile(path)
	}
}

func setDefaults(v *viper.Viper, d *Options) {
	v.SetDefault("home", d.Home)
	v.SetDefault("listenAddress", d.ListenAddress)
	v.SetDefault("threads", d.Threads)
	v.SetDefault("itemBufSize", d.ItemBufSize)
	v.SetDefault("connPoolInitial", d.ConnPoolInitial)
	v.SetDefault("connPoolCap", d.ConnPoolCap)
	v.SetDefault("storageHeight", d.StorageHeight)
	v.SetDefault("storageBeforeTime", d.StorageBeforeTime)
	v.SetDefault("flushLimitKB", d.FlushLimitKB)
	v.SetDefault("flushPeriod", d.FlushPeriod)
	v.SetDefault("slowCommandThreshold", d.SlowCommandThreshold)
	v.SetDefault("stopEnabled", d.StopEnabled)
	v.SetDefault("verbosity", d.Verbosity)
	v.SetDefault("metricsEnabled", d.MetricsEnabled)
	v.SetDefault("metricsAddress", d.MetricsAddress)
	v.SetDefault("log.disableColor", d.Log.DisableColor)
	v.SetDefault("log.disableTimestamp", d.Log.DisableTimestamp)
}

// RegisterFlags attaches every Options field as a persistent flag on cmd
// and binds it into the loader's viper instance via BindPFlag.
func (l *Loader) RegisterFlags(cmd *cobra.Command) error {
	fs := cmd.PersistentFlags()

	fs.String("home", "", "data directory")
	fs.String("listen-address", "", "TCP listen address")
	fs.Int("threads", 0, "worker thread count")
	fs.Int("item-buf-size", 0, "initial per-connection read buffer size")
	fs.Int("conn-pool-initial", 0, "connection freelist initial size")
	fs.Int("conn-pool-cap", 0, "connection freelist cap")
	fs.Int("storage-height", 0, "storage engine tree height")
	fs.Duration("storage-before-time", 0, "storage engine retention window")
	fs.Int("flush-limit-kb", 0, "background flush size limit in KB")
	fs.Duration("flush-period", 0, "background flush period")
	fs.Duration("slow-command-threshold", 0, "commands slower than this increment slow_cmd")
	fs.Bool("stop-enabled", false, "allow the stopme command to shut the process down")
	fs.Int("verbosity", 0, "initial log verbosity (0-2)")
	fs.Bool("metrics-enabled", false, "serve Prometheus metrics")
	fs.String("metrics-address", "", "Prometheus metrics listen address")

	binds := map[string]string{
		"home":                   "home",
		"listen-address":         "listenAddress",
		"threads":                "threads",
		"item-buf-size":          "itemBufSize",
		"conn-pool-initial":      "connPoolInitial",
		"conn-pool-cap":          "connPoolCap",
		"storage-height":         "storageHeight",
		"storage-before-time":    "storageBeforeTime",
		"flush-limit-kb":         "flushLimitKB",
		"flush-period":           "flushPeriod",
		"slow-command-threshold": "slowCommandThreshold",
		"stop-enabled":           "stopEnabled",
		"verbosity":              "verbosity",
		"metrics-enabled":        "metricsEnabled",
		"metrics-address":        "metricsAddress",
	}

	for flag, key := range binds {
		if err := l.v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return CodeLoad.Error(err)
		}
	}

	return nil
}

// Load reads the config file (if found; a missing file is not an error
// when none was explicitly requested), decodes it into an Options, and
// validates it.
func (l *Loader) Load() (*Options, error) {
	if err := l.v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, CodeLoad.Error(err)
		}
	}

	var o Options
	if err := l.v.Unmarshal(&o); err != nil {
		return nil, CodeLoad.Error(err)
	}

	if err := o.Validate(); err != nil {
		return nil, err
	}

	return &o, nil
}

// Viper exposes the underlying instance for Watch and for tests.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}
