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

// Package config collects every beansdbd tunable into a single Options
// struct, loaded through viper (file, environment, then flags, in that
// precedence order) and checked with go-playground/validator. Only a
// narrow subset of fields may change after startup; see Watch.
package config

import (
	"fmt"
	"time"

	validator "github.com/go-playground/validator/v10"
)

// Options is the complete, validated configuration for one beansdbd
// process. Field tags cover every serialization the CLI supports:
// mapstructure for viper's decode, json/yaml for `config dump`.
type Options struct {
	Home string `json:"home" yaml:"home" mapstructure:"home" validate:"omitempty,dirpath"`

	ListenAddress string `json:"listenAddress" yaml:"listenAddress" mapstructure:"listenAddress" validate:"required,hostname_port|tcp_addr"`

	Threads int `json:"threads" yaml:"threads" mapstructure:"threads" validate:"gte=1,lte=1024"`

	ItemBufSize int `json:"itemBufSize" yaml:"itemBufSize" mapstructure:"itemBufSize" validate:"gte=1024"`

	ConnPoolInitial int `json:"connPoolInitial" yaml:"connPoolInitial" mapstructure:"connPoolInitial" validate:"gte=1"`
	ConnPoolCap     int `json:"connPoolCap" yaml:"connPoolCap" mapstructure:"connPoolCap" validate:"gtefield=ConnPoolInitial"`

	StorageHeight     int           `json:"storageHeight" yaml:"storageHeight" mapstructure:"storageHeight" validate:"gte=0,lte=255"`
	StorageBeforeTime time.Duration `json:"storageBeforeTime" yaml:"storageBeforeTime" mapstructure:"storageBeforeTime"`

	FlushLimitKB int           `json:"flushLimitKB" yaml:"flushLimitKB" mapstructure:"flushLimitKB" validate:"gte=0"`
	FlushPeriod  time.Duration `json:"flushPeriod" yaml:"flushPeriod" mapstructure:"flushPeriod" validate:"gte=0"`

	SlowCommandThreshold time.Duration `json:"slowCommandThreshold" yaml:"slowCommandThreshold" mapstructure:"slowCommandThreshold" validate:"gte=0"`

	StopEnabled bool `json:"stopEnabled" yaml:"stopEnabled" mapstructure:"stopEnabled"`
	Verbosity   int  `json:"verbosity" yaml:"verbosity" mapstructure:"verbosity" validate:"gte=0,lte=2"`

	MetricsEnabled bool   `json:"metricsEnabled" yaml:"metricsEnabled" mapstructure:"metricsEnabled"`
	MetricsAddress string `json:"metricsAddress" yaml:"metricsAddress" mapstructure:"metricsAddress" validate:"required_if=MetricsEnabled true"`

	Log LogOptions `json:"log" yaml:"log" mapstructure:"log"`
}

// LogOptions holds the stdout-logging knobs internal/blog implements (no
// file/syslog backends here).
type LogOptions struct {
	DisableColor     bool `json:"disableColor" yaml:"disableColor" mapstructure:"disableColor"`
	DisableTimestamp bool `json:"disableTimestamp" yaml:"disableTimestamp" mapstructure:"disableTimestamp"`
}

// Default returns the baseline configuration a fresh install starts from.
func Default() *Options {
	return &Options{
		ListenAddress:        "0.0.0.0:11211",
		Threads:              4,
		ItemBufSize:          4096,
		ConnPoolInitial:      64,
		ConnPoolCap:          4096,
		StorageHeight:        0,
		FlushLimitKB:         0,
		FlushPeriod:          0,
		SlowCommandThreshold: 100 * time.Millisecond,
		StopEnabled:          false,
		Verbosity:            0,
		MetricsEnabled:       false,
		MetricsAddress:       "127.0.0.1:9402",
	}
}

// Validate runs struct-tag validation, returning a beansdb CodeError on
// failure so callers can render it straight onto a CLI error exit.
func (o *Options) Validate() error {
	if err := validator.New().Struct(o); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return CodeValidation.Error(fmt.Errorf("%s", verrs.Error()))
		}
		return CodeValidation.Error(err)
	}
	return nil
}

// Clone returns a deep-enough copy for safe hand-off to a hot-reload
// watcher comparing old vs new values.
func (o *Options) Clone() *Options {
	n := *o
	return &n
}
