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
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yuanfeng0905/beansdb/internal/blog"
	"github.com/yuanfeng0905/beansdb/internal/config"
	"github.com/yuanfeng0905/beansdb/internal/metrics"
	"github.com/yuanfeng0905/beansdb/internal/server"
	"github.com/yuanfeng0905/beansdb/internal/store"
)

func newServeCommand(loader *config.Loader) *cobra.Command {
	var memory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the cache server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(loader, memory)
		},
	}

	cmd.Flags().BoolVar(&memory, "memory", true, "use the in-memory reference storage engine")

	return cmd
}

func runServe(loader *config.Loader, memory bool) error {
	opts, err := loader.Load()
	if err != nil {
		return err
	}

	log := blog.New(nil, blog.FromVerbosity(opts.Verbosity))
	printBanner(log, opts)

	var eng store.Engine
	if memory {
		eng = store.NewMemEngine()
	} else {
		eng = store.NewMemEngine()
		log.Warning("no production storage engine wired; falling back to the in-memory reference engine")
	}

	srv := server.New(server.Config{
		ListenAddress:        opts.ListenAddress,
		InitialPoolSize:      opts.ConnPoolInitial,
		PoolCap:              opts.ConnPoolCap,
		SlowCommandThreshold: opts.SlowCommandThreshold,
		FlushLimitKB:         opts.FlushLimitKB,
		FlushPeriod:          opts.FlushPeriod,
		StopEnabled:          opts.StopEnabled,
		Verbosity:            opts.Verbosity,
	}, eng, log)

	loader.Watch(opts, srv, log)

	var metricsSrv *metrics.Server
	if opts.MetricsEnabled {
		coll := metrics.New("beansdb", srv)
		metricsSrv = metrics.NewServer(opts.MetricsAddress, coll, log.WithField("component", "metrics"))
		metricsSrv.Start(context.Background())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	var serveErr error
	select {
	case sig := <-sigCh:
		log.Info("received signal %s, shutting down", sig.String())
		srv.Shutdown()
	case err := <-errCh:
		if err != nil {
			log.Error("server exited: %s", err.Error())
			serveErr = err
		}
	}

	if metricsSrv != nil {
		_ = metricsSrv.Stop(context.Background())
	}

	return serveErr
}
