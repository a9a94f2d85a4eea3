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

package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yuanfeng0905/beansdb/internal/blog"
)

const shutdownTimeout = 5 * time.Second

// Server exposes a Collector on a dedicated HTTP listener, mirroring the
// Start/Stop-with-context lifecycle the rest of this codebase's HTTP
// components use: Start launches a goroutine and returns immediately,
// Stop drains in-flight scrapes before the listener closes.
type Server struct {
	addr string
	log  blog.Logger

	m      sync.Mutex
	srv    *http.Server
	cancel context.CancelFunc
	err    error
}

// NewServer builds a debug/metrics HTTP server bound to addr (e.g.
// "127.0.0.1:9402"), registering coll on a fresh registry of its own. The
// default process and Go runtime collectors are not registered.
func NewServer(addr string, coll *Collector, log blog.Logger) *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(coll)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &Server{
		addr: addr,
		log:  log,
		srv:  &http.Server{Addr: addr, Handler: mux},
	}
}

// Start begins serving in a background goroutine. It returns once the
// goroutine has been launched, not once the listener is actually ready.
func (s *Server) Start(ctx context.Context) {
	s.m.Lock()
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.m.Unlock()

	go s.run(ctx)
}

func (s *Server) run(ctx context.Context) {
	s.log.WithField("addr", s.addr).Info("metrics server starting")

	err := s.srv.ListenAndServe()
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	}

	s.m.Lock()
	s.err = err
	s.m.Unlock()

	if err != nil {
		s.log.WithField("addr", s.addr).Warning("metrics server stopped: %s", err.Error())
	}
}

// Stop gracefully shuts the listener down, waiting up to shutdownTimeout
// for any in-flight scrape to finish.
func (s *Server) Stop(ctx context.Context) error {
	s.m.Lock()
	cancel := s.cancel
	s.m.Unlock()

	if cancel != nil {
		cancel()
	}

	ctx, timeout := context.WithTimeout(ctx, shutdownTimeout)
	defer timeout()

	return s.srv.Shutdown(ctx)
}

// Err returns the terminal error from a completed run, if any.
func (s *Server) Err() error {
	s.m.Lock()
	defer s.m.Unlock()
	return s.err
}
