/*
 * Copyright 2019 The CovenantSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/CovenantSQL/cubesum/api"
	"github.com/CovenantSQL/cubesum/config"
	"github.com/CovenantSQL/cubesum/metric"
	"github.com/CovenantSQL/cubesum/service"
	"github.com/CovenantSQL/cubesum/storage"
	"github.com/CovenantSQL/cubesum/utils/log"
)

const runtimeSampleInterval = 5 * time.Second

// CubeServer serves the cube api over the configured store.
type CubeServer struct {
	cfg       *config.Config
	server    *http.Server
	listener  net.Listener
	store     storage.Storage
	collector *metric.CubeCollector
	accessLog io.WriteCloser

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCubeServer opens the store and builds the http handler.
func NewCubeServer(cfg *config.Config) (s *CubeServer, err error) {
	s = &CubeServer{cfg: cfg}
	if s.store, err = config.NewStorage(&cfg.Storage); err != nil {
		return nil, err
	}

	m := metric.NewMetrics()
	svc := service.New(s.store,
		service.WithMaxRetries(cfg.MaxUpdateRetries),
		service.WithMetrics(m),
	)

	s.collector = metric.NewCubeCollector(svc.Count, cfg.MetricsInterval)
	if err = m.Register(s.collector); err != nil {
		_ = s.store.Close()
		return nil, err
	}
	gauges := metric.NewRuntimeGauges(m.Gatherer())

	router := api.NewRouter(svc)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	router.Handle("/debug/metrics", gauges.Handler()).Methods(http.MethodGet)

	s.accessLog = log.Writer(log.InfoLevel)
	s.server = &http.Server{
		Addr:      cfg.ListenAddr,
		Handler:   api.Wrap(router, s.accessLog),
		TLSConfig: cfg.TLSConfig,
	}

	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	s.collector.Start()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		gauges.Run(ctx, runtimeSampleInterval, cfg.MetricsInterval)
	}()

	return
}

// Serve binds the listen address and serves in background.
func (s *CubeServer) Serve() (err error) {
	var listener net.Listener
	if listener, err = net.Listen("tcp", s.cfg.ListenAddr); err != nil {
		return
	}

	if s.cfg.TLSConfig != nil {
		listener = tls.NewListener(listener, s.cfg.TLSConfig)
	}
	s.listener = listener

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("serve cube api failed")
		}
	}()

	log.WithField("addr", listener.Addr().String()).Info("cube api started")
	return
}

// Addr returns the bound address, nil before Serve.
func (s *CubeServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops serving and releases the store.
func (s *CubeServer) Shutdown(ctx context.Context) {
	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown cube api failed")
	}
	s.cancel()
	s.collector.Stop()
	s.wg.Wait()
	_ = s.accessLog.Close()
	if err := s.store.Close(); err != nil {
		log.WithError(err).Error("close cube storage failed")
	}
}
