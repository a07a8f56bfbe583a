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

package metric

import (
	"context"
	"expvar"
	"net/http"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	mw "github.com/zserge/metric"

	"github.com/CovenantSQL/cubesum/utils"
	"github.com/CovenantSQL/cubesum/utils/log"
)

var runtimeGauges = []string{
	"go:numgoroutine",
	"go:numcgocall",
	"go:alloc",
	"go:alloctotal",
}

// publish returns the expvar gauge with name, expvar names are process wide and published once.
func publish(name string, frames ...string) mw.Metric {
	if v := expvar.Get(name); v != nil {
		if m, ok := v.(mw.Metric); ok {
			return m
		}
	}
	m := mw.NewGauge(frames...)
	expvar.Publish(name, m)
	return m
}

// RuntimeGauges feeds go runtime stats and crucial service metrics to the /debug/metrics dashboard.
type RuntimeGauges struct {
	gatherer prometheus.Gatherer
}

// NewRuntimeGauges returns runtime gauges mirroring crucial metrics of gatherer, which may be nil.
func NewRuntimeGauges(gatherer prometheus.Gatherer) *RuntimeGauges {
	for _, name := range runtimeGauges {
		publish(name, "1m1s", "5m5s", "1h1m")
	}
	return &RuntimeGauges{gatherer: gatherer}
}

func (g *RuntimeGauges) sample() {
	m := &runtime.MemStats{}
	runtime.ReadMemStats(m)
	publish("go:numgoroutine").Add(float64(runtime.NumGoroutine()))
	publish("go:numcgocall").Add(float64(runtime.NumCgoCall()))
	publish("go:alloc").Add(float64(m.Alloc) / float64(utils.MB))
	publish("go:alloctotal").Add(float64(m.TotalAlloc) / float64(utils.MB))
}

func (g *RuntimeGauges) collect() (err error) {
	if g.gatherer == nil {
		return
	}
	mfs, err := g.gatherer.Gather()
	if err != nil {
		err = errors.Wrap(err, "gathering service metrics failed")
		return
	}
	mm := make(SimpleMetricMap, len(mfs))
	for _, mf := range mfs {
		mm[mf.GetName()] = mf
	}
	for k, v := range mm.FilterCrucialMetrics() {
		publish(k, "1h1m").Add(v)
	}
	return
}

// Run samples runtime stats every sampleInterval and crucial metrics every collectInterval
// until ctx is done.
func (g *RuntimeGauges) Run(ctx context.Context, sampleInterval time.Duration, collectInterval time.Duration) {
	g.sample()
	if err := g.collect(); err != nil {
		log.WithError(err).Warning("collect metrics failed")
	}

	sampleTicker := time.NewTicker(sampleInterval)
	defer sampleTicker.Stop()
	collectTicker := time.NewTicker(collectInterval)
	defer collectTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sampleTicker.C:
			g.sample()
		case <-collectTicker.C:
			if err := g.collect(); err != nil {
				log.WithError(err).Warning("collect metrics failed")
			}
		}
	}
}

// Handler serves the expvar metric dashboard.
func (g *RuntimeGauges) Handler() http.Handler {
	return mw.Handler(mw.Exposed)
}
