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
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/CovenantSQL/cubesum/utils/log"
)

const historyCount = 2

// CountFunc returns the number of stored cubes.
type CountFunc func() (int64, error)

// cubeStatsMetrics provide description, value, and value type for stored cube metrics.
type cubeStatsMetrics []struct {
	desc    *prometheus.Desc
	eval    func(*CubeCollector) float64
	valType prometheus.ValueType
}

// CubeCollector collects stored cube metrics, refreshed in background.
type CubeCollector struct {
	sync.RWMutex
	cubeStatHistory [historyCount]int64
	samples         int

	count    CountFunc
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	// metrics to describe and collect
	metrics cubeStatsMetrics
}

func cubeStatNamespace(s string) string {
	return fmt.Sprintf("%s_%s", namespace, s)
}

// NewCubeCollector returns a new CubeCollector, call Start to begin sampling.
func NewCubeCollector(count CountFunc, interval time.Duration) *CubeCollector {
	return &CubeCollector{
		count:    count,
		interval: interval,
		stopCh:   make(chan struct{}),
		metrics: cubeStatsMetrics{
			{
				desc: prometheus.NewDesc(
					cubeStatNamespace("stored_cubes"),
					"Number of stored cubes.",
					nil,
					nil,
				),
				eval:    StoredCubes,
				valType: prometheus.GaugeValue,
			},
			{
				desc: prometheus.NewDesc(
					cubeStatNamespace("stored_cubes_delta"),
					"Change of stored cubes since the previous sample.",
					nil,
					nil,
				),
				eval:    StoredCubesDelta,
				valType: prometheus.GaugeValue,
			},
		},
	}
}

// Start samples once and then every interval until Stop.
func (cc *CubeCollector) Start() {
	cc.updateCubeStat()
	cc.wg.Add(1)
	go func() {
		defer cc.wg.Done()
		ticker := time.NewTicker(cc.interval)
		defer ticker.Stop()
		for {
			select {
			case <-cc.stopCh:
				return
			case <-ticker.C:
				cc.updateCubeStat()
			}
		}
	}()
}

// Stop terminates background sampling.
func (cc *CubeCollector) Stop() {
	cc.stopOnce.Do(func() {
		close(cc.stopCh)
	})
	cc.wg.Wait()
}

// Describe returns all descriptions of the collector.
func (cc *CubeCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, i := range cc.metrics {
		ch <- i.desc
	}
}

// Collect returns the current state of all metrics of the collector.
func (cc *CubeCollector) Collect(ch chan<- prometheus.Metric) {
	if !cc.Prepared() {
		return
	}

	for _, i := range cc.metrics {
		ch <- prometheus.MustNewConstMetric(i.desc, i.valType, i.eval(cc))
	}
}

// updateCubeStat updates metric in background
func (cc *CubeCollector) updateCubeStat() {
	n, err := cc.count()
	if err != nil {
		log.WithError(err).Warning("count stored cubes failed")
		return
	}

	cc.Lock()
	defer cc.Unlock()
	for i := historyCount - 1; i > 0; i-- {
		cc.cubeStatHistory[i] = cc.cubeStatHistory[i-1]
	}
	cc.cubeStatHistory[0] = n
	cc.samples++
}

// StoredCubes gets the latest stored cube count.
func StoredCubes(cc *CubeCollector) float64 {
	cc.RLock()
	defer cc.RUnlock()
	return float64(cc.cubeStatHistory[0])
}

// StoredCubesDelta gets the change between the two latest samples.
func StoredCubesDelta(cc *CubeCollector) float64 {
	cc.RLock()
	defer cc.RUnlock()
	if cc.samples < historyCount {
		return 0
	}
	return float64(cc.cubeStatHistory[0] - cc.cubeStatHistory[1])
}

// Prepared returns true when at least one sample was taken.
func (cc *CubeCollector) Prepared() bool {
	cc.RLock()
	defer cc.RUnlock()
	return cc.samples > 0
}
