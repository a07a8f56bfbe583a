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
	dto "github.com/prometheus/client_model/go"

	"github.com/CovenantSQL/cubesum/utils/log"
)

// SimpleMetricMap is map from metric name to MetricFamily.
type SimpleMetricMap map[string]*dto.MetricFamily

var crucialMetricNameMap = map[string]string{
	"cubesum_stored_cubes":     "cubes:stored",
	"cubesum_operations_total": "cubes:operations",
	"go_goroutines":            "go:goroutines",
}

// FilterCrucialMetrics filters crucial metrics, values of every series of a family are summed.
func (mfm SimpleMetricMap) FilterCrucialMetrics() (ret map[string]float64) {
	ret = make(map[string]float64)
	for _, v := range mfm {
		newName, ok := crucialMetricNameMap[v.GetName()]
		if !ok || len(v.GetMetric()) == 0 {
			continue
		}
		var metricVal float64
		for _, m := range v.GetMetric() {
			switch v.GetType() {
			case dto.MetricType_GAUGE:
				metricVal += m.GetGauge().GetValue()
			case dto.MetricType_COUNTER:
				metricVal += m.GetCounter().GetValue()
			case dto.MetricType_UNTYPED:
				metricVal += m.GetUntyped().GetValue()
			case dto.MetricType_HISTOGRAM:
				metricVal += float64(m.GetHistogram().GetSampleCount())
			case dto.MetricType_SUMMARY:
				metricVal += float64(m.GetSummary().GetSampleCount())
			}
		}
		ret[newName] = metricVal
	}
	log.Debugf("crucial Metric added: %v", ret)

	return
}
