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

package timer

import (
	"sync"
	"time"

	"github.com/CovenantSQL/cubesum/utils/log"
)

// Timer defines a stop watch timer splitting an operation into named laps.
type Timer struct {
	sync.Mutex
	start  time.Time
	names  []string
	pivots []time.Time
}

// NewTimer returns a new stop watch timer instance.
func NewTimer() *Timer {
	return &Timer{
		start: time.Now(),
	}
}

// Add ends the current lap under name.
func (t *Timer) Add(name string) {
	t.Lock()
	defer t.Unlock()

	t.names = append(t.names, name)
	t.pivots = append(t.pivots, time.Now())
}

// Total returns the time elapsed until the last lap, or until now without laps.
func (t *Timer) Total() time.Duration {
	t.Lock()
	defer t.Unlock()

	if len(t.pivots) == 0 {
		return time.Since(t.start)
	}
	return t.pivots[len(t.pivots)-1].Sub(t.start)
}

// ToLogFields returns lap durations and the total as log fields,
// a lap name used twice accumulates.
func (t *Timer) ToLogFields() log.Fields {
	t.Lock()
	defer t.Unlock()

	f := log.Fields{}
	laps := make(map[string]time.Duration, len(t.names))
	last := t.start
	for i, name := range t.names {
		laps[name] += t.pivots[i].Sub(last)
		last = t.pivots[i]
	}
	for k, v := range laps {
		f[k] = v
	}
	f["total"] = last.Sub(t.start)
	return f
}
