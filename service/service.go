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

// Package service orchestrates cube operations over a cube store.
package service

import (
	"time"

	"github.com/pkg/errors"

	"github.com/CovenantSQL/cubesum/cube"
	"github.com/CovenantSQL/cubesum/metric"
	"github.com/CovenantSQL/cubesum/storage"
	"github.com/CovenantSQL/cubesum/utils/log"
	"github.com/CovenantSQL/cubesum/utils/timer"
)

// DefaultMaxRetries is the default number of update retries on version conflict.
const DefaultMaxRetries = 3

// Detail is a stored cube with an optional query result.
type Detail struct {
	*cube.Raw
	Params *cube.Range `json:"params,omitempty"`
	Result *int64      `json:"result,omitempty"`
}

// Option configures a Service.
type Option func(*Service)

// WithMaxRetries sets how many times a conflicting update is retried.
func WithMaxRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithMetrics records every operation into m.
func WithMetrics(m *metric.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service runs cube operations against a store, it is safe for concurrent use.
type Service struct {
	store      storage.Storage
	maxRetries int
	metrics    *metric.Metrics
}

// New returns a service over st, st is owned by the caller.
func New(st storage.Storage, opts ...Option) *Service {
	s := &Service{
		store:      st,
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Outcome classifies an operation result for metrics.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	cause := errors.Cause(err)
	switch {
	case cube.IsValidationError(err), cause == storage.ErrInvalidID:
		return "invalid"
	case cause == storage.ErrNotFound:
		return "not_found"
	case cause == storage.ErrConflict:
		return "conflict"
	default:
		return "error"
	}
}

func (s *Service) observe(op string, start time.Time, err error, fields log.Fields) {
	outcome := Outcome(err)
	if s.metrics != nil {
		s.metrics.Observe(op, outcome, start)
	}
	fields["op"] = op
	fields["outcome"] = outcome
	fields["elapsed"] = time.Since(start)
	entry := log.WithFields(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Debug("cube operation")
}

// Create validates the dimension and stores a new empty cube.
func (s *Service) Create(dimension int) (id string, err error) {
	start := time.Now()
	defer func() {
		s.observe("create", start, err, log.Fields{"dimension": dimension, "id": id})
	}()

	if _, err = cube.New(dimension); err != nil {
		return
	}
	id, err = s.store.Create(dimension)
	return
}

// UpdateCell sets one cell of the cube, concurrent writers are detected by the store
// and the read-modify-write is retried.
func (s *Service) UpdateCell(id string, x, y, z int, value int64) (err error) {
	start := time.Now()
	attempts := 0
	defer func() {
		s.observe("update", start, err, log.Fields{
			"id": id, "x": x, "y": y, "z": z, "value": value, "attempts": attempts,
		})
	}()

	for {
		attempts++
		if err = s.updateOnce(id, x, y, z, value); errors.Cause(err) != storage.ErrConflict {
			return
		}
		if attempts > s.maxRetries {
			return
		}
		log.WithField("id", id).WithField("attempt", attempts).Debug("update conflict, retrying")
	}
}

func (s *Service) updateOnce(id string, x, y, z int, value int64) (err error) {
	var (
		raw     *cube.Raw
		c       *cube.Cube
		updated bool
		t       = timer.NewTimer()
	)
	defer func() {
		log.WithFields(t.ToLogFields()).WithField("id", id).Debug("update cube timing")
	}()

	if raw, err = s.store.Get(id); err != nil {
		return
	}
	t.Add("load")
	if c, err = cube.FromRaw(raw); err != nil {
		return
	}
	if err = c.Update(x, y, z, value); err != nil {
		return
	}
	t.Add("apply")

	next := c.Raw()
	next.ID = raw.ID
	next.Version = raw.Version
	updated, err = s.store.Update(id, next)
	t.Add("store")
	if err != nil {
		return
	}
	if !updated {
		err = errors.Wrapf(storage.ErrNotFound, "%s", id)
	}
	return
}

// Get loads a cube, when any bound is supplied the resolved range and its sum are attached.
func (s *Service) Get(id string, b cube.Bounds) (d *Detail, err error) {
	start := time.Now()
	defer func() {
		fields := log.Fields{"id": id}
		if d != nil && d.Params != nil {
			fields["range"] = *d.Params
		}
		s.observe("get", start, err, fields)
	}()

	var raw *cube.Raw
	if raw, err = s.store.Get(id); err != nil {
		return
	}
	if b.Empty() {
		d = &Detail{Raw: raw}
		return
	}

	var (
		c   *cube.Cube
		sum int64
	)
	if c, err = cube.FromRaw(raw); err != nil {
		return
	}
	r := b.Resolve(raw.Dimension)
	if sum, err = c.Sum(r); err != nil {
		return
	}
	d = &Detail{Raw: raw, Params: &r, Result: &sum}
	return
}

// List returns every stored cube.
func (s *Service) List() (raws []*cube.Raw, err error) {
	start := time.Now()
	defer func() {
		s.observe("list", start, err, log.Fields{"count": len(raws)})
	}()

	raws, err = s.store.List()
	return
}

// Count returns the number of stored cubes.
func (s *Service) Count() (int64, error) {
	return s.store.Count()
}

// Delete removes one cube.
func (s *Service) Delete(id string) (removed bool, err error) {
	start := time.Now()
	defer func() {
		s.observe("delete", start, err, log.Fields{"id": id, "removed": removed})
	}()

	removed, err = s.store.Delete(id)
	return
}

// DeleteAll removes every cube.
func (s *Service) DeleteAll() (count int64, err error) {
	start := time.Now()
	defer func() {
		s.observe("delete_all", start, err, log.Fields{"count": count})
	}()

	count, err = s.store.DeleteAll()
	return
}
