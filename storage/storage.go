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

// Package storage defines the cube store abstraction and its drivers.
//
// Every driver keeps a store maintained version on each record, Update is a
// compare-and-swap on that version and fails with ErrConflict when another
// writer got there first.
package storage

import (
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/CovenantSQL/cubesum/cube"
)

// Storage defines the cube store interface.
type Storage interface {
	// Create persists an empty cube and returns its identifier.
	Create(dimension int) (id string, err error)
	// Get loads the cube state, ErrNotFound if absent.
	Get(id string) (raw *cube.Raw, err error)
	// Update replaces the cube state if raw.Version matches the stored one,
	// raw.Version is advanced on success. Returns false if the cube is absent.
	Update(id string, raw *cube.Raw) (updated bool, err error)
	// Delete removes one cube.
	Delete(id string) (removed bool, err error)
	// DeleteAll removes every cube.
	DeleteAll() (count int64, err error)
	// List returns all cubes ordered by identifier.
	List() (raws []*cube.Raw, err error)
	// Count returns the number of stored cubes without loading their cells.
	Count() (count int64, err error)
	// Close releases the backend.
	Close() error
}

func newID() (id string, err error) {
	var u uuid.UUID
	if u, err = uuid.NewV4(); err != nil {
		err = failure("generate id", err)
		return
	}
	id = u.String()
	return
}

func parseID(id string) (canonical string, err error) {
	var u uuid.UUID
	if u, err = uuid.FromString(id); err != nil {
		err = errors.Wrapf(ErrInvalidID, "%q", id)
		return
	}
	canonical = u.String()
	return
}

func emptyRaw(id string, dimension int) (raw *cube.Raw, err error) {
	var c *cube.Cube
	if c, err = cube.New(dimension); err != nil {
		return
	}
	raw = c.Raw()
	raw.ID = id
	raw.Version = 1
	return
}
