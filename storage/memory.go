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

package storage

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/CovenantSQL/cubesum/cube"
)

// MemoryStorage keeps cubes in process memory.
type MemoryStorage struct {
	mu    sync.RWMutex
	cubes map[string]*cube.Raw
}

// NewMemoryStorage returns an empty memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		cubes: make(map[string]*cube.Raw),
	}
}

// Create implements Storage.Create.
func (s *MemoryStorage) Create(dimension int) (id string, err error) {
	if id, err = newID(); err != nil {
		return
	}
	var raw *cube.Raw
	if raw, err = emptyRaw(id, dimension); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cubes[id] = raw
	return
}

// Get implements Storage.Get.
func (s *MemoryStorage) Get(id string) (raw *cube.Raw, err error) {
	if id, err = parseID(id); err != nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.cubes[id]
	if !ok {
		err = errors.Wrapf(ErrNotFound, "%s", id)
		return
	}
	raw = stored.Clone()
	return
}

// Update implements Storage.Update.
func (s *MemoryStorage) Update(id string, raw *cube.Raw) (updated bool, err error) {
	if raw == nil {
		err = ErrInvalidCube
		return
	}
	if id, err = parseID(id); err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.cubes[id]
	if !ok {
		return
	}
	if stored.Version != raw.Version {
		err = errors.Wrapf(ErrConflict, "%s: version %d, stored %d", id, raw.Version, stored.Version)
		return
	}

	next := raw.Clone()
	next.ID = id
	next.Version = stored.Version + 1
	s.cubes[id] = next
	raw.Version = next.Version
	updated = true
	return
}

// Delete implements Storage.Delete.
func (s *MemoryStorage) Delete(id string) (removed bool, err error) {
	if id, err = parseID(id); err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, removed = s.cubes[id]; removed {
		delete(s.cubes, id)
	}
	return
}

// DeleteAll implements Storage.DeleteAll.
func (s *MemoryStorage) DeleteAll() (count int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count = int64(len(s.cubes))
	s.cubes = make(map[string]*cube.Raw)
	return
}

// List implements Storage.List.
func (s *MemoryStorage) List() (raws []*cube.Raw, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raws = make([]*cube.Raw, 0, len(s.cubes))
	for _, raw := range s.cubes {
		raws = append(raws, raw.Clone())
	}
	sort.Slice(raws, func(i, j int) bool {
		return raws[i].ID < raws[j].ID
	})
	return
}

// Count implements Storage.Count.
func (s *MemoryStorage) Count() (count int64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count = int64(len(s.cubes))
	return
}

// Close implements Storage.Close.
func (s *MemoryStorage) Close() error {
	return nil
}
