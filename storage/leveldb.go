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
	"sync"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/CovenantSQL/cubesum/cube"
	"github.com/CovenantSQL/cubesum/utils"
)

var (
	// storage keys
	cubeKeyPrefix = []byte("CUBE_")
)

// LevelDBStorage keeps msgpack encoded cubes in a leveldb database.
type LevelDBStorage struct {
	// serializes read-compare-write of updates
	mu sync.Mutex
	db *leveldb.DB
}

// NewLevelDBStorage opens or creates the database in dir.
func NewLevelDBStorage(dir string) (s *LevelDBStorage, err error) {
	var db *leveldb.DB
	if db, err = leveldb.OpenFile(dir, nil); err != nil {
		err = failure("open leveldb", err)
		return
	}
	s = &LevelDBStorage{db: db}
	return
}

func cubeKey(id string) (key []byte) {
	key = append(key, cubeKeyPrefix...)
	key = append(key, id...)
	return
}

func (s *LevelDBStorage) load(id string) (raw *cube.Raw, err error) {
	var data []byte
	if data, err = s.db.Get(cubeKey(id), nil); err != nil {
		if err == leveldb.ErrNotFound {
			err = errors.Wrapf(ErrNotFound, "%s", id)
		} else {
			err = failure("get", err)
		}
		return
	}
	if err = utils.DecodeMsgPack(data, &raw); err != nil {
		err = failure("decode", err)
	}
	return
}

func (s *LevelDBStorage) save(raw *cube.Raw) (err error) {
	buf, err := utils.EncodeMsgPack(raw)
	if err != nil {
		return failure("encode", err)
	}
	if err = s.db.Put(cubeKey(raw.ID), buf.Bytes(), nil); err != nil {
		return failure("put", err)
	}
	return
}

// Create implements Storage.Create.
func (s *LevelDBStorage) Create(dimension int) (id string, err error) {
	if id, err = newID(); err != nil {
		return
	}
	var raw *cube.Raw
	if raw, err = emptyRaw(id, dimension); err != nil {
		return "", err
	}
	if err = s.save(raw); err != nil {
		return "", err
	}
	return
}

// Get implements Storage.Get.
func (s *LevelDBStorage) Get(id string) (raw *cube.Raw, err error) {
	if id, err = parseID(id); err != nil {
		return
	}
	return s.load(id)
}

// Update implements Storage.Update.
func (s *LevelDBStorage) Update(id string, raw *cube.Raw) (updated bool, err error) {
	if raw == nil {
		err = ErrInvalidCube
		return
	}
	if id, err = parseID(id); err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var stored *cube.Raw
	if stored, err = s.load(id); err != nil {
		if errors.Cause(err) == ErrNotFound {
			err = nil
		}
		return
	}
	if stored.Version != raw.Version {
		err = errors.Wrapf(ErrConflict, "%s: version %d, stored %d", id, raw.Version, stored.Version)
		return
	}

	next := raw.Clone()
	next.ID = id
	next.Version = stored.Version + 1
	if err = s.save(next); err != nil {
		return
	}
	raw.Version = next.Version
	updated = true
	return
}

// Delete implements Storage.Delete.
func (s *LevelDBStorage) Delete(id string) (removed bool, err error) {
	if id, err = parseID(id); err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := cubeKey(id)
	if removed, err = s.db.Has(key, nil); err != nil || !removed {
		if err != nil {
			err = failure("has", err)
		}
		return
	}
	if err = s.db.Delete(key, nil); err != nil {
		removed = false
		err = failure("delete", err)
	}
	return
}

// DeleteAll implements Storage.DeleteAll.
func (s *LevelDBStorage) DeleteAll() (count int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := new(leveldb.Batch)
	it := s.db.NewIterator(util.BytesPrefix(cubeKeyPrefix), nil)
	for it.Next() {
		batch.Delete(append([]byte(nil), it.Key()...))
		count++
	}
	it.Release()
	if err = it.Error(); err != nil {
		return 0, failure("iterate", err)
	}
	if err = s.db.Write(batch, nil); err != nil {
		return 0, failure("batch delete", err)
	}
	return
}

// List implements Storage.List.
func (s *LevelDBStorage) List() (raws []*cube.Raw, err error) {
	raws = make([]*cube.Raw, 0)
	it := s.db.NewIterator(util.BytesPrefix(cubeKeyPrefix), nil)
	defer it.Release()
	for it.Next() {
		var raw *cube.Raw
		if err = utils.DecodeMsgPack(it.Value(), &raw); err != nil {
			return nil, failure("decode", err)
		}
		raws = append(raws, raw)
	}
	if err = it.Error(); err != nil {
		return nil, failure("iterate", err)
	}
	return
}

// Count implements Storage.Count, only keys are walked.
func (s *LevelDBStorage) Count() (count int64, err error) {
	it := s.db.NewIterator(util.BytesPrefix(cubeKeyPrefix), nil)
	defer it.Release()
	for it.Next() {
		count++
	}
	if err = it.Error(); err != nil {
		return 0, failure("iterate", err)
	}
	return
}

// Close implements Storage.Close.
func (s *LevelDBStorage) Close() error {
	return s.db.Close()
}
