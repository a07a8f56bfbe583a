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
	"database/sql"
	"encoding/json"
	"fmt"

	// Register sqlite3 engine.
	_ "github.com/CovenantSQL/go-sqlite3-encrypt"
	"github.com/pkg/errors"
	gorp "gopkg.in/gorp.v2"

	"github.com/CovenantSQL/cubesum/cube"
)

const cubeTable = "cubes"

// cubeRecord is the row layout of a cube, cells are stored as json.
type cubeRecord struct {
	ID        string `db:"id"`
	Dimension int    `db:"dimension"`
	Cells     []byte `db:"cells"`
	Version   int64  `db:"version"`
}

func newCubeRecord(raw *cube.Raw) (r *cubeRecord, err error) {
	r = &cubeRecord{
		ID:        raw.ID,
		Dimension: raw.Dimension,
		Version:   raw.Version,
	}
	cells := raw.Cells
	if cells == nil {
		cells = cube.Cells{}
	}
	if r.Cells, err = json.Marshal(cells); err != nil {
		err = failure("encode", err)
	}
	return
}

func (r *cubeRecord) raw() (raw *cube.Raw, err error) {
	raw = &cube.Raw{
		ID:        r.ID,
		Dimension: r.Dimension,
		Version:   r.Version,
	}
	if err = json.Unmarshal(r.Cells, &raw.Cells); err != nil {
		err = failure("decode", err)
	}
	return
}

// SQLiteStorage keeps cubes in a sqlite3 table through gorp.
type SQLiteStorage struct {
	dbMap *gorp.DbMap
}

// NewSQLiteStorage opens the database at dsn and ensures the cube table.
func NewSQLiteStorage(dsn string) (s *SQLiteStorage, err error) {
	var db *sql.DB
	if db, err = sql.Open("sqlite3", dsn); err != nil {
		err = failure("open sqlite3", err)
		return
	}
	// go-sqlite3 only guarantees concurrent readers
	db.SetMaxOpenConns(1)

	dbMap := &gorp.DbMap{Db: db, Dialect: gorp.SqliteDialect{}}
	dbMap.AddTableWithName(cubeRecord{}, cubeTable).
		SetKeys(false, "ID").
		SetVersionCol("Version")

	if err = dbMap.CreateTablesIfNotExists(); err != nil {
		_ = db.Close()
		err = failure("create table", err)
		return
	}

	s = &SQLiteStorage{dbMap: dbMap}
	return
}

// Create implements Storage.Create.
func (s *SQLiteStorage) Create(dimension int) (id string, err error) {
	if id, err = newID(); err != nil {
		return
	}
	var (
		raw *cube.Raw
		r   *cubeRecord
	)
	if raw, err = emptyRaw(id, dimension); err != nil {
		return "", err
	}
	if r, err = newCubeRecord(raw); err != nil {
		return "", err
	}
	// gorp bumps the version column on insert
	r.Version = 0
	if err = s.dbMap.Insert(r); err != nil {
		return "", failure("insert", err)
	}
	return
}

func (s *SQLiteStorage) load(id string) (r *cubeRecord, err error) {
	var obj interface{}
	if obj, err = s.dbMap.Get(cubeRecord{}, id); err != nil {
		err = failure("get", err)
		return
	}
	if obj == nil {
		err = errors.Wrapf(ErrNotFound, "%s", id)
		return
	}
	r = obj.(*cubeRecord)
	return
}

// Get implements Storage.Get.
func (s *SQLiteStorage) Get(id string) (raw *cube.Raw, err error) {
	if id, err = parseID(id); err != nil {
		return
	}
	var r *cubeRecord
	if r, err = s.load(id); err != nil {
		return
	}
	return r.raw()
}

// Update implements Storage.Update.
func (s *SQLiteStorage) Update(id string, raw *cube.Raw) (updated bool, err error) {
	if raw == nil {
		err = ErrInvalidCube
		return
	}
	if id, err = parseID(id); err != nil {
		return
	}

	next := raw.Clone()
	next.ID = id
	var r *cubeRecord
	if r, err = newCubeRecord(next); err != nil {
		return
	}

	var count int64
	count, err = s.dbMap.Update(r)
	switch e := err.(type) {
	case nil:
	case gorp.OptimisticLockError:
		return lockResult(id, e.RowExists, e.LocalVersion)
	case *gorp.OptimisticLockError:
		return lockResult(id, e.RowExists, e.LocalVersion)
	default:
		err = failure("update", err)
		return
	}

	if count == 0 {
		// versions below 1 bypass the optimistic lock check
		if _, err = s.load(id); err != nil {
			if errors.Cause(err) == ErrNotFound {
				err = nil
			}
			return
		}
		err = errors.Wrapf(ErrConflict, "%s: version %d", id, raw.Version)
		return
	}

	raw.Version = r.Version
	updated = true
	return
}

func lockResult(id string, exists bool, version int64) (updated bool, err error) {
	if !exists {
		return
	}
	err = errors.Wrapf(ErrConflict, "%s: version %d", id, version)
	return
}

// Delete implements Storage.Delete.
func (s *SQLiteStorage) Delete(id string) (removed bool, err error) {
	if id, err = parseID(id); err != nil {
		return
	}
	var res sql.Result
	if res, err = s.dbMap.Exec(fmt.Sprintf("DELETE FROM `%s` WHERE `id` = ?", cubeTable), id); err != nil {
		err = failure("delete", err)
		return
	}
	var affected int64
	if affected, err = res.RowsAffected(); err != nil {
		err = failure("delete", err)
		return
	}
	removed = affected > 0
	return
}

// DeleteAll implements Storage.DeleteAll.
func (s *SQLiteStorage) DeleteAll() (count int64, err error) {
	var res sql.Result
	if res, err = s.dbMap.Exec(fmt.Sprintf("DELETE FROM `%s`", cubeTable)); err != nil {
		err = failure("delete all", err)
		return
	}
	if count, err = res.RowsAffected(); err != nil {
		err = failure("delete all", err)
	}
	return
}

// List implements Storage.List.
func (s *SQLiteStorage) List() (raws []*cube.Raw, err error) {
	var records []*cubeRecord
	if _, err = s.dbMap.Select(&records,
		fmt.Sprintf("SELECT * FROM `%s` ORDER BY `id`", cubeTable)); err != nil {
		err = failure("list", err)
		return
	}
	raws = make([]*cube.Raw, 0, len(records))
	for _, r := range records {
		var raw *cube.Raw
		if raw, err = r.raw(); err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	return
}

// Count implements Storage.Count.
func (s *SQLiteStorage) Count() (count int64, err error) {
	if count, err = s.dbMap.SelectInt(fmt.Sprintf("SELECT COUNT(*) FROM `%s`", cubeTable)); err != nil {
		err = failure("count", err)
	}
	return
}

// Close implements Storage.Close.
func (s *SQLiteStorage) Close() error {
	return s.dbMap.Db.Close()
}
