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
	"time"

	"github.com/pkg/errors"
	mgo "gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/CovenantSQL/cubesum/cube"
)

// cubeDocument is the collection layout of a cube.
type cubeDocument struct {
	ID        bson.ObjectId `bson:"_id"`
	Dimension int           `bson:"dimension"`
	Cells     cube.Cells    `bson:"cube"`
	Version   int64         `bson:"version"`
}

func (d *cubeDocument) raw() *cube.Raw {
	cells := d.Cells
	if cells == nil {
		cells = cube.Cells{}
	}
	return &cube.Raw{
		ID:        d.ID.Hex(),
		Dimension: d.Dimension,
		Cells:     cells,
		Version:   d.Version,
	}
}

// MongoStorage keeps cubes as documents of a mongodb collection, identified by object ids.
type MongoStorage struct {
	session    *mgo.Session
	database   string
	collection string
}

// NewMongoStorage dials the mongodb server at url.
func NewMongoStorage(url string, database string, collection string, timeout time.Duration) (s *MongoStorage, err error) {
	var session *mgo.Session
	if session, err = mgo.DialWithTimeout(url, timeout); err != nil {
		err = failure("dial mongodb", err)
		return
	}
	session.SetMode(mgo.Monotonic, true)
	s = &MongoStorage{
		session:    session,
		database:   database,
		collection: collection,
	}
	return
}

func (s *MongoStorage) with(f func(c *mgo.Collection) error) error {
	session := s.session.Copy()
	defer session.Close()
	return f(session.DB(s.database).C(s.collection))
}

func objectID(id string) (oid bson.ObjectId, err error) {
	if !bson.IsObjectIdHex(id) {
		err = errors.Wrapf(ErrInvalidID, "%q", id)
		return
	}
	oid = bson.ObjectIdHex(id)
	return
}

// Create implements Storage.Create.
func (s *MongoStorage) Create(dimension int) (id string, err error) {
	oid := bson.NewObjectId()
	var raw *cube.Raw
	if raw, err = emptyRaw(oid.Hex(), dimension); err != nil {
		return
	}
	doc := &cubeDocument{
		ID:        oid,
		Dimension: raw.Dimension,
		Cells:     raw.Cells,
		Version:   raw.Version,
	}
	if err = s.with(func(c *mgo.Collection) error {
		return c.Insert(doc)
	}); err != nil {
		err = failure("insert", err)
		return
	}
	id = raw.ID
	return
}

// Get implements Storage.Get.
func (s *MongoStorage) Get(id string) (raw *cube.Raw, err error) {
	var oid bson.ObjectId
	if oid, err = objectID(id); err != nil {
		return
	}
	var doc cubeDocument
	if err = s.with(func(c *mgo.Collection) error {
		return c.FindId(oid).One(&doc)
	}); err != nil {
		if err == mgo.ErrNotFound {
			err = errors.Wrapf(ErrNotFound, "%s", id)
		} else {
			err = failure("get", err)
		}
		return
	}
	raw = doc.raw()
	return
}

// Update implements Storage.Update.
func (s *MongoStorage) Update(id string, raw *cube.Raw) (updated bool, err error) {
	if raw == nil {
		err = ErrInvalidCube
		return
	}
	var oid bson.ObjectId
	if oid, err = objectID(id); err != nil {
		return
	}

	cells := raw.Cells
	if cells == nil {
		cells = cube.Cells{}
	}
	var exists int
	err = s.with(func(c *mgo.Collection) (err error) {
		err = c.Update(
			bson.M{"_id": oid, "version": raw.Version},
			bson.M{
				"$set": bson.M{"dimension": raw.Dimension, "cube": cells},
				"$inc": bson.M{"version": 1},
			},
		)
		if err == mgo.ErrNotFound {
			// either gone or bumped by another writer
			exists, err = c.FindId(oid).Count()
			if err == nil {
				err = mgo.ErrNotFound
			}
		}
		return
	})

	switch {
	case err == nil:
		raw.Version++
		updated = true
	case err == mgo.ErrNotFound && exists == 0:
		err = nil
	case err == mgo.ErrNotFound:
		err = errors.Wrapf(ErrConflict, "%s: version %d", id, raw.Version)
	default:
		err = failure("update", err)
	}
	return
}

// Delete implements Storage.Delete.
func (s *MongoStorage) Delete(id string) (removed bool, err error) {
	var oid bson.ObjectId
	if oid, err = objectID(id); err != nil {
		return
	}
	err = s.with(func(c *mgo.Collection) error {
		return c.RemoveId(oid)
	})
	switch err {
	case nil:
		removed = true
	case mgo.ErrNotFound:
		err = nil
	default:
		err = failure("delete", err)
	}
	return
}

// DeleteAll implements Storage.DeleteAll.
func (s *MongoStorage) DeleteAll() (count int64, err error) {
	var info *mgo.ChangeInfo
	if err = s.with(func(c *mgo.Collection) (err error) {
		info, err = c.RemoveAll(nil)
		return
	}); err != nil {
		err = failure("delete all", err)
		return
	}
	count = int64(info.Removed)
	return
}

// List implements Storage.List.
func (s *MongoStorage) List() (raws []*cube.Raw, err error) {
	var docs []cubeDocument
	if err = s.with(func(c *mgo.Collection) error {
		return c.Find(nil).Sort("_id").All(&docs)
	}); err != nil {
		err = failure("list", err)
		return
	}
	raws = make([]*cube.Raw, 0, len(docs))
	for i := range docs {
		raws = append(raws, docs[i].raw())
	}
	return
}

// Count implements Storage.Count.
func (s *MongoStorage) Count() (count int64, err error) {
	var n int
	if err = s.with(func(c *mgo.Collection) (err error) {
		n, err = c.Count()
		return
	}); err != nil {
		err = failure("count", err)
		return
	}
	count = int64(n)
	return
}

// Close implements Storage.Close.
func (s *MongoStorage) Close() error {
	s.session.Close()
	return nil
}
