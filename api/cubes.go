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

package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/CovenantSQL/cubesum/cube"
	"github.com/CovenantSQL/cubesum/service"
	"github.com/CovenantSQL/cubesum/storage"
	"github.com/CovenantSQL/cubesum/utils/log"
)

// query parameters of a range sum, in the order they are validated
var boundParams = []string{"x1", "y1", "z1", "x2", "y2", "z2"}

// cubeAPI defines the cube resource features.
type cubeAPI struct {
	svc *service.Service
}

// CreateCube defines create cube API.
func (a *cubeAPI) CreateCube(rw http.ResponseWriter, r *http.Request) {
	var (
		id  string
		err error
	)
	defer func() {
		log.WithField("id", id).WithError(err).Debug("create cube")
	}()

	var m map[string]interface{}
	if m, err = decodeBody(r); err != nil {
		sendError(err, rw)
		return
	}
	v, ok := m["dimension"]
	if !ok {
		err = errors.Wrap(cube.ErrInvalidDimension, "dimension is required")
		sendError(err, rw)
		return
	}
	var dimension int
	if dimension, err = cube.Coordinate("dimension", v); err != nil {
		err = errors.Wrapf(cube.ErrInvalidDimension, "%v", err)
		sendError(err, rw)
		return
	}

	if id, err = a.svc.Create(dimension); err != nil {
		sendError(err, rw)
		return
	}

	sendResponse(http.StatusCreated, true, nil, map[string]interface{}{
		"_id": id,
	}, rw)
}

// UpdateCube defines set cell API.
func (a *cubeAPI) UpdateCube(rw http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var err error
	defer func() {
		log.WithField("id", id).WithError(err).Debug("update cube")
	}()

	var m map[string]interface{}
	if m, err = decodeBody(r); err != nil {
		sendError(err, rw)
		return
	}
	if err = requireExactly(m, "x", "y", "z", "value"); err != nil {
		sendError(err, rw)
		return
	}

	var (
		coords [3]int
		value  int64
	)
	for i, k := range []string{"x", "y", "z"} {
		if coords[i], err = cube.Coordinate(k, m[k]); err != nil {
			sendError(err, rw)
			return
		}
	}
	if value, err = cube.Int("value", m["value"]); err != nil {
		sendError(err, rw)
		return
	}

	if err = a.svc.UpdateCell(id, coords[0], coords[1], coords[2], value); err != nil {
		sendError(err, rw)
		return
	}

	sendResponse(http.StatusOK, true, nil, map[string]interface{}{}, rw)
}

// ListCubes defines list cubes API.
func (a *cubeAPI) ListCubes(rw http.ResponseWriter, r *http.Request) {
	raws, err := a.svc.List()
	if err != nil {
		sendError(err, rw)
		return
	}
	sendResponse(http.StatusOK, true, nil, raws, rw)
}

func parseBounds(r *http.Request) (b cube.Bounds, err error) {
	q := r.URL.Query()
	targets := map[string]**int{
		"x1": &b.X1, "x2": &b.X2,
		"y1": &b.Y1, "y2": &b.Y2,
		"z1": &b.Z1, "z2": &b.Z2,
	}
	for _, k := range boundParams {
		// empty values count as missing
		if q.Get(k) == "" {
			continue
		}
		var v int
		if v, err = cube.Coordinate(k, json.Number(q.Get(k))); err != nil {
			return
		}
		*targets[k] = cube.Bound(v)
	}
	return
}

// GetCube defines get cube API, with any bound supplied the range sum is attached.
func (a *cubeAPI) GetCube(rw http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var err error
	defer func() {
		log.WithField("id", id).WithError(err).Debug("get cube")
	}()

	var b cube.Bounds
	if b, err = parseBounds(r); err != nil {
		sendError(err, rw)
		return
	}

	var d *service.Detail
	if d, err = a.svc.Get(id, b); err != nil {
		sendError(err, rw)
		return
	}
	sendResponse(http.StatusOK, true, nil, d, rw)
}

// DeleteCube defines delete cube API.
func (a *cubeAPI) DeleteCube(rw http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var (
		removed bool
		err     error
	)
	defer func() {
		log.WithField("id", id).WithError(err).Debug("delete cube")
	}()

	if removed, err = a.svc.Delete(id); err != nil {
		sendError(err, rw)
		return
	}
	if !removed {
		sendError(errors.Wrapf(storage.ErrNotFound, "%s", id), rw)
		return
	}
	sendResponse(http.StatusOK, true, nil, map[string]interface{}{
		"removed": true,
	}, rw)
}

// DeleteCubes defines delete all cubes API.
func (a *cubeAPI) DeleteCubes(rw http.ResponseWriter, r *http.Request) {
	count, err := a.svc.DeleteAll()
	if err != nil {
		sendError(err, rw)
		return
	}
	sendResponse(http.StatusOK, true, nil, map[string]interface{}{
		"removed": count,
	}, rw)
}
