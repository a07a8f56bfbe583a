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

package cube

import (
	"strconv"

	"github.com/pkg/errors"
)

// Cells is the persisted cell layout: x -> y -> z -> value, keyed by decimal coordinates.
type Cells map[string]map[string]map[string]int64

// Clone returns a deep copy of the cells.
func (cs Cells) Clone() (r Cells) {
	r = make(Cells, len(cs))
	for x, matrix := range cs {
		m := make(map[string]map[string]int64, len(matrix))
		for y, row := range matrix {
			nr := make(map[string]int64, len(row))
			for z, v := range row {
				nr[z] = v
			}
			m[y] = nr
		}
		r[x] = m
	}
	return
}

// Raw is the persisted state of a cube.
type Raw struct {
	ID        string `json:"_id"`
	Dimension int    `json:"dimension"`
	Cells     Cells  `json:"cube"`
	// Version is maintained by the store, 1 on creation and increased by every update.
	Version int64 `json:"version"`
}

// Clone returns a deep copy of the raw state.
func (r *Raw) Clone() *Raw {
	if r == nil {
		return nil
	}
	return &Raw{
		ID:        r.ID,
		Dimension: r.Dimension,
		Cells:     r.Cells.Clone(),
		Version:   r.Version,
	}
}

// NewWithCells rebuilds a cube from persisted cells. Only the dimension and the key
// syntax are validated, cell coordinates are trusted as stored.
func NewWithCells(dimension int, cells Cells) (c *Cube, err error) {
	if c, err = New(dimension); err != nil {
		return
	}

	for xk, matrix := range cells {
		var x, y, z int
		if x, err = parseKey("x", xk); err != nil {
			return nil, err
		}
		for yk, row := range matrix {
			if y, err = parseKey("y", yk); err != nil {
				return nil, err
			}
			for zk, v := range row {
				if z, err = parseKey("z", zk); err != nil {
					return nil, err
				}
				c.cells[Point{X: x, Y: y, Z: z}] = v
			}
		}
	}

	return
}

// FromRaw rebuilds a cube from its persisted state.
func FromRaw(raw *Raw) (*Cube, error) {
	if raw == nil {
		return nil, errors.Wrap(ErrMalformedCells, "nil raw cube")
	}
	return NewWithCells(raw.Dimension, raw.Cells)
}

// parseKey accepts canonical decimal keys only, "01" or "+1" would alias the cell "1".
func parseKey(axis string, key string) (int, error) {
	v, err := strconv.Atoi(key)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedCells, "%s key %q is not an integer", axis, key)
	}
	if strconv.Itoa(v) != key {
		return 0, errors.Wrapf(ErrMalformedCells, "%s key %q is not canonical", axis, key)
	}
	return v, nil
}

// Cells exports the stored cells in persisted layout.
func (c *Cube) Cells() (cs Cells) {
	cs = make(Cells)
	for p, v := range c.cells {
		xk, yk, zk := strconv.Itoa(p.X), strconv.Itoa(p.Y), strconv.Itoa(p.Z)
		matrix, ok := cs[xk]
		if !ok {
			matrix = make(map[string]map[string]int64)
			cs[xk] = matrix
		}
		row, ok := matrix[yk]
		if !ok {
			row = make(map[string]int64)
			matrix[yk] = row
		}
		row[zk] = v
	}
	return
}

// Raw exports the cube state, ID and Version are left for the store to fill.
func (c *Cube) Raw() *Raw {
	return &Raw{
		Dimension: c.dimension,
		Cells:     c.Cells(),
	}
}
