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

// Range is an inclusive query box with every bound resolved.
type Range struct {
	X1 int `json:"x1"`
	X2 int `json:"x2"`
	Y1 int `json:"y1"`
	Y2 int `json:"y2"`
	Z1 int `json:"z1"`
	Z2 int `json:"z2"`
}

// Volume returns the number of cells inside the box, 0 for an inverted box.
func (r Range) Volume() int64 {
	dx, dy, dz := r.X2-r.X1+1, r.Y2-r.Y1+1, r.Z2-r.Z1+1
	if dx <= 0 || dy <= 0 || dz <= 0 {
		return 0
	}
	return int64(dx) * int64(dy) * int64(dz)
}

// Contains returns whether the point lies inside the box.
func (r Range) Contains(p Point) bool {
	return p.X >= r.X1 && p.X <= r.X2 &&
		p.Y >= r.Y1 && p.Y <= r.Y2 &&
		p.Z >= r.Z1 && p.Z <= r.Z2
}

// Bounds holds a partially specified query box, nil means not supplied.
type Bounds struct {
	X1, X2 *int
	Y1, Y2 *int
	Z1, Z2 *int
}

// Bound returns a pointer to v, for building Bounds literals.
func Bound(v int) *int {
	return &v
}

// Empty returns true if no bound was supplied.
func (b Bounds) Empty() bool {
	return b.X1 == nil && b.X2 == nil &&
		b.Y1 == nil && b.Y2 == nil &&
		b.Z1 == nil && b.Z2 == nil
}

// Resolve fills missing lower bounds with 1 and missing upper bounds with dimension,
// dimension must be the one of the cube being queried.
func (b Bounds) Resolve(dimension int) Range {
	lower := func(v *int) int {
		if v == nil {
			return 1
		}
		return *v
	}
	upper := func(v *int) int {
		if v == nil {
			return dimension
		}
		return *v
	}

	return Range{
		X1: lower(b.X1), X2: upper(b.X2),
		Y1: lower(b.Y1), Y2: upper(b.Y2),
		Z1: lower(b.Z1), Z2: upper(b.Z2),
	}
}
