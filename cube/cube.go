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
	"fmt"

	"github.com/pkg/errors"
)

const (
	// MinDimension is the smallest accepted cube dimension.
	MinDimension = 1
	// MaxDimension is the largest accepted cube dimension.
	MaxDimension = 100
	// MaxValue bounds the magnitude of a single cell value, a full MaxDimension^3 box
	// of MaxValue cells still fits the int64 accumulator.
	MaxValue int64 = 1000000000000
)

var (
	coordinateNames = []string{"x", "y", "z"}
	lowerNames      = []string{"x1", "y1", "z1"}
	upperNames      = []string{"x2", "y2", "z2"}
	boundNames      = append(append([]string(nil), lowerNames...), upperNames...)
)

// Point addresses a single cell, each coordinate is in [1, dimension].
type Point struct {
	X, Y, Z int
}

// Cube is a sparse dimension^3 grid of integers with default value 0.
//
// A Cube performs no locking, callers owning an instance must serialize access to it.
type Cube struct {
	dimension int
	cells     map[Point]int64
}

// New returns an empty cube of the given dimension.
func New(dimension int) (c *Cube, err error) {
	if err = validateDimension(dimension); err != nil {
		return
	}

	c = &Cube{
		dimension: dimension,
		cells:     make(map[Point]int64),
	}
	return
}

func validateDimension(dimension int) error {
	if dimension < MinDimension || dimension > MaxDimension {
		return errors.Wrapf(ErrInvalidDimension,
			"dimension must be between %d and %d, got %d", MinDimension, MaxDimension, dimension)
	}
	return nil
}

// Dimension returns the edge length of the cube.
func (c *Cube) Dimension() int {
	return c.dimension
}

// Len returns the number of explicitly stored cells, zero valued ones included.
func (c *Cube) Len() int {
	return len(c.cells)
}

// Get returns the value at (x, y, z), 0 if the cell was never written.
func (c *Cube) Get(x, y, z int) int64 {
	return c.cells[Point{X: x, Y: y, Z: z}]
}

// Update replaces the value at (x, y, z).
func (c *Cube) Update(x, y, z int, value int64) (err error) {
	if err = c.checkInRange([]int{x, y, z}, coordinateNames); err != nil {
		return
	}
	if value > MaxValue || value < -MaxValue {
		return errors.Wrapf(ErrOutOfRange,
			"value must be between %d and %d, got %d", -MaxValue, MaxValue, value)
	}

	c.cells[Point{X: x, Y: y, Z: z}] = value
	return
}

// Query sums every cell inside the inclusive box [x1,x2] x [y1,y2] x [z1,z2].
func (c *Cube) Query(x1, x2, y1, y2, z1, z2 int) (sum int64, err error) {
	lower := []int{x1, y1, z1}
	upper := []int{x2, y2, z2}

	if err = c.checkInRange(append(append([]int(nil), lower...), upper...), boundNames); err != nil {
		return
	}

	for i := range lower {
		if lower[i] > upper[i] {
			err = errors.Wrapf(ErrInvalidRange,
				"%s <= %s not satisfied, got %d > %d", lowerNames[i], upperNames[i], lower[i], upper[i])
			return
		}
	}

	r := Range{X1: x1, X2: x2, Y1: y1, Y2: y2, Z1: z1, Z2: z2}

	// both walks produce the same sum, pick the one touching fewer cells
	if int64(len(c.cells)) < r.Volume() {
		return c.sumPopulated(r), nil
	}

	return c.sumBox(r), nil
}

// Sum runs Query over a resolved range.
func (c *Cube) Sum(r Range) (int64, error) {
	return c.Query(r.X1, r.X2, r.Y1, r.Y2, r.Z1, r.Z2)
}

// sumBox walks the box x outer, y middle, z inner.
func (c *Cube) sumBox(r Range) (total int64) {
	for x := r.X1; x <= r.X2; x++ {
		for y := r.Y1; y <= r.Y2; y++ {
			for z := r.Z1; z <= r.Z2; z++ {
				total += c.cells[Point{X: x, Y: y, Z: z}]
			}
		}
	}
	return
}

// sumPopulated walks the stored cells only.
func (c *Cube) sumPopulated(r Range) (total int64) {
	for p, v := range c.cells {
		if r.Contains(p) {
			total += v
		}
	}
	return
}

func (c *Cube) checkInRange(values []int, names []string) error {
	for i, v := range values {
		if v < 1 || v > c.dimension {
			return errors.Wrapf(ErrOutOfRange,
				"%s out of range, must be between 1 and %d, got %d", names[i], c.dimension, v)
		}
	}
	return nil
}

// String implements fmt.Stringer.
func (c *Cube) String() string {
	return fmt.Sprintf("Cube(dimension=%d,cells=%d)", c.dimension, len(c.cells))
}
