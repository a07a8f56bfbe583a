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
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	Convey("every dimension in range is accepted", t, func() {
		for d := MinDimension; d <= MaxDimension; d++ {
			c, err := New(d)
			So(err, ShouldBeNil)
			So(c.Dimension(), ShouldEqual, d)
			So(c.Len(), ShouldEqual, 0)
		}
	})
	Convey("dimensions out of range are rejected", t, func() {
		for _, d := range []int{-1, 0, 101, 1000} {
			c, err := New(d)
			So(c, ShouldBeNil)
			So(errors.Cause(err), ShouldEqual, ErrInvalidDimension)
			So(IsValidationError(err), ShouldBeTrue)
		}
	})
}

func TestUpdate(t *testing.T) {
	Convey("given a cube of dimension 5", t, func() {
		c, err := New(5)
		So(err, ShouldBeNil)

		Convey("every cell reads 0 before and the last value after an update", func() {
			for x := 1; x <= 5; x++ {
				for y := 1; y <= 5; y++ {
					for z := 1; z <= 5; z++ {
						s, err := c.Query(x, x, y, y, z, z)
						So(err, ShouldBeNil)
						So(s, ShouldEqual, 0)

						So(c.Update(x, y, z, int64(x*100+y*10+z)), ShouldBeNil)
						So(c.Update(x, y, z, int64(x+y+z)), ShouldBeNil)
						s, err = c.Query(x, x, y, y, z, z)
						So(err, ShouldBeNil)
						So(s, ShouldEqual, x+y+z)
					}
				}
			}
		})
		Convey("repeating an update is idempotent", func() {
			So(c.Update(1, 2, 3, 7), ShouldBeNil)
			once := c.Cells()
			So(c.Update(1, 2, 3, 7), ShouldBeNil)
			So(c.Cells(), ShouldResemble, once)
			So(c.Len(), ShouldEqual, 1)
		})
		Convey("writing zero keeps an explicit entry", func() {
			So(c.Update(1, 1, 1, 9), ShouldBeNil)
			So(c.Update(1, 1, 1, 0), ShouldBeNil)
			So(c.Len(), ShouldEqual, 1)
			So(c.Get(1, 1, 1), ShouldEqual, 0)
			s, err := c.Query(1, 5, 1, 5, 1, 5)
			So(err, ShouldBeNil)
			So(s, ShouldEqual, 0)
		})
		Convey("coordinates out of range fail without mutation", func() {
			err := c.Update(0, 1, 1, 1)
			So(errors.Cause(err), ShouldEqual, ErrOutOfRange)
			So(err.Error(), ShouldContainSubstring, "x out of range")
			So(err.Error(), ShouldContainSubstring, "between 1 and 5")

			err = c.Update(1, 6, 1, 1)
			So(errors.Cause(err), ShouldEqual, ErrOutOfRange)
			So(err.Error(), ShouldContainSubstring, "y out of range")

			err = c.Update(1, 1, -3, 1)
			So(errors.Cause(err), ShouldEqual, ErrOutOfRange)
			So(err.Error(), ShouldContainSubstring, "z out of range")

			So(c.Len(), ShouldEqual, 0)
		})
		Convey("values beyond the accumulator bound are rejected", func() {
			err := c.Update(1, 1, 1, MaxValue+1)
			So(errors.Cause(err), ShouldEqual, ErrOutOfRange)
			So(err.Error(), ShouldContainSubstring, "value")
			So(c.Update(1, 1, 1, -MaxValue), ShouldBeNil)
			So(c.Get(1, 1, 1), ShouldEqual, -MaxValue)
		})
	})
}

func TestQuery(t *testing.T) {
	Convey("dimension 4 scenario", t, func() {
		c, err := New(4)
		So(err, ShouldBeNil)
		So(c.Update(2, 2, 2, 4), ShouldBeNil)

		s, err := c.Query(1, 3, 1, 3, 1, 4)
		So(err, ShouldBeNil)
		So(s, ShouldEqual, 4)

		s, err = c.Query(1, 1, 1, 1, 1, 1)
		So(err, ShouldBeNil)
		So(s, ShouldEqual, 0)
	})
	Convey("classic sample sequence", t, func() {
		c, err := New(4)
		So(err, ShouldBeNil)
		So(c.Update(2, 2, 2, 4), ShouldBeNil)
		s, _ := c.Query(1, 3, 1, 3, 1, 3)
		So(s, ShouldEqual, 4)
		So(c.Update(1, 1, 1, 23), ShouldBeNil)
		s, _ = c.Query(2, 4, 2, 4, 2, 4)
		So(s, ShouldEqual, 4)
		s, _ = c.Query(1, 3, 1, 3, 1, 3)
		So(s, ShouldEqual, 27)
	})
	Convey("validation order and errors", t, func() {
		c, err := New(4)
		So(err, ShouldBeNil)
		So(c.Update(1, 1, 1, 5), ShouldBeNil)

		_, err = c.Query(3, 2, 1, 1, 1, 1)
		So(errors.Cause(err), ShouldEqual, ErrInvalidRange)
		So(err.Error(), ShouldContainSubstring, "x1 <= x2")

		_, err = c.Query(1, 1, 1, 1, 4, 2)
		So(errors.Cause(err), ShouldEqual, ErrInvalidRange)
		So(err.Error(), ShouldContainSubstring, "z1 <= z2")

		// range check runs before the ordering check
		_, err = c.Query(3, 2, 1, 5, 1, 1)
		So(errors.Cause(err), ShouldEqual, ErrOutOfRange)
		So(err.Error(), ShouldContainSubstring, "y2")

		_, err = c.Query(0, 1, 1, 1, 1, 1)
		So(errors.Cause(err), ShouldEqual, ErrOutOfRange)
		So(err.Error(), ShouldContainSubstring, "x1")
	})
	Convey("query leaves the cells untouched", t, func() {
		c, err := New(3)
		So(err, ShouldBeNil)
		So(c.Update(3, 3, 3, 1), ShouldBeNil)
		before := c.Cells()
		for i := 0; i < 3; i++ {
			s, err := c.Query(1, 3, 1, 3, 1, 3)
			So(err, ShouldBeNil)
			So(s, ShouldEqual, 1)
		}
		So(c.Cells(), ShouldResemble, before)
		So(c.Len(), ShouldEqual, 1)
	})
	Convey("disjoint boxes are additive", t, func() {
		c, err := New(4)
		So(err, ShouldBeNil)
		for x := 1; x <= 4; x++ {
			for y := 1; y <= 4; y++ {
				for z := 1; z <= 4; z++ {
					So(c.Update(x, y, z, int64(x*100+y*10+z)), ShouldBeNil)
				}
			}
		}
		left, err := c.Query(1, 2, 2, 3, 1, 4)
		So(err, ShouldBeNil)
		right, err := c.Query(3, 4, 2, 3, 1, 4)
		So(err, ShouldBeNil)
		whole, err := c.Query(1, 4, 2, 3, 1, 4)
		So(err, ShouldBeNil)
		So(left+right, ShouldEqual, whole)
	})
	Convey("large values do not overflow", t, func() {
		c, err := New(MaxDimension)
		So(err, ShouldBeNil)
		for x := 1; x <= MaxDimension; x++ {
			So(c.Update(x, 1, 1, MaxValue), ShouldBeNil)
		}
		s, err := c.Query(1, MaxDimension, 1, 1, 1, 1)
		So(err, ShouldBeNil)
		So(s, ShouldEqual, int64(MaxDimension)*MaxValue)
	})
	Convey("box walk and populated walk agree", t, func() {
		r := rand.New(rand.NewSource(42))
		c, err := New(10)
		So(err, ShouldBeNil)
		for i := 0; i < 200; i++ {
			So(c.Update(r.Intn(10)+1, r.Intn(10)+1, r.Intn(10)+1, r.Int63n(2000)-1000), ShouldBeNil)
		}
		for i := 0; i < 50; i++ {
			a, b := r.Intn(10)+1, r.Intn(10)+1
			if a > b {
				a, b = b, a
			}
			box := Range{X1: a, X2: b, Y1: 1, Y2: b, Z1: a, Z2: 10}
			So(c.sumBox(box), ShouldEqual, c.sumPopulated(box))
		}
	})
}

func TestBounds(t *testing.T) {
	Convey("missing bounds take cube defaults", t, func() {
		b := Bounds{X1: Bound(2), X2: Bound(3)}
		So(b.Empty(), ShouldBeFalse)
		So(b.Resolve(4), ShouldResemble, Range{X1: 2, X2: 3, Y1: 1, Y2: 4, Z1: 1, Z2: 4})
	})
	Convey("empty bounds resolve to the whole cube", t, func() {
		var b Bounds
		So(b.Empty(), ShouldBeTrue)
		r := b.Resolve(7)
		So(r, ShouldResemble, Range{X1: 1, X2: 7, Y1: 1, Y2: 7, Z1: 1, Z2: 7})
		So(r.Volume(), ShouldEqual, 343)
	})
	Convey("supplied bounds are kept literally", t, func() {
		b := Bounds{Y2: Bound(1), Z1: Bound(9)}
		r := b.Resolve(4)
		So(r, ShouldResemble, Range{X1: 1, X2: 4, Y1: 1, Y2: 1, Z1: 9, Z2: 4})
		So(r.Volume(), ShouldEqual, 0)

		c, err := New(4)
		So(err, ShouldBeNil)
		_, err = c.Sum(r)
		So(errors.Cause(err), ShouldEqual, ErrOutOfRange)
	})
	Convey("resolved range sums like the explicit query", t, func() {
		c, err := New(4)
		So(err, ShouldBeNil)
		So(c.Update(2, 2, 2, 4), ShouldBeNil)
		So(c.Update(4, 4, 4, 1), ShouldBeNil)
		s, err := c.Sum(Bounds{X1: Bound(1), Y1: Bound(1), X2: Bound(3), Y2: Bound(3)}.Resolve(c.Dimension()))
		So(err, ShouldBeNil)
		So(s, ShouldEqual, 4)
	})
}
