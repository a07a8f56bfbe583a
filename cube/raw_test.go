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
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRaw(t *testing.T) {
	Convey("reconstruct from persisted cells", t, func() {
		c, err := New(10)
		So(err, ShouldBeNil)
		So(c.Update(1, 2, 3, 42), ShouldBeNil)

		raw := c.Raw()
		So(raw.Dimension, ShouldEqual, 10)
		So(raw.Cells, ShouldResemble, Cells{"1": {"2": {"3": 42}}})

		r, err := NewWithCells(10, Cells{"1": {"2": {"3": 42}}})
		So(err, ShouldBeNil)
		s, err := r.Query(1, 1, 2, 2, 3, 3)
		So(err, ShouldBeNil)
		So(s, ShouldEqual, 42)
	})
	Convey("round trip keeps query results", t, func() {
		c, err := New(6)
		So(err, ShouldBeNil)
		So(c.Update(1, 1, 1, 3), ShouldBeNil)
		So(c.Update(6, 5, 4, -8), ShouldBeNil)
		So(c.Update(2, 2, 2, 0), ShouldBeNil)

		data, err := json.Marshal(c.Raw())
		So(err, ShouldBeNil)
		var raw Raw
		So(json.Unmarshal(data, &raw), ShouldBeNil)

		r, err := FromRaw(&raw)
		So(err, ShouldBeNil)
		So(r.Len(), ShouldEqual, c.Len())
		for _, box := range []Range{
			{X1: 1, X2: 6, Y1: 1, Y2: 6, Z1: 1, Z2: 6},
			{X1: 1, X2: 1, Y1: 1, Y2: 1, Z1: 1, Z2: 1},
			{X1: 2, X2: 6, Y1: 2, Y2: 6, Z1: 2, Z2: 6},
		} {
			want, err := c.Sum(box)
			So(err, ShouldBeNil)
			got, err := r.Sum(box)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}
	})
	Convey("reconstruction validates the dimension only", t, func() {
		_, err := NewWithCells(0, nil)
		So(errors.Cause(err), ShouldEqual, ErrInvalidDimension)

		// out of range cells are trusted as stored
		c, err := NewWithCells(2, Cells{"9": {"9": {"9": 1}}})
		So(err, ShouldBeNil)
		So(c.Len(), ShouldEqual, 1)
		s, err := c.Query(1, 2, 1, 2, 1, 2)
		So(err, ShouldBeNil)
		So(s, ShouldEqual, 0)
	})
	Convey("non numeric keys are malformed", t, func() {
		_, err := NewWithCells(3, Cells{"1": {"a": {"1": 1}}})
		So(errors.Cause(err), ShouldEqual, ErrMalformedCells)
		So(err.Error(), ShouldContainSubstring, "y key")

		_, err = FromRaw(nil)
		So(errors.Cause(err), ShouldEqual, ErrMalformedCells)
	})
	Convey("non canonical keys are malformed", t, func() {
		for _, cells := range []Cells{
			{"01": {"1": {"1": 1}}},
			{"1": {"+1": {"1": 1}}},
			{"1": {"1": {" 1": 1}}},
			{"1": {"1": {"-0": 1}}},
		} {
			_, err := NewWithCells(3, cells)
			So(errors.Cause(err), ShouldEqual, ErrMalformedCells)
			So(err.Error(), ShouldContainSubstring, "key")
		}

		// aliases of one cell never collapse into it
		_, err := NewWithCells(3, Cells{"1": {"1": {"1": 5, "01": 7}}})
		So(errors.Cause(err), ShouldEqual, ErrMalformedCells)
		So(err.Error(), ShouldContainSubstring, "not canonical")
	})
	Convey("clone is deep", t, func() {
		raw := &Raw{ID: "a", Dimension: 3, Cells: Cells{"1": {"1": {"1": 1}}}, Version: 2}
		cp := raw.Clone()
		cp.Cells["1"]["1"]["1"] = 5
		So(raw.Cells["1"]["1"]["1"], ShouldEqual, 1)
		So(cp.Version, ShouldEqual, 2)
		So((*Raw)(nil).Clone(), ShouldBeNil)
	})
}

func TestInt(t *testing.T) {
	Convey("integers are accepted", t, func() {
		for _, v := range []interface{}{int(3), int8(3), int16(3), int32(3), int64(3), uint(3), uint8(3), uint64(3), json.Number("3")} {
			i, err := Int("x", v)
			So(err, ShouldBeNil)
			So(i, ShouldEqual, 3)
		}
		i, err := Int("value", json.Number("-42"))
		So(err, ShouldBeNil)
		So(i, ShouldEqual, -42)
	})
	Convey("anything else is a type mismatch naming the field", t, func() {
		for _, v := range []interface{}{json.Number("3.5"), json.Number("1e3"), "3", 3.0, true, nil, uint64(1 << 63)} {
			_, err := Int("z", v)
			So(errors.Cause(err), ShouldEqual, ErrTypeMismatch)
			So(err.Error(), ShouldContainSubstring, "z must be an integer")
		}
	})
	Convey("huge coordinates stay out of range", t, func() {
		x, err := Coordinate("x", json.Number("99999999999"))
		So(err, ShouldBeNil)
		c, err := New(3)
		So(err, ShouldBeNil)
		So(errors.Cause(c.Update(x, 1, 1, 1)), ShouldEqual, ErrOutOfRange)

		_, err = Coordinate("x", "1")
		So(errors.Cause(err), ShouldEqual, ErrTypeMismatch)
	})
}
