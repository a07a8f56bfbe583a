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

package batch

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/CovenantSQL/cubesum/cube"
)

const sample = `2
4 5
UPDATE 2 2 2 4
QUERY 1 1 1 3 3 3
UPDATE 1 1 1 23
QUERY 2 2 2 4 4 4
QUERY 1 1 1 3 3 3
2 4
UPDATE 2 2 2 1
QUERY 1 1 1 1 1 1
QUERY 1 1 1 2 2 2
QUERY 2 2 2 2 2 2
`

func TestRun(t *testing.T) {
	Convey("classic sample", t, func() {
		var out bytes.Buffer
		So(Run(strings.NewReader(sample), &out), ShouldBeNil)
		So(out.String(), ShouldEqual, "4\n4\n27\n0\n1\n1\n")
	})
	Convey("blank lines and case are tolerated", t, func() {
		var out bytes.Buffer
		So(Run(strings.NewReader("1\n\n3 2\nupdate 3 3 3 -5\n\nquery 1 1 1 3 3 3\n"), &out), ShouldBeNil)
		So(out.String(), ShouldEqual, "-5\n")
	})
	Convey("errors carry the line number", t, func() {
		cases := []struct {
			input string
			cause error
			line  string
		}{
			{"", ErrUnexpectedEOF, "line 0"},
			{"x\n", ErrSyntax, "line 1"},
			{"1\n4 2\nUPDATE 1 1 1 1\n", ErrUnexpectedEOF, "line 3"},
			{"1\n4 1\nDELETE 1 1 1\n", ErrSyntax, "line 3"},
			{"1\n4 1\nUPDATE 1 1 1\n", ErrSyntax, "line 3"},
			{"1\n4 1\nUPDATE 5 1 1 1\n", cube.ErrOutOfRange, "line 3"},
			{"1\n4 1\nQUERY 2 1 1 1 1 1\n", cube.ErrInvalidRange, "line 3"},
			{"1\n0 1\nQUERY 1 1 1 1 1 1\n", cube.ErrInvalidDimension, "line 2"},
			{"1\n4 a\n", ErrSyntax, "line 2"},
		}
		for _, c := range cases {
			err := Run(strings.NewReader(c.input), &bytes.Buffer{})
			So(errors.Cause(err), ShouldEqual, c.cause)
			So(err.Error(), ShouldContainSubstring, c.line)
		}
	})
}
