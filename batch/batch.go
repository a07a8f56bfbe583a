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

// Package batch runs cube summation test cases in the classic text format:
//
//	T
//	N M
//	UPDATE x y z W
//	QUERY x1 y1 z1 x2 y2 z2
//
// T test cases follow, each with a cube dimension N and M operations.
package batch

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/CovenantSQL/cubesum/cube"
)

var (
	// ErrSyntax defines error on malformed input lines.
	ErrSyntax = errors.New("syntax error")
	// ErrUnexpectedEOF defines error on input ending before all declared operations.
	ErrUnexpectedEOF = errors.New("unexpected end of input")
)

type reader struct {
	scanner *bufio.Scanner
	line    int
}

// next returns the fields of the next non blank line.
func (r *reader) next() (fields []string, err error) {
	for r.scanner.Scan() {
		r.line++
		if fields = strings.Fields(r.scanner.Text()); len(fields) > 0 {
			return
		}
	}
	if err = r.scanner.Err(); err == nil {
		err = errors.Wrapf(ErrUnexpectedEOF, "line %d", r.line)
	}
	return
}

func (r *reader) ints(fields []string) (v []int, err error) {
	v = make([]int, len(fields))
	for i, f := range fields {
		if v[i], err = strconv.Atoi(f); err != nil {
			err = errors.Wrapf(ErrSyntax, "line %d: %q is not an integer", r.line, f)
			return
		}
	}
	return
}

func (r *reader) expect(fields []string, n int) error {
	if len(fields) != n {
		return errors.Wrapf(ErrSyntax, "line %d: expected %d fields, got %d", r.line, n, len(fields))
	}
	return nil
}

// Run executes every test case read from in and writes one sum per QUERY to out.
func Run(in io.Reader, out io.Writer) (err error) {
	r := &reader{scanner: bufio.NewScanner(in)}
	w := bufio.NewWriter(out)
	defer func() {
		if ferr := w.Flush(); err == nil {
			err = ferr
		}
	}()

	var fields []string
	if fields, err = r.next(); err != nil {
		return
	}
	if err = r.expect(fields, 1); err != nil {
		return
	}
	var header []int
	if header, err = r.ints(fields); err != nil {
		return
	}

	for t := 0; t < header[0]; t++ {
		if err = runCase(r, w); err != nil {
			return
		}
	}
	return
}

func runCase(r *reader, w io.Writer) (err error) {
	var (
		fields []string
		header []int
		c      *cube.Cube
	)
	if fields, err = r.next(); err != nil {
		return
	}
	if err = r.expect(fields, 2); err != nil {
		return
	}
	if header, err = r.ints(fields); err != nil {
		return
	}
	if c, err = cube.New(header[0]); err != nil {
		return errors.Wrapf(err, "line %d", r.line)
	}

	for m := 0; m < header[1]; m++ {
		if fields, err = r.next(); err != nil {
			return
		}
		var args []int
		switch strings.ToUpper(fields[0]) {
		case "UPDATE":
			if err = r.expect(fields, 5); err != nil {
				return
			}
			if args, err = r.ints(fields[1:]); err != nil {
				return
			}
			if err = c.Update(args[0], args[1], args[2], int64(args[3])); err != nil {
				return errors.Wrapf(err, "line %d", r.line)
			}
		case "QUERY":
			if err = r.expect(fields, 7); err != nil {
				return
			}
			if args, err = r.ints(fields[1:]); err != nil {
				return
			}
			var sum int64
			if sum, err = c.Query(args[0], args[3], args[1], args[4], args[2], args[5]); err != nil {
				return errors.Wrapf(err, "line %d", r.line)
			}
			if _, err = io.WriteString(w, strconv.FormatInt(sum, 10)+"\n"); err != nil {
				return
			}
		default:
			return errors.Wrapf(ErrSyntax, "line %d: unknown operation %q", r.line, fields[0])
		}
	}
	return
}
