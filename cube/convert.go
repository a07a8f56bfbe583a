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
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// Int converts a decoded argument to int64, non-integers (floats, strings, bools, nil)
// fail with ErrTypeMismatch naming the field.
func Int(field string, v interface{}) (i int64, err error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint:
		if uint64(n) <= math.MaxInt64 {
			return int64(n), nil
		}
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n), nil
		}
	case json.Number:
		// fractions and exponents are rejected
		if i, err = strconv.ParseInt(n.String(), 10, 64); err == nil {
			return
		}
	}

	err = errors.Wrapf(ErrTypeMismatch, "%s must be an integer, got %v", field, v)
	return
}

// Coordinate converts a decoded argument to int, see Int.
func Coordinate(field string, v interface{}) (int, error) {
	i, err := Int(field, v)
	if err != nil {
		return 0, err
	}
	if i > math.MaxInt32 || i < math.MinInt32 {
		// far outside any cube, keep the value representable for the range check
		if i > 0 {
			return math.MaxInt32, nil
		}
		return math.MinInt32, nil
	}
	return int(i), nil
}
