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

import "github.com/pkg/errors"

var (
	// ErrInvalidDimension defines a cube dimension outside [MinDimension, MaxDimension] or not an integer.
	ErrInvalidDimension = errors.New("invalid dimension")
	// ErrTypeMismatch defines a coordinate or value argument which is not an integer.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrOutOfRange defines a coordinate outside [1, dimension] or a value beyond MaxValue.
	ErrOutOfRange = errors.New("out of range")
	// ErrInvalidRange defines a query box with lower bound greater than upper bound on some axis.
	ErrInvalidRange = errors.New("invalid range")
	// ErrMalformedCells defines persisted cells whose keys are not decimal integers.
	ErrMalformedCells = errors.New("malformed cells")
)

// IsValidationError returns whether the error is caused by invalid cube input.
func IsValidationError(err error) bool {
	switch errors.Cause(err) {
	case ErrInvalidDimension, ErrTypeMismatch, ErrOutOfRange, ErrInvalidRange:
		return true
	}

	return false
}
