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

package storage

import (
	"github.com/pkg/errors"
)

var (
	// ErrNotFound defines error on cube not found.
	ErrNotFound = errors.New("cube not found")
	// ErrInvalidID defines error on malformed cube identifier.
	ErrInvalidID = errors.New("invalid cube identifier")
	// ErrConflict defines error on concurrent modification of the same cube.
	ErrConflict = errors.New("cube modified concurrently")
	// ErrStorageFailure defines error on backend failure.
	ErrStorageFailure = errors.New("storage failure")
	// ErrInvalidCube defines error on missing cube state.
	ErrInvalidCube = errors.New("invalid cube state")
)

func failure(op string, err error) error {
	return errors.Wrapf(ErrStorageFailure, "%s: %v", op, err)
}
