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

package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/CovenantSQL/cubesum/cube"
	"github.com/CovenantSQL/cubesum/storage"
	"github.com/CovenantSQL/cubesum/utils/log"
)

var (
	// ErrMalformedBody defines error on undecodable or incomplete request payload.
	ErrMalformedBody = errors.New("malformed request payload")
)

// limit of request payload
const maxBodySize = 1 << 20

func decodeBody(r *http.Request) (m map[string]interface{}, err error) {
	if r.Body == nil {
		err = errors.Wrap(ErrMalformedBody, "missing request payload")
		return
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.UseNumber()
	if err = dec.Decode(&m); err != nil || m == nil {
		err = errors.Wrap(ErrMalformedBody, "decode request json payload failed")
	}
	return
}

// requireExactly checks the payload holds every key in keys and nothing else.
func requireExactly(m map[string]interface{}, keys ...string) error {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	var extra []string
	for k := range m {
		if !want[k] {
			extra = append(extra, k)
		}
	}
	var missing []string
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(extra) == 0 && len(missing) == 0 {
		return nil
	}
	sort.Strings(extra)
	return errors.Wrapf(ErrMalformedBody, "payload must contain exactly %s, missing [%s], unexpected [%s]",
		strings.Join(keys, ", "), strings.Join(missing, " "), strings.Join(extra, " "))
}

func statusCode(err error) int {
	cause := errors.Cause(err)
	switch {
	case cube.IsValidationError(err), cause == storage.ErrInvalidID, cause == ErrMalformedBody:
		return http.StatusBadRequest
	case cause == storage.ErrNotFound:
		return http.StatusNotFound
	case cause == storage.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func sendError(err error, rw http.ResponseWriter) {
	code := statusCode(err)
	if code == http.StatusInternalServerError {
		log.WithError(err).Error("cube request failed")
		sendResponse(code, false, "internal error", nil, rw)
		return
	}
	sendResponse(code, false, err, nil, rw)
}

func sendResponse(code int, success bool, msg interface{}, data interface{}, rw http.ResponseWriter) {
	msgStr := "ok"
	if msg != nil {
		msgStr = fmt.Sprint(msg)
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	_ = json.NewEncoder(rw).Encode(map[string]interface{}{
		"status":  msgStr,
		"success": success,
		"data":    data,
	})
}
