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

package main

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/CovenantSQL/cubesum/config"
	"github.com/CovenantSQL/cubesum/utils/log"
)

func TestMain(m *testing.M) {
	restore := log.Discard()
	code := m.Run()
	restore()
	os.Exit(code)
}

func TestCubeServer(t *testing.T) {
	Convey("server lifecycle over memory storage", t, func() {
		defer leaktest.CheckTimeout(t, 10*time.Second)()

		cfg, err := config.Parse([]byte(`
CubeServer:
  ListenAddr: "127.0.0.1:0"
  MetricsInterval: 50ms
  Storage:
    Driver: memory
`), ".")
		So(err, ShouldBeNil)

		server, err := NewCubeServer(cfg)
		So(err, ShouldBeNil)
		So(server.Addr(), ShouldBeNil)
		So(server.Serve(), ShouldBeNil)

		client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
		base := "http://" + server.Addr().String()

		resp, err := client.Post(base+"/cubes", "application/json", strings.NewReader(`{"dimension": 4}`))
		So(err, ShouldBeNil)
		So(resp.StatusCode, ShouldEqual, http.StatusCreated)
		var created struct {
			Data struct {
				ID string `json:"_id"`
			} `json:"data"`
		}
		So(json.NewDecoder(resp.Body).Decode(&created), ShouldBeNil)
		_ = resp.Body.Close()

		req, err := http.NewRequest(http.MethodPut, base+"/cubes/"+created.Data.ID,
			strings.NewReader(`{"x": 2, "y": 2, "z": 2, "value": 4}`))
		So(err, ShouldBeNil)
		resp, err = client.Do(req)
		So(err, ShouldBeNil)
		So(resp.StatusCode, ShouldEqual, http.StatusOK)
		_ = resp.Body.Close()

		resp, err = client.Get(base + "/cubes/" + created.Data.ID + "?x1=1&x2=3&y1=1&y2=3&z1=1&z2=4")
		So(err, ShouldBeNil)
		body, err := ioutil.ReadAll(resp.Body)
		_ = resp.Body.Close()
		So(err, ShouldBeNil)
		So(string(body), ShouldContainSubstring, `"result":4`)

		resp, err = client.Get(base + "/metrics")
		So(err, ShouldBeNil)
		body, err = ioutil.ReadAll(resp.Body)
		_ = resp.Body.Close()
		So(err, ShouldBeNil)
		So(string(body), ShouldContainSubstring, `cubesum_operations_total{op="update",outcome="ok"} 1`)
		So(string(body), ShouldContainSubstring, "cubesum_stored_cubes")

		resp, err = client.Get(base + "/debug/metrics")
		So(err, ShouldBeNil)
		So(resp.StatusCode, ShouldEqual, http.StatusOK)
		_ = resp.Body.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	})
}
