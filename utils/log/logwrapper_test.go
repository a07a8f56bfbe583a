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

package log

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"
)

type lockedBuffer struct {
	sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.Lock()
	defer b.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.Lock()
	defer b.Unlock()
	return b.buf.String()
}

func TestStandardLogger(t *testing.T) {
	Convey("levels and fields reach the output", t, func() {
		var buf bytes.Buffer
		SetOutput(&buf)
		SetFormatter(&logrus.TextFormatter{DisableColors: true})
		defer SetOutput(&NilWriter{})

		SetLevel(DebugLevel)
		So(GetLevel(), ShouldEqual, DebugLevel)

		Debug("Debug")
		Debugf("Debugf %d", 1)
		Info("Info")
		Infof("Infof %d", 1)
		Warn("Warn")
		Warnf("Warnf %d", 1)
		WithField("cube", "abc").Info("with field")
		WithFields(Fields{"x": 1, "y": 2}).Debugf("with fields %d", 3)
		WithError(errors.New("boom")).Error("with error")
		Errorf("Errorf %d", 1)

		out := buf.String()
		So(out, ShouldContainSubstring, "Debugf 1")
		So(out, ShouldContainSubstring, "cube=abc")
		So(out, ShouldContainSubstring, "with fields 3")
		So(out, ShouldContainSubstring, "error=boom")
		So(out, ShouldContainSubstring, "caller=")
	})
	Convey("string level falls back to default", t, func() {
		SetStringLevel("warning", InfoLevel)
		So(GetLevel(), ShouldEqual, WarnLevel)
		SetStringLevel("not-a-level", InfoLevel)
		So(GetLevel(), ShouldEqual, InfoLevel)
		_, err := ParseLevel("nope")
		So(err, ShouldNotBeNil)
	})
	Convey("writer bridges lines into the logger", t, func() {
		buf := &lockedBuffer{}
		SetOutput(buf)
		defer SetOutput(&NilWriter{})
		SetLevel(InfoLevel)

		w := Writer(InfoLevel)
		_, err := fmt.Fprintln(w, "GET /cubes 200")
		So(err, ShouldBeNil)
		So(w.Close(), ShouldBeNil)

		// the pipe is drained by a logrus goroutine
		deadline := time.Now().Add(time.Second)
		for time.Now().Before(deadline) && !strings.Contains(buf.String(), "GET /cubes 200") {
			time.Sleep(10 * time.Millisecond)
		}
		So(buf.String(), ShouldContainSubstring, "GET /cubes 200")
	})
	Convey("nil formatter discards", t, func() {
		n := NilFormatter{}
		a, b := n.Format(&logrus.Entry{})
		So(a, ShouldBeNil)
		So(b, ShouldBeNil)
		c, err := (&NilWriter{}).Write([]byte("x"))
		So(c, ShouldEqual, 1)
		So(err, ShouldBeNil)
	})
	Convey("discard silences until restored", t, func() {
		var buf bytes.Buffer
		SetOutput(&buf)
		defer SetOutput(&NilWriter{})
		orig := GetLevel()
		defer SetLevel(orig)
		SetLevel(DebugLevel)

		restore := Discard()
		Info("hidden")
		So(GetLevel(), ShouldEqual, DebugLevel)
		So(buf.Len(), ShouldEqual, 0)

		restore()
		Info("shown")
		So(buf.String(), ShouldContainSubstring, "shown")
		So(buf.String(), ShouldNotContainSubstring, "hidden")
	})
}
