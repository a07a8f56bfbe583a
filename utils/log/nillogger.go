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
	"io"

	"github.com/sirupsen/logrus"
)

// NilFormatter drops every entry.
type NilFormatter struct{}

// Format implements logrus.Formatter.
func (f *NilFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return nil, nil
}

// NilWriter drops every write.
type NilWriter struct{}

// Write implements io.Writer.
func (w *NilWriter) Write(p []byte) (n int, err error) {
	return len(p), nil
}

// Discard silences the standard logger until restore is called, the level is kept
// so level dependent code paths still run.
func Discard() (restore func()) {
	l := logrus.StandardLogger()
	var (
		out       io.Writer        = l.Out
		formatter logrus.Formatter = l.Formatter
	)

	SetOutput(&NilWriter{})
	SetFormatter(&NilFormatter{})
	return func() {
		SetOutput(out)
		SetFormatter(formatter)
	}
}
