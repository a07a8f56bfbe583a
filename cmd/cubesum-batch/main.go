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
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/CovenantSQL/cubesum/batch"
	"github.com/CovenantSQL/cubesum/utils"
	"github.com/CovenantSQL/cubesum/utils/log"
)

const name = "cubesum-batch"

var (
	version     = "unknown"
	inputFile   string
	cpuProfile  string
	memProfile  string
	logLevel    string
	showVersion bool
)

func init() {
	flag.StringVar(&inputFile, "input", "", "Input file of test cases, stdin if empty")
	flag.StringVar(&logLevel, "log-level", "", "Log level")
	flag.StringVar(&cpuProfile, "cpu-profile", "", "Path to file for CPU profiling information")
	flag.StringVar(&memProfile, "mem-profile", "", "Path to file for memory profiling information")
	flag.BoolVar(&showVersion, "version", false, "Show version information and exit")
}

func main() {
	flag.Parse()
	if showVersion {
		fmt.Printf("%v %v %v %v %v\n",
			name, version, runtime.GOOS, runtime.GOARCH, runtime.Version())
		os.Exit(0)
	}
	log.SetStringLevel(logLevel, log.InfoLevel)

	var in io.Reader = os.Stdin
	if inputFile != "" {
		f, err := os.Open(utils.HomeDirExpand(inputFile))
		if err != nil {
			log.WithError(err).Fatal("open input failed")
			return
		}
		defer f.Close()
		in = f
	}

	stopProfile, err := utils.StartProfile(cpuProfile, memProfile)
	if err != nil {
		log.WithError(err).Fatal("start profile failed")
		return
	}

	err = batch.Run(in, os.Stdout)
	stopProfile()
	if err != nil {
		log.WithError(err).Fatal("run test cases failed")
	}
}
