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
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/CovenantSQL/cubesum/config"
	"github.com/CovenantSQL/cubesum/utils"
	"github.com/CovenantSQL/cubesum/utils/log"
)

const name = "cubesumd"

var (
	version     = "unknown"
	configFile  string
	listenAddr  string
	logLevel    string
	showVersion bool
)

func init() {
	flag.StringVar(&configFile, "config", "~/.cubesum/config.yaml", "Config file for cube server")
	flag.StringVar(&listenAddr, "listen", "", "Listen address for cube api, overrides config")
	flag.StringVar(&logLevel, "log-level", "", "Log level, overrides config")
	flag.BoolVar(&showVersion, "version", false, "Show version information and exit")
}

func main() {
	flag.Parse()
	if showVersion {
		fmt.Printf("%v %v %v %v %v\n",
			name, version, runtime.GOOS, runtime.GOARCH, runtime.Version())
		os.Exit(0)
	}

	configFile = utils.HomeDirExpand(configFile)

	flag.Visit(func(f *flag.Flag) {
		log.Infof("args %#v : %s", f.Name, f.Value)
	})

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.WithError(err).Fatal("load config failed")
		return
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	log.SetStringLevel(logLevel, log.InfoLevel)

	server, err := NewCubeServer(cfg)
	if err != nil {
		log.WithError(err).Fatal("init cube server failed")
		return
	}

	log.Info("start cube server")
	if err = server.Serve(); err != nil {
		log.WithError(err).Fatal("start cube server failed")
		return
	}

	<-utils.WaitForExit()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	server.Shutdown(ctx)
	log.Info("stopped cube server")
}
