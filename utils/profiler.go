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

package utils

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/CovenantSQL/cubesum/utils/log"
)

// StartProfile starts CPU profiling and enables memory profiling for the non empty file names,
// the returned stop writes and closes the profiles.
func StartProfile(cpuprofile, memprofile string) (stop func(), err error) {
	var cpu, mem *os.File
	stop = func() {
		if cpu != nil {
			pprof.StopCPUProfile()
			_ = cpu.Close()
			log.Info("CPU profiling stopped")
		}
		if mem != nil {
			_ = pprof.WriteHeapProfile(mem)
			_ = mem.Close()
			log.Info("memory profiling stopped")
		}
	}

	if cpuprofile != "" {
		if cpu, err = os.Create(cpuprofile); err != nil {
			log.WithField("file", cpuprofile).WithError(err).Error("failed to create CPU profile file")
			return nil, err
		}
		log.WithField("file", cpuprofile).Info("writing CPU profiling to file")
		if err = pprof.StartCPUProfile(cpu); err != nil {
			_ = cpu.Close()
			return nil, err
		}
	}

	if memprofile != "" {
		if mem, err = os.Create(memprofile); err != nil {
			log.WithField("file", memprofile).WithError(err).Error("failed to create memory profile file")
			stop()
			return nil, err
		}
		log.WithField("file", memprofile).Info("writing memory profiling to file")
		runtime.MemProfileRate = 4096
	}
	return
}
