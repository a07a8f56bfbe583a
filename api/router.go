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

// Package api implements the HTTP interface of the cube service.
package api

import (
	"io"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/CovenantSQL/cubesum/service"
	"github.com/CovenantSQL/cubesum/utils/log"
)

// NewRouter returns the router of the cube resources and the log level endpoint.
func NewRouter(svc *service.Service) (router *mux.Router) {
	api := &cubeAPI{svc: svc}

	router = mux.NewRouter()
	router.HandleFunc("/cubes", api.CreateCube).Methods(http.MethodPost)
	router.HandleFunc("/cubes", api.ListCubes).Methods(http.MethodGet)
	router.HandleFunc("/cubes", api.DeleteCubes).Methods(http.MethodDelete)
	router.HandleFunc("/cubes/{id}", api.UpdateCube).Methods(http.MethodPut)
	router.HandleFunc("/cubes/{id}", api.GetCube).Methods(http.MethodGet)
	router.HandleFunc("/cubes/{id}", api.DeleteCube).Methods(http.MethodDelete)

	router.HandleFunc("/debug/loglevel", LogLevel).Methods(http.MethodGet, http.MethodPost)

	router.NotFoundHandler = http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		sendResponse(http.StatusNotFound, false, "not found", nil, rw)
	})
	return
}

type recoveryLogger struct{}

func (recoveryLogger) Println(args ...interface{}) {
	log.Error(args...)
}

// Wrap adds panic recovery, access logging to accessLog and CORS around h.
func Wrap(h http.Handler, accessLog io.Writer) http.Handler {
	h = handlers.CORS(
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	h = handlers.LoggingHandler(accessLog, h)
	return handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}))(h)
}
