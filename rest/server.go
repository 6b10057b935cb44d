// Copyright 2026 The Warden Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package rest exposes the supervisor's operator surface over HTTP: list
// services, inspect process state, start and stop services, fetch the
// merged configuration schemata, and tail the daemon log.  The device
// facing payload API is a separate server and does not live here.
package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/factorykit/warden"
)

// Handler serves the operator API for one registry.
type Handler struct {
	reg *warden.Registry
	log *warden.Log
	r   *mux.Router
}

func (h *Handler) internalError(w http.ResponseWriter, e error) {
	http.Error(w, e.Error(), http.StatusInternalServerError)
}

func (h *Handler) writeJson(w http.ResponseWriter, v interface{}) {
	if b, e := json.Marshal(v); e != nil {
		h.internalError(w, e)
	} else {
		w.Header().Set("Content-Type", mimeJson)
		w.Write(b)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, e *Error) {
	if b, err := json.Marshal(e); err != nil {
		h.internalError(w, err)
	} else {
		w.Header().Set("Content-Type", mimeJson)
		w.WriteHeader(e.Code)
		w.Write(b)
	}
}

func (h *Handler) listServices(w http.ResponseWriter, r *http.Request) {
	h.writeJson(w, h.reg.GetAllServiceNames())
}

func (h *Handler) findService(name string) (*warden.Controller, *Error) {
	c, err := h.reg.GetServiceInstance(name)
	if err != nil {
		return nil, &Error{http.StatusNotFound, "Service not found"}
	}
	return c, nil
}

func serviceInfo(c *warden.Controller) *ServiceInfo {
	info := &ServiceInfo{
		Name:       c.Name(),
		Enabled:    c.Enabled(),
		Properties: make(map[string]interface{}),
		Processes:  []ProcessInfo{},
	}
	for k, v := range c.Properties() {
		info.Properties[string(k)] = v
	}
	for _, p := range c.Handles() {
		info.Processes = append(info.Processes, ProcessInfo{
			Id:           p.ID(),
			Name:         p.Name(),
			State:        p.State().String(),
			Pid:          p.Pid(),
			RestartCount: p.RestartCount(),
			Messages:     p.Messages(),
		})
	}
	return info
}

func (h *Handler) getService(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["service"]
	if c, e := h.findService(name); e != nil {
		h.writeError(w, e)
	} else {
		h.writeJson(w, serviceInfo(c))
	}
}

// startService reconciles the service against the manifest list in the
// request body.  An empty list stops everything, like a stop.
func (h *Handler) startService(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["service"]
	c, e := h.findService(name)
	if e != nil {
		h.writeError(w, e)
		return
	}
	var manifests []warden.ProcessManifest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&manifests); err != nil {
		h.writeError(w, &Error{http.StatusBadRequest, err.Error()})
		return
	}
	configs, err := warden.ConfigsFromManifests(manifests)
	if err != nil {
		h.writeError(w, &Error{http.StatusBadRequest, err.Error()})
		return
	}
	if err := c.Start(configs).Wait(r.Context()); err != nil {
		h.writeError(w, &Error{http.StatusConflict, err.Error()})
		return
	}
	h.writeJson(w, ok)
}

func (h *Handler) stopService(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["service"]
	c, e := h.findService(name)
	if e != nil {
		h.writeError(w, e)
		return
	}
	if err := c.Stop().Wait(r.Context()); err != nil {
		h.writeError(w, &Error{http.StatusConflict, err.Error()})
		return
	}
	h.writeJson(w, ok)
}

func (h *Handler) getSchemata(w http.ResponseWriter, r *http.Request) {
	doc, err := h.reg.GetAllServiceSchemata()
	if err != nil {
		h.internalError(w, err)
		return
	}
	h.writeJson(w, doc)
}

func (h *Handler) getLog(w http.ResponseWriter, r *http.Request) {
	if h.log == nil {
		h.writeJson(w, []warden.LogRecord{})
		return
	}
	var last int64
	if v := r.URL.Query().Get("last"); v != "" {
		last, _ = strconv.ParseInt(v, 10, 64)
	}
	recs, id := h.log.GetRecords(last)
	w.Header().Set("Etag", strconv.FormatInt(id, 10))
	if recs == nil {
		recs = []warden.LogRecord{}
	}
	h.writeJson(w, recs)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.r.ServeHTTP(w, r)
}

// NewHandler returns the operator API handler.  The log may be nil when
// the daemon keeps no ring log.
func NewHandler(reg *warden.Registry, log *warden.Log) *Handler {
	h := &Handler{reg: reg, log: log}
	r := mux.NewRouter()
	r.HandleFunc("/services", h.listServices).Methods("GET")
	r.HandleFunc("/services/{service}", h.getService).Methods("GET")
	r.HandleFunc("/services/{service}/start", h.startService).Methods("POST")
	r.HandleFunc("/services/{service}/stop", h.stopService).Methods("POST")
	r.HandleFunc("/schemata", h.getSchemata).Methods("GET")
	r.HandleFunc("/log", h.getLog).Methods("GET")
	h.r = r
	return h
}
