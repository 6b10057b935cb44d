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

// Package warden supervises the auxiliary OS processes of a factory
// deployment server.  Each logical service (an HTTP resource server, a log
// collector, a shop floor bridge, and so on) is owned by a Controller,
// which keeps a set of Handles -- one per spawned process -- running,
// respawns them on crash, and reconciles the running set against a desired
// set whenever a new configuration is deployed.
//
// Reconciliation is driven by configuration equality: a process survives a
// redeployment untouched if and only if its full launch configuration is
// unchanged.  Changed or removed processes are stopped first, and only after
// every old process has actually exited are the replacements spawned, so an
// old and a new instance of the same resource are never alive at once.
//
// Handles detect restart storms: a process that keeps dying before its
// start grace period elapses is respawned a limited number of times and then
// parked in the error state, with its last output lines retained for
// diagnosis.
//
// A process-wide Registry maps service names to singleton Controllers, and
// the schema aggregator merges the per-service configuration schema
// fragments into a single validation document for the deployment config.
package warden
