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

package warden

import (
	"errors"
)

var (
	ErrBadState       = errors.New("Process not in a startable state")
	ErrNotExecutable  = errors.New("Executable missing or not executable")
	ErrRespawnTooFast = errors.New("Respawning too fast")
	ErrUnknownService = errors.New("Service not registered")
	ErrNotLoaded      = errors.New("Service not loaded")
	ErrNoExecutable   = errors.New("Missing executable path")
	ErrNoName         = errors.New("Missing process name")
)
