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

package rest

const (
	mimeJson = "application/json; charset=UTF-8"
)

var ok struct{}

// ProcessInfo is the externally visible state of one supervised process.
type ProcessInfo struct {
	Id           string   `json:"id"`
	Name         string   `json:"name"`
	State        string   `json:"state"`
	Pid          int      `json:"pid"`
	RestartCount int      `json:"restartCount"`
	Messages     []string `json:"messages,omitempty"`
}

// ServiceInfo describes one logical service and its current processes.
type ServiceInfo struct {
	Name       string                 `json:"name"`
	Enabled    bool                   `json:"enabled"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Processes  []ProcessInfo          `json:"processes"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}
