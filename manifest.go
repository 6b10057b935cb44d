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
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// ProcessManifest is the serialized form of a ProcessConfig, as it appears
// in deployment configuration documents and standalone manifest files.
type ProcessManifest struct {
	Executable string            `json:"executable" yaml:"executable"`
	Name       string            `json:"name" yaml:"name"`
	Args       []string          `json:"args,omitempty" yaml:"args,omitempty"`
	ExtraArgs  []string          `json:"extraArgs,omitempty" yaml:"extraArgs,omitempty"`
	Dir        string            `json:"dir,omitempty" yaml:"dir,omitempty"`
	UID        uint32            `json:"uid,omitempty" yaml:"uid,omitempty"`
	GID        uint32            `json:"gid,omitempty" yaml:"gid,omitempty"`
	Env        map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Restart    bool              `json:"restart,omitempty" yaml:"restart,omitempty"`
}

// Config converts the manifest to a validated launch configuration.
func (m ProcessManifest) Config() (ProcessConfig, error) {
	cfg := ProcessConfig{
		Executable: m.Executable,
		Name:       m.Name,
		Args:       m.Args,
		ExtraArgs:  m.ExtraArgs,
		Dir:        m.Dir,
		UID:        m.UID,
		GID:        m.GID,
		Env:        m.Env,
		Restart:    m.Restart,
	}.Normalize()
	if err := cfg.Validate(); err != nil {
		return ProcessConfig{}, errors.Wrapf(err, "manifest %q", m.Name)
	}
	return cfg, nil
}

// ConfigsFromManifests converts a manifest list, failing on the first
// malformed entry.
func ConfigsFromManifests(ms []ProcessManifest) ([]ProcessConfig, error) {
	out := make([]ProcessConfig, 0, len(ms))
	for _, m := range ms {
		cfg, err := m.Config()
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

// ReadManifest decodes one JSON manifest.  Unknown fields are a
// configuration error, caught here rather than in the state machine.
func ReadManifest(r io.Reader) (ProcessConfig, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var m ProcessManifest
	if err := dec.Decode(&m); err != nil {
		return ProcessConfig{}, errors.Wrap(err, "decoding manifest")
	}
	return m.Config()
}

// ExecKind is the generic service kind backed by external executables
// described in the deployment config.  It stands in for the concrete
// service integrations (resource server, log collector, shop floor
// bridge), which configure their processes the same way.
func ExecKind(name string) ServiceKind {
	return ServiceKind{
		Name: name,
		New:  NewController,
		Schema: map[string]interface{}{
			"processes": map[string]interface{}{
				"description": "Processes to supervise",
				"type":        "array",
				"items": map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"executable", "name"},
					"properties": map[string]interface{}{
						"executable": map[string]interface{}{"type": "string"},
						"name":       map[string]interface{}{"type": "string"},
						"args": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "string"},
						},
						"extraArgs": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "string"},
						},
						"dir": map[string]interface{}{"type": "string"},
						"uid": map[string]interface{}{"type": "integer"},
						"gid": map[string]interface{}{"type": "integer"},
						"env": map[string]interface{}{
							"type": "object",
							"additionalProperties": map[string]interface{}{
								"type": "string",
							},
						},
						"restart": map[string]interface{}{"type": "boolean"},
					},
					"additionalProperties": false,
				},
			},
		},
	}
}
