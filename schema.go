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

	"github.com/kaptinlin/jsonschema"
	"github.com/pkg/errors"
)

// commonServiceSchema is the stanza every service kind shares.  The
// reserved "active" property decides whether the service is brought up at
// server boot.
func commonServiceSchema() map[string]interface{} {
	return map[string]interface{}{
		"description": "Common service config schema",
		"type":        "object",
		"properties": map[string]interface{}{
			"active": map[string]interface{}{
				"description": "Default service state on start",
				"type":        "boolean",
			},
		},
	}
}

// ServiceSchemata merges the schema fragments of the loaded kinds into one
// JSON-Schema document keyed by service name.  Unknown service names are
// rejected by the resulting schema.
func (r *Registry) ServiceSchemata() map[string]interface{} {
	r.mx.Lock()
	loaded := make([]ServiceKind, 0, len(r.instances))
	for name := range r.instances {
		loaded = append(loaded, r.kinds[name])
	}
	r.mx.Unlock()

	properties := make(map[string]interface{}, len(loaded))
	for _, k := range loaded {
		stanza := commonServiceSchema()
		props := stanza["properties"].(map[string]interface{})
		for key, frag := range k.Schema {
			props[key] = deepCopyValue(frag)
		}
		properties[k.Name] = stanza
	}
	return map[string]interface{}{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"description":          "Warden service schemata",
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
}

// GetAllServiceSchemata loads every registered kind and returns the merged
// schema document for all of them.
func (r *Registry) GetAllServiceSchemata() (map[string]interface{}, error) {
	for _, name := range r.KindNames() {
		if _, err := r.LoadServiceModule(name); err != nil {
			return nil, err
		}
	}
	return r.ServiceSchemata(), nil
}

// CompileSchemata compiles the merged document, catching a malformed
// fragment at aggregation time rather than at first validation.
func (r *Registry) CompileSchemata() (*jsonschema.Schema, error) {
	doc, err := r.GetAllServiceSchemata()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling service schemata")
	}
	schema, err := jsonschema.NewCompiler().Compile(raw)
	if err != nil {
		return nil, errors.Wrap(err, "invalid service schemata")
	}
	return schema, nil
}

// ValidateServiceConfig checks a deployment's services section against the
// merged schemata.
func (r *Registry) ValidateServiceConfig(services map[string]interface{}) error {
	schema, err := r.CompileSchemata()
	if err != nil {
		return err
	}
	result := schema.Validate(services)
	if !result.IsValid() {
		return errors.Errorf("service config rejected: %s", result.Error())
	}
	return nil
}

// GetAllServiceSchemata returns the merged schemata of the process-wide
// registry.
func GetAllServiceSchemata() (map[string]interface{}, error) {
	return defaultRegistry.GetAllServiceSchemata()
}

// deepCopyValue clones a schema fragment so a kind's registered fragment
// is never aliased into the merged document.
func deepCopyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = deepCopyValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = deepCopyValue(val)
		}
		return out
	default:
		return t
	}
}
