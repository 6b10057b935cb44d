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

// PropertyName names a declared capability or resource need of a service.
// Internal names start with an underscore; service kinds may declare their
// own.  There is no discovery of names: a consumer must know the name and
// the value type it expects.
type PropertyName string

const (
	// PropProvides lists resource names the service makes available,
	// e.g. a download bundle the HTTP resource server exposes.
	PropProvides PropertyName = "_Provides"
)

// SetProperty declares a capability or resource property on the service.
func (c *Controller) SetProperty(n PropertyName, v interface{}) {
	c.mx.Lock()
	c.props[n] = v
	c.mx.Unlock()
}

// Property returns a declared property value.
func (c *Controller) Property(n PropertyName) (interface{}, bool) {
	c.mx.Lock()
	defer c.mx.Unlock()
	v, ok := c.props[n]
	return v, ok
}

// Properties returns a copy of the full property map.
func (c *Controller) Properties() map[PropertyName]interface{} {
	c.mx.Lock()
	defer c.mx.Unlock()
	out := make(map[PropertyName]interface{}, len(c.props))
	for k, v := range c.props {
		out[k] = v
	}
	return out
}
