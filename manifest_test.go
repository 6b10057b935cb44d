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
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestConfig(t *testing.T) {
	m := ProcessManifest{
		Executable: "/bin/true",
		Name:       "probe",
		Args:       []string{"-q"},
		Env:        map[string]string{"MODE": "fast"},
	}
	cfg, err := m.Config()
	require.NoError(t, err)
	assert.Equal(t, "/bin/true", cfg.Executable)
	assert.Equal(t, "probe", cfg.Name)
	assert.NotEmpty(t, cfg.Dir)

	t.Run("validation failures carry the manifest name", func(t *testing.T) {
		_, err := ProcessManifest{Executable: "/bin/true"}.Config()
		require.Error(t, err)
		assert.Equal(t, ErrNoName, errors.Cause(err))

		_, err = ProcessManifest{Name: "orphan"}.Config()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `manifest "orphan"`)
	})
}

func TestConfigsFromManifests(t *testing.T) {
	ms := []ProcessManifest{
		{Executable: "/bin/true", Name: "a"},
		{Executable: "/bin/true", Name: "b"},
	}
	cfgs, err := ConfigsFromManifests(ms)
	require.NoError(t, err)
	require.Len(t, cfgs, 2)
	assert.Equal(t, "a", cfgs[0].Name)

	// One bad entry fails the whole list.
	ms = append(ms, ProcessManifest{Name: "broken"})
	_, err = ConfigsFromManifests(ms)
	assert.Error(t, err)
}

func TestReadManifest(t *testing.T) {
	doc := `{
		"executable": "/bin/true",
		"name": "probe",
		"args": ["-q"],
		"restart": true
	}`
	cfg, err := ReadManifest(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "probe", cfg.Name)
	assert.True(t, cfg.Restart)
	assert.Equal(t, []string{"-q"}, cfg.Args)

	t.Run("unknown fields rejected", func(t *testing.T) {
		doc := `{"executable": "/bin/true", "name": "x", "bogus": 1}`
		_, err := ReadManifest(strings.NewReader(doc))
		assert.Error(t, err)
	})

	t.Run("malformed document rejected", func(t *testing.T) {
		_, err := ReadManifest(strings.NewReader(`{"executable":`))
		assert.Error(t, err)
	})
}

func TestExecKindShape(t *testing.T) {
	k := ExecKind("resource")
	assert.Equal(t, "resource", k.Name)
	require.NotNil(t, k.New)
	assert.Contains(t, k.Schema, "processes")

	c := k.New("resource")
	require.NotNil(t, c)
	assert.Equal(t, "resource", c.Name())
	assert.True(t, c.Enabled())
}
