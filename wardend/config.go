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

package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/factorykit/warden"
)

// ServiceConfig is one service's stanza in the daemon config.
type ServiceConfig struct {
	Active    bool                     `yaml:"active" json:"active"`
	Processes []warden.ProcessManifest `yaml:"processes" json:"processes"`
}

// Config is the daemon configuration document.
type Config struct {
	Listen   string                   `yaml:"listen" json:"listen"`
	Name     string                   `yaml:"name" json:"name"`
	Services map[string]ServiceConfig `yaml:"services" json:"services"`
}

func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening config")
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	cfg := &Config{}
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	if cfg.Listen == "" {
		cfg.Listen = "127.0.0.1:8321"
	}
	if cfg.Name == "" {
		cfg.Name = "wardend"
	}
	return cfg, nil
}

// servicesDocument renders the services section as a generic document for
// validation against the merged service schemata.
func (c *Config) servicesDocument() (map[string]interface{}, error) {
	raw, err := json.Marshal(c.Services)
	if err != nil {
		return nil, errors.Wrap(err, "rendering services section")
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "rendering services section")
	}
	return doc, nil
}
