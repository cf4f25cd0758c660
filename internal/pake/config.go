// Copyright 2015 Google Inc. All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pake

import (
	"fmt"
	"sort"

	"github.com/golang/glog"
)

// DefaultConfigurationName is the configuration selected absent -c.
const DefaultConfigurationName = "__default"

// ExportPair is one (value, name) entry of a Configuration's export list,
// promoted into the ConfigurationScope once that configuration is selected.
type ExportPair struct {
	Value Fragment
	Name  string
}

// Configuration is a named set of toolchain parameters.
type Configuration struct {
	Name              string
	Compiler          *Variable
	CompilerFlags     *Variable
	LinkerFlags       *Variable
	ApplicationSuffix *Variable
	Archiver          *Variable
	Export            []ExportPair
}

func newConfiguration(name string) *Configuration {
	return &Configuration{
		Name:              name,
		Compiler:          &Variable{},
		CompilerFlags:     &Variable{},
		LinkerFlags:       &Variable{},
		ApplicationSuffix: &Variable{},
		Archiver:          &Variable{},
	}
}

// defaultConfiguration builds the always-present __default configuration
// (spec.md §3), the equivalent of kati's bootstrap makefile (bootstrap.go)
// injecting builtin variables like CC/CXX/AR before any user build file is
// read.
func defaultConfiguration() *Configuration {
	cfg := newConfiguration(DefaultConfigurationName)
	cfg.Compiler.Fragments = []Fragment{Lit("c++")}
	cfg.CompilerFlags.Fragments = []Fragment{Lit("-I.")}
	cfg.LinkerFlags.Fragments = []Fragment{Lit("-L.")}
	cfg.Archiver.Fragments = []Fragment{Lit("ar")}
	return cfg
}

// ConfigRegistry holds every Configuration discovered while parsing, plus
// the always-present default, and the configuration selected for this run.
type ConfigRegistry struct {
	configs  map[string]*Configuration
	selected string
}

// NewConfigRegistry creates a registry pre-populated with __default.
func NewConfigRegistry() *ConfigRegistry {
	r := &ConfigRegistry{configs: make(map[string]*Configuration)}
	r.configs[DefaultConfigurationName] = defaultConfiguration()
	return r
}

// Add registers a configuration, warning (not failing) on replacement — the
// spec only makes duplicate *targets* fatal (see DESIGN.md's open-question
// decision); configurations keep the warn-and-overwrite behaviour of
// spec.md §3's general invariant text.
func (r *ConfigRegistry) Add(cfg *Configuration) {
	if _, exists := r.configs[cfg.Name]; exists {
		glog.Warningf("configuration %q redefined", cfg.Name)
	}
	r.configs[cfg.Name] = cfg
}

// Get returns the named configuration.
func (r *ConfigRegistry) Get(name string) (*Configuration, error) {
	cfg, ok := r.configs[name]
	if !ok {
		return nil, fmt.Errorf("no such configuration %q", name)
	}
	return cfg, nil
}

// Select fixes the configuration used for the rest of the process; it may
// only be called once (spec.md §3's "selected configuration is set once per
// process and is immutable thereafter").
func (r *ConfigRegistry) Select(name string) (*Configuration, error) {
	if r.selected != "" {
		return nil, fmt.Errorf("configuration already selected: %s", r.selected)
	}
	cfg, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	r.selected = name
	return cfg, nil
}

// Selected returns the name of the selected configuration, or "" if none.
func (r *ConfigRegistry) Selected() string { return r.selected }

// Names returns every registered configuration name.
func (r *ConfigRegistry) Names() []string {
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
