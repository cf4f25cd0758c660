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

// World is the whole parsed-tree state: the variable environment, the
// configuration and target registries, and the list of build files that
// were discovered (every one of which becomes a compile prerequisite, per
// spec.md §4.5.2). It replaces the global-mutable registries of the
// original Python implementation and of kati's package-level state
// (spec.md §9's design note calls this out explicitly) with a value passed
// explicitly, so independent Worlds can be constructed in tests.
type World struct {
	Env        *Environment
	Configs    *ConfigRegistry
	Targets    *TargetRegistry
	BuildFiles []string
}

// NewWorld creates an empty World ready for parsing.
func NewWorld() *World {
	return &World{
		Env:     NewEnvironment(),
		Configs: NewConfigRegistry(),
		Targets: NewTargetRegistry(),
	}
}

// SelectConfiguration fixes the configuration for the rest of the process
// and performs the injections described in spec.md §4.3.4.
func (w *World) SelectConfiguration(name string) (*Configuration, error) {
	cfg, err := w.Configs.Select(name)
	if err != nil {
		return nil, err
	}
	cs := w.Env.scope(ConfigurationScope)
	cs.setEmpty("__null")
	cs.set("__name", Lit(cfg.Name))
	for _, pair := range cfg.Export {
		cs.set(pair.Name, pair.Value)
	}
	return cfg, nil
}

// InjectBuildDir sets $__build in every scope once the per-configuration
// build directory is known (spec.md §4.3.4). Called once, after
// SelectConfiguration, before any target is built.
func (w *World) InjectBuildDir(dir string) {
	w.Env.injectBuildDir(dir)
}
