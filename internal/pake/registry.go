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
)

// TargetRegistry holds every target discovered while parsing the tree,
// keyed by name.
type TargetRegistry struct {
	targets map[string]Target
}

// NewTargetRegistry creates an empty registry.
func NewTargetRegistry() *TargetRegistry {
	return &TargetRegistry{targets: make(map[string]Target)}
}

// Add inserts t by name. Per SPEC_FULL.md's resolution of spec.md §9's open
// question, a duplicate target name is a fatal error, not a warning.
func (r *TargetRegistry) Add(t Target) error {
	name := t.CommonParams().Name
	if existing, ok := r.targets[name]; ok {
		return fmt.Errorf("target %q redefined at %s (first defined at %s)",
			name, t.CommonParams().DefPos, existing.CommonParams().DefPos)
	}
	r.targets[name] = t
	return nil
}

// Get returns the named target.
func (r *TargetRegistry) Get(name string) (Target, bool) {
	t, ok := r.targets[name]
	return t, ok
}

// Names returns every registered target name, sorted for deterministic
// iteration (used by `build --all` and the no-argument target listing).
func (r *TargetRegistry) Names() []string {
	names := make([]string, 0, len(r.targets))
	for name := range r.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
