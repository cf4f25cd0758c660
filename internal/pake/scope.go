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
	"strings"
)

// ConfigurationScope is the reserved scope name configuration exports are
// promoted into (spec.md §4.3.4).
const ConfigurationScope = "__configuration"

// Variable is an ordered, append-only list of value fragments owned by a
// named Scope.
type Variable struct {
	Fragments []Fragment
}

func (v *Variable) String() string {
	var sb strings.Builder
	for i, f := range v.Fragments {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(f.String())
	}
	return sb.String()
}

// Empty reports whether the variable carries no fragments.
func (v *Variable) Empty() bool { return v == nil || len(v.Fragments) == 0 }

// Scope is a named namespace owning a set of variables; one exists per
// build-file basename, plus the reserved ConfigurationScope.
type Scope struct {
	Name string
	vars map[string]*Variable
}

func newScope(name string) *Scope {
	return &Scope{Name: name, vars: make(map[string]*Variable)}
}

func (s *Scope) lookup(name string) (*Variable, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// set replaces (or creates) the named variable with a single fragment.
func (s *Scope) set(name string, f Fragment) {
	s.vars[name] = &Variable{Fragments: []Fragment{f}}
}

// setEmpty creates an empty variable, overwriting any previous value.
func (s *Scope) setEmpty(name string) {
	s.vars[name] = &Variable{}
}

// append extends (or creates) the named variable with an additional fragment.
func (s *Scope) append(name string, f Fragment) {
	v, ok := s.vars[name]
	if !ok {
		v = &Variable{}
		s.vars[name] = v
	}
	v.Fragments = append(v.Fragments, f)
}

// Environment is the whole-tree variable namespace: a map of scope name to
// Scope, frozen after parsing.
type Environment struct {
	scopes map[string]*Scope
}

// NewEnvironment creates an empty Environment.
func NewEnvironment() *Environment {
	return &Environment{scopes: make(map[string]*Scope)}
}

// scope returns the named scope, creating it if this is its first use.
func (e *Environment) scope(name string) *Scope {
	s, ok := e.scopes[name]
	if !ok {
		s = newScope(name)
		e.scopes[name] = s
	}
	return s
}

// HasScope reports whether scope has been created.
func (e *Environment) HasScope(name string) bool {
	_, ok := e.scopes[name]
	return ok
}

// Eval resolves variable "name" in scope "scopeName" into a flattened,
// ordered list of strings. Any unresolved scope or variable is a fatal
// error per spec.md §3's invariants.
func (e *Environment) Eval(scopeName, name string) ([]string, error) {
	s, ok := e.scopes[scopeName]
	if !ok {
		return nil, fmt.Errorf("no such scope %q (referenced as %s.%s)", scopeName, scopeName, name)
	}
	v, ok := s.lookup(name)
	if !ok {
		return nil, fmt.Errorf("no such variable %q in scope %q", name, scopeName)
	}
	var out []string
	for _, f := range v.Fragments {
		vs, err := f.Eval(e, scopeName)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	return out, nil
}

// EvalVariable is a convenience for evaluating an already-resolved Variable
// (e.g. one embedded directly in a Configuration or Target) against the
// scope that owns it.
func (e *Environment) EvalVariable(owner string, v *Variable) ([]string, error) {
	if v.Empty() {
		return nil, nil
	}
	var out []string
	for _, f := range v.Fragments {
		vs, err := f.Eval(e, owner)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	return out, nil
}

// interpolate expands every ${NAME} placeholder in s, resolving NAME as a
// reference owned by scope "owner" (spec.md §4.3.2).
func (e *Environment) interpolate(s, owner string) (string, error) {
	if strings.IndexByte(s, '$') < 0 {
		return s, nil
	}
	var sb strings.Builder
	i := 0
	for i < len(s) {
		c := s[i]
		if c != '$' {
			sb.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(s) || s[i+1] != '{' {
			return "", fmt.Errorf("%q: expected '{' after '$'", s)
		}
		end := strings.IndexByte(s[i+2:], '}')
		if end < 0 {
			return "", fmt.Errorf("%q: unterminated ${...} placeholder", s)
		}
		name := s[i+2 : i+2+end]
		ref := parseRef(name)
		vs, err := ref.Eval(e, owner)
		if err != nil {
			return "", err
		}
		sb.WriteString(strings.Join(vs, " "))
		i = i + 2 + end + 1
	}
	return sb.String(), nil
}

// injectModuleDefaults sets the two reserved variables every module scope
// gets once its build file finishes parsing (spec.md §4.2).
func (e *Environment) injectModuleDefaults(scopeName, dir string) {
	s := e.scope(scopeName)
	if _, ok := s.lookup("__path"); !ok {
		s.set("__path", Lit(dir))
	}
	if _, ok := s.lookup("__null"); !ok {
		s.setEmpty("__null")
	}
}

// injectBuildDir sets $__build in every known scope once the configuration
// is selected (spec.md §4.3.4).
func (e *Environment) injectBuildDir(dir string) {
	for _, s := range e.scopes {
		s.set("__build", Lit(dir))
	}
}

// sanitizeEnvName converts a scope or variable name into a valid process
// environment variable name component, upper-casing it and replacing every
// byte outside [A-Za-z0-9_] with '_'.
func sanitizeEnvName(name string) string {
	var sb strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
			sb.WriteByte(c - 'a' + 'A')
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			sb.WriteByte(c)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// ExportEnv renders every scope.var pair into "SCOPE_VAR=value" process
// environment entries, plus "VAR=value" for pairs owned by scope owner,
// per spec.md §4.3.5. Entries are written fresh on every call so hook
// commands always see values consistent with the current configuration.
func (e *Environment) ExportEnv(owner string) ([]string, error) {
	var env []string
	for scopeName, s := range e.scopes {
		for varName := range s.vars {
			values, err := e.Eval(scopeName, varName)
			if err != nil {
				return nil, err
			}
			joined := strings.Join(values, " ")
			env = append(env, fmt.Sprintf("%s_%s=%s", sanitizeEnvName(scopeName), sanitizeEnvName(varName), joined))
			if scopeName == owner {
				env = append(env, fmt.Sprintf("%s=%s", sanitizeEnvName(varName), joined))
			}
		}
	}
	return env, nil
}
