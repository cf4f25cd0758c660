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

import "fmt"

// Fragment is one element of a Variable's value: either a literal (possibly
// containing ${...} interpolations) or a reference to another variable.
type Fragment interface {
	// Eval resolves the fragment to a flattened, ordered list of strings.
	// owner is the name of the scope that owns the Variable this fragment
	// belongs to; it is used to resolve unqualified references and
	// interpolations.
	Eval(env *Environment, owner string) ([]string, error)
	String() string
}

// Lit is a bare word fragment. Its text may still contain ${NAME}
// placeholders, resolved at evaluation time.
type Lit string

func (l Lit) String() string { return string(l) }

func (l Lit) Eval(env *Environment, owner string) ([]string, error) {
	s, err := env.interpolate(string(l), owner)
	if err != nil {
		return nil, err
	}
	return []string{s}, nil
}

// Ref is a reference to another variable, either `$var` (Scope == "") or
// `$scope.var` (Scope != ""). Name never carries the leading '$'.
type Ref struct {
	Scope string
	Name  string
}

func (r Ref) String() string {
	if r.Scope == "" {
		return "$" + r.Name
	}
	return "$" + r.Scope + "." + r.Name
}

func (r Ref) Eval(env *Environment, owner string) ([]string, error) {
	scope := r.Scope
	if scope == "" {
		scope = owner
	}
	return env.Eval(scope, r.Name)
}

// parseRef splits a reference name (without its leading '$') into a scope
// and variable name, applying the "local unless scope.var" rule from
// spec.md §4.3.1.
func parseRef(name string) Ref {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return Ref{Scope: name[:i], Name: name[i+1:]}
		}
	}
	return Ref{Name: name}
}

// tokenToFragment converts a value-list token into its Fragment.
func tokenToFragment(tok Token) (Fragment, error) {
	switch tok.Kind {
	case Literal, QuotedLiteral, MultilineLiteral:
		return Lit(tok.Content), nil
	case Variable:
		// tok.Content begins with '$'.
		return parseRef(tok.Content[1:]), nil
	default:
		return nil, fmt.Errorf("%s: %s is not a valid value fragment", tok.Pos, tok)
	}
}
