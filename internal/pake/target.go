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

// TargetKind distinguishes the three buildable target shapes.
type TargetKind int

const (
	KindApplication TargetKind = iota
	KindStaticLibrary
	KindPhony
)

func (k TargetKind) String() string {
	switch k {
	case KindApplication:
		return "application"
	case KindStaticLibrary:
		return "static_library"
	case KindPhony:
		return "phony"
	}
	return "unknown"
}

// Common holds the fields shared by every target variant.
type Common struct {
	Name      string
	Scope     string // owning scope (module) name
	RootPath  string // directory of the defining build file
	DependsOn *Variable
	RunBefore *Variable
	RunAfter  *Variable
	Artefacts *Variable
	Prereqs   *Variable
	Resources *Variable
	VisibleIn *Variable
	DefPos    Position
}

func newCommon(name, scope, root string, pos Position) Common {
	return Common{
		Name:      name,
		Scope:     scope,
		RootPath:  root,
		DependsOn: &Variable{},
		RunBefore: &Variable{},
		RunAfter:  &Variable{},
		Artefacts: &Variable{},
		Prereqs:   &Variable{},
		Resources: &Variable{},
		VisibleIn: &Variable{},
		DefPos:    pos,
	}
}

// Target is a named buildable entity: an Application, a StaticLibrary, or a
// Phony target.
type Target interface {
	Kind() TargetKind
	CommonParams() *Common
}

// Application links object files and static libraries into an executable.
type Application struct {
	Common
	Sources       *Variable
	IncludeDirs   *Variable
	CompilerFlags *Variable
	LinkWith      *Variable
	LibraryDirs   *Variable
}

func (t *Application) Kind() TargetKind { return KindApplication }
func (t *Application) CommonParams() *Common { return &t.Common }

// StaticLibrary archives object files into a `.a` archive.
type StaticLibrary struct {
	Common
	Sources       *Variable
	IncludeDirs   *Variable
	CompilerFlags *Variable
}

func (t *StaticLibrary) Kind() TargetKind { return KindStaticLibrary }
func (t *StaticLibrary) CommonParams() *Common { return &t.Common }

// Phony performs no compilation; its value lies entirely in its
// run_before/run_after hooks.
type Phony struct {
	Common
}

func (t *Phony) Kind() TargetKind { return KindPhony }
func (t *Phony) CommonParams() *Common { return &t.Common }
