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
	"os"
	"path/filepath"
	"testing"
)

func parseString(t *testing.T, world *World, name, content string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ParseBuildFile(world, path); err != nil {
		t.Fatalf("ParseBuildFile(%s): %v", name, err)
	}
}

func TestParseSetAndAppend(t *testing.T) {
	world := NewWorld()
	parseString(t, world, "flags.pake", "set $warn -Wall\nappend $warn -Wextra\n")

	got, err := world.Env.Eval("flags", "warn")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"-Wall", "-Wextra"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("warn = %v, want %v", got, want)
	}
}

func TestParseSetMultipleValuesWarnsAndAppends(t *testing.T) {
	world := NewWorld()
	parseString(t, world, "flags.pake", "set $warn -Wall -Wextra -Werror\n")

	got, err := world.Env.Eval("flags", "warn")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"-Wall", "-Wextra", "-Werror"}
	if len(got) != len(want) {
		t.Fatalf("warn = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("warn[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseApplicationTarget(t *testing.T) {
	world := NewWorld()
	parseString(t, world, "app.pake", "target application hello \\\n"+
		"    sources (main.cpp) \\\n"+
		"    depends_on (util)\n")

	target, ok := world.Targets.Get("hello")
	if !ok {
		t.Fatal("target hello not found")
	}
	app, ok := target.(*Application)
	if !ok {
		t.Fatalf("target is %T, want *Application", target)
	}
	sources, err := world.Env.EvalVariable(app.Scope, app.Sources)
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 1 || sources[0] != "main.cpp" {
		t.Errorf("sources = %v", sources)
	}
	deps, err := world.Env.EvalVariable(app.Scope, app.DependsOn)
	if err != nil {
		t.Fatal(err)
	}
	if len(deps) != 1 || deps[0] != "util" {
		t.Errorf("depends_on = %v", deps)
	}
}

func TestParseStaticLibraryTarget(t *testing.T) {
	world := NewWorld()
	parseString(t, world, "lib.pake", "target static_library util \\\n"+
		"    sources (a.cpp b.cpp)\n")

	target, ok := world.Targets.Get("util")
	if !ok {
		t.Fatal("target util not found")
	}
	lib, ok := target.(*StaticLibrary)
	if !ok {
		t.Fatalf("target is %T, want *StaticLibrary", target)
	}
	sources, err := world.Env.EvalVariable(lib.Scope, lib.Sources)
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 {
		t.Errorf("sources = %v", sources)
	}
}

func TestParsePhonyRejectsSources(t *testing.T) {
	world := NewWorld()
	dir := t.TempDir()
	path := filepath.Join(dir, "p.pake")
	os.WriteFile(path, []byte("target phony clean \\\n    sources (a.cpp)\n"), 0o644)
	if err := ParseBuildFile(world, path); err == nil {
		t.Fatal("expected error: phony targets do not accept sources")
	}
}

func TestParseDuplicateTargetIsFatal(t *testing.T) {
	world := NewWorld()
	dir := t.TempDir()
	path := filepath.Join(dir, "d.pake")
	content := "target phony a\ntarget phony a\n"
	os.WriteFile(path, []byte(content), 0o644)
	if err := ParseBuildFile(world, path); err == nil {
		t.Fatal("expected error for duplicate target")
	}
}

func TestParseConfiguration(t *testing.T) {
	world := NewWorld()
	parseString(t, world, "conf.pake", "configuration debug \\\n"+
		"    compiler (gcc) \\\n"+
		"    compiler_flags (-g -O0) \\\n"+
		"    export (debug:$__name)\n")

	cfg, err := world.Configs.Get("debug")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Compiler.String() != "gcc" {
		t.Errorf("compiler = %q", cfg.Compiler.String())
	}
	if len(cfg.Export) != 1 || cfg.Export[0].Name != "__name" {
		t.Errorf("export = %+v", cfg.Export)
	}
}

func TestParseUnknownDirectiveFails(t *testing.T) {
	world := NewWorld()
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.pake")
	os.WriteFile(path, []byte("unknown_directive foo\n"), 0o644)
	if err := ParseBuildFile(world, path); err == nil {
		t.Fatal("expected error for unknown directive")
	}
}

func TestParseEmptyFile(t *testing.T) {
	world := NewWorld()
	parseString(t, world, "empty.pake", "")
	if len(world.Targets.Names()) != 0 {
		t.Errorf("expected no targets, got %v", world.Targets.Names())
	}
}

func TestParseCrossModuleVariable(t *testing.T) {
	world := NewWorld()
	parseString(t, world, "flags.pake", "set $warn -Wall\nappend $warn -Wextra\n")
	parseString(t, world, "app.pake", "target application app \\\n"+
		"    compiler_flags ($flags.warn)\n")

	target, _ := world.Targets.Get("app")
	app := target.(*Application)
	got, err := world.Env.EvalVariable(app.Scope, app.CompilerFlags)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "-Wall" || got[1] != "-Wextra" {
		t.Errorf("compiler_flags = %v", got)
	}
}
