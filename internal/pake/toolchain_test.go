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
	"context"
	"os"
	"path/filepath"
	"testing"
)

// fakeTool writes a shell script to dir/name that exits 0 and, when called
// with "-M", prints a dependency line naming no headers; otherwise it creates
// the file named by the argument following "-o" or "-rcs" (and creates
// nothing if neither is present). This stands in for a
// compiler/archiver/linker without depending on one being installed.
func fakeTool(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := `#!/bin/sh
out=""
prev=""
is_m=0
for arg in "$@"; do
  if [ "$arg" = "-M" ]; then
    is_m=1
  fi
  if [ "$prev" = "-o" ] || [ "$prev" = "-rcs" ]; then
    out="$arg"
  fi
  prev="$arg"
done
if [ "$is_m" = "1" ]; then
  echo "target.o: main.cpp"
  exit 0
fi
if [ -n "$out" ]; then
  : > "$out"
fi
`
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestToolchainPaths(t *testing.T) {
	tc := &Toolchain{BuildDir: "/build/__default", AppSuffix: ""}
	if got, want := tc.ObjectPath("app", "src/main.cpp"), "/build/__default/build.app/src/main.cpp.o"; got != want {
		t.Errorf("ObjectPath = %q, want %q", got, want)
	}
	if got, want := tc.StaticLibraryPath("util"), "/build/__default/libutil.a"; got != want {
		t.Errorf("StaticLibraryPath = %q, want %q", got, want)
	}
	if got, want := tc.ApplicationPath("app"), "/build/__default/app"; got != want {
		t.Errorf("ApplicationPath = %q, want %q", got, want)
	}
	if got, want := tc.IncludeCachePath("app", "main.cpp"), "/build/__default/build.app/main.cpp.includes"; got != want {
		t.Errorf("IncludeCachePath = %q, want %q", got, want)
	}
}

func TestCompileIfStaleCompilesOnce(t *testing.T) {
	dir := t.TempDir()
	compiler := fakeTool(t, dir, "cc")

	source := filepath.Join(dir, "main.cpp")
	if err := os.WriteFile(source, []byte("int main(){}"), 0o644); err != nil {
		t.Fatal(err)
	}

	tc := &Toolchain{BuildDir: filepath.Join(dir, "__build"), Compiler: compiler, Archiver: compiler, cache: newIncludeCache()}

	ctx := context.Background()
	compiled, err := tc.CompileIfStale(ctx, "app", source, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !compiled {
		t.Fatal("expected first compile to run")
	}
	if !exists(tc.ObjectPath("app", source)) {
		t.Fatal("expected object file to exist")
	}

	compiled, err = tc.CompileIfStale(ctx, "app", source, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if compiled {
		t.Error("expected second compile to be a no-op (object up to date)")
	}
}

func TestArchiveIfStale(t *testing.T) {
	dir := t.TempDir()
	archiver := fakeTool(t, dir, "ar")
	obj := filepath.Join(dir, "a.o")
	os.WriteFile(obj, []byte("x"), 0o644)

	tc := &Toolchain{BuildDir: dir, Archiver: archiver}
	ctx := context.Background()

	archived, err := tc.ArchiveIfStale(ctx, "util", []string{obj})
	if err != nil {
		t.Fatal(err)
	}
	if !archived {
		t.Fatal("expected first archive to run")
	}

	archived, err = tc.ArchiveIfStale(ctx, "util", []string{obj})
	if err != nil {
		t.Fatal(err)
	}
	if archived {
		t.Error("expected second archive to be a no-op")
	}
}

func TestLinkIfStale(t *testing.T) {
	dir := t.TempDir()
	compiler := fakeTool(t, dir, "cc")
	obj := filepath.Join(dir, "main.o")
	os.WriteFile(obj, []byte("x"), 0o644)

	tc := &Toolchain{BuildDir: dir, Compiler: compiler}
	ctx := context.Background()

	linked, err := tc.LinkIfStale(ctx, "app", []string{obj}, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !linked {
		t.Fatal("expected first link to run")
	}

	linked, err = tc.LinkIfStale(ctx, "app", []string{obj}, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if linked {
		t.Error("expected second link to be a no-op")
	}
}
