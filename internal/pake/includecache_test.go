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
	"reflect"
	"testing"
	"time"
)

func TestIncludeCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.cpp.includes")
	want := []string{"a.h", "b.h"}

	if err := saveIncludeCache(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := loadIncludeCache(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip = %v, want %v", got, want)
	}
}

func TestScanIncludesDiscardsFirstTwoTokensAndContinuations(t *testing.T) {
	dir := t.TempDir()
	compiler := filepath.Join(dir, "cc")
	// Mimics `cc -M main.cpp` output: target, source, then headers with a
	// line-continuation backslash.
	script := "#!/bin/sh\n" + `printf 'main.o: main.cpp a.h \\\n  b.h\n'` + "\n"
	if err := os.WriteFile(compiler, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	tc := &Toolchain{Compiler: compiler}
	includes, err := scanIncludes(context.Background(), tc, "main.cpp", nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a.h", "b.h"}
	if !reflect.DeepEqual(includes, want) {
		t.Errorf("includes = %v, want %v", includes, want)
	}
}

func TestIncludesForUsesCacheWhenFresh(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "main.cpp")
	if err := os.WriteFile(source, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Backdate source well clear of the cache file's write time below, so
	// the freshness comparison can't land on a filesystem-timestamp tie.
	if err := os.Chtimes(source, time.Now().Add(-time.Hour), time.Now().Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}

	compiler := filepath.Join(dir, "cc")
	calls := filepath.Join(dir, "calls")
	script := "#!/bin/sh\necho x >> '" + calls + "'\necho 'main.o: main.cpp a.h'\n"
	if err := os.WriteFile(compiler, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	tc := &Toolchain{BuildDir: filepath.Join(dir, "__build"), Compiler: compiler, cache: newIncludeCache()}
	ctx := context.Background()

	if _, err := tc.cache.includesFor(ctx, tc, "app", source, nil); err != nil {
		t.Fatal(err)
	}
	firstCalls, _ := os.ReadFile(calls)

	if _, err := tc.cache.includesFor(ctx, tc, "app", source, nil); err != nil {
		t.Fatal(err)
	}
	secondCalls, _ := os.ReadFile(calls)

	if len(secondCalls) != len(firstCalls) {
		t.Errorf("expected cache hit to avoid a second compiler invocation: first=%q second=%q", firstCalls, secondCalls)
	}
}
