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
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang/glog"
)

// includeCache scans and persists per-source transitive include lists
// (spec.md §4.5.1). Persistence uses encoding/gob, the stable binary
// serialisation kati's own serialize.go reaches for when caching derived
// build state across invocations, rather than a hand-rolled format.
type includeCache struct {
	mu sync.Mutex
}

func newIncludeCache() *includeCache {
	return &includeCache{}
}

// includesFor returns source's transitive include list, either from a
// fresh on-disk cache or by invoking the compiler's -M flag and persisting
// the result.
func (c *includeCache) includesFor(ctx context.Context, t *Toolchain, target, source string, includeDirs []string) ([]string, error) {
	cachePath := t.IncludeCachePath(target, source)

	if exists(cachePath) && isNewerThan(cachePath, source) {
		includes, err := loadIncludeCache(cachePath)
		if err == nil {
			return includes, nil
		}
		glog.Warningf("%s: corrupt include cache, rescanning: %v", cachePath, err)
	}

	includes, err := scanIncludes(ctx, t, source, includeDirs)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := mkdirAll(filepath.Dir(cachePath)); err != nil {
		return nil, err
	}
	if err := saveIncludeCache(cachePath, includes); err != nil {
		return nil, fmt.Errorf("persisting include cache %s: %w", cachePath, err)
	}
	return includes, nil
}

// scanIncludes invokes `COMPILER COMPILER_FLAGS <includeDirs> -M source`,
// parses the Makefile-dependency-rule output, and discards the first two
// whitespace-separated tokens (the rule's target name and the source file
// itself) plus any bare line-continuation backslash, per spec.md §4.5.1.
func scanIncludes(ctx context.Context, t *Toolchain, source string, includeDirs []string) ([]string, error) {
	argv := []string{t.Compiler}
	argv = append(argv, t.CompilerFlags...)
	for _, dir := range includeDirs {
		argv = append(argv, "-I"+dir)
	}
	argv = append(argv, "-M", source)

	out, err := runArgv(ctx, ".", argv, nil)
	if err != nil {
		return nil, fmt.Errorf("scanning includes for %s: %w", source, err)
	}

	fields := strings.Fields(string(out))
	if len(fields) < 2 {
		return nil, nil
	}
	var includes []string
	for _, f := range fields[2:] {
		if f == "\\" {
			continue
		}
		includes = append(includes, f)
	}
	return includes, nil
}

func loadIncludeCache(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var includes []string
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&includes); err != nil {
		return nil, err
	}
	return includes, nil
}

func saveIncludeCache(path string, includes []string) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(includes); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
