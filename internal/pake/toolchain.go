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
	"fmt"
	"path/filepath"

	"github.com/golang/glog"
)

// Toolchain encapsulates every interaction with the C++ compiler and
// archiver, constructed once per build from the selected configuration
// (spec.md §4.5). Apart from its include cache it owns only read-only
// strings, mirroring kati's
// pattern of deriving command lines from a frozen set of variables rather
// than holding subprocess state.
type Toolchain struct {
	BuildDir      string
	Compiler      string
	CompilerFlags []string
	LinkerFlags   []string
	Archiver      string
	AppSuffix     string

	cache *includeCache
}

// NewToolchain builds a Toolchain for the given selected configuration,
// evaluated against env.
func NewToolchain(env *Environment, cfg *Configuration, buildDir string) (*Toolchain, error) {
	compiler, err := env.EvalVariable(ConfigurationScope, cfg.Compiler)
	if err != nil {
		return nil, err
	}
	compilerFlags, err := env.EvalVariable(ConfigurationScope, cfg.CompilerFlags)
	if err != nil {
		return nil, err
	}
	linkerFlags, err := env.EvalVariable(ConfigurationScope, cfg.LinkerFlags)
	if err != nil {
		return nil, err
	}
	archiver, err := env.EvalVariable(ConfigurationScope, cfg.Archiver)
	if err != nil {
		return nil, err
	}
	suffix, err := env.EvalVariable(ConfigurationScope, cfg.ApplicationSuffix)
	if err != nil {
		return nil, err
	}
	if len(compiler) == 0 {
		return nil, fmt.Errorf("configuration %q: compiler is not set", cfg.Name)
	}
	if len(archiver) == 0 {
		return nil, fmt.Errorf("configuration %q: archiver is not set", cfg.Name)
	}
	tc := &Toolchain{
		BuildDir:      buildDir,
		Compiler:      compiler[0],
		CompilerFlags: compilerFlags,
		LinkerFlags:   linkerFlags,
		Archiver:      archiver[0],
		AppSuffix:     joinSuffix(suffix),
		cache:         newIncludeCache(),
	}
	return tc, nil
}

func joinSuffix(parts []string) string {
	s := ""
	for _, p := range parts {
		s += p
	}
	return s
}

// targetCacheDir is the per-target object/include cache directory:
// BUILD_DIR/build.<target>.
func (t *Toolchain) targetCacheDir(target string) string {
	return filepath.Join(t.BuildDir, "build."+target)
}

// ObjectPath is BUILD_DIR/build.<target>/<source-path>.o.
func (t *Toolchain) ObjectPath(target, source string) string {
	return filepath.Join(t.targetCacheDir(target), source+".o")
}

// IncludeCachePath is BUILD_DIR/build.<target>/<source-path>.includes.
func (t *Toolchain) IncludeCachePath(target, source string) string {
	return filepath.Join(t.targetCacheDir(target), source+".includes")
}

// StaticLibraryPath is BUILD_DIR/lib<target>.a.
func (t *Toolchain) StaticLibraryPath(target string) string {
	return filepath.Join(t.BuildDir, "lib"+target+".a")
}

// ApplicationPath is BUILD_DIR/<target><application_suffix>.
func (t *Toolchain) ApplicationPath(target string) string {
	return filepath.Join(t.BuildDir, target+t.AppSuffix)
}

// CompileIfStale recompiles source into its object file for target if stale
// against source, its include list, or any discovered build file (spec.md
// §4.5.2). It reports whether a compile actually ran.
func (t *Toolchain) CompileIfStale(ctx context.Context, target, source string, includeDirs []string, compilerFlags []string, buildFiles []string) (bool, error) {
	object := t.ObjectPath(target, source)
	includes, err := t.cache.includesFor(ctx, t, target, source, includeDirs)
	if err != nil {
		return false, err
	}

	stale := !exists(object) || isNewerThan(source, object) || isAnyNewerThan(includes, object) || isAnyNewerThan(buildFiles, object)
	if !stale {
		glog.V(1).Infof("%s: up to date", object)
		return false, nil
	}

	if err := mkdirAll(filepath.Dir(object)); err != nil {
		return false, err
	}
	argv := []string{t.Compiler}
	argv = append(argv, t.CompilerFlags...)
	argv = append(argv, compilerFlags...)
	for _, dir := range includeDirs {
		argv = append(argv, "-I"+dir)
	}
	argv = append(argv, "-c", "-o", object, source)
	if _, err := runArgv(ctx, ".", argv, nil); err != nil {
		return false, fmt.Errorf("compiling %s: %w", source, err)
	}
	return true, nil
}

// ArchiveIfStale archives objects into target's static library iff any
// object is newer than the existing archive (spec.md §4.5.3).
func (t *Toolchain) ArchiveIfStale(ctx context.Context, target string, objects []string) (bool, error) {
	out := t.StaticLibraryPath(target)
	if exists(out) && !isAnyNewerThan(objects, out) {
		glog.V(1).Infof("%s: up to date", out)
		return false, nil
	}
	argv := append([]string{t.Archiver, "-rcs", out}, objects...)
	if _, err := runArgv(ctx, ".", argv, nil); err != nil {
		return false, fmt.Errorf("archiving %s: %w", target, err)
	}
	return true, nil
}

// LinkIfStale links objects (and referenced static libraries) into target's
// application iff any input is newer than the existing application
// (spec.md §4.5.4).
func (t *Toolchain) LinkIfStale(ctx context.Context, target string, objects []string, libraryArtefacts []string, libraryDirs []string, linkWith []string) (bool, error) {
	out := t.ApplicationPath(target)
	inputs := append(append([]string{}, objects...), libraryArtefacts...)
	if exists(out) && !isAnyNewerThan(inputs, out) {
		glog.V(1).Infof("%s: up to date", out)
		return false, nil
	}

	argv := []string{t.Compiler}
	argv = append(argv, t.LinkerFlags...)
	argv = append(argv, "-o", out)
	argv = append(argv, objects...)
	argv = append(argv, "-L", t.BuildDir)
	for _, dir := range libraryDirs {
		argv = append(argv, "-L"+dir)
	}
	for _, lib := range linkWith {
		argv = append(argv, "-l"+lib)
	}
	if _, err := runArgv(ctx, ".", argv, nil); err != nil {
		return false, fmt.Errorf("linking %s: %w", target, err)
	}
	return true, nil
}
