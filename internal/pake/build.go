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
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Builder walks the dependency DAG and drives the Toolchain, implementing
// spec.md §4.6's orchestrator and §5's concurrency model. One Builder is
// created per process invocation. Its shape — a single controller
// dispatching semaphore-gated workers per compile phase, joining before
// archiving/linking — is grounded on kati's worker.go/para.go pattern of a
// bounded worker pool feeding a DAG walk, adapted per spec.md §9's REDESIGN
// FLAG to use golang.org/x/sync's errgroup+semaphore instead of a
// hand-rolled channel manager.
type Builder struct {
	World      *World
	Toolchain  *Toolchain
	ConfigName string
	BuildFiles []string

	sem  *semaphore.Weighted
	done map[string]bool
	vis  map[string]bool
}

// NewBuilder creates a Builder bounded to jobs concurrent compile
// subprocesses (spec.md §5's "no more than jobs compile subprocesses run
// concurrently across the entire build").
func NewBuilder(world *World, tc *Toolchain, configName string, buildFiles []string, jobs int) *Builder {
	if jobs < 1 {
		jobs = 1
	}
	return &Builder{
		World:      world,
		Toolchain:  tc,
		ConfigName: configName,
		BuildFiles: buildFiles,
		sem:        semaphore.NewWeighted(int64(jobs)),
		done:       make(map[string]bool),
		vis:        make(map[string]bool),
	}
}

// BuildAll builds every target visible in the current configuration,
// announcing and skipping invisible ones (spec.md §4.6's build_all).
func (b *Builder) BuildAll(ctx context.Context) error {
	for _, name := range b.World.Targets.Names() {
		target, _ := b.World.Targets.Get(name)
		visible, err := b.isVisible(target)
		if err != nil {
			return err
		}
		if !visible {
			glog.Infof("%s: not visible in configuration %q, skipping", name, b.ConfigName)
			continue
		}
		if err := b.Build(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) isVisible(target Target) (bool, error) {
	common := target.CommonParams()
	visibleIn, err := b.World.Env.EvalVariable(common.Scope, common.VisibleIn)
	if err != nil {
		return false, err
	}
	if len(visibleIn) == 0 {
		return true, nil
	}
	for _, name := range visibleIn {
		if name == b.ConfigName {
			return true, nil
		}
	}
	return false, nil
}

// Build builds the named target, recursively building its dependencies
// first, per spec.md §4.6's build(name) algorithm. It is idempotent: a
// target already built in this invocation is not built again.
func (b *Builder) Build(ctx context.Context, name string) error {
	if err := mkdirAll(b.Toolchain.BuildDir); err != nil {
		return fmt.Errorf("creating build directory: %w", err)
	}
	if b.done[name] {
		return nil
	}

	target, ok := b.World.Targets.Get(name)
	if !ok {
		return fmt.Errorf("unknown target %q", name)
	}
	if b.vis[name] {
		return fmt.Errorf("dependency cycle detected at target %q", name)
	}
	b.vis[name] = true
	defer delete(b.vis, name)

	visible, err := b.isVisible(target)
	if err != nil {
		return err
	}
	if !visible {
		return fmt.Errorf("target %q is not visible in configuration %q", name, b.ConfigName)
	}

	common := target.CommonParams()
	deps, err := b.World.Env.EvalVariable(common.Scope, common.DependsOn)
	if err != nil {
		return err
	}
	for _, dep := range deps {
		if err := b.Build(ctx, dep); err != nil {
			return err
		}
	}

	if err := b.runHooks(ctx, target, common.RunBefore); err != nil {
		return err
	}

	var objects []string
	switch t := target.(type) {
	case *Phony:
		if err := b.buildPhony(t); err != nil {
			return err
		}
	case *StaticLibrary:
		objects, err = b.compileSources(ctx, t.Name, t.Common.Scope, t.Sources, t.IncludeDirs, t.CompilerFlags)
		if err != nil {
			return err
		}
		if _, err := b.Toolchain.ArchiveIfStale(ctx, t.Name, objects); err != nil {
			return err
		}
	case *Application:
		objects, err = b.compileSources(ctx, t.Name, t.Common.Scope, t.Sources, t.IncludeDirs, t.CompilerFlags)
		if err != nil {
			return err
		}
		libraryArtefacts, libraryDirs, linkWith, err := b.applicationLinkInputs(t)
		if err != nil {
			return err
		}
		if _, err := b.Toolchain.LinkIfStale(ctx, t.Name, objects, libraryArtefacts, libraryDirs, linkWith); err != nil {
			return err
		}
	default:
		return fmt.Errorf("target %q: unrecognised target kind %T", name, target)
	}

	if err := b.runHooks(ctx, target, common.RunAfter); err != nil {
		return err
	}

	if err := b.copyResources(target); err != nil {
		return err
	}

	b.done[name] = true
	return nil
}

func (b *Builder) buildPhony(t *Phony) error {
	artefacts, err := b.World.Env.EvalVariable(t.Scope, t.Artefacts)
	if err != nil {
		return err
	}
	prereqs, err := b.World.Env.EvalVariable(t.Scope, t.Prereqs)
	if err != nil {
		return err
	}
	if len(artefacts) == 0 && len(prereqs) == 0 {
		glog.Warningf("target %q: phony target with empty artefacts and prerequisites; hooks run unconditionally", t.Name)
	}
	return nil
}

// applicationLinkInputs resolves link_with library names into their
// static-library artefact paths (for staleness comparison) plus the
// library_dirs and link_with name lists the link command line needs.
func (b *Builder) applicationLinkInputs(t *Application) (artefacts, dirs, names []string, err error) {
	names, err = b.World.Env.EvalVariable(t.Common.Scope, t.LinkWith)
	if err != nil {
		return nil, nil, nil, err
	}
	dirs, err = b.World.Env.EvalVariable(t.Common.Scope, t.LibraryDirs)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, lib := range names {
		if _, ok := b.World.Targets.Get(lib); ok {
			artefacts = append(artefacts, b.Toolchain.StaticLibraryPath(lib))
		}
	}
	return artefacts, dirs, names, nil
}

// compileSources compiles every source in declaration order, fanning out
// across b.sem-gated workers, and returns their object paths in source
// order regardless of completion order (spec.md §5's ordering guarantee).
func (b *Builder) compileSources(ctx context.Context, target, scope string, sourcesVar, includeDirsVar, compilerFlagsVar *Variable) ([]string, error) {
	sources, err := b.World.Env.EvalVariable(scope, sourcesVar)
	if err != nil {
		return nil, err
	}
	includeDirs, err := b.World.Env.EvalVariable(scope, includeDirsVar)
	if err != nil {
		return nil, err
	}
	compilerFlags, err := b.World.Env.EvalVariable(scope, compilerFlagsVar)
	if err != nil {
		return nil, err
	}

	objects := make([]string, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, source := range sources {
		i, source := i, source
		objects[i] = b.Toolchain.ObjectPath(target, source)
		g.Go(func() error {
			if err := b.sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer b.sem.Release(1)
			_, err := b.Toolchain.CompileIfStale(gctx, target, source, includeDirs, compilerFlags, b.BuildFiles)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("target %q: %w", target, err)
	}
	return objects, nil
}

// runHooks executes every command in hookVar, gated by the artefact /
// prerequisite staleness rule of spec.md §4.7.
func (b *Builder) runHooks(ctx context.Context, target Target, hookVar *Variable) error {
	if hookVar.Empty() {
		return nil
	}
	common := target.CommonParams()
	commands, err := b.World.Env.EvalVariable(common.Scope, hookVar)
	if err != nil {
		return err
	}
	if len(commands) == 0 {
		return nil
	}

	artefacts, err := b.World.Env.EvalVariable(common.Scope, common.Artefacts)
	if err != nil {
		return err
	}
	prereqs, err := b.World.Env.EvalVariable(common.Scope, common.Prereqs)
	if err != nil {
		return err
	}
	if len(artefacts) > 0 && len(prereqs) > 0 && !anyPrereqNewerThanAnyArtefact(prereqs, artefacts) {
		glog.V(1).Infof("target %q: hooks up to date", common.Name)
		return nil
	}

	env, err := b.World.Env.ExportEnv(common.Scope)
	if err != nil {
		return err
	}
	for _, command := range commands {
		if _, err := runShell(ctx, common.RootPath, command, env); err != nil {
			return err
		}
	}
	return nil
}

// copyResources copies every evaluated resources entry into the build
// directory, last among a target's build steps (spec.md §4.6 step 8).
func (b *Builder) copyResources(target Target) error {
	common := target.CommonParams()
	resources, err := b.World.Env.EvalVariable(common.Scope, common.Resources)
	if err != nil {
		return err
	}
	for _, res := range resources {
		dst := filepath.Join(b.Toolchain.BuildDir, filepath.Base(res))
		if err := copyResourceIfStale(res, dst); err != nil {
			return err
		}
	}
	return nil
}

// anyPrereqNewerThanAnyArtefact implements the hook staleness predicate of
// spec.md §4.7 literally: "run iff any prerequisite is newer than any
// artefact".
func anyPrereqNewerThanAnyArtefact(prereqs, artefacts []string) bool {
	for _, p := range prereqs {
		for _, a := range artefacts {
			if isNewerThan(p, a) {
				return true
			}
		}
	}
	return false
}
