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

// Command pake is the CLI front-end for the build system implemented by
// internal/pake: it discovers *.pake build files under the working
// directory, parses them, and drives a build.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/podusowski/pake/internal/pake"
)

var (
	allFlag    bool
	configFlag string
	jobsFlag   int
)

// buildCmd implements spec.md §6.3's `build [TARGET…] [-a|--all] [-c CONFIG]
// [-j JOBS]`, grounded on the cobra.Command wiring of Harvx's root.go:
// flags bound once in init, validated and acted on in RunE.
var buildCmd = &cobra.Command{
	Use:   "build [target...]",
	Short: "Build one or more targets from the discovered .pake tree",
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().BoolVarP(&allFlag, "all", "a", false, "build every visible target in the current configuration")
	buildCmd.Flags().StringVarP(&configFlag, "configuration", "c", pake.DefaultConfigurationName, "configuration to build with")
	buildCmd.Flags().IntVarP(&jobsFlag, "jobs", "j", 1, "maximum concurrent compile workers")
}

// translateDebugEnv turns spec.md §6.4's $DEBUG into glog's own verbosity
// flags, the same knobs kati's -v/-logtostderr flags expose, since this
// command binds its flags through cobra rather than the flag package kati
// parses directly in main.go.
func translateDebugEnv() {
	flag.Set("logtostderr", "true")
	if os.Getenv("DEBUG") != "" {
		flag.Set("v", "1")
		glog.Infof("debug tracing enabled via $DEBUG")
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	translateDebugEnv()

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	buildFiles, err := pake.DiscoverBuildFiles(cwd)
	if err != nil {
		return err
	}

	world := pake.NewWorld()
	for _, f := range buildFiles {
		if err := pake.ParseBuildFile(world, f); err != nil {
			return err
		}
	}
	world.BuildFiles = buildFiles

	if len(args) == 0 && !allFlag {
		printRegistry(world)
		return nil
	}

	cfg, err := world.SelectConfiguration(configFlag)
	if err != nil {
		return err
	}
	buildDir := filepath.Join(cwd, "__build", cfg.Name)
	world.InjectBuildDir(buildDir)

	toolchain, err := pake.NewToolchain(world.Env, cfg, buildDir)
	if err != nil {
		return err
	}

	builder := pake.NewBuilder(world, toolchain, cfg.Name, buildFiles, jobsFlag)

	ctx := context.Background()
	if allFlag {
		return builder.BuildAll(ctx)
	}
	for _, name := range args {
		if err := builder.Build(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func printRegistry(world *pake.World) {
	fmt.Println("targets:")
	for _, name := range world.Targets.Names() {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println("configurations:")
	for _, name := range world.Configs.Names() {
		fmt.Printf("  %s\n", name)
	}
}

func main() {
	defer glog.Flush()
	if err := buildCmd.Execute(); err != nil {
		pake.Fatal(err)
	}
}
