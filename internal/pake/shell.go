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
	"fmt"
	"os/exec"

	"github.com/golang/glog"
)

// runArgv runs argv[0] with the remaining elements as arguments, in dir,
// with extraEnv appended to the inherited process environment. It is the
// sole way this package invokes a compiler, archiver, or linker: always an
// argv vector, never a shell (spec.md §9's design note — "subprocess
// invocation is argv-vector, not shell-interpreted, except for
// run_before/run_after hook commands"). Grounded on kati's own os/exec usage
// in exec.go, generalized to capture combined output for error reporting.
func runArgv(ctx context.Context, dir string, argv []string, extraEnv []string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	glog.V(2).Infof("exec: %v (dir=%q)", argv, dir)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	if len(extraEnv) > 0 {
		cmd.Env = append(cmd.Environ(), extraEnv...)
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return out.Bytes(), fmt.Errorf("%v: %w\n%s", argv, err, out.Bytes())
	}
	return out.Bytes(), nil
}

// runShell runs command through /bin/sh -c, in dir, with extraEnv appended.
// This is reserved for run_before/run_after hook commands, which spec.md
// §4.4 defines as shell command lines (they may contain pipes, redirects,
// and further variable expansion done by the shell itself), unlike the
// fixed argv vectors used for compiler invocation.
func runShell(ctx context.Context, dir, command string, extraEnv []string) ([]byte, error) {
	glog.V(1).Infof("hook: %s (dir=%q)", command, dir)
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	cmd.Dir = dir
	if len(extraEnv) > 0 {
		cmd.Env = append(cmd.Environ(), extraEnv...)
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return out.Bytes(), fmt.Errorf("hook %q: %w\n%s", command, err, out.Bytes())
	}
	return out.Bytes(), nil
}
