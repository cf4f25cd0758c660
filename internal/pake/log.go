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
	"fmt"
	"os"

	"github.com/fatih/color"
)

var fatalPrefix = color.New(color.FgRed, color.Bold).SprintFunc()

// Fatal prints a colourized "fatal:" prefixed message to stderr and exits
// with status 1, the terminal outcome for every unrecoverable error in
// spec.md §6.3 and §7's error table. Grounded on kati's log.go Error/
// ErrorNoLocation pair, which also centralises fatal reporting through a
// single exit point; the colour comes from fatih/color, used the same way
// lazydocker colours its own status output.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", fatalPrefix("fatal:"), err)
	os.Exit(1)
}
