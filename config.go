// Copyright 2026 The Warden Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package warden

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

// ProcessConfig is the immutable launch configuration of one supervised
// process.  Equality of the full configuration -- not object identity --
// decides whether a running process is "the same" across a redeployment,
// so two configs that differ in any field describe two distinct processes.
type ProcessConfig struct {
	// Executable is the full pathname of the program to spawn.
	Executable string

	// Name is a printable name used for logging.  It is required, and it
	// participates in equality: renaming a process replaces it.
	Name string

	// Args are the command line arguments, without the executable.
	Args []string

	// ExtraArgs are appended after Args.  They are kept separate so a
	// deployment can extend a service's stock arguments without
	// rewriting them.
	ExtraArgs []string

	// Dir is the working directory of the process.  Normalize fills in
	// the supervisor's working directory when empty.
	Dir string

	// UID and GID select the identity the process runs under.  Zero
	// values leave the supervisor's own identity in place.
	UID uint32
	GID uint32

	// Env holds extra environment variables, appended to the
	// supervisor's environment.
	Env map[string]string

	// Restart respawns the process when it exits for any reason other
	// than a Stop, subject to the restart storm limit.
	Restart bool
}

// Normalize fills in the defaulted fields and returns the result.  The
// receiver is not modified.
func (c ProcessConfig) Normalize() ProcessConfig {
	if c.Dir == "" {
		if wd, err := os.Getwd(); err == nil {
			c.Dir = wd
		}
	}
	return c
}

// Validate checks the required fields.  It does not touch the filesystem;
// whether the executable actually exists is checked again at start time.
func (c ProcessConfig) Validate() error {
	if c.Executable == "" {
		return ErrNoExecutable
	}
	if c.Name == "" {
		return ErrNoName
	}
	for k := range c.Env {
		if strings.ContainsAny(k, "= \t") {
			return errors.Errorf("bad environment variable name %q", k)
		}
	}
	return nil
}

// Key returns a canonical string covering every field, stable across runs.
// Two configs are equal exactly when their keys are equal, which makes the
// key usable for set difference during reconciliation.
func (c ProcessConfig) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "exe=%q name=%q dir=%q uid=%d gid=%d restart=%v",
		c.Executable, c.Name, c.Dir, c.UID, c.GID, c.Restart)
	fmt.Fprintf(&b, " args=%q extra=%q", c.Args, c.ExtraArgs)
	env := make([]string, 0, len(c.Env))
	for k, v := range c.Env {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	fmt.Fprintf(&b, " env=%q", env)
	return b.String()
}

// Equal reports structural equality of two configurations.
func (c ProcessConfig) Equal(other ProcessConfig) bool {
	return c.Key() == other.Key()
}

// String returns the printable name, for logging.
func (c ProcessConfig) String() string {
	return c.Name
}

// checkExecutable verifies that the configured executable is a regular file
// with an execute bit set.
func (c ProcessConfig) checkExecutable() error {
	fi, err := os.Stat(c.Executable)
	if err != nil || !fi.Mode().IsRegular() || fi.Mode().Perm()&0111 == 0 {
		return errors.Wrap(ErrNotExecutable, c.Executable)
	}
	return nil
}

// command builds a fresh exec.Cmd for this configuration.  A new Cmd is
// required for every spawn; exec.Cmd instances cannot be reused.
func (c ProcessConfig) command() *exec.Cmd {
	args := make([]string, 0, 1+len(c.Args)+len(c.ExtraArgs))
	args = append(args, c.Executable)
	args = append(args, c.Args...)
	args = append(args, c.ExtraArgs...)

	cmd := &exec.Cmd{
		Path: c.Executable,
		Args: args,
		Dir:  c.Dir,
	}
	if len(c.Env) != 0 {
		env := os.Environ()
		keys := make([]string, 0, len(c.Env))
		for k := range c.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			env = append(env, k+"="+c.Env[k])
		}
		cmd.Env = env
	}
	if c.UID != 0 || c.GID != 0 {
		cmd.SysProcAttr = &syscall.SysProcAttr{
			Credential: &syscall.Credential{Uid: c.UID, Gid: c.GID},
		}
	}
	return cmd
}

// dedupeConfigs normalizes the given configs and drops duplicates, keeping
// the first occurrence of each distinct configuration.
func dedupeConfigs(configs []ProcessConfig) map[string]ProcessConfig {
	out := make(map[string]ProcessConfig, len(configs))
	for _, cfg := range configs {
		cfg = cfg.Normalize()
		if _, ok := out[cfg.Key()]; !ok {
			out[cfg.Key()] = cfg
		}
	}
	return out
}
