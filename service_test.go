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

//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package warden

import (
	"syscall"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func testController(t *testing.T, name string) *Controller {
	c := NewController(name)
	c.SetGracePeriod(150 * time.Millisecond)
	c.SetStopTimeout(2 * time.Second)
	c.SetLogger(testLogger(t))
	return c
}

func pids(c *Controller) map[string]int {
	out := make(map[string]int)
	for _, h := range c.Handles() {
		out[h.Name()] = h.Pid()
	}
	return out
}

func TestControllerIdempotentStart(t *testing.T) {
	Convey("Redeploying an identical config list touches nothing", t, func() {
		c := testController(t, "svc")
		configs := []ProcessConfig{
			scriptConfig("one", "run", "3600"),
			scriptConfig("two", "run", "3600"),
		}

		So(waitFor(c.Start(configs)), ShouldBeNil)
		So(len(c.Handles()), ShouldEqual, 2)
		before := pids(c)

		So(waitFor(c.Start(configs)), ShouldBeNil)
		So(pids(c), ShouldResemble, before)

		So(waitFor(c.Stop()), ShouldBeNil)
		So(len(c.Handles()), ShouldEqual, 0)
	})
}

func TestControllerDedupe(t *testing.T) {
	Convey("Duplicate configs collapse to a single process", t, func() {
		c := testController(t, "svc")
		cfg := scriptConfig("one", "run", "3600")
		So(waitFor(c.Start([]ProcessConfig{cfg, cfg, cfg})), ShouldBeNil)
		So(len(c.Handles()), ShouldEqual, 1)
		So(waitFor(c.Stop()), ShouldBeNil)
	})
}

func TestControllerReplace(t *testing.T) {
	Convey("A changed config stops the old process before the new one spawns", t, func() {
		c := testController(t, "svc")
		a := scriptConfig("a", "run", "3600")
		So(waitFor(c.Start([]ProcessConfig{a})), ShouldBeNil)
		oldPid := c.Handles()[0].Pid()
		So(oldPid, ShouldBeGreaterThan, 0)

		b := scriptConfig("b", "run", "3600")
		So(waitFor(c.Start([]ProcessConfig{b})), ShouldBeNil)

		hs := c.Handles()
		So(len(hs), ShouldEqual, 1)
		So(hs[0].Name(), ShouldEqual, "svc:b")
		So(hs[0].State(), ShouldEqual, StateStarted)
		// The old process is gone, not merely signalled.
		So(syscall.Kill(oldPid, 0), ShouldNotBeNil)

		So(waitFor(c.Stop()), ShouldBeNil)
	})
}

func TestControllerPartialUpdate(t *testing.T) {
	Convey("Only the changed slot of a two-process service is replaced", t, func() {
		c := testController(t, "svc")
		keep := scriptConfig("keep", "run", "3600")
		old := scriptConfig("old", "run", "3600")
		So(waitFor(c.Start([]ProcessConfig{keep, old})), ShouldBeNil)
		keepPid := pids(c)["svc:keep"]

		repl := scriptConfig("new", "run", "3600")
		So(waitFor(c.Start([]ProcessConfig{keep, repl})), ShouldBeNil)

		after := pids(c)
		So(len(after), ShouldEqual, 2)
		So(after["svc:keep"], ShouldEqual, keepPid)
		So(after, ShouldContainKey, "svc:new")
		So(after, ShouldNotContainKey, "svc:old")

		So(waitFor(c.Stop()), ShouldBeNil)
	})
}

func TestControllerAggregateFailure(t *testing.T) {
	Convey("One failing start fails the batch but leaves the rest running", t, func() {
		c := testController(t, "svc")
		good := scriptConfig("good", "run", "3600")
		bad := scriptConfig("bad", "fail")

		e := waitFor(c.Start([]ProcessConfig{good, bad}))
		So(e, ShouldNotBeNil)

		states := make(map[string]State)
		for _, h := range c.Handles() {
			states[h.Name()] = h.State()
		}
		So(states["svc:good"], ShouldEqual, StateStarted)
		So(states["svc:bad"], ShouldEqual, StateError)

		So(waitFor(c.Stop()), ShouldBeNil)
	})
}

func TestControllerConfigError(t *testing.T) {
	Convey("A malformed config is rejected before anything is touched", t, func() {
		c := testController(t, "svc")
		running := scriptConfig("one", "run", "3600")
		So(waitFor(c.Start([]ProcessConfig{running})), ShouldBeNil)
		before := pids(c)

		e := waitFor(c.Start([]ProcessConfig{{Name: "noexe"}}))
		So(e, ShouldNotBeNil)
		// The running set was not disturbed by the failed deployment.
		So(pids(c), ShouldResemble, before)

		So(waitFor(c.Stop()), ShouldBeNil)
	})
}

func TestControllerProperties(t *testing.T) {
	Convey("Capability properties are declared and discoverable", t, func() {
		c := testController(t, "svc")
		c.SetProperty(PropProvides, []string{"payloads"})
		v, ok := c.Property(PropProvides)
		So(ok, ShouldBeTrue)
		So(v, ShouldResemble, []string{"payloads"})
		So(c.Properties(), ShouldContainKey, PropProvides)
	})
}
