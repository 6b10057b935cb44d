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
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFuture(t *testing.T) {
	Convey("Futures settle exactly once", t, func() {
		f := newFuture()
		So(f.Err(), ShouldBeNil)
		So(f.Pid(), ShouldEqual, -1)

		f.resolve(42)
		f.reject(errors.New("too late"))
		So(f.Wait(context.Background()), ShouldBeNil)
		So(f.Pid(), ShouldEqual, 42)

		Convey("A rejected future reports its error", func() {
			g := failedFuture(errors.New("boom"))
			So(g.Wait(context.Background()), ShouldNotBeNil)
		})

		Convey("Wait honors context cancellation", func() {
			pending := newFuture()
			ctx, cancel := context.WithTimeout(
				context.Background(), 10*time.Millisecond)
			defer cancel()
			So(pending.Wait(ctx), ShouldEqual, context.DeadlineExceeded)
		})
	})
}

func TestWaitAll(t *testing.T) {
	Convey("waitAll awaits every future and aggregates failures", t, func() {
		ctx := context.Background()

		Convey("All successes aggregate to nil", func() {
			fs := []*Future{resolvedFuture(1), resolvedFuture(2)}
			So(waitAll(ctx, fs), ShouldBeNil)
		})

		Convey("A single failure is returned as-is", func() {
			cause := errors.New("broken")
			fs := []*Future{resolvedFuture(1), failedFuture(cause)}
			So(waitAll(ctx, fs), ShouldEqual, cause)
		})

		Convey("Multiple failures keep the first as cause", func() {
			first := errors.New("first")
			fs := []*Future{
				failedFuture(first),
				failedFuture(errors.New("second")),
			}
			err := waitAll(ctx, fs)
			So(err, ShouldNotBeNil)
			So(errors.Cause(err), ShouldEqual, first)
		})

		Convey("Late futures are still awaited", func() {
			slow := newFuture()
			go func() {
				time.Sleep(20 * time.Millisecond)
				slow.resolve(7)
			}()
			So(waitAll(ctx, []*Future{slow}), ShouldBeNil)
		})
	})
}
