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
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMessageBuffer(t *testing.T) {
	Convey("Given an empty message buffer", t, func() {
		b := newMessageBuffer()
		So(b.Lines(), ShouldBeEmpty)

		Convey("A few lines come back in order", func() {
			b.Append("one")
			b.Append("two")
			So(b.Lines(), ShouldResemble, []string{"one", "two"})
		})

		Convey("Writing 15 lines leaves exactly the last 10, in order", func() {
			for i := 1; i <= 15; i++ {
				b.Append(fmt.Sprintf("line %d", i))
			}
			lines := b.Lines()
			So(len(lines), ShouldEqual, MessageLines)
			So(lines[0], ShouldEqual, "line 6")
			So(lines[9], ShouldEqual, "line 15")
		})

		Convey("Clear drops everything", func() {
			b.Append("junk")
			b.Clear()
			So(b.Lines(), ShouldBeEmpty)
			b.Append("fresh")
			So(b.Lines(), ShouldResemble, []string{"fresh"})
		})
	})
}
