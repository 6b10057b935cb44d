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

func TestLogRecords(t *testing.T) {
	Convey("Given a fresh daemon log", t, func() {
		l := NewLog()
		recs, id := l.GetRecords(0)
		So(recs, ShouldBeEmpty)
		So(id, ShouldBeGreaterThan, 0)

		Convey("Writes become ordered records", func() {
			l.Write([]byte("first\n"))
			l.Write([]byte("second\nthird\n"))
			recs, next := l.GetRecords(0)
			So(len(recs), ShouldEqual, 3)
			So(recs[0].Text, ShouldEqual, "first")
			So(recs[2].Text, ShouldEqual, "third")
			So(next, ShouldEqual, recs[2].Id)
			So(recs[1].Id, ShouldBeGreaterThan, recs[0].Id)

			Convey("Polling with the newest id yields nothing", func() {
				again, same := l.GetRecords(next)
				So(again, ShouldBeNil)
				So(same, ShouldEqual, next)
			})

			Convey("Clear reseeds the id", func() {
				l.Clear()
				recs, fresh := l.GetRecords(next)
				So(recs, ShouldBeEmpty)
				So(fresh, ShouldNotEqual, next)
			})
		})

		Convey("The ring retains only the newest records", func() {
			for i := 0; i < MaxLogRecords+5; i++ {
				l.Write([]byte(fmt.Sprintf("entry %d\n", i)))
			}
			recs, _ := l.GetRecords(0)
			So(len(recs), ShouldEqual, MaxLogRecords)
			So(recs[0].Text, ShouldEqual, "entry 5")
			So(recs[len(recs)-1].Text,
				ShouldEqual, fmt.Sprintf("entry %d", MaxLogRecords+4))
		})
	})
}
