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
	"strings"
	"sync"
)

// MessageLines is how many output lines a handle retains for diagnostics.
const MessageLines = 10

// messageBuffer keeps the most recent output lines of one process.  It is
// purely diagnostic: nothing in the state machine keys off its contents.
// It is a fixed ring; once full, each append evicts the oldest line.
type messageBuffer struct {
	mx    sync.Mutex
	lines []string
	next  int
}

func newMessageBuffer() *messageBuffer {
	return &messageBuffer{lines: make([]string, MessageLines)}
}

func (b *messageBuffer) Append(line string) {
	b.mx.Lock()
	b.lines[b.next%len(b.lines)] = line
	b.next++
	b.mx.Unlock()
}

// Lines returns the retained lines, oldest first.
func (b *messageBuffer) Lines() []string {
	b.mx.Lock()
	defer b.mx.Unlock()
	cnt := b.next
	if cnt > len(b.lines) {
		cnt = len(b.lines)
	}
	out := make([]string, 0, cnt)
	for i := b.next - cnt; i < b.next; i++ {
		out = append(out, b.lines[i%len(b.lines)])
	}
	return out
}

// Clear resets the buffer, dropping the lines of any previous run.
func (b *messageBuffer) Clear() {
	b.mx.Lock()
	b.next = 0
	b.mx.Unlock()
}

// Dump joins the retained lines for use in an error message.
func (b *messageBuffer) Dump() string {
	return strings.Join(b.Lines(), "\n")
}
