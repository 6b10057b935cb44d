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
	"time"
)

// MaxLogRecords is the size of the daemon's in-memory log ring.  This ring
// is operator-facing (served over the REST surface) and distinct from the
// 10-line diagnostic buffer each Handle keeps.
const MaxLogRecords = 1000

type LogRecord struct {
	Id   int64     `json:"id,string"`
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

// Log is a bounded ring of timestamped records with monotonically
// increasing ids, so clients can poll for "records since id".
type Log struct {
	records    []LogRecord
	numRecords int
	maxRecords int
	id         int64
	mx         sync.Mutex
}

// NewLog returns an empty Log.  Ids are seeded from the clock so a
// restarted daemon never hands out an id a client has already seen.
func NewLog() *Log {
	return &Log{
		maxRecords: MaxLogRecords,
		id:         time.Now().UnixNano(),
	}
}

// Write implements io.Writer so the Log can sit behind a log.Logger.
func (l *Log) Write(b []byte) (int, error) {
	l.mx.Lock()
	if l.records == nil {
		l.records = make([]LogRecord, l.maxRecords)
		l.numRecords = 0
	}
	str := strings.Trim(string(b), "\n")
	for _, line := range strings.Split(str, "\n") {
		idx := l.numRecords % l.maxRecords
		l.id++
		l.records[idx] = LogRecord{Id: l.id, Time: time.Now(), Text: line}
		l.numRecords++
	}
	l.mx.Unlock()
	return len(b), nil
}

// Clear drops all records.
func (l *Log) Clear() {
	l.mx.Lock()
	l.numRecords = 0
	l.id = time.Now().UnixNano()
	l.mx.Unlock()
}

// GetRecords returns the retained records in order, along with the id of
// the newest one.  When last matches the newest id the result is nil,
// making the id usable as an Etag.
func (l *Log) GetRecords(last int64) ([]LogRecord, int64) {
	l.mx.Lock()
	defer l.mx.Unlock()
	if l.id == last {
		return nil, last
	}
	cnt := l.numRecords
	if cnt > l.maxRecords {
		cnt = l.maxRecords
	}
	recs := make([]LogRecord, 0, cnt)
	for i := l.numRecords - cnt; i < l.numRecords; i++ {
		recs = append(recs, l.records[i%l.maxRecords])
	}
	return recs, l.id
}
