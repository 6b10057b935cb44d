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
	"log"
	"strings"
	"sync"
)

// LogSink receives the raw output of supervised processes, tagged with the
// owning service's name.  The deployment server injects one per service;
// typically it appends to that service's log file.
type LogSink interface {
	Write(service string, b []byte)
}

// LogSinkFunc adapts a function to the LogSink interface.
type LogSinkFunc func(service string, b []byte)

func (f LogSinkFunc) Write(service string, b []byte) {
	f(service, b)
}

// MultiLogger fans a single log stream out to any number of destination
// loggers.  The supervisor uses one per daemon so that stderr, the in-memory
// ring log, and a test's log output can all observe the same stream.  Each
// destination keeps its own prefix and flags.
type MultiLogger struct {
	log     *log.Logger
	loggers []*log.Logger
	lock    sync.Mutex
}

func NewMultiLogger() *MultiLogger {
	m := &MultiLogger{}
	m.log = log.New(m, "", 0)
	return m
}

// Write implements io.Writer for the front logger: it splits the input into
// lines and delivers each line to every destination.
func (m *MultiLogger) Write(b []byte) (int, error) {
	lines := strings.Split(strings.Trim(string(b), "\n"), "\n")
	m.lock.Lock()
	for _, line := range lines {
		for _, l := range m.loggers {
			l.Println(line)
		}
	}
	m.lock.Unlock()
	return len(b), nil
}

// AddLogger registers a destination.  Adding the same logger twice is a
// no-op.
func (m *MultiLogger) AddLogger(l *log.Logger) {
	m.lock.Lock()
	defer m.lock.Unlock()
	for _, x := range m.loggers {
		if x == l {
			return
		}
	}
	m.loggers = append(m.loggers, l)
}

// DelLogger removes a previously added destination.
func (m *MultiLogger) DelLogger(l *log.Logger) {
	m.lock.Lock()
	defer m.lock.Unlock()
	for i, x := range m.loggers {
		if x == l {
			m.loggers = append(m.loggers[:i], m.loggers[i+1:]...)
			break
		}
	}
}

// Logger returns the front logger whose output is fanned out.
func (m *MultiLogger) Logger() *log.Logger {
	return m.log
}

// Sink returns a LogSink that writes process output into the fan-out,
// prefixed with the service name.
func (m *MultiLogger) Sink() LogSink {
	return LogSinkFunc(func(service string, b []byte) {
		m.log.Print("[" + service + "] " +
			strings.TrimRight(string(b), "\n"))
	})
}
