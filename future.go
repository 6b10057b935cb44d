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
	"sync"

	"github.com/pkg/errors"
)

// Future is a one-shot completion handed out by the asynchronous Start and
// Stop operations.  It settles exactly once, either with the pid of the
// started process or with an error.  Waiting is optional; an unobserved
// Future is harmless.
type Future struct {
	once sync.Once
	done chan struct{}
	pid  int
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func resolvedFuture(pid int) *Future {
	f := newFuture()
	f.resolve(pid)
	return f
}

func failedFuture(err error) *Future {
	f := newFuture()
	f.reject(err)
	return f
}

func (f *Future) resolve(pid int) {
	f.once.Do(func() {
		f.pid = pid
		close(f.done)
	})
}

func (f *Future) reject(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done returns a channel that is closed once the future has settled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future settles or the context is cancelled, and
// returns the future's error, if any.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pid returns the settled pid.  It is only meaningful once Done is closed,
// and only for a successful start.
func (f *Future) Pid() int {
	select {
	case <-f.done:
		return f.pid
	default:
		return -1
	}
}

// Err returns the settled error, or nil if the future succeeded or has not
// settled yet.
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// waitAll awaits every future, regardless of individual failures, and then
// reports an aggregate error: the first failure is the cause, and the count
// of additional failures is folded into the message.  No future is ever
// abandoned early except through context cancellation.
func waitAll(ctx context.Context, futures []*Future) error {
	var errs []error
	for _, f := range futures {
		if err := f.Wait(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Wrapf(errs[0], "and %d more failures", len(errs)-1)
	}
}
