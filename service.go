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
	"log"
	"os"
	"sort"
	"sync"
	"time"
)

// Controller owns the set of running process handles for one logical
// service.  Its Start is declarative: handed the desired configuration
// list, it stops the processes that no longer belong, leaves unchanged
// ones untouched, and spawns the new ones -- in that order, so that an old
// and a new instance of a reconfigured resource never overlap.
//
// Controller methods are safe to call from any goroutine.
type Controller struct {
	name string

	mx      sync.Mutex
	enabled bool
	props   map[PropertyName]interface{}
	handles map[string]*Handle
	sink    LogSink
	logger  *log.Logger

	gracePeriod time.Duration
	stopTimeout time.Duration
	maxRestarts int
}

// NewController returns an empty controller for the named service.
func NewController(name string) *Controller {
	return &Controller{
		name:        name,
		enabled:     true,
		props:       make(map[PropertyName]interface{}),
		handles:     make(map[string]*Handle),
		logger:      log.New(os.Stderr, "["+name+"] ", log.LstdFlags),
		gracePeriod: StartGracePeriod,
		stopTimeout: StopKillTimeout,
		maxRestarts: MaxRestartCount,
	}
}

// Name returns the service name.
func (c *Controller) Name() string {
	return c.name
}

// Enabled reports whether the service should be brought up at server boot.
func (c *Controller) Enabled() bool {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.enabled
}

// SetEnabled flips the boot-time enable flag.  It does not stop anything
// by itself.
func (c *Controller) SetEnabled(v bool) {
	c.mx.Lock()
	c.enabled = v
	c.mx.Unlock()
}

// SetLogSink injects the sink that receives the raw output of every
// process this controller spawns afterwards.
func (c *Controller) SetLogSink(s LogSink) {
	c.mx.Lock()
	c.sink = s
	c.mx.Unlock()
}

// SetLogger redirects the controller's own log messages.
func (c *Controller) SetLogger(l *log.Logger) {
	c.mx.Lock()
	c.logger = l
	c.mx.Unlock()
}

// SetStopTimeout adjusts the SIGTERM-to-SIGKILL escalation delay for
// processes spawned afterwards.
func (c *Controller) SetStopTimeout(d time.Duration) {
	c.mx.Lock()
	c.stopTimeout = d
	c.mx.Unlock()
}

// SetGracePeriod adjusts the started-detection window for processes
// spawned afterwards.
func (c *Controller) SetGracePeriod(d time.Duration) {
	c.mx.Lock()
	c.gracePeriod = d
	c.mx.Unlock()
}

// Handles returns the current process handles, ordered by process name.
func (c *Controller) Handles() []*Handle {
	c.mx.Lock()
	defer c.mx.Unlock()
	out := make([]*Handle, 0, len(c.handles))
	for _, h := range c.handles {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name() < out[j].Name()
	})
	return out
}

// Start reconciles the running set against the desired configuration list.
// Duplicates in the list collapse to one process.  Obsolete processes are
// removed from the set immediately and stopped; all stops are awaited
// before any new process spawns.  Handles whose configuration is unchanged
// are not touched at all, so redeploying an identical list never
// interrupts a running process.
//
// The returned future fails if any stop or any start fails; siblings in
// the same batch still run to completion, and successfully started
// processes stay in the set.  Redeploying an older configuration after a
// failure is the caller's decision.
func (c *Controller) Start(configs []ProcessConfig) *Future {
	desired := dedupeConfigs(configs)
	for _, cfg := range desired {
		if err := cfg.Validate(); err != nil {
			return failedFuture(err)
		}
	}

	c.mx.Lock()
	var toStop []*Handle
	for key, h := range c.handles {
		if _, ok := desired[key]; !ok {
			toStop = append(toStop, h)
			delete(c.handles, key)
		}
	}
	var toStart []*Handle
	for key, cfg := range desired {
		if _, ok := c.handles[key]; ok {
			continue
		}
		h, err := c.newHandleLocked(cfg)
		if err != nil {
			c.mx.Unlock()
			return failedFuture(err)
		}
		toStart = append(toStart, h)
	}
	kept := len(c.handles)
	c.mx.Unlock()

	c.logf("service %s reconciling: stopping %d, starting %d, keeping %d",
		c.name, len(toStop), len(toStart), kept)

	stops := make([]*Future, 0, len(toStop))
	for _, h := range toStop {
		stops = append(stops, h.Stop())
	}

	f := newFuture()
	go func() {
		ctx := context.Background()
		if err := waitAll(ctx, stops); err != nil {
			c.logf("service %s failed to stop obsolete processes: %v",
				c.name, err)
			f.reject(err)
			return
		}
		for _, h := range toStop {
			h.destroy()
		}

		c.mx.Lock()
		for _, h := range toStart {
			c.handles[h.cfg.Key()] = h
		}
		c.mx.Unlock()

		starts := make([]*Future, 0, len(toStart))
		for _, h := range toStart {
			starts = append(starts, h.Start())
		}
		if err := waitAll(ctx, starts); err != nil {
			c.logf("service %s failed to start: %v", c.name, err)
			f.reject(err)
			return
		}
		c.logf("service %s started", c.name)
		f.resolve(0)
	}()
	return f
}

// Stop stops every process of the service, clears the set, and reports the
// aggregate result.
func (c *Controller) Stop() *Future {
	c.mx.Lock()
	handles := make([]*Handle, 0, len(c.handles))
	for _, h := range c.handles {
		handles = append(handles, h)
	}
	c.handles = make(map[string]*Handle)
	c.mx.Unlock()

	stops := make([]*Future, 0, len(handles))
	for _, h := range handles {
		stops = append(stops, h.Stop())
	}

	f := newFuture()
	go func() {
		if err := waitAll(context.Background(), stops); err != nil {
			c.logf("service %s failed to stop: %v", c.name, err)
			f.reject(err)
			return
		}
		for _, h := range handles {
			h.destroy()
		}
		c.logf("service %s stopped", c.name)
		f.resolve(0)
	}()
	return f
}

// newHandleLocked builds a handle inheriting the controller's tuning,
// logger and sink.  Callers hold the lock.
func (c *Controller) newHandleLocked(cfg ProcessConfig) (*Handle, error) {
	h, err := NewHandle(c.name, cfg)
	if err != nil {
		return nil, err
	}
	h.gracePeriod = c.gracePeriod
	h.stopTimeout = c.stopTimeout
	h.maxRestarts = c.maxRestarts
	h.logger = c.logger
	h.sink = c.sink
	return h, nil
}

func (c *Controller) logf(format string, v ...interface{}) {
	c.mx.Lock()
	l := c.logger
	c.mx.Unlock()
	if l != nil {
		l.Printf(format, v...)
	}
}
