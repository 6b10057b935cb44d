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
	"bufio"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// State is the lifecycle state of a Handle.
type State int

const (
	StateInit State = iota
	StateStarting
	StateStarted
	StateStopping
	StateStopped
	StateError
	StateDestructing
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateStarting:
		return "STARTING"
	case StateStarted:
		return "STARTED"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	case StateError:
		return "ERROR"
	case StateDestructing:
		return "DESTRUCTING"
	}
	return "UNKNOWN"
}

const (
	// StartGracePeriod is how long a process must keep running after
	// spawn before it counts as started.  An exit inside this window is
	// a startup failure, never a successful start followed by a crash.
	StartGracePeriod = 1200 * time.Millisecond

	// StopKillTimeout is how long a stopping process is given to honor
	// SIGTERM before SIGKILL is sent.
	StopKillTimeout = 20 * time.Second

	// MaxRestartCount caps consecutive respawns inside the grace window
	// before the handle parks in the error state.
	MaxRestartCount = 3
)

// Handle supervises exactly one OS process for one launch configuration.
// It owns at most one live process at a time, respawning per the restart
// policy, and is never reused for a different configuration: a config
// change always produces a new Handle.
//
// All bookkeeping is guarded by the handle's own lock; timers and the exit
// reaper take the lock before touching state, so each handle has
// single-writer semantics no matter which goroutine fires first.
type Handle struct {
	cfg      ProcessConfig
	id       uuid.UUID
	svcName  string
	procName string

	gracePeriod time.Duration
	stopTimeout time.Duration
	maxRestarts int

	mx           sync.Mutex
	state        State
	restartCount int
	cmd          *exec.Cmd
	pid          int
	startTimer   *time.Timer
	stopTimer    *time.Timer
	startFuture  *Future
	stopFuture   *Future
	messages     *messageBuffer
	logger       *log.Logger
	sink         LogSink
}

// NewHandle builds a handle for one process of the named service.  The
// configuration is validated here; a malformed config never reaches the
// state machine.
func NewHandle(service string, cfg ProcessConfig) (*Handle, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h := &Handle{
		cfg:         cfg,
		id:          uuid.New(),
		svcName:     service,
		procName:    service + ":" + cfg.Name,
		gracePeriod: StartGracePeriod,
		stopTimeout: StopKillTimeout,
		maxRestarts: MaxRestartCount,
		state:       StateInit,
		messages:    newMessageBuffer(),
		logger:      log.New(os.Stderr, "", log.LstdFlags),
	}
	return h, nil
}

// Config returns the launch configuration the handle was built with.
func (h *Handle) Config() ProcessConfig {
	return h.cfg
}

// Name returns the qualified process name, "service:process".
func (h *Handle) Name() string {
	return h.procName
}

// ID returns the unique identity of this handle instance.  Unlike the
// configuration key it differs between two handles for the same config.
func (h *Handle) ID() string {
	return h.id.String()
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mx.Lock()
	defer h.mx.Unlock()
	return h.state
}

// Pid returns the pid of the attached process, or 0 when none is live.
func (h *Handle) Pid() int {
	h.mx.Lock()
	defer h.mx.Unlock()
	return h.pid
}

// RestartCount returns the consecutive respawns seen inside the current
// grace window.
func (h *Handle) RestartCount() int {
	h.mx.Lock()
	defer h.mx.Unlock()
	return h.restartCount
}

// Messages returns the retained output lines, oldest first.
func (h *Handle) Messages() []string {
	return h.messages.Lines()
}

// SetLogger redirects the handle's own log messages.
func (h *Handle) SetLogger(l *log.Logger) {
	h.mx.Lock()
	h.logger = l
	h.mx.Unlock()
}

// SetLogSink sets the sink that receives the process's raw output.
func (h *Handle) SetLogSink(s LogSink) {
	h.mx.Lock()
	h.sink = s
	h.mx.Unlock()
}

// Start spawns the process.  It fails fast, without side effects, unless
// the handle is in INIT, STOPPED or ERROR, and likewise when the executable
// is missing or not executable.  The returned future settles with the pid
// once the process survives the grace period, or with an error once restart
// attempts are exhausted.
func (h *Handle) Start() *Future {
	h.mx.Lock()
	defer h.mx.Unlock()

	switch h.state {
	case StateInit, StateStopped, StateError:
	default:
		return failedFuture(errors.Wrapf(ErrBadState,
			"cannot start %s in state %s", h.procName, h.state))
	}
	if err := h.cfg.checkExecutable(); err != nil {
		return failedFuture(err)
	}
	h.messages.Clear()
	h.startFuture = newFuture()
	h.setState(StateStarting)
	h.spawn()
	return h.startFuture
}

// Stop terminates the process.  Outside STARTING and STARTED it is a no-op
// that resolves immediately.  Otherwise it cancels the start grace timer,
// sends SIGTERM, arms the kill timer, and resolves only once the process
// has actually exited and the handle is STOPPED.
func (h *Handle) Stop() *Future {
	h.mx.Lock()
	defer h.mx.Unlock()

	if h.state != StateStarting && h.state != StateStarted {
		h.logf("ignored stop of %s in state %s", h.procName, h.state)
		return resolvedFuture(-1)
	}

	h.cancelTimers()
	h.logf("%s stopping", h.procName)
	if h.state == StateStarting {
		// Keep the one-outstanding-future invariant: a start still in
		// flight settles now, as a failure, rather than dangling.
		h.startFuture.reject(errors.Errorf(
			"%s stopped before start completed", h.procName))
	}
	h.setState(StateStopping)
	h.stopFuture = newFuture()

	cmd := h.cmd
	if cmd == nil || cmd.Process == nil {
		// No live process attached; nothing to signal.
		h.setState(StateStopped)
		h.stopFuture.resolve(-1)
		return h.stopFuture
	}

	pid := h.pid
	h.logf("sending SIGTERM to %d", pid)
	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		h.logf("failed sending SIGTERM to %d: %v", pid, err)
	}
	h.stopTimer = time.AfterFunc(h.stopTimeout, func() {
		h.killChild(cmd, pid)
	})
	return h.stopFuture
}

// spawn launches a fresh process for the configuration.  Callers hold the
// lock.
func (h *Handle) spawn() {
	cmd := h.cfg.command()
	stdout, oerr := cmd.StdoutPipe()
	stderr, eerr := cmd.StderrPipe()

	h.logf("%s starting, executable %s args %q",
		h.procName, h.cfg.Executable, cmd.Args)
	if err := cmd.Start(); err != nil {
		h.startFuture.reject(h.fail(errors.Wrapf(err,
			"failed to spawn %s", h.procName)))
		return
	}
	h.cmd = cmd
	h.pid = cmd.Process.Pid

	if oerr == nil {
		go h.drain(stdout)
	}
	if eerr == nil {
		go h.drain(stderr)
	}

	h.startTimer = time.AfterFunc(h.gracePeriod, func() {
		h.becameStarted(cmd)
	})
	go h.reap(cmd)
}

// becameStarted fires when the grace period elapses without an exit.
func (h *Handle) becameStarted(cmd *exec.Cmd) {
	h.mx.Lock()
	defer h.mx.Unlock()
	if h.cmd != cmd || h.state != StateStarting {
		return
	}
	h.startTimer = nil
	h.setState(StateStarted)
	h.startFuture.resolve(h.pid)
}

// killChild escalates to SIGKILL when the stop timeout expires with the
// process still alive.
func (h *Handle) killChild(cmd *exec.Cmd, pid int) {
	h.mx.Lock()
	defer h.mx.Unlock()
	if h.cmd != cmd || h.state != StateStopping {
		return
	}
	h.logf("process %d not stopped after %s, sending SIGKILL",
		pid, h.stopTimeout)
	if err := cmd.Process.Kill(); err != nil {
		h.logf("failed killing %d: %v", pid, err)
	}
}

// reap waits for the process to exit and feeds the result back into the
// state machine.
func (h *Handle) reap(cmd *exec.Cmd) {
	err := cmd.Wait()
	h.exited(cmd, err)
}

// exited handles the process-exit event, whichever code path caused it.
func (h *Handle) exited(cmd *exec.Cmd, werr error) {
	h.mx.Lock()
	defer h.mx.Unlock()

	if h.cmd != cmd {
		// Reaper from an earlier incarnation; the handle moved on.
		return
	}
	h.cmd = nil
	h.pid = 0
	h.cancelTimers()

	if h.state == StateStopping {
		h.logf("%s stopped successfully", h.procName)
		h.setState(StateStopped)
		h.stopFuture.resolve(-1)
		return
	}

	if h.cfg.Restart {
		if h.state == StateStarting {
			// Died inside the grace window: part of a storm.
			h.restartCount++
		} else {
			// Survived the grace period at least once; a fresh
			// crash opens a fresh storm window.
			h.startFuture = newFuture()
			h.restartCount = 0
		}
		if h.restartCount >= h.maxRestarts {
			h.startFuture.reject(h.fail(errors.Wrap(
				ErrRespawnTooFast, h.procName)))
			return
		}
		h.logf("%s restarting, restart count %d",
			h.procName, h.restartCount)
		h.setState(StateStarting)
		h.spawn()
		return
	}

	err := errors.Errorf("%s ended unexpectedly (%v). messages:\n%s",
		h.procName, werr, h.messages.Dump())
	if h.state == StateStarting {
		h.startFuture.reject(h.fail(err))
	} else {
		h.fail(err)
	}
}

// destroy is called by the owning controller once the handle has been
// removed from its set; the handle is not usable afterwards.
func (h *Handle) destroy() {
	h.mx.Lock()
	defer h.mx.Unlock()
	h.cancelTimers()
	h.setState(StateDestructing)
}

// cancelTimers stops any pending grace or kill timer.  Callers hold the
// lock.
func (h *Handle) cancelTimers() {
	if h.startTimer != nil {
		h.startTimer.Stop()
		h.startTimer = nil
	}
	if h.stopTimer != nil {
		h.stopTimer.Stop()
		h.stopTimer = nil
	}
}

// setState records a transition.  Callers hold the lock.
func (h *Handle) setState(s State) {
	if s == h.state {
		return
	}
	h.logf("%s state change: %s --> %s", h.procName, h.state, s)
	h.state = s
}

// fail logs the error, parks the handle in ERROR, and returns the error so
// it can settle a pending future.
func (h *Handle) fail(err error) error {
	h.logf("ERROR %s: %v", h.procName, err)
	h.setState(StateError)
	return err
}

// drain gathers one output stream line by line, forwarding each line to the
// service log sink and to the diagnostic ring.
func (h *Handle) drain(r io.ReadCloser) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) != 0 {
			h.messages.Append(strings.TrimRight(line, "\n"))
			if s := h.logSink(); s != nil {
				s.Write(h.svcName, []byte(line))
			}
		}
		if err != nil {
			return
		}
	}
}

func (h *Handle) logSink() LogSink {
	h.mx.Lock()
	defer h.mx.Unlock()
	return h.sink
}

// logf is always called with the lock held.
func (h *Handle) logf(format string, v ...interface{}) {
	if h.logger != nil {
		h.logger.Printf(format, v...)
	}
}
