// Package loopdriver implements a cooperative loop driver as a narrow
// compatibility facade: the literal kick_once() -> done contract, kept so
// pkg/server can be embedded into a host application that supplies its own
// "tick" instead of owning a goroutine outright.
//
// cmd/blender-remote-bridge itself runs in goroutine-native mode and never
// calls KickOnce; this package exists for embedders and is exercised only
// by its own tests.
package loopdriver

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/igamenovoer/blender-remote/pkg/logger"
)

// Strategy names the drive strategy selected by EnsureRunning (§4.1).
type Strategy string

const (
	StrategyModal   Strategy = "modal"
	StrategyTimer   Strategy = "timer"
	StrategyUnknown Strategy = ""
)

// StepBudget is the ~20ms wall-clock budget a single KickOnce pass may
// spend draining ready tasks before returning (§4.1's "bounded step
// semantics").
const StepBudget = 20 * time.Millisecond

// Task is one unit of work the driver steps. Pending reports whether the
// task still has work to do; Run performs one bounded slice of it.
type Task interface {
	Pending() bool
	Run()
}

// Driver is a singleton-per-process cooperative loop driver. It is safe
// for concurrent use: kicking is guarded against reentrancy, and Shutdown
// may be called from any goroutine.
type Driver struct {
	tasks    []Task
	strategy Strategy
	kicking  atomic.Bool
	errored  atomic.Bool
	shutdown chan struct{}
	closeOne sync.Once
}

// New returns a Driver with no registered tasks and no active strategy.
func New() *Driver {
	return &Driver{shutdown: make(chan struct{})}
}

// Register adds a task to the driver's ready set. Not safe to call
// concurrently with KickOnce.
func (d *Driver) Register(t Task) {
	d.tasks = append(d.tasks, t)
}

// EnsureRunning selects a drive strategy (§4.1's "modal first, timer
// fallback" policy). modalAvailable models whether the Host currently
// exposes a modal operator / window context; in a restricted context
// (headless, no UI) this is false and the driver falls back to timer mode.
func (d *Driver) EnsureRunning(modalAvailable bool) Strategy {
	if modalAvailable {
		d.strategy = StrategyModal
	} else {
		d.strategy = StrategyTimer
	}
	return d.strategy
}

// ActiveStrategy reports which drive strategy EnsureRunning selected.
func (d *Driver) ActiveStrategy() Strategy {
	return d.strategy
}

// Errored reports whether a catastrophic failure has disabled the driver
// (§4.1's "error flag readable via status").
func (d *Driver) Errored() bool {
	return d.errored.Load()
}

// KickOnce performs at most one bounded pass over ready tasks, returning
// true iff no task has pending work left. Reentrant calls (a second
// KickOnce while one is already in progress) return immediately with
// done=false, never blocking (§4.1's reentrancy prohibition).
func (d *Driver) KickOnce() (done bool) {
	if !d.kicking.CompareAndSwap(false, true) {
		return false
	}
	defer d.kicking.Store(false)

	deadline := time.Now().Add(StepBudget)
	d.runTasksSafely()
	for time.Now().Before(deadline) {
		if d.allDrained() {
			break
		}
		d.runTasksSafely()
	}
	return d.allDrained()
}

func (d *Driver) allDrained() bool {
	for _, t := range d.tasks {
		if t.Pending() {
			return false
		}
	}
	return true
}

// runTasksSafely runs every pending task's Run once, recovering from any
// panic so that a single misbehaving task never propagates into the
// Host's timer callback (§4.1's "exceptions inside a task are logged and
// swallowed" failure model).
func (d *Driver) runTasksSafely() {
	for _, t := range d.tasks {
		if !t.Pending() {
			continue
		}
		d.runOneSafely(t)
	}
}

func (d *Driver) runOneSafely(t Task) {
	defer func() {
		if r := recover(); r != nil {
			// A panicking task does not disable the whole driver; only a
			// catastrophic failure (signaled via MarkErrored) does.
			logger.Warnf("loopdriver: task panicked: %v", r)
		}
	}()
	t.Run()
}

// MarkErrored flips the driver into the disabled error state described in
// §4.1 ("a catastrophic failure ... disables the driver and sets an error
// flag readable via status").
func (d *Driver) MarkErrored() {
	d.errored.Store(true)
}

// Shutdown signals the shutdown event; safe to call multiple times.
func (d *Driver) Shutdown() {
	d.closeOne.Do(func() { close(d.shutdown) })
}

// Done returns the channel closed by Shutdown, for external keep-alive
// loops that block on it (§4.1's headless external driver).
func (d *Driver) Done() <-chan struct{} {
	return d.shutdown
}
