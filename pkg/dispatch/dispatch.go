// Package dispatch implements a main-thread dispatcher: marshaling a
// callable onto the single goroutine that owns the Host, blocking the
// caller until it completes or times out, and surfacing a structured
// result.
//
// Dispatch is exposed as a typed message-passing channel: connection tasks
// send a Job{fn, reply chan} to the host worker; the worker replies
// through the per-job channel; the connection task selects on that
// channel with a timeout. There is no polling interval here.
package dispatch

import (
	"context"
	"fmt"

	bridgeerrors "github.com/igamenovoer/blender-remote/pkg/errors"
)

// Result is what a Job produces: a JSON-safe response value, or an error
// message if the job's callable failed.
type Result struct {
	Response any
	Err      error
}

// Job is a unit of work to run on the host worker goroutine. Fn is called
// on the worker with no argument; its return values populate Result.
type Job struct {
	Fn    func() (any, error)
	reply chan Result
}

// Worker drains Jobs from a channel and runs each Fn, one at a time, on
// whatever goroutine calls Run — by convention, the single "host worker"
// goroutine for the lifetime of the process. There is no polling, just a
// buffered reply channel per job so a timed-out caller never blocks the
// worker.
type Worker struct {
	jobs chan Job
}

// NewWorker returns a Worker with the given job queue depth.
func NewWorker(queueDepth int) *Worker {
	return &Worker{jobs: make(chan Job, queueDepth)}
}

// Run drains jobs until ctx is done. It is meant to be the sole body of
// the host worker goroutine.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-w.jobs:
			w.execute(job)
		}
	}
}

func (w *Worker) execute(job Job) {
	var res Result
	func() {
		defer func() {
			if r := recover(); r != nil {
				res = Result{Err: fmt.Errorf("panic: %v", r)}
			}
		}()
		resp, err := job.Fn()
		res = Result{Response: resp, Err: err}
	}()
	// reply is buffered(1): a caller that already gave up on timeout never
	// blocks this send, so the worker is never starved by an abandoned job.
	job.reply <- res
}

// Dispatch enqueues fn onto the worker and blocks until it completes or
// ctx's deadline passes, whichever is first. On a context deadline, an
// ErrTimeout is returned and fn's eventual result (if any) is discarded:
// the job, if still pending, eventually runs on the worker but nothing is
// left to receive its result.
func (w *Worker) Dispatch(ctx context.Context, fn func() (any, error)) (any, error) {
	reply := make(chan Result, 1)
	job := Job{Fn: fn, reply: reply}

	select {
	case w.jobs <- job:
	case <-ctx.Done():
		return nil, bridgeerrors.NewTimeoutError("Command execution timeout", ctx.Err())
	}

	select {
	case res := <-reply:
		if res.Err != nil {
			return nil, bridgeerrors.NewHandlerError(res.Err.Error(), res.Err)
		}
		return res.Response, nil
	case <-ctx.Done():
		return nil, bridgeerrors.NewTimeoutError("Command execution timeout", ctx.Err())
	}
}
