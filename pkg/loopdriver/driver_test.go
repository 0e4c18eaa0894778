package loopdriver

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeTask struct {
	mu      sync.Mutex
	remain  int
	runs    int
	panicOn int
}

func (f *fakeTask) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remain > 0
}

func (f *fakeTask) Run() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	if f.panicOn > 0 && f.runs == f.panicOn {
		panic("boom")
	}
	if f.remain > 0 {
		f.remain--
	}
}

func TestKickOnceDrainsTask(t *testing.T) {
	d := New()
	task := &fakeTask{remain: 1}
	d.Register(task)

	done := d.KickOnce()
	assert.True(t, done)
	assert.False(t, task.Pending())
}

func TestKickOnceNotDoneWhilePending(t *testing.T) {
	d := New()
	task := &fakeTask{remain: 1000000}
	d.Register(task)

	done := d.KickOnce()
	assert.False(t, done)
}

func TestKickOnceReentrancyGuard(t *testing.T) {
	d := New()
	d.kicking.Store(true)
	done := d.KickOnce()
	assert.False(t, done)
}

func TestKickOnceSwallowsPanic(t *testing.T) {
	d := New()
	task := &fakeTask{remain: 2, panicOn: 1}
	d.Register(task)

	assert.NotPanics(t, func() {
		d.KickOnce()
	})
	assert.False(t, d.Errored())
}

func TestEnsureRunningSelectsStrategy(t *testing.T) {
	d := New()
	assert.Equal(t, StrategyModal, d.EnsureRunning(true))
	assert.Equal(t, StrategyModal, d.ActiveStrategy())

	d2 := New()
	assert.Equal(t, StrategyTimer, d2.EnsureRunning(false))
}

func TestShutdownIsIdempotentAndClosesDone(t *testing.T) {
	d := New()
	d.Shutdown()
	d.Shutdown() // must not panic on double-close

	select {
	case <-d.Done():
	case <-time.After(time.Second):
		t.Fatal("Done channel was not closed")
	}
}

func TestMarkErrored(t *testing.T) {
	d := New()
	assert.False(t, d.Errored())
	d.MarkErrored()
	assert.True(t, d.Errored())
}
