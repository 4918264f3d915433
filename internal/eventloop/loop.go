// Package eventloop runs tasks one at a time on a dedicated goroutine.
//
// A task posted from inside another callback runs on a later tick, after the
// poster has returned. Post never blocks.
package eventloop

import "sync"

// Task is a unit of work run by the Loop.
type Task func()

// Loop is a single goroutine FIFO task runner.
type Loop struct {
	mu      sync.Mutex
	queue   []Task
	closed  bool
	wake    chan struct{}
	stopped chan struct{}
}

// New starts a Loop.
func New() *Loop {
	l := &Loop{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go l.run()

	return l
}

// Post queues task to run on a later tick. It returns false once the Loop is closed.
func (l *Loop) Post(task Task) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()

		return false
	}
	l.queue = append(l.queue, task)
	select {
	case l.wake <- struct{}{}:
	default:
	}
	l.mu.Unlock()

	return true
}

// Sync blocks until every task posted before the call has run.
// It must not be called from a task.
func (l *Loop) Sync() {
	done := make(chan struct{})
	if !l.Post(func() { close(done) }) {
		<-l.stopped

		return
	}
	<-done
}

// Close stops accepting tasks, runs the ones already queued and waits for the
// goroutine to exit. Calling Close more than once is safe. Close must not be
// called from a task.
func (l *Loop) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.wake)
	}
	l.mu.Unlock()

	<-l.stopped
}

func (l *Loop) run() {
	defer close(l.stopped)

	for {
		l.mu.Lock()
		tasks := l.queue
		l.queue = nil
		closed := l.closed
		l.mu.Unlock()

		for _, t := range tasks {
			t()
		}

		if len(tasks) > 0 {
			continue
		}
		if closed {
			return
		}
		<-l.wake
	}
}
