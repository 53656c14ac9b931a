// Copyright 2024 The TableStore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package executor provides pools of single-goroutine cooperative
// executors.
//
// Each executor owns a FIFO inbox of tasks and a single goroutine that
// drains it; a task runs to completion without preemption and may post
// further tasks to any executor. The SDK runs all user callbacks on a
// pool so they never block a transport goroutine.
package executor

import (
	"sync"
	"sync/atomic"
)

// Executor is a single-goroutine task runner with an unbounded FIFO
// inbox.
type Executor struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	closed bool
	done   chan struct{}
}

// New starts an executor.
func New() *Executor {
	e := &Executor{done: make(chan struct{})}
	e.cond = sync.NewCond(&e.mu)
	go e.run()
	return e
}

// Post enqueues a task. It never blocks. It reports false if the
// executor has been closed and the task was rejected.
func (e *Executor) Post(task func()) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	e.tasks = append(e.tasks, task)
	e.mu.Unlock()
	e.cond.Signal()
	return true
}

// Close rejects further tasks, drains the inbox and waits for the active
// task to return.
func (e *Executor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		<-e.done
		return
	}
	e.closed = true
	e.mu.Unlock()
	e.cond.Signal()
	<-e.done
}

func (e *Executor) run() {
	defer close(e.done)
	for {
		e.mu.Lock()
		for len(e.tasks) == 0 && !e.closed {
			e.cond.Wait()
		}
		if len(e.tasks) == 0 {
			// Closed and drained.
			e.mu.Unlock()
			return
		}
		task := e.tasks[0]
		e.tasks = e.tasks[1:]
		e.mu.Unlock()
		task()
	}
}

// Pool is a fixed-size ordered collection of executors. Tasks posted to
// the pool land on an executor chosen by round robin.
type Pool struct {
	executors []*Executor
	next      atomic.Uint64
}

// NewPool starts n executors. n must be positive.
func NewPool(n int) *Pool {
	if n <= 0 {
		panic("executor pool size must be positive")
	}
	p := &Pool{executors: make([]*Executor, n)}
	for i := range p.executors {
		p.executors[i] = New()
	}
	return p
}

// Size is the number of executors in the pool.
func (p *Pool) Size() int { return len(p.executors) }

// Pick returns the next executor by round robin.
func (p *Pool) Pick() *Executor {
	i := p.next.Add(1) - 1
	return p.executors[i%uint64(len(p.executors))]
}

// Post enqueues a task on the next round-robin executor. It reports
// false if that executor has been closed.
func (p *Pool) Post(task func()) bool {
	return p.Pick().Post(task)
}

// Close drains every inbox and waits for all active tasks to return.
func (p *Pool) Close() {
	for _, e := range p.executors {
		e.Close()
	}
}
