// Copyright (c) 2026 Verso Labs
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at versolabs.io/bsl11.
//
// Change Date: 2029-8-1
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package trie

import (
	"sync/atomic"
)

// This file provides a small task execution framework used for computing
// version digests, not intended for use outside of this package. It only
// supports a tree structure of tasks, where each task may have multiple
// dependencies but at most a single parent task depending on it. These
// properties are not verified.
//
// The intended usage is to
//   1) create a set of tasks, closed under dependencies, topologically sorted
//      such that no task appears before any of its dependencies
//   2) call [runTasks]() with the set of tasks
//
// The framework executes the tasks in parallel, respecting dependencies, and
// returns only once all tasks have been completed.

// task is a unit of work with a number of yet unfulfilled dependencies and an
// optional parent task to be notified on completion.
type task struct {
	action          func()       // < the action to perform
	numDependencies atomic.Int32 // < number of dependencies before this task can run
	parentTask      *task        // < optional parent task to notify when done
}

// newTask creates a task with the given action that becomes runnable once
// the given number of dependencies has been satisfied.
func newTask(action func(), numDependencies int) *task {
	t := &task{action: action}
	t.numDependencies.Store(int32(numDependencies))
	return t
}

// run executes the task's action and may return a parent task that became
// ready to run as a result, or nil.
func (t *task) run() *task {
	t.action()
	if t.parentTask == nil {
		return nil
	}
	if t.parentTask.numDependencies.Add(-1) != 0 {
		return nil // not ready yet
	}
	return t.parentTask // ready to run
}

// runTasks executes the given tasks in parallel, respecting dependencies.
// The provided list must include all tasks needed to satisfy dependencies;
// this is not validated, and missing dependencies may deadlock.
func runTasks(tasks []*task) {
	// Cut-off for a small number of tasks, in which case the overhead of
	// parallelism is not worth it.
	if len(tasks) < 20 {
		for _, task := range tasks {
			task.action()
		}
		return
	}

	const NumWorkers = 7 // + this thread
	completedTasks := atomic.Uint32{}

	// Collect all tasks ready to run (no dependencies).
	workList := make([]*task, 0, len(tasks))
	for _, task := range tasks {
		if task.numDependencies.Load() == 0 {
			workList = append(workList, task)
		}
	}

	// Process tasks until all are done.
	pos := atomic.Int32{}
	processTasks := func() {
		for {
			next := pos.Add(1) - 1
			if int(next) >= len(workList) {
				return
			}

			// Run this task and all tasks that become ready as a result.
			task := workList[next]
			for task != nil {
				task = task.run()
				completedTasks.Add(1)
			}
		}
	}

	for range NumWorkers {
		go processTasks()
	}

	// This thread also helps with running tasks.
	processTasks()

	// The scheduled tasks are short and reasonably well balanced, so a busy
	// wait is affordable here. It turns out to be faster than a wait group,
	// as the processing may have finished before the last worker even gets
	// scheduled.
	for completedTasks.Load() < uint32(len(tasks)) {
	}
}
