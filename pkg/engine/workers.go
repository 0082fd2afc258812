// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-tiermigrate.
//
// go-tiermigrate is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jeremyhahn/go-tiermigrate/pkg/adapters"
	"github.com/jeremyhahn/go-tiermigrate/pkg/common"
)

// workItem is a single object step queued for execution. The index
// ties the result back to its position in the target set.
type workItem struct {
	index  int
	record *common.ObjectRecord
}

// workResult carries a finished object step back to the orchestrator.
type workResult struct {
	index   int
	outcome common.Outcome
}

// workerPool fans per-object backend calls out over a bounded number of
// goroutines. Objects are independent, so the backend is the only
// rate-limiting resource; the pool bound keeps in-flight calls within
// the run's budget. Once the run context is canceled, workers stop
// pulling new items but in-flight calls finish.
type workerPool struct {
	workerCount int
	workQueue   chan workItem
	resultQueue chan workResult
	wg          sync.WaitGroup
	logger      adapters.Logger

	processed atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

func newWorkerPool(workerCount, queueSize int, logger adapters.Logger) *workerPool {
	if workerCount <= 0 {
		workerCount = defaultWorkers
	}
	if workerCount > maxWorkers {
		workerCount = maxWorkers
	}
	if queueSize <= 0 {
		queueSize = workerCount
	}
	if logger == nil {
		logger = adapters.NewNoOpLogger()
	}

	return &workerPool{
		workerCount: workerCount,
		workQueue:   make(chan workItem, queueSize),
		resultQueue: make(chan workResult, queueSize),
		logger:      logger,
	}
}

// start launches the workers. The result queue is closed once every
// worker has drained out, so collectors can range over it.
func (wp *workerPool) start(ctx context.Context, processor func(context.Context, workItem) common.Outcome) {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i, processor)
	}

	go func() {
		wp.wg.Wait()
		close(wp.resultQueue)
	}()
}

func (wp *workerPool) worker(ctx context.Context, id int, processor func(context.Context, workItem) common.Outcome) {
	defer wp.wg.Done()

	wp.logger.Debug(ctx, "worker started",
		adapters.Field{Key: "worker_id", Value: id})

	for {
		select {
		case <-ctx.Done():
			wp.logger.Debug(ctx, "worker shutting down",
				adapters.Field{Key: "worker_id", Value: id})
			return

		case item, ok := <-wp.workQueue:
			if !ok {
				return
			}

			outcome := processor(ctx, item)

			wp.processed.Add(1)
			if outcome.Result == common.ResultSuccess {
				wp.succeeded.Add(1)
			} else if outcome.Result == common.ResultFailed {
				wp.failed.Add(1)
			}

			wp.resultQueue <- workResult{index: item.index, outcome: outcome}
		}
	}
}

// submit enqueues every target then closes the queue. It runs in its
// own goroutine so a canceled run cannot deadlock on a full queue.
func (wp *workerPool) submit(ctx context.Context, targets TargetSet) {
	go func() {
		defer close(wp.workQueue)
		for i, record := range targets {
			select {
			case wp.workQueue <- workItem{index: i, record: record}:
			case <-ctx.Done():
				return
			}
		}
	}()
}

// results exposes the result stream. The channel closes after all
// workers finish.
func (wp *workerPool) results() <-chan workResult {
	return wp.resultQueue
}
