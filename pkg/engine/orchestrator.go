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
	"time"

	"golang.org/x/time/rate"

	"github.com/jeremyhahn/go-tiermigrate/pkg/adapters"
	"github.com/jeremyhahn/go-tiermigrate/pkg/audit"
	"github.com/jeremyhahn/go-tiermigrate/pkg/common"
)

const (
	// defaultWorkers is the worker pool bound used when none is configured.
	defaultWorkers = 8

	// maxWorkers caps the in-flight backend calls for a single run.
	maxWorkers = 16

	// skipReasonCanceled is recorded for targets whose steps were never
	// started because the run was canceled.
	skipReasonCanceled = "run canceled before this object was started"
)

// OrchestratorConfig configures a transition orchestrator.
type OrchestratorConfig struct {
	// Client is the storage backend the run executes against.
	Client common.StorageClient

	// Ledger receives every outcome. Required.
	Ledger *StatusLedger

	// Logger receives run diagnostics. Defaults to a no-op logger.
	Logger adapters.Logger

	// Audit receives per-object audit events. Defaults to no-op.
	Audit audit.AuditLogger

	// Workers bounds concurrent in-flight backend calls (1..16, default 8).
	Workers int

	// RestoreDays overrides the temporary restore retention window.
	// Defaults to common.DefaultRestoreDays.
	RestoreDays int

	// RateLimit caps backend calls per second across all workers.
	// Zero means unlimited.
	RateLimit rate.Limit
}

// Orchestrator executes multi-step actions against a target set with
// per-object failure isolation. A failure on one object never aborts
// its siblings, and a run over N targets always yields N outcomes in
// target order, even when execution is concurrent.
type Orchestrator struct {
	client      common.StorageClient
	ledger      *StatusLedger
	logger      adapters.Logger
	audit       audit.AuditLogger
	workers     int
	restoreDays int
	limiter     *rate.Limiter
}

// NewOrchestrator creates an orchestrator from the given configuration.
func NewOrchestrator(config OrchestratorConfig) (*Orchestrator, error) {
	if config.Client == nil {
		return nil, common.ErrNotConfigured
	}
	if config.Ledger == nil {
		return nil, common.ErrNotConfigured
	}
	if config.Logger == nil {
		config.Logger = adapters.NewNoOpLogger()
	}
	if config.Audit == nil {
		config.Audit = audit.NewNoOpAuditLogger()
	}
	if config.Workers <= 0 {
		config.Workers = defaultWorkers
	}
	if config.Workers > maxWorkers {
		config.Workers = maxWorkers
	}
	if config.RestoreDays <= 0 {
		config.RestoreDays = common.DefaultRestoreDays
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(config.RateLimit, config.Workers)
	}

	return &Orchestrator{
		client:      config.Client,
		ledger:      config.Ledger,
		logger:      config.Logger,
		audit:       config.Audit,
		workers:     config.Workers,
		restoreDays: config.RestoreDays,
		limiter:     limiter,
	}, nil
}

// Execute runs the transition sequence for every target: an optional
// restore request followed by a copy-in-place with the destination
// storage class. The restore request is fire-and-forget: the transition
// is issued without waiting for restore completion, which is
// asynchronous on the backend side.
//
// Cancellation is cooperative. In-flight object steps finish and no new
// ones are started; unstarted targets are reported as skipped. There is
// no automatic retry: re-running with a narrowed target set is an
// explicit caller decision.
func (o *Orchestrator) Execute(ctx context.Context, targets TargetSet, dest common.StorageClass, restoreFirst bool) []common.Outcome {
	return o.run(ctx, targets, common.ActionTransition, func(ctx context.Context, record *common.ObjectRecord) common.Outcome {
		return o.transitionObject(ctx, record, dest, restoreFirst)
	})
}

// ExecuteRestore runs a standalone restore request for every target
// with the given retention window in days (<= 0 uses the default).
func (o *Orchestrator) ExecuteRestore(ctx context.Context, targets TargetSet, days int) []common.Outcome {
	if days <= 0 {
		days = o.restoreDays
	}
	return o.run(ctx, targets, common.ActionRestore, func(ctx context.Context, record *common.ObjectRecord) common.Outcome {
		return o.restoreObject(ctx, record, days)
	})
}

// run fans targets out over the worker pool and normalizes outcomes
// back to target order before recording them in the ledger, so reports
// are deterministic regardless of completion order.
func (o *Orchestrator) run(ctx context.Context, targets TargetSet, action common.Action, step func(context.Context, *common.ObjectRecord) common.Outcome) []common.Outcome {
	outcomes := make([]common.Outcome, len(targets))
	seen := make([]bool, len(targets))

	pool := newWorkerPool(o.workers, len(targets), o.logger)
	pool.start(ctx, func(ctx context.Context, item workItem) common.Outcome {
		return step(ctx, item.record)
	})
	pool.submit(ctx, targets)

	for result := range pool.results() {
		outcomes[result.index] = result.outcome
		seen[result.index] = true
	}

	// Targets the pool never started still get an outcome, recorded
	// under the action this run would have performed.
	for i, record := range targets {
		if !seen[i] {
			outcomes[i] = common.Outcome{
				Bucket:    record.Bucket,
				Key:       record.Key,
				Action:    action,
				Result:    common.ResultSkipped,
				Reason:    skipReasonCanceled,
				Timestamp: time.Now(),
			}
		}
	}

	for _, outcome := range outcomes {
		o.ledger.Record(outcome)
	}

	o.logger.Info(ctx, "orchestration run complete",
		adapters.Field{Key: "targets", Value: len(targets)},
		adapters.Field{Key: "succeeded", Value: pool.succeeded.Load()},
		adapters.Field{Key: "failed", Value: pool.failed.Load()})

	return outcomes
}

// transitionObject drives one object through the per-object state
// machine: Start -> (restore? RequestingRestore) -> RequestingTransition
// -> Done. A restore failure terminates the object as Failed without
// attempting the transition.
func (o *Orchestrator) transitionObject(ctx context.Context, record *common.ObjectRecord, dest common.StorageClass, restoreFirst bool) common.Outcome {
	if restoreFirst {
		if err := o.call(ctx, func() error {
			return o.client.RequestRestore(ctx, record.Bucket, record.Key, o.restoreDays)
		}); err != nil {
			backendErr := &common.BackendError{
				Bucket: record.Bucket,
				Key:    record.Key,
				Op:     "restore",
				Err:    err,
			}
			_ = o.audit.LogRestore(ctx, record.Bucket, record.Key, o.restoreDays, audit.ResultFailure, backendErr)
			return common.Outcome{
				Bucket:    record.Bucket,
				Key:       record.Key,
				Action:    common.ActionRestore,
				Result:    common.ResultFailed,
				Reason:    backendErr.Error(),
				Timestamp: time.Now(),
			}
		}
		_ = o.audit.LogRestore(ctx, record.Bucket, record.Key, o.restoreDays, audit.ResultSuccess, nil)
	}

	if err := o.call(ctx, func() error {
		return o.client.CopyObjectWithClassOverride(ctx, record.Bucket, record.Key, dest)
	}); err != nil {
		backendErr := &common.BackendError{
			Bucket: record.Bucket,
			Key:    record.Key,
			Op:     "transition",
			Err:    err,
		}
		_ = o.audit.LogTransition(ctx, record.Bucket, record.Key, dest, audit.ResultFailure, backendErr)
		return common.Outcome{
			Bucket:       record.Bucket,
			Key:          record.Key,
			Action:       common.ActionTransition,
			Result:       common.ResultFailed,
			Reason:       backendErr.Error(),
			StorageClass: dest,
			Timestamp:    time.Now(),
		}
	}

	_ = o.audit.LogTransition(ctx, record.Bucket, record.Key, dest, audit.ResultSuccess, nil)
	return common.Outcome{
		Bucket:       record.Bucket,
		Key:          record.Key,
		Action:       common.ActionTransition,
		Result:       common.ResultSuccess,
		StorageClass: dest,
		Timestamp:    time.Now(),
	}
}

func (o *Orchestrator) restoreObject(ctx context.Context, record *common.ObjectRecord, days int) common.Outcome {
	if err := o.call(ctx, func() error {
		return o.client.RequestRestore(ctx, record.Bucket, record.Key, days)
	}); err != nil {
		backendErr := &common.BackendError{
			Bucket: record.Bucket,
			Key:    record.Key,
			Op:     "restore",
			Err:    err,
		}
		_ = o.audit.LogRestore(ctx, record.Bucket, record.Key, days, audit.ResultFailure, backendErr)
		return common.Outcome{
			Bucket:    record.Bucket,
			Key:       record.Key,
			Action:    common.ActionRestore,
			Result:    common.ResultFailed,
			Reason:    backendErr.Error(),
			Timestamp: time.Now(),
		}
	}

	_ = o.audit.LogRestore(ctx, record.Bucket, record.Key, days, audit.ResultSuccess, nil)
	return common.Outcome{
		Bucket:    record.Bucket,
		Key:       record.Key,
		Action:    common.ActionRestore,
		Result:    common.ResultSuccess,
		Timestamp: time.Now(),
	}
}

// call applies the shared rate limit before issuing a backend call.
func (o *Orchestrator) call(ctx context.Context, fn func() error) error {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return fn()
}
