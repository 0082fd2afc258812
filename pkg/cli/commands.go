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

// Package cli implements the command layer bridging configuration, the
// storage client, the migration engine, and the policy store.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/time/rate"

	"github.com/jeremyhahn/go-tiermigrate/pkg/adapters"
	"github.com/jeremyhahn/go-tiermigrate/pkg/audit"
	"github.com/jeremyhahn/go-tiermigrate/pkg/common"
	"github.com/jeremyhahn/go-tiermigrate/pkg/engine"
	"github.com/jeremyhahn/go-tiermigrate/pkg/factory"
	"github.com/jeremyhahn/go-tiermigrate/pkg/policy"
	"github.com/jeremyhahn/go-tiermigrate/pkg/validation"
)

// MaskSpec carries raw mask flags before validation. A zero MaskSpec
// means "no mask": actions fall back to single-object selection.
type MaskSpec struct {
	Mode          string
	Pattern       string
	CaseSensitive bool
	Name          string

	// AllowWildcard confirms an empty pattern that would select every
	// object in the bucket.
	AllowWildcard bool

	// set is true once any mask flag was provided.
	set bool
}

// NewMaskSpec builds a MaskSpec from flag values. modeSet reports
// whether the mode flag was explicitly provided so that an untouched
// default does not count as an active mask.
func NewMaskSpec(mode, pattern, name string, caseSensitive, allowWildcard, modeSet bool) MaskSpec {
	return MaskSpec{
		Mode:          mode,
		Pattern:       pattern,
		CaseSensitive: caseSensitive,
		Name:          name,
		AllowWildcard: allowWildcard,
		set:           modeSet || pattern != "",
	}
}

// Build validates the spec into a mask, or returns nil when no mask
// flags were given. An empty pattern must be confirmed explicitly.
func (ms MaskSpec) Build() (*common.Mask, error) {
	if !ms.set {
		return nil, nil
	}
	if ms.Pattern == "" && !ms.AllowWildcard {
		return nil, ErrWildcardMaskRefused
	}

	mode := ms.Mode
	if mode == "" {
		mode = string(common.MaskPrefix)
	}
	parsed, err := common.ParseMaskMode(mode)
	if err != nil {
		return nil, err
	}
	return common.NewMask(ms.Name, parsed, ms.Pattern, ms.CaseSensitive)
}

// CommandContext wires the storage client, engine, policy store, and
// loggers together for one CLI invocation.
type CommandContext struct {
	Config       *Config
	Client       common.StorageClient
	Ledger       *engine.StatusLedger
	Orchestrator *engine.Orchestrator
	Store        *policy.Store
	Logger       adapters.Logger
	Audit        audit.AuditLogger
}

// NewCommandContext validates the configuration and builds a ready
// command context.
func NewCommandContext(cfg *Config) (*CommandContext, error) {
	return NewCommandContextWithOutput(cfg, nil)
}

// NewCommandContextWithOutput is NewCommandContext with log output
// redirected to w (used by tests). A nil w keeps stdout.
func NewCommandContextWithOutput(cfg *Config, w io.Writer) (*CommandContext, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	var logger adapters.Logger
	if w != nil {
		logger = adapters.NewDefaultLoggerWithOutput(w)
	} else {
		logger = adapters.NewDefaultLogger()
	}
	if cfg.Verbose {
		logger.SetLevel(adapters.DebugLevel)
	}

	client, err := factory.NewStorageClient(cfg.Backend, cfg.GetStorageSettings())
	if err != nil {
		if errors.Is(err, factory.ErrUnknownBackend) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, cfg.Backend)
		}
		return nil, err
	}

	store, err := policy.NewStore(cfg.PolicyFile, logger)
	if err != nil {
		return nil, err
	}

	auditLogger := audit.NewNoOpAuditLogger()
	if cfg.AuditLog {
		if w != nil {
			auditLogger = audit.NewAuditLogger(w)
		} else {
			auditLogger = audit.NewDefaultAuditLogger()
		}
	}

	ledger := engine.NewStatusLedger()
	orchestrator, err := engine.NewOrchestrator(engine.OrchestratorConfig{
		Client:      client,
		Ledger:      ledger,
		Logger:      logger,
		Audit:       auditLogger,
		Workers:     cfg.Workers,
		RestoreDays: cfg.RestoreDays,
		RateLimit:   rate.Limit(cfg.RateLimit),
	})
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Config:       cfg,
		Client:       client,
		Ledger:       ledger,
		Orchestrator: orchestrator,
		Store:        store,
		Logger:       logger,
		Audit:        auditLogger,
	}, nil
}

// ListBucketsCommand returns all buckets known to the backend.
func (c *CommandContext) ListBucketsCommand(ctx context.Context) ([]common.BucketInfo, error) {
	return c.Client.ListBuckets(ctx)
}

// ListObjectsCommand loads a bucket listing, seeds the ledger with it,
// and returns the records selected by the mask (all records when the
// spec is empty). An empty match is a valid display result, not an
// error; actions go through resolveTargets instead.
func (c *CommandContext) ListObjectsCommand(ctx context.Context, bucket string, spec MaskSpec) ([]*common.ObjectRecord, error) {
	mask, err := spec.Build()
	if err != nil {
		return nil, err
	}

	listing, err := c.Client.ListObjects(ctx, bucket)
	if err != nil {
		return nil, err
	}
	c.Ledger.ApplyListing(listing)

	if mask == nil {
		return listing, nil
	}

	matched := make([]*common.ObjectRecord, 0, len(listing))
	for _, record := range listing {
		if mask.Matches(record.Key) {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

// HeadObjectCommand refreshes a single object's metadata and records
// the refreshed state in the ledger.
func (c *CommandContext) HeadObjectCommand(ctx context.Context, bucket, key string) (*common.ObjectRecord, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, err
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, err
	}

	record, err := c.Client.HeadObject(ctx, bucket, key)
	if err != nil {
		_ = c.Audit.LogEvent(ctx, &audit.Event{
			EventType:    audit.EventObjectRefreshed,
			Bucket:       bucket,
			Key:          key,
			Result:       audit.ResultFailure,
			ErrorMessage: err.Error(),
		})
		return nil, err
	}

	c.Ledger.ApplyListing([]*common.ObjectRecord{record})
	_ = c.Audit.LogEvent(ctx, &audit.Event{
		EventType: audit.EventObjectRefreshed,
		Bucket:    bucket,
		Key:       key,
		Result:    audit.ResultSuccess,
	})
	return record, nil
}

// resolveTargets loads a fresh listing and resolves the target set for
// an action, either from a mask or from a single highlighted key.
func (c *CommandContext) resolveTargets(ctx context.Context, bucket, key string, spec MaskSpec) (engine.TargetSet, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, err
	}

	mask, err := spec.Build()
	if err != nil {
		return nil, err
	}
	if mask == nil && key == "" {
		return nil, ErrMaskOrKeyRequired
	}

	listing, err := c.Client.ListObjects(ctx, bucket)
	if err != nil {
		return nil, err
	}
	c.Ledger.ApplyListing(listing)

	var highlighted *common.ObjectRecord
	if mask == nil {
		for _, record := range listing {
			if record.Key == key {
				highlighted = record
				break
			}
		}
		if highlighted == nil {
			return nil, fmt.Errorf("%w: %s/%s", common.ErrKeyNotFound, bucket, key)
		}
	}

	return engine.Resolve(listing, mask, highlighted)
}

// TransitionCommand resolves targets and runs the transition sequence
// against them, returning one outcome per target in target order.
func (c *CommandContext) TransitionCommand(ctx context.Context, bucket, key string, spec MaskSpec, class string, restoreFirst bool) ([]common.Outcome, error) {
	dest, err := common.ParseStorageClass(class)
	if err != nil {
		return nil, err
	}

	targets, err := c.resolveTargets(ctx, bucket, key, spec)
	if err != nil {
		return nil, err
	}

	return c.Orchestrator.Execute(ctx, targets, dest, restoreFirst), nil
}

// RestoreCommand resolves targets and requests a temporary restore for
// each of them.
func (c *CommandContext) RestoreCommand(ctx context.Context, bucket, key string, spec MaskSpec, days int) ([]common.Outcome, error) {
	targets, err := c.resolveTargets(ctx, bucket, key, spec)
	if err != nil {
		return nil, err
	}

	return c.Orchestrator.ExecuteRestore(ctx, targets, days), nil
}

// SavePolicyCommand validates and persists a migration policy.
func (c *CommandContext) SavePolicyCommand(ctx context.Context, bucket string, spec MaskSpec, class string, restoreFirst bool, notes string) (string, error) {
	dest, err := common.ParseStorageClass(class)
	if err != nil {
		return "", err
	}
	mask, err := spec.Build()
	if err != nil {
		return "", err
	}
	if mask == nil {
		return "", ErrMaskOrKeyRequired
	}

	id, err := c.Store.Save(policy.Policy{
		Bucket:           bucket,
		Mask:             *mask,
		DestinationClass: dest,
		RestoreFirst:     restoreFirst,
		Notes:            notes,
	})
	result := audit.ResultSuccess
	if err != nil {
		result = audit.ResultFailure
	}
	_ = c.Audit.LogPolicyChange(ctx, audit.EventPolicySaved, id, bucket, result, err)
	return id, err
}

// ListPoliciesCommand returns all saved policies in creation order.
func (c *CommandContext) ListPoliciesCommand() []policy.Policy {
	return c.Store.List()
}

// RemovePolicyCommand deletes a saved policy.
func (c *CommandContext) RemovePolicyCommand(ctx context.Context, id string) error {
	err := c.Store.Remove(id)
	result := audit.ResultSuccess
	if err != nil {
		result = audit.ResultFailure
	}
	_ = c.Audit.LogPolicyChange(ctx, audit.EventPolicyRemoved, id, "", result, err)
	return err
}

// ReplayPolicyCommand re-runs a saved policy against a freshly fetched
// listing, reproducing the stored mask's selection semantics exactly.
func (c *CommandContext) ReplayPolicyCommand(ctx context.Context, id string) ([]common.Outcome, error) {
	p, err := c.Store.Get(id)
	if err != nil {
		return nil, err
	}

	listing, err := c.Client.ListObjects(ctx, p.Bucket)
	if err != nil {
		return nil, err
	}
	c.Ledger.ApplyListing(listing)

	targets, err := c.Store.Replay(id, listing)
	if err != nil {
		_ = c.Audit.LogPolicyChange(ctx, audit.EventPolicyReplayed, id, p.Bucket, audit.ResultFailure, err)
		return nil, err
	}

	outcomes := c.Orchestrator.Execute(ctx, targets, p.DestinationClass, p.RestoreFirst)
	_ = c.Audit.LogPolicyChange(ctx, audit.EventPolicyReplayed, id, p.Bucket, audit.ResultSuccess, nil)
	return outcomes, nil
}

// HistoryCommand returns the outcome log in append order.
func (c *CommandContext) HistoryCommand() []common.Outcome {
	return c.Ledger.History()
}

// DefaultStatusFile is the well-known status log path used when none is
// configured.
const DefaultStatusFile = ".migration-status.jsonl"

func (c *CommandContext) statusFilePath() string {
	if c.Config.StatusFile == "" {
		return DefaultStatusFile
	}
	return c.Config.StatusFile
}

// AppendHistory appends this invocation's recorded outcomes to the
// status log file, creating it on first use. An invocation that
// recorded nothing leaves the file untouched.
func (c *CommandContext) AppendHistory() error {
	if c.Ledger.Len() == 0 {
		return nil
	}

	file, err := os.OpenFile(c.statusFilePath(), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	return c.Ledger.Flush(file)
}

// ReadHistory returns every outcome persisted to the status log across
// invocations, oldest first. A missing file is an empty history.
func (c *CommandContext) ReadHistory() ([]common.Outcome, error) {
	file, err := os.Open(c.statusFilePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = file.Close() }()

	return engine.ReadOutcomes(file)
}
