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

package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-tiermigrate/pkg/common"
	"github.com/jeremyhahn/go-tiermigrate/pkg/memory"
)

func testConfig(t *testing.T) *Config {
	t.Helper()

	dir := t.TempDir()
	return &Config{
		Backend:      "memory",
		OutputFormat: "text",
		PolicyFile:   filepath.Join(dir, "policies.json"),
		StatusFile:   filepath.Join(dir, "status.jsonl"),
		Workers:      4,
		RestoreDays:  7,
	}
}

func newTestContext(t *testing.T) (*CommandContext, *memory.Memory) {
	t.Helper()

	cmdCtx, err := NewCommandContextWithOutput(testConfig(t), io.Discard)
	require.NoError(t, err)

	backend, ok := cmdCtx.Client.(*memory.Memory)
	require.True(t, ok)
	return cmdCtx, backend
}

func seedBucket(backend *memory.Memory, keys ...string) {
	for _, key := range keys {
		backend.SeedObject(common.ObjectRecord{
			Bucket:       "test-bucket",
			Key:          key,
			Size:         100,
			StorageClass: common.ClassStandard,
		})
	}
}

func prefixMask(pattern string) MaskSpec {
	return NewMaskSpec("prefix", pattern, "", false, false, true)
}

func TestNewCommandContext_UnsupportedBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backend = "gcs"

	_, err := NewCommandContext(cfg)
	assert.ErrorIs(t, err, ErrUnsupportedBackend)
}

func TestMaskSpec_Build(t *testing.T) {
	// No mask flags at all: nil mask, no error.
	mask, err := MaskSpec{}.Build()
	require.NoError(t, err)
	assert.Nil(t, mask)

	// A plain pattern defaults to prefix mode.
	mask, err = NewMaskSpec("", "logs/", "", false, false, false).Build()
	require.NoError(t, err)
	require.NotNil(t, mask)
	assert.Equal(t, common.MaskPrefix, mask.Mode)

	// An explicit mode with an empty pattern is a wildcard and must be
	// confirmed.
	_, err = NewMaskSpec("prefix", "", "", false, false, true).Build()
	assert.ErrorIs(t, err, ErrWildcardMaskRefused)

	mask, err = NewMaskSpec("prefix", "", "", false, true, true).Build()
	require.NoError(t, err)
	require.NotNil(t, mask)
	assert.True(t, mask.IsWildcard())

	// Invalid regex patterns are rejected up front.
	_, err = NewMaskSpec("regex", "[bad", "", false, false, true).Build()
	assert.Error(t, err)
}

func TestListObjectsCommand_MaskNarrowsListing(t *testing.T) {
	cmdCtx, backend := newTestContext(t)
	seedBucket(backend, "logs/a.log", "logs/b.log", "data/c.csv")

	records, err := cmdCtx.ListObjectsCommand(context.Background(), "test-bucket", prefixMask("logs/"))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "logs/a.log", records[0].Key)

	// No mask lists everything, and an empty match is not an error.
	records, err = cmdCtx.ListObjectsCommand(context.Background(), "test-bucket", MaskSpec{})
	require.NoError(t, err)
	assert.Len(t, records, 3)

	records, err = cmdCtx.ListObjectsCommand(context.Background(), "test-bucket", prefixMask("missing/"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHeadObjectCommand_SeedsLedger(t *testing.T) {
	cmdCtx, backend := newTestContext(t)
	seedBucket(backend, "logs/a.log")

	record, err := cmdCtx.HeadObjectCommand(context.Background(), "test-bucket", "logs/a.log")
	require.NoError(t, err)
	assert.Equal(t, common.ClassStandard, record.StorageClass)

	latest := cmdCtx.Ledger.Latest("test-bucket", "logs/a.log")
	require.NotNil(t, latest)
	assert.Equal(t, common.ClassStandard, latest.StorageClass)
}

func TestTransitionCommand_MaskedBatch(t *testing.T) {
	cmdCtx, backend := newTestContext(t)
	seedBucket(backend, "logs/a.log", "logs/b.log", "data/c.csv")

	outcomes, err := cmdCtx.TransitionCommand(context.Background(), "test-bucket", "", prefixMask("logs/"), "GLACIER", false)
	require.NoError(t, err)

	require.Len(t, outcomes, 2)
	for _, outcome := range outcomes {
		assert.Equal(t, common.ResultSuccess, outcome.Result)
		assert.Equal(t, common.ClassGlacier, outcome.StorageClass)
	}

	// Matching objects moved; the unmatched one did not.
	recordA, err := backend.HeadObject(context.Background(), "test-bucket", "logs/a.log")
	require.NoError(t, err)
	assert.Equal(t, common.ClassGlacier, recordA.StorageClass)

	recordC, err := backend.HeadObject(context.Background(), "test-bucket", "data/c.csv")
	require.NoError(t, err)
	assert.Equal(t, common.ClassStandard, recordC.StorageClass)
}

func TestTransitionCommand_SingleKey(t *testing.T) {
	cmdCtx, backend := newTestContext(t)
	seedBucket(backend, "logs/a.log", "logs/b.log")

	outcomes, err := cmdCtx.TransitionCommand(context.Background(), "test-bucket", "logs/b.log", MaskSpec{}, "STANDARD_IA", false)
	require.NoError(t, err)

	require.Len(t, outcomes, 1)
	assert.Equal(t, "logs/b.log", outcomes[0].Key)
	assert.Equal(t, common.ResultSuccess, outcomes[0].Result)
}

func TestTransitionCommand_Validation(t *testing.T) {
	cmdCtx, backend := newTestContext(t)
	seedBucket(backend, "logs/a.log")

	// Neither key nor mask.
	_, err := cmdCtx.TransitionCommand(context.Background(), "test-bucket", "", MaskSpec{}, "GLACIER", false)
	assert.ErrorIs(t, err, ErrMaskOrKeyRequired)

	// Unknown destination class.
	_, err = cmdCtx.TransitionCommand(context.Background(), "test-bucket", "logs/a.log", MaskSpec{}, "COLD", false)
	assert.Error(t, err)

	// Unknown key.
	_, err = cmdCtx.TransitionCommand(context.Background(), "test-bucket", "missing", MaskSpec{}, "GLACIER", false)
	assert.ErrorIs(t, err, common.ErrKeyNotFound)

	// Mask matching nothing.
	_, err = cmdCtx.TransitionCommand(context.Background(), "test-bucket", "", prefixMask("missing/"), "GLACIER", false)
	assert.ErrorIs(t, err, common.ErrNoTarget)
}

func TestRestoreCommand(t *testing.T) {
	cmdCtx, backend := newTestContext(t)
	backend.SeedObject(common.ObjectRecord{
		Bucket:       "test-bucket",
		Key:          "archive/x.tar",
		StorageClass: common.ClassDeepArchive,
	})

	outcomes, err := cmdCtx.RestoreCommand(context.Background(), "test-bucket", "", prefixMask("archive/"), 14)
	require.NoError(t, err)

	require.Len(t, outcomes, 1)
	assert.Equal(t, common.ActionRestore, outcomes[0].Action)
	assert.Equal(t, common.ResultSuccess, outcomes[0].Result)

	record, err := backend.HeadObject(context.Background(), "test-bucket", "archive/x.tar")
	require.NoError(t, err)
	assert.Equal(t, common.RestoreInProgress, record.RestoreState)
}

func TestPolicyCommands_SaveListReplayRemove(t *testing.T) {
	cmdCtx, backend := newTestContext(t)
	seedBucket(backend, "logs/a.log", "logs/b.log", "data/c.csv")

	id, err := cmdCtx.SavePolicyCommand(context.Background(), "test-bucket", prefixMask("logs/"), "GLACIER", false, "archive old logs")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	policies := cmdCtx.ListPoliciesCommand()
	require.Len(t, policies, 1)
	assert.Equal(t, "archive old logs", policies[0].Notes)

	outcomes, err := cmdCtx.ReplayPolicyCommand(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	for _, outcome := range outcomes {
		assert.Equal(t, common.ResultSuccess, outcome.Result)
	}

	record, err := backend.HeadObject(context.Background(), "test-bucket", "logs/a.log")
	require.NoError(t, err)
	assert.Equal(t, common.ClassGlacier, record.StorageClass)

	require.NoError(t, cmdCtx.RemovePolicyCommand(context.Background(), id))
	assert.Empty(t, cmdCtx.ListPoliciesCommand())
}

func TestSavePolicyCommand_RequiresMask(t *testing.T) {
	cmdCtx, _ := newTestContext(t)

	_, err := cmdCtx.SavePolicyCommand(context.Background(), "test-bucket", MaskSpec{}, "GLACIER", false, "")
	assert.ErrorIs(t, err, ErrMaskOrKeyRequired)
}

func TestHistoryCommand_RecordsRunOutcomes(t *testing.T) {
	cmdCtx, backend := newTestContext(t)
	seedBucket(backend, "logs/a.log", "logs/b.log")

	_, err := cmdCtx.TransitionCommand(context.Background(), "test-bucket", "", prefixMask("logs/"), "GLACIER", false)
	require.NoError(t, err)

	history := cmdCtx.HistoryCommand()
	require.Len(t, history, 2)
	assert.Equal(t, "logs/a.log", history[0].Key)
	assert.Equal(t, "logs/b.log", history[1].Key)
}

func TestStatusLog_PersistsAcrossInvocations(t *testing.T) {
	cfg := testConfig(t)

	cmdCtx, err := NewCommandContextWithOutput(cfg, io.Discard)
	require.NoError(t, err)
	backend, ok := cmdCtx.Client.(*memory.Memory)
	require.True(t, ok)
	seedBucket(backend, "logs/a.log", "logs/b.log")

	_, err = cmdCtx.TransitionCommand(context.Background(), "test-bucket", "", prefixMask("logs/"), "GLACIER", false)
	require.NoError(t, err)
	require.NoError(t, cmdCtx.AppendHistory())

	// A later invocation sees the persisted outcomes without running
	// anything itself.
	laterCtx, err := NewCommandContextWithOutput(cfg, io.Discard)
	require.NoError(t, err)

	outcomes, err := laterCtx.ReadHistory()
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "logs/a.log", outcomes[0].Key)
	assert.Equal(t, "logs/b.log", outcomes[1].Key)
	assert.Equal(t, common.ActionTransition, outcomes[0].Action)
	assert.Equal(t, common.ResultSuccess, outcomes[0].Result)

	// Appends accumulate rather than overwrite.
	require.NoError(t, cmdCtx.AppendHistory())
	outcomes, err = laterCtx.ReadHistory()
	require.NoError(t, err)
	assert.Len(t, outcomes, 4)
}

func TestReadHistory_MissingFileIsEmpty(t *testing.T) {
	cmdCtx, _ := newTestContext(t)

	outcomes, err := cmdCtx.ReadHistory()
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}

func TestAppendHistory_NothingRecordedWritesNothing(t *testing.T) {
	cmdCtx, _ := newTestContext(t)

	require.NoError(t, cmdCtx.AppendHistory())
	_, err := os.Stat(cmdCtx.Config.StatusFile)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
