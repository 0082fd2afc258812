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
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-tiermigrate/pkg/common"
)

func TestStatusLedger_ApplyListingAndLatest(t *testing.T) {
	ledger := NewStatusLedger()

	ledger.ApplyListing([]*common.ObjectRecord{
		{Bucket: "b", Key: "a.txt", Size: 10, StorageClass: common.ClassStandard},
		{Bucket: "b", Key: "c.txt", Size: 20, StorageClass: common.ClassGlacier},
		nil,
	})

	record := ledger.Latest("b", "c.txt")
	require.NotNil(t, record)
	assert.Equal(t, common.ClassGlacier, record.StorageClass)
	assert.False(t, record.LastRefreshed.IsZero())

	assert.Nil(t, ledger.Latest("b", "missing.txt"))
}

func TestStatusLedger_LatestReturnsCopy(t *testing.T) {
	ledger := NewStatusLedger()
	ledger.ApplyListing([]*common.ObjectRecord{
		{Bucket: "b", Key: "a.txt", StorageClass: common.ClassStandard},
	})

	record := ledger.Latest("b", "a.txt")
	record.StorageClass = common.ClassDeepArchive

	// Mutating the returned copy must not leak back into the ledger.
	assert.Equal(t, common.ClassStandard, ledger.Latest("b", "a.txt").StorageClass)
}

func TestStatusLedger_RecordSuccessfulTransitionUpdatesClass(t *testing.T) {
	ledger := NewStatusLedger()
	ledger.ApplyListing([]*common.ObjectRecord{
		{Bucket: "b", Key: "a.txt", StorageClass: common.ClassStandard},
	})

	ledger.Record(common.Outcome{
		Bucket:       "b",
		Key:          "a.txt",
		Action:       common.ActionTransition,
		Result:       common.ResultSuccess,
		StorageClass: common.ClassGlacier,
	})

	assert.Equal(t, common.ClassGlacier, ledger.Latest("b", "a.txt").StorageClass)
	assert.Equal(t, 1, ledger.Len())
}

func TestStatusLedger_RecordSuccessfulRestoreMarksInProgress(t *testing.T) {
	ledger := NewStatusLedger()
	ledger.ApplyListing([]*common.ObjectRecord{
		{Bucket: "b", Key: "a.txt", StorageClass: common.ClassGlacier, RestoreState: common.RestoreNone},
	})

	ledger.Record(common.Outcome{
		Bucket: "b",
		Key:    "a.txt",
		Action: common.ActionRestore,
		Result: common.ResultSuccess,
	})

	assert.Equal(t, common.RestoreInProgress, ledger.Latest("b", "a.txt").RestoreState)
}

func TestStatusLedger_FailedOutcomeLeavesRecordUntouched(t *testing.T) {
	ledger := NewStatusLedger()
	ledger.ApplyListing([]*common.ObjectRecord{
		{Bucket: "b", Key: "a.txt", StorageClass: common.ClassStandard},
	})

	ledger.Record(common.Outcome{
		Bucket:       "b",
		Key:          "a.txt",
		Action:       common.ActionTransition,
		Result:       common.ResultFailed,
		Reason:       "copy refused",
		StorageClass: common.ClassGlacier,
	})

	// The outcome is appended but the object state is unchanged.
	assert.Equal(t, 1, ledger.Len())
	assert.Equal(t, common.ClassStandard, ledger.Latest("b", "a.txt").StorageClass)
}

func TestStatusLedger_HistoryPreservesAppendOrder(t *testing.T) {
	ledger := NewStatusLedger()
	for _, key := range []string{"one", "two", "three"} {
		ledger.Record(common.Outcome{
			Bucket: "b",
			Key:    key,
			Action: common.ActionTransition,
			Result: common.ResultFailed,
			Reason: "x",
		})
	}

	history := ledger.History()
	require.Len(t, history, 3)
	assert.Equal(t, "one", history[0].Key)
	assert.Equal(t, "two", history[1].Key)
	assert.Equal(t, "three", history[2].Key)
}

func TestStatusLedger_HistoryIsSnapshot(t *testing.T) {
	ledger := NewStatusLedger()
	ledger.Record(common.Outcome{Bucket: "b", Key: "a", Action: common.ActionTransition, Result: common.ResultFailed, Reason: "x"})

	history := ledger.History()
	ledger.Record(common.Outcome{Bucket: "b", Key: "c", Action: common.ActionTransition, Result: common.ResultFailed, Reason: "x"})

	assert.Len(t, history, 1)
	assert.Equal(t, 2, ledger.Len())
}

func TestStatusLedger_Flush(t *testing.T) {
	ledger := NewStatusLedger()
	ledger.Record(common.Outcome{
		Bucket:       "b",
		Key:          "a.txt",
		Action:       common.ActionTransition,
		Result:       common.ResultSuccess,
		StorageClass: common.ClassGlacier,
	})

	var buf bytes.Buffer
	require.NoError(t, ledger.Flush(&buf))

	var decoded common.Outcome
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "a.txt", decoded.Key)
	assert.Equal(t, common.ResultSuccess, decoded.Result)

	// Flushing retains the history for a later flush.
	assert.Equal(t, 1, ledger.Len())
}

func TestReadOutcomes_RoundTrip(t *testing.T) {
	ledger := NewStatusLedger()
	ledger.Record(common.Outcome{
		Bucket:       "b",
		Key:          "a.txt",
		Action:       common.ActionTransition,
		Result:       common.ResultSuccess,
		StorageClass: common.ClassGlacier,
	})
	ledger.Record(common.Outcome{
		Bucket: "b",
		Key:    "c.txt",
		Action: common.ActionRestore,
		Result: common.ResultFailed,
		Reason: "throttled",
	})

	var buf bytes.Buffer
	require.NoError(t, ledger.Flush(&buf))

	// Appending a second flush models successive invocations writing to
	// the same log file.
	require.NoError(t, ledger.Flush(&buf))

	outcomes, err := ReadOutcomes(&buf)
	require.NoError(t, err)
	require.Len(t, outcomes, 4)
	assert.Equal(t, "a.txt", outcomes[0].Key)
	assert.Equal(t, common.ActionRestore, outcomes[1].Action)
	assert.Equal(t, "throttled", outcomes[1].Reason)
	assert.Equal(t, "a.txt", outcomes[2].Key)
}

func TestReadOutcomes_EmptyStream(t *testing.T) {
	outcomes, err := ReadOutcomes(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}
