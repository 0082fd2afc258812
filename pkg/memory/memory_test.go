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

package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-tiermigrate/pkg/common"
)

func TestMemory_SeedAndList(t *testing.T) {
	m := New()
	m.SeedObject(common.ObjectRecord{Bucket: "b", Key: "z.txt"})
	m.SeedObject(common.ObjectRecord{Bucket: "b", Key: "a.txt"})

	records, err := m.ListObjects(context.Background(), "b")
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Listings are sorted by key and defaults are applied.
	assert.Equal(t, "a.txt", records[0].Key)
	assert.Equal(t, common.ClassStandard, records[0].StorageClass)
	assert.Equal(t, common.RestoreNone, records[0].RestoreState)
}

func TestMemory_ListBuckets(t *testing.T) {
	m := New()
	m.SeedBucket("zulu")
	m.SeedBucket("alpha")

	buckets, err := m.ListBuckets(context.Background())
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, "alpha", buckets[0].Name)
	assert.Equal(t, "zulu", buckets[1].Name)
}

func TestMemory_ListUnknownBucket(t *testing.T) {
	m := New()
	_, err := m.ListObjects(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrBucketNotFound)
}

func TestMemory_HeadObject(t *testing.T) {
	m := New()
	m.SeedObject(common.ObjectRecord{Bucket: "b", Key: "a.txt", Size: 42})

	record, err := m.HeadObject(context.Background(), "b", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(42), record.Size)
	assert.False(t, record.LastRefreshed.IsZero())

	_, err = m.HeadObject(context.Background(), "b", "missing")
	assert.ErrorIs(t, err, common.ErrKeyNotFound)
}

func TestMemory_HeadReturnsCopy(t *testing.T) {
	m := New()
	m.SeedObject(common.ObjectRecord{Bucket: "b", Key: "a.txt"})

	record, err := m.HeadObject(context.Background(), "b", "a.txt")
	require.NoError(t, err)
	record.StorageClass = common.ClassDeepArchive

	fresh, err := m.HeadObject(context.Background(), "b", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, common.ClassStandard, fresh.StorageClass)
}

func TestMemory_CopyObjectWithClassOverride(t *testing.T) {
	m := New()
	m.SeedObject(common.ObjectRecord{Bucket: "b", Key: "a.txt"})

	require.NoError(t, m.CopyObjectWithClassOverride(context.Background(), "b", "a.txt", common.ClassGlacier))

	record, err := m.HeadObject(context.Background(), "b", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, common.ClassGlacier, record.StorageClass)
	assert.False(t, record.LastModified.IsZero())
}

func TestMemory_RequestRestore(t *testing.T) {
	m := New()
	m.SeedObject(common.ObjectRecord{Bucket: "b", Key: "a.tar", StorageClass: common.ClassGlacier})

	require.NoError(t, m.RequestRestore(context.Background(), "b", "a.tar", 7))

	record, err := m.HeadObject(context.Background(), "b", "a.tar")
	require.NoError(t, err)
	assert.Equal(t, common.RestoreInProgress, record.RestoreState)
	assert.False(t, record.RestoreExpiry.IsZero())
}

func TestMemory_FailureInjection(t *testing.T) {
	m := New()
	m.SeedObject(common.ObjectRecord{Bucket: "b", Key: "a.txt"})

	injected := errors.New("simulated outage")
	m.FailWith("copy", "b", "a.txt", injected)

	err := m.CopyObjectWithClassOverride(context.Background(), "b", "a.txt", common.ClassGlacier)
	assert.ErrorIs(t, err, injected)

	m.ClearFailures()
	assert.NoError(t, m.CopyObjectWithClassOverride(context.Background(), "b", "a.txt", common.ClassGlacier))
}

func TestMemory_CanceledContext(t *testing.T) {
	m := New()
	m.SeedObject(common.ObjectRecord{Bucket: "b", Key: "a.txt"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.ListObjects(ctx, "b")
	assert.ErrorIs(t, err, context.Canceled)

	err = m.CopyObjectWithClassOverride(ctx, "b", "a.txt", common.ClassGlacier)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemory_ClearAndCount(t *testing.T) {
	m := New()
	m.SeedObject(common.ObjectRecord{Bucket: "b", Key: "a"})
	m.SeedObject(common.ObjectRecord{Bucket: "b", Key: "c"})
	assert.Equal(t, 2, m.Count("b"))

	m.Clear()
	assert.Equal(t, 0, m.Count("b"))
}
