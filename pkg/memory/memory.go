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

// Package memory provides an in-memory implementation of the storage
// client. This is useful for testing, development, and dry exercising
// the engine without cloud credentials.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jeremyhahn/go-tiermigrate/pkg/common"
)

// object is a stored object's mutable backend state.
type object struct {
	record common.ObjectRecord
}

// Memory is a storage client that keeps buckets and objects in memory.
type Memory struct {
	mu      sync.RWMutex
	buckets map[string]map[string]*object
	created map[string]time.Time

	// failures maps "op bucket/key" to an injected error; see FailWith.
	failures map[string]error
}

// New creates a new, empty in-memory storage client.
func New() *Memory {
	return &Memory{
		buckets:  make(map[string]map[string]*object),
		created:  make(map[string]time.Time),
		failures: make(map[string]error),
	}
}

// Configure sets up the client. The memory client has no required settings.
func (m *Memory) Configure(settings map[string]string) error {
	return nil
}

// SeedBucket creates a bucket if it does not exist.
func (m *Memory) SeedBucket(bucket string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[bucket]; !ok {
		m.buckets[bucket] = make(map[string]*object)
		m.created[bucket] = time.Now()
	}
}

// SeedObject creates or replaces an object record. The bucket is
// created as needed.
func (m *Memory) SeedObject(record common.ObjectRecord) {
	m.SeedBucket(record.Bucket)

	m.mu.Lock()
	defer m.mu.Unlock()

	if record.StorageClass == "" {
		record.StorageClass = common.ClassStandard
	}
	if record.RestoreState == "" {
		record.RestoreState = common.RestoreNone
	}
	m.buckets[record.Bucket][record.Key] = &object{record: record}
}

// FailWith injects an error for a specific operation and object. The
// op is one of "copy", "restore", "head", "list". Injection survives
// until cleared with ClearFailures.
func (m *Memory) FailWith(op, bucket, key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[failureKey(op, bucket, key)] = err
}

// ClearFailures removes all injected errors.
func (m *Memory) ClearFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = make(map[string]error)
}

func failureKey(op, bucket, key string) string {
	return op + " " + bucket + "/" + key
}

func (m *Memory) injected(op, bucket, key string) error {
	if err, ok := m.failures[failureKey(op, bucket, key)]; ok {
		return err
	}
	return nil
}

// ListBuckets returns the known buckets, sorted by name.
func (m *Memory) ListBuckets(ctx context.Context) ([]common.BucketInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	buckets := make([]common.BucketInfo, 0, len(m.buckets))
	for name := range m.buckets {
		buckets = append(buckets, common.BucketInfo{
			Name:         name,
			CreationDate: m.created[name],
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Name < buckets[j].Name
	})
	return buckets, nil
}

// ListObjects returns a bucket's objects sorted by key.
func (m *Memory) ListObjects(ctx context.Context, bucket string) ([]*common.ObjectRecord, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.injected("list", bucket, ""); err != nil {
		return nil, err
	}

	objects, ok := m.buckets[bucket]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrBucketNotFound, bucket)
	}

	keys := make([]string, 0, len(objects))
	for key := range objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	now := time.Now()
	records := make([]*common.ObjectRecord, 0, len(keys))
	for _, key := range keys {
		record := objects[key].record
		record.LastRefreshed = now
		records = append(records, &record)
	}
	return records, nil
}

// HeadObject returns a copy of one object's current record.
func (m *Memory) HeadObject(ctx context.Context, bucket, key string) (*common.ObjectRecord, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.injected("head", bucket, key); err != nil {
		return nil, err
	}

	obj, err := m.lookup(bucket, key)
	if err != nil {
		return nil, err
	}

	record := obj.record
	record.LastRefreshed = time.Now()
	return &record, nil
}

// CopyObjectWithClassOverride rewrites an object in place with a new
// storage class.
func (m *Memory) CopyObjectWithClassOverride(ctx context.Context, bucket, key string, class common.StorageClass) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.injected("copy", bucket, key); err != nil {
		return err
	}

	obj, err := m.lookup(bucket, key)
	if err != nil {
		return err
	}

	obj.record.StorageClass = class
	obj.record.LastModified = time.Now()
	return nil
}

// RequestRestore marks an archived object's restore as in progress.
func (m *Memory) RequestRestore(ctx context.Context, bucket, key string, days int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.injected("restore", bucket, key); err != nil {
		return err
	}

	obj, err := m.lookup(bucket, key)
	if err != nil {
		return err
	}

	if days <= 0 {
		days = common.DefaultRestoreDays
	}
	obj.record.RestoreState = common.RestoreInProgress
	obj.record.RestoreExpiry = time.Now().Add(time.Duration(days) * 24 * time.Hour)
	return nil
}

// lookup must be called with the lock held.
func (m *Memory) lookup(bucket, key string) (*object, error) {
	objects, ok := m.buckets[bucket]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrBucketNotFound, bucket)
	}
	obj, ok := objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", common.ErrKeyNotFound, bucket, key)
	}
	return obj, nil
}

// Clear removes all buckets and objects. This is useful for testing.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buckets = make(map[string]map[string]*object)
	m.created = make(map[string]time.Time)
	m.failures = make(map[string]error)
}

// Count returns the number of objects in a bucket. This is useful for
// testing.
func (m *Memory) Count(bucket string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.buckets[bucket])
}
