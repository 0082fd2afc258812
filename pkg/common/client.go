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

package common

import (
	"context"
)

// DefaultRestoreDays is the retention window for temporary restores
// when no override is given.
const DefaultRestoreDays = 7

// StorageClient is the interface every storage backend implements.
// The migration engine only talks to backends through this surface.
type StorageClient interface {
	// Configure sets up the client with the necessary credentials and settings.
	Configure(settings map[string]string) error

	// ListBuckets returns the known buckets, sorted by name.
	ListBuckets(ctx context.Context) ([]BucketInfo, error)

	// ListObjects returns the full object listing for a bucket in
	// backend order, following pagination to the end.
	ListObjects(ctx context.Context, bucket string) ([]*ObjectRecord, error)

	// HeadObject refreshes a single object's metadata, including
	// storage class and restore status.
	HeadObject(ctx context.Context, bucket, key string) (*ObjectRecord, error)

	// CopyObjectWithClassOverride rewrites an object in place with a
	// new storage class.
	CopyObjectWithClassOverride(ctx context.Context, bucket, key string, class StorageClass) error

	// RequestRestore asks the backend to make an archived object
	// temporarily retrievable for the given number of days. The call
	// returns once the request is accepted; restore completion is
	// asynchronous on the backend side.
	RequestRestore(ctx context.Context, bucket, key string, days int) error
}
