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
	"errors"
	"fmt"
)

var (
	// Configuration errors

	// ErrNotConfigured is returned when a storage client is not properly configured.
	ErrNotConfigured = errors.New("not configured")

	// ErrRegionNotSet is returned when the required region is not set.
	ErrRegionNotSet = errors.New("region not set")

	// ErrBucketNotSet is returned when the required bucket is not set.
	ErrBucketNotSet = errors.New("bucket not set")

	// Selection errors

	// ErrNoTarget is returned when an action resolves to an empty target set.
	// No backend call is issued in that case.
	ErrNoTarget = errors.New("no target objects selected")

	// Policy errors

	// ErrPolicyNotFound is returned when a migration policy id is unknown.
	ErrPolicyNotFound = errors.New("migration policy not found")

	// ErrPolicyNil is returned when a policy is nil.
	ErrPolicyNil = errors.New("policy cannot be nil")

	// Storage operation errors

	// ErrKeyNotFound is returned when a key is not found in storage.
	ErrKeyNotFound = errors.New("key not found")

	// ErrBucketNotFound is returned when a bucket is not found in storage.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrInternal is returned for internal errors during operations.
	ErrInternal = errors.New("internal error")
)

// ValidationError represents a construction-time validation failure.
// Validation errors are raised before any network effect.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// BackendError wraps a failure from a single object's backend call.
// It is isolated to that object's outcome and never aborts the batch.
type BackendError struct {
	Bucket string
	Key    string
	Op     string
	Err    error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
