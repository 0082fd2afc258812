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

// Package validation provides centralized input validation for bucket
// names and object keys. Everything that reaches the storage backend
// goes through here first, so malformed input fails locally instead of
// as an opaque API error.
package validation

import (
	"regexp"
	"strings"

	"github.com/jeremyhahn/go-tiermigrate/pkg/common"
)

const (
	// maxKeyLength is the S3 limit on object key length in bytes.
	maxKeyLength = 1024

	// minBucketLength and maxBucketLength are the S3 bucket name bounds.
	minBucketLength = 3
	maxBucketLength = 63
)

var (
	// bucketPattern matches S3 bucket naming rules: lowercase letters,
	// digits, dots, and hyphens, starting and ending alphanumeric.
	bucketPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.\-]*[a-z0-9]$`)

	// ipPattern rejects bucket names formatted like IPv4 addresses.
	ipPattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
)

// ValidateBucketName checks a bucket name against S3 naming rules.
func ValidateBucketName(bucket string) error {
	if bucket == "" {
		return &common.ValidationError{Field: "bucket", Message: "bucket is required"}
	}
	if len(bucket) < minBucketLength || len(bucket) > maxBucketLength {
		return &common.ValidationError{Field: "bucket", Message: "bucket name must be 3-63 characters"}
	}
	if !bucketPattern.MatchString(bucket) {
		return &common.ValidationError{Field: "bucket", Message: "bucket name contains invalid characters"}
	}
	if strings.Contains(bucket, "..") {
		return &common.ValidationError{Field: "bucket", Message: "bucket name cannot contain consecutive dots"}
	}
	if ipPattern.MatchString(bucket) {
		return &common.ValidationError{Field: "bucket", Message: "bucket name cannot be formatted as an IP address"}
	}
	return nil
}

// ValidateObjectKey checks an object key against S3 key limits.
func ValidateObjectKey(key string) error {
	if key == "" {
		return &common.ValidationError{Field: "key", Message: "key is required"}
	}
	if len(key) > maxKeyLength {
		return &common.ValidationError{Field: "key", Message: "key too long (max 1024 bytes)"}
	}
	if strings.Contains(key, "\x00") {
		return &common.ValidationError{Field: "key", Message: "key contains null byte"}
	}
	return nil
}
