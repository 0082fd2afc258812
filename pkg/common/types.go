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
	"time"
)

// StorageClass identifies the storage tier an object lives in.
type StorageClass string

const (
	// ClassStandard is the default hot tier.
	ClassStandard StorageClass = "STANDARD"

	// ClassStandardIA is infrequent access.
	ClassStandardIA StorageClass = "STANDARD_IA"

	// ClassOneZoneIA is single-AZ infrequent access.
	ClassOneZoneIA StorageClass = "ONEZONE_IA"

	// ClassIntelligentTiering moves objects between tiers automatically.
	ClassIntelligentTiering StorageClass = "INTELLIGENT_TIERING"

	// ClassGlacierIR is Glacier Instant Retrieval.
	ClassGlacierIR StorageClass = "GLACIER_IR"

	// ClassGlacier is Glacier Flexible Retrieval.
	ClassGlacier StorageClass = "GLACIER"

	// ClassDeepArchive is Glacier Deep Archive.
	ClassDeepArchive StorageClass = "DEEP_ARCHIVE"
)

// storageClasses is the closed set of classes a transition may target.
var storageClasses = []StorageClass{
	ClassStandard,
	ClassStandardIA,
	ClassOneZoneIA,
	ClassIntelligentTiering,
	ClassGlacierIR,
	ClassGlacier,
	ClassDeepArchive,
}

// StorageClasses returns the recognized storage classes in display order.
func StorageClasses() []StorageClass {
	classes := make([]StorageClass, len(storageClasses))
	copy(classes, storageClasses)
	return classes
}

// ParseStorageClass validates a storage class name and returns the
// canonical value. Unknown names are rejected with a ValidationError
// before any network effect.
func ParseStorageClass(name string) (StorageClass, error) {
	for _, class := range storageClasses {
		if string(class) == name {
			return class, nil
		}
	}
	return "", &ValidationError{
		Field:   "destination_class",
		Message: "unrecognized storage class: " + name,
	}
}

// Archival reports whether objects in this class must be restored
// before their data is retrievable.
func (c StorageClass) Archival() bool {
	return c == ClassGlacier || c == ClassDeepArchive
}

// RestoreState describes the restore status of an archived object.
type RestoreState string

const (
	// RestoreNone means no restore has been requested.
	RestoreNone RestoreState = "NONE"

	// RestoreInProgress means a restore has been requested and is ongoing.
	RestoreInProgress RestoreState = "IN_PROGRESS"

	// RestoreAvailable means the restored copy is readable until expiry.
	RestoreAvailable RestoreState = "AVAILABLE"
)

// BucketInfo describes a bucket returned by the storage backend.
type BucketInfo struct {
	// Name is the bucket name.
	Name string `json:"name"`

	// Region is the bucket's region, if the backend reports one.
	Region string `json:"region,omitempty"`

	// CreationDate is when the bucket was created.
	CreationDate time.Time `json:"creation_date,omitzero"`
}

// ObjectRecord is the engine's view of a single stored object.
// Records are produced by listings and metadata refreshes; successful
// transition and restore outcomes update them through the status ledger,
// which is the sole writer of these mutations.
type ObjectRecord struct {
	// Bucket is the bucket containing the object.
	Bucket string `json:"bucket"`

	// Key is the object key.
	Key string `json:"key"`

	// Size is the object size in bytes.
	Size int64 `json:"size"`

	// StorageClass is the last known storage tier.
	StorageClass StorageClass `json:"storage_class"`

	// RestoreState is the last known restore status.
	RestoreState RestoreState `json:"restore_state"`

	// RestoreExpiry is when a restored copy stops being readable.
	// Zero unless RestoreState is AVAILABLE and the backend reported one.
	RestoreExpiry time.Time `json:"restore_expiry,omitzero"`

	// LastModified is the object's modification time per the backend.
	LastModified time.Time `json:"last_modified,omitzero"`

	// LastRefreshed is when this record was last fetched or updated.
	LastRefreshed time.Time `json:"last_refreshed,omitzero"`
}

// Action identifies the kind of per-object operation that produced an outcome.
type Action string

const (
	// ActionTransition is a storage class transition (copy-in-place).
	ActionTransition Action = "transition"

	// ActionRestore is a temporary restore request.
	ActionRestore Action = "restore"
)

// Result is the terminal state of a per-object operation.
type Result string

const (
	// ResultSuccess means the backend call succeeded.
	ResultSuccess Result = "SUCCESS"

	// ResultFailed means the backend call failed; Reason carries the cause.
	ResultFailed Result = "FAILED"

	// ResultSkipped means the object was not attempted; Reason says why.
	ResultSkipped Result = "SKIPPED"
)

// Outcome is the immutable per-object result of one action execution.
// A batch of N objects always produces exactly N outcomes, in target
// order, regardless of how many individually fail.
type Outcome struct {
	// Bucket is the bucket containing the object.
	Bucket string `json:"bucket"`

	// Key is the object key the action was applied to.
	Key string `json:"key"`

	// Action is what was attempted.
	Action Action `json:"action"`

	// Result is the terminal state.
	Result Result `json:"result"`

	// Reason carries failure or skip details, empty on success.
	Reason string `json:"reason,omitempty"`

	// StorageClass is the destination class for transitions.
	StorageClass StorageClass `json:"storage_class,omitempty"`

	// Timestamp is when the outcome was recorded.
	Timestamp time.Time `json:"timestamp"`
}
