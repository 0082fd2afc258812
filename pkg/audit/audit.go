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

// Package audit provides structured audit logging for tier migration
// operations.
package audit

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jeremyhahn/go-tiermigrate/pkg/common"
)

// EventType represents the type of audit event.
type EventType string

const (
	// EventTierTransition indicates a storage class transition was issued.
	EventTierTransition EventType = "TIER_TRANSITION"

	// EventRestoreRequested indicates a temporary restore was requested.
	EventRestoreRequested EventType = "RESTORE_REQUESTED"

	// EventObjectRefreshed indicates an object's metadata was refreshed.
	EventObjectRefreshed EventType = "OBJECT_REFRESHED"

	// EventPolicySaved indicates a migration policy was persisted.
	EventPolicySaved EventType = "POLICY_SAVED"

	// EventPolicyRemoved indicates a migration policy was deleted.
	EventPolicyRemoved EventType = "POLICY_REMOVED"

	// EventPolicyReplayed indicates a saved policy was replayed.
	EventPolicyReplayed EventType = "POLICY_REPLAYED"
)

// Result represents the outcome of an audited operation.
type Result string

const (
	// ResultSuccess indicates the operation succeeded.
	ResultSuccess Result = "SUCCESS"

	// ResultFailure indicates the operation failed.
	ResultFailure Result = "FAILURE"
)

// Event represents a single audit log entry.
type Event struct {
	// Timestamp when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// EventType categorizes the type of event.
	EventType EventType `json:"event_type"`

	// Bucket is the bucket name if applicable.
	Bucket string `json:"bucket,omitempty"`

	// Key is the object key if applicable.
	Key string `json:"key,omitempty"`

	// PolicyID is the migration policy id if applicable.
	PolicyID string `json:"policy_id,omitempty"`

	// StorageClass is the destination class for transitions.
	StorageClass common.StorageClass `json:"storage_class,omitempty"`

	// RestoreDays is the retention window for restore requests.
	RestoreDays int `json:"restore_days,omitempty"`

	// Result indicates success or failure.
	Result Result `json:"result"`

	// ErrorMessage contains error details if the operation failed.
	ErrorMessage string `json:"error_message,omitempty"`
}

// AuditLogger defines the interface for audit logging.
type AuditLogger interface {
	// LogEvent logs a generic audit event.
	LogEvent(ctx context.Context, event *Event) error

	// LogTransition logs a storage class transition attempt.
	LogTransition(ctx context.Context, bucket, key string, class common.StorageClass, result Result, err error) error

	// LogRestore logs a restore request attempt.
	LogRestore(ctx context.Context, bucket, key string, days int, result Result, err error) error

	// LogPolicyChange logs a policy save, removal, or replay.
	LogPolicyChange(ctx context.Context, eventType EventType, policyID, bucket string, result Result, err error) error
}

// DefaultAuditLogger implements AuditLogger using slog.
type DefaultAuditLogger struct {
	logger *slog.Logger
}

// NewDefaultAuditLogger creates an audit logger writing JSON to stdout.
func NewDefaultAuditLogger() AuditLogger {
	return NewAuditLogger(os.Stdout)
}

// NewAuditLogger creates an audit logger writing JSON to w.
func NewAuditLogger(w io.Writer) AuditLogger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	return &DefaultAuditLogger{logger: slog.New(handler)}
}

// LogEvent logs a generic audit event.
func (a *DefaultAuditLogger) LogEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	attrs := []slog.Attr{
		slog.Time("timestamp", event.Timestamp),
		slog.String("event_type", string(event.EventType)),
		slog.String("result", string(event.Result)),
	}
	if event.Bucket != "" {
		attrs = append(attrs, slog.String("bucket", event.Bucket))
	}
	if event.Key != "" {
		attrs = append(attrs, slog.String("key", event.Key))
	}
	if event.PolicyID != "" {
		attrs = append(attrs, slog.String("policy_id", event.PolicyID))
	}
	if event.StorageClass != "" {
		attrs = append(attrs, slog.String("storage_class", string(event.StorageClass)))
	}
	if event.RestoreDays > 0 {
		attrs = append(attrs, slog.Int("restore_days", event.RestoreDays))
	}
	if event.ErrorMessage != "" {
		attrs = append(attrs, slog.String("error", event.ErrorMessage))
	}

	a.logger.LogAttrs(ctx, slog.LevelInfo, "Audit event: "+string(event.EventType), attrs...)
	return nil
}

// LogTransition logs a storage class transition attempt.
func (a *DefaultAuditLogger) LogTransition(ctx context.Context, bucket, key string, class common.StorageClass, result Result, err error) error {
	event := &Event{
		Timestamp:    time.Now(),
		EventType:    EventTierTransition,
		Bucket:       bucket,
		Key:          key,
		StorageClass: class,
		Result:       result,
	}
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	return a.LogEvent(ctx, event)
}

// LogRestore logs a restore request attempt.
func (a *DefaultAuditLogger) LogRestore(ctx context.Context, bucket, key string, days int, result Result, err error) error {
	event := &Event{
		Timestamp:   time.Now(),
		EventType:   EventRestoreRequested,
		Bucket:      bucket,
		Key:         key,
		RestoreDays: days,
		Result:      result,
	}
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	return a.LogEvent(ctx, event)
}

// LogPolicyChange logs a policy save, removal, or replay.
func (a *DefaultAuditLogger) LogPolicyChange(ctx context.Context, eventType EventType, policyID, bucket string, result Result, err error) error {
	event := &Event{
		Timestamp: time.Now(),
		EventType: eventType,
		Bucket:    bucket,
		PolicyID:  policyID,
		Result:    result,
	}
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	return a.LogEvent(ctx, event)
}

// NoOpAuditLogger is an audit logger that discards all events.
type NoOpAuditLogger struct{}

// NewNoOpAuditLogger creates a new no-op audit logger.
func NewNoOpAuditLogger() AuditLogger {
	return &NoOpAuditLogger{}
}

func (n *NoOpAuditLogger) LogEvent(ctx context.Context, event *Event) error {
	return nil
}

func (n *NoOpAuditLogger) LogTransition(ctx context.Context, bucket, key string, class common.StorageClass, result Result, err error) error {
	return nil
}

func (n *NoOpAuditLogger) LogRestore(ctx context.Context, bucket, key string, days int, result Result, err error) error {
	return nil
}

func (n *NoOpAuditLogger) LogPolicyChange(ctx context.Context, eventType EventType, policyID, bucket string, result Result, err error) error {
	return nil
}
