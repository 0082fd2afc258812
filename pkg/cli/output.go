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
	"encoding/json"
	"fmt"
	"time"

	"github.com/jeremyhahn/go-tiermigrate/pkg/common"
	"github.com/jeremyhahn/go-tiermigrate/pkg/policy"
)

// OutputFormat defines the output format type.
type OutputFormat string

const (
	FormatText  OutputFormat = "text"
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
)

// OperationResult holds the result of an operation.
type OperationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// FormatOperationResult formats an operation result in the specified format.
func FormatOperationResult(result *OperationResult, format OutputFormat) string {
	switch format {
	case FormatJSON:
		return formatJSON(result)
	default:
		return formatResultText(result)
	}
}

// FormatError formats an error message in the specified format.
func FormatError(err error, format OutputFormat) string {
	result := &OperationResult{
		Success: false,
		Error:   err.Error(),
	}
	return FormatOperationResult(result, format)
}

// FormatBucketsResult formats a bucket listing in the specified format.
func FormatBucketsResult(buckets []common.BucketInfo, format OutputFormat) string {
	switch format {
	case FormatJSON:
		return formatJSON(map[string]any{"count": len(buckets), "buckets": buckets})
	case FormatTable:
		return formatBucketsTable(buckets)
	default:
		return formatBucketsText(buckets)
	}
}

// FormatObjectsResult formats an object listing in the specified format.
func FormatObjectsResult(records []*common.ObjectRecord, format OutputFormat) string {
	switch format {
	case FormatJSON:
		return formatJSON(map[string]any{"count": len(records), "objects": records})
	case FormatTable:
		return formatObjectsTable(records)
	default:
		return formatObjectsText(records)
	}
}

// FormatObjectResult formats a single object's refreshed metadata.
func FormatObjectResult(record *common.ObjectRecord, format OutputFormat) string {
	switch format {
	case FormatJSON:
		return formatJSON(record)
	default:
		return formatObjectText(record)
	}
}

// FormatOutcomesResult formats the outcomes of an orchestration run in
// the specified format.
func FormatOutcomesResult(outcomes []common.Outcome, format OutputFormat) string {
	switch format {
	case FormatJSON:
		return formatJSON(map[string]any{"count": len(outcomes), "outcomes": outcomes})
	case FormatTable:
		return formatOutcomesTable(outcomes)
	default:
		return formatOutcomesText(outcomes)
	}
}

// FormatPoliciesResult formats a policy listing in the specified format.
func FormatPoliciesResult(policies []policy.Policy, format OutputFormat) string {
	switch format {
	case FormatJSON:
		return formatJSON(map[string]any{"count": len(policies), "policies": policies})
	case FormatTable:
		return formatPoliciesTable(policies)
	default:
		return formatPoliciesText(policies)
	}
}

func formatResultText(result *OperationResult) string {
	if result.Success {
		if result.Message != "" {
			return result.Message + "\n"
		}
		return "Operation completed successfully\n"
	}
	return fmt.Sprintf("Error: %s\n", result.Error)
}

func formatJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": \"failed to marshal JSON: %s\"}\n", err)
	}
	return string(data) + "\n"
}

func formatBucketsText(buckets []common.BucketInfo) string {
	if len(buckets) == 0 {
		return "No buckets found\n"
	}

	var output string
	output += fmt.Sprintf("Found %d bucket(s):\n\n", len(buckets))
	for _, bucket := range buckets {
		output += fmt.Sprintf("Name: %s\n", bucket.Name)
		if bucket.Region != "" {
			output += fmt.Sprintf("  Region: %s\n", bucket.Region)
		}
		if !bucket.CreationDate.IsZero() {
			output += fmt.Sprintf("  Created: %s\n", bucket.CreationDate.Format(time.RFC3339))
		}
		output += "\n"
	}
	return output
}

func formatBucketsTable(buckets []common.BucketInfo) string {
	if len(buckets) == 0 {
		return "No buckets found\n"
	}

	var output string
	output += "┌────────────────────────────────────┬──────────────┬──────────────────────┐\n"
	output += "│ Bucket                             │ Region       │ Created              │\n"
	output += "├────────────────────────────────────┼──────────────┼──────────────────────┤\n"
	for _, bucket := range buckets {
		created := ""
		if !bucket.CreationDate.IsZero() {
			created = bucket.CreationDate.Format("2006-01-02 15:04:05")
		}
		output += fmt.Sprintf("│ %-34s │ %-12s │ %-20s │\n",
			truncate(bucket.Name, 34), truncate(bucket.Region, 12), created)
	}
	output += "└────────────────────────────────────┴──────────────┴──────────────────────┘\n"
	output += fmt.Sprintf("Total: %d bucket(s)\n", len(buckets))
	return output
}

func formatObjectsText(records []*common.ObjectRecord) string {
	if len(records) == 0 {
		return "No objects found\n"
	}

	var output string
	output += fmt.Sprintf("Found %d object(s):\n\n", len(records))
	for _, record := range records {
		output += fmt.Sprintf("Key: %s\n", record.Key)
		output += fmt.Sprintf("  Size: %s\n", formatSize(record.Size))
		output += fmt.Sprintf("  Storage Class: %s\n", record.StorageClass)
		if record.RestoreState != common.RestoreNone {
			output += fmt.Sprintf("  Restore: %s\n", record.RestoreState)
		}
		if !record.LastModified.IsZero() {
			output += fmt.Sprintf("  Last Modified: %s\n", record.LastModified.Format(time.RFC3339))
		}
		output += "\n"
	}
	return output
}

func formatObjectsTable(records []*common.ObjectRecord) string {
	if len(records) == 0 {
		return "No objects found\n"
	}

	var output string
	output += "┌────────────────────────────────────┬──────────────┬──────────────────────┬──────────────┐\n"
	output += "│ Key                                │ Size         │ Storage Class        │ Restore      │\n"
	output += "├────────────────────────────────────┼──────────────┼──────────────────────┼──────────────┤\n"
	for _, record := range records {
		restore := ""
		if record.RestoreState != common.RestoreNone {
			restore = string(record.RestoreState)
		}
		output += fmt.Sprintf("│ %-34s │ %-12s │ %-20s │ %-12s │\n",
			truncate(record.Key, 34), formatSize(record.Size),
			truncate(string(record.StorageClass), 20), truncate(restore, 12))
	}
	output += "└────────────────────────────────────┴──────────────┴──────────────────────┴──────────────┘\n"
	output += fmt.Sprintf("Total: %d object(s)\n", len(records))
	return output
}

func formatObjectText(record *common.ObjectRecord) string {
	var output string
	output += fmt.Sprintf("Bucket: %s\n", record.Bucket)
	output += fmt.Sprintf("Key: %s\n", record.Key)
	output += fmt.Sprintf("Size: %s\n", formatSize(record.Size))
	output += fmt.Sprintf("Storage Class: %s\n", record.StorageClass)
	output += fmt.Sprintf("Restore State: %s\n", record.RestoreState)
	if !record.RestoreExpiry.IsZero() {
		output += fmt.Sprintf("Restore Expiry: %s\n", record.RestoreExpiry.Format(time.RFC3339))
	}
	if !record.LastModified.IsZero() {
		output += fmt.Sprintf("Last Modified: %s\n", record.LastModified.Format(time.RFC3339))
	}
	output += fmt.Sprintf("Last Refreshed: %s\n", record.LastRefreshed.Format(time.RFC3339))
	return output
}

func formatOutcomesText(outcomes []common.Outcome) string {
	if len(outcomes) == 0 {
		return "No outcomes recorded\n"
	}

	succeeded, failed, skipped := tallyOutcomes(outcomes)

	var output string
	for _, outcome := range outcomes {
		output += fmt.Sprintf("%s %s/%s [%s]", outcome.Result, outcome.Bucket, outcome.Key, outcome.Action)
		if outcome.StorageClass != "" {
			output += fmt.Sprintf(" -> %s", outcome.StorageClass)
		}
		if outcome.Reason != "" {
			output += fmt.Sprintf(": %s", outcome.Reason)
		}
		output += "\n"
	}
	output += fmt.Sprintf("\n%d succeeded, %d failed, %d skipped\n", succeeded, failed, skipped)
	return output
}

func formatOutcomesTable(outcomes []common.Outcome) string {
	if len(outcomes) == 0 {
		return "No outcomes recorded\n"
	}

	var output string
	output += "┌────────────────────────────────────┬────────────┬──────────┬──────────────────────────────┐\n"
	output += "│ Key                                │ Action     │ Result   │ Detail                       │\n"
	output += "├────────────────────────────────────┼────────────┼──────────┼──────────────────────────────┤\n"
	for _, outcome := range outcomes {
		detail := outcome.Reason
		if detail == "" && outcome.StorageClass != "" {
			detail = string(outcome.StorageClass)
		}
		output += fmt.Sprintf("│ %-34s │ %-10s │ %-8s │ %-28s │\n",
			truncate(outcome.Key, 34), outcome.Action, outcome.Result, truncate(detail, 28))
	}
	output += "└────────────────────────────────────┴────────────┴──────────┴──────────────────────────────┘\n"

	succeeded, failed, skipped := tallyOutcomes(outcomes)
	output += fmt.Sprintf("%d succeeded, %d failed, %d skipped\n", succeeded, failed, skipped)
	return output
}

func tallyOutcomes(outcomes []common.Outcome) (succeeded, failed, skipped int) {
	for _, outcome := range outcomes {
		switch outcome.Result {
		case common.ResultSuccess:
			succeeded++
		case common.ResultFailed:
			failed++
		case common.ResultSkipped:
			skipped++
		}
	}
	return succeeded, failed, skipped
}

func formatPoliciesText(policies []policy.Policy) string {
	if len(policies) == 0 {
		return "No policies saved\n"
	}

	var output string
	output += fmt.Sprintf("Found %d policy(ies):\n\n", len(policies))
	for _, p := range policies {
		output += fmt.Sprintf("ID: %s\n", p.ID)
		output += fmt.Sprintf("  Bucket: %s\n", p.Bucket)
		output += fmt.Sprintf("  Mask: %s\n", p.Mask.String())
		output += fmt.Sprintf("  Destination: %s\n", p.DestinationClass)
		output += fmt.Sprintf("  Restore First: %v\n", p.RestoreFirst)
		output += fmt.Sprintf("  Created: %s\n", p.CreatedAt.Format(time.RFC3339))
		if p.Notes != "" {
			output += fmt.Sprintf("  Notes: %s\n", p.Notes)
		}
		output += "\n"
	}
	return output
}

func formatPoliciesTable(policies []policy.Policy) string {
	if len(policies) == 0 {
		return "No policies saved\n"
	}

	var output string
	output += "┌──────────────────────────────────────┬──────────────────────┬──────────────────────────────┬──────────────────────┐\n"
	output += "│ ID                                   │ Bucket               │ Mask                         │ Destination          │\n"
	output += "├──────────────────────────────────────┼──────────────────────┼──────────────────────────────┼──────────────────────┤\n"
	for _, p := range policies {
		output += fmt.Sprintf("│ %-36s │ %-20s │ %-28s │ %-20s │\n",
			truncate(p.ID, 36), truncate(p.Bucket, 20),
			truncate(p.Mask.String(), 28), truncate(string(p.DestinationClass), 20))
	}
	output += "└──────────────────────────────────────┴──────────────────────┴──────────────────────────────┴──────────────────────┘\n"
	output += fmt.Sprintf("Total: %d policy(ies)\n", len(policies))
	return output
}

// formatSize formats a byte size into a human-readable string.
func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

// truncate shortens a string to maxLen characters with an ellipsis.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
