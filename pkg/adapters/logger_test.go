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

package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewDefaultLoggerWithOutput(&buf)

	logger.Info(context.Background(), "transition issued",
		Field{Key: "bucket", Value: "b"},
		Field{Key: "key", Value: "a.txt"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "transition issued", entry["msg"])
	assert.Equal(t, "b", entry["bucket"])
	assert.Equal(t, "a.txt", entry["key"])
}

func TestDefaultLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewDefaultLoggerWithOutput(&buf)

	// Default level is info; debug is suppressed.
	logger.Debug(context.Background(), "hidden")
	assert.Zero(t, buf.Len())

	logger.SetLevel(DebugLevel)
	logger.Debug(context.Background(), "visible")
	assert.NotZero(t, buf.Len())
	assert.Equal(t, DebugLevel, logger.GetLevel())
}

func TestDefaultLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewDefaultLoggerWithOutput(&buf).WithFields(Field{Key: "run_id", Value: "r1"})

	logger.Warn(context.Background(), "slow backend")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "r1", entry["run_id"])
	assert.Equal(t, "WARN", entry["level"])
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", DebugLevel.String())
	assert.Equal(t, "INFO", InfoLevel.String())
	assert.Equal(t, "WARN", WarnLevel.String())
	assert.Equal(t, "ERROR", ErrorLevel.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestNoOpLogger(t *testing.T) {
	logger := NewNoOpLogger()
	logger.Info(context.Background(), "discarded")
	logger.SetLevel(DebugLevel)
	assert.Equal(t, DebugLevel, logger.GetLevel())
	assert.Same(t, logger, logger.WithFields(Field{Key: "k", Value: "v"}))
}
