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

package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-tiermigrate/pkg/memory"
)

func TestNewStorageClient_Memory(t *testing.T) {
	client, err := NewStorageClient("memory", nil)
	require.NoError(t, err)

	_, ok := client.(*memory.Memory)
	assert.True(t, ok)
}

func TestNewStorageClient_S3(t *testing.T) {
	client, err := NewStorageClient("s3", map[string]string{
		"region":    "us-east-1",
		"accessKey": "ak",
		"secretKey": "sk",
	})
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNewStorageClient_Unknown(t *testing.T) {
	_, err := NewStorageClient("tape", nil)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestBackends(t *testing.T) {
	backends := Backends()
	assert.Contains(t, backends, "s3")
	assert.Contains(t, backends, "memory")
}
