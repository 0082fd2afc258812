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

// Package factory creates configured storage clients by backend name.
// Backends register themselves at init time, so adding one is a new
// registration file rather than another switch arm.
package factory

import (
	"github.com/jeremyhahn/go-tiermigrate/pkg/common"
)

// ClientCreator is a function that creates and configures a storage client.
type ClientCreator func(settings map[string]string) (common.StorageClient, error)

var clientRegistry = make(map[string]ClientCreator)

// RegisterClient registers a storage client creator under a backend name.
func RegisterClient(backendType string, creator ClientCreator) {
	clientRegistry[backendType] = creator
}

// NewStorageClient creates a configured storage client for the given
// backend type.
func NewStorageClient(backendType string, settings map[string]string) (common.StorageClient, error) {
	creator, exists := clientRegistry[backendType]
	if !exists {
		return nil, ErrUnknownBackend
	}
	return creator(settings)
}

// Backends returns the registered backend names.
func Backends() []string {
	names := make([]string, 0, len(clientRegistry))
	for name := range clientRegistry {
		names = append(names, name)
	}
	return names
}
