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
	"github.com/jeremyhahn/go-tiermigrate/pkg/common"
	"github.com/jeremyhahn/go-tiermigrate/pkg/memory"
)

func init() {
	RegisterClient("memory", func(settings map[string]string) (common.StorageClient, error) {
		client := memory.New()
		if err := client.Configure(settings); err != nil {
			return nil, err
		}
		return client, nil
	})
}
