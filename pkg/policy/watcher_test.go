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

package policy

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnExternalWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.json")

	store, err := NewStore(path, nil)
	require.NoError(t, err)

	watcher := NewWatcher(store, nil)
	require.NoError(t, watcher.Start(context.Background()))
	defer func() { _ = watcher.Stop() }()

	// Write through a second store handle, as an external process would.
	external, err := NewStore(path, nil)
	require.NoError(t, err)
	id, err := external.Save(validPolicy())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := store.Get(id)
		return err == nil
	}, 5*time.Second, 50*time.Millisecond, "watched store never picked up the external save")
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	watcher := NewWatcher(store, nil)
	require.NoError(t, watcher.Start(context.Background()))

	require.NoError(t, watcher.Stop())
	require.NoError(t, watcher.Stop())
}
