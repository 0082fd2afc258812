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

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-tiermigrate/pkg/common"
)

func listing(keys ...string) []*common.ObjectRecord {
	records := make([]*common.ObjectRecord, len(keys))
	for i, key := range keys {
		records[i] = &common.ObjectRecord{Bucket: "test-bucket", Key: key}
	}
	return records
}

func TestResolve_MaskSelectsMatchesInListingOrder(t *testing.T) {
	mask, err := common.NewMask("", common.MaskPrefix, "logs/", false)
	require.NoError(t, err)

	targets, err := Resolve(listing("data/a.csv", "logs/app.log", "logs/db.log", "tmp/x"), mask, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"logs/app.log", "logs/db.log"}, targets.Keys())
}

func TestResolve_MaskOverridesHighlighted(t *testing.T) {
	mask, err := common.NewMask("", common.MaskPrefix, "logs/", false)
	require.NoError(t, err)

	records := listing("data/a.csv", "logs/app.log")
	highlighted := records[0]

	targets, err := Resolve(records, mask, highlighted)
	require.NoError(t, err)

	// The highlighted object does not match the mask and is not selected.
	assert.Equal(t, []string{"logs/app.log"}, targets.Keys())
}

func TestResolve_NoMaskTargetsHighlighted(t *testing.T) {
	records := listing("data/a.csv", "logs/app.log")

	targets, err := Resolve(records, nil, records[1])
	require.NoError(t, err)

	assert.Equal(t, []string{"logs/app.log"}, targets.Keys())
}

func TestResolve_EmptyMatchIsError(t *testing.T) {
	mask, err := common.NewMask("", common.MaskPrefix, "missing/", false)
	require.NoError(t, err)

	_, err = Resolve(listing("data/a.csv"), mask, nil)
	assert.ErrorIs(t, err, common.ErrNoTarget)
}

func TestResolve_NoMaskNoHighlightedIsError(t *testing.T) {
	_, err := Resolve(listing("data/a.csv"), nil, nil)
	assert.ErrorIs(t, err, common.ErrNoTarget)
}

func TestResolve_WildcardMaskSelectsEverything(t *testing.T) {
	mask, err := common.NewMask("", common.MaskPrefix, "", false)
	require.NoError(t, err)

	targets, err := Resolve(listing("a", "b", "c"), mask, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, targets.Keys())
}

func TestResolve_WildcardMaskOnEmptyListingIsError(t *testing.T) {
	mask, err := common.NewMask("", common.MaskPrefix, "", false)
	require.NoError(t, err)

	_, err = Resolve(nil, mask, nil)
	assert.ErrorIs(t, err, common.ErrNoTarget)
}

func TestResolve_SkipsNilRecords(t *testing.T) {
	mask, err := common.NewMask("", common.MaskContains, "", false)
	require.NoError(t, err)

	records := listing("a", "b")
	records = append(records, nil)

	targets, err := Resolve(records, mask, nil)
	require.NoError(t, err)
	assert.Len(t, targets, 2)
}
