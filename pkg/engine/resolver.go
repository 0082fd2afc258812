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

// Package engine implements the migration policy engine: mask-driven
// target selection, orchestrated tier transitions and restores, and the
// status ledger that tracks per-object outcomes.
package engine

import (
	"github.com/jeremyhahn/go-tiermigrate/pkg/common"
)

// TargetSet is the ordered set of objects one action applies to. It is
// computed fresh per invocation from the current listing and scoped to
// a single orchestration run; it is never persisted.
type TargetSet []*common.ObjectRecord

// Keys returns the object keys in target order.
func (t TargetSet) Keys() []string {
	keys := make([]string, len(t))
	for i, record := range t {
		keys[i] = record.Key
	}
	return keys
}

// Resolve computes the target set for an action from a bucket listing.
//
// A non-nil mask takes priority over the highlighted object: with an
// active mask, actions target every matching object in listing order.
// Without a mask, the target is exactly the highlighted object. An
// empty result fails with ErrNoTarget so callers surface it instead of
// silently doing nothing; a wildcard mask that matches everything is a
// successful, non-empty selection and is not conflated with this error.
func Resolve(listing []*common.ObjectRecord, mask *common.Mask, highlighted *common.ObjectRecord) (TargetSet, error) {
	if mask != nil {
		targets := make(TargetSet, 0, len(listing))
		for _, record := range listing {
			if record == nil {
				continue
			}
			if mask.Matches(record.Key) {
				targets = append(targets, record)
			}
		}
		if len(targets) == 0 {
			return nil, common.ErrNoTarget
		}
		return targets, nil
	}

	if highlighted == nil {
		return nil, common.ErrNoTarget
	}
	return TargetSet{highlighted}, nil
}
