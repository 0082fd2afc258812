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
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/jeremyhahn/go-tiermigrate/pkg/common"
)

// StatusLedger is the append-only record of action outcomes and the
// single writer of action-driven ObjectRecord mutations. Components read
// the latest-known object state from here instead of re-fetching
// metadata from the backend after every action.
type StatusLedger struct {
	mu       sync.RWMutex
	latest   map[string]*common.ObjectRecord
	outcomes []common.Outcome
}

// NewStatusLedger creates an empty ledger.
func NewStatusLedger() *StatusLedger {
	return &StatusLedger{
		latest: make(map[string]*common.ObjectRecord),
	}
}

func ledgerKey(bucket, key string) string {
	return bucket + "/" + key
}

// ApplyListing seeds or refreshes the latest-known state from a fresh
// bucket listing or a metadata refresh. Records are copied in.
func (l *StatusLedger) ApplyListing(records []*common.ObjectRecord) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, record := range records {
		if record == nil {
			continue
		}
		copied := *record
		if copied.LastRefreshed.IsZero() {
			copied.LastRefreshed = now
		}
		l.latest[ledgerKey(copied.Bucket, copied.Key)] = &copied
	}
}

// Latest returns a copy of the latest-known record for an object, or
// nil if the ledger has never seen it.
func (l *StatusLedger) Latest(bucket, key string) *common.ObjectRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	record, ok := l.latest[ledgerKey(bucket, key)]
	if !ok {
		return nil
	}
	copied := *record
	return &copied
}

// Record appends an outcome and, for successful actions, applies the
// implied object state change: transitions update the storage class,
// restores mark the restore as in progress. Outcomes are never mutated
// after this call.
func (l *StatusLedger) Record(outcome common.Outcome) {
	if outcome.Timestamp.IsZero() {
		outcome.Timestamp = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.outcomes = append(l.outcomes, outcome)

	if outcome.Result != common.ResultSuccess {
		return
	}

	record, ok := l.latest[ledgerKey(outcome.Bucket, outcome.Key)]
	if !ok {
		record = &common.ObjectRecord{
			Bucket:       outcome.Bucket,
			Key:          outcome.Key,
			RestoreState: common.RestoreNone,
		}
		l.latest[ledgerKey(outcome.Bucket, outcome.Key)] = record
	}

	switch outcome.Action {
	case common.ActionTransition:
		record.StorageClass = outcome.StorageClass
	case common.ActionRestore:
		record.RestoreState = common.RestoreInProgress
	}
	record.LastRefreshed = outcome.Timestamp
}

// History returns a snapshot of all outcomes in append order. The
// snapshot is a copy: callers may iterate it repeatedly or concurrently
// with new recordings.
func (l *StatusLedger) History() []common.Outcome {
	l.mu.RLock()
	defer l.mu.RUnlock()

	history := make([]common.Outcome, len(l.outcomes))
	copy(history, l.outcomes)
	return history
}

// Len returns the number of recorded outcomes.
func (l *StatusLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.outcomes)
}

// Flush writes the outcome history to w as JSON lines. The in-memory
// history is retained so the log can be flushed again later.
func (l *StatusLedger) Flush(w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, outcome := range l.History() {
		if err := enc.Encode(outcome); err != nil {
			return err
		}
	}
	return nil
}

// ReadOutcomes decodes a JSON-lines outcome stream written by Flush,
// preserving append order.
func ReadOutcomes(r io.Reader) ([]common.Outcome, error) {
	var outcomes []common.Outcome
	dec := json.NewDecoder(r)
	for {
		var outcome common.Outcome
		if err := dec.Decode(&outcome); err != nil {
			if errors.Is(err, io.EOF) {
				return outcomes, nil
			}
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}
}
