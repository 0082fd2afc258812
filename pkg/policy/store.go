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

// Package policy persists reusable migration policies and replays them
// against fresh listings with the same selection semantics as
// interactive use.
package policy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeremyhahn/go-tiermigrate/pkg/adapters"
	"github.com/jeremyhahn/go-tiermigrate/pkg/common"
	"github.com/jeremyhahn/go-tiermigrate/pkg/engine"
	"github.com/jeremyhahn/go-tiermigrate/pkg/validation"
)

// DefaultPolicyFile is the well-known policy file path used when none
// is configured.
const DefaultPolicyFile = ".migration-policies.json"

// Policy is a persisted, replayable migration rule. Once saved, the
// bucket, mask, destination class, and restore flag are immutable; an
// edit is a new entry, preserving audit fidelity.
type Policy struct {
	// ID uniquely identifies the policy within the store.
	ID string `json:"id"`

	// Bucket is the bucket the policy applies to.
	Bucket string `json:"bucket"`

	// Mask selects the object keys the policy targets.
	Mask common.Mask `json:"mask"`

	// DestinationClass is the storage class transitions target.
	DestinationClass common.StorageClass `json:"destination_class"`

	// RestoreFirst requests a temporary restore before the transition.
	RestoreFirst bool `json:"restore_first"`

	// CreatedAt is when the policy was persisted.
	CreatedAt time.Time `json:"created_at"`

	// Notes is free-form operator text.
	Notes string `json:"notes,omitempty"`
}

// persistedPolicies is the on-disk structure. Records are kept raw so a
// malformed entry fails alone instead of aborting the whole file.
type persistedPolicies struct {
	Policies []json.RawMessage `json:"policies"`
}

// Store is a durable policy store backed by a JSON file. Reads share a
// lock; writes are exclusive and last-writer-wins, which is sufficient
// for this single-user tool.
type Store struct {
	path     string
	mutex    sync.RWMutex
	policies map[string]Policy
	corrupt  int
	logger   adapters.Logger
}

// NewStore opens or creates a policy store at path. An empty path uses
// DefaultPolicyFile. Malformed records in an existing file are skipped
// individually and counted; see CorruptEntries.
func NewStore(path string, logger adapters.Logger) (*Store, error) {
	if path == "" {
		path = DefaultPolicyFile
	}
	if logger == nil {
		logger = adapters.NewNoOpLogger()
	}

	s := &Store{
		path:     path,
		policies: make(map[string]Policy),
		logger:   logger,
	}

	if err := s.load(); err != nil {
		// A missing file is fine, it is created on first save.
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// CorruptEntries returns how many persisted records were skipped as
// malformed during the most recent load.
func (s *Store) CorruptEntries() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.corrupt
}

// Save validates and persists a policy, returning its id. The id is
// generated when empty. Validation rejects an unrecognized destination
// class, an invalid mask, or a missing bucket before anything is
// written.
func (s *Store) Save(p Policy) (string, error) {
	if err := validation.ValidateBucketName(p.Bucket); err != nil {
		return "", err
	}
	if _, err := common.ParseStorageClass(string(p.DestinationClass)); err != nil {
		return "", err
	}
	if _, err := common.NewMask(p.Mask.Name, p.Mask.Mode, p.Mask.Pattern, p.Mask.CaseSensitive); err != nil {
		return "", err
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.policies[p.ID] = p

	if err := s.save(); err != nil {
		delete(s.policies, p.ID)
		return "", err
	}
	return p.ID, nil
}

// Get returns the policy with the given id.
func (s *Store) Get(id string) (Policy, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	p, ok := s.policies[id]
	if !ok {
		return Policy{}, common.ErrPolicyNotFound
	}
	return p, nil
}

// List returns all policies ordered by creation time, oldest first.
func (s *Store) List() []Policy {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	policies := make([]Policy, 0, len(s.policies))
	for _, p := range s.policies {
		policies = append(policies, p)
	}
	sort.Slice(policies, func(i, j int) bool {
		if policies[i].CreatedAt.Equal(policies[j].CreatedAt) {
			return policies[i].ID < policies[j].ID
		}
		return policies[i].CreatedAt.Before(policies[j].CreatedAt)
	})
	return policies
}

// Remove deletes a policy and persists the change.
func (s *Store) Remove(id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	p, ok := s.policies[id]
	if !ok {
		return common.ErrPolicyNotFound
	}
	delete(s.policies, id)

	if err := s.save(); err != nil {
		s.policies[id] = p
		return err
	}
	return nil
}

// Replay resolves the stored mask against a fresh listing, producing
// the same target set the original interactive selection would. The
// caller hands the result to the orchestrator.
func (s *Store) Replay(id string, listing []*common.ObjectRecord) (engine.TargetSet, error) {
	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	mask, err := common.NewMask(p.Mask.Name, p.Mask.Mode, p.Mask.Pattern, p.Mask.CaseSensitive)
	if err != nil {
		// Persisted masks are validated on save and load, so this
		// only fires on a file edited out from under us.
		return nil, err
	}
	return engine.Resolve(listing, mask, nil)
}

// save writes all policies to disk. Must be called with the write lock
// held.
func (s *Store) save() error {
	policies := make([]Policy, 0, len(s.policies))
	for _, p := range s.policies {
		policies = append(policies, p)
	}
	sort.Slice(policies, func(i, j int) bool {
		if policies[i].CreatedAt.Equal(policies[j].CreatedAt) {
			return policies[i].ID < policies[j].ID
		}
		return policies[i].CreatedAt.Before(policies[j].CreatedAt)
	})

	raw := persistedPolicies{Policies: make([]json.RawMessage, 0, len(policies))}
	for _, p := range policies {
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		raw.Policies = append(raw.Policies, data)
	}

	jsonData, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}

	file, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Write(jsonData); err != nil {
		return err
	}
	return file.Sync()
}

// load reads policies from disk, skipping malformed records one at a
// time rather than failing the whole file.
func (s *Store) load() error {
	file, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	jsonData, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	var raw persistedPolicies
	if err := json.Unmarshal(jsonData, &raw); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.policies = make(map[string]Policy, len(raw.Policies))
	s.corrupt = 0

	for i, entry := range raw.Policies {
		var p Policy
		if err := json.Unmarshal(entry, &p); err != nil {
			s.corrupt++
			s.logger.Warn(context.Background(), "skipping corrupt policy entry",
				adapters.Field{Key: "index", Value: i},
				adapters.Field{Key: "error", Value: err.Error()})
			continue
		}
		if err := validateLoaded(&p); err != nil {
			s.corrupt++
			s.logger.Warn(context.Background(), "skipping invalid policy entry",
				adapters.Field{Key: "index", Value: i},
				adapters.Field{Key: "policy_id", Value: p.ID},
				adapters.Field{Key: "error", Value: err.Error()})
			continue
		}
		s.policies[p.ID] = p
	}

	return nil
}

// validateLoaded applies the same construction-time rules to records
// read back from disk, so a hand-edited file cannot smuggle in an
// invalid mask or class.
func validateLoaded(p *Policy) error {
	if p.ID == "" {
		return &common.ValidationError{Field: "id", Message: "id is required"}
	}
	if err := validation.ValidateBucketName(p.Bucket); err != nil {
		return err
	}
	if _, err := common.ParseStorageClass(string(p.DestinationClass)); err != nil {
		return err
	}
	if _, err := common.NewMask(p.Mask.Name, p.Mask.Mode, p.Mask.Pattern, p.Mask.CaseSensitive); err != nil {
		return err
	}
	return nil
}
