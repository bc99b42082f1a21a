// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/internrank/internal/recommend"
)

// slateKeyPrefix namespaces slate entries in the Badger keyspace.
const slateKeyPrefix = "slate:"

// BadgerStore persists slates in BadgerDB with a per-entry TTL.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenBadger opens (or creates) a Badger database in dir.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return db, nil
}

// NewBadgerStore wraps db. The caller owns db and closes it.
func NewBadgerStore(db *badger.DB, ttl time.Duration) *BadgerStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &BadgerStore{db: db, ttl: ttl}
}

func slateKey(key uint64) []byte {
	b := make([]byte, len(slateKeyPrefix)+8)
	copy(b, slateKeyPrefix)
	binary.BigEndian.PutUint64(b[len(slateKeyPrefix):], key)
	return b
}

// Get returns the slate stored under key. Missing or expired keys report false.
func (s *BadgerStore) Get(key uint64) (recommend.Slate, bool, error) {
	var slate recommend.Slate
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(slateKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &slate)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return recommend.Slate{}, false, nil
	}
	if err != nil {
		return recommend.Slate{}, false, fmt.Errorf("get slate: %w", err)
	}
	return slate, true, nil
}

// Set stores slate under key with the store TTL.
func (s *BadgerStore) Set(key uint64, slate *recommend.Slate) error {
	data, err := json.Marshal(slate)
	if err != nil {
		return fmt.Errorf("marshal slate: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(slateKey(key), data).WithTTL(s.ttl))
	})
}

// Clear drops every stored slate.
func (s *BadgerStore) Clear() error {
	return s.db.DropPrefix([]byte(slateKeyPrefix))
}
