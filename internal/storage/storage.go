package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "perft/"

// PerftRecord is a stored divide result.
type PerftRecord struct {
	Key      string            `json:"key"`
	Depth    int               `json:"depth"`
	Nodes    uint64            `json:"nodes"`
	Divide   map[string]uint64 `json:"divide"`
	Recorded time.Time         `json:"recorded"`
}

// Storage wraps BadgerDB as a persistent perft cache.
type Storage struct {
	db *badger.DB
}

// NewStorage opens the cache in the default database directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens or creates the cache in dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open perft cache %s: %w", dir, err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func recordKey(key string, depth int) []byte {
	return []byte(keyPrefix + strconv.Itoa(depth) + "/" + key)
}

// Load returns the record for key at depth.
func (s *Storage) Load(key string, depth int) (*PerftRecord, bool, error) {
	var rec *PerftRecord

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(key, depth))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			rec = &PerftRecord{}
			return json.Unmarshal(val, rec)
		})
	})
	if err != nil {
		return nil, false, err
	}
	return rec, rec != nil, nil
}

// Save writes rec, replacing any record for the same key and depth.
func (s *Storage) Save(rec *PerftRecord) error {
	if rec.Recorded.IsZero() {
		rec.Recorded = time.Now()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(rec.Key, rec.Depth), data)
	})
}

// Lookup returns the cached divide for key at depth. Read failures are
// logged and reported as a miss.
func (s *Storage) Lookup(key string, depth int) (map[string]uint64, bool) {
	rec, ok, err := s.Load(key, depth)
	if err != nil {
		log.Printf("storage: lookup %q depth %d: %v", key, depth, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return rec.Divide, true
}

// Store caches a divide result for key at depth.
func (s *Storage) Store(key string, depth int, divide map[string]uint64) error {
	var nodes uint64
	for _, n := range divide {
		nodes += n
	}
	return s.Save(&PerftRecord{
		Key:    key,
		Depth:  depth,
		Nodes:  nodes,
		Divide: divide,
	})
}

// Records returns every stored record, ordered by depth then key.
func (s *Storage) Records() ([]*PerftRecord, error) {
	var recs []*PerftRecord

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			rec := &PerftRecord{}
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, rec)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			recs = append(recs, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Depth != recs[j].Depth {
			return recs[i].Depth < recs[j].Depth
		}
		return recs[i].Key < recs[j].Key
	})
	return recs, nil
}

// Delete removes every record whose position key starts with prefix and
// returns how many were dropped. An empty prefix clears the cache.
func (s *Storage) Delete(prefix string) (int, error) {
	recs, err := s.Records()
	if err != nil {
		return 0, err
	}

	n := 0
	err = s.db.Update(func(txn *badger.Txn) error {
		for _, rec := range recs {
			if !strings.HasPrefix(rec.Key, prefix) {
				continue
			}
			if err := txn.Delete(recordKey(rec.Key, rec.Depth)); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
