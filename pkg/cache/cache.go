// Package cache persists the Dependency Weaver's derived graph and the
// most recent ScenarioResult per scenario key, backed by BoltDB. Entries
// are versioned: a changed catalog gets a new version and any cache read
// under a stale version is treated as a miss, so a mutable cache never
// serves a result computed against a prior catalog.
package cache

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketGraph    = []byte("dependency_graph")
	bucketScenario = []byte("scenario_result")
)

// Store is a versioned cache of derived scheduler artifacts.
type Store interface {
	PutGraph(version int, edges []schedtypes.PrecedenceEdge) error
	GetGraph(version int) ([]schedtypes.PrecedenceEdge, bool, error)

	PutScenario(key string, version int, result *schedtypes.ScenarioResult) error
	GetScenario(key string, version int) (*schedtypes.ScenarioResult, bool, error)

	Close() error
}

type versionedGraph struct {
	Version int                         `json:"version"`
	Edges   []schedtypes.PrecedenceEdge `json:"edges"`
}

type versionedScenario struct {
	Version int                        `json:"version"`
	Result  *schedtypes.ScenarioResult `json:"result"`
}

// BoltStore implements Store using BoltDB.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if absent) a BoltDB-backed cache under
// dataDir/scheduler-cache.db.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "scheduler-cache.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketGraph, bucketScenario} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

const graphKey = "current"

// PutGraph stores the dependency graph under the given catalog version.
func (s *BoltStore) PutGraph(version int, edges []schedtypes.PrecedenceEdge) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketGraph)
		data, err := json.Marshal(versionedGraph{Version: version, Edges: edges})
		if err != nil {
			return err
		}
		return b.Put([]byte(graphKey), data)
	})
}

// GetGraph retrieves the cached graph if its stored version matches.
func (s *BoltStore) GetGraph(version int) ([]schedtypes.PrecedenceEdge, bool, error) {
	var vg versionedGraph
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketGraph)
		data := b.Get([]byte(graphKey))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &vg); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil || !found || vg.Version != version {
		return nil, false, err
	}
	return vg.Edges, true, nil
}

// PutScenario stores a ScenarioResult under a scenario key and catalog version.
func (s *BoltStore) PutScenario(key string, version int, result *schedtypes.ScenarioResult) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketScenario)
		data, err := json.Marshal(versionedScenario{Version: version, Result: result})
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

// GetScenario retrieves the cached result if its stored version matches.
func (s *BoltStore) GetScenario(key string, version int) (*schedtypes.ScenarioResult, bool, error) {
	var vs versionedScenario
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketScenario)
		data := b.Get([]byte(key))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &vs); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil || !found || vs.Version != version {
		return nil, false, err
	}
	return vs.Result, true, nil
}
