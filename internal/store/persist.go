package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketHistory  = []byte("history")
	bucketClothing = []byte("clothing")
)

const stateKey = "state"

// BoltPersister stores the durable state subset in a BoltDB file under the
// client data directory.
type BoltPersister struct {
	db *bolt.DB
}

// OpenBoltPersister opens (creating if needed) the state database at
// dataDir/openvto-state.db.
func OpenBoltPersister(dataDir string) (*BoltPersister, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "openvto-state.db")
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketHistory, bucketClothing} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltPersister{db: db}, nil
}

func (p *BoltPersister) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Save writes the durable subset, replacing whatever was stored before.
func (p *BoltPersister) Save(state PersistedState) error {
	historyData, err := json.Marshal(state.GenerationHistory)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	clothingData, err := json.Marshal(state.LocalClothing)
	if err != nil {
		return fmt.Errorf("marshal local clothing: %w", err)
	}

	return p.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketHistory).Put([]byte(stateKey), historyData); err != nil {
			return err
		}
		return tx.Bucket(bucketClothing).Put([]byte(stateKey), clothingData)
	})
}

// Load reads the durable subset. A fresh database yields an empty state.
func (p *BoltPersister) Load() (PersistedState, error) {
	var state PersistedState
	err := p.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(bucketHistory).Get([]byte(stateKey)); data != nil {
			if err := json.Unmarshal(data, &state.GenerationHistory); err != nil {
				return fmt.Errorf("decode history: %w", err)
			}
		}
		if data := tx.Bucket(bucketClothing).Get([]byte(stateKey)); data != nil {
			if err := json.Unmarshal(data, &state.LocalClothing); err != nil {
				return fmt.Errorf("decode local clothing: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return PersistedState{}, err
	}
	return state, nil
}

var _ Persister = (*BoltPersister)(nil)
