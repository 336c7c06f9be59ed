// Package store persists device state across power cycles: a small bbolt
// database holding the relay state and the last known network-joined flag.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrNotFound means the requested key has never been written.
var ErrNotFound = errors.New("store: not found")

var (
	bucketDevice  = []byte("device")
	bucketNetwork = []byte("network")
	keyRelay      = []byte("relay")
	keyJoined     = []byte("joined")
)

// Store is a bbolt-backed persistence layer.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketDevice, bucketNetwork} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRelayState persists the relay state.
func (s *Store) SaveRelayState(on bool) error {
	return s.putBool(bucketDevice, keyRelay, on)
}

// RelayState returns the persisted relay state, ErrNotFound if never set.
func (s *Store) RelayState() (bool, error) {
	return s.getBool(bucketDevice, keyRelay)
}

// SaveJoined persists the network-joined flag.
func (s *Store) SaveJoined(joined bool) error {
	return s.putBool(bucketNetwork, keyJoined, joined)
}

// Joined returns the persisted joined flag, ErrNotFound if never set.
func (s *Store) Joined() (bool, error) {
	return s.getBool(bucketNetwork, keyJoined)
}

// Wipe clears all persisted state. Used by factory reset.
func (s *Store) Wipe() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketDevice, bucketNetwork} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) putBool(bucket, key []byte, v bool) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucket)
		}
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

func (s *Store) getBool(bucket, key []byte) (bool, error) {
	var v bool
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucket)
		}
		data := b.Get(key)
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &v)
	})
	if err != nil {
		return false, err
	}
	return v, nil
}
