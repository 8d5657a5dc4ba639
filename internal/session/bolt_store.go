package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const sessionBucket = "session"

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db *bolt.DB
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create session directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{db: db}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Get reads token and role in a single read transaction.
func (b *boltStore) Get(context.Context) (Session, error) {
	if b == nil || b.db == nil {
		return Session{}, nil
	}

	var s Session
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket missing")
		}
		// Get returns memory owned by the transaction; string() copies it.
		s.Token = string(bucket.Get([]byte(TokenKey)))
		s.Role = string(bucket.Get([]byte(RoleKey)))
		return nil
	})
	return s, err
}

// Set writes token and role in one transaction.
func (b *boltStore) Set(_ context.Context, s Session) error {
	if err := validate(s); err != nil {
		return err
	}
	if b == nil || b.db == nil {
		return fmt.Errorf("session store is closed")
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket missing")
		}
		if err := bucket.Put([]byte(TokenKey), []byte(s.Token)); err != nil {
			return err
		}
		return bucket.Put([]byte(RoleKey), []byte(s.Role))
	})
}

// Clear deletes token and role in one transaction. Deleting absent keys is a no-op.
func (b *boltStore) Clear(context.Context) error {
	if b == nil || b.db == nil {
		return nil
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket missing")
		}
		if err := bucket.Delete([]byte(TokenKey)); err != nil {
			return err
		}
		return bucket.Delete([]byte(RoleKey))
	})
}
