// Package boltstore provides persistent storage using BoltDB (bbolt).
// It implements the market listing/wanted stores and the moderation audit
// log on a single database file.
package boltstore

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names for organizing data
var (
	// BucketListings stores listings keyed by big-endian id
	BucketListings = []byte("listings")

	// BucketWanted stores wanted ads keyed by big-endian id
	BucketWanted = []byte("wanted_items")

	// BucketAuditLog stores moderation audit entries keyed by
	// "actedAtNano:id" for chronological iteration
	BucketAuditLog = []byte("moderation_audit_log")

	// BucketAuditByTarget indexes audit entries by "kind:targetID:logKey"
	BucketAuditByTarget = []byte("moderation_audit_by_target")

	// BucketAuditByActor indexes audit entries by "moderator:logKey"
	BucketAuditByActor = []byte("moderation_audit_by_actor")

	// BucketAuditByStatus indexes audit entries by "status:logKey"
	BucketAuditByStatus = []byte("moderation_audit_by_status")
)

// Store wraps a BoltDB database and provides access to specialized stores.
type Store struct {
	db *bolt.DB
}

// Options configures the BoltDB store.
type Options struct {
	// Path to the database file. Parent directories will be created if needed.
	Path string

	// Timeout for obtaining a file lock on the database.
	// If zero, a default of 5 seconds is used.
	Timeout time.Duration

	// FileMode for creating the database file.
	// If zero, 0600 is used.
	FileMode os.FileMode
}

// DefaultOptions returns sensible defaults for development.
func DefaultOptions() Options {
	return Options{
		Path:     "maru.db",
		Timeout:  5 * time.Second,
		FileMode: 0600,
	}
}

// Open creates or opens a BoltDB database at the specified path.
// It creates all necessary buckets if they don't exist.
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		opts.Path = "maru.db"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.FileMode == 0 {
		opts.FileMode = 0600
	}

	// Ensure parent directory exists
	dir := filepath.Dir(opts.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := bolt.Open(opts.Path, opts.FileMode, &bolt.Options{
		Timeout: opts.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets if they don't exist
	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			BucketListings,
			BucketWanted,
			BucketAuditLog,
			BucketAuditByTarget,
			BucketAuditByActor,
			BucketAuditByStatus,
		}

		for _, bucket := range buckets {
			_, err := tx.CreateBucketIfNotExists(bucket)
			if err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying BoltDB instance for advanced operations.
func (s *Store) DB() *bolt.DB {
	return s.db
}

// ListingStore returns a listing store backed by this database.
func (s *Store) ListingStore() *ListingStore {
	return &ListingStore{db: s.db}
}

// WantedStore returns a wanted-ad store backed by this database.
func (s *Store) WantedStore() *WantedStore {
	return &WantedStore{db: s.db}
}

// AuditStore returns a moderation audit store backed by this database.
func (s *Store) AuditStore() *AuditStore {
	return &AuditStore{db: s.db}
}

// Stats returns database statistics.
func (s *Store) Stats() bolt.Stats {
	return s.db.Stats()
}

// itob returns an 8-byte big-endian representation of v, so that ids sort
// numerically under bolt's byte-wise key ordering.
func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

// hasPrefix checks if a byte slice has a given prefix.
func hasPrefix(s, prefix []byte) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i, b := range prefix {
		if s[i] != b {
			return false
		}
	}
	return true
}
