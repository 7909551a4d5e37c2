package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"maru/internal/market"
	"maru/internal/moderation"
)

// ListingStore provides persistent storage for listings.
type ListingStore struct {
	db *bolt.DB
}

// Create assigns the next sequence id, stamps timestamps, and stores the
// listing. The stored copy is returned.
func (s *ListingStore) Create(ctx context.Context, l *market.Listing) (*market.Listing, error) {
	stored := *l
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketListings)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketListings)
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate listing id: %w", err)
		}
		stored.ID = int64(seq)

		now := time.Now().UTC()
		stored.CreatedAt = now
		stored.UpdatedAt = now

		data, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("failed to marshal listing: %w", err)
		}

		return bucket.Put(itob(stored.ID), data)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// Save persists changes to an existing listing and refreshes UpdatedAt.
func (s *ListingStore) Save(ctx context.Context, l *market.Listing) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketListings)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketListings)
		}

		if bucket.Get(itob(l.ID)) == nil {
			return fmt.Errorf("listing not found: %d", l.ID)
		}

		l.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("failed to marshal listing: %w", err)
		}

		return bucket.Put(itob(l.ID), data)
	})
}

// FindByID retrieves a listing by id, or nil when the id is unknown.
func (s *ListingStore) FindByID(ctx context.Context, id int64) (*market.Listing, error) {
	var listing *market.Listing

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketListings)
		if bucket == nil {
			return nil
		}

		data := bucket.Get(itob(id))
		if data == nil {
			return nil
		}

		listing = &market.Listing{}
		return json.Unmarshal(data, listing)
	})

	return listing, err
}

// List returns all listings, newest first.
func (s *ListingStore) List(ctx context.Context) ([]market.Listing, error) {
	var listings []market.Listing

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketListings)
		if bucket == nil {
			return nil
		}

		// Keys are big-endian ids, so a reverse cursor walk yields
		// newest first.
		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			var l market.Listing
			if err := json.Unmarshal(v, &l); err != nil {
				continue // Skip malformed entries
			}
			listings = append(listings, l)
		}

		return nil
	})

	return listings, err
}

// IncrementViewCount bumps the view counter without touching UpdatedAt.
func (s *ListingStore) IncrementViewCount(ctx context.Context, id int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketListings)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketListings)
		}

		data := bucket.Get(itob(id))
		if data == nil {
			return fmt.Errorf("listing not found: %d", id)
		}

		var l market.Listing
		if err := json.Unmarshal(data, &l); err != nil {
			return err
		}

		l.ViewCount++

		newData, err := json.Marshal(l)
		if err != nil {
			return err
		}

		return bucket.Put(itob(id), newData)
	})
}

// Exists reports whether a listing with the given id is stored.
func (s *ListingStore) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketListings)
		if bucket == nil {
			return nil
		}

		exists = bucket.Get(itob(id)) != nil
		return nil
	})

	return exists, err
}

// SetModerationStatus persists a new moderation status for the listing.
func (s *ListingStore) SetModerationStatus(ctx context.Context, id int64, status moderation.Status) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketListings)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketListings)
		}

		data := bucket.Get(itob(id))
		if data == nil {
			return fmt.Errorf("listing not found: %d", id)
		}

		var l market.Listing
		if err := json.Unmarshal(data, &l); err != nil {
			return err
		}

		l.ModerationStatus = status
		l.UpdatedAt = time.Now().UTC()

		newData, err := json.Marshal(l)
		if err != nil {
			return err
		}

		return bucket.Put(itob(id), newData)
	})
}

// Remove deletes the listing row irrecoverably.
func (s *ListingStore) Remove(ctx context.Context, id int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketListings)
		if bucket == nil {
			return nil
		}

		return bucket.Delete(itob(id))
	})
}
