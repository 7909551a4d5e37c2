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

// WantedStore provides persistent storage for wanted ads.
type WantedStore struct {
	db *bolt.DB
}

// Create assigns the next sequence id, stamps timestamps, and stores the
// wanted ad. The stored copy is returned.
func (s *WantedStore) Create(ctx context.Context, w *market.WantedItem) (*market.WantedItem, error) {
	stored := *w
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketWanted)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketWanted)
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate wanted ad id: %w", err)
		}
		stored.ID = int64(seq)

		now := time.Now().UTC()
		stored.CreatedAt = now
		stored.UpdatedAt = now

		data, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("failed to marshal wanted ad: %w", err)
		}

		return bucket.Put(itob(stored.ID), data)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// Save persists changes to an existing wanted ad and refreshes UpdatedAt.
func (s *WantedStore) Save(ctx context.Context, w *market.WantedItem) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketWanted)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketWanted)
		}

		if bucket.Get(itob(w.ID)) == nil {
			return fmt.Errorf("wanted ad not found: %d", w.ID)
		}

		w.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(w)
		if err != nil {
			return fmt.Errorf("failed to marshal wanted ad: %w", err)
		}

		return bucket.Put(itob(w.ID), data)
	})
}

// FindByID retrieves a wanted ad by id, or nil when the id is unknown.
func (s *WantedStore) FindByID(ctx context.Context, id int64) (*market.WantedItem, error) {
	var item *market.WantedItem

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketWanted)
		if bucket == nil {
			return nil
		}

		data := bucket.Get(itob(id))
		if data == nil {
			return nil
		}

		item = &market.WantedItem{}
		return json.Unmarshal(data, item)
	})

	return item, err
}

// List returns all wanted ads, newest first.
func (s *WantedStore) List(ctx context.Context) ([]market.WantedItem, error) {
	var items []market.WantedItem

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketWanted)
		if bucket == nil {
			return nil
		}

		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			var w market.WantedItem
			if err := json.Unmarshal(v, &w); err != nil {
				continue // Skip malformed entries
			}
			items = append(items, w)
		}

		return nil
	})

	return items, err
}

// IncrementViewCount bumps the view counter without touching UpdatedAt.
func (s *WantedStore) IncrementViewCount(ctx context.Context, id int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketWanted)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketWanted)
		}

		data := bucket.Get(itob(id))
		if data == nil {
			return fmt.Errorf("wanted ad not found: %d", id)
		}

		var w market.WantedItem
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}

		w.ViewCount++

		newData, err := json.Marshal(w)
		if err != nil {
			return err
		}

		return bucket.Put(itob(id), newData)
	})
}

// Exists reports whether a wanted ad with the given id is stored.
func (s *WantedStore) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketWanted)
		if bucket == nil {
			return nil
		}

		exists = bucket.Get(itob(id)) != nil
		return nil
	})

	return exists, err
}

// SetModerationStatus persists a new moderation status for the wanted ad.
func (s *WantedStore) SetModerationStatus(ctx context.Context, id int64, status moderation.Status) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketWanted)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketWanted)
		}

		data := bucket.Get(itob(id))
		if data == nil {
			return fmt.Errorf("wanted ad not found: %d", id)
		}

		var w market.WantedItem
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}

		w.ModerationStatus = status
		w.UpdatedAt = time.Now().UTC()

		newData, err := json.Marshal(w)
		if err != nil {
			return err
		}

		return bucket.Put(itob(id), newData)
	})
}

// Remove deletes the wanted ad row irrecoverably.
func (s *WantedStore) Remove(ctx context.Context, id int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketWanted)
		if bucket == nil {
			return nil
		}

		return bucket.Delete(itob(id))
	})
}
