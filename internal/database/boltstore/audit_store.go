package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"maru/internal/moderation"
)

// AuditStore provides persistent storage for the moderation audit log.
// Entries are keyed by "actedAtNano:id" (both zero-padded) so a forward
// cursor walk is oldest-to-newest; index buckets point back at those keys.
type AuditStore struct {
	db *bolt.DB
}

// logKey builds the primary key for an entry. Zero-padding keeps byte-wise
// key order identical to chronological order, which Seek relies on.
func logKey(actedAt time.Time, id uint64) []byte {
	return []byte(fmt.Sprintf("%020d:%020d", actedAt.UnixNano(), id))
}

func targetIndexKey(kind moderation.TargetKind, targetID int64, key []byte) []byte {
	return []byte(fmt.Sprintf("%s:%d:%s", kind, targetID, key))
}

func actorIndexKey(moderator string, key []byte) []byte {
	return []byte(moderator + ":" + string(key))
}

func statusIndexKey(status moderation.Status, key []byte) []byte {
	return []byte(string(status) + ":" + string(key))
}

// Append assigns an id and timestamps, persists the entry with its index
// records, and returns the stored copy.
func (s *AuditStore) Append(ctx context.Context, e moderation.AuditEntry) (moderation.AuditEntry, error) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketAuditLog)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketAuditLog)
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate audit entry id: %w", err)
		}
		e.ID = seq

		now := time.Now().UTC()
		if e.ActedAt.IsZero() {
			e.ActedAt = now
		}
		e.CreatedAt = now

		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal audit entry: %w", err)
		}

		key := logKey(e.ActedAt, e.ID)
		if err := bucket.Put(key, data); err != nil {
			return err
		}

		if idx := tx.Bucket(BucketAuditByTarget); idx != nil {
			if err := idx.Put(targetIndexKey(e.Target, e.TargetID, key), key); err != nil {
				return err
			}
		}
		if idx := tx.Bucket(BucketAuditByActor); idx != nil {
			if err := idx.Put(actorIndexKey(e.Moderator, key), key); err != nil {
				return err
			}
		}
		if idx := tx.Bucket(BucketAuditByStatus); idx != nil {
			if err := idx.Put(statusIndexKey(e.Status, key), key); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return moderation.AuditEntry{}, err
	}
	return e, nil
}

// collectByIndex walks one index bucket under a prefix and resolves the
// referenced entries, newest first.
func (s *AuditStore) collectByIndex(indexBucket []byte, prefix []byte) ([]moderation.AuditEntry, error) {
	var entries []moderation.AuditEntry

	err := s.db.View(func(tx *bolt.Tx) error {
		idx := tx.Bucket(indexBucket)
		if idx == nil {
			return nil
		}
		logs := tx.Bucket(BucketAuditLog)
		if logs == nil {
			return nil
		}

		cursor := idx.Cursor()
		for k, v := cursor.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = cursor.Next() {
			data := logs.Get(v)
			if data == nil {
				continue
			}
			var e moderation.AuditEntry
			if err := json.Unmarshal(data, &e); err != nil {
				continue // Skip malformed entries
			}
			entries = append(entries, e)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	reverseEntries(entries)
	return entries, nil
}

// LatestFor returns the most recent entry for a target, or nil when the
// target has never been moderated.
func (s *AuditStore) LatestFor(ctx context.Context, kind moderation.TargetKind, id int64) (*moderation.AuditEntry, error) {
	entries, err := s.History(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	latest := entries[0]
	return &latest, nil
}

// History returns all entries for a target, newest first.
func (s *AuditStore) History(ctx context.Context, kind moderation.TargetKind, id int64) ([]moderation.AuditEntry, error) {
	prefix := []byte(fmt.Sprintf("%s:%d:", kind, id))
	return s.collectByIndex(BucketAuditByTarget, prefix)
}

// ByActor returns all entries recorded by one moderator, newest first.
func (s *AuditStore) ByActor(ctx context.Context, moderator string) ([]moderation.AuditEntry, error) {
	return s.collectByIndex(BucketAuditByActor, []byte(moderator+":"))
}

// ByStatus returns all entries that resulted in status, newest first.
func (s *AuditStore) ByStatus(ctx context.Context, status moderation.Status) ([]moderation.AuditEntry, error) {
	return s.collectByIndex(BucketAuditByStatus, []byte(string(status)+":"))
}

// ByDateRange returns entries acted between start and end, bounds inclusive,
// newest first.
func (s *AuditStore) ByDateRange(ctx context.Context, start, end time.Time) ([]moderation.AuditEntry, error) {
	var entries []moderation.AuditEntry

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketAuditLog)
		if bucket == nil {
			return nil
		}

		from := []byte(fmt.Sprintf("%020d:", start.UnixNano()))
		cursor := bucket.Cursor()
		for k, v := cursor.Seek(from); k != nil; k, v = cursor.Next() {
			var e moderation.AuditEntry
			if err := json.Unmarshal(v, &e); err != nil {
				continue // Skip malformed entries
			}
			if e.ActedAt.After(end) {
				break
			}
			entries = append(entries, e)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	reverseEntries(entries)
	return entries, nil
}

// Search returns entries whose reason contains keyword, case-insensitively,
// newest first.
func (s *AuditStore) Search(ctx context.Context, keyword string) ([]moderation.AuditEntry, error) {
	needle := strings.ToLower(keyword)
	return s.scanAll(func(e moderation.AuditEntry) bool {
		return strings.Contains(strings.ToLower(e.Reason), needle)
	})
}

// AutoFiltered returns entries recorded by the automatic keyword filter,
// newest first.
func (s *AuditStore) AutoFiltered(ctx context.Context) ([]moderation.AuditEntry, error) {
	return s.scanAll(func(e moderation.AuditEntry) bool {
		return e.Auto
	})
}

// All returns every entry, newest first.
func (s *AuditStore) All(ctx context.Context) ([]moderation.AuditEntry, error) {
	return s.scanAll(func(moderation.AuditEntry) bool { return true })
}

// scanAll walks the whole log in reverse key order and keeps entries
// matching the predicate.
func (s *AuditStore) scanAll(keep func(moderation.AuditEntry) bool) ([]moderation.AuditEntry, error) {
	var entries []moderation.AuditEntry

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketAuditLog)
		if bucket == nil {
			return nil
		}

		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			var e moderation.AuditEntry
			if err := json.Unmarshal(v, &e); err != nil {
				continue // Skip malformed entries
			}
			if keep(e) {
				entries = append(entries, e)
			}
		}

		return nil
	})

	return entries, err
}

// CountSince counts entries acted at or after since.
func (s *AuditStore) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketAuditLog)
		if bucket == nil {
			return nil
		}

		from := []byte(fmt.Sprintf("%020d:", since.UnixNano()))
		cursor := bucket.Cursor()
		for k, _ := cursor.Seek(from); k != nil; k, _ = cursor.Next() {
			count++
		}

		return nil
	})

	return count, err
}

// IsCurrentlyBlocked reports whether the latest entry for a target is
// BLINDED or DELETED.
func (s *AuditStore) IsCurrentlyBlocked(ctx context.Context, kind moderation.TargetKind, id int64) (bool, error) {
	latest, err := s.LatestFor(ctx, kind, id)
	if err != nil {
		return false, err
	}
	if latest == nil {
		return false, nil
	}
	return latest.Status.Blocked(), nil
}

// StatsByActor returns per-moderator action counts, largest first.
func (s *AuditStore) StatsByActor(ctx context.Context) ([]moderation.ActorStat, error) {
	counts := map[string]int{}

	entries, err := s.scanAll(func(moderation.AuditEntry) bool { return true })
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		counts[e.Moderator]++
	}

	stats := make([]moderation.ActorStat, 0, len(counts))
	for moderator, count := range counts {
		stats = append(stats, moderation.ActorStat{Moderator: moderator, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Moderator < stats[j].Moderator
	})
	return stats, nil
}

// StatsByStatus returns per-status action counts, largest first.
func (s *AuditStore) StatsByStatus(ctx context.Context) ([]moderation.StatusStat, error) {
	counts := map[moderation.Status]int{}

	entries, err := s.scanAll(func(moderation.AuditEntry) bool { return true })
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		counts[e.Status]++
	}

	stats := make([]moderation.StatusStat, 0, len(counts))
	for status, count := range counts {
		stats = append(stats, moderation.StatusStat{Status: status, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Status < stats[j].Status
	})
	return stats, nil
}

// DeleteOlderThan hard-deletes entries created before cutoff, along with
// their index records, and returns how many were removed.
func (s *AuditStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	var removed int

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketAuditLog)
		if bucket == nil {
			return nil
		}
		byTarget := tx.Bucket(BucketAuditByTarget)
		byActor := tx.Bucket(BucketAuditByActor)
		byStatus := tx.Bucket(BucketAuditByStatus)

		type victim struct {
			key   []byte
			entry moderation.AuditEntry
		}
		var victims []victim

		err := bucket.ForEach(func(k, v []byte) error {
			var e moderation.AuditEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return nil // Skip malformed entries
			}
			if e.CreatedAt.Before(cutoff) {
				key := make([]byte, len(k))
				copy(key, k)
				victims = append(victims, victim{key: key, entry: e})
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, v := range victims {
			if err := bucket.Delete(v.key); err != nil {
				return err
			}
			if byTarget != nil {
				if err := byTarget.Delete(targetIndexKey(v.entry.Target, v.entry.TargetID, v.key)); err != nil {
					return err
				}
			}
			if byActor != nil {
				if err := byActor.Delete(actorIndexKey(v.entry.Moderator, v.key)); err != nil {
					return err
				}
			}
			if byStatus != nil {
				if err := byStatus.Delete(statusIndexKey(v.entry.Status, v.key)); err != nil {
					return err
				}
			}
			removed++
		}

		return nil
	})

	return removed, err
}

func reverseEntries(entries []moderation.AuditEntry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}
