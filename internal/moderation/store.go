package moderation

import (
	"context"
	"time"
)

// TargetStore is the narrow slice of a content store the engine needs to
// apply a decision. Both the listing and wanted-item stores implement it.
type TargetStore interface {
	// Exists reports whether the target id is known.
	Exists(ctx context.Context, id int64) (bool, error)

	// SetModerationStatus persists a new moderation status for the target.
	SetModerationStatus(ctx context.Context, id int64, status Status) error

	// Remove deletes the target row irrecoverably.
	Remove(ctx context.Context, id int64) error
}

// AuditStore is the append-mostly ledger of moderation actions.
// Entries are never updated; DeleteOlderThan exists only for retention
// housekeeping. Implementations must be safe for concurrent use.
type AuditStore interface {
	// Append assigns an id and timestamps, persists the entry, and returns
	// the stored copy.
	Append(ctx context.Context, e AuditEntry) (AuditEntry, error)

	// LatestFor returns the most recent entry for a target, or nil when the
	// target has never been moderated.
	LatestFor(ctx context.Context, kind TargetKind, id int64) (*AuditEntry, error)

	// History returns all entries for a target, newest first.
	History(ctx context.Context, kind TargetKind, id int64) ([]AuditEntry, error)

	// ByActor returns all entries recorded by one moderator, newest first.
	ByActor(ctx context.Context, moderator string) ([]AuditEntry, error)

	// ByStatus returns all entries that resulted in status, newest first.
	ByStatus(ctx context.Context, status Status) ([]AuditEntry, error)

	// ByDateRange returns entries acted between start and end, bounds
	// inclusive, newest first.
	ByDateRange(ctx context.Context, start, end time.Time) ([]AuditEntry, error)

	// Search returns entries whose reason contains keyword,
	// case-insensitively, newest first.
	Search(ctx context.Context, keyword string) ([]AuditEntry, error)

	// AutoFiltered returns entries recorded by the automatic keyword
	// filter, newest first.
	AutoFiltered(ctx context.Context) ([]AuditEntry, error)

	// All returns every entry, newest first.
	All(ctx context.Context) ([]AuditEntry, error)

	// CountSince counts entries acted at or after since.
	CountSince(ctx context.Context, since time.Time) (int, error)

	// IsCurrentlyBlocked reports whether the latest entry for a target is
	// BLINDED or DELETED. A target with no history is not blocked; the
	// content row's own status field stays authoritative for access checks.
	IsCurrentlyBlocked(ctx context.Context, kind TargetKind, id int64) (bool, error)

	// StatsByActor returns per-moderator action counts, largest first.
	StatsByActor(ctx context.Context) ([]ActorStat, error)

	// StatsByStatus returns per-status action counts, largest first.
	StatsByStatus(ctx context.Context) ([]StatusStat, error)

	// DeleteOlderThan hard-deletes entries created before cutoff and
	// returns how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
