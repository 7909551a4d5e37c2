package moderation

import "time"

// TargetKind identifies which kind of content a moderation action applies to.
// Listings and wanted ads share the audit log but keep separate id spaces.
type TargetKind string

const (
	TargetListing TargetKind = "listing"
	TargetWanted  TargetKind = "wanted"
)

// Status is the platform-level visibility state of a piece of content.
// It is independent of the seller's sale status and is mutated only by
// the moderation engine.
type Status string

const (
	StatusVisible Status = "VISIBLE"
	StatusBlinded Status = "BLINDED"
	StatusDeleted Status = "DELETED"
)

// Valid reports whether s is one of the known moderation statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusVisible, StatusBlinded, StatusDeleted:
		return true
	}
	return false
}

// Blocked reports whether content in this state is withheld from public view.
func (s Status) Blocked() bool {
	return s == StatusBlinded || s == StatusDeleted
}

// Reason strings recorded by the engine. Queries for auto-filter activity
// match on AutoReasonPrefix, so it must stay stable.
const (
	RestoreReason         = "restored"
	AutoReasonPrefix      = "inappropriate words detected: "
	PermanentDeletePrefix = "permanent delete: "
)

// DefaultSystemActor is the identity recorded for automatic moderation
// actions when no other system identity is configured.
const DefaultSystemActor = "system@maru.app"

// AuditEntry is one immutable record of a moderation decision.
// The id is assigned by the store at insert; ActedAt equals CreatedAt in
// normal operation since entries are never rewritten.
type AuditEntry struct {
	ID        uint64     `json:"id"`
	Target    TargetKind `json:"target"`
	TargetID  int64      `json:"target_id"`
	Status    Status     `json:"status"`
	Reason    string     `json:"reason,omitempty"`
	Moderator string     `json:"moderator"`
	Auto      bool       `json:"auto"`
	ActedAt   time.Time  `json:"acted_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// ActorStat is an aggregate count of actions taken by one moderator.
type ActorStat struct {
	Moderator string `json:"moderator"`
	Count     int    `json:"count"`
}

// StatusStat is an aggregate count of actions that resulted in one status.
type StatusStat struct {
	Status Status `json:"status"`
	Count  int    `json:"count"`
}
