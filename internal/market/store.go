package market

import (
	"context"

	"maru/internal/moderation"
)

// ListingStore defines the persistence interface for listings.
// It embeds moderation.TargetStore so the moderation engine can operate on
// the same backend. Implementations must be safe for concurrent use.
type ListingStore interface {
	moderation.TargetStore

	// Create assigns an id and timestamps, persists the listing, and
	// returns the stored copy.
	Create(ctx context.Context, l *Listing) (*Listing, error)

	// Save persists changes to an existing listing.
	Save(ctx context.Context, l *Listing) error

	// FindByID returns the listing, or nil when the id is unknown.
	FindByID(ctx context.Context, id int64) (*Listing, error)

	// List returns all listings, newest first.
	List(ctx context.Context) ([]Listing, error)

	// IncrementViewCount bumps the view counter without touching UpdatedAt.
	IncrementViewCount(ctx context.Context, id int64) error
}

// WantedStore defines the persistence interface for wanted ads.
type WantedStore interface {
	moderation.TargetStore

	Create(ctx context.Context, w *WantedItem) (*WantedItem, error)
	Save(ctx context.Context, w *WantedItem) error
	FindByID(ctx context.Context, id int64) (*WantedItem, error)
	List(ctx context.Context) ([]WantedItem, error)
	IncrementViewCount(ctx context.Context, id int64) error
}
