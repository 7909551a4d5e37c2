package metrics

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StatsSource provides functions to retrieve current counts for gauge metrics.
// Nil functions are skipped.
type StatsSource struct {
	ListingCount        func() int
	WantedCount         func() int
	BlockedListingCount func() int
	AuditEntryCount     func() int
}

// StartCollector launches a goroutine that periodically updates gauge metrics.
// It runs every interval until the context is cancelled.
func StartCollector(ctx context.Context, src StatsSource, interval time.Duration) {
	// Do an initial collection immediately
	collect(src)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				collect(src)
			}
		}
	}()

	log.Info().Dur("interval", interval).Msg("Metrics collector started")
}

func collect(src StatsSource) {
	if src.ListingCount != nil {
		ListingsTotal.Set(float64(src.ListingCount()))
	}
	if src.WantedCount != nil {
		WantedItemsTotal.Set(float64(src.WantedCount()))
	}
	if src.BlockedListingCount != nil {
		BlockedListingsTotal.Set(float64(src.BlockedListingCount()))
	}
	if src.AuditEntryCount != nil {
		AuditEntriesTotal.Set(float64(src.AuditEntryCount()))
	}
}
