package market_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maru/internal/database/boltstore"
	"maru/internal/market"
	"maru/internal/moderation"
)

const (
	seller = "seller@example.com"
	buyer  = "buyer@example.com"
	admin  = "admin@maru.app"
)

type fixture struct {
	listings *market.ListingService
	wanted   *market.WantedService
	audit    *boltstore.AuditStore
}

func setup(t *testing.T) *fixture {
	store, err := boltstore.Open(boltstore.Options{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	auth := moderation.NewAllowList(admin, moderation.DefaultSystemActor)
	filter := moderation.NewKeywordFilter()
	audit := store.AuditStore()

	listingEngine := moderation.NewEngine(moderation.TargetListing, store.ListingStore(), audit, filter, auth)
	wantedEngine := moderation.NewEngine(moderation.TargetWanted, store.WantedStore(), audit, filter, auth)

	return &fixture{
		listings: market.NewListingService(store.ListingStore(), listingEngine, auth, ""),
		wanted:   market.NewWantedService(store.WantedStore(), wantedEngine, auth, ""),
		audit:    audit,
	}
}

func validListing() *market.Listing {
	return &market.Listing{
		Title:       "Mechanical keyboard",
		Description: "Hot-swappable, brown switches",
		Price:       90000,
		Category:    "electronics",
		Location:    "Mapo-gu",
		SellerEmail: seller,
	}
}

func TestListingCreate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	t.Run("valid listing starts visible and for sale", func(t *testing.T) {
		created, err := f.listings.Create(ctx, validListing())
		require.NoError(t, err)

		assert.Positive(t, created.ID)
		assert.Equal(t, market.SaleForSale, created.SaleStatus)
		assert.Equal(t, moderation.StatusVisible, created.ModerationStatus)
	})

	t.Run("banned words blind the listing on create", func(t *testing.T) {
		l := validListing()
		l.Title = "사기 아님 꿀매물 보장"

		created, err := f.listings.Create(ctx, l)
		require.NoError(t, err, "the write itself succeeds")
		assert.Equal(t, moderation.StatusBlinded, created.ModerationStatus)

		history, err := f.audit.History(ctx, moderation.TargetListing, created.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.True(t, history[0].Auto)
		assert.Equal(t, moderation.DefaultSystemActor, history[0].Moderator)
	})

	t.Run("validation", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*market.Listing)
		}{
			{"short title", func(l *market.Listing) { l.Title = "abcd" }},
			{"short description", func(l *market.Listing) { l.Description = "too short" }},
			{"negative price", func(l *market.Listing) { l.Price = -1 }},
			{"price too large", func(l *market.Listing) { l.Price = 1_000_000_000 }},
			{"missing category", func(l *market.Listing) { l.Category = " " }},
			{"missing location", func(l *market.Listing) { l.Location = "" }},
			{"missing seller", func(l *market.Listing) { l.SellerEmail = "" }},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				l := validListing()
				tc.mutate(l)
				_, err := f.listings.Create(ctx, l)
				var verr *moderation.ValidationError
				assert.ErrorAs(t, err, &verr)
			})
		}
	})
}

func TestListingVisibility(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	visible, err := f.listings.Create(ctx, validListing())
	require.NoError(t, err)

	blinded := validListing()
	blinded.Description = "명백한 사기 매물입니다 조심"
	hidden, err := f.listings.Create(ctx, blinded)
	require.NoError(t, err)

	t.Run("list shows only publicly visible listings", func(t *testing.T) {
		listings, err := f.listings.List(ctx)
		require.NoError(t, err)
		require.Len(t, listings, 1)
		assert.Equal(t, visible.ID, listings[0].ID)
	})

	t.Run("blocked listing is hidden from strangers", func(t *testing.T) {
		_, err := f.listings.Get(ctx, hidden.ID, "stranger@example.com")
		assert.ErrorIs(t, err, market.ErrNotFound)
	})

	t.Run("owner still sees their blocked listing", func(t *testing.T) {
		got, err := f.listings.Get(ctx, hidden.ID, seller)
		require.NoError(t, err)
		assert.Equal(t, hidden.ID, got.ID)
	})

	t.Run("admin sees blocked listings", func(t *testing.T) {
		got, err := f.listings.Get(ctx, hidden.ID, admin)
		require.NoError(t, err)
		assert.Equal(t, hidden.ID, got.ID)
	})

	t.Run("detail reads bump the view counter", func(t *testing.T) {
		before, err := f.listings.Get(ctx, visible.ID, "")
		require.NoError(t, err)
		after, err := f.listings.Get(ctx, visible.ID, "")
		require.NoError(t, err)
		assert.Equal(t, before.ViewCount+1, after.ViewCount)
	})
}

func TestListingUpdate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	created, err := f.listings.Create(ctx, validListing())
	require.NoError(t, err)

	t.Run("owner can edit", func(t *testing.T) {
		upd := validListing()
		upd.Title = "Mechanical keyboard (price drop)"
		upd.Price = 70000

		updated, err := f.listings.Update(ctx, created.ID, upd, seller)
		require.NoError(t, err)
		assert.Equal(t, int64(70000), updated.Price)
	})

	t.Run("stranger cannot edit", func(t *testing.T) {
		_, err := f.listings.Update(ctx, created.ID, validListing(), "stranger@example.com")
		assert.ErrorIs(t, err, market.ErrForbidden)
	})

	t.Run("edit that introduces a banned word gets blinded", func(t *testing.T) {
		fresh, err := f.listings.Create(ctx, validListing())
		require.NoError(t, err)

		upd := validListing()
		upd.Description = "직거래만 합니다 가짜 아니에요"

		updated, err := f.listings.Update(ctx, fresh.ID, upd, seller)
		require.NoError(t, err)
		assert.Equal(t, moderation.StatusBlinded, updated.ModerationStatus)
	})

	t.Run("unknown listing", func(t *testing.T) {
		_, err := f.listings.Update(ctx, 99999, validListing(), seller)
		assert.ErrorIs(t, err, market.ErrNotFound)
	})
}

func TestListingSaleStatus(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	created, err := f.listings.Create(ctx, validListing())
	require.NoError(t, err)

	t.Run("owner moves listing through sale states", func(t *testing.T) {
		updated, err := f.listings.ChangeSaleStatus(ctx, created.ID, market.SaleReserved, seller)
		require.NoError(t, err)
		assert.Equal(t, market.SaleReserved, updated.SaleStatus)

		updated, err = f.listings.ChangeSaleStatus(ctx, created.ID, market.SaleSold, seller)
		require.NoError(t, err)
		assert.Equal(t, market.SaleSold, updated.SaleStatus)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := f.listings.ChangeSaleStatus(ctx, created.ID, "BANANAS", seller)
		var verr *moderation.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("stranger cannot change status", func(t *testing.T) {
		_, err := f.listings.ChangeSaleStatus(ctx, created.ID, market.SaleForSale, "stranger@example.com")
		assert.ErrorIs(t, err, market.ErrForbidden)
	})

	t.Run("blocked listing refuses sale-status changes", func(t *testing.T) {
		blinded := validListing()
		blinded.Title = "도둑맞은 물건 아님 진짜"
		hidden, err := f.listings.Create(ctx, blinded)
		require.NoError(t, err)

		_, err = f.listings.ChangeSaleStatus(ctx, hidden.ID, market.SaleReserved, seller)
		assert.ErrorIs(t, err, market.ErrNotVisible)
	})
}

func TestListingDelete(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	created, err := f.listings.Create(ctx, validListing())
	require.NoError(t, err)

	require.ErrorIs(t, f.listings.Delete(ctx, created.ID, "stranger@example.com"), market.ErrForbidden)
	require.NoError(t, f.listings.Delete(ctx, created.ID, seller))

	_, err = f.listings.Get(ctx, created.ID, seller)
	assert.ErrorIs(t, err, market.ErrNotFound)
}

func validWanted() *market.WantedItem {
	return &market.WantedItem{
		Title:       "Wanted: standing desk",
		Description: "Motorized preferred, pickup ok",
		MaxPrice:    200000,
		Category:    "furniture",
		Location:    "Yongsan-gu",
		BuyerEmail:  buyer,
	}
}

func TestWantedService(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	t.Run("create starts active and visible", func(t *testing.T) {
		created, err := f.wanted.Create(ctx, validWanted())
		require.NoError(t, err)
		assert.Equal(t, market.WantedActive, created.WantedStatus)
		assert.Equal(t, moderation.StatusVisible, created.ModerationStatus)
	})

	t.Run("banned words blind a wanted ad too", func(t *testing.T) {
		w := validWanted()
		w.Description = "사기 당한 물건이라도 삽니다"

		created, err := f.wanted.Create(ctx, w)
		require.NoError(t, err)
		assert.Equal(t, moderation.StatusBlinded, created.ModerationStatus)

		history, err := f.audit.History(ctx, moderation.TargetWanted, created.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.True(t, history[0].Auto)
	})

	t.Run("owner update and delete", func(t *testing.T) {
		created, err := f.wanted.Create(ctx, validWanted())
		require.NoError(t, err)

		upd := validWanted()
		upd.MaxPrice = 250000
		updated, err := f.wanted.Update(ctx, created.ID, upd, buyer)
		require.NoError(t, err)
		assert.Equal(t, int64(250000), updated.MaxPrice)

		_, err = f.wanted.Update(ctx, created.ID, validWanted(), "stranger@example.com")
		assert.ErrorIs(t, err, market.ErrForbidden)

		require.NoError(t, f.wanted.Delete(ctx, created.ID, buyer))
		_, err = f.wanted.Get(ctx, created.ID, buyer)
		assert.ErrorIs(t, err, market.ErrNotFound)
	})

	t.Run("list hides blocked wanted ads", func(t *testing.T) {
		items, err := f.wanted.List(ctx)
		require.NoError(t, err)
		for _, w := range items {
			assert.True(t, w.IsPubliclyVisible())
		}
	})
}
