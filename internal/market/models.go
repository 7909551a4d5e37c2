package market

import (
	"time"

	"maru/internal/moderation"
)

// SaleStatus reflects the seller's transaction progress. It is mutated only
// through the owner's CRUD path and is independent of moderation status.
type SaleStatus string

const (
	SaleForSale    SaleStatus = "FOR_SALE"
	SaleBuyRequest SaleStatus = "BUY_REQUEST"
	SaleReserved   SaleStatus = "RESERVED"
	SaleSold       SaleStatus = "SOLD"
)

// Valid reports whether s is one of the known sale statuses.
func (s SaleStatus) Valid() bool {
	switch s {
	case SaleForSale, SaleBuyRequest, SaleReserved, SaleSold:
		return true
	}
	return false
}

// WantedStatus reflects a buyer's progress on a wanted ad.
type WantedStatus string

const (
	WantedActive    WantedStatus = "ACTIVE"
	WantedMatched   WantedStatus = "MATCHED"
	WantedCancelled WantedStatus = "CANCELLED"
)

// Valid reports whether s is one of the known wanted statuses.
func (s WantedStatus) Valid() bool {
	switch s {
	case WantedActive, WantedMatched, WantedCancelled:
		return true
	}
	return false
}

// Listing is a for-sale item posted by a user. SaleStatus and
// ModerationStatus are orthogonal axes: neither implies nor constrains the
// other. ModerationStatus is mutated only by the moderation engine.
type Listing struct {
	ID               int64             `json:"id"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Price            int64             `json:"price"`
	Category         string            `json:"category"`
	Location         string            `json:"location"`
	SellerEmail      string            `json:"seller_email"`
	ImageURL         string            `json:"image_url,omitempty"`
	SaleStatus       SaleStatus        `json:"sale_status"`
	ModerationStatus moderation.Status `json:"moderation_status"`
	ViewCount        int64             `json:"view_count"`
	WishCount        int64             `json:"wish_count"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// IsPubliclyVisible is the single access-control accessor: a listing is
// eligible for public display and for sale-status transitions iff its
// moderation status is VISIBLE.
func (l *Listing) IsPubliclyVisible() bool {
	return l.ModerationStatus == moderation.StatusVisible
}

// IsBlocked reports whether the listing has been blinded or deleted.
func (l *Listing) IsBlocked() bool {
	return l.ModerationStatus.Blocked()
}

// AvailableForSale reports whether the listing can still be bought.
func (l *Listing) AvailableForSale() bool {
	return l.SaleStatus == SaleForSale && l.IsPubliclyVisible()
}

// WantedItem is a buy-request ad posted by a user. It carries its own
// moderation status so the keyword filter can blind wanted ads too.
type WantedItem struct {
	ID               int64             `json:"id"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	MaxPrice         int64             `json:"max_price"`
	Category         string            `json:"category"`
	Location         string            `json:"location"`
	BuyerEmail       string            `json:"buyer_email"`
	WantedStatus     WantedStatus      `json:"wanted_status"`
	ModerationStatus moderation.Status `json:"moderation_status"`
	ViewCount        int64             `json:"view_count"`
	InterestCount    int64             `json:"interest_count"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// IsPubliclyVisible reports whether the wanted ad may be shown publicly.
func (w *WantedItem) IsPubliclyVisible() bool {
	return w.ModerationStatus == moderation.StatusVisible
}

// IsBlocked reports whether the wanted ad has been blinded or deleted.
func (w *WantedItem) IsBlocked() bool {
	return w.ModerationStatus.Blocked()
}
