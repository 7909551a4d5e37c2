package market

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"maru/internal/moderation"
)

const maxPrice = 999_999_999

// ListingService owns the listing CRUD path. Every successful create or
// update runs the moderation engine's auto-filter afterwards; a filter
// failure is logged and never rolls back the primary write.
type ListingService struct {
	store       ListingStore
	engine      *moderation.Engine
	auth        moderation.Authorizer
	systemActor string
}

// NewListingService wires a listing service. systemActor is the identity
// recorded on automatic moderation actions.
func NewListingService(store ListingStore, engine *moderation.Engine, auth moderation.Authorizer, systemActor string) *ListingService {
	if systemActor == "" {
		systemActor = moderation.DefaultSystemActor
	}
	return &ListingService{store: store, engine: engine, auth: auth, systemActor: systemActor}
}

// Create validates and persists a new listing, then scans it.
// New listings start FOR_SALE and VISIBLE.
func (s *ListingService) Create(ctx context.Context, l *Listing) (*Listing, error) {
	if err := validateListing(l); err != nil {
		return nil, err
	}

	l.SaleStatus = SaleForSale
	l.ModerationStatus = moderation.StatusVisible

	created, err := s.store.Create(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}

	s.autoFilter(ctx, created.ID, created.Title, created.Description)

	// The filter may have blinded the listing; return the current state.
	if fresh, err := s.store.FindByID(ctx, created.ID); err == nil && fresh != nil {
		return fresh, nil
	}
	return created, nil
}

// Update applies owner edits to a listing and rescans it.
func (s *ListingService) Update(ctx context.Context, id int64, upd *Listing, actor string) (*Listing, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find listing %d: %w", id, err)
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	if existing.SellerEmail != actor && !s.auth.IsAuthorized(actor) {
		return nil, ErrForbidden
	}

	existing.Title = upd.Title
	existing.Description = upd.Description
	existing.Price = upd.Price
	existing.Category = upd.Category
	existing.Location = upd.Location
	if upd.ImageURL != "" {
		existing.ImageURL = upd.ImageURL
	}

	if err := validateListing(existing); err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, existing); err != nil {
		return nil, fmt.Errorf("save listing %d: %w", id, err)
	}

	s.autoFilter(ctx, existing.ID, existing.Title, existing.Description)

	if fresh, err := s.store.FindByID(ctx, id); err == nil && fresh != nil {
		return fresh, nil
	}
	return existing, nil
}

// Get returns one listing and bumps its view counter. Blocked listings are
// hidden from everyone but their owner and administrators.
func (s *ListingService) Get(ctx context.Context, id int64, viewer string) (*Listing, error) {
	l, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find listing %d: %w", id, err)
	}
	if l == nil {
		return nil, ErrNotFound
	}
	if l.IsBlocked() && l.SellerEmail != viewer && !s.auth.IsAuthorized(viewer) {
		return nil, ErrNotFound
	}

	if err := s.store.IncrementViewCount(ctx, id); err != nil {
		log.Error().Err(err).Int64("id", id).Msg("Failed to bump listing view count")
	} else {
		l.ViewCount++
	}
	return l, nil
}

// List returns all publicly visible listings, newest first.
func (s *ListingService) List(ctx context.Context) ([]Listing, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	visible := make([]Listing, 0, len(all))
	for _, l := range all {
		if l.IsPubliclyVisible() {
			visible = append(visible, l)
		}
	}
	return visible, nil
}

// ChangeSaleStatus moves a listing between the seller's transaction states.
// The transition is only legal while the listing is publicly visible.
func (s *ListingService) ChangeSaleStatus(ctx context.Context, id int64, status SaleStatus, actor string) (*Listing, error) {
	if !status.Valid() {
		return nil, &moderation.ValidationError{Field: "sale_status", Message: "unknown status " + string(status)}
	}

	l, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find listing %d: %w", id, err)
	}
	if l == nil {
		return nil, ErrNotFound
	}
	if l.SellerEmail != actor && !s.auth.IsAuthorized(actor) {
		return nil, ErrForbidden
	}
	if !l.IsPubliclyVisible() {
		return nil, ErrNotVisible
	}

	l.SaleStatus = status
	if err := s.store.Save(ctx, l); err != nil {
		return nil, fmt.Errorf("save listing %d: %w", id, err)
	}
	return l, nil
}

// Delete removes a listing through the owner path.
func (s *ListingService) Delete(ctx context.Context, id int64, actor string) error {
	l, err := s.store.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find listing %d: %w", id, err)
	}
	if l == nil {
		return ErrNotFound
	}
	if l.SellerEmail != actor && !s.auth.IsAuthorized(actor) {
		return ErrForbidden
	}
	if err := s.store.Remove(ctx, id); err != nil {
		return fmt.Errorf("delete listing %d: %w", id, err)
	}
	return nil
}

// autoFilter runs the keyword scan after a successful write. Failures here
// are best-effort: logged, never surfaced to the caller.
func (s *ListingService) autoFilter(ctx context.Context, id int64, title, description string) {
	entry, err := s.engine.AutoFilter(ctx, id, title, description, s.systemActor)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("Auto-filter pass failed")
		return
	}
	if entry != nil {
		log.Warn().Int64("id", id).Str("reason", entry.Reason).Msg("Listing auto-blinded")
	}
}

func validateListing(l *Listing) error {
	if utf8.RuneCountInString(strings.TrimSpace(l.Title)) < 5 {
		return &moderation.ValidationError{Field: "title", Message: "must be at least 5 characters"}
	}
	if utf8.RuneCountInString(l.Title) > 100 {
		return &moderation.ValidationError{Field: "title", Message: "must be at most 100 characters"}
	}
	if utf8.RuneCountInString(strings.TrimSpace(l.Description)) < 10 {
		return &moderation.ValidationError{Field: "description", Message: "must be at least 10 characters"}
	}
	if utf8.RuneCountInString(l.Description) > 2000 {
		return &moderation.ValidationError{Field: "description", Message: "must be at most 2000 characters"}
	}
	if l.Price < 0 || l.Price > maxPrice {
		return &moderation.ValidationError{Field: "price", Message: "must be between 0 and 999999999"}
	}
	if strings.TrimSpace(l.Category) == "" {
		return &moderation.ValidationError{Field: "category", Message: "must not be blank"}
	}
	if strings.TrimSpace(l.Location) == "" {
		return &moderation.ValidationError{Field: "location", Message: "must not be blank"}
	}
	if strings.TrimSpace(l.SellerEmail) == "" {
		return &moderation.ValidationError{Field: "seller_email", Message: "must not be blank"}
	}
	return nil
}

// WantedService owns the wanted-ad CRUD path, mirroring ListingService.
type WantedService struct {
	store       WantedStore
	engine      *moderation.Engine
	auth        moderation.Authorizer
	systemActor string
}

// NewWantedService wires a wanted-ad service.
func NewWantedService(store WantedStore, engine *moderation.Engine, auth moderation.Authorizer, systemActor string) *WantedService {
	if systemActor == "" {
		systemActor = moderation.DefaultSystemActor
	}
	return &WantedService{store: store, engine: engine, auth: auth, systemActor: systemActor}
}

// Create validates and persists a new wanted ad, then scans it.
func (s *WantedService) Create(ctx context.Context, w *WantedItem) (*WantedItem, error) {
	if err := validateWanted(w); err != nil {
		return nil, err
	}

	w.WantedStatus = WantedActive
	w.ModerationStatus = moderation.StatusVisible

	created, err := s.store.Create(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("create wanted ad: %w", err)
	}

	s.autoFilter(ctx, created.ID, created.Title, created.Description)

	if fresh, err := s.store.FindByID(ctx, created.ID); err == nil && fresh != nil {
		return fresh, nil
	}
	return created, nil
}

// Update applies owner edits to a wanted ad and rescans it.
func (s *WantedService) Update(ctx context.Context, id int64, upd *WantedItem, actor string) (*WantedItem, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find wanted ad %d: %w", id, err)
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	if existing.BuyerEmail != actor && !s.auth.IsAuthorized(actor) {
		return nil, ErrForbidden
	}

	existing.Title = upd.Title
	existing.Description = upd.Description
	existing.MaxPrice = upd.MaxPrice
	existing.Category = upd.Category
	existing.Location = upd.Location

	if err := validateWanted(existing); err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, existing); err != nil {
		return nil, fmt.Errorf("save wanted ad %d: %w", id, err)
	}

	s.autoFilter(ctx, existing.ID, existing.Title, existing.Description)

	if fresh, err := s.store.FindByID(ctx, id); err == nil && fresh != nil {
		return fresh, nil
	}
	return existing, nil
}

// Get returns one wanted ad and bumps its view counter.
func (s *WantedService) Get(ctx context.Context, id int64, viewer string) (*WantedItem, error) {
	w, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find wanted ad %d: %w", id, err)
	}
	if w == nil {
		return nil, ErrNotFound
	}
	if w.IsBlocked() && w.BuyerEmail != viewer && !s.auth.IsAuthorized(viewer) {
		return nil, ErrNotFound
	}

	if err := s.store.IncrementViewCount(ctx, id); err != nil {
		log.Error().Err(err).Int64("id", id).Msg("Failed to bump wanted ad view count")
	} else {
		w.ViewCount++
	}
	return w, nil
}

// List returns all publicly visible wanted ads, newest first.
func (s *WantedService) List(ctx context.Context) ([]WantedItem, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list wanted ads: %w", err)
	}
	visible := make([]WantedItem, 0, len(all))
	for _, w := range all {
		if w.IsPubliclyVisible() {
			visible = append(visible, w)
		}
	}
	return visible, nil
}

// Delete removes a wanted ad through the owner path.
func (s *WantedService) Delete(ctx context.Context, id int64, actor string) error {
	w, err := s.store.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find wanted ad %d: %w", id, err)
	}
	if w == nil {
		return ErrNotFound
	}
	if w.BuyerEmail != actor && !s.auth.IsAuthorized(actor) {
		return ErrForbidden
	}
	if err := s.store.Remove(ctx, id); err != nil {
		return fmt.Errorf("delete wanted ad %d: %w", id, err)
	}
	return nil
}

func (s *WantedService) autoFilter(ctx context.Context, id int64, title, description string) {
	entry, err := s.engine.AutoFilter(ctx, id, title, description, s.systemActor)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("Auto-filter pass failed")
		return
	}
	if entry != nil {
		log.Warn().Int64("id", id).Str("reason", entry.Reason).Msg("Wanted ad auto-blinded")
	}
}

func validateWanted(w *WantedItem) error {
	if utf8.RuneCountInString(strings.TrimSpace(w.Title)) < 5 {
		return &moderation.ValidationError{Field: "title", Message: "must be at least 5 characters"}
	}
	if utf8.RuneCountInString(w.Title) > 100 {
		return &moderation.ValidationError{Field: "title", Message: "must be at most 100 characters"}
	}
	if utf8.RuneCountInString(strings.TrimSpace(w.Description)) < 10 {
		return &moderation.ValidationError{Field: "description", Message: "must be at least 10 characters"}
	}
	if utf8.RuneCountInString(w.Description) > 2000 {
		return &moderation.ValidationError{Field: "description", Message: "must be at most 2000 characters"}
	}
	if w.MaxPrice < 0 || w.MaxPrice > maxPrice {
		return &moderation.ValidationError{Field: "max_price", Message: "must be between 0 and 999999999"}
	}
	if strings.TrimSpace(w.Category) == "" {
		return &moderation.ValidationError{Field: "category", Message: "must not be blank"}
	}
	if strings.TrimSpace(w.Location) == "" {
		return &moderation.ValidationError{Field: "location", Message: "must not be blank"}
	}
	if strings.TrimSpace(w.BuyerEmail) == "" {
		return &moderation.ValidationError{Field: "buyer_email", Message: "must not be blank"}
	}
	return nil
}
