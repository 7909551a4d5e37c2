package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"maru/internal/market"
	"maru/internal/moderation"
)

// ListingStore implements market.ListingStore using SQLite.
type ListingStore struct {
	db *sql.DB
}

// NewListingStore creates a ListingStore backed by the given database.
// The database must already have the schema applied.
func NewListingStore(db *sql.DB) *ListingStore {
	return &ListingStore{db: db}
}

// Ensure ListingStore implements the interface at compile time.
var _ market.ListingStore = (*ListingStore)(nil)

func (s *ListingStore) Create(ctx context.Context, l *market.Listing) (*market.Listing, error) {
	stored := *l
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO listings
			(title, description, price, category, location, seller_email, image_url,
			 sale_status, moderation_status, view_count, wish_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, stored.Title, stored.Description, stored.Price, stored.Category, stored.Location,
		stored.SellerEmail, stored.ImageURL, string(stored.SaleStatus), string(stored.ModerationStatus),
		stored.ViewCount, stored.WishCount, now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	stored.ID = id
	return &stored, nil
}

func (s *ListingStore) Save(ctx context.Context, l *market.Listing) error {
	l.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE listings SET
			title = ?, description = ?, price = ?, category = ?, location = ?,
			image_url = ?, sale_status = ?, moderation_status = ?, wish_count = ?, updated_at = ?
		WHERE id = ?
	`, l.Title, l.Description, l.Price, l.Category, l.Location,
		l.ImageURL, string(l.SaleStatus), string(l.ModerationStatus), l.WishCount,
		l.UpdatedAt.Format(time.RFC3339Nano), l.ID)
	if err != nil {
		return fmt.Errorf("save listing: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("listing not found: %d", l.ID)
	}
	return nil
}

const listingColumns = `
	id, title, description, price, category, location, seller_email, image_url,
	sale_status, moderation_status, view_count, wish_count, created_at, updated_at`

func scanListing(row interface{ Scan(...any) error }) (*market.Listing, error) {
	var l market.Listing
	var saleStatus, modStatus, createdAtStr, updatedAtStr string
	err := row.Scan(&l.ID, &l.Title, &l.Description, &l.Price, &l.Category, &l.Location,
		&l.SellerEmail, &l.ImageURL, &saleStatus, &modStatus, &l.ViewCount, &l.WishCount,
		&createdAtStr, &updatedAtStr)
	if err != nil {
		return nil, err
	}
	l.SaleStatus = market.SaleStatus(saleStatus)
	l.ModerationStatus = moderation.Status(modStatus)
	l.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAtStr)
	l.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAtStr)
	return &l, nil
}

func (s *ListingStore) FindByID(ctx context.Context, id int64) (*market.Listing, error) {
	row := s.db.QueryRowContext(ctx, `SELECT`+listingColumns+` FROM listings WHERE id = ?`, id)
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ListingStore) List(ctx context.Context) ([]market.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT`+listingColumns+` FROM listings ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []market.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			continue
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

func (s *ListingStore) IncrementViewCount(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE listings SET view_count = view_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("increment view count: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("listing not found: %d", id)
	}
	return nil
}

func (s *ListingStore) Exists(ctx context.Context, id int64) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM listings WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return exists == 1, nil
}

func (s *ListingStore) SetModerationStatus(ctx context.Context, id int64, status moderation.Status) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE listings SET moderation_status = ?, updated_at = ? WHERE id = ?
	`, string(status), time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("set moderation status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("listing not found: %d", id)
	}
	return nil
}

func (s *ListingStore) Remove(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, id)
	return err
}
