package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"maru/internal/market"
	"maru/internal/moderation"
)

// WantedStore implements market.WantedStore using SQLite.
type WantedStore struct {
	db *sql.DB
}

// NewWantedStore creates a WantedStore backed by the given database.
func NewWantedStore(db *sql.DB) *WantedStore {
	return &WantedStore{db: db}
}

var _ market.WantedStore = (*WantedStore)(nil)

func (s *WantedStore) Create(ctx context.Context, w *market.WantedItem) (*market.WantedItem, error) {
	stored := *w
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO wanted_items
			(title, description, max_price, category, location, buyer_email,
			 wanted_status, moderation_status, view_count, interest_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, stored.Title, stored.Description, stored.MaxPrice, stored.Category, stored.Location,
		stored.BuyerEmail, string(stored.WantedStatus), string(stored.ModerationStatus),
		stored.ViewCount, stored.InterestCount, now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("create wanted ad: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create wanted ad: %w", err)
	}
	stored.ID = id
	return &stored, nil
}

func (s *WantedStore) Save(ctx context.Context, w *market.WantedItem) error {
	w.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE wanted_items SET
			title = ?, description = ?, max_price = ?, category = ?, location = ?,
			wanted_status = ?, moderation_status = ?, interest_count = ?, updated_at = ?
		WHERE id = ?
	`, w.Title, w.Description, w.MaxPrice, w.Category, w.Location,
		string(w.WantedStatus), string(w.ModerationStatus), w.InterestCount,
		w.UpdatedAt.Format(time.RFC3339Nano), w.ID)
	if err != nil {
		return fmt.Errorf("save wanted ad: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("wanted ad not found: %d", w.ID)
	}
	return nil
}

const wantedColumns = `
	id, title, description, max_price, category, location, buyer_email,
	wanted_status, moderation_status, view_count, interest_count, created_at, updated_at`

func scanWanted(row interface{ Scan(...any) error }) (*market.WantedItem, error) {
	var w market.WantedItem
	var wantedStatus, modStatus, createdAtStr, updatedAtStr string
	err := row.Scan(&w.ID, &w.Title, &w.Description, &w.MaxPrice, &w.Category, &w.Location,
		&w.BuyerEmail, &wantedStatus, &modStatus, &w.ViewCount, &w.InterestCount,
		&createdAtStr, &updatedAtStr)
	if err != nil {
		return nil, err
	}
	w.WantedStatus = market.WantedStatus(wantedStatus)
	w.ModerationStatus = moderation.Status(modStatus)
	w.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAtStr)
	w.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAtStr)
	return &w, nil
}

func (s *WantedStore) FindByID(ctx context.Context, id int64) (*market.WantedItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT`+wantedColumns+` FROM wanted_items WHERE id = ?`, id)
	w, err := scanWanted(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *WantedStore) List(ctx context.Context) ([]market.WantedItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT`+wantedColumns+` FROM wanted_items ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []market.WantedItem
	for rows.Next() {
		w, err := scanWanted(rows)
		if err != nil {
			continue
		}
		items = append(items, *w)
	}
	return items, rows.Err()
}

func (s *WantedStore) IncrementViewCount(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE wanted_items SET view_count = view_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("increment view count: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("wanted ad not found: %d", id)
	}
	return nil
}

func (s *WantedStore) Exists(ctx context.Context, id int64) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM wanted_items WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return exists == 1, nil
}

func (s *WantedStore) SetModerationStatus(ctx context.Context, id int64, status moderation.Status) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE wanted_items SET moderation_status = ?, updated_at = ? WHERE id = ?
	`, string(status), time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("set moderation status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("wanted ad not found: %d", id)
	}
	return nil
}

func (s *WantedStore) Remove(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM wanted_items WHERE id = ?`, id)
	return err
}
