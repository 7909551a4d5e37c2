// Package sqlitestore provides SQLite-backed store implementations.
// The driver is instrumented with otelsql so queries show up as spans.
package sqlitestore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/XSAM/otelsql"
	"go.opentelemetry.io/otel/attribute"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS listings (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	title             TEXT NOT NULL,
	description       TEXT NOT NULL,
	price             INTEGER NOT NULL,
	category          TEXT NOT NULL,
	location          TEXT NOT NULL,
	seller_email      TEXT NOT NULL,
	image_url         TEXT NOT NULL DEFAULT '',
	sale_status       TEXT NOT NULL,
	moderation_status TEXT NOT NULL,
	view_count        INTEGER NOT NULL DEFAULT 0,
	wish_count        INTEGER NOT NULL DEFAULT 0,
	created_at        TEXT NOT NULL,
	updated_at        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS wanted_items (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	title             TEXT NOT NULL,
	description       TEXT NOT NULL,
	max_price         INTEGER NOT NULL,
	category          TEXT NOT NULL,
	location          TEXT NOT NULL,
	buyer_email       TEXT NOT NULL,
	wanted_status     TEXT NOT NULL,
	moderation_status TEXT NOT NULL,
	view_count        INTEGER NOT NULL DEFAULT 0,
	interest_count    INTEGER NOT NULL DEFAULT 0,
	created_at        TEXT NOT NULL,
	updated_at        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS moderation_audit_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	target_kind TEXT NOT NULL,
	target_id   INTEGER NOT NULL,
	status      TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	moderator   TEXT NOT NULL,
	auto_mod    INTEGER NOT NULL DEFAULT 0,
	acted_at    TEXT NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_target    ON moderation_audit_log(target_kind, target_id, id);
CREATE INDEX IF NOT EXISTS idx_audit_moderator ON moderation_audit_log(moderator);
CREATE INDEX IF NOT EXISTS idx_audit_status    ON moderation_audit_log(status);
CREATE INDEX IF NOT EXISTS idx_audit_acted_at  ON moderation_audit_log(acted_at);
`

// Open opens (or creates) the SQLite database at path and applies the
// schema. Use ":memory:" for an ephemeral database in tests.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := otelsql.Open("sqlite", path,
		otelsql.WithAttributes(attribute.String("db.system", "sqlite")))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return db, nil
}
