package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"maru/internal/moderation"
)

// AuditStore implements moderation.AuditStore using SQLite.
type AuditStore struct {
	db *sql.DB
}

// NewAuditStore creates an AuditStore backed by the given database.
func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

var _ moderation.AuditStore = (*AuditStore)(nil)

const auditColumns = `id, target_kind, target_id, status, reason, moderator, auto_mod, acted_at, created_at`

func (s *AuditStore) Append(ctx context.Context, e moderation.AuditEntry) (moderation.AuditEntry, error) {
	now := time.Now().UTC()
	if e.ActedAt.IsZero() {
		e.ActedAt = now
	}
	e.CreatedAt = now

	autoMod := 0
	if e.Auto {
		autoMod = 1
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO moderation_audit_log
			(target_kind, target_id, status, reason, moderator, auto_mod, acted_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, string(e.Target), e.TargetID, string(e.Status), e.Reason, e.Moderator, autoMod,
		e.ActedAt.Format(time.RFC3339Nano), e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return moderation.AuditEntry{}, fmt.Errorf("append audit entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return moderation.AuditEntry{}, fmt.Errorf("append audit entry: %w", err)
	}
	e.ID = uint64(id)
	return e, nil
}

func scanAuditEntry(row interface{ Scan(...any) error }) (*moderation.AuditEntry, error) {
	var e moderation.AuditEntry
	var kind, status, actedAtStr, createdAtStr string
	var autoMod int
	err := row.Scan(&e.ID, &kind, &e.TargetID, &status, &e.Reason, &e.Moderator,
		&autoMod, &actedAtStr, &createdAtStr)
	if err != nil {
		return nil, err
	}
	e.Target = moderation.TargetKind(kind)
	e.Status = moderation.Status(status)
	e.Auto = autoMod == 1
	e.ActedAt, _ = time.Parse(time.RFC3339Nano, actedAtStr)
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAtStr)
	return &e, nil
}

func (s *AuditStore) listEntries(ctx context.Context, clause string, args ...any) ([]moderation.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+auditColumns+` FROM moderation_audit_log `+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []moderation.AuditEntry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			continue
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (s *AuditStore) LatestFor(ctx context.Context, kind moderation.TargetKind, id int64) (*moderation.AuditEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+auditColumns+` FROM moderation_audit_log
		WHERE target_kind = ? AND target_id = ? ORDER BY id DESC LIMIT 1
	`, string(kind), id)
	e, err := scanAuditEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *AuditStore) History(ctx context.Context, kind moderation.TargetKind, id int64) ([]moderation.AuditEntry, error) {
	return s.listEntries(ctx, `WHERE target_kind = ? AND target_id = ? ORDER BY id DESC`, string(kind), id)
}

func (s *AuditStore) ByActor(ctx context.Context, moderator string) ([]moderation.AuditEntry, error) {
	return s.listEntries(ctx, `WHERE moderator = ? ORDER BY id DESC`, moderator)
}

func (s *AuditStore) ByStatus(ctx context.Context, status moderation.Status) ([]moderation.AuditEntry, error) {
	return s.listEntries(ctx, `WHERE status = ? ORDER BY id DESC`, string(status))
}

func (s *AuditStore) ByDateRange(ctx context.Context, start, end time.Time) ([]moderation.AuditEntry, error) {
	return s.listEntries(ctx, `WHERE acted_at >= ? AND acted_at <= ? ORDER BY id DESC`,
		start.UTC().Format(time.RFC3339Nano), end.UTC().Format(time.RFC3339Nano))
}

func (s *AuditStore) Search(ctx context.Context, keyword string) ([]moderation.AuditEntry, error) {
	pattern := "%" + escapeLike(keyword) + "%"
	return s.listEntries(ctx, `WHERE reason LIKE ? ESCAPE '\' ORDER BY id DESC`, pattern)
}

func (s *AuditStore) AutoFiltered(ctx context.Context) ([]moderation.AuditEntry, error) {
	return s.listEntries(ctx, `WHERE auto_mod = 1 ORDER BY id DESC`)
}

func (s *AuditStore) All(ctx context.Context) ([]moderation.AuditEntry, error) {
	return s.listEntries(ctx, `ORDER BY id DESC`)
}

func (s *AuditStore) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM moderation_audit_log WHERE acted_at >= ?
	`, since.UTC().Format(time.RFC3339Nano)).Scan(&count)
	return count, err
}

func (s *AuditStore) IsCurrentlyBlocked(ctx context.Context, kind moderation.TargetKind, id int64) (bool, error) {
	latest, err := s.LatestFor(ctx, kind, id)
	if err != nil {
		return false, err
	}
	if latest == nil {
		return false, nil
	}
	return latest.Status.Blocked(), nil
}

func (s *AuditStore) StatsByActor(ctx context.Context) ([]moderation.ActorStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT moderator, COUNT(*) AS n FROM moderation_audit_log
		GROUP BY moderator ORDER BY n DESC, moderator ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []moderation.ActorStat
	for rows.Next() {
		var st moderation.ActorStat
		if err := rows.Scan(&st.Moderator, &st.Count); err != nil {
			continue
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func (s *AuditStore) StatsByStatus(ctx context.Context) ([]moderation.StatusStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) AS n FROM moderation_audit_log
		GROUP BY status ORDER BY n DESC, status ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []moderation.StatusStat
	for rows.Next() {
		var st moderation.StatusStat
		var status string
		if err := rows.Scan(&status, &st.Count); err != nil {
			continue
		}
		st.Status = moderation.Status(status)
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func (s *AuditStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM moderation_audit_log WHERE created_at < ?
	`, cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("delete audit entries: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// escapeLike escapes LIKE wildcards so a keyword containing % or _ matches
// literally.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
