package moderation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"maru/internal/metrics"
	"maru/internal/tracing"
)

// Engine applies moderation decisions to one kind of content. It validates
// actor authority, mutates the target's moderation status, and appends an
// audit entry — in that order, so a failed precondition leaves no partial
// state. An engine instance is bound to a single TargetKind; listings and
// wanted ads get separate engines sharing the same audit store, filter,
// and authorizer.
type Engine struct {
	kind    TargetKind
	targets TargetStore
	audit   AuditStore
	filter  ContentFilter
	auth    Authorizer

	// Per-target locks serialize concurrent moderation of the same id, so
	// the persisted status always matches the newest audit entry.
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewEngine wires an engine for one content kind.
func NewEngine(kind TargetKind, targets TargetStore, audit AuditStore, filter ContentFilter, auth Authorizer) *Engine {
	return &Engine{
		kind:    kind,
		targets: targets,
		audit:   audit,
		filter:  filter,
		auth:    auth,
		locks:   make(map[int64]*sync.Mutex),
	}
}

// Kind returns the content kind this engine moderates.
func (e *Engine) Kind() TargetKind { return e.kind }

// Blind hides the target from public view. The reason is required.
func (e *Engine) Blind(ctx context.Context, id int64, reason, actor string) (AuditEntry, error) {
	if strings.TrimSpace(reason) == "" {
		return AuditEntry{}, &ValidationError{Field: "reason", Message: "reason must not be blank"}
	}
	return e.apply(ctx, id, StatusBlinded, reason, actor, false)
}

// Delete marks the target deleted. The row is retained; only its status
// changes. The reason is required.
func (e *Engine) Delete(ctx context.Context, id int64, reason, actor string) (AuditEntry, error) {
	if strings.TrimSpace(reason) == "" {
		return AuditEntry{}, &ValidationError{Field: "reason", Message: "reason must not be blank"}
	}
	return e.apply(ctx, id, StatusDeleted, reason, actor, false)
}

// Restore returns the target to public view. Restoring is always legal,
// whatever the current status, and records the fixed reason "restored".
func (e *Engine) Restore(ctx context.Context, id int64, actor string) (AuditEntry, error) {
	return e.apply(ctx, id, StatusVisible, RestoreReason, actor, false)
}

// PermanentDelete removes the target row irrecoverably. The audit entry is
// appended first so the history survives the row.
func (e *Engine) PermanentDelete(ctx context.Context, id int64, reason, actor string) (AuditEntry, error) {
	ctx, span := tracing.ModerationSpan(ctx, "permanent_delete", string(e.kind), id)
	defer span.End()

	if !e.auth.IsAuthorized(actor) {
		return AuditEntry{}, ErrUnauthorized
	}

	unlock := e.lock(id)
	defer unlock()

	ok, err := e.targets.Exists(ctx, id)
	if err != nil {
		return AuditEntry{}, fmt.Errorf("look up %s %d: %w", e.kind, id, err)
	}
	if !ok {
		return AuditEntry{}, ErrNotFound
	}

	entry, err := e.audit.Append(ctx, AuditEntry{
		Target:    e.kind,
		TargetID:  id,
		Status:    StatusDeleted,
		Reason:    PermanentDeletePrefix + reason,
		Moderator: actor,
	})
	if err != nil {
		return AuditEntry{}, fmt.Errorf("record permanent delete: %w", err)
	}

	if err := e.targets.Remove(ctx, id); err != nil {
		err = fmt.Errorf("remove %s %d: %w", e.kind, id, err)
		tracing.EndWithError(span, err)
		return AuditEntry{}, err
	}

	metrics.ModerationActionsTotal.WithLabelValues("permanent_delete", "admin").Inc()
	log.Info().
		Str("kind", string(e.kind)).
		Int64("id", id).
		Str("by", actor).
		Msg("Content permanently deleted")

	return entry, nil
}

// AutoFilter scans the target's title and body against the banned wordlist
// and blinds the target when any term matches. It returns nil when the text
// is clean. Callers on the content-creation path treat a returned error as
// non-fatal: the primary write has already succeeded.
func (e *Engine) AutoFilter(ctx context.Context, id int64, title, body, systemActor string) (*AuditEntry, error) {
	metrics.AutoFilterScansTotal.Inc()

	matches := e.filter.Scan(title + " " + body)
	if len(matches) == 0 {
		return nil, nil
	}

	reason := AutoReasonPrefix + strings.Join(matches, ", ")
	entry, err := e.apply(ctx, id, StatusBlinded, reason, systemActor, true)
	if err != nil {
		return nil, err
	}

	metrics.AutoFilterHitsTotal.Inc()
	log.Warn().
		Str("kind", string(e.kind)).
		Int64("id", id).
		Strs("matches", matches).
		Msg("Content auto-blinded by keyword filter")

	return &entry, nil
}

// apply performs one status change as a unit: authorize, check existence,
// persist the status, append the audit entry.
func (e *Engine) apply(ctx context.Context, id int64, status Status, reason, actor string, auto bool) (AuditEntry, error) {
	ctx, span := tracing.ModerationSpan(ctx, strings.ToLower(string(status)), string(e.kind), id)
	defer span.End()

	if !e.auth.IsAuthorized(actor) {
		return AuditEntry{}, ErrUnauthorized
	}

	unlock := e.lock(id)
	defer unlock()

	ok, err := e.targets.Exists(ctx, id)
	if err != nil {
		return AuditEntry{}, fmt.Errorf("look up %s %d: %w", e.kind, id, err)
	}
	if !ok {
		return AuditEntry{}, ErrNotFound
	}

	if err := e.targets.SetModerationStatus(ctx, id, status); err != nil {
		return AuditEntry{}, fmt.Errorf("set %s %d status: %w", e.kind, id, err)
	}

	entry, err := e.audit.Append(ctx, AuditEntry{
		Target:    e.kind,
		TargetID:  id,
		Status:    status,
		Reason:    reason,
		Moderator: actor,
		Auto:      auto,
	})
	if err != nil {
		err = fmt.Errorf("record moderation action: %w", err)
		tracing.EndWithError(span, err)
		return AuditEntry{}, err
	}

	origin := "admin"
	if auto {
		origin = "auto"
	}
	metrics.ModerationActionsTotal.WithLabelValues(strings.ToLower(string(status)), origin).Inc()

	log.Info().
		Str("kind", string(e.kind)).
		Int64("id", id).
		Str("status", string(status)).
		Str("by", actor).
		Bool("auto", auto).
		Msg("Moderation action applied")

	return entry, nil
}

// lock acquires the per-target mutex for id and returns its unlock func.
// Lock entries are retained for the process lifetime; the map is bounded by
// the number of distinct targets ever moderated.
func (e *Engine) lock(id int64) func() {
	e.mu.Lock()
	m, ok := e.locks[id]
	if !ok {
		m = &sync.Mutex{}
		e.locks[id] = m
	}
	e.mu.Unlock()

	m.Lock()
	return m.Unlock
}
