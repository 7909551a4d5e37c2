package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"maru/internal/metrics"
	"maru/internal/moderation"
)

// moderateRequest is the request body for a moderation action.
type moderateRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// HandleModerateListing handles POST /admin/listings/{id}/moderate.
func (h *Handler) HandleModerateListing(w http.ResponseWriter, r *http.Request) {
	h.handleModerate(w, r, h.listingEngine)
}

// HandleModerateWanted handles POST /admin/wanted/{id}/moderate.
func (h *Handler) HandleModerateWanted(w http.ResponseWriter, r *http.Request) {
	h.handleModerate(w, r, h.wantedEngine)
}

func (h *Handler) handleModerate(w http.ResponseWriter, r *http.Request, engine *moderation.Engine) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req moderateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var entry moderation.AuditEntry
	switch req.Action {
	case "blind":
		entry, err = engine.Blind(r.Context(), id, req.Reason, actor)
	case "delete":
		entry, err = engine.Delete(r.Context(), id, req.Reason, actor)
	case "restore":
		entry, err = engine.Restore(r.Context(), id, actor)
	case "permanent-delete":
		entry, err = engine.PermanentDelete(r.Context(), id, req.Reason, actor)
	default:
		writeError(w, &moderation.ValidationError{Field: "action", Message: "unknown action " + req.Action})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// requireAdmin checks that the caller is an administrator before any
// audit-log read.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor, ok := requireActor(w, r)
	if !ok {
		return "", false
	}
	if !h.auth.IsAuthorized(actor) {
		log.Warn().Str("actor", actor).Str("path", r.URL.Path).Msg("Denied: administrator privileges required")
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "access denied"})
		return "", false
	}
	return actor, true
}

// HandleListingHistory handles GET /admin/listings/{id}/history.
func (h *Handler) HandleListingHistory(w http.ResponseWriter, r *http.Request) {
	h.handleHistory(w, r, moderation.TargetListing)
}

// HandleWantedHistory handles GET /admin/wanted/{id}/history.
func (h *Handler) HandleWantedHistory(w http.ResponseWriter, r *http.Request) {
	h.handleHistory(w, r, moderation.TargetWanted)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request, kind moderation.TargetKind) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	entries, err := h.audit.History(r.Context(), kind, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entriesOrEmpty(entries))
}

// HandleLogsRecent handles GET /admin/logs/recent?days=N. Without the days
// parameter the whole log is returned.
func (h *Handler) HandleLogsRecent(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	var entries []moderation.AuditEntry
	var err error
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		days, perr := strconv.Atoi(daysStr)
		if perr != nil || days <= 0 {
			writeError(w, &moderation.ValidationError{Field: "days", Message: "must be a positive integer"})
			return
		}
		now := time.Now()
		entries, err = h.audit.ByDateRange(r.Context(), now.AddDate(0, 0, -days), now)
	} else {
		entries, err = h.audit.All(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entriesOrEmpty(entries))
}

// HandleLogsByModerator handles GET /admin/logs/by-moderator?email=.
func (h *Handler) HandleLogsByModerator(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, &moderation.ValidationError{Field: "email", Message: "must not be blank"})
		return
	}

	entries, err := h.audit.ByActor(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entriesOrEmpty(entries))
}

// HandleLogsByStatus handles GET /admin/logs/by-status?status=.
func (h *Handler) HandleLogsByStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	status := moderation.Status(r.URL.Query().Get("status"))
	if !status.Valid() {
		writeError(w, &moderation.ValidationError{Field: "status", Message: "unknown status " + string(status)})
		return
	}

	entries, err := h.audit.ByStatus(r.Context(), status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entriesOrEmpty(entries))
}

// HandleLogsSearch handles GET /admin/logs/search?q=.
func (h *Handler) HandleLogsSearch(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, &moderation.ValidationError{Field: "q", Message: "must not be blank"})
		return
	}

	entries, err := h.audit.Search(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entriesOrEmpty(entries))
}

// HandleLogsAuto handles GET /admin/logs/auto.
func (h *Handler) HandleLogsAuto(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	entries, err := h.audit.AutoFiltered(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entriesOrEmpty(entries))
}

// adminStats is the response body for GET /admin/stats.
type adminStats struct {
	ByStatus       []moderation.StatusStat `json:"by_status"`
	ByModerator    []moderation.ActorStat  `json:"by_moderator"`
	Last24Hours    int                     `json:"last_24_hours"`
	AutoFilterHits float64                 `json:"auto_filter_hits"`
}

// HandleAdminStats handles GET /admin/stats. The three store aggregations
// run in parallel.
func (h *Handler) HandleAdminStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	var stats adminStats
	g, ctx := errgroup.WithContext(r.Context())

	g.Go(func() error {
		byStatus, err := h.audit.StatsByStatus(ctx)
		if err != nil {
			return err
		}
		stats.ByStatus = byStatus
		return nil
	})
	g.Go(func() error {
		byActor, err := h.audit.StatsByActor(ctx)
		if err != nil {
			return err
		}
		stats.ByModerator = byActor
		return nil
	})
	g.Go(func() error {
		count, err := h.audit.CountSince(ctx, time.Now().Add(-24*time.Hour))
		if err != nil {
			return err
		}
		stats.Last24Hours = count
		return nil
	})

	if err := g.Wait(); err != nil {
		writeError(w, err)
		return
	}

	// Read the auto-filter hit counter straight off the Prometheus metric
	stats.AutoFilterHits = getCounterValue(metrics.AutoFilterHitsTotal)

	writeJSON(w, http.StatusOK, stats)
}

// getCounterValue reads the current value of a prometheus.Counter.
func getCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil {
		return m.GetCounter().GetValue()
	}
	return 0
}

// entriesOrEmpty keeps JSON arrays as [] instead of null.
func entriesOrEmpty(entries []moderation.AuditEntry) []moderation.AuditEntry {
	if entries == nil {
		return []moderation.AuditEntry{}
	}
	return entries
}
