package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maru/internal/database/boltstore"
	"maru/internal/handlers"
	"maru/internal/market"
	"maru/internal/moderation"
	"maru/internal/routing"
)

const (
	adminActor  = "admin@maru.app"
	sellerActor = "seller@example.com"
	buyerActor  = "buyer@example.com"
)

func setupServer(t *testing.T) *httptest.Server {
	store, err := boltstore.Open(boltstore.Options{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	auth := moderation.NewAllowList(adminActor, moderation.DefaultSystemActor)
	filter := moderation.NewKeywordFilter()
	audit := store.AuditStore()

	listingEngine := moderation.NewEngine(moderation.TargetListing, store.ListingStore(), audit, filter, auth)
	wantedEngine := moderation.NewEngine(moderation.TargetWanted, store.WantedStore(), audit, filter, auth)

	h := handlers.NewHandler(
		market.NewListingService(store.ListingStore(), listingEngine, auth, ""),
		market.NewWantedService(store.WantedStore(), wantedEngine, auth, ""),
		listingEngine,
		wantedEngine,
		audit,
		auth,
	)

	srv := httptest.NewServer(routing.SetupRouter(routing.Config{
		Handlers: h,
		Logger:   zerolog.Nop(),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, actor string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	if actor != "" {
		req.Header.Set("X-Actor", actor)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func createListing(t *testing.T, srv *httptest.Server, title string) market.Listing {
	t.Helper()
	resp := doRequest(t, srv, http.MethodPost, "/listings", sellerActor, map[string]any{
		"title":       title,
		"description": "Decent condition, price negotiable",
		"price":       50000,
		"category":    "electronics",
		"location":    "Mapo-gu",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[market.Listing](t, resp)
}

func TestHealthz(t *testing.T) {
	srv := setupServer(t)

	resp := doRequest(t, srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListingEndpoints(t *testing.T) {
	srv := setupServer(t)

	t.Run("create requires an actor", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodPost, "/listings", "", map[string]any{"title": "whatever"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("create validates input", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodPost, "/listings", sellerActor, map[string]any{
			"title":       "ab",
			"description": "Decent condition, price negotiable",
			"price":       50000,
			"category":    "electronics",
			"location":    "Mapo-gu",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	created := createListing(t, srv, "Bluetooth speaker")

	t.Run("get and list", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodGet, fmt.Sprintf("/listings/%d", created.ID), "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decode[market.Listing](t, resp)
		assert.Equal(t, "Bluetooth speaker", got.Title)

		resp = doRequest(t, srv, http.MethodGet, "/listings", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		listings := decode[[]market.Listing](t, resp)
		assert.Len(t, listings, 1)
	})

	t.Run("update is owner-only", func(t *testing.T) {
		body := map[string]any{
			"title":       "Bluetooth speaker v2",
			"description": "Decent condition, price negotiable",
			"price":       45000,
			"category":    "electronics",
			"location":    "Mapo-gu",
		}

		resp := doRequest(t, srv, http.MethodPut, fmt.Sprintf("/listings/%d", created.ID), "stranger@example.com", body)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = doRequest(t, srv, http.MethodPut, fmt.Sprintf("/listings/%d", created.ID), sellerActor, body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		updated := decode[market.Listing](t, resp)
		assert.Equal(t, int64(45000), updated.Price)
	})

	t.Run("sale status transitions", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodPost, fmt.Sprintf("/listings/%d/status", created.ID), sellerActor,
			map[string]any{"sale_status": "RESERVED"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		updated := decode[market.Listing](t, resp)
		assert.Equal(t, market.SaleReserved, updated.SaleStatus)

		resp = doRequest(t, srv, http.MethodPost, fmt.Sprintf("/listings/%d/status", created.ID), sellerActor,
			map[string]any{"sale_status": "IMAGINARY"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		doomed := createListing(t, srv, "Short-lived listing")

		resp := doRequest(t, srv, http.MethodDelete, fmt.Sprintf("/listings/%d", doomed.ID), sellerActor, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = doRequest(t, srv, http.MethodGet, fmt.Sprintf("/listings/%d", doomed.ID), "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAutoFilterOnCreate(t *testing.T) {
	srv := setupServer(t)

	resp := doRequest(t, srv, http.MethodPost, "/listings", sellerActor, map[string]any{
		"title":       "완전 싸게 팝니다 사기 아님",
		"description": "진짜 정품이고 직거래 가능합니다",
		"price":       10000,
		"category":    "electronics",
		"location":    "Mapo-gu",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[market.Listing](t, resp)
	assert.Equal(t, moderation.StatusBlinded, created.ModerationStatus)

	// Blinded listings disappear from the public list and detail views.
	listResp := doRequest(t, srv, http.MethodGet, "/listings", "", nil)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	assert.Empty(t, decode[[]market.Listing](t, listResp))

	getResp := doRequest(t, srv, http.MethodGet, fmt.Sprintf("/listings/%d", created.ID), buyerActor, nil)
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)

	// The auto action shows up in the admin log.
	autoResp := doRequest(t, srv, http.MethodGet, "/admin/logs/auto", adminActor, nil)
	require.Equal(t, http.StatusOK, autoResp.StatusCode)
	entries := decode[[]moderation.AuditEntry](t, autoResp)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Auto)
}

func TestModerationEndpoints(t *testing.T) {
	srv := setupServer(t)
	created := createListing(t, srv, "Perfectly fine listing")

	moderatePath := fmt.Sprintf("/admin/listings/%d/moderate", created.ID)

	t.Run("non-admin is rejected", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodPost, moderatePath, sellerActor,
			map[string]any{"action": "blind", "reason": "because"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("blank reason is rejected", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodPost, moderatePath, adminActor,
			map[string]any{"action": "blind", "reason": "  "})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown action is rejected", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodPost, moderatePath, adminActor,
			map[string]any{"action": "obliterate", "reason": "x"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown target is a 404", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodPost, "/admin/listings/99999/moderate", adminActor,
			map[string]any{"action": "blind", "reason": "spam"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("blind then restore", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodPost, moderatePath, adminActor,
			map[string]any{"action": "blind", "reason": "reported by users"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		entry := decode[moderation.AuditEntry](t, resp)
		assert.Equal(t, moderation.StatusBlinded, entry.Status)

		resp = doRequest(t, srv, http.MethodPost, moderatePath, adminActor,
			map[string]any{"action": "restore"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		entry = decode[moderation.AuditEntry](t, resp)
		assert.Equal(t, moderation.StatusVisible, entry.Status)
		assert.Equal(t, moderation.RestoreReason, entry.Reason)
	})

	t.Run("history is admin-only and newest first", func(t *testing.T) {
		historyPath := fmt.Sprintf("/admin/listings/%d/history", created.ID)

		resp := doRequest(t, srv, http.MethodGet, historyPath, sellerActor, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = doRequest(t, srv, http.MethodGet, historyPath, adminActor, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		entries := decode[[]moderation.AuditEntry](t, resp)
		require.Len(t, entries, 2)
		assert.Equal(t, moderation.StatusVisible, entries[0].Status)
	})

	t.Run("permanent delete removes the row but keeps the history", func(t *testing.T) {
		doomed := createListing(t, srv, "About to disappear")

		resp := doRequest(t, srv, http.MethodPost, fmt.Sprintf("/admin/listings/%d/moderate", doomed.ID), adminActor,
			map[string]any{"action": "permanent-delete", "reason": "illegal content"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = doRequest(t, srv, http.MethodGet, fmt.Sprintf("/listings/%d", doomed.ID), adminActor, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp = doRequest(t, srv, http.MethodGet, fmt.Sprintf("/admin/listings/%d/history", doomed.ID), adminActor, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		entries := decode[[]moderation.AuditEntry](t, resp)
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].Reason, moderation.PermanentDeletePrefix)
	})
}

func TestAdminLogEndpoints(t *testing.T) {
	srv := setupServer(t)
	created := createListing(t, srv, "Query fodder listing")

	resp := doRequest(t, srv, http.MethodPost, fmt.Sprintf("/admin/listings/%d/moderate", created.ID), adminActor,
		map[string]any{"action": "blind", "reason": "suspicious pricing"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("recent", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodGet, "/admin/logs/recent?days=7", adminActor, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decode[[]moderation.AuditEntry](t, resp), 1)

		resp = doRequest(t, srv, http.MethodGet, "/admin/logs/recent?days=0", adminActor, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("by moderator", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodGet, "/admin/logs/by-moderator?email="+adminActor, adminActor, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		entries := decode[[]moderation.AuditEntry](t, resp)
		require.Len(t, entries, 1)
		assert.Equal(t, adminActor, entries[0].Moderator)

		resp = doRequest(t, srv, http.MethodGet, "/admin/logs/by-moderator?email=nobody@example.com", adminActor, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, decode[[]moderation.AuditEntry](t, resp))
	})

	t.Run("by status", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodGet, "/admin/logs/by-status?status=BLINDED", adminActor, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decode[[]moderation.AuditEntry](t, resp), 1)

		resp = doRequest(t, srv, http.MethodGet, "/admin/logs/by-status?status=NONSENSE", adminActor, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("search", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodGet, "/admin/logs/search?q=suspicious", adminActor, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decode[[]moderation.AuditEntry](t, resp), 1)
	})

	t.Run("stats", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodGet, "/admin/stats", adminActor, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		stats := decode[map[string]any](t, resp)
		assert.Contains(t, stats, "by_status")
		assert.Contains(t, stats, "by_moderator")
		assert.Contains(t, stats, "last_24_hours")
	})

	t.Run("reads require admin", func(t *testing.T) {
		for _, path := range []string{
			"/admin/logs/recent",
			"/admin/logs/by-moderator?email=x@example.com",
			"/admin/logs/by-status?status=BLINDED",
			"/admin/logs/search?q=spam",
			"/admin/logs/auto",
			"/admin/stats",
		} {
			resp := doRequest(t, srv, http.MethodGet, path, sellerActor, nil)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode, path)
		}
	})
}

func TestWantedEndpoints(t *testing.T) {
	srv := setupServer(t)

	resp := doRequest(t, srv, http.MethodPost, "/wanted", buyerActor, map[string]any{
		"title":       "Wanted: ergonomic chair",
		"description": "Budget flexible for the right one",
		"max_price":   300000,
		"category":    "furniture",
		"location":    "Seocho-gu",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[market.WantedItem](t, resp)
	assert.Equal(t, market.WantedActive, created.WantedStatus)

	t.Run("admin can moderate wanted ads", func(t *testing.T) {
		resp := doRequest(t, srv, http.MethodPost, fmt.Sprintf("/admin/wanted/%d/moderate", created.ID), adminActor,
			map[string]any{"action": "blind", "reason": "scam pattern"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		entry := decode[moderation.AuditEntry](t, resp)
		assert.Equal(t, moderation.TargetWanted, entry.Target)

		getResp := doRequest(t, srv, http.MethodGet, fmt.Sprintf("/wanted/%d", created.ID), sellerActor, nil)
		assert.Equal(t, http.StatusNotFound, getResp.StatusCode)

		histResp := doRequest(t, srv, http.MethodGet, fmt.Sprintf("/admin/wanted/%d/history", created.ID), adminActor, nil)
		require.Equal(t, http.StatusOK, histResp.StatusCode)
		assert.Len(t, decode[[]moderation.AuditEntry](t, histResp), 1)
	})
}
