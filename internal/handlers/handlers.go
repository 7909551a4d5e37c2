// Package handlers contains the HTTP handlers for the marketplace and the
// admin moderation API. Responses are JSON throughout.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"maru/internal/market"
	"maru/internal/middleware"
	"maru/internal/moderation"
)

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	listings      *market.ListingService
	wanted        *market.WantedService
	listingEngine *moderation.Engine
	wantedEngine  *moderation.Engine
	audit         moderation.AuditStore
	auth          moderation.Authorizer
}

// NewHandler creates a new Handler with the given services.
func NewHandler(
	listings *market.ListingService,
	wanted *market.WantedService,
	listingEngine *moderation.Engine,
	wantedEngine *moderation.Engine,
	audit moderation.AuditStore,
	auth moderation.Authorizer,
) *Handler {
	return &Handler{
		listings:      listings,
		wanted:        wanted,
		listingEngine: listingEngine,
		wantedEngine:  wantedEngine,
		audit:         audit,
		auth:          auth,
	}
}

// HandleHealthz handles GET /healthz.
func (h *Handler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP status codes. Unexpected errors
// get a generic 500 body so internals don't leak.
func writeError(w http.ResponseWriter, err error) {
	var verr *moderation.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error()})
	case errors.Is(err, moderation.ErrNotFound), errors.Is(err, market.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, moderation.ErrUnauthorized), errors.Is(err, market.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "access denied"})
	case errors.Is(err, market.ErrNotVisible):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "item is not publicly visible"})
	default:
		log.Error().Err(err).Msg("Request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &moderation.ValidationError{Field: "id", Message: "must be a positive integer"}
	}
	return id, nil
}

// requireActor returns the caller's identity or writes a 401.
func requireActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor := middleware.ActorFromContext(r.Context())
	if actor == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return "", false
	}
	return actor, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}
