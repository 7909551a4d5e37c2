package handlers

import (
	"net/http"

	"maru/internal/market"
	"maru/internal/middleware"
)

// wantedRequest is the request body for creating or updating a wanted ad.
type wantedRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	MaxPrice    int64  `json:"max_price"`
	Category    string `json:"category"`
	Location    string `json:"location"`
}

// HandleWantedCreate handles POST /wanted.
func (h *Handler) HandleWantedCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req wantedRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := h.wanted.Create(r.Context(), &market.WantedItem{
		Title:       req.Title,
		Description: req.Description,
		MaxPrice:    req.MaxPrice,
		Category:    req.Category,
		Location:    req.Location,
		BuyerEmail:  actor,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// HandleWantedList handles GET /wanted.
func (h *Handler) HandleWantedList(w http.ResponseWriter, r *http.Request) {
	items, err := h.wanted.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleWantedGet handles GET /wanted/{id}.
func (h *Handler) HandleWantedGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	viewer := middleware.ActorFromContext(r.Context())
	item, err := h.wanted.Get(r.Context(), id, viewer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// HandleWantedUpdate handles PUT /wanted/{id}.
func (h *Handler) HandleWantedUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req wantedRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.wanted.Update(r.Context(), id, &market.WantedItem{
		Title:       req.Title,
		Description: req.Description,
		MaxPrice:    req.MaxPrice,
		Category:    req.Category,
		Location:    req.Location,
	}, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleWantedDelete handles DELETE /wanted/{id}.
func (h *Handler) HandleWantedDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.wanted.Delete(r.Context(), id, actor); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
