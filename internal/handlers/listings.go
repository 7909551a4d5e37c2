package handlers

import (
	"net/http"

	"maru/internal/market"
	"maru/internal/middleware"
)

// listingRequest is the request body for creating or updating a listing.
type listingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	ImageURL    string `json:"image_url"`
}

// HandleListingCreate handles POST /listings.
func (h *Handler) HandleListingCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req listingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := h.listings.Create(r.Context(), &market.Listing{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
		SellerEmail: actor,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// HandleListingList handles GET /listings. Only publicly visible listings
// are returned.
func (h *Handler) HandleListingList(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

// HandleListingGet handles GET /listings/{id}.
func (h *Handler) HandleListingGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	viewer := middleware.ActorFromContext(r.Context())
	listing, err := h.listings.Get(r.Context(), id, viewer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// HandleListingUpdate handles PUT /listings/{id}.
func (h *Handler) HandleListingUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req listingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.listings.Update(r.Context(), id, &market.Listing{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
	}, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleListingDelete handles DELETE /listings/{id}.
func (h *Handler) HandleListingDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.listings.Delete(r.Context(), id, actor); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// saleStatusRequest is the request body for changing a listing's sale status.
type saleStatusRequest struct {
	SaleStatus string `json:"sale_status"`
}

// HandleListingStatus handles POST /listings/{id}/status.
func (h *Handler) HandleListingStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req saleStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.listings.ChangeSaleStatus(r.Context(), id, market.SaleStatus(req.SaleStatus), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
