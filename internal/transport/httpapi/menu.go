package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListMenu — GET /api/menu?search=&category=.
func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.svc.Menu.List(r.Context(), q.Get("search"), q.Get("category"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(items, toMenuItemDTO))
}

// CreateMenuItem — POST /api/menu.
func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	created, err := h.svc.Menu.Create(r.Context(), req.toDomain(""))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	item := toMenuItemDTO(created)
	writeJSON(w, http.StatusCreated, mutationResponse[menuItemDTO]{
		Item: &item,
		Rows: mapSlice(h.svc.Menu.Hook().Rows(), toMenuItemDTO),
	})
}

// UpdateMenuItem — PUT /api/menu/{id}.
func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	updated, err := h.svc.Menu.Update(r.Context(), req.toDomain(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	item := toMenuItemDTO(updated)
	writeJSON(w, http.StatusOK, mutationResponse[menuItemDTO]{
		Item: &item,
		Rows: mapSlice(h.svc.Menu.Hook().Rows(), toMenuItemDTO),
	})
}

// DeleteMenuItem — DELETE /api/menu/{id}.
func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Menu.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse[menuItemDTO]{
		Rows: mapSlice(h.svc.Menu.Hook().Rows(), toMenuItemDTO),
	})
}
