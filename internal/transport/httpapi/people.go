package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListStaff — GET /api/staff?search=.
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Staff.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toStaffDTO))
}

// CreateStaff — POST /api/staff.
func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var req staffRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	created, err := h.svc.Staff.Create(r.Context(), req.toDomain(""))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	item := toStaffDTO(created)
	writeJSON(w, http.StatusCreated, mutationResponse[staffDTO]{
		Item: &item,
		Rows: mapSlice(h.svc.Staff.Hook().Rows(), toStaffDTO),
	})
}

// UpdateStaff — PUT /api/staff/{id}.
func (h *Handler) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	var req staffRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	updated, err := h.svc.Staff.Update(r.Context(), req.toDomain(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	item := toStaffDTO(updated)
	writeJSON(w, http.StatusOK, mutationResponse[staffDTO]{
		Item: &item,
		Rows: mapSlice(h.svc.Staff.Hook().Rows(), toStaffDTO),
	})
}

// DeleteStaff — DELETE /api/staff/{id}.
func (h *Handler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Staff.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse[staffDTO]{Rows: mapSlice(h.svc.Staff.Hook().Rows(), toStaffDTO)})
}

// StaffSummary — GET /api/staff/summary.
func (h *Handler) StaffSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Staff.Summary(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStaffSummaryDTO(sum))
}

// ListCustomers — GET /api/customers?search=.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Customers.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toCustomerDTO))
}

// UpdateCustomer — PUT /api/customers/{id}.
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	updated, err := h.svc.Customers.Update(r.Context(), req.toDomain(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	item := toCustomerDTO(updated)
	writeJSON(w, http.StatusOK, mutationResponse[customerDTO]{
		Item: &item,
		Rows: mapSlice(h.svc.Customers.Hook().Rows(), toCustomerDTO),
	})
}

// CustomerSummary — GET /api/customers/summary.
func (h *Handler) CustomerSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Customers.Summary(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerSummaryDTO(sum))
}

// ListNotifications — GET /api/notifications: последние уведомления и число непрочитанных.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Notifications.Latest(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notificationsResponse{
		Rows:   mapSlice(list, toNotificationDTO),
		Unread: h.svc.Notifications.UnreadCount(),
	})
}

// MarkNotificationRead — POST /api/notifications/{id}/read.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Notifications.MarkAsRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notificationsResponse{
		Rows:   mapSlice(h.svc.Notifications.Hook().Rows(), toNotificationDTO),
		Unread: h.svc.Notifications.UnreadCount(),
	})
}

// Dashboard — GET /api/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Dashboard.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardDTO(stats))
}
