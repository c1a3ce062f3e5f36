package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/cart"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/idempotency"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/orders"
)

const createOrderScope = "POST /api/orders"

// ListOrders — GET /api/orders?status=.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Orders.List(r.Context(), domain.OrderStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTOs(list))
}

// GetOrder — GET /api/orders/{id}: заказ с лентой событий.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	details, err := h.svc.Orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDetailsDTO(details))
}

// CreateOrder — POST /api/orders. Итоги считаются корзиной на сервере.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req checkoutRequest
	if err := unmarshalBody(body, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	run := func(ctx context.Context) (idempotency.Response, error) {
		lines := toCartLines(req.Lines)
		order, err := h.svc.Orders.CreateOrder(ctx, orders.CreateOrderInput{
			CustomerName: req.CustomerName,
			TableNumber:  req.TableNumber,
			Lines:        lines,
			Total:        cart.ComputeTotals(lines).Total,
		})
		if err != nil {
			return idempotency.Response{}, err
		}
		item := toOrderDTO(order)
		payload, err := json.Marshal(mutationResponse[orderDTO]{
			Item: &item,
			Rows: toOrderDTOs(h.svc.Orders.Hook().Rows()),
		})
		if err != nil {
			return idempotency.Response{}, err
		}
		return idempotency.Response{Body: payload, StatusCode: http.StatusCreated}, nil
	}

	outcome, err := h.svc.Idempotency.Execute(r.Context(), createOrderScope, r.Header.Get(HeaderIdempotencyKey), body, run, encodeFailure)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if outcome.Replayed {
		w.Header().Set(HeaderIdempotencyReplayed, "true")
	}
	writeRaw(w, outcome.StatusCode, outcome.Body)
}

func encodeFailure(err error) idempotency.Response {
	status, body := errorBody(err)
	payload, _ := json.Marshal(body)
	return idempotency.Response{Body: payload, StatusCode: status}
}

// UpdateOrder — PUT /api/orders/{id}: имя клиента, стол и сумма.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderUpdateRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	updated, err := h.svc.Orders.UpdateOrder(r.Context(), chi.URLParam(r, "id"), domain.OrderHeaderPatch{
		CustomerName: req.CustomerName,
		TableNumber:  req.TableNumber,
		TotalAmount:  req.TotalAmount,
	})
	h.writeOrderMutation(w, r, updated, err)
}

// DeleteOrder — DELETE /api/orders/{id}.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Orders.DeleteOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse[orderDTO]{Rows: toOrderDTOs(h.svc.Orders.Hook().Rows())})
}

// AdvanceOrder — POST /api/orders/{id}/advance.
func (h *Handler) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	updated, err := h.svc.Orders.Advance(r.Context(), chi.URLParam(r, "id"))
	h.writeOrderMutation(w, r, updated, err)
}

// CancelOrder — POST /api/orders/{id}/cancel.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	updated, err := h.svc.Orders.Cancel(r.Context(), chi.URLParam(r, "id"))
	h.writeOrderMutation(w, r, updated, err)
}

// UpdateOrderStatus — PUT /api/orders/{id}/status.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	updated, err := h.svc.Orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), domain.OrderStatus(req.Status))
	h.writeOrderMutation(w, r, updated, err)
}

func (h *Handler) writeOrderMutation(w http.ResponseWriter, r *http.Request, order domain.Order, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	item := toOrderDTO(order)
	writeJSON(w, http.StatusOK, mutationResponse[orderDTO]{
		Item: &item,
		Rows: toOrderDTOs(h.svc.Orders.Hook().Rows()),
	})
}

// QuoteCart — POST /api/cart/quote: итоги без сохранения.
func (h *Handler) QuoteCart(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	for _, l := range req.Lines {
		if l.UnitPrice.IsNegative() {
			h.fail(w, r, domain.NewValidationError("unit_price", domain.ErrPriceNegative))
			return
		}
	}

	c := cart.FromLines(toCartLines(req.Lines))
	lines := c.Lines()
	resp := quoteResponse{Lines: make([]quoteLineDTO, 0, len(lines)), Totals: toTotalsDTO(c.ComputeTotals())}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, quoteLineDTO{
			MenuItemID: l.ItemID,
			Name:       l.Name,
			UnitPrice:  l.UnitPrice,
			Quantity:   l.Quantity,
			Amount:     l.Amount(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
