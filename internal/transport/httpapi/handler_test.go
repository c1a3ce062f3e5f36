package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/catalog"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/customers"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/dashboard"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/idempotency"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/notifications"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/orders"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/reports"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/staff"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/storage/memory"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/toast"
)

type testAPI struct {
	router        http.Handler
	orderRepo     *memory.OrderRepository
	notifications *notifications.Service
	toasts        *toast.Recorder
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	rec := &toast.Recorder{}
	menuRepo := memory.NewMenuRepository(
		domain.MenuItem{ID: "cappuccino", Name: "Cappuccino", Description: "Double shot", Price: decimal.RequireFromString("150.00"), Category: domain.MenuCategoryBeverage, Available: true},
		domain.MenuItem{ID: "brownie", Name: "Brownie", Price: decimal.RequireFromString("120.00"), Category: domain.MenuCategoryDessert, Available: true},
		domain.MenuItem{ID: "sandwich", Name: "Club Sandwich", Price: decimal.RequireFromString("220.00"), Category: domain.MenuCategoryFood, Available: false},
	)
	staffRepo := memory.NewStaffRepository(
		domain.Staff{ID: "s-1", Name: "Ravi", Role: domain.StaffRoleBarista, Contact: "+91 98200 00001", Status: domain.StaffStatusActive},
		domain.Staff{ID: "s-2", Name: "Kiran", Role: domain.StaffRoleChef, Contact: "+91 98200 00002", Status: domain.StaffStatusInactive},
	)
	customerRepo := memory.NewCustomerRepository(
		domain.Customer{ID: "c-1", Name: "Meera", Email: "meera@example.com", Status: domain.CustomerStatusVIP, LoyaltyPoints: 120},
		domain.Customer{ID: "c-2", Name: "Arjun", Email: "arjun@example.com", Status: domain.CustomerStatusNew, LoyaltyPoints: 20},
	)
	orderRepo := memory.NewOrderRepository()
	notificationRepo := memory.NewNotificationRepository()

	notificationSvc := notifications.NewService(notificationRepo, nil, rec, nil)
	svc := Services{
		Menu: catalog.NewService(menuRepo, nil, rec, nil),
		Orders: orders.NewService(orderRepo,
			orders.WithMenu(menuRepo),
			orders.WithTimeline(memory.NewTimelineRepository()),
			orders.WithOutbox(memory.NewOutboxRepository()),
			orders.WithNotifier(rec),
		),
		Staff:         staff.NewService(staffRepo, nil, rec, nil),
		Customers:     customers.NewService(customerRepo, nil, rec, nil),
		Notifications: notificationSvc,
		Dashboard:     dashboard.NewService(orderRepo, menuRepo, staffRepo, nil, rec, nil),
		Reports:       reports.NewBuilder(orderRepo, menuRepo, staffRepo, customerRepo, time.UTC, nil),
		Idempotency:   idempotency.NewExecutor(memory.NewIdempotencyRepository()),
	}
	return &testAPI{
		router:        NewRouter(NewHandler(svc, nil), time.Second),
		orderRepo:     orderRepo,
		notifications: notificationSvc,
		toasts:        rec,
	}
}

func (a *testAPI) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

const checkoutBody = `{"customer_name":"Asha","table_number":4,"lines":[
	{"menu_item_id":"cappuccino","name":"Cappuccino","unit_price":"150.00","quantity":2},
	{"menu_item_id":"brownie","name":"Brownie","unit_price":"120.00","quantity":1}]}`

func (a *testAPI) checkout(t *testing.T) orderDTO {
	t.Helper()
	rr := a.do(t, http.MethodPost, "/api/orders", checkoutBody)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	resp := decodeJSON[mutationResponse[orderDTO]](t, rr)
	require.NotNil(t, resp.Item)
	return *resp.Item
}

func TestMenuFiltersAndCRUD(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodGet, "/api/menu?category=Dessert", "")
	require.Equal(t, http.StatusOK, rr.Code)
	items := decodeJSON[[]menuItemDTO](t, rr)
	require.Len(t, items, 1)
	require.Equal(t, "brownie", items[0].ID)

	rr = api.do(t, http.MethodGet, "/api/menu?search=double", "")
	items = decodeJSON[[]menuItemDTO](t, rr)
	require.Len(t, items, 1)
	require.Equal(t, "cappuccino", items[0].ID)

	rr = api.do(t, http.MethodPost, "/api/menu", `{"name":" Masala Chai ","price":"60","category":"Beverage"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decodeJSON[mutationResponse[menuItemDTO]](t, rr)
	require.NotNil(t, created.Item)
	require.Equal(t, "Masala Chai", created.Item.Name)
	require.True(t, created.Item.Available)
	require.Len(t, created.Rows, 4)

	rr = api.do(t, http.MethodPut, "/api/menu/"+created.Item.ID, `{"name":"Masala Chai","price":"70","category":"Beverage","available":false}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decodeJSON[mutationResponse[menuItemDTO]](t, rr)
	require.True(t, decimal.RequireFromString("70").Equal(updated.Item.Price))
	require.False(t, updated.Item.Available)

	rr = api.do(t, http.MethodDelete, "/api/menu/"+created.Item.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, decodeJSON[mutationResponse[menuItemDTO]](t, rr).Rows, 3)

	rr = api.do(t, http.MethodDelete, "/api/menu/missing", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMenuValidationErrors(t *testing.T) {
	api := newTestAPI(t)

	cases := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "malformed json", body: `{"name":`},
		{name: "negative price", body: `{"name":"Tea","price":"-1","category":"Beverage"}`},
		{name: "missing name", body: `{"name":"  ","price":"10","category":"Beverage"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := api.do(t, http.MethodPost, "/api/menu", tc.body)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			require.NotEmpty(t, decodeJSON[errorResponse](t, rr).Error)
		})
	}
}

func TestCreateOrderComputesTotalsOnServer(t *testing.T) {
	api := newTestAPI(t)

	order := api.checkout(t)
	require.Equal(t, "ORD-000001", order.OrderNumber)
	require.Equal(t, string(domain.OrderStatusPending), order.Status)
	// 2*150 + 120 = 420, плюс 5% налога.
	require.True(t, decimal.RequireFromString("441.00").Equal(order.TotalAmount), order.TotalAmount.String())
	require.Len(t, order.Lines, 2)
	require.ElementsMatch(t, []string{"advance", "cancel"}, order.AllowedActions)

	rr := api.do(t, http.MethodGet, "/api/orders/"+order.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	details := decodeJSON[orderDetailsDTO](t, rr)
	require.Equal(t, order.ID, details.ID)
	require.NotEmpty(t, details.Timeline)
	require.Equal(t, domain.TimelineOrderCreated, details.Timeline[0].Type)
}

func TestCreateOrderValidation(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodPost, "/api/orders", `{"customer_name":"","lines":[{"menu_item_id":"cappuccino","unit_price":"150","quantity":1}]}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "customer_name", decodeJSON[errorResponse](t, rr).Field)

	rr = api.do(t, http.MethodPost, "/api/orders", `{"customer_name":"Asha","lines":[{"menu_item_id":"cappuccino","unit_price":"150","quantity":0}]}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "lines[0].quantity", decodeJSON[errorResponse](t, rr).Field)

	list, err := api.orderRepo.List(context.Background(), domain.OrderFilter{})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestCreateOrderIdempotencyReplay(t *testing.T) {
	api := newTestAPI(t)

	first := api.do(t, http.MethodPost, "/api/orders", checkoutBody, HeaderIdempotencyKey, "checkout-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	require.Empty(t, first.Header().Get(HeaderIdempotencyReplayed))

	second := api.do(t, http.MethodPost, "/api/orders", checkoutBody, HeaderIdempotencyKey, "checkout-1")
	require.Equal(t, http.StatusCreated, second.Code)
	require.Equal(t, "true", second.Header().Get(HeaderIdempotencyReplayed))
	require.True(t, bytes.Equal(first.Body.Bytes(), second.Body.Bytes()))

	list, err := api.orderRepo.List(context.Background(), domain.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	mismatch := api.do(t, http.MethodPost, "/api/orders", strings.Replace(checkoutBody, "Asha", "Vikram", 1), HeaderIdempotencyKey, "checkout-1")
	require.Equal(t, http.StatusUnprocessableEntity, mismatch.Code)
}

func TestCreateOrderIdempotencyReplaysFailure(t *testing.T) {
	api := newTestAPI(t)
	body := `{"customer_name":"","lines":[{"menu_item_id":"cappuccino","unit_price":"150","quantity":1}]}`

	first := api.do(t, http.MethodPost, "/api/orders", body, HeaderIdempotencyKey, "bad-1")
	require.Equal(t, http.StatusBadRequest, first.Code)

	second := api.do(t, http.MethodPost, "/api/orders", body, HeaderIdempotencyKey, "bad-1")
	require.Equal(t, http.StatusBadRequest, second.Code)
	require.Equal(t, "true", second.Header().Get(HeaderIdempotencyReplayed))
	require.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestOrderLifecycle(t *testing.T) {
	api := newTestAPI(t)
	order := api.checkout(t)

	for _, want := range []domain.OrderStatus{domain.OrderStatusPreparing, domain.OrderStatusCompleted} {
		rr := api.do(t, http.MethodPost, "/api/orders/"+order.ID+"/advance", "")
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		require.Equal(t, string(want), decodeJSON[mutationResponse[orderDTO]](t, rr).Item.Status)
	}

	rr := api.do(t, http.MethodPost, "/api/orders/"+order.ID+"/advance", "")
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = api.do(t, http.MethodPost, "/api/orders/"+order.ID+"/cancel", "")
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = api.do(t, http.MethodPost, "/api/orders/missing/advance", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestOrderCancelUpdateAndDelete(t *testing.T) {
	api := newTestAPI(t)
	order := api.checkout(t)

	rr := api.do(t, http.MethodPut, "/api/orders/"+order.ID, `{"customer_name":"Asha K","table_number":7,"total_amount":"400"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decodeJSON[mutationResponse[orderDTO]](t, rr).Item
	require.Equal(t, "Asha K", updated.CustomerName)
	require.Equal(t, 7, *updated.TableNumber)

	rr = api.do(t, http.MethodPut, "/api/orders/"+order.ID+"/status", `{"status":"unknown"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = api.do(t, http.MethodPost, "/api/orders/"+order.ID+"/cancel", "")
	require.Equal(t, http.StatusOK, rr.Code)
	cancelled := decodeJSON[mutationResponse[orderDTO]](t, rr).Item
	require.Equal(t, string(domain.OrderStatusCancelled), cancelled.Status)
	require.Empty(t, cancelled.AllowedActions)

	rr = api.do(t, http.MethodGet, "/api/orders?status=cancelled", "")
	require.Len(t, decodeJSON[[]orderDTO](t, rr), 1)
	rr = api.do(t, http.MethodGet, "/api/orders?status=pending", "")
	require.Empty(t, decodeJSON[[]orderDTO](t, rr))

	rr = api.do(t, http.MethodDelete, "/api/orders/"+order.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Empty(t, decodeJSON[mutationResponse[orderDTO]](t, rr).Rows)

	rr = api.do(t, http.MethodGet, "/api/orders/"+order.ID, "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestQuoteCartMergesLines(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodPost, "/api/cart/quote", `{"lines":[
		{"menu_item_id":"cappuccino","name":"Cappuccino","unit_price":"150","quantity":1},
		{"menu_item_id":"cappuccino","name":"Cappuccino","unit_price":"150","quantity":1},
		{"menu_item_id":"brownie","name":"Brownie","unit_price":"120","quantity":0}]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	quote := decodeJSON[quoteResponse](t, rr)
	require.Len(t, quote.Lines, 1)
	require.Equal(t, 2, quote.Lines[0].Quantity)
	require.True(t, decimal.RequireFromString("300").Equal(quote.Totals.Subtotal))
	require.True(t, decimal.RequireFromString("15").Equal(quote.Totals.Tax))
	require.True(t, decimal.RequireFromString("315").Equal(quote.Totals.Total))

	rr = api.do(t, http.MethodPost, "/api/cart/quote", `{"lines":[{"menu_item_id":"x","unit_price":"-5","quantity":1}]}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStaffAndCustomerSummaries(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodPost, "/api/staff", `{"name":"Priya","role":"Barista","contact":"+91 98200 00003","status":"active"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.Len(t, decodeJSON[mutationResponse[staffDTO]](t, rr).Rows, 3)

	rr = api.do(t, http.MethodGet, "/api/staff/summary", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, staffSummaryDTO{Total: 3, Active: 2, Inactive: 1, Baristas: 2}, decodeJSON[staffSummaryDTO](t, rr))

	rr = api.do(t, http.MethodDelete, "/api/staff/missing", "")
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = api.do(t, http.MethodGet, "/api/customers/summary", "")
	require.Equal(t, http.StatusOK, rr.Code)
	summary := decodeJSON[customerSummaryDTO](t, rr)
	require.Equal(t, 2, summary.Total)
	require.Equal(t, 1, summary.VIP)
	require.Equal(t, 1, summary.New)
	require.Equal(t, 140, summary.TotalLoyaltyPoints)
	require.Equal(t, 70, summary.AvgLoyaltyPoints)

	rr = api.do(t, http.MethodPut, "/api/customers/c-2", `{"name":"Arjun","email":"not-an-email","status":"new"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = api.do(t, http.MethodGet, "/api/customers?search=meera", "")
	require.Len(t, decodeJSON[[]customerDTO](t, rr), 1)
}

func TestNotificationsMarkAsRead(t *testing.T) {
	api := newTestAPI(t)
	created, err := api.notifications.Create(context.Background(), domain.Notification{Message: "Order ORD-000001 is ready", Type: domain.NotificationInfo})
	require.NoError(t, err)

	rr := api.do(t, http.MethodGet, "/api/notifications", "")
	require.Equal(t, http.StatusOK, rr.Code)
	feed := decodeJSON[notificationsResponse](t, rr)
	require.Len(t, feed.Rows, 1)
	require.Equal(t, 1, feed.Unread)

	rr = api.do(t, http.MethodPost, "/api/notifications/"+created.ID+"/read", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	feed = decodeJSON[notificationsResponse](t, rr)
	require.True(t, feed.Rows[0].IsRead)
	require.Zero(t, feed.Unread)

	rr = api.do(t, http.MethodPost, "/api/notifications/missing/read", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDashboardCountsToday(t *testing.T) {
	api := newTestAPI(t)
	created := api.checkout(t)

	rr := api.do(t, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	stats := decodeJSON[dashboardDTO](t, rr)
	require.Equal(t, 1, stats.TodayOrders)
	require.True(t, decimal.RequireFromString("441").Equal(stats.TodaySales))
	require.Equal(t, 2, stats.AvailableItems)
	require.Equal(t, 1, stats.ActiveStaff)
	require.Len(t, stats.RecentOrders, 1)
	require.Equal(t, created.ID, stats.RecentOrders[0].ID)
}

func TestReportAndExport(t *testing.T) {
	api := newTestAPI(t)
	api.checkout(t)

	rr := api.do(t, http.MethodGet, "/api/reports", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	report := decodeJSON[reportDTO](t, rr)
	require.Equal(t, 1, report.Sales.OrderCount)
	require.Equal(t, 3, report.MenuItems)
	require.Equal(t, 2, report.StaffMembers)
	require.Equal(t, 2, report.CustomerCount)

	rr = api.do(t, http.MethodGet, "/api/reports/export?type=sales", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	require.Contains(t, rr.Header().Get("Content-Disposition"), "attachment; filename=\"cafe-report-")
	require.Contains(t, rr.Header().Get("Content-Disposition"), ".csv\"")
	require.NotZero(t, rr.Body.Len())

	rr = api.do(t, http.MethodGet, "/api/reports/export?format=pdf", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	require.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF")))

	for _, path := range []string{
		"/api/reports?from=14-10-2026",
		"/api/reports/export?format=xlsx",
		"/api/reports/export?type=payroll",
	} {
		rr = api.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusBadRequest, rr.Code, path)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{err: nil, want: http.StatusOK},
		{err: domain.NewValidationError("name", domain.ErrCustomerNameRequired), want: http.StatusBadRequest},
		{err: domain.ErrOrderNotFound, want: http.StatusNotFound},
		{err: domain.ErrInvalidTransition, want: http.StatusConflict},
		{err: domain.ErrIdempotencyKeyInProgress, want: http.StatusConflict},
		{err: domain.ErrIdempotencyHashMismatch, want: http.StatusUnprocessableEntity},
		{err: domain.NewRemoteError("list", context.DeadlineExceeded), want: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, StatusFor(tc.err), "%v", tc.err)
	}

	status, body := errorBody(domain.NewRemoteError("list", context.DeadlineExceeded))
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, "internal server error", body.Error)
}
