package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/cart"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/money"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/customers"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/orders"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/staff"
)

// mutationResponse — изменённая запись и перечитанный набор строк ресурса.
type mutationResponse[T any] struct {
	Item *T  `json:"item,omitempty"`
	Rows []T `json:"rows"`
}

type menuItemDTO struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	PriceDisplay string          `json:"price_display"`
	Category     string          `json:"category"`
	Available    bool            `json:"available"`
	ImageURL     string          `json:"image_url,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type menuItemRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Available   *bool           `json:"available"`
	ImageURL    string          `json:"image_url"`
}

func (r menuItemRequest) toDomain(id string) domain.MenuItem {
	available := true
	if r.Available != nil {
		available = *r.Available
	}
	return domain.MenuItem{
		ID:          id,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Category:    domain.MenuCategory(r.Category),
		Available:   available,
		ImageURL:    r.ImageURL,
	}
}

func toMenuItemDTO(m domain.MenuItem) menuItemDTO {
	return menuItemDTO{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		Price:        m.Price,
		PriceDisplay: money.FormatINR(m.Price),
		Category:     string(m.Category),
		Available:    m.Available,
		ImageURL:     m.ImageURL,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type orderLineDTO struct {
	ID         string          `json:"id"`
	MenuItemID string          `json:"menu_item_id"`
	ItemName   string          `json:"item_name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Amount     decimal.Decimal `json:"amount"`
}

type orderDTO struct {
	ID             string          `json:"id"`
	OrderNumber    string          `json:"order_number"`
	CustomerName   string          `json:"customer_name"`
	TableNumber    *int            `json:"table_number"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TotalDisplay   string          `json:"total_display"`
	Status         string          `json:"status"`
	OrderTime      time.Time       `json:"order_time"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Lines          []orderLineDTO  `json:"lines"`
	AllowedActions []string        `json:"allowed_actions"`
}

type timelineEventDTO struct {
	Type     string    `json:"type"`
	From     string    `json:"from,omitempty"`
	To       string    `json:"to,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurred"`
}

type orderDetailsDTO struct {
	orderDTO
	Timeline []timelineEventDTO `json:"timeline"`
}

func toOrderDTO(o domain.Order) orderDTO {
	lines := make([]orderLineDTO, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, orderLineDTO{
			ID:         l.ID,
			MenuItemID: l.MenuItemID,
			ItemName:   l.ItemName,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			Amount:     l.Amount(),
		})
	}
	return orderDTO{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		CustomerName:   o.CustomerName,
		TableNumber:    o.TableNumber,
		TotalAmount:    o.TotalAmount,
		TotalDisplay:   money.FormatINR(o.TotalAmount),
		Status:         string(o.Status),
		OrderTime:      o.OrderTime,
		UpdatedAt:      o.UpdatedAt,
		Lines:          lines,
		AllowedActions: allowedActions(o.Status),
	}
}

func toOrderDTOs(list []domain.Order) []orderDTO {
	out := make([]orderDTO, 0, len(list))
	for _, o := range list {
		out = append(out, toOrderDTO(o))
	}
	return out
}

func toOrderDetailsDTO(d orders.Details) orderDetailsDTO {
	timeline := make([]timelineEventDTO, 0, len(d.Timeline))
	for _, e := range d.Timeline {
		timeline = append(timeline, timelineEventDTO{
			Type:     e.Type,
			From:     string(e.From),
			To:       string(e.To),
			Reason:   e.Reason,
			Occurred: e.Occurred,
		})
	}
	return orderDetailsDTO{orderDTO: toOrderDTO(d.Order), Timeline: timeline}
}

// allowedActions — действия, доступные оператору в текущем статусе.
func allowedActions(status domain.OrderStatus) []string {
	actions := make([]string, 0, 2)
	if _, err := domain.Next(status); err == nil {
		actions = append(actions, "advance")
	}
	if domain.Transition(status, domain.OrderStatusCancelled) == nil {
		actions = append(actions, "cancel")
	}
	return actions
}

type cartLineRequest struct {
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
}

func toCartLines(req []cartLineRequest) []cart.Line {
	lines := make([]cart.Line, 0, len(req))
	for _, l := range req {
		lines = append(lines, cart.Line{
			ItemID:    l.MenuItemID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		})
	}
	return lines
}

type checkoutRequest struct {
	CustomerName string            `json:"customer_name"`
	TableNumber  *int              `json:"table_number"`
	Lines        []cartLineRequest `json:"lines"`
}

type quoteRequest struct {
	Lines []cartLineRequest `json:"lines"`
}

type quoteLineDTO struct {
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	Amount     decimal.Decimal `json:"amount"`
}

type totalsDTO struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
	SubtotalDisplay string          `json:"subtotal_display"`
	TaxDisplay      string          `json:"tax_display"`
	TotalDisplay    string          `json:"total_display"`
}

type quoteResponse struct {
	Lines  []quoteLineDTO `json:"lines"`
	Totals totalsDTO      `json:"totals"`
}

func toTotalsDTO(t cart.Totals) totalsDTO {
	return totalsDTO{
		Subtotal:        t.Subtotal,
		Tax:             t.Tax,
		Total:           t.Total,
		SubtotalDisplay: money.FormatINR(t.Subtotal),
		TaxDisplay:      money.FormatINR(t.Tax),
		TotalDisplay:    money.FormatINR(t.Total),
	}
}

type orderUpdateRequest struct {
	CustomerName string          `json:"customer_name"`
	TableNumber  *int            `json:"table_number"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type staffDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Contact   string    `json:"contact"`
	Shift     string    `json:"shift"`
	Status    string    `json:"status"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type staffRequest struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	Contact   string `json:"contact"`
	Shift     string `json:"shift"`
	Status    string `json:"status"`
	AvatarURL string `json:"avatar_url"`
}

func (r staffRequest) toDomain(id string) domain.Staff {
	return domain.Staff{
		ID:        id,
		Name:      r.Name,
		Role:      domain.StaffRole(r.Role),
		Contact:   r.Contact,
		Shift:     r.Shift,
		Status:    domain.StaffStatus(r.Status),
		AvatarURL: r.AvatarURL,
	}
}

func toStaffDTO(s domain.Staff) staffDTO {
	return staffDTO{
		ID:        s.ID,
		Name:      s.Name,
		Role:      string(s.Role),
		Contact:   s.Contact,
		Shift:     s.Shift,
		Status:    string(s.Status),
		AvatarURL: s.AvatarURL,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

type staffSummaryDTO struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Baristas int `json:"baristas"`
}

func toStaffSummaryDTO(s staff.Summary) staffSummaryDTO {
	return staffSummaryDTO(s)
}

type customerDTO struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	TotalOrders   int        `json:"total_orders"`
	LoyaltyPoints int        `json:"loyalty_points"`
	LastVisit     *time.Time `json:"last_visit"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type customerRequest struct {
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	TotalOrders   int        `json:"total_orders"`
	LoyaltyPoints int        `json:"loyalty_points"`
	LastVisit     *time.Time `json:"last_visit"`
	Status        string     `json:"status"`
}

func (r customerRequest) toDomain(id string) domain.Customer {
	return domain.Customer{
		ID:            id,
		Name:          r.Name,
		Email:         r.Email,
		Phone:         r.Phone,
		TotalOrders:   r.TotalOrders,
		LoyaltyPoints: r.LoyaltyPoints,
		LastVisit:     r.LastVisit,
		Status:        domain.CustomerStatus(r.Status),
	}
}

func toCustomerDTO(c domain.Customer) customerDTO {
	return customerDTO{
		ID:            c.ID,
		Name:          c.Name,
		Email:         c.Email,
		Phone:         c.Phone,
		TotalOrders:   c.TotalOrders,
		LoyaltyPoints: c.LoyaltyPoints,
		LastVisit:     c.LastVisit,
		Status:        string(c.Status),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

type customerSummaryDTO struct {
	Total              int `json:"total"`
	VIP                int `json:"vip"`
	New                int `json:"new"`
	AvgLoyaltyPoints   int `json:"avg_loyalty_points"`
	TotalLoyaltyPoints int `json:"total_loyalty_points"`
}

func toCustomerSummaryDTO(s customers.Summary) customerSummaryDTO {
	return customerSummaryDTO(s)
}

type notificationDTO struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func toNotificationDTO(n domain.Notification) notificationDTO {
	return notificationDTO{
		ID:        n.ID,
		Message:   n.Message,
		Type:      string(n.Type),
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

type notificationsResponse struct {
	Rows   []notificationDTO `json:"rows"`
	Unread int               `json:"unread"`
}

type dashboardDTO struct {
	TodaySales        decimal.Decimal `json:"today_sales"`
	TodaySalesDisplay string          `json:"today_sales_display"`
	TodayOrders       int             `json:"today_orders"`
	AvailableItems    int             `json:"available_items"`
	ActiveStaff       int             `json:"active_staff"`
	RecentOrders      []orderDTO      `json:"recent_orders"`
}

func toDashboardDTO(s domain.DashboardStats) dashboardDTO {
	return dashboardDTO{
		TodaySales:        s.TodaySales,
		TodaySalesDisplay: money.FormatINR(s.TodaySales),
		TodayOrders:       s.TodayOrders,
		AvailableItems:    s.AvailableItems,
		ActiveStaff:       s.ActiveStaff,
		RecentOrders:      toOrderDTOs(s.RecentOrders),
	}
}

func mapSlice[S, D any](in []S, conv func(S) D) []D {
	out := make([]D, 0, len(in))
	for _, v := range in {
		out = append(out, conv(v))
	}
	return out
}
