package app

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

func demoMenu() []domain.MenuItem {
	item := func(id, name, desc, price string, category domain.MenuCategory) domain.MenuItem {
		return domain.MenuItem{
			ID:          id,
			Name:        name,
			Description: desc,
			Price:       decimal.RequireFromString(price),
			Category:    category,
			Available:   true,
		}
	}
	return []domain.MenuItem{
		item("cappuccino", "Cappuccino", "Espresso with steamed milk foam", "150.00", domain.MenuCategoryBeverage),
		item("masala-chai", "Masala Chai", "Spiced milk tea", "60.00", domain.MenuCategoryBeverage),
		item("cold-brew", "Cold Brew", "Slow steeped for 18 hours", "180.00", domain.MenuCategoryBeverage),
		item("paneer-wrap", "Paneer Tikka Wrap", "Grilled paneer, mint chutney", "220.00", domain.MenuCategoryFood),
		item("club-sandwich", "Club Sandwich", "Triple-decker with fries", "240.00", domain.MenuCategoryFood),
		item("brownie", "Walnut Brownie", "Served warm", "120.00", domain.MenuCategoryDessert),
	}
}

func demoStaff() []domain.Staff {
	return []domain.Staff{
		{ID: "staff-ravi", Name: "Ravi Kumar", Role: domain.StaffRoleManager, Contact: "+91 98200 11111", Shift: "Morning", Status: domain.StaffStatusActive},
		{ID: "staff-asha", Name: "Asha Nair", Role: domain.StaffRoleBarista, Contact: "+91 98200 22222", Shift: "Morning", Status: domain.StaffStatusActive},
		{ID: "staff-imran", Name: "Imran Shaikh", Role: domain.StaffRoleChef, Contact: "+91 98200 33333", Shift: "Evening", Status: domain.StaffStatusActive},
		{ID: "staff-neha", Name: "Neha Joshi", Role: domain.StaffRoleServer, Contact: "+91 98200 44444", Shift: "Evening", Status: domain.StaffStatusInactive},
	}
}

func demoCustomers() []domain.Customer {
	lastVisit := time.Now().UTC().Add(-48 * time.Hour)
	return []domain.Customer{
		{ID: "cust-meera", Name: "Meera Iyer", Email: "meera@example.com", Phone: "+91 90000 00001", TotalOrders: 42, LoyaltyPoints: 420, LastVisit: &lastVisit, Status: domain.CustomerStatusVIP},
		{ID: "cust-arjun", Name: "Arjun Mehta", Email: "arjun@example.com", Phone: "+91 90000 00002", TotalOrders: 7, LoyaltyPoints: 70, LastVisit: &lastVisit, Status: domain.CustomerStatusRegular},
		{ID: "cust-zoya", Name: "Zoya Khan", Email: "zoya@example.com", Phone: "+91 90000 00003", Status: domain.CustomerStatusNew},
	}
}
