package reports

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/money"
)

const notAvailable = "N/A"

type section struct {
	title  string
	header []string
	rows   [][]string
}

// sections раскладывает снимок на таблицы; CSV и PDF печатают одно и то же.
func sections(s Snapshot, kind Kind) []section {
	var out []section
	if kind.includes(KindSales) {
		out = append(out, section{
			title:  "Sales Summary",
			header: []string{"Metric", "Value"},
			rows: [][]string{
				{"Daily Average", money.FormatINR(s.Sales.DailyAverage)},
				{"Weekly Total", money.FormatINR(s.Sales.WeeklyTotal)},
				{"Monthly Total", money.FormatINR(s.Sales.TotalRevenue)},
				{"Total Orders", strconv.Itoa(s.Sales.OrderCount)},
			},
		})
		if len(s.Sales.TopItems) > 0 {
			top := section{title: "Best Selling Items", header: []string{"Item Name", "Sold"}}
			for _, item := range s.Sales.TopItems {
				top.rows = append(top.rows, []string{item.Name, strconv.Itoa(item.Quantity)})
			}
			out = append(out, top)
		}
	}
	if kind.includes(KindMenu) {
		menu := section{title: "Menu Items", header: []string{"Item Name", "Category", "Price", "Available"}}
		for _, item := range s.Menu {
			menu.rows = append(menu.rows, []string{item.Name, string(item.Category), money.FormatINR(item.Price), yesNo(item.Available)})
		}
		out = append(out, menu)
	}
	if kind.includes(KindStaff) {
		staff := section{title: "Staff Report", header: []string{"Name", "Role", "Contact", "Status"}}
		for _, m := range s.Staff {
			staff.rows = append(staff.rows, []string{m.Name, string(m.Role), orNA(m.Contact), string(m.Status)})
		}
		out = append(out, staff)
	}
	if kind.includes(KindCustomers) {
		customers := section{title: "Customer Report", header: []string{"Name", "Email", "Phone", "Total Orders", "Loyalty Points"}}
		for _, c := range s.Customers {
			customers.rows = append(customers.rows, []string{
				c.Name, orNA(c.Email), orNA(c.Phone),
				strconv.Itoa(c.TotalOrders), strconv.Itoa(c.LoyaltyPoints),
			})
		}
		out = append(out, customers)
	}
	return out
}

// ExportCSV пишет отчёт в CSV: заголовок секции, строка колонок, данные и пустая строка.
func ExportCSV(w io.Writer, s Snapshot, kind Kind) error {
	cw := csv.NewWriter(w)
	for _, sec := range sections(s, kind) {
		if err := cw.Write([]string{sec.title}); err != nil {
			return err
		}
		if err := cw.Write(sec.header); err != nil {
			return err
		}
		if err := cw.WriteAll(sec.rows); err != nil {
			return err
		}
		if err := cw.Write([]string{}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func orNA(v string) string {
	if v == "" {
		return notAvailable
	}
	return v
}
