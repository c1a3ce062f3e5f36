package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/money"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/reports"
)

const dateLayout = "2006-01-02"

type reportDTO struct {
	GeneratedAt   time.Time            `json:"generated_at"`
	From          string               `json:"from,omitempty"`
	To            string               `json:"to,omitempty"`
	Sales         reports.SalesMetrics `json:"sales"`
	RevenueText   string               `json:"total_revenue_display"`
	MenuItems     int                  `json:"menu_items"`
	StaffMembers  int                  `json:"staff_members"`
	CustomerCount int                  `json:"customers"`
}

func (h *Handler) parseRange(r *http.Request) (reports.Range, error) {
	var rng reports.Range
	loc := h.svc.Reports.Location()
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &rng.From}, {"to", &rng.To}} {
		raw := strings.TrimSpace(r.URL.Query().Get(p.name))
		if raw == "" {
			continue
		}
		t, err := time.ParseInLocation(dateLayout, raw, loc)
		if err != nil {
			return reports.Range{}, badRequest(p.name, "date must be in YYYY-MM-DD format")
		}
		*p.dst = t
	}
	return rng, nil
}

// Report — GET /api/reports?from=&to=: показатели продаж за период.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	rng, err := h.parseRange(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	snap, err := h.svc.Reports.Snapshot(r.Context(), rng)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reportDTO{
		GeneratedAt:   snap.GeneratedAt,
		From:          formatDate(rng.From),
		To:            formatDate(rng.To),
		Sales:         snap.Sales,
		RevenueText:   money.FormatINR(snap.Sales.TotalRevenue),
		MenuItems:     len(snap.Menu),
		StaffMembers:  len(snap.Staff),
		CustomerCount: len(snap.Customers),
	})
}

// ExportReport — GET /api/reports/export?format=csv|pdf&type=&from=&to=: файл отчёта.
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	kind, err := reports.ParseKind(r.URL.Query().Get("type"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "pdf" {
		h.fail(w, r, badRequest("format", "format must be csv or pdf"))
		return
	}
	rng, err := h.parseRange(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	snap, err := h.svc.Reports.Snapshot(r.Context(), rng)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var (
		buf         bytes.Buffer
		contentType string
	)
	switch format {
	case "pdf":
		err = reports.ExportPDF(&buf, snap, kind)
		contentType = "application/pdf"
	default:
		err = reports.ExportCSV(&buf, snap, kind)
		contentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		h.fail(w, r, fmt.Errorf("export %s report: %w", format, err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reports.FileName(snap.GeneratedAt, format)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

